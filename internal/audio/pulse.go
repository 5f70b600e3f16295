package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const fragmentSizeBytes = 640 // 20ms @ 16kHz mono s16

// PulseSource streams 16kHz mono s16 samples from one selected Pulse source.
type PulseSource struct {
	input    string
	fallback string
	logger   *slog.Logger

	mu        sync.Mutex
	client    *pulse.Client
	stream    *pulse.RecordStream
	device    Device
	onSamples SampleFunc
	carry     []byte
	stopped   bool
}

// NewPulseSource resolves input/fallback preferences when started.
func NewPulseSource(input string, fallback string, logger *slog.Logger) *PulseSource {
	return &PulseSource{input: input, fallback: fallback, logger: logger}
}

// Name identifies the backend in logs.
func (p *PulseSource) Name() string {
	return "pulse"
}

// Device returns the source selected by Start.
func (p *PulseSource) Device() Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.device
}

// Start selects a device and begins the background record stream.
func (p *PulseSource) Start(ctx context.Context, onSamples SampleFunc) error {
	selection, err := SelectDevice(ctx, p.input, p.fallback)
	if err != nil {
		return err
	}
	if selection.Warning != "" && p.logger != nil {
		p.logger.Warn("audio device fallback", "warning", selection.Warning)
	}

	client, err := NewPulseClient()
	if err != nil {
		return err
	}

	source, err := client.SourceByID(selection.Device.ID)
	if err != nil {
		client.Close()
		return fmt.Errorf("resolve source %q: %w", selection.Device.ID, err)
	}

	p.mu.Lock()
	p.client = client
	p.device = selection.Device
	p.onSamples = onSamples
	p.stopped = false
	p.mu.Unlock()

	writer := pulse.NewWriter(writerFunc(p.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(fragmentSizeBytes),
		pulse.RecordMediaName("wisp dictation"),
	)
	if err != nil {
		_ = p.Stop()
		return fmt.Errorf("create pulse record stream: %w", err)
	}

	p.mu.Lock()
	p.stream = stream
	p.mu.Unlock()
	stream.Start()
	return nil
}

// Stop halts the record stream and releases the client. Safe to call repeatedly.
func (p *PulseSource) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	stream := p.stream
	client := p.client
	p.stream = nil
	p.client = nil
	p.mu.Unlock()

	if stream != nil {
		stream.Stop()
		stream.Close()
	}
	if client != nil {
		client.Close()
	}
	return nil
}

// onPCM decodes little-endian s16 frames and forwards whole samples.
func (p *PulseSource) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return 0, io.EOF
	}
	data := append(p.carry, buffer...)
	whole := len(data) / 2 * 2
	p.carry = append([]byte(nil), data[whole:]...)
	fn := p.onSamples
	p.mu.Unlock()

	if whole == 0 || fn == nil {
		return len(buffer), nil
	}
	fn(decodeInt16LE(data[:whole]))
	return len(buffer), nil
}

func decodeInt16LE(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
