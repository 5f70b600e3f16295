// Package audio captures 16 kHz mono PCM from Pulse or PortAudio and turns
// it into clips for transcription.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// ErrNoInputDevice reports that no capture device could be found.
var ErrNoInputDevice = errors.New("no audio input devices found")

// Pulse port availability values.
const (
	portAvailableUnknown = 0
	portAvailableYes     = 2
)

var sourceStates = [...]string{"running", "idle", "suspended"}

// NewPulseClient connects to the session Pulse/PipeWire server as wisp.
func NewPulseClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("wisp"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// Device is one capture source known to the sound server.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

func (d Device) usable() bool { return d.Available && !d.Muted }

func (d Device) problem() string {
	if d.Muted {
		return "muted"
	}
	return "unavailable"
}

// Selection is the device chosen for capture. Warning is set when the
// configured input could not be used and Fallback when another device
// replaced it.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// ListDevices returns every Pulse input source.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := NewPulseClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	def, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var infos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          info.SourceName,
			Description: info.Device,
			State:       sourceStateString(info.State),
			Available:   sourceAvailable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == def.ID(),
		})
	}
	return devices, nil
}

// SelectDevice picks the capture device for the audio.input and
// audio.fallback settings from the live device list.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, input, fallback)
}

// selectDeviceFromList uses input when it is usable and otherwise moves to
// fallback. "default" or an empty term names the server's default source.
func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, ErrNoInputDevice
	}

	primary, err := resolveDevice(devices, input)
	if err != nil {
		if isDefaultTerm(input) {
			return Selection{}, err
		}
		return Selection{}, fmt.Errorf("audio.input %q did not match any device", normalizeTerm(input))
	}
	if primary.usable() {
		return Selection{Device: primary}, nil
	}

	reason := primary.problem()
	alt, err := resolveDevice(devices, fallback)
	switch {
	case err != nil && isDefaultTerm(fallback):
		return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: %w", primary.ID, reason, err)
	case err != nil:
		return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, reason, normalizeTerm(fallback))
	case !alt.Available:
		return Selection{}, fmt.Errorf("audio fallback device %q is not available", alt.ID)
	case alt.Muted:
		return Selection{}, fmt.Errorf("audio fallback device %q is muted", alt.ID)
	}

	return Selection{
		Device:   alt,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, alt.ID),
		Fallback: alt.ID != primary.ID,
	}, nil
}

// resolveDevice finds the device named by term: the default source for a
// default term, otherwise the first id or description containing it.
func resolveDevice(devices []Device, term string) (Device, error) {
	if isDefaultTerm(term) {
		for _, d := range devices {
			if d.Default {
				return d, nil
			}
		}
		return Device{}, errors.New("default audio source is unavailable")
	}

	term = normalizeTerm(term)
	for _, d := range devices {
		if deviceMatches(d, term) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("no device matches %q", term)
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func isDefaultTerm(term string) bool {
	term = normalizeTerm(term)
	return term == "" || term == "default"
}

// deviceMatches reports whether term is a substring of the device id or
// description. term must already be lower-cased.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Description), term)
}

func sourceStateString(state uint32) string {
	if int(state) < len(sourceStates) {
		return sourceStates[state]
	}
	return fmt.Sprintf("unknown(%d)", state)
}

// sourceAvailable reports whether the active port of source is plugged in.
// Sources without ports, or whose active port is unknown, count as available.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	for _, port := range source.Ports {
		if port.Name == source.ActivePortName {
			return port.Available == portAvailableUnknown || port.Available == portAvailableYes
		}
	}
	return true
}
