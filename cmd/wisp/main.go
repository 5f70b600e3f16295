// Command wisp is a push-to-toggle dictation daemon and its control CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rbright/wisp/internal/app"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one CLI invocation. SIGINT, SIGTERM and SIGHUP cancel the
// context so a running daemon releases its socket and audio stream.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	return app.Execute(ctx, args, os.Stdout, os.Stderr)
}
