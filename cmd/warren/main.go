package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/warren/cmd/warren/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Errors are printed directly by the printer package with color formatting
	err := commands.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
