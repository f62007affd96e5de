// Package main is the entry point for the abspool CLI.
//
// abspool provisions test hosts from the ABS machine pool, records them in a
// litmus inventory file and releases them again when the tests are done.
//
// Commands: provision, teardown, task, version.
//
// For detailed usage information, run:
//
//	abspool --help
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/abspool/cmd/abspool/commands"
	"github.com/imamik/abspool/cmd/abspool/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !handlers.IsReported(err) {
			handlers.WriteError(os.Stdout, err)
		}
		os.Exit(1)
	}
}
