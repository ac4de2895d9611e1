// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/neel-drishti/floatchat-tui/internal/api"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const usage = `floatchat - chat with ocean float telemetry

Usage:
  floatchat              Start the interactive TUI
  floatchat ask [query]  Run a one-shot query (REPL when no query given)
  floatchat health       Check backend connectivity
  floatchat version      Print the version
  floatchat help         Show this help

Flags:
  --json       Machine-readable output (ask, health)
  -q, --quiet  Suppress informational output
  --config X   Use an alternate config file
`

// Run dispatches a CLI subcommand. It returns (handled=false) when no
// subcommand matched and the caller should start the TUI instead.
func Run(client *api.Client, args Args) (handled bool, err error) {
	switch args.Command {
	case "":
		return false, nil
	case "ask":
		return true, HandleAskCommand(client, args)
	case "health":
		return true, handleHealth(client, args)
	case "version":
		fmt.Println("floatchat " + Version)
		return true, nil
	case "help", "--help", "-h":
		fmt.Print(usage)
		return true, nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return true, fmt.Errorf("unknown command: %s", args.Command)
	}
}

func handleHealth(client *api.Client, args Args) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := client.Health(ctx)
	if args.JSON {
		status := "ok"
		if err != nil {
			status = "unreachable"
		}
		fmt.Printf("{\"backend\": %q, \"status\": %q}\n", client.BaseURL(), status)
		return err
	}
	if err != nil {
		return fmt.Errorf("backend %s unreachable: %w", client.BaseURL(), err)
	}
	fmt.Printf("backend %s is healthy\n", client.BaseURL())
	return nil
}
