// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "strings"

// Args holds the parsed command line arguments.
type Args struct {
	// Command is the subcommand ("ask", "version", "help", or "" for the TUI).
	Command string
	// Query is the question text built from positional arguments.
	Query string
	// JSON switches output to machine-readable JSON.
	JSON bool
	// Quiet suppresses informational stderr output.
	Quiet bool
	// ConfigPath overrides the config file location.
	ConfigPath string
}

// ParseArgs parses os.Args[1:] into an Args value. Unknown flags are
// treated as part of the query so quoting mistakes do not hard-fail.
func ParseArgs(argv []string) Args {
	var args Args
	var queryParts []string

	rest := argv
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		args.Command = rest[0]
		rest = rest[1:]
	}

	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--json":
			args.JSON = true
		case "-q", "--quiet":
			args.Quiet = true
		case "--config":
			if i+1 < len(rest) {
				i++
				args.ConfigPath = rest[i]
			}
		default:
			queryParts = append(queryParts, rest[i])
		}
	}

	args.Query = strings.TrimSpace(strings.Join(queryParts, " "))
	return args
}
