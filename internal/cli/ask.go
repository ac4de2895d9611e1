// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot query command handler for the floatchat CLI.
//
// Handles the "floatchat ask" command, which runs a query against the
// backend without saving it to chat history and prints the structured
// result. With a question on the command line (or piped on stdin) it
// answers once and exits; on a bare terminal it opens a small REPL.
//
// Examples:
//   floatchat ask "average temperature in the arabian sea"
//   floatchat ask --json "salinity trend near the equator"
//   echo "nearest floats to 12N 64E" | floatchat ask
package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/neel-drishti/floatchat-tui/internal/api"
	"github.com/neel-drishti/floatchat-tui/internal/config"
	"github.com/neel-drishti/floatchat-tui/internal/model"
	"github.com/neel-drishti/floatchat-tui/internal/ui/styles"
	"github.com/neel-drishti/floatchat-tui/internal/util"
)

const askTimeout = 60 * time.Second

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the glamour renderer for terminal output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// STYLES
// =============================================================================

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.Ocean)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(styles.Teal)

	tableMetaStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)
)

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAskCommand handles the "ask" command. Queries run without being
// saved to history and return their structured result in one shot.
func HandleAskCommand(client *api.Client, args Args) error {
	question := args.Query

	// No question on the command line: read piped stdin, or start the
	// interactive prompt when attached to a terminal.
	if question == "" {
		if IsStdinTTY() {
			return runAskREPL(client, args)
		}
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err == nil {
			question = strings.TrimSpace(string(data))
		}
	}

	if question == "" {
		return fmt.Errorf("no question provided. Usage: floatchat ask \"your question\"")
	}

	return askOnce(client, question, args)
}

// askOnce runs a single one-shot query and prints the result.
func askOnce(client *api.Client, question string, args Args) error {
	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	result, err := client.OneShotQuery(ctx, question)
	if err != nil {
		if args.JSON {
			json.NewEncoder(os.Stdout).Encode(map[string]string{"error": err.Error()})
		}
		return fmt.Errorf("query failed: %w", err)
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result, args)
	return nil
}

// printResult renders a query result for the terminal.
func printResult(result *model.QueryResult, args Args) {
	if result.Message != "" {
		if IsStdoutTTY() {
			fmt.Print(renderMarkdown(result.Message))
		} else {
			fmt.Println(result.Message)
		}
	}

	if len(result.Data) > 0 {
		fmt.Println(formatRecordsTable(result.Data))
		if !args.Quiet {
			fmt.Fprintln(os.Stderr, tableMetaStyle.Render(
				fmt.Sprintf("%d float record(s), query type %s", len(result.Data), result.QueryType)))
		}
	} else if result.Message == "" {
		fmt.Println("No matching float data.")
	}
}

// =============================================================================
// RECORD TABLE
// =============================================================================

var recordColumns = []struct {
	header string
	width  int
}{
	{"FLOAT", 10},
	{"LAT", 8},
	{"LON", 9},
	{"TEMP C", 8},
	{"SAL PSU", 8},
	{"PRES DBAR", 10},
	{"MEASURED", 16},
}

// formatRecordsTable renders float records as a fixed-width table.
func formatRecordsTable(records []model.FloatRecord) string {
	var b strings.Builder

	var header strings.Builder
	for _, col := range recordColumns {
		header.WriteString(util.PadWidth(col.header, col.width+2))
	}
	if IsStdoutTTY() {
		b.WriteString(tableHeaderStyle.Render(strings.TrimRight(header.String(), " ")))
	} else {
		b.WriteString(strings.TrimRight(header.String(), " "))
	}
	b.WriteString("\n")

	for _, rec := range records {
		cells := []string{
			rec.FloatID,
			util.FloatToStringPrec(rec.Latitude, 3),
			util.FloatToStringPrec(rec.Longitude, 3),
			util.FloatToStringPrec(rec.TemperatureC, 2),
			util.FloatToStringPrec(rec.SalinityPSU, 2),
			util.FloatToStringPrec(rec.PressureDbar, 1),
			rec.MeasuredAt.Format("2006-01-02 15:04"),
		}
		for i, cell := range cells {
			b.WriteString(util.PadWidth(util.TruncateWidth(cell, recordColumns[i].width), recordColumns[i].width+2))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// =============================================================================
// INTERACTIVE REPL
// =============================================================================

// runAskREPL runs an interactive ask loop with line editing and history.
func runAskREPL(client *api.Client, args Args) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	var historyPath string
	if dir, err := config.ConfigDir(); err == nil {
		historyPath = filepath.Join(dir, "ask_history")
	}
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer func() {
			var buf bytes.Buffer
			if _, err := line.WriteHistory(&buf); err == nil {
				util.AtomicWriteFile(historyPath, buf.Bytes(), 0600)
			}
		}()
	}

	if !args.Quiet {
		fmt.Fprintln(os.Stderr, infoStyle.Render("FloatChat one-shot queries. Ctrl+D to exit."))
	}

	for {
		input, err := line.Prompt("floatchat> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Fprintln(os.Stderr)
			return nil
		}
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}
		line.AppendHistory(input)

		if err := askOnce(client, input, args); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[error]"), err)
		}
		fmt.Println()
	}
}
