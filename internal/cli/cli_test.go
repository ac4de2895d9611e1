// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/neel-drishti/floatchat-tui/internal/model"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Args
	}{
		{
			name: "bare invocation starts the TUI",
			argv: nil,
			want: Args{},
		},
		{
			name: "ask with a quoted question",
			argv: []string{"ask", "average temperature near the equator"},
			want: Args{Command: "ask", Query: "average temperature near the equator"},
		},
		{
			name: "ask with flags and multiple words",
			argv: []string{"ask", "--json", "-q", "salinity", "trend"},
			want: Args{Command: "ask", Query: "salinity trend", JSON: true, Quiet: true},
		},
		{
			name: "config flag consumes its value",
			argv: []string{"ask", "--config", "/tmp/alt.toml", "hello"},
			want: Args{Command: "ask", Query: "hello", ConfigPath: "/tmp/alt.toml"},
		},
		{
			name: "unknown flags fold into the query",
			argv: []string{"ask", "what", "--is", "this"},
			want: Args{Command: "ask", Query: "what --is this"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseArgs(tt.argv); got != tt.want {
				t.Errorf("ParseArgs(%v) = %+v, want %+v", tt.argv, got, tt.want)
			}
		})
	}
}

func TestFormatRecordsTable(t *testing.T) {
	measured := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	records := []model.FloatRecord{
		{FloatID: "2902746", Latitude: 12.5, Longitude: 64.25, TemperatureC: 27.84,
			SalinityPSU: 35.12, PressureDbar: 5.5, MeasuredAt: measured},
		{FloatID: "2902747", Latitude: -3.125, Longitude: 71.0, TemperatureC: 29.01,
			SalinityPSU: 34.9, PressureDbar: 10.0, MeasuredAt: measured},
	}

	table := formatRecordsTable(records)
	lines := strings.Split(table, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus two rows", len(lines))
	}
	if !strings.Contains(lines[0], "FLOAT") || !strings.Contains(lines[0], "SAL PSU") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "2902746") || !strings.Contains(lines[1], "27.84") {
		t.Errorf("row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "-3.125") {
		t.Errorf("row = %q, want negative latitude formatted", lines[2])
	}
	if !strings.Contains(lines[1], "2025-06-01 10:30") {
		t.Errorf("row = %q, want formatted timestamp", lines[1])
	}
}
