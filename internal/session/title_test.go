// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"testing"
)

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "drops filler words and title-cases",
			input: "what is the average temperature in the indian ocean",
			want:  "Average Temperature Indian Ocean",
		},
		{
			name:  "strips punctuation",
			input: "show me salinity, please!",
			want:  "Salinity",
		},
		{
			name:  "keeps at most five keywords",
			input: "compare surface salinity pressure temperature density nitrate readings",
			want:  "Compare Surface Salinity Pressure Temperature",
		},
		{
			name:  "all filler falls back to the raw words",
			input: "what is the a an",
			want:  "What Is The A",
		},
		{
			name:  "empty input",
			input: "",
			want:  "New Chat",
		},
		{
			name:  "whitespace only",
			input: "   \t  ",
			want:  "New Chat",
		},
		{
			name:  "single-character words dropped",
			input: "x temperature y profile",
			want:  "Temperature Profile",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateTitle(tt.input); got != tt.want {
				t.Errorf("GenerateTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateTitleCapsLength(t *testing.T) {
	long := strings.Repeat("thermohaline ", 10)
	got := GenerateTitle(long)
	if len([]rune(got)) > 60 {
		t.Errorf("title is %d runes, want <= 60: %q", len([]rune(got)), got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("long title should end with ellipsis: %q", got)
	}
}

func TestGenerateTitleDeterministic(t *testing.T) {
	input := "map of oxygen levels near the equator"
	first := GenerateTitle(input)
	for i := 0; i < 5; i++ {
		if got := GenerateTitle(input); got != first {
			t.Fatalf("GenerateTitle not deterministic: %q vs %q", got, first)
		}
	}
}
