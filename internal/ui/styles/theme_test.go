// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewThemeInitializesStyles(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}

	// A zero style renders text unchanged; the configured styles must not
	// be zero values.
	if theme.UserBubble.GetPaddingLeft() == 0 && theme.UserBubble.GetMarginLeft() == 0 {
		t.Error("UserBubble style not initialized")
	}
	if !theme.HeaderTitle.GetBold() {
		t.Error("HeaderTitle should be bold")
	}
	if !theme.SessionItemSelected.GetBold() {
		t.Error("SessionItemSelected should be bold")
	}
}

func TestThemeRendersWithoutPanic(t *testing.T) {
	theme := NewTheme()
	for name, style := range map[string]string{
		"header":    theme.Header.Render("FloatChat"),
		"user":      theme.UserBubble.Render("hello"),
		"assistant": theme.AssistantBubble.Render("hi"),
		"error":     theme.ErrorText.Render("boom"),
	} {
		if style == "" {
			t.Errorf("%s rendered empty", name)
		}
	}
}
