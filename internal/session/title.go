// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"unicode"

	"github.com/neel-drishti/floatchat-tui/internal/model"
	"github.com/neel-drishti/floatchat-tui/internal/util"
)

// Filler words excluded from generated titles.
var titleStopwords = map[string]bool{
	"what": true, "is": true, "the": true, "a": true, "an": true,
	"of": true, "in": true, "on": true, "for": true, "to": true,
	"and": true, "or": true, "with": true, "by": true, "from": true,
	"at": true, "how": true, "why": true, "can": true, "you": true,
	"tell": true, "me": true, "show": true, "does": true, "do": true,
	"are": true, "i": true, "my": true, "about": true, "please": true,
	"help": true, "explain": true, "describe": true, "list": true,
}

const (
	maxTitleKeywords = 5
	maxTitleRunes    = 60
)

// GenerateTitle derives a short, deterministic session title from the
// first user message: punctuation stripped, filler words dropped, the
// first few keywords title-cased and capped at 60 characters. Falls back
// to the default title when nothing usable remains.
func GenerateTitle(userMessage string) string {
	if strings.TrimSpace(userMessage) == "" {
		return model.DefaultSessionTitle
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, userMessage)

	words := strings.Fields(cleaned)
	var keywords []string
	for _, w := range words {
		if titleStopwords[strings.ToLower(w)] || util.RuneLen(w) < 2 {
			continue
		}
		keywords = append(keywords, w)
	}

	// Everything was filler; keep a few of the original words instead.
	if len(keywords) == 0 {
		if len(words) > 4 {
			words = words[:4]
		}
		keywords = words
	}
	if len(keywords) > maxTitleKeywords {
		keywords = keywords[:maxTitleKeywords]
	}

	for i, w := range keywords {
		keywords[i] = titleCase(w)
	}

	title := strings.Join(keywords, " ")
	if title == "" {
		return model.DefaultSessionTitle
	}
	return util.TruncateRunes(title, maxTitleRunes)
}

// titleCase uppercases the first rune and lowercases the rest.
func titleCase(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
