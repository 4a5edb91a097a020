package usecase

import (
	"strings"
	"unicode"

	"github.com/genequery/atlas-assistant/internal/core/vocab"
)

// TokenKind is the closed classification of one dialog input. Exactly one
// kind applies to any input: the classifier checks the categories in a fixed
// priority order (quit > restart > ordinal > affirm > decline) so no input
// is ever ambiguous between them.
type TokenKind int

const (
	TokenUnrecognized TokenKind = iota
	TokenQuit
	TokenRestart
	TokenOrdinal
	TokenAffirm
	TokenDecline
)

// ClassifiedToken carries the kind and, for ordinals, the 1-based position.
type ClassifiedToken struct {
	Kind    TokenKind
	Ordinal int
}

// classifyToken normalizes the input (lowercase, trimmed, trailing
// punctuation stripped) and matches it against the bilingual dialog tables.
// Matching is whole-input, not substring: "1" is an ordinal, "back" is a
// restart, but "going back home" is an ordinary utterance.
func classifyToken(tables *vocab.Tables, input string) ClassifiedToken {
	normalized := normalizeDialogInput(input)
	if normalized == "" {
		return ClassifiedToken{Kind: TokenUnrecognized}
	}

	switch {
	case matchesAny(normalized, tables.DialogTokens.Quit):
		return ClassifiedToken{Kind: TokenQuit}
	case matchesAny(normalized, tables.DialogTokens.Restart):
		return ClassifiedToken{Kind: TokenRestart}
	}
	if n, ok := tables.Ordinals[normalized]; ok {
		return ClassifiedToken{Kind: TokenOrdinal, Ordinal: n}
	}
	switch {
	case matchesAny(normalized, tables.DialogTokens.Affirm):
		return ClassifiedToken{Kind: TokenAffirm}
	case matchesAny(normalized, tables.DialogTokens.Decline):
		return ClassifiedToken{Kind: TokenDecline}
	}
	return ClassifiedToken{Kind: TokenUnrecognized}
}

func matchesAny(normalized string, candidates []string) bool {
	for _, candidate := range candidates {
		if normalized == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}

func normalizeDialogInput(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
