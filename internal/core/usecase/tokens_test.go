package usecase

import (
	"testing"

	"github.com/genequery/atlas-assistant/internal/core/vocab"
)

func TestClassifyTokenCategories(t *testing.T) {
	tables := vocab.Default()

	cases := []struct {
		input   string
		kind    TokenKind
		ordinal int
	}{
		{"quit", TokenQuit, 0},
		{"EXIT", TokenQuit, 0},
		{"退出", TokenQuit, 0},
		{"back", TokenRestart, 0},
		{"返回", TokenRestart, 0},
		{"1", TokenOrdinal, 1},
		{"2", TokenOrdinal, 2},
		{"first", TokenOrdinal, 1},
		{"第二个", TokenOrdinal, 2},
		{"yes", TokenAffirm, 0},
		{"是的", TokenAffirm, 0},
		{"no", TokenDecline, 0},
		{"不要", TokenDecline, 0},
		{"show me human data", TokenUnrecognized, 0},
		{"", TokenUnrecognized, 0},
	}
	for _, tc := range cases {
		got := classifyToken(tables, tc.input)
		if got.Kind != tc.kind {
			t.Fatalf("input %q: expected kind %d, got %d", tc.input, tc.kind, got.Kind)
		}
		if got.Ordinal != tc.ordinal {
			t.Fatalf("input %q: expected ordinal %d, got %d", tc.input, tc.ordinal, got.Ordinal)
		}
	}
}

func TestClassifyTokenIsCaseAndPunctuationInsensitive(t *testing.T) {
	tables := vocab.Default()

	if got := classifyToken(tables, "  Yes!  "); got.Kind != TokenAffirm {
		t.Fatalf("expected affirm, got %d", got.Kind)
	}
	if got := classifyToken(tables, "Back."); got.Kind != TokenRestart {
		t.Fatalf("expected restart, got %d", got.Kind)
	}
}

func TestClassifyTokenPriorityQuitBeatsEverything(t *testing.T) {
	tables := vocab.Default()

	// "quit" stays a quit even though a loose reading could call it a
	// decline; the fixed priority order removes the ambiguity.
	if got := classifyToken(tables, "quit"); got.Kind != TokenQuit {
		t.Fatalf("expected quit, got %d", got.Kind)
	}
}

func TestClassifyTokenWholeInputOnly(t *testing.T) {
	tables := vocab.Default()

	if got := classifyToken(tables, "going back home"); got.Kind != TokenUnrecognized {
		t.Fatalf("expected substring 'back' not to classify, got %d", got.Kind)
	}
}
