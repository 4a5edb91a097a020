package usecase

import (
	"strings"
	"unicode"

	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/core/vocab"
)

// Extractor turns one free-text utterance (English, Chinese, or a mix) into
// a structured Query. It is a pure function of the utterance and the
// vocabulary tables.
type Extractor struct {
	tables *vocab.Tables
}

func NewExtractor(tables *vocab.Tables) *Extractor {
	return &Extractor{tables: tables}
}

// Extract parses the utterance. A well-formed catalog accession anywhere in
// the text wins outright: the query resolves to that identifier and no other
// field is set. Absence of a species or type match is not an error — an
// unset field broadens ranking.
func (e *Extractor) Extract(utterance string) domain.Query {
	normalized := normalizeDashes(utterance)

	for _, token := range strings.Fields(normalized) {
		token = trimTokenPunct(token)
		if token != "" && e.tables.MatchAccession(token) {
			return domain.Query{ExplicitID: strings.ToUpper(token)}
		}
	}

	text := strings.ToLower(normalized)
	query := domain.Query{}

	// Species aliases are checked longest-first and the matched surface is
	// consumed, so "arabidopsis thaliana" never leaves "thaliana" behind as
	// a keyword.
	for _, alias := range e.tables.SpeciesAliases() {
		idx := indexSurface(text, alias.Surface)
		if idx < 0 {
			continue
		}
		query.Species = alias.Canonical
		text = text[:idx] + " " + text[idx+len(alias.Surface):]
		break
	}

	query.Type = e.typeSignal(text)
	query.Keywords = e.keywords(text)
	return query
}

// typeSignal scans for experiment-type keywords without consuming them: a
// term like "cancer" is both a differential signal and a search keyword.
// Comparison language dominates, so differential beats baseline beats either.
func (e *Extractor) typeSignal(text string) domain.ExperimentType {
	switch {
	case containsAnySurface(text, e.tables.TypeSignals.Differential):
		return domain.TypeDifferential
	case containsAnySurface(text, e.tables.TypeSignals.Baseline):
		return domain.TypeBaseline
	case containsAnySurface(text, e.tables.TypeSignals.Either):
		return domain.TypeEither
	}
	return ""
}

func (e *Extractor) keywords(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, token := range tokenize(text) {
		if isCJK(token) {
			token = e.tables.StripStopwords(token)
			if token == "" {
				continue
			}
		} else if e.tables.IsStopword(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// tokenize splits lowercased text into tokens: Latin-script runs break on
// anything non-alphanumeric, CJK runs survive as single tokens (Chinese does
// not delimit words with spaces).
func tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	var cjkRun bool

	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			if !cjkRun {
				flush()
				cjkRun = true
			}
			b.WriteRune(r)
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if cjkRun {
				flush()
				cjkRun = false
			}
			b.WriteRune(r)
		default:
			flush()
			cjkRun = false
		}
	}
	flush()
	return tokens
}

func isCJK(token string) bool {
	for _, r := range token {
		return unicode.Is(unicode.Han, r)
	}
	return false
}

// indexSurface finds a vocabulary surface form in the text. ASCII surfaces
// require word boundaries so "rat" does not fire inside "strategy"; CJK
// surfaces match as plain substrings.
func indexSurface(text, surface string) int {
	if !isASCII(surface) {
		return strings.Index(text, surface)
	}
	from := 0
	for {
		idx := strings.Index(text[from:], surface)
		if idx < 0 {
			return -1
		}
		idx += from
		if boundaryBefore(text, idx) && boundaryAfter(text, idx+len(surface)) {
			return idx
		}
		from = idx + 1
	}
}

func containsAnySurface(text string, surfaces []string) bool {
	for _, s := range surfaces {
		if indexSurface(text, strings.ToLower(s)) >= 0 {
			return true
		}
	}
	return false
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r := rune(text[idx-1])
	return !isWordByte(r)
}

func boundaryAfter(text string, idx int) bool {
	if idx >= len(text) {
		return true
	}
	r := rune(text[idx])
	return !isWordByte(r)
}

func isWordByte(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// normalizeDashes folds the unicode dash family to '-' so accessions pasted
// from rendered documents still match.
func normalizeDashes(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Pd, r) {
			return '-'
		}
		return r
	}, s)
}

func trimTokenPunct(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return unicode.IsPunct(r) && r != '-'
	})
}
