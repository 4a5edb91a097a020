// Package vocab holds the bilingual synonym tables the core matches
// utterances against: species aliases, experiment-type signal keywords,
// stopwords, dialog tokens, and the catalog accession pattern. The tables
// are data, not code — loaded once at process start from an embedded YAML
// document (or an override file) and treated as read-only afterwards.
package vocab

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embeddedTables []byte

type SpeciesEntry struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases"`
}

type TypeSignals struct {
	Baseline     []string `yaml:"baseline"`
	Differential []string `yaml:"differential"`
	Either       []string `yaml:"either"`
}

type DialogTokens struct {
	Quit    []string `yaml:"quit"`
	Restart []string `yaml:"restart"`
	Affirm  []string `yaml:"affirm"`
	Decline []string `yaml:"decline"`
}

type Tables struct {
	AccessionPattern string         `yaml:"accession_pattern"`
	Species          []SpeciesEntry `yaml:"species"`
	TypeSignals      TypeSignals    `yaml:"type_signals"`
	Stopwords        []string       `yaml:"stopwords"`
	DialogTokens     DialogTokens   `yaml:"dialog_tokens"`
	Ordinals         map[string]int `yaml:"ordinals"`

	accessionRE    *regexp.Regexp
	stopwordSet    map[string]struct{}
	stopwordsByLen []string
	aliases        []SpeciesAlias
}

// SpeciesAlias is one surface form mapped to its canonical species name.
type SpeciesAlias struct {
	Surface   string
	Canonical string
}

// Default parses the embedded tables. It panics on failure because the
// embedded document ships with the binary; a parse error is a build defect.
func Default() *Tables {
	tables, err := parse(embeddedTables)
	if err != nil {
		panic(fmt.Sprintf("vocab: embedded tables invalid: %v", err))
	}
	return tables
}

// Load reads tables from an override file. An empty path returns the
// embedded defaults.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocab file: %w", err)
	}
	tables, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse vocab file %s: %w", path, err)
	}
	return tables, nil
}

func parse(raw []byte) (*Tables, error) {
	var tables Tables
	if err := yaml.Unmarshal(raw, &tables); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := tables.compile(); err != nil {
		return nil, err
	}
	return &tables, nil
}

func (t *Tables) compile() error {
	if strings.TrimSpace(t.AccessionPattern) == "" {
		return fmt.Errorf("accession_pattern is required")
	}
	re, err := regexp.Compile(t.AccessionPattern)
	if err != nil {
		return fmt.Errorf("compile accession pattern: %w", err)
	}
	t.accessionRE = re

	if len(t.Species) == 0 {
		return fmt.Errorf("species table is empty")
	}
	t.aliases = make([]SpeciesAlias, 0, len(t.Species)*4)
	for i, entry := range t.Species {
		canonical := strings.ToLower(strings.TrimSpace(entry.Canonical))
		if canonical == "" {
			return fmt.Errorf("species entry %d has no canonical name", i)
		}
		for _, alias := range entry.Aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias == "" {
				continue
			}
			t.aliases = append(t.aliases, SpeciesAlias{Surface: alias, Canonical: canonical})
		}
	}
	// Longest surface first so "arabidopsis thaliana" beats "arabidopsis";
	// ties keep table order.
	sort.SliceStable(t.aliases, func(i, j int) bool {
		return len(t.aliases[i].Surface) > len(t.aliases[j].Surface)
	})

	t.stopwordSet = make(map[string]struct{}, len(t.Stopwords))
	t.stopwordsByLen = make([]string, 0, len(t.Stopwords))
	for _, w := range t.Stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, seen := t.stopwordSet[w]; seen {
			continue
		}
		t.stopwordSet[w] = struct{}{}
		t.stopwordsByLen = append(t.stopwordsByLen, w)
	}
	// Longer stopwords first so "数据集" is removed before "数据".
	sort.SliceStable(t.stopwordsByLen, func(i, j int) bool {
		return len(t.stopwordsByLen[i]) > len(t.stopwordsByLen[j])
	})
	return nil
}

// MatchAccession reports whether the token is a well-formed catalog
// accession (case-insensitive).
func (t *Tables) MatchAccession(token string) bool {
	return t.accessionRE.MatchString(token)
}

// SpeciesAliases returns all alias entries, longest surface form first.
func (t *Tables) SpeciesAliases() []SpeciesAlias {
	return t.aliases
}

// IsStopword reports whether the lowercased token carries no search signal.
func (t *Tables) IsStopword(token string) bool {
	_, ok := t.stopwordSet[token]
	return ok
}

// StripStopwords removes every stopword occurring as a substring of s.
// Used on CJK runs, which do not tokenize on whitespace.
func (t *Tables) StripStopwords(s string) string {
	for _, w := range t.stopwordsByLen {
		s = strings.ReplaceAll(s, w, "")
		if s == "" {
			break
		}
	}
	return s
}
