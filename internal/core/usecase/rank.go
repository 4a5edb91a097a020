package usecase

import (
	"sort"
	"strings"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

// Ranking weights. Species identity dominates, experiment type is secondary,
// and keyword hits accumulate but can never outweigh a species match.
const (
	weightSpecies    = 0.6
	weightType       = 0.3
	weightPerKeyword = 0.1
)

// rankExperiments scores every catalog record against the query and returns
// at most MaxCandidates, best first, ties kept in catalog insertion order.
// Scores are normalized to [0,1] against the maximum attainable weight for
// this query's shape, so a query without a species term is scored purely on
// type and keywords. Zero-scoring records are dropped.
//
// An explicit accession bypasses scoring entirely: the record is returned
// alone with score 1.0 when present, and nothing is returned when absent.
func rankExperiments(query domain.Query, catalog []domain.ExperimentRecord) []domain.ScoredCandidate {
	if query.ExplicitID != "" {
		for _, record := range catalog {
			if strings.EqualFold(record.ID, query.ExplicitID) {
				return []domain.ScoredCandidate{{Record: record, Score: 1.0}}
			}
		}
		return nil
	}

	attainable := maxAttainableWeight(query)
	if attainable == 0 {
		return nil
	}

	scored := make([]domain.ScoredCandidate, 0, len(catalog))
	for _, record := range catalog {
		score := scoreRecord(query, record) / attainable
		if score <= 0 {
			continue
		}
		scored = append(scored, domain.ScoredCandidate{Record: record, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > domain.MaxCandidates {
		scored = scored[:domain.MaxCandidates]
	}
	return scored
}

func scoreRecord(query domain.Query, record domain.ExperimentRecord) float64 {
	var score float64

	if query.Species != "" && strings.EqualFold(query.Species, record.Species) {
		score += weightSpecies
	}
	if query.Type != "" {
		// "either" grants the type weight to every record.
		if query.Type == domain.TypeEither || query.Type == record.Type {
			score += weightType
		}
	}

	if len(query.Keywords) > 0 {
		description := strings.ToLower(record.Description)
		var keywordScore float64
		for _, keyword := range query.Keywords {
			if strings.Contains(description, strings.ToLower(keyword)) {
				keywordScore += weightPerKeyword
			}
		}
		if keywordScore > weightSpecies {
			keywordScore = weightSpecies
		}
		score += keywordScore
	}
	return score
}

// maxAttainableWeight sums the weights of the components the query actually
// carries. Keyword capacity is capped at the species weight, matching the
// cap applied during scoring.
func maxAttainableWeight(query domain.Query) float64 {
	var max float64
	if query.Species != "" {
		max += weightSpecies
	}
	if query.Type != "" {
		max += weightType
	}
	if n := len(query.Keywords); n > 0 {
		capacity := weightPerKeyword * float64(n)
		if capacity > weightSpecies {
			capacity = weightSpecies
		}
		max += capacity
	}
	return max
}
