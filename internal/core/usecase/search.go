package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

// popularExperiments is the curated fallback list surfaced by the popular
// tool and suggested when a search comes up empty. It is never merged into
// ranked search results.
var popularExperiments = []domain.ExperimentRecord{
	{
		ID:          "E-MTAB-513",
		Species:     "homo sapiens",
		Type:        domain.TypeBaseline,
		Description: "RNA-seq of human individual tissues from the Illumina Body Map",
	},
	{
		ID:          "E-MTAB-5214",
		Species:     "mus musculus",
		Type:        domain.TypeBaseline,
		Description: "RNA-seq of mouse tissues",
	},
	{
		ID:          "E-MTAB-3358",
		Species:     "arabidopsis thaliana",
		Type:        domain.TypeBaseline,
		Description: "RNA-seq of Arabidopsis thaliana tissues and developmental stages",
	},
	{
		ID:          "E-GEOD-21860",
		Species:     "homo sapiens",
		Type:        domain.TypeDifferential,
		Description: "Transcription profiling of human colorectal cancer",
	},
	{
		ID:          "E-MTAB-1733",
		Species:     "mus musculus",
		Type:        domain.TypeDifferential,
		Description: "RNA-seq of mouse liver after drug treatment",
	},
}

// Finder implements the one-shot tool operations: search, info, popular.
type Finder struct {
	index *CatalogIndex
}

func NewFinder(index *CatalogIndex) *Finder {
	return &Finder{index: index}
}

// Search ranks the catalog against a structured filter. It is the tool-style
// sibling of the conversational flow: the caller supplies the fields the
// extractor would otherwise parse out of an utterance.
func (f *Finder) Search(
	ctx context.Context,
	species string,
	experimentType domain.ExperimentType,
	keyword string,
) ([]domain.ScoredCandidate, error) {
	query := domain.Query{
		Species: strings.ToLower(strings.TrimSpace(species)),
		Type:    experimentType,
	}
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		query.Keywords = []string{strings.ToLower(keyword)}
	}
	if query.Empty() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search experiments", fmt.Errorf("at least one of species, type, keyword is required"))
	}

	catalog, err := f.index.Load(ctx, domain.CatalogFilter{})
	if err != nil {
		return nil, err
	}
	candidates := rankExperiments(query, catalog)
	if len(candidates) == 0 {
		return nil, domain.WrapError(domain.ErrNoMatch, "search experiments", fmt.Errorf("no experiment matched the query"))
	}
	return candidates, nil
}

// Info resolves one accession to its catalog record.
func (f *Finder) Info(ctx context.Context, experimentID string) (*domain.ExperimentRecord, error) {
	experimentID = strings.ToUpper(strings.TrimSpace(experimentID))
	if experimentID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "experiment info", fmt.Errorf("experiment id is required"))
	}
	return f.index.ByID(ctx, experimentID)
}

// Popular returns the curated subset, optionally narrowed by type. The list
// is static so this never touches the network.
func (f *Finder) Popular(_ context.Context, experimentType domain.ExperimentType) ([]domain.ExperimentRecord, error) {
	if experimentType == "" || experimentType == domain.TypeEither {
		out := make([]domain.ExperimentRecord, len(popularExperiments))
		copy(out, popularExperiments)
		return out, nil
	}
	out := make([]domain.ExperimentRecord, 0, len(popularExperiments))
	for _, record := range popularExperiments {
		if record.Type == experimentType {
			out = append(out, record)
		}
	}
	return out, nil
}
