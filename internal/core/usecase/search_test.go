package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

func newTestFinder(gateway *fakeGateway) *Finder {
	return NewFinder(NewCatalogIndex(gateway, nil, time.Hour, testLogger()))
}

func TestFinderSearchRanksCandidates(t *testing.T) {
	finder := newTestFinder(&fakeGateway{records: testCatalog()})

	candidates, err := finder.Search(context.Background(), "Homo sapiens", domain.TypeDifferential, "cancer")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if candidates[0].Record.ID != "E-GEOD-21860" {
		t.Fatalf("expected the cancer record first, got %s", candidates[0].Record.ID)
	}
}

func TestFinderSearchRejectsEmptyFilter(t *testing.T) {
	finder := newTestFinder(&fakeGateway{records: testCatalog()})

	_, err := finder.Search(context.Background(), "", "", "")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestFinderSearchNoMatch(t *testing.T) {
	finder := newTestFinder(&fakeGateway{records: testCatalog()})

	_, err := finder.Search(context.Background(), "danio rerio", "", "")
	if !domain.IsKind(err, domain.ErrNoMatch) {
		t.Fatalf("expected NoMatch, got %v", err)
	}
}

func TestFinderInfoNormalizesAccession(t *testing.T) {
	finder := newTestFinder(&fakeGateway{records: testCatalog()})

	record, err := finder.Info(context.Background(), " e-curd-1 ")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if record.ID != "E-CURD-1" {
		t.Fatalf("expected E-CURD-1, got %s", record.ID)
	}
}

func TestFinderPopularFiltersByType(t *testing.T) {
	finder := newTestFinder(&fakeGateway{})

	all, err := finder.Popular(context.Background(), "")
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if len(all) != len(popularExperiments) {
		t.Fatalf("expected the whole curated list, got %d", len(all))
	}

	baseline, err := finder.Popular(context.Background(), domain.TypeBaseline)
	if err != nil {
		t.Fatalf("popular baseline: %v", err)
	}
	for _, record := range baseline {
		if record.Type != domain.TypeBaseline {
			t.Fatalf("expected only baseline records, got %s", record.Type)
		}
	}
	if len(baseline) == 0 || len(baseline) == len(all) {
		t.Fatalf("expected a proper baseline subset, got %d of %d", len(baseline), len(all))
	}
}
