package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeGateway struct {
	records []domain.ExperimentRecord
	err     error
	calls   int
}

func (g *fakeGateway) Experiments(_ context.Context, filter domain.CatalogFilter) ([]domain.ExperimentRecord, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return filterRecords(g.records, filter), nil
}

func (g *fakeGateway) ExperimentByID(_ context.Context, id string) (*domain.ExperimentRecord, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	for _, record := range g.records {
		if strings.EqualFold(record.ID, id) {
			found := record
			return &found, nil
		}
	}
	return nil, domain.WrapError(domain.ErrUnknownIdentifier, "fake by id", fmt.Errorf("no %s", id))
}

type fakeSnapshotStore struct {
	records    []domain.ExperimentRecord
	loadErr    error
	replaceErr error
	replaced   int
}

func (s *fakeSnapshotStore) Replace(_ context.Context, records []domain.ExperimentRecord) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.records = records
	s.replaced++
	return nil
}

func (s *fakeSnapshotStore) Load(_ context.Context) ([]domain.ExperimentRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.records, nil
}

func TestIndexMemoizesWithinTTL(t *testing.T) {
	gateway := &fakeGateway{records: testCatalog()}
	index := NewCatalogIndex(gateway, nil, time.Hour, testLogger())

	ctx := context.Background()
	if _, err := index.Load(ctx, domain.CatalogFilter{}); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if _, err := index.Load(ctx, domain.CatalogFilter{Species: "homo sapiens"}); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if gateway.calls != 1 {
		t.Fatalf("expected one gateway call, got %d", gateway.calls)
	}
}

func TestIndexPersistsSnapshotOnSuccess(t *testing.T) {
	gateway := &fakeGateway{records: testCatalog()}
	store := &fakeSnapshotStore{}
	index := NewCatalogIndex(gateway, store, time.Hour, testLogger())

	if _, err := index.Load(context.Background(), domain.CatalogFilter{}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.replaced != 1 {
		t.Fatalf("expected snapshot replaced once, got %d", store.replaced)
	}
}

func TestIndexFallsBackToStoredSnapshot(t *testing.T) {
	gateway := &fakeGateway{err: domain.WrapError(domain.ErrCatalogUnavailable, "fake", fmt.Errorf("down"))}
	store := &fakeSnapshotStore{records: testCatalog()}
	index := NewCatalogIndex(gateway, store, time.Hour, testLogger())

	records, err := index.Load(context.Background(), domain.CatalogFilter{})
	if err != nil {
		t.Fatalf("expected stored snapshot to serve the load, got %v", err)
	}
	if len(records) != len(testCatalog()) {
		t.Fatalf("expected %d stored records, got %d", len(testCatalog()), len(records))
	}
}

func TestIndexPropagatesUnavailableWithoutSnapshot(t *testing.T) {
	gateway := &fakeGateway{err: domain.WrapError(domain.ErrCatalogUnavailable, "fake", fmt.Errorf("down"))}
	index := NewCatalogIndex(gateway, &fakeSnapshotStore{}, time.Hour, testLogger())

	_, err := index.Load(context.Background(), domain.CatalogFilter{})
	if !domain.IsKind(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestIndexFilterApplies(t *testing.T) {
	gateway := &fakeGateway{records: testCatalog()}
	index := NewCatalogIndex(gateway, nil, time.Hour, testLogger())

	records, err := index.Load(context.Background(), domain.CatalogFilter{
		Species: "homo sapiens",
		Type:    domain.TypeDifferential,
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 || records[0].ID != "E-GEOD-21860" {
		t.Fatalf("expected only the human differential record, got %+v", records)
	}
}

func TestIndexByIDUnknownAccession(t *testing.T) {
	gateway := &fakeGateway{records: testCatalog()}
	index := NewCatalogIndex(gateway, nil, time.Hour, testLogger())

	_, err := index.ByID(context.Background(), "E-MTAB-99999")
	if !domain.IsKind(err, domain.ErrUnknownIdentifier) {
		t.Fatalf("expected ErrUnknownIdentifier, got %v", err)
	}
}

func TestIndexByIDFallsBackToSnapshotWhenGatewayDown(t *testing.T) {
	gateway := &fakeGateway{records: testCatalog()}
	index := NewCatalogIndex(gateway, nil, time.Hour, testLogger())

	// Warm the memo, then take the gateway down.
	if _, err := index.Load(context.Background(), domain.CatalogFilter{}); err != nil {
		t.Fatalf("warm load: %v", err)
	}
	gateway.err = domain.WrapError(domain.ErrCatalogUnavailable, "fake", fmt.Errorf("down"))

	record, err := index.ByID(context.Background(), "E-CURD-1")
	if err != nil {
		t.Fatalf("expected snapshot fallback, got %v", err)
	}
	if record.ID != "E-CURD-1" {
		t.Fatalf("expected E-CURD-1, got %s", record.ID)
	}
}
