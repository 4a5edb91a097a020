package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/core/ports"
)

// CatalogIndex is the in-memory snapshot of the experiment catalog. It
// memoizes the gateway's full listing for a TTL and falls back to the stored
// snapshot when the upstream is unavailable, so a flaky catalog degrades
// search instead of breaking it. Records are immutable once published.
type CatalogIndex struct {
	gateway ports.CatalogGateway
	store   ports.CatalogSnapshotStore // optional; nil disables persistence
	ttl     time.Duration
	logger  *slog.Logger

	mu        sync.RWMutex
	snapshot  []domain.ExperimentRecord
	fetchedAt time.Time
}

func NewCatalogIndex(
	gateway ports.CatalogGateway,
	store ports.CatalogSnapshotStore,
	ttl time.Duration,
	logger *slog.Logger,
) *CatalogIndex {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CatalogIndex{
		gateway: gateway,
		store:   store,
		ttl:     ttl,
		logger:  logger,
	}
}

// Load returns the catalog filtered by species/type. The full snapshot is
// memoized; filtering happens per call so one fetch serves every query shape.
func (ix *CatalogIndex) Load(ctx context.Context, filter domain.CatalogFilter) ([]domain.ExperimentRecord, error) {
	if records, ok := ix.fresh(); ok {
		return filterRecords(records, filter), nil
	}

	records, err := ix.gateway.Experiments(ctx, domain.CatalogFilter{})
	if err == nil {
		ix.publish(records)
		ix.persist(ctx, records)
		return filterRecords(records, filter), nil
	}
	if !domain.IsKind(err, domain.ErrCatalogUnavailable) {
		return nil, err
	}

	// Upstream is down: a stale memo beats nothing, the stored snapshot
	// beats an error.
	if records, ok := ix.stale(); ok {
		ix.logger.Warn("catalog_serving_stale_snapshot", "records", len(records), "error", err)
		return filterRecords(records, filter), nil
	}
	if ix.store != nil {
		stored, loadErr := ix.store.Load(ctx)
		if loadErr == nil && len(stored) > 0 {
			ix.logger.Warn("catalog_serving_stored_snapshot", "records", len(stored), "error", err)
			ix.publish(stored)
			return filterRecords(stored, filter), nil
		}
	}
	return nil, err
}

// ByID resolves one accession. An accession absent from a healthy catalog is
// ErrUnknownIdentifier; when the gateway is down the memoized snapshot is
// consulted before giving up.
func (ix *CatalogIndex) ByID(ctx context.Context, id string) (*domain.ExperimentRecord, error) {
	record, err := ix.gateway.ExperimentByID(ctx, id)
	if err == nil {
		return record, nil
	}
	if domain.IsKind(err, domain.ErrUnknownIdentifier) {
		return nil, err
	}

	records, loadErr := ix.Load(ctx, domain.CatalogFilter{})
	if loadErr != nil {
		return nil, err
	}
	for _, candidate := range records {
		if strings.EqualFold(candidate.ID, id) {
			found := candidate
			return &found, nil
		}
	}
	return nil, domain.WrapError(domain.ErrUnknownIdentifier, "catalog by id", fmt.Errorf("accession %s not in snapshot", id))
}

func (ix *CatalogIndex) fresh() ([]domain.ExperimentRecord, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.snapshot == nil || time.Since(ix.fetchedAt) > ix.ttl {
		return nil, false
	}
	return ix.snapshot, true
}

func (ix *CatalogIndex) stale() ([]domain.ExperimentRecord, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.snapshot, ix.snapshot != nil
}

func (ix *CatalogIndex) publish(records []domain.ExperimentRecord) {
	ix.mu.Lock()
	ix.snapshot = records
	ix.fetchedAt = time.Now()
	ix.mu.Unlock()
}

func (ix *CatalogIndex) persist(ctx context.Context, records []domain.ExperimentRecord) {
	if ix.store == nil || len(records) == 0 {
		return
	}
	if err := ix.store.Replace(ctx, records); err != nil {
		ix.logger.Warn("catalog_snapshot_persist_failed", "error", err)
	}
}

func filterRecords(records []domain.ExperimentRecord, filter domain.CatalogFilter) []domain.ExperimentRecord {
	if filter.Species == "" && (filter.Type == "" || filter.Type == domain.TypeEither) {
		return records
	}
	out := make([]domain.ExperimentRecord, 0, len(records))
	for _, record := range records {
		if filter.Species != "" && !strings.EqualFold(filter.Species, record.Species) {
			continue
		}
		if filter.Type != "" && filter.Type != domain.TypeEither && filter.Type != record.Type {
			continue
		}
		out = append(out, record)
	}
	return out
}
