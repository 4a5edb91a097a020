package ports

import (
	"context"
	"io"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

// CatalogGateway searches the upstream experiment catalog. Failures of the
// upstream (network, rate-limit, non-2xx) surface as ErrCatalogUnavailable,
// never as an empty result.
type CatalogGateway interface {
	Experiments(ctx context.Context, filter domain.CatalogFilter) ([]domain.ExperimentRecord, error)
	ExperimentByID(ctx context.Context, id string) (*domain.ExperimentRecord, error)
}

// ArchiveBrowser lists the filenames published for one experiment.
type ArchiveBrowser interface {
	ListFiles(ctx context.Context, experimentID string) ([]string, error)
}

// FileFetcher streams one published file. The core supplies the chosen
// filename; transport details stay behind this interface.
type FileFetcher interface {
	Fetch(ctx context.Context, experimentID, filename string) (io.ReadCloser, error)
}

// DownloadStore persists a fetched file. Save must never surface a
// partially written file.
type DownloadStore interface {
	Save(ctx context.Context, experimentID, filename string, data io.Reader) (string, error)
}

// DownloadQueue publishes/consumes asynchronous download jobs.
type DownloadQueue interface {
	PublishDownloadRequested(ctx context.Context, job domain.DownloadJob) error
	SubscribeDownloadRequested(ctx context.Context, handler func(context.Context, domain.DownloadJob) error) error
}

// CatalogSnapshotStore persists the last good catalog snapshot so searches
// keep working while the upstream is down.
type CatalogSnapshotStore interface {
	Replace(ctx context.Context, records []domain.ExperimentRecord) error
	Load(ctx context.Context) ([]domain.ExperimentRecord, error)
}
