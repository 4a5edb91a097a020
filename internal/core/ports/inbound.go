package ports

import (
	"context"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

// Conversationalist is the inbound contract for the multi-turn dialog.
// The caller owns the Session and must serialize inputs to it.
type Conversationalist interface {
	// Greeting is the opening prompt for a fresh session.
	Greeting() string
	Advance(ctx context.Context, session *domain.Session, utterance string) (domain.Turn, error)
}

// ExperimentFinder is the inbound contract for the one-shot tool operations
// over the catalog.
type ExperimentFinder interface {
	Search(ctx context.Context, species string, experimentType domain.ExperimentType, keyword string) ([]domain.ScoredCandidate, error)
	Info(ctx context.Context, experimentID string) (*domain.ExperimentRecord, error)
	Popular(ctx context.Context, experimentType domain.ExperimentType) ([]domain.ExperimentRecord, error)
}

// FileServicer is the inbound contract for archive listing, classification,
// and downloads.
type FileServicer interface {
	Browse(ctx context.Context, experimentID string) ([]string, error)
	Identify(filenames []string) domain.FileReport
	Download(ctx context.Context, experimentID, filename string) (string, error)
}

// DownloadRequester enqueues an asynchronous download job.
type DownloadRequester interface {
	Request(ctx context.Context, experimentID, filename string) (domain.DownloadJob, error)
}
