package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/core/ports"
)

// FileService lists an experiment's archive directory, classifies listings,
// and performs synchronous downloads. When no filename is supplied the
// classifier's recommendation is fetched.
type FileService struct {
	browser ports.ArchiveBrowser
	fetcher ports.FileFetcher
	store   ports.DownloadStore
	logger  *slog.Logger
}

func NewFileService(
	browser ports.ArchiveBrowser,
	fetcher ports.FileFetcher,
	store ports.DownloadStore,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		browser: browser,
		fetcher: fetcher,
		store:   store,
		logger:  logger,
	}
}

func (s *FileService) Browse(ctx context.Context, experimentID string) ([]string, error) {
	experimentID = strings.ToUpper(strings.TrimSpace(experimentID))
	if experimentID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "browse archive", fmt.Errorf("experiment id is required"))
	}
	return s.browser.ListFiles(ctx, experimentID)
}

// Identify is pure classification; it never touches the network.
func (s *FileService) Identify(filenames []string) domain.FileReport {
	return classifyFiles(filenames)
}

// Download fetches one file into the download store and returns the stored
// path. An empty filename means "pick for me": the directory is listed,
// classified, and the recommendation fetched.
func (s *FileService) Download(ctx context.Context, experimentID, filename string) (string, error) {
	experimentID = strings.ToUpper(strings.TrimSpace(experimentID))
	if experimentID == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "download file", fmt.Errorf("experiment id is required"))
	}

	if filename == "" {
		resolved, err := s.resolveRecommendation(ctx, experimentID)
		if err != nil {
			return "", err
		}
		filename = resolved
	}

	body, err := s.fetcher.Fetch(ctx, experimentID, filename)
	if err != nil {
		return "", err
	}
	defer body.Close()

	path, err := s.store.Save(ctx, experimentID, filename, body)
	if err != nil {
		return "", domain.WrapError(domain.ErrDownloadFailed, "store file", err)
	}
	s.logger.Info("file_downloaded", "experiment_id", experimentID, "filename", filename, "path", path)
	return path, nil
}

func (s *FileService) resolveRecommendation(ctx context.Context, experimentID string) (string, error) {
	filenames, err := s.browser.ListFiles(ctx, experimentID)
	if err != nil {
		return "", err
	}
	report := classifyFiles(filenames)
	if report.Recommended == nil {
		return "", domain.WrapError(domain.ErrDownloadFailed, "resolve file",
			fmt.Errorf("no quantification file in %d listed files; browse %s manually", len(filenames), domain.ExperimentPageURL(experimentID)))
	}
	return report.Recommended.Name, nil
}

// DownloadRequest publishes download jobs for the worker to pick up.
type DownloadRequest struct {
	queue  ports.DownloadQueue
	logger *slog.Logger
}

func NewDownloadRequest(queue ports.DownloadQueue, logger *slog.Logger) *DownloadRequest {
	return &DownloadRequest{queue: queue, logger: logger}
}

func (r *DownloadRequest) Request(ctx context.Context, experimentID, filename string) (domain.DownloadJob, error) {
	experimentID = strings.ToUpper(strings.TrimSpace(experimentID))
	if experimentID == "" {
		return domain.DownloadJob{}, domain.WrapError(domain.ErrInvalidInput, "request download", fmt.Errorf("experiment id is required"))
	}

	job := domain.DownloadJob{
		ID:           uuid.NewString(),
		ExperimentID: experimentID,
		Filename:     strings.TrimSpace(filename),
		RequestedAt:  time.Now().UTC(),
	}
	if err := r.queue.PublishDownloadRequested(ctx, job); err != nil {
		return domain.DownloadJob{}, domain.WrapError(domain.ErrDownloadFailed, "publish download job", err)
	}
	r.logger.Info("download_requested", "job_id", job.ID, "experiment_id", job.ExperimentID, "filename", job.Filename)
	return job, nil
}
