package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/infrastructure/resilience"
)

// Fetch streams one archive file. The caller owns the returned body and
// must close it; the transfer itself is not retried — a broken stream is a
// DownloadFailed outcome, not something to paper over mid-read.
func (b *Browser) Fetch(ctx context.Context, experimentID, filename string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.fileURL(experimentID, filename), nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDownloadFailed, "fetch file", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDownloadFailed, "fetch file", err)
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, domain.WrapError(domain.ErrDownloadFailed, "fetch file",
			fmt.Errorf("%s/%s: %s", experimentID, filename, resp.Status))
	}
	return resp.Body, nil
}

func classifyArchiveError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var statusErr *indexStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500 {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		// 403/404 indexes are normal for this mirror; the probe fallback
		// handles them, so do not count them against the breaker.
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}
