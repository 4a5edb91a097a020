// Package archive accesses the Expression Atlas experiment archive: the
// FTP mirror served over HTTPS that publishes one directory of flat files
// per experiment.
package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/infrastructure/resilience"
)

// wellKnownPatterns are the filenames an experiment directory conventionally
// contains. When the HTML index cannot be fetched, these are HEAD-probed one
// by one as a degraded listing.
var wellKnownPatterns = []string{
	"%s-tpms.tsv",
	"%s-fpkms.tsv",
	"%s-raw-counts.tsv",
	"%s.condensed-sdrf.tsv",
	"%s.sdrf.txt",
	"%s-configuration.xml",
	"%s-analytics.tsv",
	"%s.Rdata",
}

// Browser lists and fetches experiment archive directories.
type Browser struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, logger *slog.Logger, options Options) *Browser {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Browser{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
		logger:     logger,
	}
}

// ListFiles returns the filenames published for one experiment. The primary
// source is the archive's HTML index page; when that is unreachable the
// well-known filename patterns are probed instead. Only when both fail does
// the directory count as unavailable.
func (b *Browser) ListFiles(ctx context.Context, experimentID string) ([]string, error) {
	var files []string
	call := func(ctx context.Context) error {
		listed, err := b.listFromIndex(ctx, experimentID)
		if err != nil {
			return err
		}
		files = listed
		return nil
	}

	var err error
	if b.executor != nil {
		err = b.executor.Execute(ctx, "archive.list", call, classifyArchiveError)
	} else {
		err = call(ctx)
	}
	if err == nil {
		return files, nil
	}

	b.logger.Warn("archive_index_unavailable", "experiment_id", experimentID, "error", err)
	probed := b.probeWellKnown(ctx, experimentID)
	if len(probed) > 0 {
		return probed, nil
	}
	return nil, domain.WrapError(domain.ErrDirectoryUnavailable, "list archive directory", err)
}

func (b *Browser) listFromIndex(ctx context.Context, experimentID string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.directoryURL(experimentID)+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("create index request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, &indexStatusError{ExperimentID: experimentID, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	files := parseIndexLinks(resp.Body)
	if len(files) == 0 {
		return nil, fmt.Errorf("archive index for %s contained no file links", experimentID)
	}
	return files, nil
}

// parseIndexLinks extracts filenames from an autoindex HTML page: every
// anchor href that is a plain relative name, skipping parent links, nested
// directories, and query links (column sorting).
func parseIndexLinks(body io.Reader) []string {
	var files []string
	tokenizer := html.NewTokenizer(body)
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			return files
		}
		if tokenType != html.StartTagToken && tokenType != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := tokenizer.TagName()
		if string(name) != "a" || !hasAttr {
			continue
		}
		for {
			key, value, more := tokenizer.TagAttr()
			if string(key) == "href" {
				if file, ok := filenameFromHref(string(value)); ok {
					files = append(files, file)
				}
				break
			}
			if !more {
				break
			}
		}
	}
}

func filenameFromHref(href string) (string, bool) {
	href = strings.TrimSpace(href)
	switch {
	case href == "", href == "../", href == "..":
		return "", false
	case strings.HasPrefix(href, "?"), strings.HasPrefix(href, "#"):
		return "", false
	case strings.Contains(href, "://"), strings.HasPrefix(href, "/"):
		return "", false
	case strings.HasSuffix(href, "/"):
		return "", false
	}
	return href, true
}

func (b *Browser) probeWellKnown(ctx context.Context, experimentID string) []string {
	var found []string
	for _, pattern := range wellKnownPatterns {
		filename := fmt.Sprintf(pattern, experimentID)
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, b.fileURL(experimentID, filename), nil)
		if err != nil {
			continue
		}
		resp, err := b.httpClient.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 300 {
			found = append(found, filename)
		}
	}
	return found
}

func (b *Browser) directoryURL(experimentID string) string {
	return b.baseURL + "/" + experimentID
}

func (b *Browser) fileURL(experimentID, filename string) string {
	return b.directoryURL(experimentID) + "/" + filename
}

type indexStatusError struct {
	ExperimentID string
	StatusCode   int
	Status       string
}

func (e *indexStatusError) Error() string {
	return fmt.Sprintf("archive index for %s: %s", e.ExperimentID, e.Status)
}
