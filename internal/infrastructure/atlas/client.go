package atlas

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/infrastructure/resilience"
)

// Client talks to the Expression Atlas JSON API. Every request passes a
// politeness rate limiter (the upstream throttles aggressive clients) and,
// when configured, the resilience executor.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	RateLimitRPS       float64
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := options.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		executor:   options.ResilienceExecutor,
	}
}

type experimentPayload struct {
	Accession   string `json:"experimentAccession"`
	Species     string `json:"species"`
	Type        string `json:"experimentType"`
	Description string `json:"experimentDescription"`
}

type experimentListPayload struct {
	Experiments []experimentPayload `json:"experiments"`
}

// Experiments lists the catalog. The upstream splits the listing by
// experiment type, so an unpinned filter fetches both endpoints; species
// filtering is applied client-side because the API has no species parameter.
func (c *Client) Experiments(ctx context.Context, filter domain.CatalogFilter) ([]domain.ExperimentRecord, error) {
	types := []domain.ExperimentType{domain.TypeBaseline, domain.TypeDifferential}
	if filter.Type == domain.TypeBaseline || filter.Type == domain.TypeDifferential {
		types = []domain.ExperimentType{filter.Type}
	}

	var records []domain.ExperimentRecord
	for _, experimentType := range types {
		var payload experimentListPayload
		path := fmt.Sprintf("/json/%s/experiments", experimentType)
		if err := c.get(ctx, path, &payload, "atlas.experiments"); err != nil {
			return nil, domain.WrapError(domain.ErrCatalogUnavailable, "list experiments", err)
		}
		for _, exp := range payload.Experiments {
			record := toRecord(exp, experimentType)
			if filter.Species != "" && !strings.EqualFold(filter.Species, record.Species) {
				continue
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// ExperimentByID resolves one accession. A 404 means the accession does not
// exist, which is a user-facing outcome, not an upstream failure.
func (c *Client) ExperimentByID(ctx context.Context, id string) (*domain.ExperimentRecord, error) {
	var payload experimentPayload
	path := "/json/experiments/" + strings.ToUpper(strings.TrimSpace(id))
	err := c.get(ctx, path, &payload, "atlas.experiment_by_id")
	if err != nil {
		if statusCodeOf(err) == http.StatusNotFound {
			return nil, domain.WrapError(domain.ErrUnknownIdentifier, "experiment by id", err)
		}
		return nil, domain.WrapError(domain.ErrCatalogUnavailable, "experiment by id", err)
	}
	record := toRecord(payload, "")
	return &record, nil
}

func toRecord(payload experimentPayload, fallbackType domain.ExperimentType) domain.ExperimentRecord {
	experimentType := fallbackType
	raw := strings.ToLower(payload.Type)
	switch {
	case strings.Contains(raw, "differential"):
		experimentType = domain.TypeDifferential
	case strings.Contains(raw, "baseline"):
		experimentType = domain.TypeBaseline
	}
	return domain.ExperimentRecord{
		ID:          strings.ToUpper(payload.Accession),
		Species:     strings.ToLower(payload.Species),
		Type:        experimentType,
		Description: payload.Description,
	}
}
