package atlas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

func TestExperimentsFetchesBothTypes(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/json/baseline/experiments":
			w.Write([]byte(`{"experiments":[{"experimentAccession":"E-MTAB-513","species":"Homo sapiens","experimentDescription":"human tissues"}]}`))
		case "/json/differential/experiments":
			w.Write([]byte(`{"experiments":[{"experimentAccession":"E-GEOD-21860","species":"Homo sapiens","experimentDescription":"colorectal cancer"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, Options{RateLimitRPS: 1000})
	records, err := client.Experiments(context.Background(), domain.CatalogFilter{})
	if err != nil {
		t.Fatalf("experiments: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected both type endpoints fetched, got %v", paths)
	}
	if len(records) != 2 {
		t.Fatalf("expected two records, got %d", len(records))
	}
	if records[0].Type != domain.TypeBaseline || records[1].Type != domain.TypeDifferential {
		t.Fatalf("expected types from endpoint, got %s and %s", records[0].Type, records[1].Type)
	}
	if records[0].Species != "homo sapiens" {
		t.Fatalf("expected lowercased species, got %q", records[0].Species)
	}
}

func TestExperimentsPinnedTypeFetchesOneEndpoint(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"experiments":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, Options{RateLimitRPS: 1000})
	if _, err := client.Experiments(context.Background(), domain.CatalogFilter{Type: domain.TypeBaseline}); err != nil {
		t.Fatalf("experiments: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/json/baseline/experiments" {
		t.Fatalf("expected only the baseline endpoint, got %v", paths)
	}
}

func TestExperimentsFiltersSpeciesClientSide(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"experiments":[
			{"experimentAccession":"E-MTAB-513","species":"Homo sapiens","experimentDescription":"human"},
			{"experimentAccession":"E-MTAB-3358","species":"Arabidopsis thaliana","experimentDescription":"plant"}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, Options{RateLimitRPS: 1000})
	records, err := client.Experiments(context.Background(), domain.CatalogFilter{
		Species: "arabidopsis thaliana",
		Type:    domain.TypeBaseline,
	})
	if err != nil {
		t.Fatalf("experiments: %v", err)
	}
	if len(records) != 1 || records[0].ID != "E-MTAB-3358" {
		t.Fatalf("expected only the arabidopsis record, got %+v", records)
	}
}

func TestExperimentsNon2xxIsCatalogUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, Options{RateLimitRPS: 1000})
	_, err := client.Experiments(context.Background(), domain.CatalogFilter{})
	if !domain.IsKind(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected CatalogUnavailable, got %v", err)
	}
}

func TestExperimentByIDNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, Options{RateLimitRPS: 1000})
	_, err := client.ExperimentByID(context.Background(), "E-MTAB-99999")
	if !domain.IsKind(err, domain.ErrUnknownIdentifier) {
		t.Fatalf("expected UnknownIdentifier, got %v", err)
	}
}

func TestExperimentByIDSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/experiments/E-CURD-1" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"experimentAccession":"E-CURD-1","species":"Arabidopsis thaliana","experimentType":"RNASEQ_MRNA_BASELINE","experimentDescription":"seedlings"}`))
	}))
	defer server.Close()

	client := New(server.URL, Options{RateLimitRPS: 1000})
	record, err := client.ExperimentByID(context.Background(), "e-curd-1")
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if record.ID != "E-CURD-1" || record.Type != domain.TypeBaseline {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestClassifyAtlasErrorRetryability(t *testing.T) {
	retryable := classifyAtlasError(&HTTPStatusError{StatusCode: http.StatusServiceUnavailable})
	if !retryable.Retryable || !retryable.RecordFailure {
		t.Fatalf("expected 503 retryable and recorded, got %+v", retryable)
	}

	definitive := classifyAtlasError(&HTTPStatusError{StatusCode: http.StatusNotFound})
	if definitive.Retryable || definitive.RecordFailure {
		t.Fatalf("expected 404 neither retryable nor recorded, got %+v", definitive)
	}

	canceled := classifyAtlasError(context.Canceled)
	if canceled.Retryable || canceled.RecordFailure {
		t.Fatalf("expected cancellation neither retryable nor recorded, got %+v", canceled)
	}
}
