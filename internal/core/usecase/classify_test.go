package usecase

import (
	"testing"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

func TestClassifyFilesKnownListing(t *testing.T) {
	report := classifyFiles([]string{
		"E-X-1-tpms.tsv",
		"E-X-1-fpkms.tsv",
		"E-X-1.condensed-sdrf.tsv",
	})

	want := []domain.FileCategory{domain.CategoryTPM, domain.CategoryFPKM, domain.CategoryMetadata}
	for i, category := range want {
		if report.Files[i].Category != category {
			t.Fatalf("file %d: expected %s, got %s", i, category, report.Files[i].Category)
		}
	}
	if report.Recommended == nil || report.Recommended.Name != "E-X-1-tpms.tsv" {
		t.Fatalf("expected tpms file recommended, got %+v", report.Recommended)
	}
}

func TestClassifyFilesEveryFileGetsExactlyOneCategory(t *testing.T) {
	listing := []string{
		"E-X-1-tpms.tsv",
		"E-X-1-raw-counts.tsv",
		"E-X-1.sdrf.txt",
		"E-X-1-configuration.xml",
		"E-X-1.Rdata",
		"",
	}
	report := classifyFiles(listing)
	if len(report.Files) != len(listing) {
		t.Fatalf("expected %d classified files, got %d", len(listing), len(report.Files))
	}
	for _, file := range report.Files {
		if file.Category == "" {
			t.Fatalf("file %q got no category", file.Name)
		}
	}
}

func TestClassifyFilesPriorityOnMultiMarkerNames(t *testing.T) {
	// A combined name matches both the tpm and metadata markers; the
	// earliest-priority category wins.
	report := classifyFiles([]string{"E-X-1-tpms-metadata.tsv"})
	if report.Files[0].Category != domain.CategoryTPM {
		t.Fatalf("expected tpm to win the multi-marker tie, got %s", report.Files[0].Category)
	}
}

func TestClassifyFilesQuantificationRequiresTSV(t *testing.T) {
	report := classifyFiles([]string{"E-X-1-tpms-coexpressions.tsv.gz", "E-X-1-fpkms.tsv"})
	if report.Files[0].Category == domain.CategoryTPM {
		t.Fatalf("compressed side file must not classify as tpm")
	}
	if report.Recommended == nil || report.Recommended.Name != "E-X-1-fpkms.tsv" {
		t.Fatalf("expected the fpkm file recommended, got %+v", report.Recommended)
	}
}

func TestClassifyFilesRecommendationFallbackOrder(t *testing.T) {
	report := classifyFiles([]string{"E-X-1.condensed-sdrf.tsv", "E-X-1-raw-counts.tsv"})
	if report.Recommended == nil || report.Recommended.Name != "E-X-1-raw-counts.tsv" {
		t.Fatalf("expected counts file recommended when no tpm/fpkm, got %+v", report.Recommended)
	}

	report = classifyFiles([]string{"E-X-1.condensed-sdrf.tsv", "E-X-1.Rdata"})
	if report.Recommended != nil {
		t.Fatalf("expected no recommendation without quantification files, got %+v", report.Recommended)
	}
}

func TestClassifyFilesIsIdempotent(t *testing.T) {
	listing := []string{"E-X-1-tpms.tsv", "E-X-1.Rdata", "E-X-1.condensed-sdrf.tsv"}
	first := classifyFiles(listing)
	second := classifyFiles(listing)
	if len(first.Files) != len(second.Files) {
		t.Fatalf("classification changed size across calls")
	}
	for i := range first.Files {
		if first.Files[i] != second.Files[i] {
			t.Fatalf("classification not idempotent at index %d", i)
		}
	}
}
