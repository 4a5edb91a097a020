package usecase

import (
	"strings"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

// classifyFiles assigns every filename in a directory listing to exactly one
// semantic category and picks a default recommendation. Classification is
// stateless and order-preserving: the same listing always yields the same
// report.
//
// A filename matching several markers (a combined "tpms-markers" file, say)
// takes the earliest category in the fixed order tpm > fpkm > counts >
// metadata. The quantification categories require a .tsv extension so
// compressed side files never become the recommendation.
func classifyFiles(filenames []string) domain.FileReport {
	report := domain.FileReport{
		Files: make([]domain.FileCandidate, 0, len(filenames)),
	}
	for _, name := range filenames {
		report.Files = append(report.Files, domain.FileCandidate{
			Name:     name,
			Category: categorize(name),
		})
	}

	// The recommendation is the first file (in listing order) of the best
	// populated quantification category. Metadata alone yields none: the
	// caller falls back to presenting the full list.
	for _, category := range []domain.FileCategory{domain.CategoryTPM, domain.CategoryFPKM, domain.CategoryCounts} {
		for i := range report.Files {
			if report.Files[i].Category == category {
				recommended := report.Files[i]
				report.Recommended = &recommended
				return report
			}
		}
	}
	return report
}

func categorize(filename string) domain.FileCategory {
	lower := strings.ToLower(filename)
	isTSV := strings.HasSuffix(lower, ".tsv")
	switch {
	case isTSV && strings.Contains(lower, "tpm"):
		return domain.CategoryTPM
	case isTSV && strings.Contains(lower, "fpkm"):
		return domain.CategoryFPKM
	case isTSV && strings.Contains(lower, "count"):
		return domain.CategoryCounts
	case strings.Contains(lower, "sdrf") || strings.Contains(lower, "metadata"):
		return domain.CategoryMetadata
	default:
		return domain.CategoryOther
	}
}
