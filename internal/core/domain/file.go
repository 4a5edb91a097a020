package domain

// FileCategory is the semantic class of one file in an experiment's
// archive directory.
type FileCategory string

const (
	CategoryTPM      FileCategory = "tpm"
	CategoryFPKM     FileCategory = "fpkm"
	CategoryCounts   FileCategory = "counts"
	CategoryMetadata FileCategory = "metadata"
	CategoryOther    FileCategory = "other"
)

// CategoryPriority is the fixed preference order used both to break
// multi-marker ties and to pick the default recommendation.
var CategoryPriority = []FileCategory{
	CategoryTPM,
	CategoryFPKM,
	CategoryCounts,
	CategoryMetadata,
	CategoryOther,
}

// FileCandidate is one classified filename. Derived per listing, never
// persisted.
type FileCandidate struct {
	Name     string       `json:"name"`
	Category FileCategory `json:"category"`
}

// FileReport is the classifier output for one directory listing: every
// file in original order plus at most one recommended default. A nil
// recommendation means no quantification file exists and the caller must
// present the full list instead.
type FileReport struct {
	Files       []FileCandidate `json:"files"`
	Recommended *FileCandidate  `json:"recommended,omitempty"`
}
