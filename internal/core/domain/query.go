package domain

// ExperimentType distinguishes expression studies of normal conditions from
// comparative ones. An empty value on a Query means the user gave no signal.
type ExperimentType string

const (
	TypeBaseline     ExperimentType = "baseline"
	TypeDifferential ExperimentType = "differential"
	// TypeEither is only valid on queries; catalog records are always one of
	// baseline or differential.
	TypeEither ExperimentType = "either"
)

// Query is the structured intent extracted from one utterance. It is built
// once per turn and never mutated afterwards.
type Query struct {
	Species  string         `json:"species,omitempty"`
	Type     ExperimentType `json:"type,omitempty"`
	Keywords []string       `json:"keywords,omitempty"`
	// ExplicitID bypasses ranking entirely: the query resolves directly to
	// that catalog identifier.
	ExplicitID string `json:"explicit_id,omitempty"`
}

// Empty reports whether the query carries no signal at all. Ranking an empty
// query yields zero candidates.
func (q Query) Empty() bool {
	return q.Species == "" && q.Type == "" && len(q.Keywords) == 0 && q.ExplicitID == ""
}

// CatalogFilter narrows a catalog lookup. Zero values mean "any".
type CatalogFilter struct {
	Species string
	Type    ExperimentType
}
