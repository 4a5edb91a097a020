package domain

const atlasExperimentPageBase = "https://www.ebi.ac.uk/gxa/experiments/"

// ExperimentRecord is one entry in the Expression Atlas catalog. Records are
// owned by the catalog collaborator; the core treats them as immutable facts
// for the duration of a ranking call.
type ExperimentRecord struct {
	ID          string         `json:"id"`
	Species     string         `json:"species"`
	Type        ExperimentType `json:"type"`
	Description string         `json:"description"`
}

// ScoredCandidate pairs a record with its relevance to one query.
// Score is normalized to [0,1]. Produced fresh per ranking call.
type ScoredCandidate struct {
	Record ExperimentRecord `json:"record"`
	Score  float64          `json:"score"`
}

// ExperimentPageURL is the manual-access fallback: the upstream service is
// known to be unreliable, so failures always hand the user a browsable URL.
func ExperimentPageURL(experimentID string) string {
	if experimentID == "" {
		return "https://www.ebi.ac.uk/gxa/experiments"
	}
	return atlasExperimentPageBase + experimentID
}
