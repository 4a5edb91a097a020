package domain

import "time"

// DownloadJob is one queued download request. Filename is optional: when
// empty the worker lists the experiment directory, classifies it, and
// fetches the recommended file.
type DownloadJob struct {
	ID           string    `json:"id"`
	ExperimentID string    `json:"experiment_id"`
	Filename     string    `json:"filename,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
}
