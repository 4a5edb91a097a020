package domain

import (
	"fmt"
	"time"
)

type DialogState string

const (
	StateInitial    DialogState = "INITIAL"
	StateSelecting  DialogState = "SELECTING"
	StateConfirming DialogState = "CONFIRMING"
	StateDone       DialogState = "DONE"
)

// MaxCandidates bounds how many ranked experiments a session ever presents.
const MaxCandidates = 3

// Session is the state of one conversation. Exactly one Session exists per
// active dialog; it is mutated only by the state machine and discarded (or
// reset) when the dialog ends. The hosting environment serializes inputs to
// the same session — the session itself holds no lock.
type Session struct {
	ID         string            `json:"id"`
	State      DialogState       `json:"state"`
	LastQuery  *Query            `json:"last_query,omitempty"`
	Candidates []ScoredCandidate `json:"candidates,omitempty"`
	Selected   *ExperimentRecord `json:"selected,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		State:     StateInitial,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records that the session processed an input. Idle-session eviction
// keys off UpdatedAt.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Reset returns the session to INITIAL, keeping its identity.
func (s *Session) Reset() {
	s.State = StateInitial
	s.LastQuery = nil
	s.Candidates = nil
	s.Selected = nil
	s.UpdatedAt = time.Now().UTC()
}

// Validate checks the structural invariants of the session. Violations are
// programming errors: transitions compute their full outcome before mutating
// the session, so a bad shape can only come from a bug. Asserted in tests.
func (s *Session) Validate() error {
	if len(s.Candidates) > MaxCandidates {
		return fmt.Errorf("session %s: %d candidates exceeds %d", s.ID, len(s.Candidates), MaxCandidates)
	}
	for i := 1; i < len(s.Candidates); i++ {
		if s.Candidates[i].Score > s.Candidates[i-1].Score {
			return fmt.Errorf("session %s: candidate scores increase at index %d", s.ID, i)
		}
	}
	switch s.State {
	case StateSelecting:
		if len(s.Candidates) == 0 {
			return fmt.Errorf("session %s: SELECTING with no candidates", s.ID)
		}
	case StateConfirming:
		if s.Selected == nil {
			return fmt.Errorf("session %s: CONFIRMING with nothing selected", s.ID)
		}
	case StateInitial, StateDone:
	default:
		return fmt.Errorf("session %s: unknown state %q", s.ID, s.State)
	}
	return nil
}

// Turn is the outcome of advancing a session by one utterance. Fault is nil
// on ordinary turns; when a turn surfaces a recoverable condition (NoMatch,
// UnknownIdentifier, a collaborator failure) it carries that error kind so
// callers can tell the outcomes apart without parsing the prompt.
type Turn struct {
	State  DialogState `json:"state"`
	Prompt string      `json:"prompt"`
	Fault  error       `json:"-"`
}
