package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/core/vocab"
)

type fakeDownloads struct {
	err  error
	jobs []domain.DownloadJob
}

func (d *fakeDownloads) Request(_ context.Context, experimentID, filename string) (domain.DownloadJob, error) {
	if d.err != nil {
		return domain.DownloadJob{}, d.err
	}
	job := domain.DownloadJob{ID: "job-1", ExperimentID: experimentID, Filename: filename}
	d.jobs = append(d.jobs, job)
	return job, nil
}

func newTestDialog(gateway *fakeGateway, downloads *fakeDownloads) *Dialog {
	index := NewCatalogIndex(gateway, nil, time.Hour, testLogger())
	return NewDialog(vocab.Default(), index, downloads, testLogger())
}

func mustAdvance(t *testing.T, dialog *Dialog, session *domain.Session, utterance string) domain.Turn {
	t.Helper()
	turn, err := dialog.Advance(context.Background(), session, utterance)
	if err != nil {
		t.Fatalf("advance %q: %v", utterance, err)
	}
	if err := session.Validate(); err != nil {
		t.Fatalf("session invariant violated after %q: %v", utterance, err)
	}
	return turn
}

func TestDialogSearchSelectConfirmDownload(t *testing.T) {
	gateway := &fakeGateway{records: testCatalog()}
	downloads := &fakeDownloads{}
	dialog := newTestDialog(gateway, downloads)
	session := domain.NewSession("s-1")

	turn := mustAdvance(t, dialog, session, "I need Arabidopsis leaf data")
	if turn.State != domain.StateSelecting {
		t.Fatalf("expected SELECTING, got %s", turn.State)
	}
	if len(session.Candidates) < 1 || len(session.Candidates) > domain.MaxCandidates {
		t.Fatalf("expected 1..%d candidates, got %d", domain.MaxCandidates, len(session.Candidates))
	}
	if session.Candidates[0].Record.ID != "E-MTAB-3358" {
		t.Fatalf("expected the leaf record ranked first, got %s", session.Candidates[0].Record.ID)
	}

	turn = mustAdvance(t, dialog, session, "1")
	if turn.State != domain.StateConfirming {
		t.Fatalf("expected CONFIRMING, got %s", turn.State)
	}
	if session.Selected == nil || session.Selected.ID != "E-MTAB-3358" {
		t.Fatalf("expected first candidate selected, got %+v", session.Selected)
	}

	turn = mustAdvance(t, dialog, session, "yes")
	if turn.State != domain.StateDone {
		t.Fatalf("expected DONE, got %s", turn.State)
	}
	if len(downloads.jobs) != 1 || downloads.jobs[0].ExperimentID != "E-MTAB-3358" {
		t.Fatalf("expected one download job for E-MTAB-3358, got %+v", downloads.jobs)
	}
}

func TestDialogExplicitAccessionGoesStraightToConfirming(t *testing.T) {
	dialog := newTestDialog(&fakeGateway{records: testCatalog()}, &fakeDownloads{})
	session := domain.NewSession("s-2")

	turn := mustAdvance(t, dialog, session, "Download E-CURD-1")
	if turn.State != domain.StateConfirming {
		t.Fatalf("expected CONFIRMING, got %s", turn.State)
	}
	if session.Selected == nil || session.Selected.ID != "E-CURD-1" {
		t.Fatalf("expected E-CURD-1 selected, got %+v", session.Selected)
	}
}

func TestDialogUnknownAccessionStaysInitial(t *testing.T) {
	dialog := newTestDialog(&fakeGateway{records: testCatalog()}, &fakeDownloads{})
	session := domain.NewSession("s-3")

	turn := mustAdvance(t, dialog, session, "E-MTAB-424242")
	if turn.State != domain.StateInitial {
		t.Fatalf("expected INITIAL, got %s", turn.State)
	}
	if !domain.IsKind(turn.Fault, domain.ErrUnknownIdentifier) {
		t.Fatalf("expected UnknownIdentifier fault, got %v", turn.Fault)
	}
}

func TestDialogBackResetsFromSelecting(t *testing.T) {
	dialog := newTestDialog(&fakeGateway{records: testCatalog()}, &fakeDownloads{})
	session := domain.NewSession("s-4")

	mustAdvance(t, dialog, session, "human tissues")
	if session.State != domain.StateSelecting {
		t.Fatalf("expected SELECTING, got %s", session.State)
	}

	turn := mustAdvance(t, dialog, session, "back")
	if turn.State != domain.StateInitial {
		t.Fatalf("expected INITIAL after back, got %s", turn.State)
	}
	if len(session.Candidates) != 0 || session.Selected != nil {
		t.Fatalf("expected candidates and selection cleared, got %+v", session)
	}
}

func TestDialogOutOfRangeOrdinalRepromptsSelection(t *testing.T) {
	dialog := newTestDialog(&fakeGateway{records: testCatalog()}, &fakeDownloads{})
	session := domain.NewSession("s-5")

	mustAdvance(t, dialog, session, "human tissues")
	candidatesBefore := len(session.Candidates)

	turn := mustAdvance(t, dialog, session, "9")
	if turn.State != domain.StateSelecting {
		t.Fatalf("expected to remain SELECTING, got %s", turn.State)
	}
	if turn.Fault != nil {
		t.Fatalf("an out-of-range ordinal is not an error, got fault %v", turn.Fault)
	}
	if len(session.Candidates) != candidatesBefore {
		t.Fatalf("expected candidate list unchanged")
	}
}

func TestDialogDeclineEmitsManualFallback(t *testing.T) {
	dialog := newTestDialog(&fakeGateway{records: testCatalog()}, &fakeDownloads{})
	session := domain.NewSession("s-6")

	mustAdvance(t, dialog, session, "E-CURD-1")
	turn := mustAdvance(t, dialog, session, "no")
	if turn.State != domain.StateDone {
		t.Fatalf("expected DONE, got %s", turn.State)
	}
	if want := domain.ExperimentPageURL("E-CURD-1"); !containsString(turn.Prompt, want) {
		t.Fatalf("expected manual URL %q in prompt %q", want, turn.Prompt)
	}
}

func TestDialogQuitWinsInEveryState(t *testing.T) {
	dialog := newTestDialog(&fakeGateway{records: testCatalog()}, &fakeDownloads{})

	for _, setup := range []func(*domain.Session){
		func(*domain.Session) {},
		func(s *domain.Session) { mustAdvanceQuiet(t, dialog, s, "human tissues") },
		func(s *domain.Session) { mustAdvanceQuiet(t, dialog, s, "E-CURD-1") },
	} {
		session := domain.NewSession("s-quit")
		setup(session)
		turn := mustAdvance(t, dialog, session, "quit")
		if turn.State != domain.StateDone {
			t.Fatalf("expected DONE after quit from %s", session.State)
		}
	}
}

func mustAdvanceQuiet(t *testing.T, dialog *Dialog, session *domain.Session, utterance string) {
	t.Helper()
	if _, err := dialog.Advance(context.Background(), session, utterance); err != nil {
		t.Fatalf("advance %q: %v", utterance, err)
	}
}

func TestDialogDoneIsAbsorbing(t *testing.T) {
	dialog := newTestDialog(&fakeGateway{records: testCatalog()}, &fakeDownloads{})
	session := domain.NewSession("s-7")

	mustAdvance(t, dialog, session, "quit")
	turn := mustAdvance(t, dialog, session, "human tissues")
	if turn.State != domain.StateDone {
		t.Fatalf("expected DONE to absorb further input, got %s", turn.State)
	}
}

func TestDialogCatalogUnavailableIsDistinctFromNoMatch(t *testing.T) {
	gateway := &fakeGateway{err: domain.WrapError(domain.ErrCatalogUnavailable, "fake", fmt.Errorf("down"))}
	dialog := newTestDialog(gateway, &fakeDownloads{})
	session := domain.NewSession("s-8")

	turn := mustAdvance(t, dialog, session, "human tissues")
	if turn.State != domain.StateInitial {
		t.Fatalf("expected INITIAL preserved, got %s", turn.State)
	}
	if !domain.IsKind(turn.Fault, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected CatalogUnavailable fault, got %v", turn.Fault)
	}
	if domain.IsKind(turn.Fault, domain.ErrNoMatch) {
		t.Fatalf("CatalogUnavailable must be distinguishable from NoMatch")
	}
}

func TestDialogNoMatchStaysInitialWithSuggestions(t *testing.T) {
	dialog := newTestDialog(&fakeGateway{records: testCatalog()}, &fakeDownloads{})
	session := domain.NewSession("s-9")

	turn := mustAdvance(t, dialog, session, "zebrafish fin")
	if turn.State != domain.StateInitial {
		t.Fatalf("expected INITIAL, got %s", turn.State)
	}
	if !domain.IsKind(turn.Fault, domain.ErrNoMatch) {
		t.Fatalf("expected NoMatch fault, got %v", turn.Fault)
	}
	if !containsString(turn.Prompt, "E-MTAB-513") {
		t.Fatalf("expected popular suggestions in the NoMatch prompt, got %q", turn.Prompt)
	}
}

func TestDialogDownloadFailureStaysConfirming(t *testing.T) {
	downloads := &fakeDownloads{err: domain.WrapError(domain.ErrDownloadFailed, "fake", fmt.Errorf("queue down"))}
	dialog := newTestDialog(&fakeGateway{records: testCatalog()}, downloads)
	session := domain.NewSession("s-10")

	mustAdvance(t, dialog, session, "E-CURD-1")
	turn := mustAdvance(t, dialog, session, "yes")
	if turn.State != domain.StateConfirming {
		t.Fatalf("expected to remain CONFIRMING on download failure, got %s", turn.State)
	}
	if !domain.IsKind(turn.Fault, domain.ErrDownloadFailed) {
		t.Fatalf("expected DownloadFailed fault, got %v", turn.Fault)
	}

	// The session is still live: a retry can succeed.
	downloads.err = nil
	turn = mustAdvance(t, dialog, session, "yes")
	if turn.State != domain.StateDone {
		t.Fatalf("expected DONE after retry, got %s", turn.State)
	}
}

func containsString(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
