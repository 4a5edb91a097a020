package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/core/ports"
	"github.com/genequery/atlas-assistant/internal/core/vocab"
)

// Dialog is the conversation state machine. Every transition is total: any
// (state, input) pair maps to a defined next state, and collaborator
// failures leave the session in a re-promptable state with the fault carried
// on the Turn instead of terminating the dialog.
//
// Advance computes the entire outcome before mutating the session, so an
// abandoned session can simply be dropped — there is no partial-transition
// state to unwind.
type Dialog struct {
	tables    *vocab.Tables
	extractor *Extractor
	index     *CatalogIndex
	downloads ports.DownloadRequester
	logger    *slog.Logger
}

func NewDialog(
	tables *vocab.Tables,
	index *CatalogIndex,
	downloads ports.DownloadRequester,
	logger *slog.Logger,
) *Dialog {
	return &Dialog{
		tables:    tables,
		extractor: NewExtractor(tables),
		index:     index,
		downloads: downloads,
		logger:    logger,
	}
}

// Greeting is the prompt shown when a session is created, before any input.
func (d *Dialog) Greeting() string {
	return promptGreeting
}

func (d *Dialog) Advance(ctx context.Context, session *domain.Session, utterance string) (domain.Turn, error) {
	if session == nil {
		return domain.Turn{}, domain.WrapError(domain.ErrInvalidInput, "advance dialog", fmt.Errorf("session is required"))
	}

	token := classifyToken(d.tables, utterance)

	// Quit wins in every state; DONE absorbs everything.
	if token.Kind == TokenQuit {
		session.State = domain.StateDone
		return d.turn(session, promptGoodbye), nil
	}
	if session.State == domain.StateDone {
		return d.turn(session, promptDialogOver), nil
	}
	if token.Kind == TokenRestart {
		session.Reset()
		return d.turn(session, promptGreeting), nil
	}

	switch session.State {
	case domain.StateInitial:
		return d.advanceInitial(ctx, session, utterance)
	case domain.StateSelecting:
		return d.advanceSelecting(session, token)
	case domain.StateConfirming:
		return d.advanceConfirming(ctx, session, token)
	default:
		return domain.Turn{}, fmt.Errorf("advance dialog: session %s in unknown state %q", session.ID, session.State)
	}
}

// advanceInitial treats any non-control input as a fresh query, including
/// inputs that would classify as affirm, decline, or ordinal: "1" is a
// perfectly good keyword until there is a list to select from.
func (d *Dialog) advanceInitial(ctx context.Context, session *domain.Session, utterance string) (domain.Turn, error) {
	query := d.extractor.Extract(utterance)
	if query.Empty() {
		return d.faultTurn(session, domain.ErrNoMatch, promptNothingExtracted), nil
	}

	if query.ExplicitID != "" {
		record, err := d.index.ByID(ctx, query.ExplicitID)
		switch {
		case err == nil:
			session.LastQuery = &query
			session.Candidates = []domain.ScoredCandidate{{Record: *record, Score: 1.0}}
			session.Selected = record
			session.State = domain.StateConfirming
			return d.turn(session, promptConfirm(*record)), nil
		case domain.IsKind(err, domain.ErrUnknownIdentifier):
			return d.faultTurn(session, domain.ErrUnknownIdentifier, promptUnknownAccession(query.ExplicitID)), nil
		default:
			d.logger.Warn("dialog_catalog_fault", "session_id", session.ID, "error", err)
			return d.faultTurn(session, domain.ErrCatalogUnavailable, promptCatalogDown(query.ExplicitID)), nil
		}
	}

	catalog, err := d.index.Load(ctx, domain.CatalogFilter{})
	if err != nil {
		d.logger.Warn("dialog_catalog_fault", "session_id", session.ID, "error", err)
		return d.faultTurn(session, domain.ErrCatalogUnavailable, promptCatalogDown("")), nil
	}

	candidates := rankExperiments(query, catalog)
	if len(candidates) == 0 {
		return d.faultTurn(session, domain.ErrNoMatch, promptNoMatch()), nil
	}

	session.LastQuery = &query
	session.Candidates = candidates
	session.State = domain.StateSelecting
	return d.turn(session, promptSelect(candidates)), nil
}

func (d *Dialog) advanceSelecting(session *domain.Session, token ClassifiedToken) (domain.Turn, error) {
	if token.Kind == TokenOrdinal && token.Ordinal >= 1 && token.Ordinal <= len(session.Candidates) {
		selected := session.Candidates[token.Ordinal-1].Record
		session.Selected = &selected
		session.State = domain.StateConfirming
		return d.turn(session, promptConfirm(selected)), nil
	}
	// Out-of-range ordinal or anything unrecognized: re-present the list.
	return d.turn(session, promptClarifySelection(session.Candidates)), nil
}

func (d *Dialog) advanceConfirming(ctx context.Context, session *domain.Session, token ClassifiedToken) (domain.Turn, error) {
	selected := session.Selected
	switch token.Kind {
	case TokenAffirm:
		job, err := d.downloads.Request(ctx, selected.ID, "")
		if err != nil {
			d.logger.Warn("dialog_download_fault", "session_id", session.ID, "experiment_id", selected.ID, "error", err)
			return d.faultTurn(session, domain.ErrDownloadFailed, promptDownloadFailed(selected.ID)), nil
		}
		session.State = domain.StateDone
		return d.turn(session, promptDownloadStarted(selected.ID, job.ID)), nil
	case TokenDecline:
		session.State = domain.StateDone
		return d.turn(session, promptManualAccess(selected.ID)), nil
	default:
		return d.turn(session, promptConfirm(*selected)), nil
	}
}

func (d *Dialog) turn(session *domain.Session, prompt string) domain.Turn {
	session.Touch()
	return domain.Turn{State: session.State, Prompt: prompt}
}

func (d *Dialog) faultTurn(session *domain.Session, fault error, prompt string) domain.Turn {
	session.Touch()
	return domain.Turn{State: session.State, Prompt: prompt, Fault: fault}
}

const (
	promptGreeting = "Tell me what gene expression data you are looking for " +
		"(species, tissue, disease...), or give an accession like E-MTAB-513."
	promptGoodbye    = "Goodbye! Visit https://www.ebi.ac.uk/gxa/home for more."
	promptDialogOver = "This conversation has ended. Start a new session to search again."
	promptNothingExtracted = "I could not find anything to search for in that. " +
		"Try naming a species, a tissue, or a disease."
)

func promptSelect(candidates []domain.ScoredCandidate) string {
	var b strings.Builder
	b.WriteString("I found these experiments:\n")
	writeCandidateList(&b, candidates)
	b.WriteString("Reply with a number to pick one, 'back' to start over, or 'quit'.")
	return b.String()
}

func promptClarifySelection(candidates []domain.ScoredCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please pick a number between 1 and %d:\n", len(candidates))
	writeCandidateList(&b, candidates)
	b.WriteString("Or say 'back' to start over.")
	return b.String()
}

func writeCandidateList(b *strings.Builder, candidates []domain.ScoredCandidate) {
	for i, candidate := range candidates {
		fmt.Fprintf(b, "  %d. %s [%s, %s] %s (relevance %.0f%%)\n",
			i+1,
			candidate.Record.ID,
			candidate.Record.Species,
			candidate.Record.Type,
			candidate.Record.Description,
			candidate.Score*100,
		)
	}
}

func promptConfirm(record domain.ExperimentRecord) string {
	return fmt.Sprintf("Download expression data for %s (%s, %s)? (yes/no)",
		record.ID, record.Species, record.Description)
}

func promptNoMatch() string {
	var b strings.Builder
	b.WriteString("No experiments matched. Try broadening the query, or start from a popular dataset:\n")
	for _, record := range popularExperiments {
		fmt.Fprintf(&b, "  - %s [%s, %s] %s\n", record.ID, record.Species, record.Type, record.Description)
	}
	return b.String()
}

func promptUnknownAccession(id string) string {
	return fmt.Sprintf("I could not find %s in the catalog. Check the accession, or browse %s",
		id, domain.ExperimentPageURL(""))
}

func promptCatalogDown(id string) string {
	return fmt.Sprintf("The Expression Atlas catalog is not reachable right now. "+
		"You can browse it manually at %s and try again later.", domain.ExperimentPageURL(id))
}

func promptDownloadStarted(experimentID, jobID string) string {
	return fmt.Sprintf("Download of %s has been queued (job %s).", experimentID, jobID)
}

func promptDownloadFailed(experimentID string) string {
	return fmt.Sprintf("The download for %s could not be started. "+
		"You can fetch the files manually from %s. Say 'yes' to retry or 'no' to stop.",
		experimentID, domain.ExperimentPageURL(experimentID))
}

func promptManualAccess(experimentID string) string {
	return fmt.Sprintf("No problem. You can access %s manually at %s",
		experimentID, domain.ExperimentPageURL(experimentID))
}
