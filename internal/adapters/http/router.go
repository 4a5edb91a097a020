package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/core/ports"
	"github.com/genequery/atlas-assistant/internal/observability/metrics"
)

type Router struct {
	dialog    ports.Conversationalist
	finder    ports.ExperimentFinder
	files     ports.FileServicer
	downloads ports.DownloadRequester
	sessions  *SessionRegistry
	metrics   *metrics.HTTPServerMetrics
	service   string
}

func NewRouter(
	service string,
	dialog ports.Conversationalist,
	finder ports.ExperimentFinder,
	files ports.FileServicer,
	downloads ports.DownloadRequester,
	sessions *SessionRegistry,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		dialog:    dialog,
		finder:    finder,
		files:     files,
		downloads: downloads,
		sessions:  sessions,
		metrics:   m,
		service:   service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/sessions", rt.createSession)
	mux.HandleFunc("/v1/sessions/", rt.sessionSubtree)
	mux.HandleFunc("/v1/experiments/search", rt.searchExperiments)
	mux.HandleFunc("/v1/experiments/popular", rt.popularExperiments)
	mux.HandleFunc("/v1/experiments/", rt.experimentSubtree)
	mux.HandleFunc("/v1/files/identify", rt.identifyFiles)
	mux.HandleFunc("/v1/downloads", rt.createDownload)

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(rt.service, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	session := rt.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": session.ID,
		"state":      session.State,
		"prompt":     rt.dialog.Greeting(),
	})
}

func (rt *Router) sessionSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	switch {
	case strings.HasSuffix(rest, "/messages"):
		id := strings.TrimSuffix(rest, "/messages")
		rt.postMessage(w, r, id)
	case rest != "" && !strings.Contains(rest, "/"):
		rt.deleteSession(w, r, rest)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) postMessage(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	var turn domain.Turn
	err := rt.sessions.WithSession(sessionID, func(session *domain.Session) error {
		var advanceErr error
		turn, advanceErr = rt.dialog.Advance(r.Context(), session, req.Message)
		return advanceErr
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// Taxonomy faults are part of a normal turn: the dialog already chose a
	// prompt and a next state, so the response stays a 200 and carries the
	// fault kind in the body.
	rt.metrics.RecordDialogTurn(rt.service, string(turn.State), faultCode(turn.Fault))

	resp := map[string]any{
		"session_id": sessionID,
		"state":      turn.State,
		"prompt":     turn.Prompt,
	}
	if turn.Fault != nil {
		resp["fault"] = faultCode(turn.Fault)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) deleteSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	if !rt.sessions.Delete(sessionID) {
		writeError(w, domain.WrapError(domain.ErrSessionNotFound, "delete session", fmt.Errorf("session %s", sessionID)))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) searchExperiments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	experimentType, err := parseExperimentType(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}

	candidates, err := rt.finder.Search(
		r.Context(),
		r.URL.Query().Get("species"),
		experimentType,
		r.URL.Query().Get("keyword"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (rt *Router) popularExperiments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	experimentType, err := parseExperimentType(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}

	experiments, err := rt.finder.Popular(r.Context(), experimentType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experiments": experiments})
}

func (rt *Router) experimentSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/experiments/")
	if id, ok := strings.CutSuffix(rest, "/files"); ok {
		rt.listExperimentFiles(w, r, id)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	record, err := rt.finder.Info(r.Context(), rest)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (rt *Router) listExperimentFiles(w http.ResponseWriter, r *http.Request, experimentID string) {
	filenames, err := rt.files.Browse(r.Context(), experimentID)
	if err != nil {
		writeError(w, err)
		return
	}

	report := rt.files.Identify(filenames)
	writeJSON(w, http.StatusOK, map[string]any{
		"experiment_id": strings.ToUpper(strings.TrimSpace(experimentID)),
		"files":         report.Files,
		"recommended":   report.Recommended,
	})
}

func (rt *Router) identifyFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		Files []string `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Files) == 0 {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "identify files", fmt.Errorf("files list is required")))
		return
	}

	writeJSON(w, http.StatusOK, rt.files.Identify(req.Files))
}

func (rt *Router) createDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		ExperimentID string `json:"experiment_id"`
		Filename     string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	job, err := rt.downloads.Request(r.Context(), req.ExperimentID, req.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func parseExperimentType(raw string) (domain.ExperimentType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "baseline":
		return domain.TypeBaseline, nil
	case "differential":
		return domain.TypeDifferential, nil
	case "either":
		return domain.TypeEither, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "parse experiment type", fmt.Errorf("unknown type %q", raw))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{
		"error": err.Error(),
		"kind":  faultCode(err),
	})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
