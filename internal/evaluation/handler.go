package evaluation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agoralabs/agora/internal/domain"
	"github.com/agoralabs/agora/internal/server"
	"github.com/agoralabs/agora/internal/storage"
)

// Handler serves the evaluation endpoints.
type Handler struct {
	runner *Runner
	store  storage.Store
	logger *slog.Logger
}

// NewHandler creates a new evaluation handler.
func NewHandler(runner *Runner, store storage.Store) *Handler {
	return &Handler{
		runner: runner,
		store:  store,
		logger: slog.Default(),
	}
}

// Routes mounts the evaluation endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/projects/{project_id}/evaluations", h.HandleRunEvaluation)
	r.Get("/projects/{project_id}/evaluations", h.HandleListEvaluations)
	r.Get("/evaluations/{evaluation_id}", h.HandleGetEvaluation)
}

// HandleRunEvaluation handles POST /api/projects/{project_id}/evaluations.
// The run is synchronous: the judge call completes before the response.
func (h *Handler) HandleRunEvaluation(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	var req struct {
		TranscriptID  string `json:"transcript_id,omitempty"`
		Model         string `json:"model,omitempty"`
		Question      string `json:"question"`
		DebateOutcome string `json:"debate_outcome"`
		LiveResponse  string `json:"live_response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		return
	}
	if req.DebateOutcome == "" || req.LiveResponse == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "debate_outcome and live_response are required")
		return
	}

	if _, err := h.store.GetProject(r.Context(), projectID); err != nil {
		h.writeStoreError(w, r, err, "Project not found")
		return
	}

	model := req.Model
	if model == "" {
		model = h.runner.model
	}

	eval := &domain.Evaluation{
		ID:           "eval_" + uuid.New().String(),
		ProjectID:    projectID,
		TranscriptID: req.TranscriptID,
		Model:        model,
	}

	result, err := h.runner.Run(r.Context(), Input{
		Question:      req.Question,
		DebateOutcome: req.DebateOutcome,
		LiveResponse:  req.LiveResponse,
	})
	if err != nil {
		h.logger.Error("evaluation failed",
			slog.String("request_id", server.GetRequestID(r.Context())),
			slog.String("project_id", projectID),
			slog.String("error", err.Error()),
		)
		eval.Status = domain.EvaluationStatusFailed
		eval.Error = err.Error()
	} else {
		eval.Status = domain.EvaluationStatusCompleted
		eval.Scores = result.Scores
		eval.Total = result.Total
	}

	if err := h.store.CreateEvaluation(r.Context(), eval); err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to store evaluation")
		return
	}

	status := http.StatusCreated
	if eval.Status == domain.EvaluationStatusFailed {
		status = http.StatusBadGateway
	}
	h.writeJSON(w, status, eval)
}

// HandleListEvaluations handles GET /api/projects/{project_id}/evaluations.
func (h *Handler) HandleListEvaluations(w http.ResponseWriter, r *http.Request) {
	evaluations, err := h.store.ListEvaluations(r.Context(), chi.URLParam(r, "project_id"), storage.ListOptions{})
	if err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to list evaluations")
		return
	}
	if evaluations == nil {
		evaluations = []*domain.Evaluation{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"data": evaluations})
}

// HandleGetEvaluation handles GET /api/evaluations/{evaluation_id}.
func (h *Handler) HandleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	eval, err := h.store.GetEvaluation(r.Context(), chi.URLParam(r, "evaluation_id"))
	if err != nil {
		h.writeStoreError(w, r, err, "Evaluation not found")
		return
	}

	h.writeJSON(w, http.StatusOK, eval)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", notFoundMsg)
		return
	}
	server.AddError(r.Context(), err)
	h.writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
