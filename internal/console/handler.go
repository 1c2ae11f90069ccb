// Package console implements the persistence REST API backing the browser
// console: projects, chat sessions, prompt overrides, and transcripts.
package console

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agoralabs/agora/internal/domain"
	"github.com/agoralabs/agora/internal/server"
	"github.com/agoralabs/agora/internal/storage"
)

// Handler serves the console CRUD endpoints.
type Handler struct {
	store  storage.Store
	logger *slog.Logger
}

// NewHandler creates a new console handler.
func NewHandler(store storage.Store) *Handler {
	return &Handler{
		store:  store,
		logger: slog.Default(),
	}
}

// Routes mounts the console endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.HandleCreateProject)
		r.Get("/", h.HandleListProjects)
		r.Route("/{project_id}", func(r chi.Router) {
			r.Get("/", h.HandleGetProject)
			r.Delete("/", h.HandleDeleteProject)
			r.Post("/sessions", h.HandleCreateSession)
			r.Get("/sessions", h.HandleListSessions)
			r.Put("/prompts/{model}", h.HandleSetPrompt)
			r.Get("/prompts/{model}", h.HandleGetPrompt)
			r.Delete("/prompts/{model}", h.HandleDeletePrompt)
			r.Post("/transcripts", h.HandleCreateTranscript)
			r.Get("/transcripts", h.HandleListTranscripts)
		})
	})
	r.Route("/sessions/{session_id}", func(r chi.Router) {
		r.Get("/", h.HandleGetSession)
		r.Delete("/", h.HandleDeleteSession)
		r.Post("/messages", h.HandleAddMessage)
		r.Get("/messages", h.HandleListMessages)
	})
	r.Route("/transcripts/{transcript_id}", func(r chi.Router) {
		r.Get("/", h.HandleGetTranscript)
		r.Delete("/", h.HandleDeleteTranscript)
	})
}

// Projects

func (h *Handler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	p := &domain.Project{
		ID:          "proj_" + uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.store.CreateProject(r.Context(), p); err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to create project")
		return
	}

	h.writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context(), storage.ListOptions{})
	if err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to list projects")
		return
	}
	if projects == nil {
		projects = []*domain.Project{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"data": projects})
}

func (h *Handler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "project_id"))
	if err != nil {
		h.writeStoreError(w, r, err, "Project not found")
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteProject(r.Context(), chi.URLParam(r, "project_id")); err != nil {
		h.writeStoreError(w, r, err, "Project not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Chat sessions

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	var req struct {
		Title string `json:"title,omitempty"`
		Model string `json:"model,omitempty"`
	}
	// An empty body creates an untitled session
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		return
	}

	if _, err := h.store.GetProject(r.Context(), projectID); err != nil {
		h.writeStoreError(w, r, err, "Project not found")
		return
	}

	sess := &domain.ChatSession{
		ID:        "sess_" + uuid.New().String(),
		ProjectID: projectID,
		Title:     req.Title,
		Model:     req.Model,
	}

	if err := h.store.CreateSession(r.Context(), sess); err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to create session")
		return
	}

	h.writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.Context(), chi.URLParam(r, "project_id"), storage.ListOptions{})
	if err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*domain.ChatSession{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"data": sessions})
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.GetSession(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		h.writeStoreError(w, r, err, "Session not found")
		return
	}

	h.writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSession(r.Context(), chi.URLParam(r, "session_id")); err != nil {
		h.writeStoreError(w, r, err, "Session not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAddMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		return
	}
	if !validRole(req.Role) {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "role must be user, assistant, or system")
		return
	}

	if _, err := h.store.GetSession(r.Context(), sessionID); err != nil {
		h.writeStoreError(w, r, err, "Session not found")
		return
	}

	msg := &domain.ChatMessage{
		ID:      "msg_" + uuid.New().String(),
		Role:    req.Role,
		Content: req.Content,
	}

	if err := h.store.AddMessage(r.Context(), sessionID, msg); err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to add message")
		return
	}

	h.writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	if _, err := h.store.GetSession(r.Context(), sessionID); err != nil {
		h.writeStoreError(w, r, err, "Session not found")
		return
	}

	messages, err := h.store.ListMessages(r.Context(), sessionID)
	if err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to list messages")
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"data": messages})
}

// Prompt overrides

func (h *Handler) HandleSetPrompt(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	model := chi.URLParam(r, "model")

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		return
	}

	if _, err := h.store.GetProject(r.Context(), projectID); err != nil {
		h.writeStoreError(w, r, err, "Project not found")
		return
	}

	o := &domain.PromptOverride{
		ProjectID: projectID,
		Model:     model,
		Prompt:    req.Prompt,
	}

	if err := h.store.SetPromptOverride(r.Context(), o); err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to save prompt override")
		return
	}

	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) HandleGetPrompt(w http.ResponseWriter, r *http.Request) {
	o, err := h.store.GetPromptOverride(r.Context(), chi.URLParam(r, "project_id"), chi.URLParam(r, "model"))
	if err != nil {
		h.writeStoreError(w, r, err, "Prompt override not found")
		return
	}

	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) HandleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeletePromptOverride(r.Context(), chi.URLParam(r, "project_id"), chi.URLParam(r, "model"))
	if err != nil {
		h.writeStoreError(w, r, err, "Prompt override not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Transcripts

func (h *Handler) HandleCreateTranscript(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	var req struct {
		Title string          `json:"title,omitempty"`
		Body  json.RawMessage `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		return
	}
	if len(req.Body) == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "body is required")
		return
	}

	if _, err := h.store.GetProject(r.Context(), projectID); err != nil {
		h.writeStoreError(w, r, err, "Project not found")
		return
	}

	t := &domain.Transcript{
		ID:        "tr_" + uuid.New().String(),
		ProjectID: projectID,
		Title:     req.Title,
		Body:      req.Body,
	}

	if err := h.store.CreateTranscript(r.Context(), t); err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to store transcript")
		return
	}

	h.writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) HandleListTranscripts(w http.ResponseWriter, r *http.Request) {
	transcripts, err := h.store.ListTranscripts(r.Context(), chi.URLParam(r, "project_id"), storage.ListOptions{})
	if err != nil {
		server.AddError(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "storage_error", "Failed to list transcripts")
		return
	}
	if transcripts == nil {
		transcripts = []*domain.Transcript{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"data": transcripts})
}

func (h *Handler) HandleGetTranscript(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetTranscript(r.Context(), chi.URLParam(r, "transcript_id"))
	if err != nil {
		h.writeStoreError(w, r, err, "Transcript not found")
		return
	}

	h.writeJSON(w, http.StatusOK, t)
}

func (h *Handler) HandleDeleteTranscript(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTranscript(r.Context(), chi.URLParam(r, "transcript_id")); err != nil {
		h.writeStoreError(w, r, err, "Transcript not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helpers

func validRole(role string) bool {
	switch role {
	case "user", "assistant", "system":
		return true
	}
	return false
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
