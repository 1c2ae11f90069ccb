// Package storage defines the persistence interfaces for the console.
package storage

import (
	"context"
	"errors"

	"github.com/agoralabs/agora/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ListOptions controls pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// ProjectStore persists projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *domain.Project) error
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context, opts ListOptions) ([]*domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// SessionStore persists chat sessions and their messages.
type SessionStore interface {
	CreateSession(ctx context.Context, s *domain.ChatSession) error
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)
	ListSessions(ctx context.Context, projectID string, opts ListOptions) ([]*domain.ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
	AddMessage(ctx context.Context, sessionID string, msg *domain.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}

// PromptStore persists per-model system prompt overrides.
type PromptStore interface {
	SetPromptOverride(ctx context.Context, o *domain.PromptOverride) error
	GetPromptOverride(ctx context.Context, projectID, model string) (*domain.PromptOverride, error)
	DeletePromptOverride(ctx context.Context, projectID, model string) error
}

// TranscriptStore persists uploaded debate transcripts.
type TranscriptStore interface {
	CreateTranscript(ctx context.Context, t *domain.Transcript) error
	GetTranscript(ctx context.Context, id string) (*domain.Transcript, error)
	ListTranscripts(ctx context.Context, projectID string, opts ListOptions) ([]*domain.Transcript, error)
	DeleteTranscript(ctx context.Context, id string) error
}

// EvaluationStore persists evaluation runs.
type EvaluationStore interface {
	CreateEvaluation(ctx context.Context, e *domain.Evaluation) error
	GetEvaluation(ctx context.Context, id string) (*domain.Evaluation, error)
	ListEvaluations(ctx context.Context, projectID string, opts ListOptions) ([]*domain.Evaluation, error)
}

// Store is the full persistence surface backing the console API.
type Store interface {
	ProjectStore
	SessionStore
	PromptStore
	TranscriptStore
	EvaluationStore
	Close() error
}
