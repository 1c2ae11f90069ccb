package domain

import (
	"encoding/json"
	"time"
)

// Project groups transcripts, chat sessions, and evaluations.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChatSession is a persisted conversation within a project.
type ChatSession struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	Title     string        `json:"title,omitempty"`
	Model     string        `json:"model,omitempty"`
	Messages  []ChatMessage `json:"messages,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ChatMessage is a single stored message in a chat session.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PromptOverride replaces the default system prompt for one model within a
// project.
type PromptOverride struct {
	ProjectID string    `json:"project_id"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transcript is an uploaded debate transcript. The body is stored as the
// client sent it; the server does not interpret its structure.
type Transcript struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	Title     string          `json:"title,omitempty"`
	Body      json.RawMessage `json:"body,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Evaluation statuses.
const (
	EvaluationStatusCompleted = "completed"
	EvaluationStatusFailed    = "failed"
)

// CriterionScore is one scored rubric criterion.
type CriterionScore struct {
	Criterion string  `json:"criterion"`
	Weight    float64 `json:"weight"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale,omitempty"`
}

// Evaluation is a stored comparison of a debate outcome against a live chat
// response, scored across weighted criteria.
type Evaluation struct {
	ID           string           `json:"id"`
	ProjectID    string           `json:"project_id"`
	TranscriptID string           `json:"transcript_id,omitempty"`
	Model        string           `json:"model,omitempty"`
	Status       string           `json:"status"`
	Scores       []CriterionScore `json:"scores,omitempty"`
	Total        float64          `json:"total"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
