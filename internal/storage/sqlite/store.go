// Package sqlite is the SQLite implementation of the console store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agoralabs/agora/internal/domain"
	"github.com/agoralabs/agora/internal/storage"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	// Pragmas go in the DSN so they apply to every pooled connection,
	// foreign_keys in particular.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			title TEXT,
			model TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS prompt_overrides (
			project_id TEXT NOT NULL,
			model TEXT NOT NULL,
			prompt TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (project_id, model),
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			title TEXT,
			body TEXT,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			transcript_id TEXT,
			model TEXT,
			status TEXT NOT NULL,
			scores TEXT,
			total REAL NOT NULL DEFAULT 0,
			error TEXT,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_project ON chat_sessions(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON chat_messages(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_project ON transcripts(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_project ON evaluations(project_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Projects

func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	query := `INSERT INTO projects (id, name, description, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT id, name, description, created_at, updated_at
	          FROM projects WHERE id = ?`

	var p domain.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context, opts storage.ListOptions) ([]*domain.Project, error) {
	query := `SELECT id, name, description, created_at, updated_at
	          FROM projects ORDER BY updated_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, listLimit(opts), opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &p)
	}

	return projects, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Chat sessions

func (s *Store) CreateSession(ctx context.Context, sess *domain.ChatSession) error {
	sess.CreatedAt = time.Now()
	sess.UpdatedAt = sess.CreatedAt

	query := `INSERT INTO chat_sessions (id, project_id, title, model, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.ProjectID, sess.Title, sess.Model, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	query := `SELECT id, project_id, title, model, created_at, updated_at
	          FROM chat_sessions WHERE id = ?`

	var sess domain.ChatSession
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID, &sess.ProjectID, &sess.Title, &sess.Model, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	messages, err := s.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Messages = messages

	return &sess, nil
}

func (s *Store) ListSessions(ctx context.Context, projectID string, opts storage.ListOptions) ([]*domain.ChatSession, error) {
	query := `SELECT id, project_id, title, model, created_at, updated_at
	          FROM chat_sessions WHERE project_id = ?
	          ORDER BY updated_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, projectID, listLimit(opts), opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.ChatSession
	for rows.Next() {
		var sess domain.ChatSession
		if err := rows.Scan(&sess.ID, &sess.ProjectID, &sess.Title, &sess.Model,
			&sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &sess)
	}

	return sessions, rows.Err()
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) AddMessage(ctx context.Context, sessionID string, msg *domain.ChatMessage) error {
	msg.SessionID = sessionID
	msg.CreatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO chat_messages (id, session_id, role, content, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		msg.ID, sessionID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`,
		time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return tx.Commit()
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	query := `SELECT id, session_id, role, content, created_at
	          FROM chat_messages WHERE session_id = ?
	          ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// Prompt overrides

func (s *Store) SetPromptOverride(ctx context.Context, o *domain.PromptOverride) error {
	o.UpdatedAt = time.Now()

	query := `INSERT INTO prompt_overrides (project_id, model, prompt, updated_at)
	          VALUES (?, ?, ?, ?)
	          ON CONFLICT (project_id, model) DO UPDATE SET prompt = excluded.prompt, updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, o.ProjectID, o.Model, o.Prompt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set prompt override: %w", err)
	}

	return nil
}

func (s *Store) GetPromptOverride(ctx context.Context, projectID, model string) (*domain.PromptOverride, error) {
	query := `SELECT project_id, model, prompt, updated_at
	          FROM prompt_overrides WHERE project_id = ? AND model = ?`

	var o domain.PromptOverride
	err := s.db.QueryRowContext(ctx, query, projectID, model).Scan(
		&o.ProjectID, &o.Model, &o.Prompt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt override: %w", err)
	}

	return &o, nil
}

func (s *Store) DeletePromptOverride(ctx context.Context, projectID, model string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM prompt_overrides WHERE project_id = ? AND model = ?`, projectID, model)
	if err != nil {
		return fmt.Errorf("failed to delete prompt override: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Transcripts

func (s *Store) CreateTranscript(ctx context.Context, t *domain.Transcript) error {
	t.CreatedAt = time.Now()

	query := `INSERT INTO transcripts (id, project_id, title, body, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.ProjectID, t.Title, string(t.Body), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}

	return nil
}

func (s *Store) GetTranscript(ctx context.Context, id string) (*domain.Transcript, error) {
	query := `SELECT id, project_id, title, body, created_at
	          FROM transcripts WHERE id = ?`

	var t domain.Transcript
	var body sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.ProjectID, &t.Title, &body, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	if body.Valid && body.String != "" {
		t.Body = json.RawMessage(body.String)
	}

	return &t, nil
}

func (s *Store) ListTranscripts(ctx context.Context, projectID string, opts storage.ListOptions) ([]*domain.Transcript, error) {
	// Body is omitted from list results; transcripts can be large.
	query := `SELECT id, project_id, title, created_at
	          FROM transcripts WHERE project_id = ?
	          ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, projectID, listLimit(opts), opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	var transcripts []*domain.Transcript
	for rows.Next() {
		var t domain.Transcript
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		transcripts = append(transcripts, &t)
	}

	return transcripts, rows.Err()
}

func (s *Store) DeleteTranscript(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Evaluations

func (s *Store) CreateEvaluation(ctx context.Context, e *domain.Evaluation) error {
	e.CreatedAt = time.Now()

	scores, err := json.Marshal(e.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	query := `INSERT INTO evaluations (id, project_id, transcript_id, model, status, scores, total, error, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		e.ID, e.ProjectID, e.TranscriptID, e.Model, e.Status, string(scores), e.Total, e.Error, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}

	return nil
}

func (s *Store) GetEvaluation(ctx context.Context, id string) (*domain.Evaluation, error) {
	query := `SELECT id, project_id, transcript_id, model, status, scores, total, error, created_at
	          FROM evaluations WHERE id = ?`

	var e domain.Evaluation
	var scoresJSON string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.ProjectID, &e.TranscriptID, &e.Model, &e.Status, &scoresJSON, &e.Total, &e.Error, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}

	if scoresJSON != "" {
		if err := json.Unmarshal([]byte(scoresJSON), &e.Scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
		}
	}

	return &e, nil
}

func (s *Store) ListEvaluations(ctx context.Context, projectID string, opts storage.ListOptions) ([]*domain.Evaluation, error) {
	query := `SELECT id, project_id, transcript_id, model, status, scores, total, error, created_at
	          FROM evaluations WHERE project_id = ?
	          ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, projectID, listLimit(opts), opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []*domain.Evaluation
	for rows.Next() {
		var e domain.Evaluation
		var scoresJSON string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.TranscriptID, &e.Model, &e.Status,
			&scoresJSON, &e.Total, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		if scoresJSON != "" {
			if err := json.Unmarshal([]byte(scoresJSON), &e.Scores); err != nil {
				return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
			}
		}
		evaluations = append(evaluations, &e)
	}

	return evaluations, rows.Err()
}

func listLimit(opts storage.ListOptions) int {
	if opts.Limit == 0 {
		return 100 // default limit
	}
	return opts.Limit
}
