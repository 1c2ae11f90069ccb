package console

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/agoralabs/agora/internal/storage/sqlite"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	r := chi.NewRouter()
	NewHandler(store).Routes(r)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response body not JSON: %v (%q)", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func createProject(t *testing.T, r chi.Router) string {
	t.Helper()
	rec, body := doJSON(t, r, "POST", "/projects", `{"name":"Test Project"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project status = %d: %v", rec.Code, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatal("create project returned no id")
	}
	return id
}

func TestProjectEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec, body := doJSON(t, r, "POST", "/projects", `{"name":"Oxford Union","description":"final round"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	id := body["id"].(string)
	if !strings.HasPrefix(id, "proj_") {
		t.Errorf("project id = %q, want proj_ prefix", id)
	}

	rec, body = doJSON(t, r, "GET", "/projects/"+id, "")
	if rec.Code != http.StatusOK || body["name"] != "Oxford Union" {
		t.Errorf("get project = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, r, "GET", "/projects", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if data, ok := body["data"].([]any); !ok || len(data) != 1 {
		t.Errorf("list data = %v", body["data"])
	}

	rec, _ = doJSON(t, r, "DELETE", "/projects/"+id, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec, body = doJSON(t, r, "GET", "/projects/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj == nil || errObj["type"] != "not_found" {
		t.Errorf("error body = %v", body)
	}
}

func TestCreateProject_Validation(t *testing.T) {
	r := newTestRouter(t)

	rec, body := doJSON(t, r, "POST", "/projects", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj == nil || errObj["type"] != "invalid_request" {
		t.Errorf("error body = %v", body)
	}

	rec, _ = doJSON(t, r, "POST", "/projects", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestSessionEndpoints(t *testing.T) {
	r := newTestRouter(t)
	projectID := createProject(t, r)

	rec, body := doJSON(t, r, "POST", "/projects/"+projectID+"/sessions", `{"title":"round one","model":"gpt-5.1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d: %v", rec.Code, body)
	}
	sessionID := body["id"].(string)
	if !strings.HasPrefix(sessionID, "sess_") {
		t.Errorf("session id = %q", sessionID)
	}

	// Empty body is allowed; it creates an untitled session.
	rec, _ = doJSON(t, r, "POST", "/projects/"+projectID+"/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Errorf("empty-body create status = %d, want 201", rec.Code)
	}

	rec, body = doJSON(t, r, "POST", "/sessions/"+sessionID+"/messages", `{"role":"user","content":"hi"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add message status = %d: %v", rec.Code, body)
	}

	rec, body = doJSON(t, r, "POST", "/sessions/"+sessionID+"/messages", `{"role":"narrator","content":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid role status = %d, want 400", rec.Code)
	}

	rec, body = doJSON(t, r, "GET", "/sessions/"+sessionID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get session status = %d", rec.Code)
	}
	if msgs, ok := body["messages"].([]any); !ok || len(msgs) != 1 {
		t.Errorf("session messages = %v", body["messages"])
	}

	rec, body = doJSON(t, r, "GET", "/sessions/"+sessionID+"/messages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list messages status = %d", rec.Code)
	}
	if data, ok := body["data"].([]any); !ok || len(data) != 1 {
		t.Errorf("messages data = %v", body["data"])
	}

	rec, _ = doJSON(t, r, "DELETE", "/sessions/"+sessionID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete session status = %d", rec.Code)
	}
}

func TestCreateSession_UnknownProject(t *testing.T) {
	r := newTestRouter(t)

	rec, _ := doJSON(t, r, "POST", "/projects/proj_missing/sessions", `{"title":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPromptEndpoints(t *testing.T) {
	r := newTestRouter(t)
	projectID := createProject(t, r)

	rec, body := doJSON(t, r, "PUT", "/projects/"+projectID+"/prompts/gpt-5.1", `{"prompt":"argue both sides"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set prompt status = %d: %v", rec.Code, body)
	}

	// PUT is an upsert.
	rec, _ = doJSON(t, r, "PUT", "/projects/"+projectID+"/prompts/gpt-5.1", `{"prompt":"updated"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d", rec.Code)
	}

	rec, body = doJSON(t, r, "GET", "/projects/"+projectID+"/prompts/gpt-5.1", "")
	if rec.Code != http.StatusOK || body["prompt"] != "updated" {
		t.Errorf("get prompt = %d %v", rec.Code, body)
	}

	rec, _ = doJSON(t, r, "DELETE", "/projects/"+projectID+"/prompts/gpt-5.1", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete prompt status = %d", rec.Code)
	}

	rec, _ = doJSON(t, r, "GET", "/projects/"+projectID+"/prompts/gpt-5.1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestTranscriptEndpoints(t *testing.T) {
	r := newTestRouter(t)
	projectID := createProject(t, r)

	rec, body := doJSON(t, r, "POST", "/projects/"+projectID+"/transcripts",
		`{"title":"Round 1","body":{"turns":[{"speaker":"A","text":"opening"}]}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transcript status = %d: %v", rec.Code, body)
	}
	transcriptID := body["id"].(string)

	rec, body = doJSON(t, r, "GET", "/transcripts/"+transcriptID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get transcript status = %d", rec.Code)
	}
	// Body round-trips untouched.
	tb, ok := body["body"].(map[string]any)
	if !ok {
		t.Fatalf("transcript body = %v", body["body"])
	}
	if turns, ok := tb["turns"].([]any); !ok || len(turns) != 1 {
		t.Errorf("transcript turns = %v", tb["turns"])
	}

	rec, body = doJSON(t, r, "POST", "/projects/"+projectID+"/transcripts", `{"title":"no body"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing body status = %d, want 400", rec.Code)
	}

	rec, _ = doJSON(t, r, "DELETE", "/transcripts/"+transcriptID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete transcript status = %d", rec.Code)
	}
}
