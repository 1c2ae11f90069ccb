package openai_test

import (
	"context"
	"os"
	"testing"

	"github.com/agoralabs/agora/internal/api/openai"
	"github.com/agoralabs/agora/internal/testutil"
)

// Replays a recorded Responses API exchange. Re-record with a real key:
//
//	VCR_MODE=record OPENAI_API_KEY=... go test ./internal/api/openai
func TestCreateResponse_VCR(t *testing.T) {
	if os.Getenv("VCR_MODE") == "record" && os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("Skipping test: OPENAI_API_KEY not set")
	}

	rec, cleanup := testutil.NewVCRRecorder(t, "responses_create")
	defer cleanup()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = "test-key"
	}

	client := openai.NewClient(apiKey, openai.WithHTTPClient(testutil.VCRHTTPClient(rec)))

	resp, err := client.CreateResponse(context.Background(), &openai.ResponsesRequest{
		Model: "gpt-5.1",
		Input: []openai.InputMessage{{Role: "user", Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("CreateResponse() error = %v", err)
	}

	if resp.Status != "completed" {
		t.Errorf("status = %q, want completed", resp.Status)
	}
	if resp.OutputText() == "" {
		t.Error("response has no output text")
	}
	if resp.Usage == nil || resp.Usage.TotalTokens == 0 {
		t.Error("response missing usage totals")
	}
}
