package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateSuccess(t *testing.T) {
	var gotAuth string
	var gotBody apiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if errDecode := json.NewDecoder(r.Body).Decode(&gotBody); errDecode != nil {
			t.Errorf("decode request: %v", errDecode)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  Discipline wins.\nShow up daily.  "}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithModel("test/model"))
	text, err := c.Generate(context.Background(), "prompt text")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Discipline wins.\nShow up daily." {
		t.Fatalf("unexpected text %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody.Model != "test/model" {
		t.Fatalf("unexpected model %q", gotBody.Model)
	}
	if gotBody.MaxTokens != maxOutputTokens {
		t.Fatalf("unexpected max_tokens %d", gotBody.MaxTokens)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Role != "system" {
		t.Fatalf("expected one system message, got %+v", gotBody.Messages)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Generate(context.Background(), "prompt text")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", apiErr.StatusCode)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	if _, err := c.Generate(context.Background(), "prompt text"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	c := NewClient("test-key")
	if _, err := c.Generate(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
