package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/replyforge/replyforge/internal/llm"
	"github.com/replyforge/replyforge/internal/llm/openai"
)

func completionServer(t *testing.T, status int, content string, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotBody != nil {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode request: %v", err)
			}
			*gotBody = body
		}
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]any{{
				"index":   0,
				"message": map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	srv := completionServer(t, http.StatusOK, "Here is your reply.", &body)
	defer srv.Close()

	gen, err := openai.New(openai.Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL + "/v1",
		SystemPrompt: "You are a support agent.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := gen.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Here is your reply." {
		t.Fatalf("out = %q", out)
	}

	if body["model"] != "gpt-3.5-turbo" {
		t.Fatalf("model = %v, want default", body["model"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %#v", body["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Fatalf("first message must be the system prompt: %#v", first)
	}
}

func TestGenerateRateLimitIsTransient(t *testing.T) {
	srv := completionServer(t, http.StatusTooManyRequests, "", nil)
	defer srv.Close()

	gen, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = gen.Generate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !llm.IsTransient(err) {
		t.Fatalf("429 must be transient: %v", err)
	}
}

func TestGenerateAuthFailureIsPermanent(t *testing.T) {
	srv := completionServer(t, http.StatusUnauthorized, "", nil)
	defer srv.Close()

	gen, err := openai.New(openai.Config{APIKey: "bad-key", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = gen.Generate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if llm.IsTransient(err) {
		t.Fatalf("401 must not be retried: %v", err)
	}
}

func TestGenerateEmptyCompletion(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "   ", nil)
	defer srv.Close()

	gen, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := gen.Generate(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for empty completion")
	}
}

func TestGenerateServerErrorIsTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	gen, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = gen.Generate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !llm.IsTransient(err) {
		t.Fatalf("5xx must be transient: %v", err)
	}
	if calls.Load() == 0 {
		t.Fatal("server was never reached")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := openai.New(openai.Config{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
