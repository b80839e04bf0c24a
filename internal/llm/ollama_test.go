package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultOllamaConfig(t *testing.T) {
	config := DefaultOllamaConfig()

	if config.BaseURL != "http://localhost:11434" {
		t.Errorf("unexpected BaseURL: %s", config.BaseURL)
	}
	if config.Model != "qwen3:8b" {
		t.Errorf("unexpected Model: %s", config.Model)
	}
	if config.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected RequestTimeout: %v", config.RequestTimeout)
	}
}

func newOllamaServer(t *testing.T, models []string, chat http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			_ = json.NewEncoder(w).Encode(ollamaVersion{Version: "0.5.0"})
		case "/api/tags":
			var list ollamaModels
			for _, m := range models {
				list.Models = append(list.Models, struct {
					Name string `json:"name"`
				}{Name: m})
			}
			_ = json.NewEncoder(w).Encode(list)
		case "/api/chat":
			chat(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOllamaClient_CheckAvailability(t *testing.T) {
	t.Run("available with model", func(t *testing.T) {
		server := newOllamaServer(t, []string{"qwen3:8b"}, nil)
		client := NewOllamaClient(&OllamaConfig{BaseURL: server.URL, Model: "qwen3:8b", RequestTimeout: 5 * time.Second})

		status := client.CheckAvailability(context.Background())
		if !status.Available || !status.ModelReady {
			t.Errorf("expected ready status, got %+v", status)
		}
		if status.Version != "0.5.0" {
			t.Errorf("unexpected version: %s", status.Version)
		}
		if !client.IsAvailable() {
			t.Error("expected client to be available")
		}
	})

	t.Run("model missing", func(t *testing.T) {
		server := newOllamaServer(t, []string{"llama3:8b"}, nil)
		client := NewOllamaClient(&OllamaConfig{BaseURL: server.URL, Model: "qwen3:8b", RequestTimeout: 5 * time.Second})

		status := client.CheckAvailability(context.Background())
		if !status.Available || status.ModelReady {
			t.Errorf("expected available without model, got %+v", status)
		}
		if client.IsAvailable() {
			t.Error("expected client to be unavailable")
		}
	})

	t.Run("server down", func(t *testing.T) {
		client := NewOllamaClient(&OllamaConfig{BaseURL: "http://127.0.0.1:1", Model: "qwen3:8b", RequestTimeout: time.Second})

		status := client.CheckAvailability(context.Background())
		if status.Available {
			t.Error("expected unavailable")
		}
		if status.Error == "" {
			t.Error("expected error message")
		}
	})
}

func TestOllamaClient_Generate(t *testing.T) {
	var got ollamaChatRequest
	server := newOllamaServer(t, []string{"qwen3:8b"}, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:           "qwen3:8b",
			Message:         ollamaMessage{Role: "assistant", Content: "deck looks fine"},
			Done:            true,
			PromptEvalCount: 7,
			EvalCount:       3,
		})
	})
	client := NewOllamaClient(&OllamaConfig{BaseURL: server.URL, Model: "qwen3:8b", RequestTimeout: 5 * time.Second})

	resp, err := client.Generate(context.Background(), testMessages, Options{MaxTokens: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "deck looks fine" {
		t.Errorf("unexpected text: %s", resp.Text)
	}
	if resp.Model != "qwen3:8b" || resp.InputTokens != 7 || resp.OutputTokens != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.Stream {
		t.Error("expected non-streaming request")
	}
	if got.Options == nil || got.Options.NumPredict != 200 {
		t.Errorf("expected num_predict 200, got %+v", got.Options)
	}
}

func TestOllamaClient_GenerateError(t *testing.T) {
	server := newOllamaServer(t, []string{"qwen3:8b"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("out of memory"))
	})
	client := NewOllamaClient(&OllamaConfig{BaseURL: server.URL, Model: "qwen3:8b", RequestTimeout: 5 * time.Second})

	_, err := client.Generate(context.Background(), testMessages, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected status: %d", apiErr.StatusCode)
	}
}

func TestOllamaClient_GenerateUnavailable(t *testing.T) {
	client := NewOllamaClient(&OllamaConfig{BaseURL: "http://127.0.0.1:1", Model: "qwen3:8b", RequestTimeout: time.Second})

	if _, err := client.Generate(context.Background(), testMessages, Options{}); err == nil {
		t.Fatal("expected error when ollama is down")
	}
}
