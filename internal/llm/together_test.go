package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func togetherTestClient(t *testing.T, handler http.HandlerFunc) *TogetherClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewTogetherClient("test-key")
	c.baseURL = srv.URL
	return c
}

func TestTogetherComplete_Success(t *testing.T) {
	client := togetherTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}

		var req togetherRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != "meta-llama/Llama-3.3-70B-Instruct-Turbo" {
			t.Errorf("model = %q", req.Model)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "An answer."}},
			},
			"usage": map[string]int{"prompt_tokens": 20, "completion_tokens": 5},
		})
	})

	got, err := client.Complete(context.Background(), "meta-llama/Llama-3.3-70B-Instruct-Turbo", "q?", "some context")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Text != "An answer." {
		t.Errorf("Text = %q", got.Text)
	}
	if got.InputTokens != 20 || got.OutputTokens != 5 {
		t.Errorf("tokens = %d/%d, want 20/5", got.InputTokens, got.OutputTokens)
	}
}

func TestTogetherComplete_RateLimited(t *testing.T) {
	client := togetherTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), "m", "q?", "")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want HTTPError", err)
	}
	if httpErr.Status != 429 {
		t.Errorf("Status = %d, want 429", httpErr.Status)
	}
	if !retryable(err) {
		t.Error("429 must be retryable")
	}
}

func TestTogetherComplete_EmptyChoices(t *testing.T) {
	client := togetherTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.Complete(context.Background(), "m", "q?", "")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want ParseError", err)
	}
}
