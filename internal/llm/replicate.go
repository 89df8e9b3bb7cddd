package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/discoverly/visibility-service/internal/model"
)

const replicateBaseURL = "https://api.replicate.com/v1"

// PollConfig bounds the poll loop for job-style providers. Exhausting the
// attempt budget is a terminal failure for that one call, never a crash.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollConfig is used when configuration leaves polling unset.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:    time.Second,
		MaxAttempts: 30,
	}
}

// ReplicateClient implements Client against Replicate's asynchronous
// prediction API: submit a job, then poll its status until it settles.
type ReplicateClient struct {
	apiKey     string
	baseURL    string
	poll       PollConfig
	httpClient *http.Client
}

// NewReplicateClient creates a Replicate-backed client.
func NewReplicateClient(apiKey string, poll PollConfig) *ReplicateClient {
	if poll.MaxAttempts <= 0 {
		poll = DefaultPollConfig()
	}
	return &ReplicateClient{
		apiKey:  apiKey,
		baseURL: replicateBaseURL,
		poll:    poll,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (r *ReplicateClient) Provider() model.Provider { return model.ProviderReplicate }

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	Metrics struct {
		InputTokenCount  int `json:"input_token_count"`
		OutputTokenCount int `json:"output_token_count"`
	} `json:"metrics"`
}

func (r *ReplicateClient) Complete(ctx context.Context, modelID, prompt, contextText string) (*Completion, error) {
	pred, err := r.submit(ctx, modelID, buildPrompt(prompt, contextText))
	if err != nil {
		return nil, err
	}

	// Poll at a fixed interval until the job settles or the budget runs out.
	for attempt := 0; attempt < r.poll.MaxAttempts; attempt++ {
		switch pred.Status {
		case "succeeded":
			return r.completion(pred)
		case "failed", "canceled":
			return nil, fmt.Errorf("replicate prediction %s %s: %s", pred.ID, pred.Status, pred.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.poll.Interval):
		}

		pred, err = r.fetch(ctx, pred.ID)
		if err != nil {
			return nil, err
		}
	}

	return nil, &TimeoutError{Provider: model.ProviderReplicate, Attempts: r.poll.MaxAttempts}
}

// submit creates a prediction job for the given model.
func (r *ReplicateClient) submit(ctx context.Context, modelID, prompt string) (*replicatePrediction, error) {
	reqBody, err := json.Marshal(map[string]any{
		"input": map[string]any{
			"prompt": prompt,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling replicate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s/predictions", r.baseURL, modelID)
	return r.do(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
}

// fetch polls the status of a submitted job.
func (r *ReplicateClient) fetch(ctx context.Context, id string) (*replicatePrediction, error) {
	return r.do(ctx, http.MethodGet, fmt.Sprintf("%s/predictions/%s", r.baseURL, id), nil)
}

func (r *ReplicateClient) do(ctx context.Context, method, url string, body io.Reader) (*replicatePrediction, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling replicate: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading replicate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError(model.ProviderReplicate, resp.StatusCode, string(respBody))
	}

	var pred replicatePrediction
	if err := json.Unmarshal(respBody, &pred); err != nil {
		return nil, &ParseError{Provider: model.ProviderReplicate, Err: err}
	}
	return &pred, nil
}

// completion converts a finished prediction into a Completion. Language
// models on Replicate stream output as a token array; older models return
// a single string. Both shapes are accepted.
func (r *ReplicateClient) completion(pred *replicatePrediction) (*Completion, error) {
	var text string

	var tokens []string
	if err := json.Unmarshal(pred.Output, &tokens); err == nil {
		text = strings.Join(tokens, "")
	} else if err := json.Unmarshal(pred.Output, &text); err != nil {
		return nil, &ParseError{Provider: model.ProviderReplicate, Err: err}
	}

	return &Completion{
		Text:         text,
		InputTokens:  pred.Metrics.InputTokenCount,
		OutputTokens: pred.Metrics.OutputTokenCount,
	}, nil
}
