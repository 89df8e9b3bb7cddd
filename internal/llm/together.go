package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/discoverly/visibility-service/internal/model"
)

const togetherBaseURL = "https://api.together.xyz/v1"

// TogetherClient implements Client against Together's OpenAI-compatible
// chat completions endpoint.
type TogetherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTogetherClient creates a Together-backed client.
func NewTogetherClient(apiKey string) *TogetherClient {
	return &TogetherClient{
		apiKey:  apiKey,
		baseURL: togetherBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (t *TogetherClient) Provider() model.Provider { return model.ProviderTogether }

type togetherRequest struct {
	Model    string            `json:"model"`
	Messages []togetherMessage `json:"messages"`
}

type togetherMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type togetherResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (t *TogetherClient) Complete(ctx context.Context, modelID, prompt, contextText string) (*Completion, error) {
	reqBody, err := json.Marshal(togetherRequest{
		Model: modelID,
		Messages: []togetherMessage{
			{Role: "user", Content: buildPrompt(prompt, contextText)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling together request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling together: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading together response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(model.ProviderTogether, resp.StatusCode, string(body))
	}

	var parsed togetherResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ParseError{Provider: model.ProviderTogether, Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ParseError{Provider: model.ProviderTogether, Err: fmt.Errorf("no choices in response")}
	}

	return &Completion{
		Text:         parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}
