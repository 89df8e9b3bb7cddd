package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/discoverly/visibility-service/internal/model"
)

// AnthropicClient implements Client using the official Claude SDK.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a Claude-backed client.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicClient{client: &client}
}

func (a *AnthropicClient) Provider() model.Provider { return model.ProviderAnthropic }

func (a *AnthropicClient) Complete(ctx context.Context, modelID, prompt, contextText string) (*Completion, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(prompt, contextText))),
		},
	})
	if err != nil {
		// The SDK wraps HTTP failures in its own error type; re-map the
		// status so the shared retry policy can classify it.
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, statusError(model.ProviderAnthropic, apiErr.StatusCode, apiErr.Error())
		}
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, &ParseError{Provider: model.ProviderAnthropic, Err: fmt.Errorf("no text blocks in response")}
	}

	return &Completion{
		Text:         sb.String(),
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}
