package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/pactguard/pactguard/internal/domain/ai"
	"github.com/pactguard/pactguard/internal/infra/ai/prompt"
)

const (
	maxTokens    = 2048
	defaultModel = "gpt-4o-mini"
)

// Options for the OpenAI-compatible collaborator.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// Provider is reported in integration metadata, e.g. "openai" or "google".
	Provider string
	// OrchestrationKey, when set, is sent as OrchestrationHeader on every call.
	OrchestrationKey    string
	OrchestrationHeader string
	Timeout             time.Duration
}

type Client struct {
	*openai.Client
	Model    string
	provider string
	now      func() time.Time
}

type headerTransport struct {
	base   http.RoundTripper
	header string
	value  string
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(t.header, t.value)
	return t.base.RoundTrip(req)
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	var transport http.RoundTripper = http.DefaultTransport
	if opts.OrchestrationKey != "" {
		header := opts.OrchestrationHeader
		if header == "" {
			header = "X-Orchestration-Key"
		}
		transport = headerTransport{base: transport, header: header, value: opts.OrchestrationKey}
	}
	cfg.HTTPClient = &http.Client{Transport: transport, Timeout: opts.Timeout}

	provider := opts.Provider
	if provider == "" {
		provider = "openai"
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: opts.Model, provider: provider, now: time.Now}
}

func (c *Client) Name() string { return c.provider }

func (c *Client) Analyze(ctx context.Context, text string) (ai.Analysis, error) {
	model := c.Model
	if model == "" {
		model = defaultModel
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(text)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
		req.Temperature = 0.1
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return ai.Analysis{}, classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return ai.Analysis{}, fmt.Errorf("empty completion: %w", ai.ErrUnavailable)
	}

	content := resp.Choices[0].Message.Content
	runID := resp.ID
	if runID == "" {
		runID = uuid.NewString()
	}
	return ai.Analysis{
		Text:       content,
		Structured: prompt.ParseStructured(content),
		RunID:      runID,
		Provider:   c.provider,
		At:         c.now(),
		External:   true,
		Billable:   resp.Usage.TotalTokens > 0,
	}, nil
}

// classify maps provider errors onto the domain sentinels.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("chat completion: %w", ai.ErrQuotaExceeded)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("chat completion: %w", ai.ErrQuotaExceeded)
	}
	return fmt.Errorf("failed to create chat completion: %v: %w", err, ai.ErrUnavailable)
}
