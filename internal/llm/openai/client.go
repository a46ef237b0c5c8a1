package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loanmvp/internal/llm"
	"loanmvp/internal/shared/telemetry"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

const (
	defaultTemperature = float32(0.7)
	defaultMaxTokens   = 400
	defaultTimeout     = 30 * time.Second
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey      string
	model       string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
}

// NewClient constructs a new OpenAI client. A non-positive timeout uses 30s.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:      apiKey,
		model:       strings.TrimSpace(model),
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("openai request has no messages")
	}
	req := chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	}
	if !isGPT5(c.model) {
		temp := c.temperature
		req.Temperature = &temp
	}

	parsed, status, err := c.send(ctx, req)
	if err != nil && status == http.StatusBadRequest && req.Temperature != nil && mentionsTemperature(err) {
		req.Temperature = nil
		parsed, _, err = c.send(ctx, req)
	}
	if err != nil {
		return "", err
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}
	logUsage(c.model, parsed)
	return content, nil
}

func (c *Client) send(ctx context.Context, body chatRequest) (chatResponse, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return chatResponse{}, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return chatResponse{}, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return chatResponse{}, 0, fmt.Errorf("openai request timeout: %w", err)
		}
		return chatResponse{}, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return chatResponse{}, resp.StatusCode, err
	}

	var parsed chatResponse
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil {
			return chatResponse{}, resp.StatusCode, fmt.Errorf("openai http status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return chatResponse{}, resp.StatusCode, fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return chatResponse{}, resp.StatusCode, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return chatResponse{}, resp.StatusCode, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	return parsed, resp.StatusCode, nil
}

func mentionsTemperature(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "temperature")
}

func logUsage(model string, resp chatResponse) {
	fields := map[string]any{"model": model}
	if resp.Usage != nil {
		fields["prompt_tokens"] = resp.Usage.PromptTokens
		fields["completion_tokens"] = resp.Usage.CompletionTokens
		fields["total_tokens"] = resp.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

// gpt-5 models only accept the default temperature.
func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
