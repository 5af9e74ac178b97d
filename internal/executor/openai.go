package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultLLMTimeout = 45 * time.Second

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

func newHTTPClientWithTimeout(d time.Duration) *http.Client {
	if d <= 0 {
		d = defaultLLMTimeout
	}
	return &http.Client{Timeout: d}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatAPIRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatAPIError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type chatAPIResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *chatAPIError `json:"error,omitempty"`
}

// OpenAIGenerator calls any OpenAI-compatible /chat/completions endpoint.
type OpenAIGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  httpDoer
	logger  *zap.SugaredLogger
}

func NewOpenAIGenerator(baseURL, apiKey, model string, timeout time.Duration, logger *zap.SugaredLogger) *OpenAIGenerator {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &OpenAIGenerator{
		baseURL: base,
		apiKey:  strings.TrimSpace(apiKey),
		model:   model,
		client:  newHTTPClientWithTimeout(timeout),
		logger:  logger,
	}
}

func (g *OpenAIGenerator) Name() string { return "openai:" + g.model }

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if g.apiKey == "" {
		return "", ErrNoGenerator
	}

	messages := make([]chatMessage, 0, 3+len(prompt.History))
	if s := strings.TrimSpace(prompt.System); s != "" {
		messages = append(messages, chatMessage{Role: "system", Content: s})
	}
	if prompt.Summary != "" {
		messages = append(messages, chatMessage{Role: "system", Content: "Conversation summary:\n" + prompt.Summary})
	}
	for _, t := range prompt.History {
		role := RoleUser
		if t.Role == RoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, chatMessage{Role: role, Content: t.Content})
	}
	messages = append(messages, chatMessage{Role: RoleUser, Content: prompt.Message})

	payload := chatAPIRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("executor: marshal chat payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("executor: create chat request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+g.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := g.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("executor: call chat api: %w", err)
	}
	defer response.Body.Close()

	respBody, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("executor: read chat response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", buildChatAPIError(response.StatusCode, respBody)
	}

	var apiResp chatAPIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("executor: decode chat response: %w", err)
	}

	if apiResp.Error != nil && apiResp.Error.Message != "" {
		return "", fmt.Errorf("executor: chat api error: %s", apiResp.Error.Message)
	}

	if len(apiResp.Choices) == 0 {
		g.logger.Warnw("chat response contained no choices", "model", g.model, "id", apiResp.ID)
		return "", nil
	}

	return apiResp.Choices[0].Message.Content, nil
}

func buildChatAPIError(statusCode int, body []byte) error {
	var envelope struct {
		Error *chatAPIError `json:"error,omitempty"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		msg := strings.TrimSpace(envelope.Error.Message)
		switch {
		case envelope.Error.Code != "" && msg != "":
			return fmt.Errorf("chat api error (%d, %s): %s", statusCode, envelope.Error.Code, msg)
		case msg != "":
			return fmt.Errorf("chat api error (%d): %s", statusCode, msg)
		}
	}

	snippet := strings.TrimSpace(string(body))
	if snippet == "" {
		snippet = http.StatusText(statusCode)
	}
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}

	return fmt.Errorf("chat api error (%d): %s", statusCode, snippet)
}
