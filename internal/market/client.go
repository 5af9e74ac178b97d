// Package market talks to the third-party financial data APIs: quotes and price history
// (Yahoo Finance, Alpha Vantage) and headlines (real-time-finance-data on RapidAPI).
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultHTTPTimeout = 20 * time.Second
	maxErrorSnippet    = 256
)

var (
	ErrSymbolRequired = errors.New("market: symbol is required")
	ErrNoData         = errors.New("market: no data returned")
	ErrNotConfigured  = errors.New("market: api key not configured")
)

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// APIError is a non-2xx answer from an upstream provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

func newDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

type errorEnvelope struct {
	Message string `json:"message"`
	Error   any    `json:"error"`
}

func buildAPIError(provider string, statusCode int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if msg := strings.TrimSpace(envelope.Message); msg != "" {
			return &APIError{Provider: provider, StatusCode: statusCode, Message: msg}
		}
		switch v := envelope.Error.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return &APIError{Provider: provider, StatusCode: statusCode, Message: strings.TrimSpace(v)}
			}
		case map[string]any:
			if desc, ok := v["description"].(string); ok && desc != "" {
				return &APIError{Provider: provider, StatusCode: statusCode, Message: desc}
			}
		}
	}

	snippet := strings.TrimSpace(string(body))
	if snippet == "" {
		snippet = http.StatusText(statusCode)
	}
	if utf8.RuneCountInString(snippet) > maxErrorSnippet {
		snippet = string([]rune(snippet)[:maxErrorSnippet])
	}

	return &APIError{Provider: provider, StatusCode: statusCode, Message: snippet}
}

// getJSON issues a GET and decodes a 2xx JSON body into out.
func getJSON(ctx context.Context, client httpDoer, provider, endpoint string, headers map[string]string, out any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", provider, err)
	}
	request.Header.Set("Accept", "application/json")
	for k, v := range headers {
		request.Header.Set(k, v)
	}

	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("%s: call api: %w", provider, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", provider, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return buildAPIError(provider, response.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", provider, err)
	}

	return nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
