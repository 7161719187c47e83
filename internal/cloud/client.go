// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Configuration constants for the completion API.
const (
	// DefaultBaseURL is the OpenAI-compatible API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTemperature is the sampling temperature sent with every request.
	DefaultTemperature = 0.7

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	// MaxErrorBodySize caps how much of a non-2xx body is kept in RemoteError.
	MaxErrorBodySize = 64 * 1024

	// NoContent replaces an absent or blank reply.
	NoContent = "(no content)"

	userAgent = "gatechat/1.0"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrMissingCredential is returned before any network I/O when no API key is
// configured.
var ErrMissingCredential = errors.New("No API key set. Add one in Settings.")

// RemoteError is a non-2xx answer from the API.
type RemoteError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// Unauthorized reports whether the key was rejected.
func (e *RemoteError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is one entry of the request history.
type ChatMessage struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // The message content
}

// ChatRequest is the body of a chat completions call.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// ChatResponse is the subset of the completions answer gatechat reads.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      *ChatMessage `json:"message"`
		FinishReason string       `json:"finish_reason"`
	} `json:"choices"`
}

// Content returns the trimmed content of the first choice, or NoContent.
func (r *ChatResponse) Content() string {
	if len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return NoContent
	}
	content := strings.TrimSpace(r.Choices[0].Message.Content)
	if content == "" {
		return NoContent
	}
	return content
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to an OpenAI-compatible chat completions endpoint. It holds no
// credentials; the key is passed per call.
type Client struct {
	baseURL     string
	temperature float64
	httpClient  *http.Client
	limiter     *rate.Limiter
	log         zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url = strings.TrimSpace(url); url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

// WithHTTPClient replaces the HTTP client, for tests and proxies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit caps outgoing requests at perMinute, with bursts of one.
// Zero or less leaves requests unthrottled.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log.With().Str("component", "cloud").Logger()
	}
}

// NewClient creates a Client. The default HTTP client has no timeout; calls
// end when the server answers or ctx is cancelled.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		temperature: DefaultTemperature,
		httpClient:  &http.Client{},
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Complete sends the history and returns the assistant's reply text.
func (c *Client) Complete(ctx context.Context, apiKey, model string, messages []ChatMessage) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", ErrMissingCredential
	}

	bodyBytes, err := json.Marshal(ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req, apiKey)

	c.logRequest(req, apiKey, model, len(messages))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	// SECURITY: Clear Authorization header immediately after request to prevent logging
	req.Header.Del("Authorization")
	if err != nil {
		c.log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("request failed")
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RemoteError{Status: resp.StatusCode, Body: readErrorBody(resp)}
	}

	body, err := readResponse(resp)
	if err != nil {
		return "", err
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return chatResp.Content(), nil
}

// setHeaders sets the headers for a completions request.
func setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// readErrorBody returns at most MaxErrorBodySize bytes of a failed response.
// Read errors leave whatever arrived; the status is what matters.
func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
	return string(body)
}

// =============================================================================
// LOGGING (without sensitive data)
// =============================================================================

// logRequest logs a request without headers, body or key material.
func (c *Client) logRequest(req *http.Request, apiKey, model string, messages int) {
	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("model", model).
		Int("messages", messages).
		Str("key_fingerprint", KeyFingerprint(apiKey)).
		Msg("api request")
}

// logResponse logs status and duration only.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("api response")
}

// KeyFingerprint returns the first 8 hex chars of the key's SHA-256.
// SECURITY: Never exposes key fragments.
func KeyFingerprint(apiKey string) string {
	if apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:4])
}

// MaskKey returns a display form of the key that reveals only its length and
// fingerprint.
func MaskKey(apiKey string) string {
	if apiKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(apiKey), KeyFingerprint(apiKey))
}
