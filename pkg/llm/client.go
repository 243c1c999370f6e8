// Package llm normalizes chat requests across LLM providers: one uniform
// message list in, one plain text answer (or one uniform error) out.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// errBodyPreviewLen bounds the raw-text fallback when a provider error body
// is not parseable JSON.
const errBodyPreviewLen = 100

// Client is the LLM gateway. It holds no credential state; the provider
// identifier and API key ride on every call.
type Client struct {
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// NewClient creates a gateway client. No timeout is imposed here; deadlines
// are inherited from the caller's context and the transport.
func NewClient(opts ...Option) *Client {
	c := &Client{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends the ordered message list to the selected provider and
// returns the extracted answer text.
//
// Exactly one outbound call is made per invocation, and none at all when
// validation fails. There are no retries: a completion is not safe to replay
// blindly, so retry policy belongs to the caller.
func (c *Client) Complete(ctx context.Context, providerID, apiKey string, messages []Message) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", &Error{Provider: providerID, Kind: ErrKindMissingCredentials, Message: "api key is not configured"}
	}

	provider, ok := Lookup(providerID)
	if !ok {
		return "", &Error{Provider: providerID, Kind: ErrKindUnsupportedProvider, Message: fmt.Sprintf("unsupported provider %q", providerID)}
	}

	payload, err := json.Marshal(provider.BuildPayload(messages))
	if err != nil {
		return "", &Error{Provider: provider.Name, Kind: ErrKindNetwork, Message: "failed to encode request payload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.Endpoint(apiKey), bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Provider: provider.Name, Kind: ErrKindNetwork, Message: "failed to build request", Cause: err}
	}
	for k, v := range provider.Headers(apiKey) {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Provider: provider.Name, Kind: ErrKindNetwork, Message: "request failed: " + err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Provider: provider.Name, Kind: ErrKindNetwork, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", providerError(provider.Name, resp.StatusCode, body)
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", &Error{Provider: provider.Name, Kind: ErrKindProvider, StatusCode: resp.StatusCode, Message: "invalid response body", Cause: err}
	}

	return provider.ExtractText(doc), nil
}

// providerError extracts a best-effort message from a non-2xx body. Known
// JSON envelopes are tried first; anything else falls back to a bounded raw
// text preview.
func providerError(provider string, status int, body []byte) *Error {
	msg := parseErrorEnvelope(body)
	if msg == "" {
		msg = truncate(strings.TrimSpace(string(body)), errBodyPreviewLen)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{
		Provider:   provider,
		Kind:       ErrKindProvider,
		StatusCode: status,
		Message:    fmt.Sprintf("status %d: %s", status, msg),
	}
}

func parseErrorEnvelope(body []byte) string {
	var env struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if len(env.Error) > 0 {
		// {"error":{"message":"..."}} or {"error":"..."}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(env.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if err := json.Unmarshal(env.Error, &flat); err == nil && flat != "" {
			return flat
		}
	}
	return env.Message
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	// back off a partial rune at the cut point
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
