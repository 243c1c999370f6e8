package llm

import (
	"net/url"
	"sort"
	"strings"
)

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NoResponse is returned by extractors when the response body parsed but the
// expected field chain was absent. A missing field never fails the whole call.
const NoResponse = "[no response]"

// Provider is the immutable recipe for talking to one LLM backend. Adding a
// backend means adding one registry entry; the gateway control flow never
// branches on provider identity.
type Provider struct {
	Name string

	// Endpoint builds the request URL. Gemini embeds the API key as a query
	// parameter instead of a header, so the key is threaded through here.
	Endpoint func(apiKey string) string

	// Headers builds the request headers. Always includes a content type;
	// bearer auth and static identification headers vary per backend.
	Headers func(apiKey string) map[string]string

	// BuildPayload maps the uniform message list onto the backend's native
	// request schema.
	BuildPayload func(messages []Message) any

	// ExtractText pulls the answer out of a decoded 2xx response body.
	ExtractText func(doc map[string]any) string
}

// chatPayload is the OpenAI-style chat completion request shared by every
// backend with a native role/content message array.
type chatPayload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      *bool     `json:"stream,omitempty"`
}

// Gemini has no chat-message-array concept; the whole history is collapsed
// into a single text blob inside its nested contents/parts structure.
type geminiPayload struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

func jsonHeaders(extra map[string]string) map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

func bearerHeaders(apiKey string) map[string]string {
	return jsonHeaders(map[string]string{"Authorization": "Bearer " + apiKey})
}

// flattenMessages joins the ordered message list into one blob. The system
// role has no dedicated slot on Gemini and is folded in with the rest.
func flattenMessages(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}

var registry = map[string]Provider{
	"openai": {
		Name: "openai",
		Endpoint: func(string) string {
			return "https://api.openai.com/v1/chat/completions"
		},
		Headers: bearerHeaders,
		BuildPayload: func(messages []Message) any {
			return chatPayload{Model: "gpt-4-turbo", Messages: messages, Temperature: 0.4, MaxTokens: 8000}
		},
		ExtractText: func(doc map[string]any) string {
			return firstText(doc, path("choices", 0, "message", "content"))
		},
	},
	"gemini": {
		Name: "gemini",
		Endpoint: func(apiKey string) string {
			return "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent?key=" + url.QueryEscape(apiKey)
		},
		Headers: func(string) map[string]string { return jsonHeaders(nil) },
		BuildPayload: func(messages []Message) any {
			return geminiPayload{Contents: []geminiContent{{Parts: []geminiPart{{Text: flattenMessages(messages)}}}}}
		},
		ExtractText: func(doc map[string]any) string {
			return firstText(doc, path("candidates", 0, "content", "parts", 0, "text"))
		},
	},
	"mistral": {
		Name: "mistral",
		Endpoint: func(string) string {
			return "https://api.mistral.ai/v1/chat/completions"
		},
		Headers: bearerHeaders,
		BuildPayload: func(messages []Message) any {
			return chatPayload{Model: "mistral-small", Messages: messages, Temperature: 0.7, MaxTokens: 8000}
		},
		ExtractText: func(doc map[string]any) string {
			return firstText(doc, path("choices", 0, "message", "content"))
		},
	},
	"ollama": {
		Name: "ollama",
		Endpoint: func(string) string {
			return "http://localhost:11434/api/chat"
		},
		// Local runtime, no authorization header at all.
		Headers: func(string) map[string]string { return jsonHeaders(nil) },
		BuildPayload: func(messages []Message) any {
			noStream := false
			return chatPayload{Model: "llama3", Messages: messages, Stream: &noStream}
		},
		ExtractText: extractLooseText,
	},
	"openrouter": {
		Name: "openrouter",
		Endpoint: func(string) string {
			return "https://openrouter.ai/api/v1/chat/completions"
		},
		Headers: func(apiKey string) map[string]string {
			h := bearerHeaders(apiKey)
			h["HTTP-Referer"] = "https://lexia.app"
			h["X-Title"] = "LexIA"
			return h
		},
		BuildPayload: func(messages []Message) any {
			return chatPayload{Model: "mistralai/mistral-7b-instruct:free", Messages: messages, Temperature: 0.4, MaxTokens: 8000}
		},
		ExtractText: extractLooseText,
	},
	"openchat": {
		Name: "openchat",
		Endpoint: func(string) string {
			return "https://openchat.team/api/chat"
		},
		Headers: func(string) map[string]string { return jsonHeaders(nil) },
		BuildPayload: func(messages []Message) any {
			return chatPayload{Model: "openchat_3.5", Messages: messages, Temperature: 0.4}
		},
		ExtractText: extractLooseText,
	},
}

// Lookup resolves a provider identifier to its recipe.
func Lookup(name string) (Provider, bool) {
	p, ok := registry[name]
	return p, ok
}

// ProviderNames returns the supported identifiers, sorted.
func ProviderNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// extractLooseText handles backends that nest the answer in one of several
// flatter shapes, in preference order.
func extractLooseText(doc map[string]any) string {
	return firstText(doc,
		path("choices", 0, "message", "content"),
		path("message", "content"),
		path("content"),
		path("output"),
	)
}

func path(keys ...any) []any { return keys }

// firstText walks each candidate path through the decoded body and returns
// the first non-empty string it finds, or the NoResponse sentinel.
func firstText(doc map[string]any, paths ...[]any) string {
	for _, p := range paths {
		if s, ok := textAt(doc, p); ok {
			return s
		}
	}
	return NoResponse
}

func textAt(doc map[string]any, keys []any) (string, bool) {
	var v any = doc
	for _, k := range keys {
		switch key := k.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return "", false
			}
			if v, ok = m[key]; !ok {
				return "", false
			}
		case int:
			s, ok := v.([]any)
			if !ok || key < 0 || key >= len(s) {
				return "", false
			}
			v = s[key]
		default:
			return "", false
		}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
