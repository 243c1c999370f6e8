package llm

import (
	"encoding/json"
	"strings"
	"testing"
)

var promptFixture = []Message{
	{Role: "system", Content: "You are LexIA, a legal assistant."},
	{Role: "user", Content: "What does Article 18 protect?"},
	{Role: "assistant", Content: "Article 18 protects the right to privacy."},
}

// syntheticResponse builds a 2xx body in the given provider's native shape
// carrying the given answer text.
func syntheticResponse(t *testing.T, providerID, answer string) map[string]any {
	t.Helper()
	var raw string
	switch providerID {
	case "openai", "mistral", "openrouter":
		raw = `{"choices":[{"message":{"role":"assistant","content":` + mustQuote(t, answer) + `}}]}`
	case "gemini":
		raw = `{"candidates":[{"content":{"parts":[{"text":` + mustQuote(t, answer) + `}]}}]}`
	case "ollama":
		raw = `{"model":"llama3","message":{"role":"assistant","content":` + mustQuote(t, answer) + `},"done":true}`
	case "openchat":
		raw = `{"content":` + mustQuote(t, answer) + `}`
	default:
		t.Fatalf("no synthetic response for provider %q", providerID)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("synthetic response for %q is invalid: %v", providerID, err)
	}
	return doc
}

func mustQuote(t *testing.T, s string) string {
	t.Helper()
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal %q: %v", s, err)
	}
	return string(b)
}

func TestBuildPayloadKeepsAllContent(t *testing.T) {
	for _, name := range ProviderNames() {
		t.Run(name, func(t *testing.T) {
			p, ok := Lookup(name)
			if !ok {
				t.Fatalf("Lookup(%q) not found", name)
			}
			raw, err := json.Marshal(p.BuildPayload(promptFixture))
			if err != nil {
				t.Fatalf("marshal payload: %v", err)
			}
			for _, m := range promptFixture {
				if !strings.Contains(string(raw), m.Content) {
					t.Errorf("payload drops %s message content: %s", m.Role, raw)
				}
			}
		})
	}
}

func TestExtractTextRoundTrip(t *testing.T) {
	const answer = "Consult Directive 95/46/EC."
	for _, name := range ProviderNames() {
		t.Run(name, func(t *testing.T) {
			p, _ := Lookup(name)
			if got := p.ExtractText(syntheticResponse(t, name, answer)); got != answer {
				t.Fatalf("ExtractText = %q, want %q", got, answer)
			}
		})
	}
}

func TestExtractTextMissingFieldReturnsSentinel(t *testing.T) {
	bodies := []map[string]any{
		{},
		{"choices": []any{}},
		{"choices": []any{map[string]any{"message": map[string]any{}}}},
		{"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{}}}}},
		{"message": map[string]any{"content": ""}},
	}
	for _, name := range ProviderNames() {
		p, _ := Lookup(name)
		for i, doc := range bodies {
			if got := p.ExtractText(doc); got != NoResponse {
				t.Errorf("%s body %d: ExtractText = %q, want sentinel", name, i, got)
			}
		}
	}
}

func TestGeminiFlattensHistoryIntoOneBlob(t *testing.T) {
	p, _ := Lookup("gemini")
	payload, ok := p.BuildPayload(promptFixture).(geminiPayload)
	if !ok {
		t.Fatalf("gemini payload has type %T", p.BuildPayload(promptFixture))
	}
	if len(payload.Contents) != 1 || len(payload.Contents[0].Parts) != 1 {
		t.Fatalf("gemini payload should hold a single part, got %+v", payload)
	}
	blob := payload.Contents[0].Parts[0].Text
	for _, m := range promptFixture {
		if !strings.Contains(blob, m.Content) {
			t.Errorf("flattened blob drops %s content", m.Role)
		}
	}
}

func TestGeminiEndpointCarriesKeyAsQueryParam(t *testing.T) {
	p, _ := Lookup("gemini")
	url := p.Endpoint("se cret")
	if !strings.Contains(url, "key=se+cret") && !strings.Contains(url, "key=se%20cret") {
		t.Fatalf("gemini endpoint does not embed escaped key: %s", url)
	}
	if h := p.Headers("se cret"); h["Authorization"] != "" {
		t.Fatalf("gemini must not send an Authorization header, got %q", h["Authorization"])
	}
}

func TestHeadersPerProvider(t *testing.T) {
	cases := []struct {
		provider   string
		wantBearer bool
	}{
		{"openai", true},
		{"mistral", true},
		{"openrouter", true},
		{"gemini", false},
		{"ollama", false},
		{"openchat", false},
	}
	for _, tc := range cases {
		p, ok := Lookup(tc.provider)
		if !ok {
			t.Fatalf("Lookup(%q) not found", tc.provider)
		}
		h := p.Headers("k")
		if h["Content-Type"] != "application/json" {
			t.Errorf("%s: missing content type", tc.provider)
		}
		gotBearer := strings.HasPrefix(h["Authorization"], "Bearer ")
		if gotBearer != tc.wantBearer {
			t.Errorf("%s: bearer auth = %v, want %v", tc.provider, gotBearer, tc.wantBearer)
		}
	}

	or, _ := Lookup("openrouter")
	h := or.Headers("k")
	if h["HTTP-Referer"] == "" || h["X-Title"] == "" {
		t.Errorf("openrouter must carry identification headers, got %v", h)
	}
}

func TestOllamaRequestsNonStreamingResponse(t *testing.T) {
	p, _ := Lookup("ollama")
	raw, err := json.Marshal(p.BuildPayload(promptFixture))
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if !strings.Contains(string(raw), `"stream":false`) {
		t.Fatalf("ollama payload must disable streaming: %s", raw)
	}
}

func TestLookupUnknownProvider(t *testing.T) {
	if _, ok := Lookup("deepmind"); ok {
		t.Fatal("unknown provider should not resolve")
	}
}
