package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
)

const testKey = "AIzaSyTESTKEYtestkey0123456789abcdefgh"

type fakeProvider struct {
	text string
	err  error
	last interfaces.AIRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, req interfaces.AIRequest) (string, error) {
	f.last = req
	return f.text, f.err
}

func TestChatUsesProvider(t *testing.T) {
	p := &fakeProvider{text: "Take it after food."}
	svc := NewService(p, time.Second)

	age := 30
	reply := svc.Chat(context.Background(), "  how to take panadol? ", &entities.PatientContext{Age: &age})
	if reply.Provider != "fake" || reply.Reply != "Take it after food." || reply.Tags != nil {
		t.Errorf("Unexpected reply: %+v", reply)
	}
	if p.last.Temperature != 0.4 || p.last.MaxTokens != 220 {
		t.Errorf("Unexpected generation settings: %+v", p.last)
	}
	if !strings.Contains(p.last.Prompt, "age: 30") || !strings.HasSuffix(p.last.Prompt, "how to take panadol?") {
		t.Errorf("Prompt missing context: %q", p.last.Prompt)
	}
}

func TestChatFallback(t *testing.T) {
	tests := []struct {
		name     string
		provider interfaces.AIProvider
		message  string
		tag      string
	}{
		{"no provider", nil, "ينفع أشرب قهوة مع البنادول؟", "coffee"},
		{"provider error", &fakeProvider{err: errors.New("boom")}, "what dose for my son", "dose"},
		{"fasting", nil, "Ramadan schedule", "fasting"},
		{"no keyword", nil, "hello", "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := NewService(tt.provider, 0).Chat(context.Background(), tt.message, nil)
			if reply.Provider != ProviderFallback {
				t.Errorf("Expected fallback provider, got %q", reply.Provider)
			}
			if len(reply.Tags) != 1 || reply.Tags[0] != tt.tag {
				t.Errorf("Expected tag %q, got %v", tt.tag, reply.Tags)
			}
			if reply.Reply == "" {
				t.Error("Expected non-empty reply")
			}
		})
	}
}

func TestFallbackReplyAppendsProfile(t *testing.T) {
	text, _ := FallbackReply("dose", &entities.PatientContext{Allergies: []string{"penicillin"}})
	if !strings.HasSuffix(text, "Your profile: allergies: penicillin") {
		t.Errorf("Expected profile suffix, got %q", text)
	}

	text, _ = FallbackReply("dose", &entities.PatientContext{})
	if strings.Contains(text, "Your profile") {
		t.Errorf("Empty profile should not be rendered: %q", text)
	}
}

func TestExtractMedications(t *testing.T) {
	p := &fakeProvider{text: "```json\n[\"Panadol Extra\", \"Augmentin 1g\", \"x\"]\n```"}
	svc := NewService(p, time.Second)

	got := svc.ExtractMedications(context.Background(), "aGVsbG8=", "image/png")
	want := []string{"Panadol Extra", "Augmentin 1g"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractMedications() = %v, want %v", got, want)
	}
	if p.last.ImageMime != "image/png" || p.last.Temperature != 0.1 {
		t.Errorf("Unexpected request: %+v", p.last)
	}

	if got := NewService(nil, 0).ExtractMedications(context.Background(), "aGVsbG8=", ""); got == nil || len(got) != 0 {
		t.Errorf("Expected empty list without provider, got %v", got)
	}

	p.err = errors.New("timeout")
	if got := svc.ExtractMedications(context.Background(), "aGVsbG8=", ""); got == nil || len(got) != 0 {
		t.Errorf("Expected empty list on provider error, got %v", got)
	}
}

func TestParseMedicationList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"json array", `["Panadol", "Brufen 400"]`, []string{"Panadol", "Brufen 400"}},
		{"comma list", `Panadol, "Brufen", [Congestal]`, []string{"Panadol", "Brufen", "Congestal"}},
		{"lines", "Panadol\nAugmentin\nab", []string{"Panadol", "Augmentin"}},
		{"empty", "", []string{}},
		{"empty array", "[]", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMedicationList(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMedicationList(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	many := strings.Repeat("Panadol,", 40)
	if got := ParseMedicationList(many); len(got) != MaxExtractedNames {
		t.Errorf("Expected %d names, got %d", MaxExtractedNames, len(got))
	}
}

func TestLooksLikeAPIKey(t *testing.T) {
	if !LooksLikeAPIKey(testKey) {
		t.Error("Expected valid key")
	}
	for _, k := range []string{"", "short", "has spaces in the key 0123456789abcdef"} {
		if LooksLikeAPIKey(k) {
			t.Errorf("Expected %q to be rejected", k)
		}
	}
}

func newTestGemini(url string, models ...string) *GeminiProvider {
	g := NewGeminiProvider(testKey, models...)
	g.baseURL = url
	g.backoff = time.Millisecond
	return g
}

func geminiOK(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
		}},
	})
}

func TestGeminiGenerate(t *testing.T) {
	var body geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != testKey {
			t.Errorf("Missing api key header")
		}
		if r.URL.Path != "/models/gemini-1.5-flash:generateContent" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		geminiOK(w, "  hello  ")
	}))
	defer server.Close()

	g := newTestGemini(server.URL)
	text, err := g.Generate(context.Background(), interfaces.AIRequest{Prompt: "hi", ImageBase64: "abc", Temperature: 0.1})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "hello" {
		t.Errorf("Expected trimmed text, got %q", text)
	}
	parts := body.Contents[0].Parts
	if len(parts) != 2 || parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/jpeg" {
		t.Errorf("Unexpected request parts: %+v", parts)
	}
}

func TestGeminiRateLimitMovesToNextModel(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if strings.Contains(r.URL.Path, "first") {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		geminiOK(w, "from second")
	}))
	defer server.Close()

	text, err := newTestGemini(server.URL, "first", "second").Generate(context.Background(), interfaces.AIRequest{Prompt: "hi"})
	if err != nil || text != "from second" {
		t.Errorf("Generate() = %q, %v", text, err)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", calls.Load())
	}
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		calls  int32
	}{
		{"auth stops", http.StatusUnauthorized, `{}`, ErrAuth, 1},
		{"empty response", http.StatusOK, `{"candidates":[]}`, ErrEmptyResponse, 2},
		{"rate limited everywhere", http.StatusTooManyRequests, `{}`, ErrRateLimited, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestGemini(server.URL, "a", "b").Generate(context.Background(), interfaces.AIRequest{Prompt: "hi"})
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if calls.Load() != tt.calls {
				t.Errorf("Expected %d calls, got %d", tt.calls, calls.Load())
			}
		})
	}
}

func TestGeminiNotConfigured(t *testing.T) {
	_, err := NewGeminiProvider("bad key").Generate(context.Background(), interfaces.AIRequest{Prompt: "hi"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}
