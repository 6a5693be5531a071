package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/logging"
)

// Compile-time check to ensure GeminiProvider implements AIProvider
var _ interfaces.AIProvider = (*GeminiProvider)(nil)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultGeminiModels are tried in order until one answers
var DefaultGeminiModels = []string{"gemini-1.5-flash", "gemini-1.5-flash-8b"}

var (
	ErrNotConfigured = errors.New("ai provider not configured")
	ErrAuth          = errors.New("ai provider rejected the api key")
	ErrRateLimited   = errors.New("ai provider rate limited")
	ErrEmptyResponse = errors.New("ai provider returned an empty response")
)

var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]{30,}$`)

// LooksLikeAPIKey rejects obviously wrong keys before any network call
func LooksLikeAPIKey(key string) bool {
	return apiKeyPattern.MatchString(key)
}

// GeminiProvider calls the Gemini generateContent REST endpoint
type GeminiProvider struct {
	apiKey  string
	models  []string
	baseURL string
	client  *http.Client
	backoff time.Duration
}

// NewGeminiProvider creates a provider. An empty model list uses DefaultGeminiModels.
func NewGeminiProvider(apiKey string, models ...string) *GeminiProvider {
	if len(models) == 0 {
		models = DefaultGeminiModels
	}
	return &GeminiProvider{
		apiKey:  strings.TrimSpace(apiKey),
		models:  models,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{},
		backoff: 500 * time.Millisecond,
	}
}

// Name implements interfaces.AIProvider
func (g *GeminiProvider) Name() string {
	return "gemini"
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func buildGeminiRequest(req interfaces.AIRequest) geminiRequest {
	parts := []geminiPart{{Text: req.Prompt}}
	if req.ImageBase64 != "" {
		mime := req.ImageMime
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{MimeType: mime, Data: req.ImageBase64}})
	}

	return geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
}

// Generate implements interfaces.AIProvider. A 429 moves to the next model
// after a short back-off; auth failures stop immediately.
func (g *GeminiProvider) Generate(ctx context.Context, req interfaces.AIRequest) (string, error) {
	if !LooksLikeAPIKey(g.apiKey) {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(buildGeminiRequest(req))
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	for i, model := range g.models {
		text, err := g.call(ctx, model, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if errors.Is(err, ErrAuth) || ctx.Err() != nil {
			return "", err
		}
		logging.Warn("Gemini model failed", "model", model, "error", err)

		if errors.Is(err, ErrRateLimited) && i < len(g.models)-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.backoff):
			}
		}
	}
	return "", lastErr
}

func (g *GeminiProvider) call(ctx context.Context, model string, payload []byte) (string, error) {
	// The key travels in a header so transport errors never carry it
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(model))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", model, err)
	}

	var decoded geminiResponse
	_ = json.Unmarshal(body, &decoded)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: %s", ErrRateLimited, model)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w (status %d)", ErrAuth, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return "", fmt.Errorf("gemini %s error: %s", model, msg)
	}

	var sb strings.Builder
	if len(decoded.Candidates) > 0 {
		for _, p := range decoded.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
