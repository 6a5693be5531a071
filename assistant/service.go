// Package assistant provides the chat and prescription OCR features. Both
// delegate to an external AI provider under a timeout and degrade to local
// answers when it fails.
package assistant

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/logging"
	"github.com/giygas/smartpharmacy-api/metrics"
)

const (
	// ProviderFallback names replies produced locally
	ProviderFallback = "fallback"

	DefaultTimeout = 10 * time.Second

	// MaxExtractedNames caps the names returned by OCR
	MaxExtractedNames = 30
)

// ChatReply is the answer to a chat message
type ChatReply struct {
	Reply    string   `json:"reply"`
	Provider string   `json:"provider"`
	Tags     []string `json:"tags,omitempty"`
}

// Service runs chat and OCR requests against a provider
type Service struct {
	provider interfaces.AIProvider
	timeout  time.Duration
}

// NewService creates a service. A nil provider always answers locally.
func NewService(provider interfaces.AIProvider, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{provider: provider, timeout: timeout}
}

// Chat answers message for patient. Provider failures never surface: the
// reply falls back to a canned answer.
func (s *Service) Chat(ctx context.Context, message string, patient *entities.PatientContext) ChatReply {
	message = strings.TrimSpace(message)

	if s.provider != nil {
		text, err := s.generate(ctx, interfaces.AIRequest{
			Prompt:      chatPrompt(message, patient),
			Temperature: 0.4,
			MaxTokens:   220,
		})
		if err == nil {
			metrics.AssistantRequests.WithLabelValues("chat", s.provider.Name()).Inc()
			return ChatReply{Reply: text, Provider: s.provider.Name()}
		}
		logging.Warn("Chat provider failed, using fallback", "provider", s.provider.Name(), "error", err)
	}

	text, tag := FallbackReply(message, patient)
	metrics.AssistantRequests.WithLabelValues("chat", ProviderFallback).Inc()
	return ChatReply{Reply: text, Provider: ProviderFallback, Tags: []string{tag}}
}

// ExtractMedications reads medication names from a prescription image.
// Any failure yields an empty list.
func (s *Service) ExtractMedications(ctx context.Context, imageBase64, mime string) []string {
	if s.provider == nil || strings.TrimSpace(imageBase64) == "" {
		metrics.AssistantRequests.WithLabelValues("ocr", ProviderFallback).Inc()
		return []string{}
	}

	text, err := s.generate(ctx, interfaces.AIRequest{
		Prompt:      ocrPrompt,
		ImageBase64: imageBase64,
		ImageMime:   mime,
		Temperature: 0.1,
		MaxTokens:   220,
	})
	if err != nil {
		logging.Warn("OCR provider failed", "provider", s.provider.Name(), "error", err)
		metrics.AssistantRequests.WithLabelValues("ocr", ProviderFallback).Inc()
		return []string{}
	}

	metrics.AssistantRequests.WithLabelValues("ocr", s.provider.Name()).Inc()
	return ParseMedicationList(text)
}

func (s *Service) generate(ctx context.Context, req interfaces.AIRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.Generate(ctx, req)
}

// ParseMedicationList turns a model answer into names. A JSON array is used
// when present, otherwise the text is split on commas and new lines with
// brackets and quotes stripped. Names of two characters or less are dropped.
func ParseMedicationList(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.Trim(text, "`\n\r\t ")

	var raw []string
	var decoded []any
	if err := json.Unmarshal([]byte(text), &decoded); err == nil {
		for _, v := range decoded {
			if s, ok := v.(string); ok {
				raw = append(raw, s)
			}
		}
	} else {
		raw = strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' || r == '،' })
	}

	names := []string{}
	for _, r := range raw {
		name := strings.TrimSpace(strings.Trim(strings.TrimSpace(r), "[]\"'`"))
		if utf8.RuneCountInString(name) <= 2 {
			continue
		}
		names = append(names, name)
		if len(names) == MaxExtractedNames {
			break
		}
	}
	return names
}
