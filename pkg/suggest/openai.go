package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/sashabaranov/go-openai"

	"github.com/edunigo/sprout/pkg/reconcile"
	"github.com/edunigo/sprout/pkg/tracing"
)

// OpenAIConfig holds the chat completion settings.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// MaxCandidates caps how many candidates one request may return.
	MaxCandidates int
}

// OpenAISuggester generates candidates via chat completions.
type OpenAISuggester struct {
	client *openai.Client
	logger ectologger.Logger
	config OpenAIConfig
}

// NewOpenAISuggester creates a suggester backed by the OpenAI API (or any
// compatible endpoint via BaseURL).
func NewOpenAISuggester(cfg OpenAIConfig, logger ectologger.Logger) *OpenAISuggester {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 50
	}
	return &OpenAISuggester{
		client: openai.NewClientWithConfig(config),
		logger: logger,
		config: cfg,
	}
}

const systemPrompt = `You are a data extraction assistant for an education catalog.
Return ONLY a JSON object of the form {"candidates": [{"name": "...", "dependency_refs": {...}, "attributes": {...}}]}.
Names must be official names. dependency_refs keys depend on the entity kind:
campus candidates may reference "city"; course candidates must reference "education_level" and "major".
Do not invent entities you are not confident exist.`

// Suggest asks the model for candidates and parses its JSON reply. The reply
// is advisory: candidates carry the request's scope keys and no ids.
func (s *OpenAISuggester) Suggest(ctx context.Context, req Request) ([]reconcile.Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, "suggest.OpenAISuggester.Suggest")
	defer span.End()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: s.userPrompt(req)},
		},
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to get suggestions")
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	candidates, err := s.parse(resp.Choices[0].Message.Content, req)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to parse suggestions")
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"kind":  req.Kind,
		"count": len(candidates),
	}).Info("Generated suggestions")
	return candidates, nil
}

func (s *OpenAISuggester) userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entity kind: %s\n", req.Kind)
	for key, value := range req.Context {
		fmt.Fprintf(&b, "%s: %s\n", key, value)
	}
	if req.Prompt != "" {
		fmt.Fprintf(&b, "Instruction: %s\n", req.Prompt)
	}
	fmt.Fprintf(&b, "Return at most %d candidates.", s.config.MaxCandidates)
	return b.String()
}

type suggestionPayload struct {
	Candidates []struct {
		Name           string            `json:"name"`
		DependencyRefs map[string]string `json:"dependency_refs"`
		Attributes     map[string]any    `json:"attributes"`
	} `json:"candidates"`
}

func (s *OpenAISuggester) parse(content string, req Request) ([]reconcile.Candidate, error) {
	var payload suggestionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("malformed suggestion payload: %w", err)
	}

	candidates := make([]reconcile.Candidate, 0, len(payload.Candidates))
	for _, c := range payload.Candidates {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		if len(candidates) == s.config.MaxCandidates {
			break
		}
		candidates = append(candidates, reconcile.Candidate{
			Name:           c.Name,
			ScopeKeys:      req.ScopeKeys,
			DependencyRefs: c.DependencyRefs,
			Attributes:     c.Attributes,
		})
	}
	return candidates, nil
}
