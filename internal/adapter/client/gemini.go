package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"localore/internal/domain/entity"
	"localore/internal/metrics"
)

const (
	generateTimeout   = 20 * time.Second
	answerTemperature = 0.8
)

// GeminiClient implements repository.TextGenerator against the Gemini API.
type GeminiClient struct {
	client            *genai.Client
	systemInstruction string
	log               zerolog.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, systemInstruction string, log zerolog.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return NewGeminiClientFromClient(client, systemInstruction, log), nil
}

func NewGeminiClientFromClient(c *genai.Client, systemInstruction string, log zerolog.Logger) *GeminiClient {
	return &GeminiClient{
		client:            c,
		systemInstruction: systemInstruction,
		log:               log,
	}
}

// Generate runs one model invocation for the given conversation. An unknown
// model name is reported as entity.FinishNotFound with a nil error so the
// caller can fall through the chain.
func (g *GeminiClient) Generate(ctx context.Context, model entity.ModelConfig, conversation []entity.Turn) (*entity.GenerationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(conversation))
	for _, turn := range conversation {
		contents = append(contents, &genai.Content{
			Role:  string(turn.Role),
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(answerTemperature)),
		MaxOutputTokens: model.MaxOutputTokens,
	}
	if g.systemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: g.systemInstruction}},
		}
	}
	if model.ThinkingBudget != nil {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: model.ThinkingBudget}
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model.Name, contents, cfg)
	metrics.ProviderDuration.WithLabelValues(model.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == 404 {
			g.log.Debug().Str("model", model.Name).Msg("model not found upstream")
			metrics.ProviderCalls.WithLabelValues(model.Name, string(entity.FinishNotFound)).Inc()
			return &entity.GenerationResult{Finish: entity.FinishNotFound}, nil
		}
		metrics.ProviderCalls.WithLabelValues(model.Name, "error").Inc()
		return nil, err
	}

	result := &entity.GenerationResult{
		Text:   extractText(resp),
		Finish: mapFinish(resp),
	}
	metrics.ProviderCalls.WithLabelValues(model.Name, string(result.Finish)).Inc()
	return result, nil
}

// extractText concatenates the visible text parts of the first candidate,
// trimming each part and the joined whole. Reasoning parts are never part of
// the answer.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(strings.TrimSpace(part.Text))
	}
	return strings.TrimSpace(sb.String())
}

// mapFinish translates the provider finish reason into the domain signal.
func mapFinish(resp *genai.GenerateContentResponse) entity.FinishSignal {
	if resp == nil || len(resp.Candidates) == 0 {
		return entity.FinishUnknown
	}
	switch resp.Candidates[0].FinishReason {
	case genai.FinishReasonStop:
		return entity.FinishComplete
	case genai.FinishReasonMaxTokens:
		return entity.FinishTruncated
	default:
		return entity.FinishUnknown
	}
}
