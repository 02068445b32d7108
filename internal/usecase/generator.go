package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"localore/internal/domain/entity"
	"localore/internal/domain/repository"
	"localore/internal/metrics"
)

// Outcome is one finished generation: either an in-range answer from a
// single model, or the longest usable candidate collected across the chain.
type Outcome struct {
	Text        string
	Model       string
	Corrections int
	Fallback    bool
}

// fallbackCandidate tracks the longest text seen so far across all models,
// used when no model produces an in-range answer.
type fallbackCandidate struct {
	text   string
	model  string
	length int
}

func (f *fallbackCandidate) track(text, model string) {
	if n := entity.TextLength(text); n > f.length {
		f.text = text
		f.model = model
		f.length = n
	}
}

// Generator walks an ordered model chain until one model yields an answer
// inside the accepted length range, correcting out-of-range answers up to
// entity.MaxCorrections times per model before falling through to the next.
type Generator struct {
	provider repository.TextGenerator
	prompts  *PromptBuilder
	models   []entity.ModelConfig
	log      zerolog.Logger
}

func NewGenerator(provider repository.TextGenerator, prompts *PromptBuilder, models []entity.ModelConfig, log zerolog.Logger) *Generator {
	return &Generator{
		provider: provider,
		prompts:  prompts,
		models:   models,
		log:      log,
	}
}

// Generate produces one trivia answer for keyword. It returns
// entity.ErrGenerationFailed when every model is exhausted and no candidate
// of at least entity.MinFallbackLen characters was seen.
func (g *Generator) Generate(ctx context.Context, keyword string) (*Outcome, error) {
	if len(g.models) == 0 {
		return nil, fmt.Errorf("%w: no models configured", entity.ErrMissingConfig)
	}

	var best fallbackCandidate
	totalCorrections := 0

	for _, mc := range g.models {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrGenerationFailed, ctx.Err())
		}

		text, corrections, ok := g.attempt(ctx, mc, keyword, &best)
		totalCorrections += corrections
		if ok {
			g.log.Info().
				Str("model", mc.Name).
				Int("corrections", corrections).
				Int("length", entity.TextLength(text)).
				Msg("generation accepted")
			return &Outcome{Text: text, Model: mc.Name, Corrections: corrections}, nil
		}
	}

	if best.length >= entity.MinFallbackLen {
		g.log.Warn().
			Str("model", best.model).
			Int("length", best.length).
			Int("corrections", totalCorrections).
			Msg("no model produced an in-range answer, serving longest candidate")
		return &Outcome{Text: best.text, Model: best.model, Corrections: totalCorrections, Fallback: true}, nil
	}

	return nil, fmt.Errorf("%w: %d models exhausted", entity.ErrGenerationFailed, len(g.models))
}

// attempt runs the initial prompt plus the correction loop against a single
// model. ok is true only when the final candidate is inside the accepted
// range; otherwise the caller moves on to the next model.
func (g *Generator) attempt(ctx context.Context, mc entity.ModelConfig, keyword string, best *fallbackCandidate) (string, int, bool) {
	conv := []entity.Turn{{Role: entity.RoleUser, Text: g.prompts.Initial(keyword)}}

	res, err := g.provider.Generate(ctx, mc, conv)
	if err != nil {
		g.log.Warn().Err(err).Str("model", mc.Name).Msg("provider call failed")
		return "", 0, false
	}
	if res.Text == "" {
		if res.Finish == entity.FinishNotFound {
			g.log.Debug().Str("model", mc.Name).Msg("model not available, skipping")
		} else {
			g.log.Warn().Str("model", mc.Name).Str("finish", string(res.Finish)).Msg("provider returned empty text")
		}
		return "", 0, false
	}
	if res.Finish == entity.FinishTruncated {
		best.track(res.Text, mc.Name)
		g.log.Warn().Str("model", mc.Name).Int("length", entity.TextLength(res.Text)).Msg("initial answer truncated, abandoning model")
		return "", 0, false
	}

	best.track(res.Text, mc.Name)
	candidate := res.Text
	corrections := 0

	for !entity.LengthInRange(candidate) && corrections < entity.MaxCorrections {
		conv = append(conv,
			entity.Turn{Role: entity.RoleModel, Text: candidate},
			entity.Turn{Role: entity.RoleUser, Text: g.prompts.Correction(entity.TextLength(candidate))},
		)
		corrections++
		metrics.CorrectionsTotal.Inc()

		retry, err := g.provider.Generate(ctx, mc, conv)
		if err != nil {
			g.log.Warn().Err(err).Str("model", mc.Name).Int("correction", corrections).Msg("correction call failed")
			break
		}
		if retry.Text == "" || retry.Finish == entity.FinishTruncated {
			g.log.Warn().
				Str("model", mc.Name).
				Str("finish", string(retry.Finish)).
				Int("correction", corrections).
				Msg("correction produced no usable answer")
			break
		}

		candidate = retry.Text
		best.track(candidate, mc.Name)
	}

	if entity.LengthInRange(candidate) {
		return candidate, corrections, true
	}

	g.log.Debug().
		Str("model", mc.Name).
		Int("corrections", corrections).
		Int("length", entity.TextLength(candidate)).
		Msg("model exhausted without in-range answer")
	return "", corrections, false
}
