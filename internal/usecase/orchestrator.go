package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"localore/internal/domain/entity"
	"localore/internal/domain/repository"
	"localore/internal/metrics"
)

// TriviaService wires admission, the semantic cache, generation, and
// analytics recording into the one public operation of the API.
type TriviaService struct {
	limiter    repository.Admission
	generator  *Generator
	embedder   repository.Embedder
	cache      repository.TriviaCache
	stats      repository.KeywordStats
	classifier repository.GenreClassifier
	log        zerolog.Logger
	now        func() time.Time
}

func NewTriviaService(
	limiter repository.Admission,
	generator *Generator,
	embedder repository.Embedder,
	cache repository.TriviaCache,
	stats repository.KeywordStats,
	classifier repository.GenreClassifier,
	log zerolog.Logger,
) *TriviaService {
	return &TriviaService{
		limiter:    limiter,
		generator:  generator,
		embedder:   embedder,
		cache:      cache,
		stats:      stats,
		classifier: classifier,
		log:        log,
		now:        time.Now,
	}
}

// Execute handles one trivia request end to end. clientKey identifies the
// caller for admission, normally the remote IP.
func (s *TriviaService) Execute(ctx context.Context, req entity.GenerationRequest, clientKey string) (*entity.TriviaAnswer, error) {
	// 1. Admission. Every request spends admission budget, valid or not.
	if !s.limiter.Admit(clientKey) {
		metrics.GenerationsTotal.WithLabelValues("rate_limited").Inc()
		return nil, entity.ErrRateLimited
	}

	// 2. Keyword validation.
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		metrics.GenerationsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: keyword is empty", entity.ErrInvalidKeyword)
	}
	if entity.TextLength(keyword) > entity.MaxKeywordLen {
		metrics.GenerationsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: keyword exceeds %d characters", entity.ErrInvalidKeyword, entity.MaxKeywordLen)
	}

	if s.generator == nil {
		metrics.GenerationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", entity.ErrMissingConfig)
	}

	// 3. Semantic cache lookup. Lookup failures degrade to a miss.
	var vector []float32
	if s.embedder != nil && s.cache != nil {
		var err error
		vector, err = s.embedder.Embed(ctx, keyword)
		if err != nil {
			s.log.Warn().Err(err).Str("keyword", keyword).Msg("embedding failed, skipping cache")
			metrics.CacheLookups.WithLabelValues("error").Inc()
			vector = nil
		} else {
			cached, err := s.cache.Lookup(ctx, vector)
			switch {
			case err != nil:
				s.log.Warn().Err(err).Str("keyword", keyword).Msg("cache lookup failed")
				metrics.CacheLookups.WithLabelValues("error").Inc()
			case cached != nil:
				metrics.CacheLookups.WithLabelValues("hit").Inc()
				metrics.GenerationsTotal.WithLabelValues("cached").Inc()
				answer := &entity.TriviaAnswer{
					Text:      cached.Text,
					Keyword:   keyword,
					Model:     cached.Model,
					Cached:    true,
					CreatedAt: cached.CreatedAt,
				}
				s.recordAsync(keyword, nil, nil)
				return answer, nil
			default:
				metrics.CacheLookups.WithLabelValues("miss").Inc()
			}
		}
	}

	// 4. Generation across the model chain.
	out, err := s.generator.Generate(ctx, keyword)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	answer := &entity.TriviaAnswer{
		Text:        out.Text,
		Keyword:     keyword,
		Model:       out.Model,
		Corrections: out.Corrections,
		Fallback:    out.Fallback,
		CreatedAt:   s.now().UTC(),
	}
	if out.Fallback {
		metrics.GenerationsTotal.WithLabelValues("fallback").Inc()
	} else {
		metrics.GenerationsTotal.WithLabelValues("accepted").Inc()
	}

	// 5. Background analytics and cache write. The request context may be
	// gone by the time these run.
	s.recordAsync(keyword, answer, vector)

	return answer, nil
}

// recordAsync classifies and counts the keyword, and stores non-fallback
// answers in the semantic cache. answer and vector are nil on cache hits,
// which are counted but never re-saved.
func (s *TriviaService) recordAsync(keyword string, answer *entity.TriviaAnswer, vector []float32) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if s.stats != nil {
			genre := entity.GenreOther
			if s.classifier != nil {
				genre = s.classifier.Classify(ctx, keyword)
			}
			if err := s.stats.RecordKeyword(ctx, keyword, genre); err != nil {
				s.log.Warn().Err(err).Str("keyword", keyword).Msg("keyword recording failed")
			}
		}

		if s.cache != nil && vector != nil && answer != nil && !answer.Fallback {
			if err := s.cache.Save(ctx, keyword, answer, vector); err != nil {
				s.log.Warn().Err(err).Str("keyword", keyword).Msg("cache save failed")
			}
		}
	}()
}
