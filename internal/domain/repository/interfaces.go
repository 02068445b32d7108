package repository

import (
	"context"

	"localore/internal/domain/entity"
)

// TextGenerator runs one provider invocation for one model configuration.
// A nil error with an empty Text means the provider answered but produced no
// usable text (see entity.FinishSignal for why).
type TextGenerator interface {
	Generate(ctx context.Context, model entity.ModelConfig, conversation []entity.Turn) (*entity.GenerationResult, error)
}

// Admission decides synchronously whether a client may proceed. Rejected
// attempts are not recorded against the window.
type Admission interface {
	Admit(key string) bool
}

// KeywordStats aggregates which keywords were requested, when, and in what
// genre. Recording is best effort and must never gate a response.
type KeywordStats interface {
	RecordKeyword(ctx context.Context, keyword, genre string) error
	RankKeywords(ctx context.Context, period string, limit int, genre string) ([]entity.KeywordCount, error)
	DailyCounts(ctx context.Context, days int) ([]entity.DailyCount, error)
	ListGenres(ctx context.Context) ([]string, error)
}

// GenreClassifier maps a keyword to one genre from the fixed taxonomy.
// Implementations degrade to entity.GenreOther instead of failing.
type GenreClassifier interface {
	Classify(ctx context.Context, keyword string) string
}

// Embedder turns text into a vector for semantic cache lookups.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TriviaCache stores accepted answers keyed by keyword embedding. Lookup
// returns (nil, nil) on a miss.
type TriviaCache interface {
	Lookup(ctx context.Context, vector []float32) (*entity.CachedAnswer, error)
	Save(ctx context.Context, keyword string, answer *entity.TriviaAnswer, vector []float32) error
}

// SessionStore issues and validates opaque admin session tokens.
type SessionStore interface {
	Create(ctx context.Context) (string, error)
	Validate(ctx context.Context, token string) (bool, error)
	Destroy(ctx context.Context, token string) error
}
