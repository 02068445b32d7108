package entity

import (
	"time"
	"unicode/utf8"
)

// Length contract for generated trivia. Lengths are measured in characters
// (runes), punctuation included.
const (
	MinAnswerLen = 70
	MaxAnswerLen = 100

	// MinFallbackLen is the shortest candidate worth returning when no model
	// produced an in-range answer.
	MinFallbackLen = 10

	// MaxCorrections bounds the length-correction retries per model.
	MaxCorrections = 3

	// MaxKeywordLen bounds the user-supplied keyword, post-trim.
	MaxKeywordLen = 30
)

// GenerationRequest is one incoming trivia request.
type GenerationRequest struct {
	Keyword string `json:"keyword"`
}

// TriviaAnswer is the outcome of one generation request.
type TriviaAnswer struct {
	Text        string    `json:"trivia"`
	Keyword     string    `json:"keyword"`
	Model       string    `json:"model"`
	Corrections int       `json:"retries"`
	Fallback    bool      `json:"fallback,omitempty"` // accepted outside [70,100], best effort
	Cached      bool      `json:"cached,omitempty"`   // served from the semantic cache
	CreatedAt   time.Time `json:"createdAt"`
}

// Role identifies who produced a conversation turn. The values match the
// provider's wire roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message in the correction conversation sent to the provider.
type Turn struct {
	Role Role
	Text string
}

// FinishSignal is the provider-reported completion status of one invocation.
type FinishSignal string

const (
	FinishComplete  FinishSignal = "complete"
	FinishTruncated FinishSignal = "truncated"
	FinishNotFound  FinishSignal = "not_found"
	FinishUnknown   FinishSignal = "unknown"
)

// GenerationResult is what one provider invocation yielded. Text is empty
// when the response carried no usable text segment.
type GenerationResult struct {
	Text   string
	Finish FinishSignal
}

// TextLength counts characters the way the length contract does.
func TextLength(s string) int {
	return utf8.RuneCountInString(s)
}

// LengthInRange reports whether s satisfies the answer length contract.
func LengthInRange(s string) bool {
	n := TextLength(s)
	return n >= MinAnswerLen && n <= MaxAnswerLen
}
