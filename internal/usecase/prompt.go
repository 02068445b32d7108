package usecase

import (
	"fmt"

	"localore/internal/domain/entity"
)

// SystemInstruction is sent with every provider invocation, independent of
// the per-request conversation.
const SystemInstruction = "You are a trivia writer for a regional tourism service. " +
	"You answer with exactly one plain-text paragraph, no markup, no preamble, " +
	"and you follow character-length constraints precisely."

// PromptBuilder constructs the initial instruction and follow-up correction
// instructions for one fixed region. Methods are pure.
type PromptBuilder struct {
	region string
}

func NewPromptBuilder(region string) *PromptBuilder {
	return &PromptBuilder{region: region}
}

func (p *PromptBuilder) Region() string {
	return p.region
}

// Initial builds the first instruction of a generation conversation.
func (p *PromptBuilder) Initial(keyword string) string {
	return fmt.Sprintf(
		"Write exactly one plain-text paragraph of trivia that connects %q to the culture, geography, or history of %s. "+
			"The paragraph must be between %d and %d characters long, counting punctuation, "+
			"must end with a terminal punctuation mark, and must not contain line breaks, lists, or markup.",
		keyword, p.region, entity.MinAnswerLen, entity.MaxAnswerLen)
}

// Correction builds the follow-up instruction after an answer of
// observedLength characters fell outside the accepted range.
func (p *PromptBuilder) Correction(observedLength int) string {
	if observedLength < entity.MinAnswerLen {
		return fmt.Sprintf(
			"Your previous answer was %d characters, which is too short. "+
				"Rewrite it with one more concrete detail so it is at least %d characters but no more than %d, "+
				"and keep the terminal punctuation mark.",
			observedLength, entity.MinAnswerLen, entity.MaxAnswerLen)
	}
	return fmt.Sprintf(
		"Your previous answer was %d characters, which is too long. "+
			"Shorten it so it is at most %d characters but no fewer than %d, "+
			"and keep the terminal punctuation mark.",
		observedLength, entity.MaxAnswerLen, entity.MinAnswerLen)
}
