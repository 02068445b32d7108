package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"localore/internal/domain/entity"
)

const classifyTimeout = 10 * time.Second

// GenreClassifier labels a keyword with one genre from the fixed taxonomy.
// It only runs on the analytics path, so every failure degrades to
// entity.GenreOther instead of propagating.
type GenreClassifier struct {
	client *genai.Client
	model  string
}

func NewGenreClassifier(client *genai.Client, model string) *GenreClassifier {
	return &GenreClassifier{client: client, model: model}
}

func (c *GenreClassifier) Classify(ctx context.Context, keyword string) string {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	// A tightly constrained prompt so the answer is a single taxonomy word.
	instruction := fmt.Sprintf(
		"Classify the keyword into exactly one of these genres: %s. "+
			"Respond ONLY with the genre word, lowercase, no punctuation.",
		strings.Join(entity.Genres, ", "))

	prompt := fmt.Sprintf("%s\n\nKeyword: %s", instruction, keyword)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return entity.GenreOther
	}

	genre := strings.TrimSpace(strings.ToLower(resp.Text()))
	if !entity.KnownGenre(genre) {
		return entity.GenreOther
	}
	return genre
}
