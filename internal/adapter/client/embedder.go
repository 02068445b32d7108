package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// EmbeddingDimensions is the output size of the embedding model, and the
// vector size the cache collection is created with.
const EmbeddingDimensions = 768

const embeddingModel = "text-embedding-004"

// Embedder turns keywords into vectors for semantic cache lookups.
type Embedder struct {
	client *genai.Client
	model  string
}

func NewEmbedder(c *genai.Client) *Embedder {
	return &Embedder{
		client: c,
		model:  embeddingModel,
	}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding response for %q carried no vectors", text)
	}
	return res.Embeddings[0].Values, nil
}
