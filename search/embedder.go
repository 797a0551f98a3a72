package search

import (
	"context"
	"time"

	"github.com/ollama/ollama/api"
)

const EmbeddingModel = "nomic-embed-text"
const EmbeddingDimensions = 768 // Dimension of the embedding vector

// Embedder turns question text into the vector the index is queried with.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OllamaEmbedder embeds through a local ollama instance.
type OllamaEmbedder struct {
	cli *api.Client
}

func NewOllamaEmbedder(cli *api.Client) *OllamaEmbedder {
	return &OllamaEmbedder{cli: cli}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &api.EmbeddingRequest{
		Model:     EmbeddingModel,
		Prompt:    text,
		KeepAlive: &api.Duration{Duration: 60 * time.Minute}, // keep connection alive for reuse
	}
	resp, err := e.cli.Embeddings(ctx, req) // blocking, non-streaming
	if err != nil {
		return nil, err
	}

	emb64 := resp.Embedding // []float64
	emb32 := make([]float32, len(emb64))
	for i, v := range emb64 {
		emb32[i] = float32(v)
	}
	return emb32, nil
}
