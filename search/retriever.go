package search

import (
	"context"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/vidya-core/fallback"
	"github.com/SaiNageswarS/vidya-core/retrypolicy"
	"go.uber.org/zap"
)

// DefaultRetrieveTimeout bounds one embed-plus-lookup round trip.
const DefaultRetrieveTimeout = 1500 * time.Millisecond

// Retriever wraps the embedding call and index lookup behind the retrieval
// contract: topK results above a relevance threshold, empty when nothing
// clears it.
type Retriever struct {
	embedder      Embedder
	index         *Index
	topK          int
	minSimilarity float64
	timeout       time.Duration
	policy        retrypolicy.Policy
}

func NewRetriever(embedder Embedder, index *Index, topK int, minSimilarity float64, timeout time.Duration) *Retriever {
	return &Retriever{
		embedder:      embedder,
		index:         index,
		topK:          topK,
		minSimilarity: minSimilarity,
		timeout:       timeout,
		policy:        retrypolicy.ContentRetrieval(),
	}
}

// Retrieve returns the topK chunks relevant to the question. An empty slice
// is a normal outcome, distinct from a transport failure, which raises
// RetrievalFailure.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]ScoredChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var queryVec []float32
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		vec, err := r.embedder.Embed(ctx, question)
		if err != nil {
			return retrypolicy.Transient(err)
		}
		queryVec = vec
		return nil
	})
	if err != nil {
		logger.Error("question embedding failed", zap.Error(err))
		return nil, fallback.E(fallback.KindRetrievalFailure, fallback.StageRetrieve, err)
	}

	hits, err := r.index.Lookup(ctx, question, queryVec, r.topK)
	if err != nil {
		logger.Error("index lookup failed", zap.Error(err))
		return nil, fallback.E(fallback.KindRetrievalFailure, fallback.StageRetrieve, err)
	}

	relevant := hits[:0]
	for _, h := range hits {
		if h.Score >= r.minSimilarity {
			relevant = append(relevant, h)
		}
	}

	logger.Info("retrieval complete",
		zap.Int("candidates", len(hits)),
		zap.Int("relevant", len(relevant)))
	return relevant, nil
}

// Refs projects results to the lightweight form recorded on pipeline results.
func Refs(hits []ScoredChunk) []ChunkRef {
	refs := make([]ChunkRef, len(hits))
	for i, h := range hits {
		refs[i] = ChunkRef{ChunkID: h.Chunk.ChunkID, Score: h.Score}
	}
	return refs
}
