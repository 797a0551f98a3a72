package search

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/go-collection-boot/ds"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"github.com/SaiNageswarS/vidya-core/contentdb"
)

// search parameters.
const (
	rrfK               = 60  // “dampening” constant from the RRF paper
	textSearchWeight   = 1.0 // optional per-engine weights
	vectorSearchWeight = 1.0
	vecK               = 20 // # of hits to keep from each engine
	textK              = 20
)

// ScoredChunk is one retrieval result. Score is the cosine similarity of the
// chunk to the query, independent of the fused ranking.
type ScoredChunk struct {
	Chunk contentdb.ContentChunk
	Score float64
}

// ChunkRef is the lightweight reference recorded on pipeline results.
type ChunkRef struct {
	ChunkID string  `json:"chunkId"`
	Score   float64 `json:"score"`
}

// Index holds the snapshot chunks in memory with precomputed vector norms
// and term sets. Read-only after construction; safe for concurrent lookups.
type Index struct {
	chunks []contentdb.ContentChunk
	norms  []float64
	terms  []map[string]struct{}
	dim    int
}

func NewIndex(chunks []contentdb.ContentChunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("index needs at least one chunk")
	}

	ix := &Index{
		chunks: chunks,
		norms:  make([]float64, len(chunks)),
		terms:  make([]map[string]struct{}, len(chunks)),
		dim:    len(chunks[0].Embedding),
	}
	for i, c := range chunks {
		if len(c.Embedding) != ix.dim {
			return nil, fmt.Errorf("chunk %s: dimension %d, index uses %d", c.ChunkID, len(c.Embedding), ix.dim)
		}
		ix.norms[i] = norm(c.Embedding)

		set := make(map[string]struct{})
		for _, t := range tokenize(c.Body) {
			set[t] = struct{}{}
		}
		ix.terms[i] = set
	}
	return ix, nil
}

func (ix *Index) Size() int {
	return len(ix.chunks)
}

func (ix *Index) Dimensions() int {
	return ix.dim
}

// Lookup runs the vector and keyword engines in parallel, fuses their
// rankings with Reciprocal-Rank Fusion, and returns the topK chunks. Rank
// fusion orders candidates; the reported score stays cosine similarity so a
// relevance threshold remains meaningful.
func (ix *Index) Lookup(ctx context.Context, query string, queryVec []float32, topK int) ([]ScoredChunk, error) {
	if len(queryVec) != ix.dim {
		return nil, fmt.Errorf("query vector dimension %d, index uses %d", len(queryVec), ix.dim)
	}
	if topK <= 0 {
		return nil, nil
	}

	vecTask := async.Go(func() ([]rankedHit, error) {
		return ix.vectorSearch(queryVec, vecK), nil
	})
	textTask := async.Go(func() ([]rankedHit, error) {
		return ix.textSearch(query, textK), nil
	})

	engineHits, err := async.AwaitAll(vecTask, textTask)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// RRF: score(id) = Σ weight_e / (rrfK + rank_e(id))
	combined := make(map[int]float64)
	for rank, hit := range engineHits[0] {
		combined[hit.idx] = vectorSearchWeight / float64(rrfK+rank+1)
	}
	for rank, hit := range engineHits[1] {
		combined[hit.idx] += textSearchWeight / float64(rrfK+rank+1)
	}

	type pair struct {
		idx   int
		score float64
	}

	h := ds.NewMinHeap(func(a, b pair) bool { return a.score < b.score })
	for idx, sc := range combined {
		h.Push(pair{idx, sc})
		if h.Len() > topK {
			h.Pop()
		}
	}

	ordered := linq.Map(h.ToSortedSlice(), func(p pair) int { return p.idx })
	slices.Reverse(ordered) // highest fused score first

	out := make([]ScoredChunk, 0, len(ordered))
	for _, idx := range ordered {
		out = append(out, ScoredChunk{
			Chunk: ix.chunks[idx],
			Score: ix.cosine(idx, queryVec),
		})
	}
	return out, nil
}

type rankedHit struct {
	idx   int
	score float64
}

// vectorSearch scores every chunk by cosine similarity and keeps the top k.
func (ix *Index) vectorSearch(queryVec []float32, k int) []rankedHit {
	h := ds.NewMinHeap(func(a, b rankedHit) bool { return a.score < b.score })
	for i := range ix.chunks {
		h.Push(rankedHit{i, ix.cosine(i, queryVec)})
		if h.Len() > k {
			h.Pop()
		}
	}

	hits := h.ToSortedSlice()
	slices.Reverse(hits) // best first
	return hits
}

// textSearch scores chunks by the share of query terms they contain.
func (ix *Index) textSearch(query string, k int) []rankedHit {
	queryTerms := ds.NewSet[string]()
	for _, t := range tokenize(query) {
		queryTerms.Add(t)
	}
	if queryTerms.Len() == 0 {
		return nil
	}
	qs := queryTerms.ToSlice()

	h := ds.NewMinHeap(func(a, b rankedHit) bool { return a.score < b.score })
	for i, terms := range ix.terms {
		matched := 0
		for _, t := range qs {
			if _, ok := terms[t]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		h.Push(rankedHit{i, float64(matched) / float64(queryTerms.Len())})
		if h.Len() > k {
			h.Pop()
		}
	}

	hits := h.ToSortedSlice()
	slices.Reverse(hits)
	return hits
}

func (ix *Index) cosine(idx int, queryVec []float32) float64 {
	n := ix.norms[idx] * norm(queryVec)
	if n == 0 {
		return 0
	}

	dot := 0.0
	emb := ix.chunks[idx].Embedding
	for i, v := range emb {
		dot += float64(v) * float64(queryVec[i])
	}
	return dot / n
}

func norm(vec []float32) float64 {
	sum := 0.0
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// tokenize lowercases and splits on non-letter/number runes, dropping
// single-rune fragments.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		out = append(out, f)
	}
	return out
}
