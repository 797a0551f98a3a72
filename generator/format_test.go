package generator

import (
	"strings"
	"testing"

	"github.com/SaiNageswarS/vidya-core/contentdb"
	"github.com/SaiNageswarS/vidya-core/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(id, chapter, section, body string, score float64) search.ScoredChunk {
	return search.ScoredChunk{
		Chunk: contentdb.ContentChunk{
			ChunkID: id,
			Subject: "Science",
			Chapter: chapter,
			Section: section,
			Body:    body,
		},
		Score: score,
	}
}

func repeatWords(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestBuildContext(t *testing.T) {
	t.Run("formats content with sources", func(t *testing.T) {
		chunks := []search.ScoredChunk{
			scored("bio-photo-001", "Life Processes", "Photosynthesis",
				"Plants prepare their own food by photosynthesis.", 0.9),
			scored("bio-resp-002", "Life Processes", "Respiration",
				"Respiration releases energy from glucose in every cell.", 0.6),
		}

		text, used := BuildContext(chunks)

		require.Len(t, used, 2)
		assert.Contains(t, text, "=== RELEVANT NCERT CONTENT ===")
		assert.Contains(t, text, "[From Photosynthesis]\nPlants prepare their own food by photosynthesis.")
		assert.Contains(t, text, "[From Respiration]")
		assert.Contains(t, text, "=== SOURCES ===")
		assert.Contains(t, text, "1. Life Processes - Photosynthesis (Confidence: 0.90)")
		assert.Contains(t, text, "2. Life Processes - Respiration (Confidence: 0.60)")
		assert.Contains(t, text, "Total content words: 15")
		assert.Contains(t, text, "Overall confidence: 0.75")
		assert.Contains(t, text, "Number of sources: 2")
	})

	t.Run("stops at the first chunk that would overflow the budget", func(t *testing.T) {
		chunks := []search.ScoredChunk{
			scored("a", "Ch", "One", repeatWords(700), 0.9),
			scored("b", "Ch", "Two", repeatWords(200), 0.8),
			scored("c", "Ch", "Three", repeatWords(20), 0.7),
		}

		text, used := BuildContext(chunks)

		// Chunk b overflows and accumulation stops; c is not considered
		// even though it would fit.
		require.Len(t, used, 1)
		assert.Equal(t, "a", used[0].Chunk.ChunkID)
		assert.Contains(t, text, "Number of sources: 1")
		assert.NotContains(t, text, "[From Three]")
	})

	t.Run("first chunk is taken even when oversized", func(t *testing.T) {
		chunks := []search.ScoredChunk{
			scored("a", "Ch", "One", repeatWords(900), 0.9),
		}

		text, used := BuildContext(chunks)

		require.Len(t, used, 1)
		assert.Contains(t, text, "Total content words: 900")
	})

	t.Run("cites at most three sources", func(t *testing.T) {
		chunks := []search.ScoredChunk{
			scored("a", "Ch", "One", repeatWords(10), 0.9),
			scored("b", "Ch", "Two", repeatWords(10), 0.8),
			scored("c", "Ch", "Three", repeatWords(10), 0.7),
			scored("d", "Ch", "Four", repeatWords(10), 0.6),
		}

		text, used := BuildContext(chunks)

		require.Len(t, used, 3)
		assert.Contains(t, text, "Number of sources: 3")
		assert.NotContains(t, text, "[From Four]")
	})

	t.Run("empty input yields the no-content banner", func(t *testing.T) {
		text, used := BuildContext(nil)

		assert.Empty(t, used)
		assert.Equal(t, "No relevant content found in NCERT curriculum for this question.", text)
	})
}

func TestSpeechText(t *testing.T) {
	t.Run("strips headings and bullets", func(t *testing.T) {
		md := "## Photosynthesis\n\n- Plants make **food** using sunlight.\n- Oxygen is released.\n\nThis happens in the leaves."

		got := SpeechText(md)

		assert.Equal(t, "Plants make food using sunlight. Oxygen is released. This happens in the leaves.", got)
	})

	t.Run("drops code fences", func(t *testing.T) {
		md := "Here is the formula.\n\n```\nE = mc^2\n```\n\nUse it carefully."

		assert.Equal(t, "Here is the formula. Use it carefully.", SpeechText(md))
	})

	t.Run("keeps inline code text", func(t *testing.T) {
		assert.Equal(t, "The symbol H2O means water.", SpeechText("The symbol `H2O` means water."))
	})

	t.Run("joins wrapped lines with a space", func(t *testing.T) {
		assert.Equal(t, "Light travels in straight lines.", SpeechText("Light travels\nin straight lines."))
	})

	t.Run("collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "One sentence. Two sentences.", SpeechText("One   sentence.\n\n\nTwo sentences."))
	})

	t.Run("plain text passes through", func(t *testing.T) {
		assert.Equal(t, "Water boils at hundred degrees.", SpeechText("Water boils at hundred degrees."))
		assert.Equal(t, "కాంతి ఒక శక్తి రూపం.", SpeechText("కాంతి ఒక శక్తి రూపం."))
	})
}

func TestSpokenSeconds(t *testing.T) {
	assert.Equal(t, 3, CountWords("Plants make food."))
	assert.Equal(t, 2, CountWords("  spaced   out  "))
	assert.Equal(t, 0, CountWords(""))

	assert.InDelta(t, 50.0, SpokenSeconds(125), 1e-9)
	assert.InDelta(t, 0.0, SpokenSeconds(0), 1e-9)
}
