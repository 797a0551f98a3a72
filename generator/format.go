package generator

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/vidya-core/search"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	// MaxContextWords bounds the curriculum text handed to the model.
	// Chunks are taken whole; the first chunk is always taken even when it
	// alone exceeds the budget.
	MaxContextWords = 800

	// MaxSources caps how many chunks one answer may cite.
	MaxSources = 3

	// wordsPerSecond is the assumed conversational TTS pace.
	wordsPerSecond = 2.5
)

// BuildContext formats retrieved chunks into the model's context block.
// Chunks arrive in descending score order; accumulation stops at the first
// chunk that would overflow MaxContextWords. Returns the block and the
// chunks actually used.
func BuildContext(chunks []search.ScoredChunk) (string, []search.ScoredChunk) {
	if len(chunks) == 0 {
		return "No relevant content found in NCERT curriculum for this question.", nil
	}

	var bodies []string
	var used []search.ScoredChunk
	totalWords := 0
	for _, c := range chunks {
		if len(used) == MaxSources {
			break
		}
		w := CountWords(c.Chunk.Body)
		if totalWords+w > MaxContextWords && len(used) > 0 {
			break
		}
		bodies = append(bodies, fmt.Sprintf("[From %s]\n%s", c.Chunk.Section, c.Chunk.Body))
		used = append(used, c)
		totalWords += w
	}

	confidence := 0.0
	for _, c := range used {
		confidence += c.Score
	}
	confidence /= float64(len(used))

	parts := []string{
		"=== RELEVANT NCERT CONTENT ===",
		strings.Join(bodies, "\n\n"),
		"\n=== SOURCES ===",
	}
	for i, c := range used {
		parts = append(parts, fmt.Sprintf("%d. %s - %s (Confidence: %.2f)", i+1, c.Chunk.Chapter, c.Chunk.Section, c.Score))
	}
	parts = append(parts,
		"\n=== CONTEXT INFO ===",
		fmt.Sprintf("Total content words: %d", totalWords),
		fmt.Sprintf("Overall confidence: %.2f", confidence),
		fmt.Sprintf("Number of sources: %d", len(used)),
	)
	return strings.Join(parts, "\n"), used
}

// SpeechText flattens model markdown into plain spoken sentences. Heading
// lines and code blocks are dropped, list markers and emphasis reduce to
// their text, and whitespace collapses to single spaces.
func SpeechText(md string) string {
	src := []byte(md)
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading, *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		default:
			if n.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(buf.String()), " ")
}

// CountWords counts whitespace-separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// SpokenSeconds estimates how long a TTS voice takes to read words of text.
func SpokenSeconds(words int) float64 {
	return float64(words) / wordsPerSecond
}
