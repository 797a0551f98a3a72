package cache

import (
	"encoding/hex"
	"strings"

	"github.com/SaiNageswarS/vidya-core/locale"
	"golang.org/x/crypto/blake2s"
)

// AnswerKey builds the lookup key for a question under a language. The
// question is normalized (trimmed, lowercased) so spoken variants of the same
// question collapse to one entry.
func AnswerKey(question string, lang locale.Language) string {
	return string(lang) + "-" + hash(Normalize(question))
}

// AudioKey builds the lookup key for synthesized audio of text under a voice
// profile. Keyed independently of the answer tiers.
func AudioKey(text, voice string) string {
	return voice + "-" + hash(text)
}

// Normalize collapses a transcript to its canonical cache form.
func Normalize(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

func hash(s string) string {
	h, _ := blake2s.New256(nil)
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))[:10]
}
