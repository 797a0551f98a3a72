package cache

import (
	"testing"
	"time"

	"github.com/SaiNageswarS/vidya-core/locale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerKey(t *testing.T) {
	t.Run("normalizes question text", func(t *testing.T) {
		a := AnswerKey("  What is Photosynthesis?  ", locale.English)
		b := AnswerKey("what is photosynthesis?", locale.English)
		assert.Equal(t, a, b)
	})

	t.Run("language separates keys", func(t *testing.T) {
		en := AnswerKey("what is photosynthesis?", locale.English)
		te := AnswerKey("what is photosynthesis?", locale.Telugu)
		assert.NotEqual(t, en, te)
	})

	t.Run("audio keyed by voice", func(t *testing.T) {
		a := AudioKey("some answer", locale.EnglishVoice)
		b := AudioKey("some answer", locale.TeluguVoice)
		assert.NotEqual(t, a, b)
	})
}

func TestStoreLookupOrder(t *testing.T) {
	s := NewStore(time.Hour, time.Hour)
	key := AnswerKey("what is the pH scale?", locale.English)

	t.Run("miss on cold cache", func(t *testing.T) {
		_, _, ok := s.GetAnswer(key)
		assert.False(t, ok)
	})

	t.Run("demo tier wins over answer tier", func(t *testing.T) {
		s.Put(TierAnswer, key, []byte("generated"), time.Hour)
		s.Put(TierDemo, key, []byte("seeded"), 0)

		text, tier, ok := s.GetAnswer(key)
		require.True(t, ok)
		assert.Equal(t, "seeded", text)
		assert.Equal(t, TierDemo, tier)
	})

	t.Run("audio tier is independent", func(t *testing.T) {
		audioKey := AudioKey("seeded", locale.EnglishVoice)
		_, ok := s.GetAudio(audioKey)
		assert.False(t, ok)

		s.PutAudio(audioKey, []byte{1, 2, 3})
		audio, ok := s.GetAudio(audioKey)
		require.True(t, ok)
		assert.Equal(t, []byte{1, 2, 3}, audio)
	})
}

func TestStoreReplaceOnWrite(t *testing.T) {
	s := NewStore(time.Hour, time.Hour)
	key := AnswerKey("explain ohm's law", locale.English)

	t.Run("same value twice is idempotent", func(t *testing.T) {
		s.PutAnswer(key, "current equals voltage over resistance")
		s.PutAnswer(key, "current equals voltage over resistance")
		text, _, ok := s.GetAnswer(key)
		require.True(t, ok)
		assert.Equal(t, "current equals voltage over resistance", text)
	})

	t.Run("new value fully replaces the old", func(t *testing.T) {
		s.PutAnswer(key, "a fresh answer")
		text, _, ok := s.GetAnswer(key)
		require.True(t, ok)
		assert.Equal(t, "a fresh answer", text)
	})
}

func TestStoreLazyExpiry(t *testing.T) {
	s := NewStore(time.Hour, time.Hour)
	current := time.Now()
	s.now = func() time.Time { return current }

	key := AnswerKey("what is refraction of light?", locale.English)
	s.PutAnswer(key, "bending of light")

	t.Run("entry lives within ttl", func(t *testing.T) {
		current = current.Add(30 * time.Minute)
		_, _, ok := s.GetAnswer(key)
		assert.True(t, ok)
	})

	t.Run("entry evicted on first read past expiry", func(t *testing.T) {
		current = current.Add(time.Hour)
		_, _, ok := s.GetAnswer(key)
		assert.False(t, ok)

		stats := s.Stats()
		assert.Zero(t, stats[TierAnswer].Entries)
	})

	t.Run("demo tier never expires", func(t *testing.T) {
		demoKey := AnswerKey("what is photosynthesis?", locale.English)
		s.Put(TierDemo, demoKey, []byte("plants convert light"), time.Minute)

		current = current.Add(24 * time.Hour)
		_, ok := s.Get(TierDemo, demoKey)
		assert.True(t, ok)
	})
}

func TestStoreStats(t *testing.T) {
	s := NewStore(time.Hour, time.Hour)
	key := AnswerKey("how do we breathe?", locale.English)

	s.GetAnswer(key) // probes demo and answer, both miss
	s.PutAnswer(key, "with our lungs")
	s.GetAnswer(key) // demo miss, answer hit

	stats := s.Stats()
	assert.Equal(t, int64(1), stats[TierAnswer].Hits)
	assert.Equal(t, int64(1), stats[TierAnswer].Misses)
	assert.Equal(t, int64(2), stats[TierDemo].Misses)
	assert.Equal(t, 1, stats[TierAnswer].Entries)
}

func TestSeedDemo(t *testing.T) {
	s := NewStore(time.Hour, time.Hour)
	n, err := s.SeedDemo()
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	text, tier, ok := s.GetAnswer(AnswerKey("What is photosynthesis?", locale.English))
	require.True(t, ok)
	assert.Equal(t, TierDemo, tier)
	assert.Contains(t, text, "Chlorophyll")
}
