package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SaiNageswarS/vidya-core/cache"
	"github.com/SaiNageswarS/vidya-core/contentdb"
	"github.com/SaiNageswarS/vidya-core/fallback"
	"github.com/SaiNageswarS/vidya-core/generator"
	"github.com/SaiNageswarS/vidya-core/locale"
	"github.com/SaiNageswarS/vidya-core/prompts"
	"github.com/SaiNageswarS/vidya-core/search"
	"github.com/SaiNageswarS/vidya-core/session"
	"github.com/SaiNageswarS/vidya-core/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpeech struct {
	mu           sync.Mutex
	transcribeFn func(audio []byte, lang locale.Language) (speech.Transcript, error)
	synthesizeFn func(text string, lang locale.Language) ([]byte, error)
	transcribed  int
	spoken       []string
	spokenLangs  []locale.Language
}

func (f *fakeSpeech) Transcribe(ctx context.Context, audio []byte, lang locale.Language) (speech.Transcript, error) {
	f.mu.Lock()
	f.transcribed++
	f.mu.Unlock()
	if f.transcribeFn != nil {
		return f.transcribeFn(audio, lang)
	}
	return speech.Transcript{Text: "what is photosynthesis", Language: lang, Confidence: 0.9}, nil
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text string, lang locale.Language) ([]byte, error) {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.spokenLangs = append(f.spokenLangs, lang)
	f.mu.Unlock()
	if f.synthesizeFn != nil {
		return f.synthesizeFn(text, lang)
	}
	return []byte("pcm:" + text), nil
}

type fakeRetriever struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, question string) ([]search.ScoredChunk, error)
	calls int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, question string) ([]search.ScoredChunk, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, question)
	}
	return defaultChunks(), nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	fn    func(req generator.GenerateRequest) (generator.Answer, error)
	calls int
	last  generator.GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req generator.GenerateRequest) (generator.Answer, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(req)
	}
	return generator.Answer{
		Text:          "Plants make food using sunlight.",
		SpokenSeconds: 2.0,
		Sources:       search.Refs(req.Chunks),
	}, nil
}

func defaultChunks() []search.ScoredChunk {
	return []search.ScoredChunk{{
		Chunk: contentdb.ContentChunk{
			ChunkID: "bio-photo-001",
			Chapter: "Life Processes",
			Section: "Photosynthesis",
			Body:    "Plants prepare their own food.",
		},
		Score: 0.9,
	}}
}

type testEnv struct {
	sessions *session.Store
	cache    *cache.Store
	speech   *fakeSpeech
	ret      *fakeRetriever
	gen      *fakeGenerator
	orch     *Orchestrator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		sessions: session.NewStore(10, 10*time.Minute),
		cache:    cache.NewStore(time.Hour, time.Hour),
		speech:   &fakeSpeech{},
		ret:      &fakeRetriever{},
		gen:      &fakeGenerator{},
	}
	t.Cleanup(env.sessions.Close)

	env.orch = NewOrchestrator(env.sessions, env.cache, env.speech, env.ret, env.gen, DefaultDeadline)
	_, err := env.sessions.Create("caller-1", locale.English)
	require.NoError(t, err)
	return env
}

func audioJob(sessionID string) Job {
	return Job{
		SessionID:   sessionID,
		DetailLevel: prompts.DetailShort,
		Audio:       []byte{0x01, 0x02, 0x03, 0x04},
	}
}

func TestRun(t *testing.T) {
	t.Run("delivers a generated answer end to end", func(t *testing.T) {
		env := newTestEnv(t)

		res, err := env.orch.Run(context.Background(), audioJob("caller-1"))

		require.NoError(t, err)
		assert.Equal(t, StateDelivered, res.State)
		assert.Equal(t, StatusDelivered, res.Status)
		assert.Equal(t, "what is photosynthesis", res.Transcript)
		assert.InDelta(t, 0.9, res.TranscriptConfidence, 1e-9)
		assert.Equal(t, "Plants make food using sunlight.", res.AnswerText)
		assert.Equal(t, []byte("pcm:Plants make food using sunlight."), res.Audio)
		assert.InDelta(t, 2.0, res.SpokenSeconds, 1e-9)
		assert.Empty(t, res.ErrorKind)
		require.Len(t, res.ChunkRefs, 1)
		assert.Equal(t, "bio-photo-001", res.ChunkRefs[0].ChunkID)
		assert.Greater(t, res.Timings.Total, time.Duration(0))

		answer, tier, ok := env.cache.GetAnswer(cache.AnswerKey("what is photosynthesis", locale.English))
		require.True(t, ok, "answer should be cached")
		assert.Equal(t, cache.TierAnswer, tier)
		assert.Equal(t, "Plants make food using sunlight.", answer)

		audioKey := cache.AudioKey("Plants make food using sunlight.", locale.EnglishVoice)
		assert.Equal(t, audioKey, res.AudioRef)
		audio, ok := env.cache.GetAudio(audioKey)
		require.True(t, ok, "audio should be cached")
		assert.Equal(t, res.Audio, audio)

		sess, err := env.sessions.Get("caller-1")
		require.NoError(t, err)
		require.Len(t, sess.History, 1)
		assert.Equal(t, "what is photosynthesis", sess.History[0].Question)
		assert.Equal(t, "Plants make food using sunlight.", sess.History[0].Answer)
		assert.Greater(t, sess.Timings.Total, time.Duration(0))
	})

	t.Run("text question skips the transcription provider", func(t *testing.T) {
		env := newTestEnv(t)

		job := Job{SessionID: "caller-1", Text: "what is an atom", DetailLevel: prompts.DetailShort}
		res, err := env.orch.Run(context.Background(), job)

		require.NoError(t, err)
		assert.Equal(t, 0, env.speech.transcribed)
		assert.Equal(t, "what is an atom", res.Transcript)
		assert.InDelta(t, 1.0, res.TranscriptConfidence, 1e-9)
		assert.Equal(t, StatusDelivered, res.Status)
	})

	t.Run("missing audio and text fails validation", func(t *testing.T) {
		env := newTestEnv(t)

		res, err := env.orch.Run(context.Background(), Job{SessionID: "caller-1"})

		require.NoError(t, err)
		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, fallback.KindInvalidInput, res.ErrorKind)
		assert.Equal(t, 0, env.speech.transcribed)
	})

	t.Run("cached answer skips retrieval and generation", func(t *testing.T) {
		env := newTestEnv(t)
		env.cache.PutAnswer(cache.AnswerKey("what is photosynthesis", locale.English), "Cached answer text.")

		res, err := env.orch.Run(context.Background(), audioJob("caller-1"))

		require.NoError(t, err)
		assert.Equal(t, StatusDelivered, res.Status)
		assert.Equal(t, cache.TierAnswer, res.CacheTier)
		assert.Equal(t, "Cached answer text.", res.AnswerText)
		assert.InDelta(t, 1.2, res.SpokenSeconds, 1e-9)
		assert.Equal(t, 0, env.ret.calls)
		assert.Equal(t, 0, env.gen.calls)
		assert.Equal(t, []string{"Cached answer text."}, env.speech.spoken)

		sess, err := env.sessions.Get("caller-1")
		require.NoError(t, err)
		require.Len(t, sess.History, 1)
	})

	t.Run("demo tier answers are reported as demo", func(t *testing.T) {
		env := newTestEnv(t)
		env.cache.Put(cache.TierDemo, cache.AnswerKey("what is photosynthesis", locale.English),
			[]byte("Demo answer."), 0)

		res, err := env.orch.Run(context.Background(), audioJob("caller-1"))

		require.NoError(t, err)
		assert.Equal(t, cache.TierDemo, res.CacheTier)
		assert.Equal(t, "Demo answer.", res.AnswerText)
	})

	t.Run("repeat question hits the audio tier and skips synthesis", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.orch.Run(context.Background(), audioJob("caller-1"))
		require.NoError(t, err)

		second, err := env.orch.Run(context.Background(), audioJob("caller-1"))
		require.NoError(t, err)

		assert.Equal(t, cache.TierAudio, second.CacheTier)
		assert.Equal(t, first.Audio, second.Audio)
		assert.Len(t, env.speech.spoken, 1, "synthesis should run only once")
		assert.Equal(t, StatusDelivered, second.Status)
	})

	t.Run("empty retrieval delivers the fallback utterance", func(t *testing.T) {
		env := newTestEnv(t)
		env.ret.fn = func(ctx context.Context, question string) ([]search.ScoredChunk, error) {
			return nil, nil
		}
		env.gen.fn = func(req generator.GenerateRequest) (generator.Answer, error) {
			require.Empty(t, req.Chunks)
			text := fallback.UserMessage(fallback.KindContentNotFound, req.Language)
			return generator.Answer{Text: text, SpokenSeconds: 8.0, Fallback: true}, nil
		}

		res, err := env.orch.Run(context.Background(), audioJob("caller-1"))

		require.NoError(t, err)
		assert.Equal(t, StatusDeliveredWithFallback, res.Status)
		assert.Equal(t, StateDelivered, res.State)
		assert.Equal(t, fallback.KindContentNotFound, res.ErrorKind)
		assert.Equal(t, fallback.UserMessage(fallback.KindContentNotFound, locale.English), res.AnswerText)
		assert.Len(t, env.speech.spoken, 1, "the fallback utterance is synthesized normally")

		_, _, ok := env.cache.GetAnswer(cache.AnswerKey("what is photosynthesis", locale.English))
		assert.False(t, ok, "fallback answers must not be cached")

		sess, err := env.sessions.Get("caller-1")
		require.NoError(t, err)
		require.Len(t, sess.History, 1, "fallback answers still count as delivered")
	})

	t.Run("stage failure carries the component kind", func(t *testing.T) {
		env := newTestEnv(t)
		env.ret.fn = func(ctx context.Context, question string) ([]search.ScoredChunk, error) {
			return nil, fallback.E(fallback.KindRetrievalFailure, fallback.StageRetrieve, errors.New("embedder down"))
		}

		res, err := env.orch.Run(context.Background(), audioJob("caller-1"))

		require.NoError(t, err)
		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, StateFailed, res.State)
		assert.Equal(t, fallback.KindRetrievalFailure, res.ErrorKind)
		assert.Equal(t, fallback.UserMessage(fallback.KindRetrievalFailure, locale.English), res.AnswerText)
		assert.Nil(t, res.Audio)
		assert.Equal(t, 0, env.gen.calls)

		sess, err := env.sessions.Get("caller-1")
		require.NoError(t, err, "session stays open after a recoverable failure")
		assert.Empty(t, sess.History)
	})

	t.Run("system error ends the session", func(t *testing.T) {
		env := newTestEnv(t)
		env.gen.fn = func(req generator.GenerateRequest) (generator.Answer, error) {
			return generator.Answer{}, fallback.E(fallback.KindSystemError, fallback.StageGenerate, errors.New("index corrupted"))
		}

		res, err := env.orch.Run(context.Background(), audioJob("caller-1"))

		require.NoError(t, err)
		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, fallback.KindSystemError, res.ErrorKind)
		assert.Equal(t, fallback.UserMessage(fallback.KindSystemError, locale.English), res.AnswerText)

		_, err = env.sessions.Get("caller-1")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("expired total deadline maps to timeout", func(t *testing.T) {
		env := newTestEnv(t)
		env.orch = NewOrchestrator(env.sessions, env.cache, env.speech, env.ret, env.gen, 30*time.Millisecond)
		env.ret.fn = func(ctx context.Context, question string) ([]search.ScoredChunk, error) {
			<-ctx.Done()
			return nil, fallback.E(fallback.KindRetrievalFailure, fallback.StageRetrieve, ctx.Err())
		}

		res, err := env.orch.Run(context.Background(), audioJob("caller-1"))

		require.NoError(t, err)
		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, fallback.KindTimeout, res.ErrorKind)
		assert.Equal(t, fallback.UserMessage(fallback.KindTimeout, locale.English), res.AnswerText)

		_, err = env.sessions.Get("caller-1")
		assert.NoError(t, err, "a timed-out session stays eligible for a fresh attempt")
	})

	t.Run("concurrent duplicate for one session is absorbed", func(t *testing.T) {
		env := newTestEnv(t)
		started := make(chan struct{})
		release := make(chan struct{})
		env.speech.transcribeFn = func(audio []byte, lang locale.Language) (speech.Transcript, error) {
			close(started)
			<-release
			return speech.Transcript{Text: "what is photosynthesis", Language: lang, Confidence: 0.9}, nil
		}

		var wg sync.WaitGroup
		var first *Result
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, _ = env.orch.Run(context.Background(), audioJob("caller-1"))
		}()

		<-started
		res, err := env.orch.Run(context.Background(), audioJob("caller-1"))
		assert.ErrorIs(t, err, session.ErrBusy)
		assert.Nil(t, res)

		close(release)
		wg.Wait()
		require.NotNil(t, first)
		assert.Equal(t, StatusDelivered, first.Status)
	})

	t.Run("unknown session is rejected without processing", func(t *testing.T) {
		env := newTestEnv(t)

		res, err := env.orch.Run(context.Background(), audioJob("ghost"))

		assert.ErrorIs(t, err, session.ErrNotFound)
		assert.Nil(t, res)
		assert.Equal(t, 0, env.speech.transcribed)
	})

	t.Run("alternate language transcript drives the rest of the run", func(t *testing.T) {
		env := newTestEnv(t)
		env.speech.transcribeFn = func(audio []byte, lang locale.Language) (speech.Transcript, error) {
			return speech.Transcript{Text: "కాంతి అంటే ఏమిటి", Language: locale.Telugu, Confidence: 0.8}, nil
		}

		res, err := env.orch.Run(context.Background(), audioJob("caller-1"))

		require.NoError(t, err)
		assert.Equal(t, StatusDelivered, res.Status)
		assert.Equal(t, locale.Telugu, env.gen.last.Language)
		assert.Equal(t, []locale.Language{locale.Telugu}, env.speech.spokenLangs)

		_, _, ok := env.cache.GetAnswer(cache.AnswerKey("కాంతి అంటే ఏమిటి", locale.Telugu))
		assert.True(t, ok, "answer should be cached under the detected language")
	})

	t.Run("synthesis failure keeps the cached answer", func(t *testing.T) {
		env := newTestEnv(t)
		env.speech.synthesizeFn = func(text string, lang locale.Language) ([]byte, error) {
			return nil, fallback.E(fallback.KindSynthesisFailure, fallback.StageSynthesize, errors.New("tts down"))
		}

		res, err := env.orch.Run(context.Background(), audioJob("caller-1"))

		require.NoError(t, err)
		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, fallback.KindSynthesisFailure, res.ErrorKind)

		_, tier, ok := env.cache.GetAnswer(cache.AnswerKey("what is photosynthesis", locale.English))
		require.True(t, ok, "the answer is cached before synthesis is attempted")
		assert.Equal(t, cache.TierAnswer, tier)

		_, ok = env.cache.GetAudio(cache.AudioKey("Plants make food using sunlight.", locale.EnglishVoice))
		assert.False(t, ok, "failed synthesis caches no audio")
	})
}
