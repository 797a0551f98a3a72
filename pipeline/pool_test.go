package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/SaiNageswarS/vidya-core/fallback"
	"github.com/SaiNageswarS/vidya-core/locale"
	"github.com/SaiNageswarS/vidya-core/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSubmit(t *testing.T) {
	t.Run("runs an admitted job to completion", func(t *testing.T) {
		env := newTestEnv(t)
		pool := NewPool(env.orch, 2)

		res, err := pool.Submit(context.Background(), audioJob("caller-1"))

		require.NoError(t, err)
		assert.Equal(t, StatusDelivered, res.Status)
		assert.Equal(t, 0, pool.InFlight())
	})

	t.Run("rejects beyond capacity without queueing", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.sessions.Create("caller-2", locale.English)
		require.NoError(t, err)
		_, err = env.sessions.Create("caller-3", locale.English)
		require.NoError(t, err)

		pool := NewPool(env.orch, 2)

		started := make(chan struct{}, 2)
		release := make(chan struct{})
		env.speech.transcribeFn = func(audio []byte, lang locale.Language) (speech.Transcript, error) {
			started <- struct{}{}
			<-release
			return speech.Transcript{Text: "what is photosynthesis", Language: lang, Confidence: 0.9}, nil
		}

		var wg sync.WaitGroup
		results := make([]*Result, 2)
		for i, id := range []string{"caller-1", "caller-2"} {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				results[i], _ = pool.Submit(context.Background(), audioJob(id))
			}(i, id)
		}

		<-started
		<-started
		assert.Equal(t, 2, pool.InFlight())

		_, err = pool.Submit(context.Background(), audioJob("caller-3"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPoolFull)
		assert.Equal(t, fallback.KindRateLimited, fallback.KindOf(err))

		close(release)
		wg.Wait()

		for _, res := range results {
			require.NotNil(t, res)
			assert.Equal(t, StatusDelivered, res.Status)
		}
		assert.Equal(t, 0, pool.InFlight())
	})

	t.Run("zero capacity falls back to the default", func(t *testing.T) {
		env := newTestEnv(t)
		pool := NewPool(env.orch, 0)

		assert.Equal(t, MaxConcurrentCalls, cap(pool.slots))
	})
}
