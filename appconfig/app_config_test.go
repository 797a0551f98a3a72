package appconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg := &AppConfig{}
		require.NoError(t, cfg.Validate())

		assert.Equal(t, ":8081", cfg.HTTPPort)
		assert.Equal(t, "gemini", cfg.LLMProvider)
		assert.Equal(t, "gemini-2.5-flash-lite", cfg.LLMModel)
		assert.Equal(t, "google", cfg.STTProvider)
		assert.Equal(t, 3, cfg.RetrievalTopK)
		assert.Equal(t, 5, cfg.MaxConcurrentCalls)
		assert.Equal(t, time.Hour, cfg.AnswerCacheTTL())
		assert.Equal(t, 10*time.Minute, cfg.SessionIdleTimeout())
		assert.Equal(t, 12*time.Second, cfg.PipelineDeadline())
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg := &AppConfig{LLMProvider: "openai", LLMModel: "gpt-4.1", MaxConcurrentCalls: 2}
		require.NoError(t, cfg.Validate())

		assert.Equal(t, "gpt-4.1", cfg.LLMModel)
		assert.Equal(t, 2, cfg.MaxConcurrentCalls)
	})

	t.Run("model default follows the provider", func(t *testing.T) {
		cfg := &AppConfig{LLMProvider: "anthropic"}
		require.NoError(t, cfg.Validate())

		assert.Equal(t, "claude-3-5-haiku-20241022", cfg.LLMModel)
	})

	t.Run("rejects unknown providers", func(t *testing.T) {
		assert.Error(t, (&AppConfig{LLMProvider: "llama-farm"}).Validate())
		assert.Error(t, (&AppConfig{STTProvider: "whisper"}).Validate())
	})

	t.Run("streaming stt needs an endpoint", func(t *testing.T) {
		assert.Error(t, (&AppConfig{STTProvider: "stream"}).Validate())
		assert.NoError(t, (&AppConfig{STTProvider: "stream", SpeechWSURL: "ws://localhost:9090/stt"}).Validate())
	})
}
