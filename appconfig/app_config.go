package appconfig

import (
	"fmt"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
)

// AppConfig carries every tunable the service reads at boot. Fields left
// unset in config.ini take the defaults applied by Validate.
type AppConfig struct {
	config.BootConfig `ini:",extends"`

	HTTPPort     string `env:"HTTP-PORT" ini:"http_port"`
	SnapshotPath string `env:"SNAPSHOT-PATH" ini:"snapshot_path"`

	LLMProvider string `ini:"llm_provider"`
	LLMModel    string `ini:"llm_model"`

	STTProvider string `ini:"stt_provider"`
	SpeechWSURL string `env:"SPEECH-WS-URL" ini:"speech_ws_url"`

	RetrievalTopK          int     `ini:"retrieval_top_k"`
	RetrievalMinSimilarity float64 `ini:"retrieval_min_similarity"`

	AnswerCacheTTLSeconds int `ini:"answer_cache_ttl_seconds"`
	AudioCacheTTLSeconds  int `ini:"audio_cache_ttl_seconds"`

	SessionIdleSeconds  int `ini:"session_idle_seconds"`
	SessionHistoryLimit int `ini:"session_history_limit"`

	MaxConcurrentCalls int `ini:"max_concurrent_calls"`
	PipelineDeadlineMs int `ini:"pipeline_deadline_ms"`
}

var defaultModels = map[string]string{
	"gemini":    "gemini-2.5-flash-lite",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-haiku-20241022",
}

// Validate fills unset fields with service defaults and rejects values the
// boot sequence cannot honor.
func (c *AppConfig) Validate() error {
	if c.HTTPPort == "" {
		c.HTTPPort = ":8081"
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = "data/content.db"
	}
	if c.RetrievalTopK <= 0 {
		c.RetrievalTopK = 3
	}
	if c.RetrievalMinSimilarity <= 0 {
		c.RetrievalMinSimilarity = 0.1
	}
	if c.AnswerCacheTTLSeconds <= 0 {
		c.AnswerCacheTTLSeconds = 3600
	}
	if c.AudioCacheTTLSeconds <= 0 {
		c.AudioCacheTTLSeconds = 3600
	}
	if c.SessionIdleSeconds <= 0 {
		c.SessionIdleSeconds = 600
	}
	if c.SessionHistoryLimit <= 0 {
		c.SessionHistoryLimit = 10
	}
	if c.MaxConcurrentCalls <= 0 {
		c.MaxConcurrentCalls = 5
	}
	if c.PipelineDeadlineMs <= 0 {
		c.PipelineDeadlineMs = 12000
	}

	if c.LLMProvider == "" {
		c.LLMProvider = "gemini"
	}
	switch c.LLMProvider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm_provider %q", c.LLMProvider)
	}
	if c.LLMModel == "" {
		c.LLMModel = defaultModels[c.LLMProvider]
	}

	if c.STTProvider == "" {
		c.STTProvider = "google"
	}
	switch c.STTProvider {
	case "google", "stream":
	default:
		return fmt.Errorf("unknown stt_provider %q", c.STTProvider)
	}
	if c.STTProvider == "stream" && c.SpeechWSURL == "" {
		return fmt.Errorf("stt_provider %q needs speech_ws_url", c.STTProvider)
	}
	return nil
}

func (c *AppConfig) AnswerCacheTTL() time.Duration {
	return time.Duration(c.AnswerCacheTTLSeconds) * time.Second
}

func (c *AppConfig) AudioCacheTTL() time.Duration {
	return time.Duration(c.AudioCacheTTLSeconds) * time.Second
}

func (c *AppConfig) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleSeconds) * time.Second
}

func (c *AppConfig) PipelineDeadline() time.Duration {
	return time.Duration(c.PipelineDeadlineMs) * time.Millisecond
}
