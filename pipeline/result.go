package pipeline

import (
	"github.com/SaiNageswarS/vidya-core/cache"
	"github.com/SaiNageswarS/vidya-core/fallback"
	"github.com/SaiNageswarS/vidya-core/locale"
	"github.com/SaiNageswarS/vidya-core/prompts"
	"github.com/SaiNageswarS/vidya-core/search"
	"github.com/SaiNageswarS/vidya-core/session"
)

// State tracks a request through the answer pipeline.
type State string

const (
	StateReceived     State = "RECEIVED"
	StateTranscribing State = "TRANSCRIBING"
	StateTranscribed  State = "TRANSCRIBED"
	StateCacheCheck   State = "CACHE_CHECK"
	StateRetrieving   State = "RETRIEVING"
	StateGenerating   State = "GENERATING"
	StateSynthesizing State = "SYNTHESIZING"
	StateDelivered    State = "DELIVERED"
	StateFailed       State = "FAILED"
)

// Status is the terminal outcome of one request.
type Status string

const (
	StatusDelivered             Status = "DELIVERED"
	StatusDeliveredWithFallback Status = "DELIVERED_WITH_FALLBACK"
	StatusFailed                Status = "FAILED"
)

// Job is one question submitted for a session. Exactly one of Audio or Text
// carries the question.
type Job struct {
	SessionID   string
	Language    locale.Language // empty falls back to the session language
	DetailLevel prompts.DetailLevel
	Audio       []byte
	Text        string
}

// Result records one pipeline run end to end. AnswerText always holds what
// the caller hears, whether generated, cached, or a fallback utterance.
type Result struct {
	RequestID            string               `json:"requestId"`
	SessionID            string               `json:"sessionId"`
	State                State                `json:"state"`
	Status               Status               `json:"status"`
	Transcript           string               `json:"transcript,omitempty"`
	TranscriptConfidence float64              `json:"transcriptConfidence,omitempty"`
	ChunkRefs            []search.ChunkRef    `json:"chunkRefs,omitempty"`
	AnswerText           string               `json:"answerText,omitempty"`
	Audio                []byte               `json:"-"`
	AudioRef             string               `json:"audioRef,omitempty"`
	CacheTier            cache.Tier           `json:"cacheTier,omitempty"`
	SpokenSeconds        float64              `json:"spokenSeconds,omitempty"`
	ErrorKind            fallback.Kind        `json:"errorKind,omitempty"`
	Timings              session.StageTimings `json:"-"`
}
