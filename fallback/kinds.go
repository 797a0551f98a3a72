package fallback

// Kind categorizes a pipeline failure for handling and for the spoken
// fallback the caller hears.
type Kind string

const (
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindAudioUnclear      Kind = "AUDIO_UNCLEAR"
	KindContentNotFound   Kind = "CONTENT_NOT_FOUND"
	KindRetrievalFailure  Kind = "RETRIEVAL_FAILURE"
	KindGenerationFailure Kind = "GENERATION_FAILURE"
	KindSynthesisFailure  Kind = "SYNTHESIS_FAILURE"
	KindTimeout           Kind = "TIMEOUT"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindSystemError       Kind = "SYSTEM_ERROR"

	// KindBusy marks a duplicate concurrent request for a session already
	// being processed. It is absorbed by the webhook layer, never spoken.
	KindBusy Kind = "BUSY"
)

// Pipeline stages, recorded on errors for logging.
const (
	StageAdmit      = "admit"
	StageValidate   = "validate"
	StageTranscribe = "transcribe"
	StageCacheCheck = "cache_check"
	StageRetrieve   = "retrieve"
	StageGenerate   = "generate"
	StageSynthesize = "synthesize"
	StageDeliver    = "deliver"
)
