// Package pipeline runs one question through transcription, cache lookup,
// retrieval, generation, and synthesis under a total latency budget.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/vidya-core/cache"
	"github.com/SaiNageswarS/vidya-core/fallback"
	"github.com/SaiNageswarS/vidya-core/generator"
	"github.com/SaiNageswarS/vidya-core/locale"
	"github.com/SaiNageswarS/vidya-core/search"
	"github.com/SaiNageswarS/vidya-core/session"
	"github.com/SaiNageswarS/vidya-core/speech"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDeadline bounds one full run. Stage budgets are owned by the
// components themselves; this is the only deadline the orchestrator holds.
const DefaultDeadline = 12 * time.Second

// SpeechGateway covers both audio directions of one run.
type SpeechGateway interface {
	Transcribe(ctx context.Context, audio []byte, lang locale.Language) (speech.Transcript, error)
	Synthesize(ctx context.Context, text string, lang locale.Language) ([]byte, error)
}

// Retriever finds curriculum chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]search.ScoredChunk, error)
}

// Generator produces the spoken answer from question and chunks.
type Generator interface {
	Generate(ctx context.Context, req generator.GenerateRequest) (generator.Answer, error)
}

// Orchestrator drives the pipeline state machine, one run per session at a
// time. It forwards component error kinds as-is and composes no user-facing
// text of its own.
type Orchestrator struct {
	sessions  *session.Store
	answers   *cache.Store
	speech    SpeechGateway
	retriever Retriever
	generator Generator
	deadline  time.Duration
}

func NewOrchestrator(sessions *session.Store, answers *cache.Store, sp SpeechGateway, ret Retriever, gen Generator, deadline time.Duration) *Orchestrator {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Orchestrator{
		sessions:  sessions,
		answers:   answers,
		speech:    sp,
		retriever: ret,
		generator: gen,
		deadline:  deadline,
	}
}

// Run executes job under the session's pipeline lock. The returned error is
// non-nil only when nothing was processed: a lock already held
// (session.ErrBusy) or a missing session. Every processed request yields a
// Result; failed ones carry the utterance the caller should hear.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*Result, error) {
	res := &Result{
		RequestID: uuid.New().String(),
		SessionID: job.SessionID,
		State:     StateReceived,
	}

	start := time.Now()
	err := o.sessions.WithLock(job.SessionID, func(sess session.Session) error {
		o.process(ctx, job, sess, res)
		return nil
	})
	res.Timings.Total = time.Since(start)

	if err != nil {
		return nil, err
	}

	if res.Status != StatusFailed {
		// a session that ended mid-run drops its late timings with it
		_ = o.sessions.AddTimings(job.SessionID, res.Timings)
	}
	return res, nil
}

func (o *Orchestrator) process(ctx context.Context, job Job, sess session.Session, res *Result) {
	ctx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	lang := sess.Language
	if job.Language.Valid() {
		lang = job.Language
	}

	res.State = StateTranscribing
	stage := time.Now()

	var tr speech.Transcript
	switch {
	case job.Text != "":
		tr = speech.Transcript{Text: job.Text, Language: lang, Confidence: 1.0}
	case len(job.Audio) > 0:
		var err error
		tr, err = o.speech.Transcribe(ctx, job.Audio, lang)
		if err != nil {
			res.Timings.Transcribe = time.Since(stage)
			o.fail(ctx, res, lang, err)
			return
		}
	default:
		o.fail(ctx, res, lang, fallback.E(fallback.KindInvalidInput, fallback.StageValidate,
			errors.New("no question audio or text")))
		return
	}
	res.Timings.Transcribe = time.Since(stage)

	res.State = StateTranscribed
	res.Transcript = tr.Text
	res.TranscriptConfidence = tr.Confidence
	// An alternate-language transcript switches the rest of the run.
	lang = tr.Language

	res.State = StateCacheCheck
	stage = time.Now()
	answerKey := cache.AnswerKey(tr.Text, lang)
	cachedText, tier, hit := o.answers.GetAnswer(answerKey)
	res.Timings.CacheCheck = time.Since(stage)

	fallbackAnswer := false
	if hit {
		res.CacheTier = tier
		res.AnswerText = cachedText
		logger.Info("answer cache hit",
			zap.String("requestId", res.RequestID),
			zap.String("tier", string(tier)))
	} else {
		res.State = StateRetrieving
		stage = time.Now()
		chunks, err := o.retriever.Retrieve(ctx, tr.Text)
		res.Timings.Retrieve = time.Since(stage)
		if err != nil {
			o.fail(ctx, res, lang, err)
			return
		}
		res.ChunkRefs = search.Refs(chunks)

		res.State = StateGenerating
		stage = time.Now()
		ans, err := o.generator.Generate(ctx, generator.GenerateRequest{
			Question:    tr.Text,
			Chunks:      chunks,
			Language:    lang,
			DetailLevel: job.DetailLevel,
		})
		res.Timings.Generate = time.Since(stage)
		if err != nil {
			o.fail(ctx, res, lang, err)
			return
		}

		res.AnswerText = ans.Text
		res.SpokenSeconds = ans.SpokenSeconds
		if len(ans.Sources) > 0 {
			res.ChunkRefs = ans.Sources
		}
		fallbackAnswer = ans.Fallback

		// The answer is reusable even if synthesis fails below.
		if !ans.Fallback {
			o.answers.PutAnswer(answerKey, ans.Text)
		}
	}

	if res.SpokenSeconds == 0 && res.AnswerText != "" {
		res.SpokenSeconds = generator.SpokenSeconds(generator.CountWords(res.AnswerText))
	}

	res.State = StateSynthesizing
	stage = time.Now()
	audioKey := cache.AudioKey(res.AnswerText, lang.Voice())
	if audio, ok := o.answers.GetAudio(audioKey); ok {
		res.Audio = audio
		res.CacheTier = cache.TierAudio
	} else {
		audio, err := o.speech.Synthesize(ctx, res.AnswerText, lang)
		if err != nil {
			res.Timings.Synthesize = time.Since(stage)
			o.fail(ctx, res, lang, err)
			return
		}
		res.Audio = audio
		o.answers.PutAudio(audioKey, audio)
	}
	res.Timings.Synthesize = time.Since(stage)
	res.AudioRef = audioKey

	res.State = StateDelivered
	if fallbackAnswer {
		res.Status = StatusDeliveredWithFallback
		res.ErrorKind = fallback.KindContentNotFound
	} else {
		res.Status = StatusDelivered
	}

	// History records only delivered answers. A session that ended mid-run
	// is gone; its history goes with it.
	_ = o.sessions.AppendHistory(job.SessionID, tr.Text, res.AnswerText)

	logger.Info("question answered",
		zap.String("requestId", res.RequestID),
		zap.String("sessionId", res.SessionID),
		zap.String("status", string(res.Status)),
		zap.String("cacheTier", string(res.CacheTier)),
		zap.Float64("spokenSeconds", res.SpokenSeconds))
}

// fail finalizes res with the classifier's handling for err. Component kinds
// are forwarded untouched; only the run's own expired deadline overrides the
// kind to Timeout. The session ends only for kinds that terminate the call.
func (o *Orchestrator) fail(ctx context.Context, res *Result, lang locale.Language, err error) {
	kind := fallback.KindOf(err)
	if ctx.Err() != nil {
		kind = fallback.KindTimeout
	}

	res.State = StateFailed
	res.Status = StatusFailed
	res.ErrorKind = kind
	res.AnswerText = fallback.UserMessage(kind, lang)
	res.Audio = nil
	res.AudioRef = ""
	res.SpokenSeconds = 0

	if fallback.ClassifyKind(kind).TerminatesCall {
		_ = o.sessions.End(res.SessionID)
	} else {
		_ = o.sessions.Touch(res.SessionID)
	}

	logger.Error("pipeline run failed",
		zap.String("requestId", res.RequestID),
		zap.String("sessionId", res.SessionID),
		zap.String("kind", string(kind)),
		zap.Error(err))
}
