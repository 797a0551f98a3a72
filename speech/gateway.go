// Package speech couples the STT and TTS providers with the validation,
// retry, and language-fallback rules of the call pipeline.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/vidya-core/fallback"
	"github.com/SaiNageswarS/vidya-core/locale"
	"github.com/SaiNageswarS/vidya-core/retrypolicy"
	"github.com/SaiNageswarS/vidya-core/speech/stt"
	"github.com/SaiNageswarS/vidya-core/speech/tts"
	"go.uber.org/zap"
)

const (
	// MaxAudioBytes caps a recording at 15s of 16kHz 16-bit mono LINEAR16.
	MaxAudioBytes = 480000

	// MaxSynthesisChars caps the text sent to TTS in one call.
	MaxSynthesisChars = 1500

	// MinConfidence is the transcript confidence below which a recognition
	// attempt is treated as failed.
	MinConfidence = 0.6

	SampleRate   = 16000
	SpeakingRate = 0.9

	DefaultSTTTimeout = 3 * time.Second
	DefaultTTSTimeout = 3 * time.Second
)

// Transcript is a trusted transcription, confidence at or above MinConfidence.
type Transcript struct {
	Text       string
	Language   locale.Language
	Confidence float64
}

// Gateway runs recognition and synthesis with the pipeline's audio rules.
type Gateway struct {
	stt        stt.Provider
	tts        tts.Provider
	policy     retrypolicy.Policy
	sttTimeout time.Duration
	ttsTimeout time.Duration
}

func NewGateway(sttProvider stt.Provider, ttsProvider tts.Provider, sttTimeout, ttsTimeout time.Duration) *Gateway {
	return &Gateway{
		stt:        sttProvider,
		tts:        ttsProvider,
		policy:     retrypolicy.AudioProcessing(),
		sttTimeout: sttTimeout,
		ttsTimeout: ttsTimeout,
	}
}

// Transcribe converts a recording to text. A transcript below MinConfidence
// is retried, then attempted exactly once in the alternate language before
// the whole operation is reported as AudioUnclear.
func (g *Gateway) Transcribe(ctx context.Context, audio []byte, lang locale.Language) (Transcript, error) {
	if len(audio) == 0 {
		return Transcript{}, fallback.E(fallback.KindInvalidInput, fallback.StageTranscribe, errors.New("empty recording"))
	}
	if len(audio) > MaxAudioBytes {
		return Transcript{}, fallback.E(fallback.KindInvalidInput, fallback.StageTranscribe,
			fmt.Errorf("recording is %d bytes, limit %d", len(audio), MaxAudioBytes))
	}

	tr, err := g.transcribeOnce(ctx, audio, lang)
	if err == nil {
		return tr, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Transcript{}, fallback.E(fallback.KindTimeout, fallback.StageTranscribe, ctxErr)
	}

	alt := lang.Alternate()
	logger.Info("transcription unclear, trying alternate language",
		zap.String("from", string(lang)), zap.String("to", string(alt)))

	tr, altErr := g.transcribeOnce(ctx, audio, alt)
	if altErr == nil {
		return tr, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Transcript{}, fallback.E(fallback.KindTimeout, fallback.StageTranscribe, ctxErr)
	}

	return Transcript{}, fallback.E(fallback.KindAudioUnclear, fallback.StageTranscribe, err)
}

func (g *Gateway) transcribeOnce(ctx context.Context, audio []byte, lang locale.Language) (Transcript, error) {
	var out Transcript
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, g.sttTimeout)
		defer cancel()

		res, err := g.stt.Transcribe(callCtx, audio, stt.TranscribeOptions{
			Language:   string(lang),
			SampleRate: SampleRate,
		})
		if err != nil {
			return retrypolicy.Transient(err)
		}

		text := strings.TrimSpace(res.Text)
		if text == "" || res.Confidence < MinConfidence {
			return retrypolicy.Transient(fmt.Errorf("transcript confidence %.2f below %.2f", res.Confidence, MinConfidence))
		}

		out = Transcript{Text: text, Language: lang, Confidence: res.Confidence}
		return nil
	})
	return out, err
}

// Synthesize renders text as LINEAR16 audio in the language's voice. Text
// over MaxSynthesisChars is truncated, never rejected. The voice is resolved
// once up front; retries reuse it.
func (g *Gateway) Synthesize(ctx context.Context, text string, lang locale.Language) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fallback.E(fallback.KindInvalidInput, fallback.StageSynthesize, errors.New("empty synthesis text"))
	}
	if truncated := TruncateForSpeech(text, MaxSynthesisChars); truncated != text {
		logger.Info("synthesis text truncated",
			zap.Int("from", len(text)), zap.Int("to", len(truncated)))
		text = truncated
	}

	voice := lang.Voice()

	var audio []byte
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, g.ttsTimeout)
		defer cancel()

		res, err := g.tts.Synthesize(callCtx, text, tts.SynthesizeOptions{
			Voice:        voice,
			Language:     string(lang),
			SpeakingRate: SpeakingRate,
			SampleRate:   SampleRate,
		})
		if err != nil {
			return retrypolicy.Transient(err)
		}
		audio = res.Audio
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fallback.E(fallback.KindTimeout, fallback.StageSynthesize, ctxErr)
		}
		return nil, fallback.E(fallback.KindSynthesisFailure, fallback.StageSynthesize, err)
	}
	return audio, nil
}

// TruncateForSpeech shortens text to at most max bytes, preferring to cut
// after the last full sentence and falling back to the last word boundary.
func TruncateForSpeech(text string, max int) string {
	if len(text) <= max {
		return text
	}

	// back up to a rune boundary before slicing
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	cut := text[:max]

	if idx := strings.LastIndexAny(cut, ".!?"); idx > 0 {
		return strings.TrimSpace(cut[:idx+1])
	}
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		return strings.TrimSpace(cut[:idx])
	}
	return cut
}
