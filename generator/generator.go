// Package generator turns a transcribed question and its retrieved chunks
// into a spoken-ready answer.
package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/vidya-core/fallback"
	"github.com/SaiNageswarS/vidya-core/llm"
	"github.com/SaiNageswarS/vidya-core/locale"
	"github.com/SaiNageswarS/vidya-core/prompts"
	"github.com/SaiNageswarS/vidya-core/retrypolicy"
	"github.com/SaiNageswarS/vidya-core/search"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds one chat completion round-trip.
	DefaultTimeout = 5 * time.Second

	answerTemperature = 0.7
	answerMaxTokens   = 300
)

// GenerateRequest carries one question through answer generation.
type GenerateRequest struct {
	Question    string
	Chunks      []search.ScoredChunk
	Language    locale.Language
	DetailLevel prompts.DetailLevel
}

// Answer is the spoken-ready result of generation.
type Answer struct {
	Text          string            // plain sentences, safe to hand to TTS
	SpokenSeconds float64           // estimated read-aloud duration
	Sources       []search.ChunkRef // chunks the answer was grounded on
	Fallback      bool              // Text came from the fallback catalog, not the model
}

// Generator drives the LLM with the tutor persona over retrieved curriculum
// content.
type Generator struct {
	client  llm.LLMClient
	timeout time.Duration
	policy  retrypolicy.Policy
}

func NewGenerator(client llm.LLMClient, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	policy := retrypolicy.APICalls()
	policy.MaxAttempts = 2 // one retry inside the live-call latency budget
	return &Generator{client: client, timeout: timeout, policy: policy}
}

// Generate produces the spoken answer for req. Empty retrieval yields the
// catalog's content-not-found utterance without a model call; the model is
// never asked to answer outside the curriculum context.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (Answer, error) {
	if len(req.Chunks) == 0 {
		logger.Info("no relevant content, answering from fallback catalog",
			zap.String("language", string(req.Language)))
		text := fallback.UserMessage(fallback.KindContentNotFound, req.Language)
		return Answer{
			Text:          text,
			SpokenSeconds: SpokenSeconds(CountWords(text)),
			Fallback:      true,
		}, nil
	}

	contextText, used := BuildContext(req.Chunks)

	systemPrompt, err := prompts.RenderSystemPrompt(req.Language, req.DetailLevel)
	if err != nil {
		return Answer{}, fallback.E(fallback.KindGenerationFailure, fallback.StageGenerate, err)
	}
	userPrompt, err := prompts.RenderUserPrompt(req.Question, contextText)
	if err != nil {
		return Answer{}, fallback.E(fallback.KindGenerationFailure, fallback.StageGenerate, err)
	}

	messages := []llm.Message{{Role: "user", Content: userPrompt}}

	var raw string
	err = g.policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		var sb strings.Builder
		inferErr := g.client.GenerateInference(callCtx, messages,
			func(chunk string) error {
				sb.WriteString(chunk)
				return nil
			},
			llm.WithSystemPrompt(systemPrompt),
			llm.WithTemperature(answerTemperature),
			llm.WithMaxTokens(answerMaxTokens),
		)
		if inferErr != nil {
			return retrypolicy.Transient(inferErr)
		}
		if strings.TrimSpace(sb.String()) == "" {
			return retrypolicy.Transient(errors.New("model returned empty output"))
		}
		raw = sb.String()
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return Answer{}, fallback.E(fallback.KindTimeout, fallback.StageGenerate, err)
		}
		return Answer{}, fallback.E(fallback.KindGenerationFailure, fallback.StageGenerate, err)
	}

	text := SpeechText(raw)
	if text == "" {
		return Answer{}, fallback.E(fallback.KindGenerationFailure, fallback.StageGenerate,
			errors.New("model output reduced to empty speech text"))
	}

	words := CountWords(text)
	logger.Info("answer generated",
		zap.String("model", g.client.GetModel()),
		zap.Int("words", words),
		zap.Float64("spokenSeconds", SpokenSeconds(words)),
		zap.Int("sources", len(used)))

	return Answer{
		Text:          text,
		SpokenSeconds: SpokenSeconds(words),
		Sources:       search.Refs(used),
	}, nil
}
