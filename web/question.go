package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/vidya-core/fallback"
	"github.com/SaiNageswarS/vidya-core/locale"
	"github.com/SaiNageswarS/vidya-core/pipeline"
	"github.com/SaiNageswarS/vidya-core/prompts"
	"github.com/SaiNageswarS/vidya-core/session"
	"github.com/SaiNageswarS/vidya-core/speech"
)

type questionRequest struct {
	SessionID    string `json:"sessionId"`
	Language     string `json:"language"`
	DetailLevel  string `json:"detailLevel"`
	AudioBase64  string `json:"audioBase64,omitempty"`
	AudioURL     string `json:"audioUrl,omitempty"`
	QuestionText string `json:"questionText,omitempty"`
}

type stageTimingsJSON struct {
	TranscribeMs int64 `json:"transcribeMs"`
	CacheCheckMs int64 `json:"cacheCheckMs"`
	RetrieveMs   int64 `json:"retrieveMs"`
	GenerateMs   int64 `json:"generateMs"`
	SynthesizeMs int64 `json:"synthesizeMs"`
	TotalMs      int64 `json:"totalMs"`
}

type questionResponse struct {
	RequestID     string           `json:"requestId"`
	Status        pipeline.Status  `json:"status"`
	AnswerText    string           `json:"answerText"`
	AudioRef      string           `json:"audioRef,omitempty"`
	AudioBase64   string           `json:"audioBase64,omitempty"`
	ErrorKind     fallback.Kind    `json:"errorKind,omitempty"`
	Timings       stageTimingsJSON `json:"timings"`
	SpokenSeconds float64          `json:"spokenSeconds"`
}

// QuestionHandler runs one question through the pipeline. The webhook must
// carry exactly one input form: inline audio, a recording URL, or text.
type QuestionHandler struct {
	Pool       *pipeline.Pool
	Sessions   *session.Store
	HTTPClient *http.Client
}

func (h QuestionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fallback.KindInvalidInput, "malformed request body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, fallback.KindInvalidInput, "sessionId is required")
		return
	}

	inputs := 0
	for _, v := range []string{req.AudioBase64, req.AudioURL, req.QuestionText} {
		if strings.TrimSpace(v) != "" {
			inputs++
		}
	}
	if inputs != 1 {
		writeError(w, http.StatusBadRequest, fallback.KindInvalidInput,
			"exactly one of audioBase64, audioUrl, questionText is required")
		return
	}

	job := pipeline.Job{
		SessionID:   req.SessionID,
		DetailLevel: prompts.ParseDetailLevel(req.DetailLevel),
	}
	if req.Language != "" {
		job.Language = locale.Normalize(req.Language)
	}

	switch {
	case strings.TrimSpace(req.QuestionText) != "":
		job.Text = strings.TrimSpace(req.QuestionText)
	case req.AudioBase64 != "":
		audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fallback.KindInvalidInput, "audioBase64 is not valid base64")
			return
		}
		job.Audio = audio
	default:
		audio, err := h.fetchAudio(r.Context(), req.AudioURL)
		if err != nil {
			writeError(w, http.StatusBadRequest, fallback.KindInvalidInput,
				fmt.Sprintf("audio fetch failed: %v", err))
			return
		}
		job.Audio = audio
	}

	// Telephony layers retry webhooks; a question for an unseen session
	// starts one rather than failing.
	h.Sessions.GetOrCreate(req.SessionID, locale.Normalize(req.Language))

	res, err := h.Pool.Submit(r.Context(), job)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrBusy):
			writeError(w, http.StatusConflict, fallback.KindBusy, "a request for this session is already in flight")
		case errors.Is(err, pipeline.ErrPoolFull):
			w.Header().Set("Retry-After", "2")
			writeError(w, http.StatusTooManyRequests, fallback.KindRateLimited,
				fallback.UserMessage(fallback.KindRateLimited, locale.Normalize(req.Language)))
		case errors.Is(err, session.ErrNotFound):
			writeError(w, http.StatusBadRequest, fallback.KindInvalidInput, "unknown session")
		default:
			writeError(w, http.StatusInternalServerError, fallback.KindSystemError, "pipeline unavailable")
		}
		return
	}

	status := http.StatusOK
	if res.Status == pipeline.StatusFailed && res.ErrorKind == fallback.KindInvalidInput {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, toQuestionResponse(res))
}

func (h QuestionHandler) fetchAudio(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, audioFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recording server returned status %d", resp.StatusCode)
	}

	// Read one byte past the audio limit so the gateway rejects oversize
	// recordings instead of silently truncating them.
	return io.ReadAll(io.LimitReader(resp.Body, speech.MaxAudioBytes+1))
}

func toQuestionResponse(res *pipeline.Result) questionResponse {
	out := questionResponse{
		RequestID:     res.RequestID,
		Status:        res.Status,
		AnswerText:    res.AnswerText,
		AudioRef:      res.AudioRef,
		ErrorKind:     res.ErrorKind,
		SpokenSeconds: res.SpokenSeconds,
		Timings: stageTimingsJSON{
			TranscribeMs: res.Timings.Transcribe.Milliseconds(),
			CacheCheckMs: res.Timings.CacheCheck.Milliseconds(),
			RetrieveMs:   res.Timings.Retrieve.Milliseconds(),
			GenerateMs:   res.Timings.Generate.Milliseconds(),
			SynthesizeMs: res.Timings.Synthesize.Milliseconds(),
			TotalMs:      res.Timings.Total.Milliseconds(),
		},
	}
	if len(res.Audio) > 0 {
		out.AudioBase64 = base64.StdEncoding.EncodeToString(res.Audio)
	}
	return out
}
