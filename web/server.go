// Package web exposes the question pipeline to the telephony layer over
// JSON webhooks.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/vidya-core/cache"
	"github.com/SaiNageswarS/vidya-core/fallback"
	"github.com/SaiNageswarS/vidya-core/pipeline"
	"github.com/SaiNageswarS/vidya-core/session"
	"go.uber.org/zap"
)

const (
	// maxBodyBytes caps one webhook body; the audio limit alone is 480000
	// bytes before base64 expansion.
	maxBodyBytes = 2 << 20

	// audioFetchTimeout bounds the recording download when the webhook
	// carries a URL instead of inline audio.
	audioFetchTimeout = 10 * time.Second
)

// Server routes telephony webhooks onto the pipeline.
type Server struct {
	mux        *http.ServeMux
	pool       *pipeline.Pool
	sessions   *session.Store
	answers    *cache.Store
	httpClient *http.Client
}

func New(pool *pipeline.Pool, sessions *session.Store, answers *cache.Store) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		pool:       pool,
		sessions:   sessions,
		answers:    answers,
		httpClient: &http.Client{Timeout: audioFetchTimeout},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/health", HealthHandler{})
	s.mux.Handle("/v1/question", QuestionHandler{
		Pool:       s.pool,
		Sessions:   s.sessions,
		HTTPClient: s.httpClient,
	})
	s.mux.Handle("/v1/call/start", CallStartHandler{Sessions: s.sessions})
	s.mux.Handle("/v1/call/end", CallEndHandler{Sessions: s.sessions})
	s.mux.Handle("/v1/stats", StatsHandler{
		Pool:     s.pool,
		Sessions: s.sessions,
		Cache:    s.answers,
	})
}

// Handler wraps the routes in the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = AccessLog(h)
	h = Recover(h)
	return h
}

// errorResponse is the envelope for requests rejected before a pipeline run
// produced a result.
type errorResponse struct {
	ErrorKind fallback.Kind `json:"errorKind"`
	Message   string        `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, kind fallback.Kind, message string) {
	writeJSON(w, status, errorResponse{ErrorKind: kind, Message: message})
}
