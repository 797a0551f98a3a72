package web

import (
	"net/http"

	"github.com/SaiNageswarS/vidya-core/cache"
	"github.com/SaiNageswarS/vidya-core/pipeline"
	"github.com/SaiNageswarS/vidya-core/session"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type statsResponse struct {
	ActiveSessions int                            `json:"activeSessions"`
	InFlight       int                            `json:"inFlight"`
	Cache          map[cache.Tier]cache.TierStats `json:"cache"`
}

// StatsHandler reports live counters for operators.
type StatsHandler struct {
	Pool     *pipeline.Pool
	Sessions *session.Store
	Cache    *cache.Store
}

func (h StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		ActiveSessions: h.Sessions.ActiveCount(),
		InFlight:       h.Pool.InFlight(),
		Cache:          h.Cache.Stats(),
	})
}
