package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/vidya-core/fallback"
	"github.com/SaiNageswarS/vidya-core/locale"
	"github.com/SaiNageswarS/vidya-core/session"
)

type callRequest struct {
	SessionID string `json:"sessionId"`
	Language  string `json:"language,omitempty"`
}

type callResponse struct {
	SessionID string          `json:"sessionId"`
	Language  locale.Language `json:"language,omitempty"`
	Ended     bool            `json:"ended,omitempty"`
}

// CallStartHandler registers the session for an incoming call. Repeated
// deliveries of the same webhook are harmless.
type CallStartHandler struct {
	Sessions *session.Store
}

func (h CallStartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCallRequest(w, r)
	if !ok {
		return
	}

	sess := h.Sessions.GetOrCreate(req.SessionID, locale.Normalize(req.Language))
	writeJSON(w, http.StatusOK, callResponse{SessionID: sess.ID, Language: sess.Language})
}

// CallEndHandler removes the session when the caller hangs up. Ending an
// unknown session is not an error; telephony layers retry end webhooks.
type CallEndHandler struct {
	Sessions *session.Store
}

func (h CallEndHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCallRequest(w, r)
	if !ok {
		return
	}

	err := h.Sessions.End(req.SessionID)
	writeJSON(w, http.StatusOK, callResponse{SessionID: req.SessionID, Ended: err == nil})
}

func decodeCallRequest(w http.ResponseWriter, r *http.Request) (callRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return callRequest{}, false
	}

	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fallback.KindInvalidInput, "malformed request body")
		return callRequest{}, false
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, fallback.KindInvalidInput, "sessionId is required")
		return callRequest{}, false
	}
	return req, true
}
