package handlers

import (
	"net/http"
	"strconv"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
)

const defaultSessionLimit = 50

// CaptureHandler exposes handshake progress and stored results.
type CaptureHandler struct {
	Controller ports.AttackController
	Store      ports.CaptureStore
}

// NewCaptureHandler creates a new CaptureHandler
func NewCaptureHandler(controller ports.AttackController, store ports.CaptureStore) *CaptureHandler {
	return &CaptureHandler{Controller: controller, Store: store}
}

// HandleHandshake returns the progress of the current or latched capture.
func (h *CaptureHandler) HandleHandshake(w http.ResponseWriter, r *http.Request) {
	st, err := h.Controller.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if st.Handshake == nil {
		http.Error(w, "No handshake capture in progress", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		domain.HandshakeState
		Stage    domain.HandshakeStage `json:"stage"`
		Complete bool                  `json:"complete"`
	}{*st.Handshake, st.Handshake.Stage(), st.HandshakeComplete})
}

// HandleListCaptures lists stored handshakes, newest first.
func (h *CaptureHandler) HandleListCaptures(w http.ResponseWriter, r *http.Request) {
	captures, err := h.Store.ListHandshakes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if captures == nil {
		captures = []domain.HandshakeState{}
	}
	writeJSON(w, http.StatusOK, captures)
}

// HandleListSessions lists attack history. ?limit=N bounds the result.
func (h *CaptureHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	sessions, err := h.Store.ListSessions(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []domain.AttackSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}
