package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
)

// routeAttacks maps the short path names of /api/attacks/{type} to attack
// types. Full type names are accepted as well.
var routeAttacks = map[string]domain.AttackType{
	"deauth":    domain.AttackDeauth,
	"beacon":    domain.AttackBeaconSpam,
	"probe":     domain.AttackProbeFlood,
	"handshake": domain.AttackHandshakeCapture,
	"ble":       domain.AttackBLESpam,
}

func attackForRoute(name string) domain.AttackType {
	if t, ok := routeAttacks[name]; ok {
		return t
	}
	return domain.AttackType(name)
}

// AttackHandler starts, stops and reports on attacks.
type AttackHandler struct {
	Controller ports.AttackController
}

// NewAttackHandler creates a new AttackHandler
func NewAttackHandler(controller ports.AttackController) *AttackHandler {
	return &AttackHandler{Controller: controller}
}

// HandleStart starts the attack named by the {type} path variable. The body
// carries the remaining AttackRequest fields and may be empty for BLE spam.
func (h *AttackHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req domain.AttackRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	req.Type = attackForRoute(mux.Vars(r)["type"])

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	session, err := h.Controller.Start(r.Context(), req)
	if err != nil {
		slog.Warn("Failed to start attack", "type", req.Type, "error", err)
		writeError(w, err)
		return
	}

	slog.Info("Attack started via API", "type", session.Type, "id", session.ID)
	writeJSON(w, http.StatusOK, session)
}

// HandleStop stops the running attack and returns its final counters.
func (h *AttackHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	session, err := h.Controller.Stop(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleStatus reports the engine snapshot.
func (h *AttackHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.Controller.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
