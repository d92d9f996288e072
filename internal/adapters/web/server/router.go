package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/wraith/internal/adapters/web/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api := r.PathPrefix("/api").Subrouter()
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	api.Use(middleware.AuthMiddleware(s.TokenHash))

	limited := middleware.RateLimitMiddleware(s.AttackLimiter)

	api.HandleFunc("/status", s.AttackHandler.HandleStatus).Methods(http.MethodGet)
	api.Handle("/attacks/{type}", limited(http.HandlerFunc(s.AttackHandler.HandleStart))).Methods(http.MethodPost)
	api.Handle("/attacks", limited(http.HandlerFunc(s.AttackHandler.HandleStop))).Methods(http.MethodDelete)
	// any other method on the attack paths
	api.HandleFunc("/attacks/{type}", allow(http.MethodPost))
	api.HandleFunc("/attacks", allow(http.MethodDelete))

	api.HandleFunc("/handshake", s.CaptureHandler.HandleHandshake).Methods(http.MethodGet)
	api.HandleFunc("/captures", s.CaptureHandler.HandleListCaptures).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.CaptureHandler.HandleListSessions).Methods(http.MethodGet)

	auth := middleware.AuthMiddleware(s.TokenHash)
	r.Handle("/ws", auth(http.HandlerFunc(s.WSManager.HandleWebSocket)))
	r.Handle("/metrics", auth(promhttp.Handler())).Methods(http.MethodGet)

	return r
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// allow answers 405 with an Allow header naming the accepted methods.
func allow(methods ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", strings.Join(methods, ", "))
		methodNotAllowed(w, r)
	}
}
