package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lcalzada-xor/wraith/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/wraith/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/wraith/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	attackRateLimit  = 30
	attackRateWindow = time.Minute
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr      string
	TokenHash string

	WSManager      *websocket.WSManager
	AttackHandler  *handlers.AttackHandler
	CaptureHandler *handlers.CaptureHandler
	AttackLimiter  *middleware.RateLimiter

	srv *http.Server
}

// NewServer creates a new web server. An empty tokenHash leaves the API open.
func NewServer(addr, tokenHash string, controller ports.AttackController, store ports.CaptureStore) *Server {
	return &Server{
		Addr:           addr,
		TokenHash:      tokenHash,
		WSManager:      websocket.NewWSManager(controller),
		AttackHandler:  handlers.NewAttackHandler(controller),
		CaptureHandler: handlers.NewCaptureHandler(controller, store),
		AttackLimiter:  middleware.NewRateLimiter(attackRateLimit, attackRateWindow),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.WSManager.Start(ctx)
	go s.sweepLimiter(ctx)

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           otelhttp.NewHandler(SetupRoutes(s), "wraith-server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Web server shutdown error", "error", err)
		}
	}()

	slog.Info("Web server listening", "addr", s.Addr, "auth", s.TokenHash != "")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(attackRateWindow)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.AttackLimiter.Cleanup()
		}
	}
}
