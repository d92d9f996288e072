package ports

import (
	"context"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

// CaptureStore persists completed handshakes and attack session history.
type CaptureStore interface {
	SaveHandshake(ctx context.Context, state domain.HandshakeState) error
	ListHandshakes(ctx context.Context) ([]domain.HandshakeState, error)
	SaveSession(ctx context.Context, session domain.AttackSession) error
	ListSessions(ctx context.Context, limit int) ([]domain.AttackSession, error)
	Close() error
}

// CaptureExporter serializes a completed handshake together with its frames.
type CaptureExporter interface {
	Export(state domain.HandshakeState, frames []domain.Frame) (string, error)
}
