package web

import (
	"context"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockController is a mock of ports.AttackController
type MockController struct {
	mock.Mock
}

func (m *MockController) Start(ctx context.Context, req domain.AttackRequest) (domain.AttackSession, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.AttackSession), args.Error(1)
}

func (m *MockController) Stop(ctx context.Context) (domain.AttackSession, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.AttackSession), args.Error(1)
}

func (m *MockController) Status(ctx context.Context) (domain.EngineStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.EngineStatus), args.Error(1)
}

// MockCaptureStore is a mock of ports.CaptureStore
type MockCaptureStore struct {
	mock.Mock
}

func (m *MockCaptureStore) SaveHandshake(ctx context.Context, state domain.HandshakeState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockCaptureStore) ListHandshakes(ctx context.Context) ([]domain.HandshakeState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HandshakeState), args.Error(1)
}

func (m *MockCaptureStore) SaveSession(ctx context.Context, session domain.AttackSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockCaptureStore) ListSessions(ctx context.Context, limit int) ([]domain.AttackSession, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttackSession), args.Error(1)
}

func (m *MockCaptureStore) Close() error {
	return m.Called().Error(0)
}
