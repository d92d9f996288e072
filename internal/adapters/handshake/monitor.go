package handshake

import (
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/telemetry"
)

const maxFramesPerSession = 20

type session struct {
	state     domain.HandshakeState
	frames    []domain.Frame
	announced bool
}

// Monitor reconstructs 4-way handshakes for the BSSIDs it has been told to
// watch. HandleFrame runs on the capture goroutine while the main loop polls
// state, so every method takes the mutex; none blocks beyond that.
type Monitor struct {
	mu       sync.Mutex
	sessions map[domain.MACAddress]*session
	pending  []domain.HandshakeState
	logger   *slog.Logger
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		sessions: make(map[domain.MACAddress]*session),
		logger:   slog.With("component", "handshake"),
	}
}

// StartSession begins (or restarts) capture for bssid. Restarting is the
// only way flags are cleared.
func (m *Monitor) StartSession(bssid domain.MACAddress, channel domain.Channel, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[bssid] = &session{
		state: domain.HandshakeState{BSSID: bssid, Channel: channel, StartedAt: now},
	}
	m.logger.Info("Handshake capture started", "bssid", bssid, "channel", channel)
}

// Reset clears the flags and retained frames of an existing session.
func (m *Monitor) Reset(bssid domain.MACAddress) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[bssid]
	if !ok {
		return false
	}
	s.state = domain.HandshakeState{BSSID: bssid, Channel: s.state.Channel, StartedAt: s.state.StartedAt}
	s.frames = nil
	s.announced = false
	return true
}

// EndSession stops watching bssid.
func (m *Monitor) EndSession(bssid domain.MACAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, bssid)
}

// HandleFrame is the promiscuous capture callback. Frames that are not
// EAPOL-Key, are too short, or belong to an unwatched BSSID are dropped.
func (m *Monitor) HandleFrame(frame []byte, at time.Time) {
	key, ok := ParseEAPOLKey(frame)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, bssid := range key.BSSIDs() {
		s, ok := m.sessions[bssid]
		if !ok {
			continue
		}
		telemetry.EAPOLFrames.Inc()
		s.state.EAPOLPackets++
		if len(s.frames) < maxFramesPerSession {
			// capture buffers are reused by the driver
			s.frames = append(s.frames, append(domain.Frame(nil), frame...))
		}
		for _, msg := range key.Messages.Messages() {
			m.recordLocked(s, msg, at)
		}
		return
	}
}

// Record applies a single classified message to bssid's session. It reports
// whether a flag was newly set; duplicates and unwatched BSSIDs return false.
func (m *Monitor) Record(bssid domain.MACAddress, msg domain.HandshakeMessage, at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[bssid]
	if !ok {
		return false
	}
	return m.recordLocked(s, msg, at)
}

func (m *Monitor) recordLocked(s *session, msg domain.HandshakeMessage, at time.Time) bool {
	if !msg.Valid() || s.state.Messages.Has(msg) {
		return false
	}
	s.state.Messages = s.state.Messages.With(msg)
	m.logger.Debug("Handshake message captured", "bssid", s.state.BSSID, "message", msg, "stage", s.state.Stage())

	if s.state.Complete() && !s.announced {
		s.announced = true
		s.state.CaptureTime = at
		m.pending = append(m.pending, s.state)
		telemetry.HandshakesCompleted.Inc()
		m.logger.Info("Handshake complete", "bssid", s.state.BSSID, "eapol_packets", s.state.EAPOLPackets)
	}
	return true
}

// State returns a snapshot of bssid's capture state.
func (m *Monitor) State(bssid domain.MACAddress) (domain.HandshakeState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[bssid]
	if !ok {
		return domain.HandshakeState{}, false
	}
	return s.state, true
}

// Frames returns copies of the EAPOL frames retained for bssid.
func (m *Monitor) Frames(bssid domain.MACAddress) []domain.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[bssid]
	if !ok {
		return nil
	}
	out := make([]domain.Frame, len(s.frames))
	for i, f := range s.frames {
		out[i] = append(domain.Frame(nil), f...)
	}
	return out
}

// TakeCompleted drains completions declared since the last call. Each
// completed capture is reported exactly once per session start.
func (m *Monitor) TakeCompleted() []domain.HandshakeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.pending
	m.pending = nil
	return out
}
