package mock

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
)

const (
	subtypeDeauth     = 0xC0
	messageGap        = 15 * time.Millisecond
	defaultReplyDelay = 300 * time.Millisecond
)

// SimulatedWiFi is a ports.WiFiDriver for demo and mock mode. Frames go
// nowhere, but every deauthentication makes a simulated client reassociate
// with the targeted BSSID, producing a 4-way handshake on the capture path.
type SimulatedWiFi struct {
	// Loss is the probability that a single handshake message is not captured.
	Loss float64
	// ReplyDelay is how long the client waits before reassociating.
	ReplyDelay time.Duration

	mu      sync.Mutex
	rng     *rand.Rand
	channel domain.Channel
	capture ports.CaptureFunc
	busy    map[domain.MACAddress]bool
	replay  uint64
	sent    uint64
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewSimulatedWiFi creates a simulated radio with a deterministic client
// population derived from seed.
func NewSimulatedWiFi(seed uint64) *SimulatedWiFi {
	return &SimulatedWiFi{
		Loss:       0.1,
		ReplyDelay: defaultReplyDelay,
		rng:        rand.New(rand.NewPCG(seed, seed+1)),
		busy:       make(map[domain.MACAddress]bool),
		logger:     slog.With("component", "mock-wifi"),
	}
}

func (s *SimulatedWiFi) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		s.done = make(chan struct{})
	}
	return nil
}

func (s *SimulatedWiFi) SetChannel(ch domain.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = ch
	return nil
}

// Transmit accepts any frame. Deauthentications start a reassociation for
// their BSSID unless one is already in flight.
func (s *SimulatedWiFi) Transmit(frame domain.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++

	if len(frame) < 22 || frame[0] != subtypeDeauth || s.done == nil {
		return nil
	}
	bssid, _ := domain.MACFromBytes(frame[16:22])
	if s.busy[bssid] {
		return nil
	}
	s.busy[bssid] = true
	s.wg.Add(1)
	go s.reassociate(bssid, generateStationMAC(s.rng), s.rng.Perm(4), s.done)
	return nil
}

func (s *SimulatedWiFi) reassociate(bssid, station domain.MACAddress, order []int, done <-chan struct{}) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.busy, bssid)
		s.mu.Unlock()
	}()

	delay := s.ReplyDelay
	for _, i := range order {
		select {
		case <-done:
			return
		case <-time.After(delay):
		}
		delay = messageGap

		s.mu.Lock()
		lost := s.rng.Float64() < s.Loss
		s.replay++
		replay := s.replay
		fn := s.capture
		s.mu.Unlock()

		msg := domain.HandshakeMessage(i + 1)
		if lost || fn == nil {
			continue
		}
		frame, err := EAPOLFrame(bssid, station, msg, replay)
		if err != nil {
			s.logger.Error("Failed to synthesize EAPOL frame", "error", err)
			return
		}
		fn(frame, time.Now())
	}
	s.logger.Debug("Simulated client reassociated", "bssid", bssid, "station", station)
}

func (s *SimulatedWiFi) SetCapture(fn ports.CaptureFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture = fn
	return nil
}

// Deinit cancels pending reassociations and waits for them to exit.
func (s *SimulatedWiFi) Deinit() error {
	s.mu.Lock()
	done := s.done
	s.done = nil
	s.capture = nil
	s.mu.Unlock()

	if done != nil {
		close(done)
	}
	s.wg.Wait()
	return nil
}

// Sent returns the number of frames accepted so far.
func (s *SimulatedWiFi) Sent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}
