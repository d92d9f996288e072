package mock

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

// SimulatedBLE is a ports.BLEDriver that only logs what it would advertise.
type SimulatedBLE struct {
	mu          sync.Mutex
	address     domain.MACAddress
	ready       bool
	advertising bool
	count       uint64
	logger      *slog.Logger
}

// NewSimulatedBLE creates a simulated controller.
func NewSimulatedBLE() *SimulatedBLE {
	return &SimulatedBLE{logger: slog.With("component", "mock-ble")}
}

// Reinit applies the controller's address offset the way real hardware does.
func (s *SimulatedBLE) Reinit(base domain.MACAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = base.Offset(domain.ControllerAddressOffset)
	s.ready = true
	s.advertising = false
	return nil
}

func (s *SimulatedBLE) Advertise(payload domain.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return errors.New("controller not initialized")
	}
	s.advertising = true
	s.count++
	s.logger.Debug("Advertising", "address", s.address, "payload_len", payload.Len())
	return nil
}

func (s *SimulatedBLE) StopAdvertising() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advertising = false
	return nil
}

func (s *SimulatedBLE) Deinit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	s.advertising = false
	return nil
}

// Address returns the address currently advertised.
func (s *SimulatedBLE) Address() domain.MACAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// Advertisements returns how many advertisements were started.
func (s *SimulatedBLE) Advertisements() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
