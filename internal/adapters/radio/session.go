package radio

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
	"github.com/lcalzada-xor/wraith/internal/telemetry"
)

// MaxReinitAttempts bounds BLE stack restarts per advertisement.
const MaxReinitAttempts = 3

var (
	errNoWiFi = errors.New("no wifi radio in session")
	errNoBLE  = errors.New("no ble radio in session")
	errHeld   = errors.New("already owned by another session")
)

// owners tracks which drivers are held by a live Session.
var (
	ownersMu sync.Mutex
	owners   = map[any]bool{}
)

// WiFiConfig is the channel/capture configuration of one WiFi attack.
type WiFiConfig struct {
	Channel domain.Channel
	// Capture receives every frame in promiscuous mode; nil leaves capture off.
	Capture ports.CaptureFunc
}

// Session is the explicitly owned handle on the WiFi and BLE radios. Creating
// it acquires both resources and Release frees them.
type Session struct {
	mu          sync.Mutex
	wifi        ports.WiFiDriver
	ble         ports.BLEDriver
	installed   bool
	advertising bool
	released    bool
	logger      *slog.Logger
}

// Acquire claims the given drivers. Either may be nil when the device lacks
// that radio. A driver held by another Session yields ErrRadioUnavailable.
func Acquire(wifi ports.WiFiDriver, ble ports.BLEDriver) (*Session, error) {
	ownersMu.Lock()
	defer ownersMu.Unlock()

	for _, d := range []any{wifi, ble} {
		if d != nil && owners[d] {
			return nil, &domain.RadioError{Op: "acquire", Err: errHeld}
		}
	}

	if wifi != nil {
		if err := wifi.Init(); err != nil {
			return nil, &domain.RadioError{Op: "init wifi", Err: err}
		}
		owners[wifi] = true
	}
	if ble != nil {
		owners[ble] = true
	}

	return &Session{
		wifi:   wifi,
		ble:    ble,
		logger: slog.With("component", "radio"),
	}, nil
}

// HasWiFi reports whether the session owns a WiFi radio.
func (s *Session) HasWiFi() bool { return s.wifi != nil }

// HasBLE reports whether the session owns a BLE radio.
func (s *Session) HasBLE() bool { return s.ble != nil }

// InstallWiFi replaces the active WiFi configuration. The previous one is torn
// down first since the radio holds a single channel/capture setup.
func (s *Session) InstallWiFi(cfg WiFiConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(s.wifi, errNoWiFi); err != nil {
		return err
	}
	if err := cfg.Channel.Validate(); err != nil {
		return err
	}
	if s.installed {
		if err := s.clearWiFiLocked(); err != nil {
			return &domain.RadioError{Op: "teardown", Err: err}
		}
	}

	if err := s.wifi.SetChannel(cfg.Channel); err != nil {
		return &domain.RadioError{Op: "install", Err: err}
	}
	if cfg.Capture != nil {
		if err := s.wifi.SetCapture(cfg.Capture); err != nil {
			return &domain.RadioError{Op: "install capture", Err: err}
		}
	}
	s.installed = true
	s.logger.Debug("WiFi configuration installed", "channel", cfg.Channel, "capture", cfg.Capture != nil)
	return nil
}

// ClearWiFi disables capture and forgets the installed configuration.
func (s *Session) ClearWiFi() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wifi == nil || !s.installed {
		return nil
	}
	return s.clearWiFiLocked()
}

func (s *Session) clearWiFiLocked() error {
	s.installed = false
	return s.wifi.SetCapture(nil)
}

// SetChannelAndSend tunes ch and then transmits frame, in that order, every
// time. Failures come back as *domain.TransmitError and are never retried.
func (s *Session) SetChannelAndSend(frame domain.Frame, ch domain.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(s.wifi, errNoWiFi); err != nil {
		return &domain.TransmitError{Channel: ch, Err: err}
	}
	if err := s.wifi.SetChannel(ch); err != nil {
		return &domain.TransmitError{Channel: ch, Err: err}
	}
	if err := s.wifi.Transmit(frame); err != nil {
		return &domain.TransmitError{Channel: ch, Err: err}
	}
	return nil
}

// StartAdvertising restarts the BLE stack on adv.Base and advertises
// adv.Payload. Reinit is tried MaxReinitAttempts times; running out is
// reported as ErrRadioUnavailable.
func (s *Session) StartAdvertising(adv domain.BLEAdvertisement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(s.ble, errNoBLE); err != nil {
		return err
	}
	if s.advertising {
		if err := s.ble.StopAdvertising(); err != nil {
			s.logger.Debug("Stop before reinit failed", "error", err)
		}
		s.advertising = false
	}

	var err error
	for attempt := 1; attempt <= MaxReinitAttempts; attempt++ {
		if err = s.ble.Reinit(adv.Base); err == nil {
			break
		}
		telemetry.BLEReinitFailures.Inc()
		s.logger.Debug("BLE reinit failed", "attempt", attempt, "error", err)
	}
	if err != nil {
		return &domain.RadioError{Op: "reinit", Err: err}
	}

	if err := s.ble.Advertise(adv.Payload); err != nil {
		return &domain.TransmitError{Err: err}
	}
	s.advertising = true
	return nil
}

// StopAdvertising halts the current advertisement, if any.
func (s *Session) StopAdvertising() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ble == nil || !s.advertising {
		return nil
	}
	s.advertising = false
	return s.ble.StopAdvertising()
}

// Release tears both radios down and returns them to the pool. Calling it more
// than once is a no-op.
func (s *Session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true

	var errs []error
	if s.wifi != nil {
		if s.installed {
			errs = append(errs, s.clearWiFiLocked())
		}
		errs = append(errs, s.wifi.Deinit())
	}
	if s.ble != nil {
		if s.advertising {
			errs = append(errs, s.ble.StopAdvertising())
			s.advertising = false
		}
		errs = append(errs, s.ble.Deinit())
	}

	ownersMu.Lock()
	delete(owners, s.wifi)
	delete(owners, s.ble)
	ownersMu.Unlock()

	return errors.Join(errs...)
}

func (s *Session) usable(driver any, missing error) error {
	if s.released {
		return &domain.RadioError{Op: "use", Err: errors.New("session released")}
	}
	if driver == nil {
		return &domain.RadioError{Op: "use", Err: missing}
	}
	return nil
}
