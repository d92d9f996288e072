package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

// RandomSource is the injected, seedable randomness used for spoofing.
// *math/rand/v2.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
	Uint32() uint32
}

// CaptureFunc receives every raw 802.11 frame seen in promiscuous mode. It runs
// in the driver's receive context and must not block.
type CaptureFunc func(frame []byte, at time.Time)

// WiFiDriver is the hardware side of the WiFi radio.
type WiFiDriver interface {
	// Init brings the interface up in monitor mode.
	Init() error
	SetChannel(ch domain.Channel) error
	Transmit(frame domain.Frame) error
	// SetCapture installs the promiscuous callback; nil disables capture.
	SetCapture(fn CaptureFunc) error
	Deinit() error
}

// BLEDriver is the hardware side of the BLE radio. The controller binds its
// address at init time, so every new identity needs a full Reinit.
type BLEDriver interface {
	// Reinit restarts the stack with the given base address. The controller
	// advertises at base+2.
	Reinit(base domain.MACAddress) error
	Advertise(payload domain.Frame) error
	StopAdvertising() error
	Deinit() error
}

// AttackController is the command surface of the main loop. Implementations
// serialize every call onto the goroutine that owns the radio session.
type AttackController interface {
	Start(ctx context.Context, req domain.AttackRequest) (domain.AttackSession, error)
	Stop(ctx context.Context) (domain.AttackSession, error)
	Status(ctx context.Context) (domain.EngineStatus, error)
}
