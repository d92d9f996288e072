package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesSent counts frames and advertisements the radio accepted
	FramesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wraith",
			Name:      "frames_sent_total",
			Help:      "Total number of frames accepted by the radio",
		},
		[]string{"attack"},
	)

	// TransmitFailures counts frames the driver rejected
	TransmitFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wraith",
			Name:      "transmit_failures_total",
			Help:      "Total number of frames rejected by the radio driver",
		},
		[]string{"attack"},
	)

	// EAPOLFrames counts EAPOL key frames attributed to a monitored target
	EAPOLFrames = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wraith",
			Name:      "eapol_frames_total",
			Help:      "Total number of EAPOL key frames matched to a capture session",
		},
	)

	// HandshakesCompleted counts 4-way handshakes captured in full
	HandshakesCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wraith",
			Name:      "handshakes_completed_total",
			Help:      "Total number of complete 4-way handshakes captured",
		},
	)

	// BLEReinitFailures counts failed BLE stack restarts
	BLEReinitFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wraith",
			Name:      "ble_reinit_failures_total",
			Help:      "Total number of failed BLE stack reinitializations",
		},
	)

	// AttackRunning is 1 while the labelled attack is active
	AttackRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wraith",
			Name:      "attack_running",
			Help:      "Whether an attack of the given type is running",
		},
		[]string{"attack"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		// Ignore AlreadyRegistered so repeated wiring in tests does not panic
		prometheus.DefaultRegisterer.Register(FramesSent)
		prometheus.DefaultRegisterer.Register(TransmitFailures)
		prometheus.DefaultRegisterer.Register(EAPOLFrames)
		prometheus.DefaultRegisterer.Register(HandshakesCompleted)
		prometheus.DefaultRegisterer.Register(BLEReinitFailures)
		prometheus.DefaultRegisterer.Register(AttackRunning)
	})
}
