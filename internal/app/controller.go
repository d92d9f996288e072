package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
	"github.com/lcalzada-xor/wraith/internal/core/services/attack"
)

// ErrLoopStopped is returned to callers whose command arrives after Run has
// returned.
var ErrLoopStopped = errors.New("main loop is not running")

type command struct {
	fn   func()
	done chan struct{}
}

// Controller runs the scheduler on a single goroutine. Ticks and commands
// from the API or CLI are interleaved on that goroutine, so the engine and
// the radio session only ever see one caller.
type Controller struct {
	engine   *attack.Engine
	store    ports.CaptureStore
	exporter ports.CaptureExporter
	tick     time.Duration

	commands chan command
	stopped  chan struct{}
	logger   *slog.Logger
}

// NewController creates a controller ticking every tick. store and exporter
// may be nil.
func NewController(engine *attack.Engine, store ports.CaptureStore, exporter ports.CaptureExporter, tick time.Duration) *Controller {
	return &Controller{
		engine:   engine,
		store:    store,
		exporter: exporter,
		tick:     tick,
		commands: make(chan command),
		stopped:  make(chan struct{}),
		logger:   slog.With("component", "controller"),
	}
}

var _ ports.AttackController = (*Controller)(nil)

// Run drives the engine until ctx is cancelled, then stops any running attack
// and flushes its results.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.stopped)

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.engine.Stop()
			c.flush(context.Background())
			return nil
		case cmd := <-c.commands:
			cmd.fn()
			close(cmd.done)
			c.flush(ctx)
		case now := <-ticker.C:
			c.engine.ExecuteTick(now)
			c.flush(ctx)
		}
	}
}

// do executes fn on the loop goroutine and waits for it.
func (c *Controller) do(ctx context.Context, fn func()) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case c.commands <- cmd:
	case <-c.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		// the command still runs; only the caller gives up waiting
		return ctx.Err()
	}
}

// Start validates req and starts it, replacing any running attack.
func (c *Controller) Start(ctx context.Context, req domain.AttackRequest) (domain.AttackSession, error) {
	if err := req.Validate(); err != nil {
		return domain.AttackSession{}, err
	}

	var session domain.AttackSession
	var err error
	if doErr := c.do(ctx, func() {
		if err = c.start(req); err == nil {
			session, _ = c.engine.Session()
		}
	}); doErr != nil {
		return domain.AttackSession{}, doErr
	}
	return session, err
}

func (c *Controller) start(req domain.AttackRequest) error {
	channels := req.Channels
	if len(channels) == 0 {
		channels = domain.Channels2GHz
	}

	switch req.Type {
	case domain.AttackDeauth:
		return c.engine.StartDeauth(*req.BSSID, req.Channel)
	case domain.AttackHandshakeCapture:
		return c.engine.StartHandshakeCapture(*req.BSSID, req.Channel)
	case domain.AttackBeaconSpam:
		return c.engine.StartBeaconSpam(req.SSIDs, channels)
	case domain.AttackProbeFlood:
		return c.engine.StartProbeFlood(req.SSIDs, channels)
	case domain.AttackBLESpam, domain.AttackBLESpamAll:
		if req.Vendor == "" || req.Type == domain.AttackBLESpamAll {
			return c.engine.StartBLESpamAll()
		}
		vendor, err := domain.ParseVendor(string(req.Vendor))
		if err != nil {
			return err
		}
		return c.engine.StartBLESpam(vendor)
	}
	return fmt.Errorf("unknown attack type %q", req.Type)
}

// Stop ends the running attack and returns its final state.
func (c *Controller) Stop(ctx context.Context) (domain.AttackSession, error) {
	var session domain.AttackSession
	var running bool
	if err := c.do(ctx, func() {
		running = c.engine.IsRunning()
		session = c.engine.Stop()
	}); err != nil {
		return domain.AttackSession{}, err
	}
	if !running {
		return session, domain.ErrNotRunning
	}
	return session, nil
}

// Status snapshots the engine.
func (c *Controller) Status(ctx context.Context) (domain.EngineStatus, error) {
	var st domain.EngineStatus
	err := c.do(ctx, func() {
		st.Running = c.engine.IsRunning()
		st.Attack = c.engine.CurrentAttack()
		st.PacketsSent = c.engine.PacketsSent()
		if s, ok := c.engine.Session(); ok {
			st.Session = &s
		}
		if hs, complete := c.engine.Handshake(); complete || !hs.BSSID.IsZero() {
			st.Handshake = &hs
			st.HandshakeComplete = complete
		}
	})
	return st, err
}

// flush persists results the engine produced since the last iteration. Each
// completed capture reaches the exporter and the store exactly once.
func (c *Controller) flush(ctx context.Context) {
	for _, capture := range c.engine.TakeCaptures() {
		if c.exporter != nil {
			if path, err := c.exporter.Export(capture.State, capture.Frames); err != nil {
				c.logger.Error("Handshake export failed", "bssid", capture.State.BSSID, "error", err)
			} else {
				c.logger.Info("Handshake saved", "bssid", capture.State.BSSID, "path", path)
			}
		}
		if c.store != nil {
			if err := c.store.SaveHandshake(ctx, capture.State); err != nil {
				c.logger.Error("Failed to store handshake", "bssid", capture.State.BSSID, "error", err)
			}
		}
	}
	for _, s := range c.engine.TakeFinished() {
		if c.store == nil {
			continue
		}
		if err := c.store.SaveSession(ctx, s); err != nil {
			c.logger.Error("Failed to store session", "id", s.ID, "error", err)
		}
	}
}
