package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/lcalzada-xor/wraith/internal/adapters/export"
	"github.com/lcalzada-xor/wraith/internal/adapters/handshake"
	"github.com/lcalzada-xor/wraith/internal/adapters/radio"
	"github.com/lcalzada-xor/wraith/internal/adapters/radio/bluez"
	"github.com/lcalzada-xor/wraith/internal/adapters/radio/hopping"
	"github.com/lcalzada-xor/wraith/internal/adapters/radio/pcapwifi"
	"github.com/lcalzada-xor/wraith/internal/adapters/storage"
	webserver "github.com/lcalzada-xor/wraith/internal/adapters/web/server"
	"github.com/lcalzada-xor/wraith/internal/config"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
	"github.com/lcalzada-xor/wraith/internal/core/services/attack"
	"github.com/lcalzada-xor/wraith/internal/mock"
	"github.com/lcalzada-xor/wraith/internal/telemetry"
)

const handshakePoll = 250 * time.Millisecond

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config     *config.Config
	Store      *storage.SQLiteStore
	Exporter   *export.PcapExporter
	Radio      *radio.Session
	Engine     *attack.Engine
	Controller *Controller
	WebServer  *webserver.Server

	// interface switched into monitor mode at startup, restored on Close
	monitorIface string
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}
	if err := app.bootstrap(); err != nil {
		app.Close()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	if err := app.initStorage(); err != nil {
		return err
	}

	wifi, ble := app.drivers()
	rs, err := acquire(wifi, ble)
	if err != nil {
		return err
	}
	app.Radio = rs

	app.Engine = attack.NewEngine(rs, handshake.NewMonitor(), app.random(), attack.Config{
		WiFiInterval: app.Config.WiFiInterval,
		BLEInterval:  app.Config.BLEInterval,
	})
	app.Controller = NewController(app.Engine, app.Store, app.Exporter, app.Config.Tick)
	app.WebServer = webserver.NewServer(app.Config.Addr, app.Config.APITokenHash, app.Controller, app.Store)

	if app.Config.MockMode {
		slog.Info("Mock mode active: radios are simulated")
	}
	return nil
}

func (app *Application) initStorage() error {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create DB directory: %w", err)
	}
	store, err := storage.NewSQLiteStore(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	app.Store = store

	exporter, err := export.NewPcapExporter(app.Config.CaptureDir)
	if err != nil {
		return fmt.Errorf("failed to init capture directory: %w", err)
	}
	app.Exporter = exporter
	return nil
}

// drivers selects simulated or hardware radios. A radio whose driver cannot
// be created is left out rather than failing startup.
func (app *Application) drivers() (ports.WiFiDriver, ports.BLEDriver) {
	if app.Config.MockMode {
		return mock.NewSimulatedWiFi(app.Config.Seed), mock.NewSimulatedBLE()
	}

	if app.Config.SetupMonitor {
		if err := hopping.EnableMonitorMode(app.Config.Interface); err != nil {
			slog.Warn("Monitor mode setup failed", "interface", app.Config.Interface, "error", err)
		} else {
			app.monitorIface = app.Config.Interface
		}
	}

	var wifi ports.WiFiDriver
	var ble ports.BLEDriver
	if d, err := pcapwifi.New(app.Config.Interface, hopping.NewLinuxChannelSwitcher()); err != nil {
		slog.Warn("WiFi radio disabled", "interface", app.Config.Interface, "error", err)
	} else {
		wifi = d
	}
	if d, err := bluez.New(app.Config.HCI, app.Config.BLEInterval); err != nil {
		slog.Warn("BLE radio disabled", "controller", app.Config.HCI, "error", err)
	} else {
		ble = d
	}
	return wifi, ble
}

// acquire claims both radios, falling back to BLE only when the WiFi
// interface cannot be brought up.
func acquire(wifi ports.WiFiDriver, ble ports.BLEDriver) (*radio.Session, error) {
	rs, err := radio.Acquire(wifi, ble)
	if err == nil || wifi == nil || ble == nil {
		return rs, err
	}
	slog.Warn("WiFi radio unavailable, continuing with BLE only", "error", err)
	return radio.Acquire(nil, ble)
}

func (app *Application) random() *rand.Rand {
	seed := app.Config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Run serves the API and drives the scheduler until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 2)
	go func() { errChan <- app.Controller.Run(ctx) }()
	go func() {
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
			return
		}
		errChan <- nil
	}()

	slog.Info("Wraith ready", "addr", app.Config.Addr, "wifi", app.Radio.HasWiFi(), "ble", app.Radio.HasBLE())

	// either component exiting brings the other down
	first := <-errChan
	cancel()
	if err := <-errChan; first == nil {
		first = err
	}
	return first
}

// RunAttack starts req without the web server and runs it until ctx is
// cancelled or d elapses (d <= 0 means no limit). A handshake capture also
// ends as soon as all four messages are seen. The final session is
// returned after its results have been persisted.
func (app *Application) RunAttack(ctx context.Context, req domain.AttackRequest, d time.Duration) (domain.AttackSession, error) {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- app.Controller.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	if _, err := app.Controller.Start(ctx, req); err != nil {
		return domain.AttackSession{}, err
	}
	if req.Type == domain.AttackHandshakeCapture {
		app.awaitHandshake(ctx)
	} else {
		<-ctx.Done()
	}

	session, err := app.Controller.Stop(context.Background())
	if errors.Is(err, domain.ErrNotRunning) {
		err = nil
	}
	return session, err
}

// awaitHandshake returns once the capture completes or ctx is done.
func (app *Application) awaitHandshake(ctx context.Context) {
	ticker := time.NewTicker(handshakePoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st, err := app.Controller.Status(ctx)
			if err == nil && st.HandshakeComplete {
				slog.Info("Handshake captured", "bssid", st.Handshake.BSSID)
				return
			}
		}
	}
}

// Close releases the radios and closes the store.
func (app *Application) Close() error {
	var errs []error
	if app.Radio != nil {
		errs = append(errs, app.Radio.Release())
	}
	if app.monitorIface != "" {
		errs = append(errs, hopping.DisableMonitorMode(app.monitorIface))
		app.monitorIface = ""
	}
	if app.Store != nil {
		errs = append(errs, app.Store.Close())
	}
	return errors.Join(errs...)
}
