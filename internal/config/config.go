package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all application configuration.
type Config struct {
	Interface    string
	HCI          string
	Addr         string
	DBPath       string
	CaptureDir   string
	MockMode     bool
	SetupMonitor bool // switch Interface to monitor mode at startup and back on exit
	Debug        bool
	APITokenHash string // bcrypt hash of the API bearer token; empty disables auth

	WiFiInterval time.Duration
	BLEInterval  time.Duration
	Tick         time.Duration
	Seed         uint64 // 0 seeds from the clock
}

// Load populates Config from defaults and environment variables. Flags bound
// with BindFlags override the result once parsed.
func Load() *Config {
	dataDir := getDataDir()
	return &Config{
		Interface:    getEnv("WRAITH_IFACE", "wlan0"),
		HCI:          getEnv("WRAITH_HCI", "hci0"),
		Addr:         getEnv("WRAITH_ADDR", ":8080"),
		DBPath:       getEnv("WRAITH_DB", filepath.Join(dataDir, "wraith.db")),
		CaptureDir:   getEnv("WRAITH_CAPTURE_DIR", filepath.Join(dataDir, "captures")),
		MockMode:     getEnvBool("WRAITH_MOCK", false),
		SetupMonitor: getEnvBool("WRAITH_SETUP_MONITOR", false),
		APITokenHash: getEnv("WRAITH_API_TOKEN_HASH", ""),
		WiFiInterval: getEnvDuration("WRAITH_WIFI_INTERVAL", 50*time.Millisecond),
		BLEInterval:  getEnvDuration("WRAITH_BLE_INTERVAL", 100*time.Millisecond),
		Tick:         getEnvDuration("WRAITH_TICK", 10*time.Millisecond),
		Seed:         getEnvUint("WRAITH_SEED", 0),
	}
}

// BindFlags registers command line overrides for every field.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Interface, "interface", "i", c.Interface, "WiFi interface in monitor mode")
	fs.StringVar(&c.HCI, "hci", c.HCI, "Bluetooth controller")
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP server address")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "Path to SQLite database")
	fs.StringVar(&c.CaptureDir, "capture-dir", c.CaptureDir, "Directory for handshake pcap files")
	fs.BoolVar(&c.MockMode, "mock", c.MockMode, "Use simulated radios instead of hardware")
	fs.BoolVar(&c.SetupMonitor, "setup-monitor", c.SetupMonitor, "Put the interface into monitor mode with ip/iw")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable verbose debug logging")
	fs.DurationVar(&c.WiFiInterval, "wifi-interval", c.WiFiInterval, "Minimum time between WiFi frames")
	fs.DurationVar(&c.BLEInterval, "ble-interval", c.BLEInterval, "Minimum time between BLE advertisements")
	fs.DurationVar(&c.Tick, "tick", c.Tick, "Scheduler tick period")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "Random seed for spoofing (0 = time based)")
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if c.WiFiInterval <= 0 {
		errs = append(errs, fmt.Errorf("wifi interval must be positive, got %s", c.WiFiInterval))
	}
	if c.BLEInterval <= 0 {
		errs = append(errs, fmt.Errorf("ble interval must be positive, got %s", c.BLEInterval))
	}
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("tick must be positive, got %s", c.Tick))
	} else if c.Tick > c.WiFiInterval || c.Tick > c.BLEInterval {
		errs = append(errs, fmt.Errorf("tick %s is longer than a send interval", c.Tick))
	}
	if !c.MockMode {
		if c.Interface != "" && !domain.IsValidInterface(c.Interface) {
			errs = append(errs, fmt.Errorf("invalid interface name %q", c.Interface))
		}
		if c.HCI != "" && !domain.IsValidHCI(c.HCI) {
			errs = append(errs, fmt.Errorf("invalid controller name %q", c.HCI))
		}
	}
	if c.APITokenHash != "" {
		if _, err := bcrypt.Cost([]byte(c.APITokenHash)); err != nil {
			errs = append(errs, fmt.Errorf("api token hash: %w", err))
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("Ignoring malformed duration", "key", key, "value", value)
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

// getDataDir returns ~/.wraith, falling back to the working directory.
func getDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("Could not get user home directory, using current dir", "error", err)
		return "."
	}
	return filepath.Join(home, ".wraith")
}
