package hopping

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

// EnableMonitorMode puts the interface into monitor mode with ip and iw.
func EnableMonitorMode(iface string) error {
	if !domain.IsValidInterface(iface) {
		return fmt.Errorf("invalid interface name %q", iface)
	}
	slog.Info("Enabling monitor mode", "interface", iface)

	if err := runCmd("ip", "link", "set", iface, "down"); err != nil {
		return err
	}
	if err := runCmd("iw", iface, "set", "type", "monitor"); err != nil {
		slog.Warn("Could not set monitor mode; NetworkManager or wpa_supplicant may hold the interface", "interface", iface)
		// bring it back up in whatever mode it was
		_ = runCmd("ip", "link", "set", iface, "up")
		return err
	}
	return runCmd("ip", "link", "set", iface, "up")
}

// DisableMonitorMode puts the interface back into managed mode. Every step is
// attempted even if an earlier one fails.
func DisableMonitorMode(iface string) error {
	if !domain.IsValidInterface(iface) {
		return fmt.Errorf("invalid interface name %q", iface)
	}
	slog.Info("Restoring managed mode", "interface", iface)
	return errors.Join(
		runCmd("ip", "link", "set", iface, "down"),
		runCmd("iw", iface, "set", "type", "managed"),
		runCmd("ip", "link", "set", iface, "up"),
	)
}

func runCmd(name string, args ...string) error {
	out, err := execCommand(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v failed: %w (%s)", name, args, err, out)
	}
	return nil
}
