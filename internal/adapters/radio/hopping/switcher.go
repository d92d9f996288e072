package hopping

import (
	"fmt"
	"os/exec"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

// execCommand is swapped out in tests.
var execCommand = exec.Command

// ChannelSwitcher abstracts the mechanism for changing WiFi channels.
type ChannelSwitcher interface {
	SetChannel(iface string, channel domain.Channel) error
}

// LinuxChannelSwitcher implements ChannelSwitcher using the 'iw' command.
type LinuxChannelSwitcher struct{}

// NewLinuxChannelSwitcher creates a new LinuxChannelSwitcher.
func NewLinuxChannelSwitcher() *LinuxChannelSwitcher {
	return &LinuxChannelSwitcher{}
}

// SetChannel executes the iw command to set the channel.
func (s *LinuxChannelSwitcher) SetChannel(iface string, channel domain.Channel) error {
	if !domain.IsValidInterface(iface) {
		return fmt.Errorf("invalid interface name %q", iface)
	}
	if err := channel.Validate(); err != nil {
		return err
	}
	cmd := execCommand("iw", iface, "set", "channel", fmt.Sprintf("%d", channel))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to set channel %d on %s: %w (%s)", channel, iface, err, out)
	}
	return nil
}
