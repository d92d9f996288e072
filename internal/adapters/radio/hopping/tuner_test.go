package hopping

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockSwitcher captures channel set calls
type MockSwitcher struct {
	mu         sync.Mutex
	calls      []domain.Channel
	shouldFail bool
}

func (m *MockSwitcher) SetChannel(iface string, channel domain.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, channel)
	if m.shouldFail {
		return fmt.Errorf("mock failure")
	}
	return nil
}

func TestTuner_SkipsRedundantSwitch(t *testing.T) {
	mock := &MockSwitcher{}
	tuner := NewTuner("wlan0mon", mock)
	assert.Equal(t, StateUnknown, tuner.State())

	require.NoError(t, tuner.Tune(6))
	require.NoError(t, tuner.Tune(6))
	require.NoError(t, tuner.Tune(11))

	assert.Equal(t, []domain.Channel{6, 11}, mock.calls)
	assert.Equal(t, StateTuned, tuner.State())
	assert.Equal(t, domain.Channel(11), tuner.Current())

	tuner.Invalidate()
	require.NoError(t, tuner.Tune(11))
	assert.Len(t, mock.calls, 3, "invalidate forces a switch")
}

func TestTuner_FailureForgetsChannel(t *testing.T) {
	mock := &MockSwitcher{}
	tuner := NewTuner("wlan0mon", mock)
	require.NoError(t, tuner.Tune(1))

	mock.shouldFail = true
	assert.Error(t, tuner.Tune(2))
	assert.Equal(t, StateUnknown, tuner.State())
	assert.Equal(t, uint64(1), tuner.Errors())

	mock.shouldFail = false
	require.NoError(t, tuner.Tune(1))
	assert.Equal(t, []domain.Channel{1, 2, 1}, mock.calls)
}

// fakeExecCommand re-runs the test binary as a stand-in for iw.
func fakeExecCommand(command string, args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", command}, args...)
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) > 0 {
		args = args[1:]
	}
	switch strings.Join(args, " ") {
	case "iw wlan0mon set channel 6",
		"ip link set wlan1 down", "ip link set wlan1 up",
		"iw wlan1 set type monitor", "iw wlan1 set type managed":
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "unexpected command: %v", args)
	os.Exit(1)
}

func TestLinuxChannelSwitcher(t *testing.T) {
	execCommand = fakeExecCommand
	defer func() { execCommand = exec.Command }()

	s := NewLinuxChannelSwitcher()
	assert.NoError(t, s.SetChannel("wlan0mon", 6))
	assert.Error(t, s.SetChannel("wlan0mon", 3), "helper only accepts channel 6")
	assert.Error(t, s.SetChannel("wlan0; rm -rf /", 6))
	assert.ErrorIs(t, s.SetChannel("wlan0mon", 0), domain.ErrInvalidChannel)
}

func TestMonitorMode(t *testing.T) {
	var mu sync.Mutex
	var ran []string
	execCommand = func(command string, args ...string) *exec.Cmd {
		mu.Lock()
		ran = append(ran, strings.Join(append([]string{command}, args...), " "))
		mu.Unlock()
		return fakeExecCommand(command, args...)
	}
	defer func() { execCommand = exec.Command }()

	require.NoError(t, EnableMonitorMode("wlan1"))
	require.NoError(t, DisableMonitorMode("wlan1"))
	assert.Equal(t, []string{
		"ip link set wlan1 down",
		"iw wlan1 set type monitor",
		"ip link set wlan1 up",
		"ip link set wlan1 down",
		"iw wlan1 set type managed",
		"ip link set wlan1 up",
	}, ran)

	ran = nil
	assert.Error(t, EnableMonitorMode("wlan2"), "helper rejects unknown interfaces")
	assert.Equal(t, []string{"ip link set wlan2 down"}, ran)

	assert.Error(t, EnableMonitorMode("wlan0; reboot"))
}
