package hopping

import (
	"sync"
	"sync/atomic"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

// TunerState reports what the tuner knows about the radio's channel.
type TunerState int32

const (
	StateUnknown TunerState = iota // Never tuned, or last switch failed
	StateTuned                     // Radio is on Current()
)

func (s TunerState) String() string {
	switch s {
	case StateUnknown:
		return "Unknown"
	case StateTuned:
		return "Tuned"
	}
	return "Invalid"
}

// Tuner remembers the channel last applied to an interface so that a request
// for the channel the radio already sits on does not fork another iw.
type Tuner struct {
	iface    string
	switcher ChannelSwitcher

	mu      sync.Mutex // serializes switches
	state   atomic.Int32
	current atomic.Uint32
	errors  atomic.Uint64
}

// NewTuner creates a Tuner; a nil switcher selects the iw implementation.
func NewTuner(iface string, switcher ChannelSwitcher) *Tuner {
	if switcher == nil {
		switcher = NewLinuxChannelSwitcher()
	}
	return &Tuner{iface: iface, switcher: switcher}
}

// Tune moves the radio to ch. A failed switch forgets the cached channel so
// the next call retries the command.
func (t *Tuner) Tune(ch domain.Channel) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() == StateTuned && t.Current() == ch {
		return nil
	}
	if err := t.switcher.SetChannel(t.iface, ch); err != nil {
		t.state.Store(int32(StateUnknown))
		t.errors.Add(1)
		return err
	}
	t.current.Store(uint32(ch))
	t.state.Store(int32(StateTuned))
	return nil
}

// Invalidate drops the cached channel, forcing the next Tune to switch.
func (t *Tuner) Invalidate() {
	t.state.Store(int32(StateUnknown))
}

// State returns the tuner state.
func (t *Tuner) State() TunerState {
	return TunerState(t.state.Load())
}

// Current returns the last channel applied successfully.
func (t *Tuner) Current() domain.Channel {
	return domain.Channel(t.current.Load())
}

// Errors returns the number of failed switches.
func (t *Tuner) Errors() uint64 {
	return t.errors.Load()
}
