package radio

import (
	"sync"
	"time"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
)

// OpKind names a driver call captured by the recording doubles.
type OpKind string

const (
	OpInit         OpKind = "init"
	OpSetChannel   OpKind = "set_channel"
	OpTransmit     OpKind = "transmit"
	OpSetCapture   OpKind = "set_capture"
	OpClearCapture OpKind = "clear_capture"
	OpDeinit       OpKind = "deinit"
	OpReinit       OpKind = "reinit"
	OpAdvertise    OpKind = "advertise"
	OpStopAdvert   OpKind = "stop_advertising"
)

// Op is one recorded driver call.
type Op struct {
	Kind    OpKind
	Channel domain.Channel    // set_channel, and transmit (channel tuned at the time)
	Frame   domain.Frame      // transmit, advertise
	Address domain.MACAddress // reinit
}

// RecordingWiFi implements ports.WiFiDriver in memory. It keeps an ordered log
// of every call and can be told to fail.
type RecordingWiFi struct {
	mu      sync.Mutex
	ops     []Op
	channel domain.Channel
	capture ports.CaptureFunc

	InitErr     error
	ChannelErr  error
	TransmitErr error
}

// NewRecordingWiFi creates a new instance of RecordingWiFi.
func NewRecordingWiFi() *RecordingWiFi {
	return &RecordingWiFi{}
}

func (r *RecordingWiFi) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpInit})
	return r.InitErr
}

func (r *RecordingWiFi) SetChannel(ch domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpSetChannel, Channel: ch})
	if r.ChannelErr != nil {
		return r.ChannelErr
	}
	r.channel = ch
	return nil
}

// Transmit stores a copy of the frame tagged with the tuned channel.
func (r *RecordingWiFi) Transmit(frame domain.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy buffer to avoid reference issues if the caller reuses it
	f := make(domain.Frame, len(frame))
	copy(f, frame)
	r.ops = append(r.ops, Op{Kind: OpTransmit, Channel: r.channel, Frame: f})
	return r.TransmitErr
}

func (r *RecordingWiFi) SetCapture(fn ports.CaptureFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fn == nil {
		r.ops = append(r.ops, Op{Kind: OpClearCapture})
	} else {
		r.ops = append(r.ops, Op{Kind: OpSetCapture})
	}
	r.capture = fn
	return nil
}

func (r *RecordingWiFi) Deinit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpDeinit})
	r.capture = nil
	return nil
}

// SetTransmitErr makes every following Transmit fail with err (nil clears).
func (r *RecordingWiFi) SetTransmitErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TransmitErr = err
}

// Deliver feeds a received frame to the installed capture callback, as the
// driver's receive path would. Reports false when capture is off.
func (r *RecordingWiFi) Deliver(frame []byte, at time.Time) bool {
	r.mu.Lock()
	fn := r.capture
	r.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(frame, at)
	return true
}

// CaptureEnabled reports whether a capture callback is installed.
func (r *RecordingWiFi) CaptureEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capture != nil
}

// Ops returns a copy of the call log.
func (r *RecordingWiFi) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Transmitted returns only the transmit calls.
func (r *RecordingWiFi) Transmitted() []Op {
	return filterOps(r.Ops(), OpTransmit)
}

// Reset clears the call log.
func (r *RecordingWiFi) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
}

// RecordingBLE implements ports.BLEDriver in memory.
type RecordingBLE struct {
	mu   sync.Mutex
	ops  []Op
	base domain.MACAddress

	// ReinitFailures makes the next n Reinit calls fail with ReinitErr.
	ReinitFailures int
	ReinitErr      error
	AdvertiseErr   error
}

// NewRecordingBLE creates a new instance of RecordingBLE.
func NewRecordingBLE() *RecordingBLE {
	return &RecordingBLE{}
}

func (r *RecordingBLE) Reinit(base domain.MACAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpReinit, Address: base})
	if r.ReinitFailures > 0 {
		r.ReinitFailures--
		return r.ReinitErr
	}
	r.base = base
	return nil
}

func (r *RecordingBLE) Advertise(payload domain.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := make(domain.Frame, len(payload))
	copy(p, payload)
	r.ops = append(r.ops, Op{Kind: OpAdvertise, Frame: p, Address: r.base})
	return r.AdvertiseErr
}

func (r *RecordingBLE) StopAdvertising() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpStopAdvert})
	return nil
}

func (r *RecordingBLE) Deinit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpDeinit})
	return nil
}

// FailReinits makes the next n Reinit calls return err.
func (r *RecordingBLE) FailReinits(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ReinitFailures = n
	r.ReinitErr = err
}

// Ops returns a copy of the call log.
func (r *RecordingBLE) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Advertised returns only the advertise calls.
func (r *RecordingBLE) Advertised() []Op {
	return filterOps(r.Ops(), OpAdvertise)
}

// AdvertisedAddress is the address peers observe for the last advertisement:
// the programmed base plus the controller's fixed offset of 2.
func (r *RecordingBLE) AdvertisedAddress() domain.MACAddress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.base.Offset(domain.ControllerAddressOffset)
}

func filterOps(ops []Op, kind OpKind) []Op {
	var out []Op
	for _, op := range ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}
