package pcapwifi

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/lcalzada-xor/wraith/internal/adapters/radio/hopping"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
)

const snapLen = 65536

// Driver injects and captures raw 802.11 frames on a monitor-mode interface
// through libpcap.
type Driver struct {
	iface string
	tuner *hopping.Tuner

	mu      sync.Mutex
	handle  *pcap.Handle
	capture ports.CaptureFunc
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// New prepares a driver for iface. A nil switcher selects iw.
func New(iface string, switcher hopping.ChannelSwitcher) (*Driver, error) {
	if !domain.IsValidInterface(iface) {
		return nil, fmt.Errorf("invalid interface name %q", iface)
	}
	return &Driver{
		iface:  iface,
		tuner:  hopping.NewTuner(iface, switcher),
		logger: slog.With("component", "pcapwifi", "interface", iface),
	}, nil
}

// Init opens the live handle and starts the receive loop.
func (d *Driver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle != nil {
		return nil
	}

	handle, err := pcap.OpenLive(d.iface, snapLen, true, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("pcap open failed: %w", err)
	}
	if handle.LinkType() != layers.LinkTypeIEEE80211Radio {
		handle.Close()
		return fmt.Errorf("%s is not in monitor mode (link type %s)", d.iface, handle.LinkType())
	}

	d.handle = handle
	d.done = make(chan struct{})
	d.tuner.Invalidate()
	d.wg.Add(1)
	go d.readLoop(handle, d.done)
	return nil
}

// SetChannel tunes the interface.
func (d *Driver) SetChannel(ch domain.Channel) error {
	return d.tuner.Tune(ch)
}

// Transmit wraps frame in a RadioTap header and writes it to the interface.
func (d *Driver) Transmit(frame domain.Frame) error {
	d.mu.Lock()
	handle := d.handle
	d.mu.Unlock()
	if handle == nil {
		return errors.New("driver not initialized")
	}

	packet, err := Encapsulate(frame)
	if err != nil {
		return err
	}
	return handle.WritePacketData(packet)
}

// Encapsulate prepends the RadioTap header used for injection: 1 Mb/s, no ACK
// expected.
func Encapsulate(frame domain.Frame) ([]byte, error) {
	radiotap := &layers.RadioTap{
		Present: layers.RadioTapPresentRate | layers.RadioTapPresentTxFlags,
		Rate:    2, // 1 Mb/s, in 500 kb/s units
		TxFlags: layers.RadioTapTxFlagsNoACK,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, radiotap, gopacket.Payload(frame)); err != nil {
		return nil, fmt.Errorf("radiotap encapsulation failed: %w", err)
	}
	return buf.Bytes(), nil
}

// SetCapture installs the callback fed by the receive loop; nil disables it.
func (d *Driver) SetCapture(fn ports.CaptureFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.capture = fn
	return nil
}

// Deinit stops the receive loop and closes the handle.
func (d *Driver) Deinit() error {
	d.mu.Lock()
	handle := d.handle
	done := d.done
	d.handle = nil
	d.capture = nil
	d.mu.Unlock()

	if handle == nil {
		return nil
	}
	close(done)
	d.wg.Wait()
	handle.Close()
	return nil
}

func (d *Driver) readLoop(handle *pcap.Handle, done <-chan struct{}) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Recovered from panic in capture loop", "panic", r)
		}
	}()

	var rt layers.RadioTap
	for {
		select {
		case <-done:
			return
		default:
		}

		data, ci, err := handle.ZeroCopyReadPacketData()
		if err != nil {
			if errors.Is(err, pcap.NextErrorTimeoutExpired) {
				continue
			}
			if errors.Is(err, pcap.NextErrorNoMorePackets) {
				return
			}
			d.logger.Debug("Capture read failed", "error", err)
			continue
		}

		d.mu.Lock()
		fn := d.capture
		d.mu.Unlock()
		if fn == nil {
			continue
		}
		if dot11, ok := StripRadioTap(&rt, data); ok {
			fn(dot11, ci.Timestamp)
		}
	}
}

// StripRadioTap decodes the RadioTap header into rt and returns the 802.11
// frame that follows it, without the trailing FCS when one is flagged. The
// returned slice aliases data.
func StripRadioTap(rt *layers.RadioTap, data []byte) ([]byte, bool) {
	if len(data) < 8 {
		return nil, false
	}
	if err := rt.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, false
	}
	frame := rt.Payload
	if rt.Flags.FCS() {
		if len(frame) < 4 {
			return nil, false
		}
		frame = frame[:len(frame)-4]
	}
	return frame, true
}
