package bluez

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"tinygo.org/x/bluetooth"
)

// execCommand is swapped out in tests.
var execCommand = exec.Command

// AD structure types understood by Advertise.
const (
	adIncomplete16 byte = 0x02
	adComplete16   byte = 0x03
	adShortName    byte = 0x08
	adCompleteName byte = 0x09
	adTxPower      byte = 0x0A
	adServiceData  byte = 0x16
	adManufacturer byte = 0xFF
)

// advertiser is the part of *bluetooth.Advertisement the driver uses.
type advertiser interface {
	Configure(options bluetooth.AdvertisementOptions) error
	Start() error
	Stop() error
}

// Driver advertises through BlueZ. The controller address is rewritten with
// btmgmt on every Reinit because BlueZ binds it when the adapter powers on.
type Driver struct {
	hci      string
	index    string
	interval time.Duration

	mu      sync.Mutex
	adapter *bluetooth.Adapter
	adv     advertiser
	enabled bool
	logger  *slog.Logger
}

// New creates a driver for a controller such as "hci0".
func New(hci string, interval time.Duration) (*Driver, error) {
	if !domain.IsValidHCI(hci) {
		return nil, fmt.Errorf("invalid controller name %q", hci)
	}
	return &Driver{
		hci:      hci,
		index:    strings.TrimPrefix(hci, "hci"),
		interval: interval,
		adapter:  bluetooth.DefaultAdapter,
		logger:   slog.With("component", "bluez", "controller", hci),
	}, nil
}

// Reinit power-cycles the controller with a new address. The simulated
// controller offset is applied here so the address peers see is base+2.
func (d *Driver) Reinit(base domain.MACAddress) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.adv != nil {
		_ = d.adv.Stop()
	}
	addr := base.Offset(domain.ControllerAddressOffset)

	steps := [][]string{
		{"power", "off"},
		{"public-addr", strings.ToUpper(addr.String())},
		{"power", "on"},
	}
	for _, step := range steps {
		if err := d.btmgmt(step...); err != nil {
			return err
		}
	}

	if !d.enabled {
		if err := d.adapter.Enable(); err != nil {
			return fmt.Errorf("enable adapter: %w", err)
		}
		d.enabled = true
	}
	if d.adv == nil {
		d.adv = d.adapter.DefaultAdvertisement()
	}
	return nil
}

// Advertise decodes payload into advertisement options and starts advertising.
func (d *Driver) Advertise(payload domain.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.adv == nil {
		return errors.New("controller not initialized")
	}

	opts, err := ParseAdvertisement(payload)
	if err != nil {
		return err
	}
	if d.interval > 0 {
		opts.Interval = bluetooth.NewDuration(d.interval)
	}
	if err := d.adv.Configure(opts); err != nil {
		return fmt.Errorf("configure advertisement: %w", err)
	}
	return d.adv.Start()
}

// StopAdvertising stops the current advertisement.
func (d *Driver) StopAdvertising() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.adv == nil {
		return nil
	}
	return d.adv.Stop()
}

// Deinit stops advertising and powers the controller off.
func (d *Driver) Deinit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.adv != nil {
		_ = d.adv.Stop()
	}
	return d.btmgmt("power", "off")
}

func (d *Driver) btmgmt(args ...string) error {
	full := append([]string{"--index", d.index}, args...)
	out, err := execCommand("btmgmt", full...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("btmgmt %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	d.logger.Debug("btmgmt", "args", args)
	return nil
}

// ParseAdvertisement splits raw advertising data into the structures BlueZ
// accepts. TX power and flags are managed by BlueZ itself and are dropped.
func ParseAdvertisement(payload []byte) (bluetooth.AdvertisementOptions, error) {
	var opts bluetooth.AdvertisementOptions
	for i := 0; i < len(payload); {
		n := int(payload[i])
		if n == 0 {
			break
		}
		if i+1+n > len(payload) {
			return opts, fmt.Errorf("%w: AD structure at %d overruns payload", domain.ErrMalformedFrameInput, i)
		}
		adType, data := payload[i+1], payload[i+2:i+1+n]
		i += 1 + n

		switch adType {
		case adManufacturer:
			if len(data) < 2 {
				return opts, fmt.Errorf("%w: manufacturer data without company ID", domain.ErrMalformedFrameInput)
			}
			opts.ManufacturerData = append(opts.ManufacturerData, bluetooth.ManufacturerDataElement{
				CompanyID: uint16(data[0]) | uint16(data[1])<<8,
				Data:      append([]byte(nil), data[2:]...),
			})
		case adServiceData:
			if len(data) < 2 {
				return opts, fmt.Errorf("%w: service data without UUID", domain.ErrMalformedFrameInput)
			}
			opts.ServiceData = append(opts.ServiceData, bluetooth.ServiceDataElement{
				UUID: bluetooth.New16BitUUID(uint16(data[0]) | uint16(data[1])<<8),
				Data: append([]byte(nil), data[2:]...),
			})
		case adIncomplete16, adComplete16:
			for j := 0; j+1 < len(data); j += 2 {
				opts.ServiceUUIDs = append(opts.ServiceUUIDs, bluetooth.New16BitUUID(uint16(data[j])|uint16(data[j+1])<<8))
			}
		case adShortName, adCompleteName:
			opts.LocalName = string(data)
		case adTxPower:
			// BlueZ fills in TX power itself
		}
	}
	return opts, nil
}
