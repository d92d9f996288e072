package domain

import (
	"fmt"
	"net"
	"strings"
)

// MACAddress is a 6-byte IEEE 802 address.
type MACAddress [6]byte

// BroadcastMAC is ff:ff:ff:ff:ff:ff.
var BroadcastMAC = MACAddress{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ByteSource is the minimal random source needed to draw addresses.
type ByteSource interface {
	Uint32() uint32
}

// NewRandomMAC draws six random bytes and forces the locally administered,
// unicast bit pattern (bit1 of byte0 set, bit0 clear).
func NewRandomMAC(src ByteSource) MACAddress {
	var mac MACAddress
	for i := 0; i < len(mac); i += 4 {
		v := src.Uint32()
		for j := 0; j < 4 && i+j < len(mac); j++ {
			mac[i+j] = byte(v >> (8 * j))
		}
	}
	mac[0] = (mac[0] | 0x02) &^ 0x01
	return mac
}

// ParseMAC accepts "aa:bb:cc:dd:ee:ff", "aa-bb-cc-dd-ee-ff" and "aabbccddeeff".
func ParseMAC(s string) (MACAddress, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), "-", ":")
	if !strings.Contains(normalized, ":") && len(normalized) == 12 {
		var parts []string
		for i := 0; i < len(normalized); i += 2 {
			parts = append(parts, normalized[i:i+2])
		}
		normalized = strings.Join(parts, ":")
	}

	hw, err := net.ParseMAC(normalized)
	if err != nil || len(hw) != 6 {
		return MACAddress{}, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
	}

	var mac MACAddress
	copy(mac[:], hw)
	return mac, nil
}

// MustParseMAC parses a MAC address and panics on error.
// Only use in tests or with known-valid input.
func MustParseMAC(s string) MACAddress {
	mac, err := ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

// MACFromBytes copies the first six bytes of b.
// Returns false when b is shorter than an address.
func MACFromBytes(b []byte) (MACAddress, bool) {
	var mac MACAddress
	if len(b) < len(mac) {
		return mac, false
	}
	copy(mac[:], b)
	return mac, true
}

func (m MACAddress) String() string {
	return net.HardwareAddr(m[:]).String()
}

// HardwareAddr returns a copy usable with net and gopacket APIs.
func (m MACAddress) HardwareAddr() net.HardwareAddr {
	hw := make(net.HardwareAddr, len(m))
	copy(hw, m[:])
	return hw
}

// IsLocallyAdministered reports whether the LAA bit (bit1 of byte0) is set.
func (m MACAddress) IsLocallyAdministered() bool {
	return m[0]&0x02 != 0
}

// IsUnicast reports whether the group bit (bit0 of byte0) is clear.
func (m MACAddress) IsUnicast() bool {
	return m[0]&0x01 == 0
}

// IsZero reports whether every byte is zero.
func (m MACAddress) IsZero() bool {
	return m == MACAddress{}
}

// MarshalText implements encoding.TextMarshaler.
func (m MACAddress) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MACAddress) UnmarshalText(text []byte) error {
	mac, err := ParseMAC(string(text))
	if err != nil {
		return err
	}
	*m = mac
	return nil
}

// ControllerAddressOffset is what the BLE controller adds to its configured
// base address before advertising.
const ControllerAddressOffset = 2

// Offset adds n (which may be negative) to the low two bytes, carrying or
// borrowing between byte 5 and byte 4. The upper four bytes never change.
func (m MACAddress) Offset(n int) MACAddress {
	v := int(m[4])<<8 | int(m[5])
	v = (v + n) & 0xffff
	m[4] = byte(v >> 8)
	m[5] = byte(v)
	return m
}
