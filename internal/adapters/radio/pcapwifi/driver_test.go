package pcapwifi

import (
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/wraith/internal/adapters/injection"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncapsulate_RoundTrip(t *testing.T) {
	frame := injection.BuildDeauth(domain.MustParseMAC("aa:bb:cc:dd:ee:ff"))

	packet, err := Encapsulate(frame)
	require.NoError(t, err)
	assert.Greater(t, len(packet), len(frame))
	assert.Equal(t, byte(0), packet[0], "radiotap version")

	var rt layers.RadioTap
	got, ok := StripRadioTap(&rt, packet)
	require.True(t, ok)
	assert.Equal(t, []byte(frame), got)
	assert.Equal(t, layers.RadioTapRate(2), rt.Rate)
	assert.True(t, rt.Present.TxFlags())
	assert.True(t, rt.TxFlags.NoACK())
}

func TestStripRadioTap_RemovesFCS(t *testing.T) {
	packet := []byte{
		0x00, 0x00, 0x09, 0x00, // version, pad, length 9
		0x02, 0x00, 0x00, 0x00, // present: flags
		0x10,                   // flags: FCS at end
		0xc0, 0x00, 0x01, 0x02, // frame
		0xde, 0xad, 0xbe, 0xef, // FCS
	}
	var rt layers.RadioTap
	got, ok := StripRadioTap(&rt, packet)
	require.True(t, ok)
	assert.Equal(t, []byte{0xc0, 0x00, 0x01, 0x02}, got)
}

func TestStripRadioTap_Garbage(t *testing.T) {
	var rt layers.RadioTap
	_, ok := StripRadioTap(&rt, []byte{0x00, 0x00})
	assert.False(t, ok)
}

func TestNew_RejectsBadInterface(t *testing.T) {
	_, err := New("wlan0; reboot", nil)
	assert.Error(t, err)

	d, err := New("wlan0mon", nil)
	require.NoError(t, err)
	assert.Error(t, d.Transmit(domain.Frame{0x00}), "not initialized")
	assert.NoError(t, d.Deinit())
}
