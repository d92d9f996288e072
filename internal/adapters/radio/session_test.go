package radio

import (
	"errors"
	"testing"
	"time"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acquire(t *testing.T) (*Session, *RecordingWiFi, *RecordingBLE) {
	t.Helper()
	wifi, ble := NewRecordingWiFi(), NewRecordingBLE()
	s, err := Acquire(wifi, ble)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Release() })
	return s, wifi, ble
}

func kinds(ops []Op) []OpKind {
	out := make([]OpKind, len(ops))
	for i, op := range ops {
		out[i] = op.Kind
	}
	return out
}

func TestAcquire_ExclusiveOwnership(t *testing.T) {
	wifi, ble := NewRecordingWiFi(), NewRecordingBLE()
	s, err := Acquire(wifi, ble)
	require.NoError(t, err)

	_, err = Acquire(wifi, nil)
	assert.ErrorIs(t, err, domain.ErrRadioUnavailable, "wifi already held")
	_, err = Acquire(nil, ble)
	assert.ErrorIs(t, err, domain.ErrRadioUnavailable, "ble already held")

	require.NoError(t, s.Release())
	require.NoError(t, s.Release(), "second release is a no-op")

	s2, err := Acquire(wifi, ble)
	require.NoError(t, err, "released drivers can be acquired again")
	require.NoError(t, s2.Release())
}

func TestAcquire_InitFailure(t *testing.T) {
	wifi := NewRecordingWiFi()
	wifi.InitErr = errors.New("no monitor mode")

	_, err := Acquire(wifi, nil)
	assert.ErrorIs(t, err, domain.ErrRadioUnavailable)

	wifi.InitErr = nil
	s, err := Acquire(wifi, nil)
	require.NoError(t, err, "failed init does not leave the radio owned")
	require.NoError(t, s.Release())
}

func TestSetChannelAndSend_ChannelBeforeTransmit(t *testing.T) {
	s, wifi, _ := acquire(t)
	frame := domain.Frame{0xc0, 0x00}

	require.NoError(t, s.SetChannelAndSend(frame, 6))
	require.NoError(t, s.SetChannelAndSend(frame, 6))
	require.NoError(t, s.SetChannelAndSend(frame, 11))

	ops := wifi.Ops()
	assert.Equal(t, []OpKind{
		OpInit,
		OpSetChannel, OpTransmit,
		OpSetChannel, OpTransmit,
		OpSetChannel, OpTransmit,
	}, kinds(ops), "channel is set before every frame, even when unchanged")

	sent := wifi.Transmitted()
	require.Len(t, sent, 3)
	assert.Equal(t, domain.Channel(6), sent[0].Channel)
	assert.Equal(t, domain.Channel(11), sent[2].Channel)
}

func TestSetChannelAndSend_ReportsFailure(t *testing.T) {
	s, wifi, _ := acquire(t)

	wifi.SetTransmitErr(errors.New("queue full"))
	err := s.SetChannelAndSend(domain.Frame{0x01}, 3)
	assert.ErrorIs(t, err, domain.ErrTransmitFailure)

	var txErr *domain.TransmitError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, domain.Channel(3), txErr.Channel)
	assert.Len(t, wifi.Transmitted(), 1, "no retry")
}

func TestSetChannelAndSend_WithoutWiFi(t *testing.T) {
	s, err := Acquire(nil, NewRecordingBLE())
	require.NoError(t, err)
	defer s.Release()

	assert.ErrorIs(t, s.SetChannelAndSend(domain.Frame{0x01}, 1), domain.ErrTransmitFailure)
}

func TestInstallWiFi_ReplacesPreviousConfiguration(t *testing.T) {
	s, wifi, _ := acquire(t)
	var captured int
	capture := func([]byte, time.Time) { captured++ }

	require.NoError(t, s.InstallWiFi(WiFiConfig{Channel: 1, Capture: capture}))
	assert.True(t, wifi.CaptureEnabled())

	wifi.Reset()
	require.NoError(t, s.InstallWiFi(WiFiConfig{Channel: 6}))
	assert.Equal(t, []OpKind{OpClearCapture, OpSetChannel}, kinds(wifi.Ops()),
		"previous capture is torn down before the new channel is installed")
	assert.False(t, wifi.CaptureEnabled())

	assert.False(t, wifi.Deliver([]byte{0x08}, time.Now()))
	assert.Zero(t, captured)
}

func TestInstallWiFi_InvalidChannel(t *testing.T) {
	s, _, _ := acquire(t)
	assert.ErrorIs(t, s.InstallWiFi(WiFiConfig{Channel: 15}), domain.ErrInvalidChannel)
}

func TestClearWiFi_DisablesCapture(t *testing.T) {
	s, wifi, _ := acquire(t)
	require.NoError(t, s.InstallWiFi(WiFiConfig{Channel: 1, Capture: func([]byte, time.Time) {}}))
	require.NoError(t, s.ClearWiFi())
	assert.False(t, wifi.CaptureEnabled())
	require.NoError(t, s.ClearWiFi(), "clearing twice is harmless")
}

func TestStartAdvertising_ReinitsEveryTime(t *testing.T) {
	s, _, ble := acquire(t)
	first := domain.BLEAdvertisement{Base: domain.MustParseMAC("02:00:00:00:00:10"), Payload: domain.Frame{0x01}}
	second := domain.BLEAdvertisement{Base: domain.MustParseMAC("06:00:00:00:00:20"), Payload: domain.Frame{0x02}}

	require.NoError(t, s.StartAdvertising(first))
	require.NoError(t, s.StartAdvertising(second))

	assert.Equal(t, []OpKind{OpReinit, OpAdvertise, OpStopAdvert, OpReinit, OpAdvertise}, kinds(ble.Ops()))
	assert.Equal(t, second.Base.Offset(2), ble.AdvertisedAddress())

	require.NoError(t, s.StopAdvertising())
	require.NoError(t, s.StopAdvertising())
	assert.Len(t, ble.Ops(), 6, "second stop does not reach the driver")
}

func TestStartAdvertising_RetriesReinit(t *testing.T) {
	s, _, ble := acquire(t)
	adv := domain.BLEAdvertisement{Base: domain.MustParseMAC("02:00:00:00:00:10"), Payload: domain.Frame{0x01}}

	ble.FailReinits(MaxReinitAttempts-1, errors.New("hci timeout"))
	require.NoError(t, s.StartAdvertising(adv))
	assert.Len(t, ble.Advertised(), 1)
}

func TestStartAdvertising_ReinitExhaustion(t *testing.T) {
	s, _, ble := acquire(t)
	adv := domain.BLEAdvertisement{Base: domain.MustParseMAC("02:00:00:00:00:10"), Payload: domain.Frame{0x01}}

	ble.FailReinits(MaxReinitAttempts, errors.New("hci timeout"))
	err := s.StartAdvertising(adv)
	assert.ErrorIs(t, err, domain.ErrRadioUnavailable)
	assert.Empty(t, ble.Advertised())

	var reinits int
	for _, op := range ble.Ops() {
		if op.Kind == OpReinit {
			reinits++
		}
	}
	assert.Equal(t, MaxReinitAttempts, reinits)
}

func TestRelease_TearsDown(t *testing.T) {
	wifi, ble := NewRecordingWiFi(), NewRecordingBLE()
	s, err := Acquire(wifi, ble)
	require.NoError(t, err)

	require.NoError(t, s.InstallWiFi(WiFiConfig{Channel: 1, Capture: func([]byte, time.Time) {}}))
	require.NoError(t, s.StartAdvertising(domain.BLEAdvertisement{Payload: domain.Frame{0x01}}))
	require.NoError(t, s.Release())

	assert.False(t, wifi.CaptureEnabled())
	wifiOps := wifi.Ops()
	assert.Equal(t, OpDeinit, wifiOps[len(wifiOps)-1].Kind)
	assert.Equal(t, []OpKind{OpReinit, OpAdvertise, OpStopAdvert, OpDeinit}, kinds(ble.Ops()))

	assert.ErrorIs(t, s.SetChannelAndSend(domain.Frame{0x01}, 1), domain.ErrRadioUnavailable)
}
