package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetRequest(t *testing.T) {
	req, err := targetRequest(domain.AttackDeauth, "AA-BB-CC-DD-EE-FF", 6)
	require.NoError(t, err)
	require.NotNil(t, req.BSSID)
	assert.Equal(t, domain.MustParseMAC("aa:bb:cc:dd:ee:ff"), *req.BSSID)
	assert.Equal(t, domain.Channel(6), req.Channel)
	assert.NoError(t, req.Validate())

	_, err = targetRequest(domain.AttackDeauth, "not-a-mac", 6)
	assert.ErrorIs(t, err, domain.ErrInvalidMAC)
}

func TestSSIDRequest(t *testing.T) {
	req, err := ssidRequest(domain.AttackBeaconSpam, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, mock.CommonSSIDs, req.SSIDs)
	assert.Empty(t, req.Channels)

	req, err = ssidRequest(domain.AttackProbeFlood, []string{"a"}, []uint{1, 11})
	require.NoError(t, err)
	assert.Equal(t, []domain.Channel{1, 11}, req.Channels)

	_, err = ssidRequest(domain.AttackProbeFlood, []string{"a"}, []uint{99})
	assert.ErrorIs(t, err, domain.ErrInvalidChannel)
}

func TestRootCmd_MockBeacon(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	root := newRootCmd("test")
	root.SetArgs([]string{
		"--mock",
		"--db", filepath.Join(dir, "wraith.db"),
		"--capture-dir", filepath.Join(dir, "captures"),
		"--wifi-interval", "5ms",
		"--tick", "1ms",
		"beacon", "CoffeeShop", "-c", "1,6", "-d", "50ms",
	})
	root.SetOut(&out)
	root.SetErr(&out)

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Attack:      beacon_spam")
	assert.Contains(t, out.String(), "Frames sent:")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	root := newRootCmd("test")
	root.SetArgs([]string{"--mock", "--tick", "500ms", "ble", "-d", "10ms"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRootCmd_DeauthRequiresBSSID(t *testing.T) {
	root := newRootCmd("test")
	root.SetArgs([]string{"--mock", "deauth", "-c", "6"})
	assert.Error(t, root.Execute())
}
