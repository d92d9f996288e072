package storage

import (
	"context"
	"testing"
	"time"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupInMemoryDB creates a new SQLiteStore used for testing
func setupInMemoryDB(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndListHandshakes(t *testing.T) {
	store := setupInMemoryDB(t)
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	older := domain.HandshakeState{
		BSSID:        domain.MustParseMAC("aa:bb:cc:dd:ee:01"),
		Channel:      1,
		Messages:     domain.SetOf(domain.Msg1, domain.Msg2, domain.Msg3, domain.Msg4),
		EAPOLPackets: 6,
		StartedAt:    base,
		CaptureTime:  base.Add(time.Minute),
	}
	newer := older
	newer.BSSID = domain.MustParseMAC("aa:bb:cc:dd:ee:02")
	newer.CaptureTime = base.Add(time.Hour)

	require.NoError(t, store.SaveHandshake(ctx, older))
	require.NoError(t, store.SaveHandshake(ctx, newer))

	list, err := store.ListHandshakes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.BSSID, list[0].BSSID, "most recent first")
	assert.True(t, list[1].Complete())
	assert.Equal(t, domain.Channel(1), list[1].Channel)
	assert.Equal(t, 6, list[1].EAPOLPackets)
	assert.True(t, list[1].CaptureTime.Equal(older.CaptureTime))
}

func TestSaveHandshake_Recapture(t *testing.T) {
	store := setupInMemoryDB(t)
	ctx := context.Background()
	st := domain.HandshakeState{BSSID: domain.MustParseMAC("aa:bb:cc:dd:ee:ff"), Channel: 6, EAPOLPackets: 4}

	require.NoError(t, store.SaveHandshake(ctx, st))
	st.EAPOLPackets = 9
	require.NoError(t, store.SaveHandshake(ctx, st))

	list, err := store.ListHandshakes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 9, list[0].EAPOLPackets)
}

func TestSaveAndListSessions(t *testing.T) {
	store := setupInMemoryDB(t)
	ctx := context.Background()
	start := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	for i, typ := range []domain.AttackType{domain.AttackDeauth, domain.AttackBLESpamAll, domain.AttackBeaconSpam} {
		s := domain.NewAttackSession(string(rune('a'+i)), typ)
		require.NoError(t, s.Start(start.Add(time.Duration(i)*time.Minute)))
		if typ == domain.AttackDeauth {
			target := domain.MustParseMAC("aa:bb:cc:dd:ee:ff")
			s.Target = &target
		}
		s.RecordSend(1)
		s.Stop(start.Add(time.Hour))
		require.NoError(t, store.SaveSession(ctx, *s))
	}

	all, err := store.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.AttackBeaconSpam, all[0].Type, "newest first")

	deauth := all[2]
	require.NotNil(t, deauth.Target)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", deauth.Target.String())
	assert.Equal(t, domain.AttackStopped, deauth.Status)
	assert.Equal(t, uint64(1), deauth.PacketsSent)
	require.NotNil(t, deauth.EndTime)

	limited, err := store.ListSessions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSaveSession_Update(t *testing.T) {
	store := setupInMemoryDB(t)
	ctx := context.Background()

	s := domain.NewAttackSession("one", domain.AttackProbeFlood)
	require.NoError(t, s.Start(time.Now()))
	require.NoError(t, store.SaveSession(ctx, *s))

	s.RecordSend(1)
	s.RecordSend(1)
	s.Stop(time.Now())
	require.NoError(t, store.SaveSession(ctx, *s))

	all, err := store.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uint64(2), all[0].PacketsSent)
	assert.Equal(t, domain.AttackStopped, all[0].Status)
}
