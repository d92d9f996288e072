package injection

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileFor(t *testing.T, v domain.Vendor) domain.AttackProfile {
	t.Helper()
	for _, p := range DefaultProfiles() {
		if p.Vendor == v {
			return p
		}
	}
	t.Fatalf("no profile for %s", v)
	return domain.AttackProfile{}
}

func catalogueCodes(c []domain.DeviceCode) map[uint32]bool {
	codes := make(map[uint32]bool, len(c))
	for _, d := range c {
		codes[d.Code] = true
	}
	return codes
}

func TestCatalogueSizes(t *testing.T) {
	assert.Len(t, AppleDevices, 10)
	assert.Len(t, SamsungWatches, 25)
	assert.Len(t, FastPairModels, 10)
	assert.Len(t, appleActions, 11)

	for name, c := range map[string][]domain.DeviceCode{
		"apple": AppleDevices, "samsung": SamsungWatches, "google": FastPairModels,
	} {
		assert.Len(t, catalogueCodes(c), len(c), "%s codes are unique", name)
	}
}

func TestDefaultProfiles_RotationOrder(t *testing.T) {
	profiles := DefaultProfiles()
	require.Len(t, profiles, len(domain.Vendors))
	for i, p := range profiles {
		assert.Equal(t, domain.Vendors[i], p.Vendor)
	}
}

func TestBuildBLEPayload_Apple(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	profile := profileFor(t, domain.VendorApple)
	devices := catalogueCodes(AppleDevices)

	for i := 0; i < 500; i++ {
		p, err := BuildBLEPayload(profile, rng)
		require.NoError(t, err)
		require.Len(t, p, ApplePayloadLen)

		assert.Equal(t, []byte{0x10, 0xff, 0x4c, 0x00, 0x0f, 0x05, 0xc1}, []byte(p[0:7]))
		assert.Contains(t, appleActions, p[7])
		assert.Equal(t, []byte{0x00, 0x00, 0x10}, []byte(p[11:14]))

		dev := uint32(p[14])<<8 | uint32(p[15])
		assert.True(t, devices[dev], "device 0x%04x not in catalogue", dev)
	}
}

func TestBuildBLEPayload_Samsung(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	profile := profileFor(t, domain.VendorSamsung)
	models := catalogueCodes(SamsungWatches)

	seen := map[byte]bool{}
	for i := 0; i < 2000; i++ {
		p, err := BuildBLEPayload(profile, rng)
		require.NoError(t, err)
		require.Len(t, p, SamsungPayloadLen)

		assert.Equal(t, byte(SamsungPayloadLen-1), p[0], "length byte covers the rest")
		assert.Equal(t, []byte{0xff, 0x75, 0x00}, []byte(p[1:4]))
		assert.True(t, models[uint32(p[14])])
		seen[p[14]] = true
	}
	assert.Len(t, seen, len(SamsungWatches), "every model is reachable")
}

func TestBuildBLEPayload_Google(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	profile := profileFor(t, domain.VendorGoogle)
	models := catalogueCodes(FastPairModels)

	minSeen, maxSeen := 127, -128
	for i := 0; i < 5000; i++ {
		p, err := BuildBLEPayload(profile, rng)
		require.NoError(t, err)
		require.Len(t, p, GooglePayloadLen)

		assert.Equal(t, []byte{0x03, 0x03, 0x2c, 0xfe}, []byte(p[0:4]))
		assert.Equal(t, []byte{0x06, 0x16, 0x2c, 0xfe}, []byte(p[4:8]))
		model := uint32(p[8])<<16 | uint32(p[9])<<8 | uint32(p[10])
		assert.True(t, models[model], "model 0x%06x not in catalogue", model)
		assert.Equal(t, []byte{0x02, 0x0a}, []byte(p[11:13]))

		tx := int(int8(p[13]))
		require.GreaterOrEqual(t, tx, -100)
		require.LessOrEqual(t, tx, 20)
		minSeen = min(minSeen, tx)
		maxSeen = max(maxSeen, tx)
	}
	assert.Equal(t, -100, minSeen)
	assert.Equal(t, 20, maxSeen)
}

func TestBuildBLEPayload_Microsoft(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	p, err := BuildBLEPayload(profileFor(t, domain.VendorMicrosoft), rng)
	require.NoError(t, err)

	require.Len(t, p, swiftPairHeaderLen+swiftPairNameLen)
	assert.Equal(t, byte(len(p)-1), p[0])
	assert.Equal(t, []byte{0xff, 0x06, 0x00, 0x03, 0x00, 0x80}, []byte(p[1:7]))
	for _, c := range p[7:] {
		assert.True(t, strings.ContainsRune(alphanumeric, rune(c)), "byte %q", c)
	}
}

func TestBuildSwiftPair_NameBudget(t *testing.T) {
	p, err := BuildSwiftPair(strings.Repeat("a", MaxSwiftPairName))
	require.NoError(t, err)
	assert.Len(t, p, MaxAdvertisementLen)

	_, err = BuildSwiftPair(strings.Repeat("a", MaxSwiftPairName+1))
	assert.ErrorIs(t, err, domain.ErrMalformedFrameInput)
}

func TestBuildBLEPayload_Deterministic(t *testing.T) {
	for _, profile := range DefaultProfiles() {
		a, err := BuildBLEPayload(profile, rand.New(rand.NewPCG(42, 42)))
		require.NoError(t, err)
		b, err := BuildBLEPayload(profile, rand.New(rand.NewPCG(42, 42)))
		require.NoError(t, err)
		assert.Equal(t, a, b, "%s payload depends only on rng draws", profile.Vendor)
	}
}

func TestBuildBLEPayload_EmptyCatalogue(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	_, err := BuildBLEPayload(domain.AttackProfile{Vendor: domain.VendorApple}, rng)
	assert.ErrorIs(t, err, domain.ErrNoTargets)

	_, err = BuildBLEPayload(domain.AttackProfile{Vendor: "nokia"}, rng)
	assert.Error(t, err)
}
