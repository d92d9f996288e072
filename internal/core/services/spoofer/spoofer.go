package spoofer

import (
	"fmt"

	"github.com/lcalzada-xor/wraith/internal/adapters/injection"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
)

// Spoofer hands out fresh BLE identities paired with vendor payloads.
// It is not safe for concurrent use; the scheduler owns it.
type Spoofer struct {
	rng      ports.RandomSource
	profiles []domain.AttackProfile
}

// New creates a Spoofer over the built-in vendor profiles.
func New(rng ports.RandomSource) *Spoofer {
	return NewWithProfiles(rng, injection.DefaultProfiles())
}

// NewWithProfiles creates a Spoofer over a custom profile list.
func NewWithProfiles(rng ports.RandomSource, profiles []domain.AttackProfile) *Spoofer {
	return &Spoofer{rng: rng, profiles: profiles}
}

// GenerateRandomMAC returns a random locally administered unicast address.
func (s *Spoofer) GenerateRandomMAC() domain.MACAddress {
	return domain.NewRandomMAC(s.rng)
}

// BaseAddressFor returns the address to program into the controller so that
// it advertises as identity.
func BaseAddressFor(identity domain.MACAddress) domain.MACAddress {
	base := identity
	if base[5] < domain.ControllerAddressOffset {
		base[4]--
	}
	base[5] -= domain.ControllerAddressOffset
	return base
}

// Profiles returns the profiles in rotation order.
func (s *Spoofer) Profiles() []domain.AttackProfile {
	return s.profiles
}

// Profile looks up the profile for vendor.
func (s *Spoofer) Profile(vendor domain.Vendor) (domain.AttackProfile, error) {
	for _, p := range s.profiles {
		if p.Vendor == vendor {
			return p, nil
		}
	}
	return domain.AttackProfile{}, fmt.Errorf("%w: no profile for vendor %q", domain.ErrNoTargets, vendor)
}

// Next draws a new identity and a payload for vendor.
func (s *Spoofer) Next(vendor domain.Vendor) (domain.BLEAdvertisement, error) {
	profile, err := s.Profile(vendor)
	if err != nil {
		return domain.BLEAdvertisement{}, err
	}
	payload, err := injection.BuildBLEPayload(profile, s.rng)
	if err != nil {
		return domain.BLEAdvertisement{}, err
	}
	identity := s.GenerateRandomMAC()
	return domain.BLEAdvertisement{
		Vendor:   vendor,
		Identity: identity,
		Base:     BaseAddressFor(identity),
		Payload:  payload,
	}, nil
}
