package injection

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
)

const (
	// DeauthFrameLen is the 24-byte MAC header plus the 2-byte reason code.
	DeauthFrameLen = 26

	// ReasonClass3FromNonAssociated is 802.11 reason code 7.
	ReasonClass3FromNonAssociated uint16 = 7

	beaconIntervalTU  uint16 = 100
	beaconCapability  uint16 = 0x0401 // ESS, short slot time
	beaconFixedFields        = 12     // timestamp(8) + interval(2) + capability(2)

	elementSSID  byte = 0
	elementRates byte = 1
	elementDS    byte = 3
)

// supportedRates advertises 1, 2, 5.5, 11 Mbps (basic) plus 18, 24, 36, 54 Mbps.
var supportedRates = []byte{0x82, 0x84, 0x8b, 0x96, 0x24, 0x30, 0x48, 0x6c}

// BuildDeauth generates a broadcast Deauthentication frame spoofed from bssid.
// Address 2 and 3 carry bssid; nothing else depends on its value.
func BuildDeauth(bssid domain.MACAddress) domain.Frame {
	hdr := &layers.Dot11{
		Type:     layers.Dot11TypeMgmtDeauthentication,
		Address1: domain.BroadcastMAC.HardwareAddr(),
		Address2: bssid.HardwareAddr(),
		Address3: bssid.HardwareAddr(),
	}
	body := &layers.Dot11MgmtDeauthentication{Reason: layers.Dot11Reason(ReasonClass3FromNonAssociated)}

	// Fixed-size layers into a fresh buffer; serialization has no failure path.
	frame, _ := serializeLayers(hdr, body)
	return frame
}

// BuildBeacon constructs a Beacon frame advertising ssid on channel from src.
// SSIDs longer than 32 bytes are rejected, never truncated.
func BuildBeacon(src domain.MACAddress, ssid string, channel domain.Channel) (domain.Frame, error) {
	if err := domain.ValidateSSID(ssid); err != nil {
		return nil, err
	}
	if err := channel.Validate(); err != nil {
		return nil, err
	}

	body := NewFrameWriter(beaconFixedFields + elementsLen(ssid))
	body.Uint64LE(0). // timestamp, filled in by hardware
				Uint16LE(beaconIntervalTU).
				Uint16LE(beaconCapability)
	writeElements(body, ssid, channel)
	payload, err := body.FixedFrame()
	if err != nil {
		return nil, err
	}

	hdr := &layers.Dot11{
		Type:     layers.Dot11TypeMgmtBeacon,
		Address1: domain.BroadcastMAC.HardwareAddr(),
		Address2: src.HardwareAddr(),
		Address3: src.HardwareAddr(),
	}
	return serializeLayers(hdr, gopacket.Payload(payload))
}

// BuildProbeRequest constructs a broadcast Probe Request for ssid from a
// freshly randomized locally administered source address.
func BuildProbeRequest(ssid string, channel domain.Channel, rng ports.RandomSource) (domain.Frame, error) {
	if err := domain.ValidateSSID(ssid); err != nil {
		return nil, err
	}
	if err := channel.Validate(); err != nil {
		return nil, err
	}

	body := NewFrameWriter(elementsLen(ssid))
	writeElements(body, ssid, channel)
	payload, err := body.FixedFrame()
	if err != nil {
		return nil, err
	}

	hdr := &layers.Dot11{
		Type:     layers.Dot11TypeMgmtProbeReq,
		Address1: domain.BroadcastMAC.HardwareAddr(),
		Address2: domain.NewRandomMAC(rng).HardwareAddr(),
		Address3: domain.BroadcastMAC.HardwareAddr(),
	}
	return serializeLayers(hdr, gopacket.Payload(payload))
}

func elementsLen(ssid string) int {
	return (2 + len(ssid)) + (2 + len(supportedRates)) + (2 + 1)
}

// writeElements emits SSID, Supported Rates and DS Parameter Set.
func writeElements(w *FrameWriter, ssid string, channel domain.Channel) {
	w.Element(elementSSID, []byte(ssid)).
		Element(elementRates, supportedRates).
		Element(elementDS, []byte{byte(channel)})
}

// serializeLayers writes the raw 802.11 frame: no RadioTap header and no FCS.
// The transmitting driver adds whatever encapsulation it needs.
func serializeLayers(stack ...gopacket.SerializableLayer) (domain.Frame, error) {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, stack...); err != nil {
		return nil, fmt.Errorf("serialize failed: %w", err)
	}
	out := make(domain.Frame, len(buf.Bytes()))
	copy(out, buf.Bytes())
	return out, nil
}
