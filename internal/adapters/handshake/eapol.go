package handshake

import (
	"encoding/binary"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

// KeyInformation masks (IEEE 802.11i)
const (
	KeyInfoKeyDescriptorVersionMask = 0x0007 // Bits 0-2
	KeyInfoKeyType                  = 1 << 3 // Bit 3 (1=Pairwise, 0=Group)
	KeyInfoInstall                  = 1 << 6 // Bit 6
	KeyInfoKeyAck                   = 1 << 7 // Bit 7
	KeyInfoKeyMIC                   = 1 << 8 // Bit 8
	KeyInfoSecure                   = 1 << 9 // Bit 9
)

const (
	dot11HeaderLen  = 24
	addr4Len        = 6
	qosControlLen   = 2
	eapolTypeKey    = 3
	eapolTypeOffset = 1
	keyInfoOffset   = 5 // version(1) type(1) length(2) descriptor(1)

	frameTypeData = 0x02
	subtypeQoSBit = 0x08
	flagToDS      = 0x01
	flagFromDS    = 0x02
)

// llcSNAPEAPOL is the LLC/SNAP encapsulation followed by ethertype 0x888E.
var llcSNAPEAPOL = [8]byte{0xAA, 0xAA, 0x03, 0x00, 0x00, 0x00, 0x88, 0x8E}

// EAPOLKey is the part of a captured EAPOL-Key frame the monitor needs.
type EAPOLKey struct {
	KeyInfo  uint16
	Messages domain.MessageSet

	bssids [2]domain.MACAddress
	n      int
}

// BSSIDs returns the addresses that may identify the access point, most
// likely first. Only four-address frames yield two.
func (k *EAPOLKey) BSSIDs() []domain.MACAddress {
	return k.bssids[:k.n]
}

// HeaderLen returns the 802.11 MAC header length for a data frame: 24 bytes,
// plus Address 4 when both DS bits are set, plus QoS Control for QoS subtypes.
func HeaderLen(fc0, fc1 byte) int {
	n := dot11HeaderLen
	if fc1&flagToDS != 0 && fc1&flagFromDS != 0 {
		n += addr4Len
	}
	if (fc0>>4)&subtypeQoSBit != 0 {
		n += qosControlLen
	}
	return n
}

// ParseEAPOLKey inspects a raw 802.11 frame without RadioTap or FCS.
// Anything that is not a data frame carrying an EAPOL-Key, including frames
// too short to tell, is reported as false.
func ParseEAPOLKey(frame []byte) (EAPOLKey, bool) {
	var k EAPOLKey
	if len(frame) < dot11HeaderLen {
		return k, false
	}
	fc0, fc1 := frame[0], frame[1]
	if (fc0>>2)&0x03 != frameTypeData {
		return k, false
	}

	hdr := HeaderLen(fc0, fc1)
	eapol := hdr + len(llcSNAPEAPOL)
	if len(frame) < eapol+keyInfoOffset+2 {
		return k, false
	}
	if [8]byte(frame[hdr:eapol]) != llcSNAPEAPOL {
		return k, false
	}
	if frame[eapol+eapolTypeOffset] != eapolTypeKey {
		return k, false
	}

	k.KeyInfo = binary.BigEndian.Uint16(frame[eapol+keyInfoOffset:])
	k.Messages = Classify(k.KeyInfo)

	addr1, _ := domain.MACFromBytes(frame[4:10])
	addr2, _ := domain.MACFromBytes(frame[10:16])
	addr3, _ := domain.MACFromBytes(frame[16:22])
	toDS, fromDS := fc1&flagToDS != 0, fc1&flagFromDS != 0
	switch {
	case !toDS && !fromDS:
		k.bssids[0], k.n = addr3, 1
	case !toDS && fromDS:
		// AP -> Station: TA is the BSSID
		k.bssids[0], k.n = addr2, 1
	case toDS && !fromDS:
		// Station -> AP: RA is the BSSID
		k.bssids[0], k.n = addr1, 1
	default:
		// WDS: either end may be the monitored AP
		k.bssids[0], k.bssids[1], k.n = addr2, addr1, 2
	}
	return k, true
}

// Classify maps Key Information bits onto handshake messages:
//
//	M1     pairwise, ack, no mic, no install
//	M3     pairwise, ack, mic, install
//	M2/M4  pairwise, no ack, mic, no install
//
// The last pattern cannot tell message 2 from message 4, so a frame matching
// it is credited to both. Over captured frames the first M2/M4 after M1 and
// M3 therefore completes the handshake, and CaptureTime is that frame's
// timestamp. Completion at the fourth distinct message holds for messages
// applied one by one through Monitor.Record.
func Classify(keyInfo uint16) domain.MessageSet {
	if keyInfo&KeyInfoKeyType == 0 {
		return 0
	}
	ack := keyInfo&KeyInfoKeyAck != 0
	mic := keyInfo&KeyInfoKeyMIC != 0
	install := keyInfo&KeyInfoInstall != 0

	switch {
	case ack && !mic && !install:
		return domain.SetOf(domain.Msg1)
	case ack && mic && install:
		return domain.SetOf(domain.Msg3)
	case !ack && mic && !install:
		return domain.SetOf(domain.Msg2, domain.Msg4)
	}
	return 0
}
