package mock

import (
	"math/rand/v2"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

// CommonSSIDs are realistic network names, used as default beacon spam
// targets in mock mode.
var CommonSSIDs = []string{
	"HomeNetwork", "NETGEAR-5G", "Starbucks WiFi", "TP-Link_2.4GHz",
	"Linksys", "ATT-WiFi", "Xfinity", "Google Fiber",
	"Office-Network", "Guest-WiFi", "MyWiFi", "Home-2.4G",
	"DIRECT-Printer", "AndroidAP", "iPhone", "Samsung Galaxy",
	"CoffeeShop_Free", "Airport_WiFi", "Hotel-Guest", "Apartment_5G",
}

// Vendor OUI prefixes used for simulated stations.
var vendorPrefixes = [][3]byte{
	{0x00, 0x17, 0xF2}, // Apple
	{0x00, 0x12, 0xFB}, // Samsung
	{0xF4, 0xF5, 0xD8}, // Google
	{0x34, 0xCE, 0x00}, // Xiaomi
	{0x00, 0x13, 0x02}, // Intel
	{0x00, 0x1C, 0x62}, // LG
}

// Key information words of the four handshake messages, as sent by common
// WPA2 access points and supplicants.
var keyInfo = map[domain.HandshakeMessage]uint16{
	domain.Msg1: 0x008a,
	domain.Msg2: 0x010a,
	domain.Msg3: 0x13ca,
	domain.Msg4: 0x030a,
}

// generateStationMAC returns a vendor-prefixed station address.
func generateStationMAC(r *rand.Rand) domain.MACAddress {
	prefix := vendorPrefixes[r.IntN(len(vendorPrefixes))]
	return domain.MACAddress{prefix[0], prefix[1], prefix[2], byte(r.IntN(256)), byte(r.IntN(256)), byte(r.IntN(256))}
}

// EAPOLFrame builds handshake message msg between bssid and station,
// oriented the way it travels over the air (M1/M3 from the AP, M2/M4 to it).
func EAPOLFrame(bssid, station domain.MACAddress, msg domain.HandshakeMessage, replay uint64) ([]byte, error) {
	dot11 := &layers.Dot11{Type: layers.Dot11TypeData, Address3: bssid.HardwareAddr()}
	if msg == domain.Msg1 || msg == domain.Msg3 {
		dot11.Flags = layers.Dot11FlagsFromDS
		dot11.Address1 = station.HardwareAddr()
		dot11.Address2 = bssid.HardwareAddr()
	} else {
		dot11.Flags = layers.Dot11FlagsToDS
		dot11.Address1 = bssid.HardwareAddr()
		dot11.Address2 = station.HardwareAddr()
	}

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		dot11,
		&layers.LLC{DSAP: 0xaa, SSAP: 0xaa, Control: 0x03},
		&layers.SNAP{OrganizationalCode: []byte{0, 0, 0}, Type: layers.EthernetTypeEAPOL},
		gopacket.Payload(eapolKeyBody(keyInfo[msg], replay)),
	)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// eapolKeyBody is an EAPOL-Key header with an RSN key descriptor and no key data.
func eapolKeyBody(info uint16, replay uint64) []byte {
	const descriptorLen = 95
	body := make([]byte, 4+descriptorLen)
	body[0] = 2 // 802.1X-2004
	body[1] = 3 // EAPOL-Key
	body[2], body[3] = 0, descriptorLen
	body[4] = 2 // RSN
	body[5], body[6] = byte(info>>8), byte(info)
	body[8] = 16 // key length
	for i := 0; i < 8; i++ {
		body[9+i] = byte(replay >> (56 - 8*i))
	}
	return body
}
