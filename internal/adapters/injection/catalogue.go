package injection

import "github.com/lcalzada-xor/wraith/internal/core/domain"

// AppleDevices are proximity-pairing device models (big-endian on the wire).
var AppleDevices = []domain.DeviceCode{
	{Code: 0x0220, Name: "AirPods"},
	{Code: 0x0F20, Name: "AirPods 2nd Gen"},
	{Code: 0x1320, Name: "AirPods 3rd Gen"},
	{Code: 0x0E20, Name: "AirPods Pro"},
	{Code: 0x1420, Name: "AirPods Pro 2nd Gen"},
	{Code: 0x0A20, Name: "AirPods Max"},
	{Code: 0x0320, Name: "Powerbeats 3"},
	{Code: 0x0B20, Name: "Powerbeats Pro"},
	{Code: 0x0C20, Name: "Beats Solo Pro"},
	{Code: 0x1120, Name: "Beats Studio Buds"},
}

// SamsungWatches are Galaxy Watch model bytes for the Easy Setup prompt.
var SamsungWatches = []domain.DeviceCode{
	{Code: 0x1A, Name: "Fallback Watch"},
	{Code: 0x01, Name: "White Watch4 Classic 44mm"},
	{Code: 0x02, Name: "Black Watch4 Classic 40mm"},
	{Code: 0x03, Name: "White Watch4 Classic 40mm"},
	{Code: 0x04, Name: "Black Watch4 44mm"},
	{Code: 0x05, Name: "Silver Watch4 44mm"},
	{Code: 0x06, Name: "Green Watch4 44mm"},
	{Code: 0x07, Name: "Black Watch4 40mm"},
	{Code: 0x08, Name: "White Watch4 40mm"},
	{Code: 0x09, Name: "Gold Watch4 40mm"},
	{Code: 0x0A, Name: "French Watch4"},
	{Code: 0x0B, Name: "French Watch4 Classic"},
	{Code: 0x0C, Name: "Fox Watch5 44mm"},
	{Code: 0x11, Name: "Black Watch5 44mm"},
	{Code: 0x12, Name: "Sapphire Watch5 44mm"},
	{Code: 0x13, Name: "Purpleish Watch5 40mm"},
	{Code: 0x14, Name: "Gold Watch5 40mm"},
	{Code: 0x15, Name: "Black Watch5 Pro 45mm"},
	{Code: 0x16, Name: "Gray Watch5 Pro 45mm"},
	{Code: 0x17, Name: "White Watch5 44mm"},
	{Code: 0x18, Name: "White & Black Watch5"},
	{Code: 0x1B, Name: "Black Watch6 Pink 40mm"},
	{Code: 0x1C, Name: "Gold Watch6 Gold 40mm"},
	{Code: 0x1D, Name: "Silver Watch6 Cyan 44mm"},
	{Code: 0x1E, Name: "Black Watch6 Classic 43mm"},
}

// FastPairModels are 24-bit Google Fast Pair model IDs.
var FastPairModels = []domain.DeviceCode{
	{Code: 0xCD8256, Name: "Bose NC 700"},
	{Code: 0x0000F0, Name: "Bose QuietComfort 35 II"},
	{Code: 0xF52494, Name: "JBL Buds Pro"},
	{Code: 0x718FA4, Name: "JBL Live 300TWS"},
	{Code: 0x821F66, Name: "JBL Flip 6"},
	{Code: 0x92BBBD, Name: "Pixel Buds"},
	{Code: 0xD446A7, Name: "Sony XM5"},
	{Code: 0x2D7A23, Name: "Sony WF-1000XM4"},
	{Code: 0x0E30C3, Name: "Razer Hammerhead TWS"},
	{Code: 0x72EF8D, Name: "Razer Hammerhead TWS X"},
}

// appleActions are the proximity action types that raise a popup on iOS.
var appleActions = []byte{0x27, 0x09, 0x02, 0x1E, 0x2B, 0x2D, 0x2F, 0x01, 0x06, 0x20, 0xC0}

// DefaultProfiles returns the built-in profiles in rotation order.
func DefaultProfiles() []domain.AttackProfile {
	return []domain.AttackProfile{
		{Vendor: domain.VendorApple, Catalogue: AppleDevices},
		{Vendor: domain.VendorSamsung, Catalogue: SamsungWatches},
		{Vendor: domain.VendorGoogle, Catalogue: FastPairModels},
		{Vendor: domain.VendorMicrosoft},
	}
}
