package domain

import (
	"fmt"
	"strings"
)

// Vendor selects one of the BLE pairing protocols that can be impersonated.
type Vendor string

const (
	VendorApple     Vendor = "apple"
	VendorSamsung   Vendor = "samsung"
	VendorGoogle    Vendor = "google"
	VendorMicrosoft Vendor = "microsoft"
)

// Vendors is the rotation order used by "rotate all" spam.
var Vendors = []Vendor{VendorApple, VendorSamsung, VendorGoogle, VendorMicrosoft}

// ParseVendor maps a case-insensitive name onto a Vendor.
func ParseVendor(s string) (Vendor, error) {
	v := Vendor(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Vendors {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vendor %q", s)
}

// DeviceCode is one catalogue entry: the wire code and a display name.
type DeviceCode struct {
	Code uint32 `json:"code"`
	Name string `json:"name"`
}

// AttackProfile couples a vendor with the catalogue its payloads draw from.
type AttackProfile struct {
	Vendor    Vendor       `json:"vendor"`
	Catalogue []DeviceCode `json:"catalogue"`
}

// BLEAdvertisement is what the spoofer hands to the radio for one send.
type BLEAdvertisement struct {
	Vendor   Vendor
	Identity MACAddress // address peers observe
	Base     MACAddress // address programmed into the controller
	Payload  Frame
}
