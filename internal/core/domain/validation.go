package domain

import (
	"regexp"
)

// Validation Helpers

var (
	interfaceRegex = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)
	hciRegex       = regexp.MustCompile(`^hci[0-9]{1,2}$`)
)

// MaxSSIDLength is the 802.11 SSID element budget.
const MaxSSIDLength = 32

// IsValidInterface checks if the string is a safe interface name (alphanumeric + - _)
func IsValidInterface(iface string) bool {
	// Length check (Linux interfaces are usually short, IFNAMSIZ is 16)
	if len(iface) == 0 || len(iface) > 16 {
		return false
	}
	return interfaceRegex.MatchString(iface)
}

// IsValidHCI checks a Bluetooth controller name such as "hci0".
func IsValidHCI(name string) bool {
	return hciRegex.MatchString(name)
}

// ValidateSSID rejects SSIDs that do not fit the SSID element.
func ValidateSSID(ssid string) error {
	if len(ssid) > MaxSSIDLength {
		return &FrameInputError{Field: "ssid", Length: len(ssid), Max: MaxSSIDLength}
	}
	return nil
}
