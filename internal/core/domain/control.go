package domain

import "fmt"

// AttackRequest describes an attack to start. Which fields apply depends on
// Type; a BLE request without a Vendor rotates through all of them.
type AttackRequest struct {
	Type     AttackType  `json:"type"`
	BSSID    *MACAddress `json:"bssid,omitempty"`
	Channel  Channel     `json:"channel,omitempty"`
	SSIDs    []string    `json:"ssids,omitempty"`
	Channels []Channel   `json:"channels,omitempty"`
	Vendor   Vendor      `json:"vendor,omitempty"`
}

// Validate checks that the fields required by Type are present. Length and
// range checks are left to the frame builders.
func (r AttackRequest) Validate() error {
	switch r.Type {
	case AttackDeauth, AttackHandshakeCapture:
		if r.BSSID == nil {
			return fmt.Errorf("%w: %s needs a bssid", ErrNoTargets, r.Type)
		}
		return r.Channel.Validate()
	case AttackBeaconSpam, AttackProbeFlood:
		if len(r.SSIDs) == 0 {
			return fmt.Errorf("%w: %s needs at least one ssid", ErrNoTargets, r.Type)
		}
		for _, ch := range r.Channels {
			if err := ch.Validate(); err != nil {
				return err
			}
		}
		return nil
	case AttackBLESpam, AttackBLESpamAll:
		if r.Vendor != "" {
			_, err := ParseVendor(string(r.Vendor))
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown attack type %q", r.Type)
	}
}

// EngineStatus is the snapshot exposed to UI collaborators.
type EngineStatus struct {
	Running           bool            `json:"running"`
	Attack            AttackType      `json:"attack"`
	PacketsSent       uint64          `json:"packets_sent"`
	Session           *AttackSession  `json:"session,omitempty"`
	Handshake         *HandshakeState `json:"handshake,omitempty"`
	HandshakeComplete bool            `json:"handshake_complete"`
}
