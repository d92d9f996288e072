package domain

import (
	"errors"
	"time"
)

// AttackType identifies the transmission mode installed on the radios.
type AttackType string

const (
	AttackNone             AttackType = "none"
	AttackDeauth           AttackType = "deauth"
	AttackBeaconSpam       AttackType = "beacon_spam"
	AttackProbeFlood       AttackType = "probe_flood"
	AttackHandshakeCapture AttackType = "handshake_capture"
	AttackBLESpam          AttackType = "ble_spam"
	AttackBLESpamAll       AttackType = "ble_spam_all"
)

// IsBLE reports whether the attack uses the BLE radio.
func (t AttackType) IsBLE() bool {
	return t == AttackBLESpam || t == AttackBLESpamAll
}

// AttackStatus represents the lifecycle state of an attack session.
type AttackStatus string

const (
	AttackPending AttackStatus = "pending"
	AttackRunning AttackStatus = "running"
	AttackStopped AttackStatus = "stopped"
	AttackFailed  AttackStatus = "failed"
)

// AttackSession encapsulates the runtime state and counters of one attack.
type AttackSession struct {
	ID               string       `json:"id"`
	Type             AttackType   `json:"type"`
	Vendor           Vendor       `json:"vendor,omitempty"`
	Target           *MACAddress  `json:"target,omitempty"`
	Status           AttackStatus `json:"status"`
	StartTime        time.Time    `json:"start_time"`
	EndTime          *time.Time   `json:"end_time,omitempty"`
	PacketsSent      uint64       `json:"packets_sent"`
	TransmitFailures uint64       `json:"transmit_failures"`
	RotationIndex    int          `json:"rotation_index"`
	ErrorMessage     string       `json:"error_message,omitempty"`
}

// NewAttackSession initializes a pending session.
func NewAttackSession(id string, t AttackType) *AttackSession {
	return &AttackSession{
		ID:     id,
		Type:   t,
		Status: AttackPending,
	}
}

// Start transitions the session to running and resets its counters.
func (s *AttackSession) Start(now time.Time) error {
	if s.IsActive() {
		return errors.New("attack session is already active")
	}
	s.Status = AttackRunning
	s.StartTime = now
	s.EndTime = nil
	s.PacketsSent = 0
	s.TransmitFailures = 0
	s.RotationIndex = 0
	s.ErrorMessage = ""
	return nil
}

// Stop terminates the session. Stopping a finished session is a no-op.
func (s *AttackSession) Stop(now time.Time) {
	if s.Status == AttackStopped || s.Status == AttackFailed {
		return
	}
	s.Status = AttackStopped
	s.EndTime = &now
}

// Fail terminates the session due to a runtime error.
func (s *AttackSession) Fail(now time.Time, err error) {
	s.Status = AttackFailed
	if err != nil {
		s.ErrorMessage = err.Error()
	}
	s.EndTime = &now
}

// RecordSend counts a successful transmission and advances rotation modulo n.
func (s *AttackSession) RecordSend(n int) {
	if s.Status != AttackRunning {
		return
	}
	s.PacketsSent++
	if n > 0 {
		s.RotationIndex = (s.RotationIndex + 1) % n
	}
}

// RecordFailure counts a frame the driver did not accept.
func (s *AttackSession) RecordFailure() {
	if s.Status != AttackRunning {
		return
	}
	s.TransmitFailures++
}

// IsActive returns true while the session permits execution.
func (s *AttackSession) IsActive() bool {
	return s.Status == AttackRunning
}

// Duration returns the wall-clock time the session ran, measured to now while active.
func (s *AttackSession) Duration(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}
