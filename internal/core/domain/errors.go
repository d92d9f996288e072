package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the injection, radio and attack layers.
var (
	// ErrRadioUnavailable indicates the radio failed to initialize or is owned by another mode.
	ErrRadioUnavailable = errors.New("radio unavailable")

	// ErrMalformedFrameInput indicates an identifier exceeds its fixed-format length budget.
	ErrMalformedFrameInput = errors.New("malformed frame input")

	// ErrTransmitFailure indicates the driver did not accept a frame.
	ErrTransmitFailure = errors.New("transmit failure")

	// ErrInvalidChannel indicates a channel outside the 2.4GHz range [1,14].
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidMAC indicates a MAC address that could not be parsed.
	ErrInvalidMAC = errors.New("invalid MAC address")

	// ErrNoTargets indicates an attack was started without anything to rotate over.
	ErrNoTargets = errors.New("no targets configured")

	// ErrNotRunning indicates an operation that requires an active attack.
	ErrNotRunning = errors.New("no attack running")
)

// FrameInputError describes an identifier rejected before any byte was written.
type FrameInputError struct {
	Field  string // e.g. "ssid", "name"
	Length int
	Max    int
}

func (e *FrameInputError) Error() string {
	return fmt.Sprintf("%s length %d exceeds %d bytes", e.Field, e.Length, e.Max)
}

func (e *FrameInputError) Unwrap() error {
	return ErrMalformedFrameInput
}

// TransmitError wraps a driver rejection with the channel it was destined for.
type TransmitError struct {
	Channel Channel
	Err     error
}

func (e *TransmitError) Error() string {
	if e.Channel == 0 {
		return fmt.Sprintf("transmit failed: %v", e.Err)
	}
	return fmt.Sprintf("transmit on channel %d failed: %v", e.Channel, e.Err)
}

// Is reports ErrTransmitFailure so callers need not know the driver error.
func (e *TransmitError) Is(target error) bool {
	return target == ErrTransmitFailure
}

func (e *TransmitError) Unwrap() error {
	return e.Err
}

// RadioError wraps a radio init/teardown failure.
type RadioError struct {
	Op  string // "acquire", "install", "reinit", ...
	Err error
}

func (e *RadioError) Error() string {
	return fmt.Sprintf("radio %s failed: %v", e.Op, e.Err)
}

// Is reports ErrRadioUnavailable for every radio lifecycle failure.
func (e *RadioError) Is(target error) bool {
	return target == ErrRadioUnavailable
}

func (e *RadioError) Unwrap() error {
	return e.Err
}
