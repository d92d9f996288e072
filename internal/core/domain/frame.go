package domain

import "fmt"

// Frame is a raw buffer handed to a radio. It is built per transmission and
// discarded after send.
type Frame []byte

// Len returns the frame length in bytes.
func (f Frame) Len() int {
	return len(f)
}

// Channel is a 2.4GHz WiFi channel number.
type Channel uint8

const (
	MinChannel Channel = 1
	MaxChannel Channel = 14
)

// Channels2GHz is the default rotation list (channel 14 is Japan-only).
var Channels2GHz = []Channel{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}

// Validate checks the channel lies in [1,14].
func (c Channel) Validate() error {
	if c < MinChannel || c > MaxChannel {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, c)
	}
	return nil
}

// ParseChannel converts an int, validating the range.
func ParseChannel(n int) (Channel, error) {
	if n < int(MinChannel) || n > int(MaxChannel) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidChannel, n)
	}
	return Channel(n), nil
}
