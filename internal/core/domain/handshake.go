package domain

import "time"

// HandshakeMessage identifies one message of the WPA/WPA2 4-way handshake.
type HandshakeMessage uint8

const (
	Msg1 HandshakeMessage = 1
	Msg2 HandshakeMessage = 2
	Msg3 HandshakeMessage = 3
	Msg4 HandshakeMessage = 4
)

func (m HandshakeMessage) String() string {
	switch m {
	case Msg1:
		return "M1"
	case Msg2:
		return "M2"
	case Msg3:
		return "M3"
	case Msg4:
		return "M4"
	}
	return "unknown"
}

// Valid reports whether m is one of the four handshake messages.
func (m HandshakeMessage) Valid() bool {
	return m >= Msg1 && m <= Msg4
}

// MessageSet is a bitmask of captured handshake messages (bit n-1 = message n).
type MessageSet uint8

const allMessages MessageSet = 0x0f

// SetOf builds a set from the given messages, ignoring invalid ones.
func SetOf(msgs ...HandshakeMessage) MessageSet {
	var s MessageSet
	for _, m := range msgs {
		s = s.With(m)
	}
	return s
}

// With returns the set with m added.
func (s MessageSet) With(m HandshakeMessage) MessageSet {
	if !m.Valid() {
		return s
	}
	return s | 1<<(m-1)
}

// Has reports whether m is in the set.
func (s MessageSet) Has(m HandshakeMessage) bool {
	return m.Valid() && s&(1<<(m-1)) != 0
}

// Count returns the number of distinct messages captured.
func (s MessageSet) Count() int {
	n := 0
	for m := Msg1; m <= Msg4; m++ {
		if s.Has(m) {
			n++
		}
	}
	return n
}

// Complete reports whether all four messages are present.
func (s MessageSet) Complete() bool {
	return s&allMessages == allMessages
}

// Messages lists the members in canonical order.
func (s MessageSet) Messages() []HandshakeMessage {
	var out []HandshakeMessage
	for m := Msg1; m <= Msg4; m++ {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// HandshakeStage is the capture progress of a single target.
type HandshakeStage string

const (
	StageWaiting  HandshakeStage = "WAITING"
	StageGot1     HandshakeStage = "GOT_1"
	StageGot12    HandshakeStage = "GOT_1_2"
	StageGot123   HandshakeStage = "GOT_1_2_3"
	StageComplete HandshakeStage = "COMPLETE"
)

// HandshakeState is the per-BSSID capture record. Flags are set-once; only an
// explicit session restart clears them.
type HandshakeState struct {
	BSSID        MACAddress `json:"bssid"`
	Channel      Channel    `json:"channel"`
	Messages     MessageSet `json:"messages"`
	EAPOLPackets int        `json:"eapol_packets"`
	StartedAt    time.Time  `json:"started_at"`
	CaptureTime  time.Time  `json:"capture_time,omitempty"`
}

// Complete reports whether all four flags are set.
func (s HandshakeState) Complete() bool {
	return s.Messages.Complete()
}

// Stage maps the number of distinct messages onto the capture ladder. Arrival
// order does not matter: three distinct messages is GOT_1_2_3 whichever three.
func (s HandshakeState) Stage() HandshakeStage {
	switch s.Messages.Count() {
	case 0:
		return StageWaiting
	case 1:
		return StageGot1
	case 2:
		return StageGot12
	case 3:
		return StageGot123
	}
	return StageComplete
}
