package injection

import (
	"encoding/binary"
	"fmt"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

// FrameWriter appends fields into a buffer of fixed capacity. Any write that
// would exceed the capacity fails and leaves the buffer untouched, so a frame
// is either complete or not produced at all.
type FrameWriter struct {
	buf []byte
	err error
}

// NewFrameWriter allocates a writer able to hold exactly capacity bytes.
func NewFrameWriter(capacity int) *FrameWriter {
	return &FrameWriter{buf: make([]byte, 0, capacity)}
}

func (w *FrameWriter) reserve(n int) bool {
	if w.err != nil {
		return false
	}
	if len(w.buf)+n > cap(w.buf) {
		w.err = fmt.Errorf("%w: write of %d bytes at offset %d overflows %d-byte frame",
			domain.ErrMalformedFrameInput, n, len(w.buf), cap(w.buf))
		return false
	}
	return true
}

// Byte appends a single byte.
func (w *FrameWriter) Byte(b byte) *FrameWriter {
	if w.reserve(1) {
		w.buf = append(w.buf, b)
	}
	return w
}

// Bytes appends p verbatim.
func (w *FrameWriter) Bytes(p ...byte) *FrameWriter {
	if w.reserve(len(p)) {
		w.buf = append(w.buf, p...)
	}
	return w
}

// Uint16LE appends v little-endian (802.11 and BLE company IDs).
func (w *FrameWriter) Uint16LE(v uint16) *FrameWriter {
	if w.reserve(2) {
		w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	}
	return w
}

// Uint16BE appends v big-endian.
func (w *FrameWriter) Uint16BE(v uint16) *FrameWriter {
	if w.reserve(2) {
		w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	}
	return w
}

// Uint64LE appends v little-endian.
func (w *FrameWriter) Uint64LE(v uint64) *FrameWriter {
	if w.reserve(8) {
		w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	}
	return w
}

// Element appends an 802.11 information element: id, length, data.
func (w *FrameWriter) Element(id byte, data []byte) *FrameWriter {
	if len(data) > 0xff {
		if w.err == nil {
			w.err = fmt.Errorf("%w: element %d carries %d bytes", domain.ErrMalformedFrameInput, id, len(data))
		}
		return w
	}
	if w.reserve(2 + len(data)) {
		w.buf = append(w.buf, id, byte(len(data)))
		w.buf = append(w.buf, data...)
	}
	return w
}

// ADStructure appends a BLE advertising data structure: length, type, data.
// The length byte counts the type byte plus data.
func (w *FrameWriter) ADStructure(adType byte, data ...byte) *FrameWriter {
	if len(data)+1 > 0xff {
		if w.err == nil {
			w.err = fmt.Errorf("%w: AD type 0x%02x carries %d bytes", domain.ErrMalformedFrameInput, adType, len(data))
		}
		return w
	}
	if w.reserve(2 + len(data)) {
		w.buf = append(w.buf, byte(len(data)+1), adType)
		w.buf = append(w.buf, data...)
	}
	return w
}

// Len returns the number of bytes written so far.
func (w *FrameWriter) Len() int {
	return len(w.buf)
}

// Frame returns the written bytes, or the first error encountered.
func (w *FrameWriter) Frame() (domain.Frame, error) {
	if w.err != nil {
		return nil, w.err
	}
	return domain.Frame(w.buf), nil
}

// FixedFrame is Frame for layouts that must fill the writer exactly.
func (w *FrameWriter) FixedFrame() (domain.Frame, error) {
	f, err := w.Frame()
	if err != nil {
		return nil, err
	}
	if len(f) != cap(w.buf) {
		return nil, fmt.Errorf("%w: fixed frame has %d of %d bytes", domain.ErrMalformedFrameInput, len(f), cap(w.buf))
	}
	return f, nil
}
