package anime

import (
	"fmt"
	"math"
)

// FrameBuffer is one full frame for a variant: a brightness byte per wire
// slot, dead slots and padding left at zero. Its length is always
// Variant.DataLength().
type FrameBuffer struct {
	variant Variant
	data    []byte
}

// NewFrameBuffer returns an all-zero (off) frame for the variant.
func NewFrameBuffer(v Variant) FrameBuffer {
	return FrameBuffer{variant: v, data: make([]byte, v.DataLength())}
}

// FrameBufferFromBytes wraps raw frame data, typically received from a client
// over D-Bus. The slice is copied.
func FrameBufferFromBytes(v Variant, b []byte) (FrameBuffer, error) {
	if !v.Supported() {
		return FrameBuffer{}, &UnsupportedVariantError{Name: v.String()}
	}
	if len(b) != v.DataLength() {
		return FrameBuffer{}, fmt.Errorf("anime: frame for %s must be %d bytes, got %d", v, v.DataLength(), len(b))
	}
	fb := NewFrameBuffer(v)
	copy(fb.data, b)
	return fb, nil
}

// Variant returns the layout this frame was built for.
func (f FrameBuffer) Variant() Variant {
	return f.variant
}

// Data returns the wire-order bytes. Callers must not modify the result.
func (f FrameBuffer) Data() []byte {
	return f.data
}

// Len is the byte length of the frame.
func (f FrameBuffer) Len() int {
	return len(f.data)
}

// Valid reports whether the frame length matches its variant.
func (f FrameBuffer) Valid() bool {
	return f.variant.Supported() && len(f.data) == f.variant.DataLength()
}

// Clone returns a deep copy.
func (f FrameBuffer) Clone() FrameBuffer {
	c := FrameBuffer{variant: f.variant, data: make([]byte, len(f.data))}
	copy(c.data, f.data)
	return c
}

// Scaled returns a copy with every byte multiplied by s, rounded and clamped.
// A scale of 1 returns the frame itself.
func (f FrameBuffer) Scaled(s float64) FrameBuffer {
	if s == 1 {
		return f
	}
	c := f.Clone()
	for i, b := range c.data {
		c.data[i] = clampByte(float64(b) * s)
	}
	return c
}

// SetSlot sets the brightness of the LED at slot index i of the position
// table. Writes to dead slots are ignored so padding always stays zero.
func (f FrameBuffer) SetSlot(i int, b byte) {
	slots := Positions(f.variant)
	if i < 0 || i >= len(slots) || slots[i] == nil {
		return
	}
	f.data[f.variant.dataOffset()+i] = b
}

// Slot returns the brightness of slot index i.
func (f FrameBuffer) Slot(i int) byte {
	return f.data[f.variant.dataOffset()+i]
}

func clampByte(v float64) byte {
	v = math.Round(v)
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 255:
		return 255
	}
	return byte(v)
}
