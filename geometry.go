package anime

import (
	"fmt"
	"sync"
)

// LedSlot is the position of a single LED in LED-grid units. A nil *LedSlot
// in a position table is a dead slot: it has no LED but still occupies a byte
// on the wire.
type LedSlot struct {
	X float64
	Y float64
}

// ScaleX is the horizontal LED pitch in cm.
//
// This is the physical width of the display from LED center to LED center,
// divided by the LED count of the longest row plus half an LED:
//
//	GA401: 26.8 / (33 + 0.5) = 0.8
//	GA402: 27.4 / (35 + 0.5) = 0.77
//	GU604: 30.9 / (39 + 0.5) = 0.78
func (v Variant) ScaleX() float64 {
	switch v {
	case GA401:
		return 0.8
	case GU604:
		return 0.78
	}
	return 0.77
}

// ScaleY is the vertical LED pitch in cm.
//
//	GA401: 16.5 / (54 + 1) = 0.3
//	GA402: 17.3 / 61       = 0.283
//	GU604: 17.7 / (62 + 1) = 0.28
func (v Variant) ScaleY() float64 {
	switch v {
	case GA401:
		return 0.3
	case GU604:
		return 0.28
	}
	return 0.283
}

// PhysWidth is the display width in cm.
func (v Variant) PhysWidth() float64 {
	switch v {
	case GA401:
		// longest physical row plus the half LED offset of odd rows
		return (33.0 + 0.5) * v.ScaleX()
	case GU604:
		return (38.0 + 0.5) * v.ScaleX()
	}
	return (35.0 + 0.5) * v.ScaleX()
}

// PhysHeight is the display height in cm.
func (v Variant) PhysHeight() float64 {
	switch v {
	case GA401:
		// end column LED count plus one dead pixel
		return (54.0 + 1.0) * v.ScaleY()
	case GU604:
		return 62.0 * v.ScaleY()
	}
	return 61.0 * v.ScaleY()
}

// Rows is the number of physical LED rows.
func (v Variant) Rows() int {
	switch v {
	case GA401:
		return 55
	case GU604:
		return 62
	case GA402:
		return 61
	}
	panic(fmt.Sprintf("anime: no geometry for variant %s", v))
}

func (v Variant) checkRow(y int) {
	if y < 0 || y >= v.Rows() {
		panic(fmt.Sprintf("anime: row %d out of range for %s", y, v))
	}
}

// FirstX is the column on the full square grid where the first LED of row y
// sits. The display has a slanted lower-left edge, so lower rows start
// further right:
//
//	+------------+
//	|            |
//	 \           |
//	  \          |
//	|--\         |
//	  ^ ---------+
//	first x
func (v Variant) FirstX(y int) int {
	v.checkRow(y)
	switch v {
	case GA401:
		// first 5 rows are always at x = 0
		if y < 5 {
			return 0
		}
		return (y+1)/2 - 3
	case GU604:
		if y <= 9 {
			return 0
		}
		// offset grows by one every two rows
		return (y - 9) / 2
	default:
		if y <= 11 {
			return 0
		}
		return (y+1)/2 - 5
	}
}

// Width is the count of physical LEDs in row y.
func (v Variant) Width(y int) int {
	v.checkRow(y)
	switch v {
	case GA401:
		if y < 5 {
			return 33
		}
		return 36 - (y+1)/2
	case GU604:
		if y <= 9 {
			return 38 + y%2
		}
		return 38 - v.FirstX(y) + y%2
	default:
		if y <= 11 {
			return 34
		}
		return 39 - y/2
	}
}

// Pitch is the number of wire bytes used by row y, including dead padding.
func (v Variant) Pitch(y int) int {
	v.checkRow(y)
	if v == GA401 {
		switch y {
		case 0, 2, 4:
			return 33
		case 1, 3:
			// padded rows
			return 35
		}
		return 36 - y/2
	}
	// GA402 and GU604 have no padding
	return v.Width(y)
}

// GeneratePositions builds the ordered slot table for a variant. Index i of
// the result lands at wire offset i of the LED area of a FrameBuffer.
func GeneratePositions(v Variant) []*LedSlot {
	rows := v.Rows()
	var slots []*LedSlot
	for y := 0; y < rows; y++ {
		first := v.FirstX(y)
		width := v.Width(y)
		pitch := v.Pitch(y)
		for l := 0; l < pitch; l++ {
			if l >= width {
				slots = append(slots, nil)
				continue
			}
			x := float64(first+l) - 0.5*float64(y%2)
			slots = append(slots, &LedSlot{X: x, Y: float64(y)})
		}
	}
	return slots
}

var (
	positionsOnce  sync.Once
	positionTables map[Variant][]*LedSlot
)

// Positions returns the cached slot table for a variant. The table is built
// once per process and must not be modified by callers.
func Positions(v Variant) []*LedSlot {
	positionsOnce.Do(func() {
		positionTables = make(map[Variant][]*LedSlot, len(Variants))
		for _, variant := range Variants {
			positionTables[variant] = GeneratePositions(variant)
		}
	})
	slots, ok := positionTables[v]
	if !ok {
		panic(fmt.Sprintf("anime: no geometry for variant %s", v))
	}
	return slots
}

// LiveLEDs counts the slots that carry a physical LED.
func (v Variant) LiveLEDs() int {
	n := 0
	for _, s := range Positions(v) {
		if s != nil {
			n++
		}
	}
	return n
}
