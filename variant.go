package anime

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Variant identifies one of the AniMe matrix layouts. The GA401 and GA402 use
// the same USB controller and product ID, so the variant is chosen from the
// laptop board name rather than from USB enumeration.
type Variant int

const (
	Unsupported Variant = iota
	GA401
	GA402
	GU604
)

const (
	// Bytes used by the pane prefix at the start of every data report
	blockStart = 7
	// Not inclusive, the byte before this is the final data byte of a pane
	blockEnd = 634
	// Usable data bytes per pane
	PaneLength = blockEnd - blockStart
)

// Variants lists every supported variant, in table order.
var Variants = []Variant{GA401, GA402, GU604}

func (v Variant) String() string {
	switch v {
	case GA401:
		return "GA401"
	case GA402:
		return "GA402"
	case GU604:
		return "GU604"
	default:
		return "Unsupported"
	}
}

// ParseVariant accepts the model names used in configuration files.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GA401":
		return GA401, nil
	case "GA402":
		return GA402, nil
	case "GU604":
		return GU604, nil
	}
	return Unsupported, &UnsupportedVariantError{Name: s}
}

// MarshalText implements encoding.TextMarshaler so a variant can be written in
// YAML or TOML configuration.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Supported reports whether geometry and packets exist for the variant.
func (v Variant) Supported() bool {
	return v == GA401 || v == GA402 || v == GU604
}

// Panes is the number of data reports needed for one full frame.
func (v Variant) Panes() int {
	switch v {
	case GA401:
		return 2
	case GA402, GU604:
		return 3
	}
	panic(fmt.Sprintf("anime: no pane layout for variant %s", v))
}

// DataLength is the length of a FrameBuffer for this variant.
func (v Variant) DataLength() int {
	return PaneLength * v.Panes()
}

// dataOffset is the number of padding bytes before the first LED slot.
func (v Variant) dataOffset() int {
	if v == GA401 {
		return 1
	}
	return 0
}

// DiagonalWidth is the width of the ASUS slanted image template.
func (v Variant) DiagonalWidth() int {
	if v == GU604 {
		return 70
	}
	return 74
}

// DiagonalHeight is the height of the ASUS slanted image template.
func (v Variant) DiagonalHeight() int {
	switch v {
	case GA401:
		return 36
	case GU604:
		return 43
	}
	return 39
}

type boardMatch struct {
	variant Variant
	prefix  string
}

var (
	boardsMu sync.RWMutex
	boards   []boardMatch
)

// RegisterBoard declares which laptop board names carry a given variant,
// intended for use by subpackage "devices"
func RegisterBoard(variant Variant, boardPrefixes ...string) {
	boardsMu.Lock()
	defer boardsMu.Unlock()
	for _, p := range boardPrefixes {
		boards = append(boards, boardMatch{variant: variant, prefix: strings.ToUpper(p)})
	}
}

// VariantForBoard matches a DMI board name against the registered boards.
func VariantForBoard(boardName string) Variant {
	name := strings.ToUpper(boardName)
	boardsMu.RLock()
	defer boardsMu.RUnlock()
	for _, b := range boards {
		if strings.Contains(name, b.prefix) {
			return b.variant
		}
	}
	return Unsupported
}

const dmiBoardName = "/sys/class/dmi/id/board_name"

// DetectVariant reads the board name from DMI and matches it. The match is
// broad, so an opened Session must still confirm the USB device exists.
func DetectVariant() (Variant, error) {
	raw, err := os.ReadFile(dmiBoardName)
	if err != nil {
		return Unsupported, fmt.Errorf("read board name: %w", err)
	}
	board := strings.TrimSpace(string(raw))
	v := VariantForBoard(board)
	if v == Unsupported {
		return v, &UnsupportedVariantError{Name: board}
	}
	return v, nil
}
