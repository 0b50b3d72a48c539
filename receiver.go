package anime

import (
	"bytes"
	"fmt"
)

// ReportKind classifies a report as the device interprets it.
type ReportKind int

const (
	ReportUnknown ReportKind = iota
	ReportInit
	ReportPane
	ReportFlush
	ReportBrightness
	ReportDisplay
	ReportPowersave
	ReportBuiltins
)

// Receiver reassembles the reports a Session writes into frames and device
// state, the way the matrix controller does. It backs the simulator.
type Receiver struct {
	variant Variant
	pending FrameBuffer

	// Frame is the last flushed frame
	Frame FrameBuffer

	Initialised    bool
	DisplayEnabled bool
	PowersaveAnims bool
	Brightness     Brightness
	Builtins       Builtins
	Flushes        int
}

func NewReceiver(v Variant) *Receiver {
	return &Receiver{
		variant:        v,
		pending:        NewFrameBuffer(v),
		Frame:          NewFrameBuffer(v),
		DisplayEnabled: true,
		PowersaveAnims: true,
		Brightness:     BrightnessMed,
	}
}

// Handle applies one report and returns what it was.
func (r *Receiver) Handle(pkt []byte) (ReportKind, error) {
	if len(pkt) < 4 || pkt[0] != devPage {
		return ReportUnknown, fmt.Errorf("anime: report does not start with page %#x", devPage)
	}
	switch {
	case bytes.HasPrefix(pkt, initString):
		return ReportInit, nil
	case pkt[1] == 0xc2:
		r.Initialised = true
		return ReportInit, nil
	case pkt[1] == 0xc0 && pkt[2] == 0x02:
		return ReportPane, r.pane(pkt)
	case pkt[1] == 0xc0 && pkt[2] == 0x03:
		r.Frame = r.pending.Clone()
		r.Flushes++
		return ReportFlush, nil
	case pkt[1] == 0xc0 && pkt[2] == 0x04:
		r.Brightness = Brightness(pkt[3])
		return ReportBrightness, nil
	case pkt[1] == 0xc3 && pkt[2] == 0x01:
		r.DisplayEnabled = pkt[3] == 0x00
		return ReportDisplay, nil
	case pkt[1] == 0xc4 && pkt[2] == 0x01:
		r.PowersaveAnims = pkt[3] == 0x00
		return ReportPowersave, nil
	case pkt[1] == 0xc5:
		sel := pkt[2]
		r.Builtins = Builtins{
			Awake:    AwakeAnim(sel & 1),
			Sleep:    SleepAnim(sel>>1&1),
			Shutdown: ShutdownAnim(sel>>2&1),
			Boot:     BootAnim(sel>>3&1),
		}
		return ReportBuiltins, nil
	}
	return ReportUnknown, nil
}

func (r *Receiver) pane(pkt []byte) error {
	if len(pkt) < blockEnd {
		return fmt.Errorf("anime: pane report of %d bytes", len(pkt))
	}
	for i := 0; i < r.variant.Panes(); i++ {
		if bytes.Equal(pkt[:blockStart], panePrefixes[i][:]) {
			copy(r.pending.data[i*PaneLength:(i+1)*PaneLength], pkt[blockStart:blockEnd])
			return nil
		}
	}
	return fmt.Errorf("anime: unknown pane index %#x for %s", pkt[3], r.variant)
}
