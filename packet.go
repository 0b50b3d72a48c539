package anime

import "fmt"

// Use of the device requires a few steps:
//  1. Initialise the device by writing the two packets from PktsInit
//  2. Write the pane packets from Packets
//  3. Write PktFlush, which tells the device to display the data from step 2
//
// Step 1 needs to be applied only once after boot.

const (
	// ReportLength is the fixed size of every report sent to the device
	ReportLength = 640
	devPage      = 0x5e

	VendorID  = 0x0b05
	ProductID = 0x193b
)

var initString = []byte{devPage, 'A', 'S', 'U', 'S', ' ', 'T', 'E', 'C', 'H', '.', 'I', 'N', 'C', '.'}

// pane headers, in pane order
var panePrefixes = [][blockStart]byte{
	{devPage, 0xc0, 0x02, 0x01, 0x00, 0x73, 0x02},
	{devPage, 0xc0, 0x02, 0x74, 0x02, 0x73, 0x02},
	{devPage, 0xc0, 0x02, 0xe7, 0x04, 0x73, 0x02},
}

// Packets splits a frame into one report per pane, each with its pane prefix
// and zero padding. A frame whose length does not match its variant is a
// programming error and panics.
func Packets(fb FrameBuffer) [][]byte {
	if !fb.Valid() {
		panic(fmt.Sprintf("anime: frame buffer of %d bytes is not valid for %s", fb.Len(), fb.Variant()))
	}
	data := fb.Data()
	panes := fb.Variant().Panes()
	out := make([][]byte, panes)
	for i := 0; i < panes; i++ {
		pkt := make([]byte, ReportLength)
		copy(pkt, panePrefixes[i][:])
		copy(pkt[blockStart:blockEnd], data[i*PaneLength:(i+1)*PaneLength])
		out[i] = pkt
	}
	return out
}

func report(b ...byte) []byte {
	pkt := make([]byte, ReportLength)
	copy(pkt, b)
	return pkt
}

// PktsInit returns the two initialisation reports required once after boot.
func PktsInit() [][]byte {
	return [][]byte{report(initString...), report(devPage, 0xc2)}
}

// PktFlush commits the last written pane data to the display.
func PktFlush() []byte {
	return report(devPage, 0xc0, 0x03)
}

// PktSetBrightness sets the global display brightness level.
func PktSetBrightness(b Brightness) []byte {
	return report(devPage, 0xc0, 0x04, byte(b))
}

// PktSetEnableDisplay turns the whole display on or off.
func PktSetEnableDisplay(on bool) []byte {
	return report(devPage, 0xc3, 0x01, onOff(on))
}

// PktSetEnablePowersaveAnim enables the builtin power-save animations.
func PktSetEnablePowersaveAnim(on bool) []byte {
	return report(devPage, 0xc4, 0x01, onOff(on))
}

// PktSetBuiltinAnimations selects the builtin animation for each stage.
func PktSetBuiltinAnimations(boot BootAnim, awake AwakeAnim, sleep SleepAnim, shutdown ShutdownAnim) []byte {
	sel := byte(awake) | byte(sleep)<<1 | byte(shutdown)<<2 | byte(boot)<<3
	return report(devPage, 0xc5, sel)
}

func onOff(on bool) byte {
	if on {
		return 0x00
	}
	return 0x80
}
