package anime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroFramePackets(t *testing.T) {
	for _, v := range Variants {
		t.Run(v.String(), func(t *testing.T) {
			pkts := Packets(NewFrameBuffer(v))
			require.Len(t, pkts, v.Panes())
			for i, pkt := range pkts {
				require.Len(t, pkt, ReportLength)
				assert.Equal(t, panePrefixes[i][:], pkt[:blockStart])
				for j, b := range pkt[blockStart:] {
					if b != 0 {
						t.Fatalf("pane %d byte %d is %#x", i, blockStart+j, b)
					}
				}
			}
		})
	}
}

func TestPacketsAreDeterministic(t *testing.T) {
	fb := NewFrameBuffer(GA402)
	for i := range Positions(GA402) {
		fb.SetSlot(i, byte(i))
	}
	assert.Equal(t, Packets(fb), Packets(fb.Clone()))
}

func TestPacketPaneLayout(t *testing.T) {
	fb := NewFrameBuffer(GA402)
	fb.SetSlot(0, 1)
	fb.SetSlot(PaneLength, 2)
	fb.SetSlot(2*PaneLength, 3)
	pkts := Packets(fb)
	assert.Equal(t, byte(1), pkts[0][blockStart])
	assert.Equal(t, byte(2), pkts[1][blockStart])
	assert.Equal(t, byte(3), pkts[2][blockStart])
	// nothing is written past the pane area
	assert.Equal(t, make([]byte, ReportLength-blockEnd), pkts[0][blockEnd:])
}

func TestGA401DataOffset(t *testing.T) {
	fb := NewFrameBuffer(GA401)
	fb.SetSlot(0, 0xff)
	pkts := Packets(fb)
	require.Len(t, pkts, 2)
	assert.Equal(t, byte(0), pkts[0][blockStart])
	assert.Equal(t, byte(0xff), pkts[0][blockStart+1])
}

func TestPacketsPanicOnInvalidBuffer(t *testing.T) {
	assert.Panics(t, func() { Packets(FrameBuffer{variant: GA402, data: make([]byte, 10)}) })
}

func TestControlPackets(t *testing.T) {
	pkts := PktsInit()
	require.Len(t, pkts, 2)
	assert.Equal(t, []byte("^ASUS TECH.INC."), pkts[0][:15])
	assert.Equal(t, []byte{0x5e, 0xc2}, pkts[1][:2])

	for _, tc := range []struct {
		name string
		pkt  []byte
		want []byte
	}{
		{"flush", PktFlush(), []byte{0x5e, 0xc0, 0x03}},
		{"brightness", PktSetBrightness(BrightnessHigh), []byte{0x5e, 0xc0, 0x04, 0x03}},
		{"display on", PktSetEnableDisplay(true), []byte{0x5e, 0xc3, 0x01, 0x00}},
		{"display off", PktSetEnableDisplay(false), []byte{0x5e, 0xc3, 0x01, 0x80}},
		{"powersave on", PktSetEnablePowersaveAnim(true), []byte{0x5e, 0xc4, 0x01, 0x00}},
		{"powersave off", PktSetEnablePowersaveAnim(false), []byte{0x5e, 0xc4, 0x01, 0x80}},
		{"builtins", PktSetBuiltinAnimations(StaticEmergence, RogLogoGlitch, BannerSwipe, SeeYa), []byte{0x5e, 0xc5, 0x0d}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Len(t, tc.pkt, ReportLength)
			assert.Equal(t, tc.want, tc.pkt[:len(tc.want)])
			assert.Equal(t, make([]byte, ReportLength-len(tc.want)), tc.pkt[len(tc.want):])
		})
	}
}
