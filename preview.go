package anime

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
)

// Preview renders a frame as the display would show it: every live LED is a
// grey dot at its physical position, odd rows shifted by half an LED. The
// result is upscaled by scale with nearest-neighbour resampling.
func Preview(fb FrameBuffer, scale int) image.Image {
	v := fb.Variant()
	if scale < 1 {
		scale = 1
	}
	slots := Positions(v)
	// two columns per LED so the half-LED row offset lands on a pixel
	maxX := 0.0
	for _, s := range slots {
		if s != nil && s.X > maxX {
			maxX = s.X
		}
	}
	w := int(math.Ceil(maxX+1))*2 + 1
	h := v.Rows()
	small := image.NewGray(image.Rect(0, 0, w, h))
	for i, s := range slots {
		if s == nil {
			continue
		}
		x := int(math.Round((s.X + 0.5) * 2))
		b := fb.Slot(i)
		small.SetGray(x, int(s.Y), color.Gray{Y: b})
		if x+1 < w {
			small.SetGray(x+1, int(s.Y), color.Gray{Y: b})
		}
	}

	// LEDs are taller than they are wide on the panel
	aspect := v.ScaleY() / (v.ScaleX() / 2)
	g := gift.New(gift.Resize(w*scale, int(float64(h)*aspect*float64(scale)), gift.NearestNeighborResampling))
	res := image.NewGray(g.Bounds(small.Bounds()))
	g.Draw(res, small)
	return res
}
