package anime

import (
	"bytes"
	"image/color"
	"image/gif"
	"io"
	"os"
	"strings"
	"time"
)

// stillFrameDelay is the frame delay used when a still image is played as a
// timed animation, so fades have frames to work with.
const stillFrameDelay = 30 * time.Millisecond

// gifFrames decodes a gif and draws the opaque pixels of each frame onto the
// caller's canvas, emitting once per frame. Frames with background disposal
// reset the canvas first.
func gifFrames(r io.Reader, source string, start func(w, h int), reset func(), draw func(x, y int, c color.NRGBA), emit func(time.Duration) error) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	g, err := gif.DecodeAll(bytes.NewReader(raw))
	if err != nil {
		// a valid header followed directly by the trailer has no frames
		if _, cerr := gif.DecodeConfig(bytes.NewReader(raw)); cerr == nil && strings.Contains(err.Error(), "missing image data") {
			return ErrNoFrames
		}
		return &FormatError{Source: source, Err: err}
	}
	if len(g.Image) == 0 {
		return ErrNoFrames
	}
	start(g.Config.Width, g.Config.Height)
	for i, frame := range g.Image {
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			reset()
		}
		b := frame.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				px := color.NRGBAModel.Convert(frame.At(x, y)).(color.NRGBA)
				// partially transparent pixels keep what is underneath
				if px.A != 255 {
					continue
				}
				draw(x, y, px)
			}
		}
		var delay time.Duration
		if i < len(g.Delay) {
			// gif delays are in 1/100 s
			delay = time.Duration(g.Delay[i]*10) * time.Millisecond
		}
		if err := emit(delay); err != nil {
			return err
		}
	}
	return nil
}

// GifFromReader decodes an animated gif of any size and samples every frame
// with placement p.
func GifFromReader(r io.Reader, p Placement, t AnimTime, v Variant) (*Animation, error) {
	return gifSampled(r, "", p, t, v)
}

// GifFromFile is GifFromReader for a file.
func GifFromFile(path string, p Placement, t AnimTime, v Variant) (*Animation, error) {
	if err := validBrightness(p.Brightness); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return gifSampled(f, path, p, t, v)
}

func gifSampled(r io.Reader, source string, p Placement, t AnimTime, v Variant) (*Animation, error) {
	if err := validBrightness(p.Brightness); err != nil {
		return nil, err
	}
	var canvas *Raster
	anim := &Animation{Time: t}
	err := gifFrames(r, source,
		func(w, h int) {
			canvas = NewRaster(w, h)
		},
		func() {
			for i := range canvas.Pixels {
				canvas.Pixels[i] = Pixel{}
			}
		},
		func(x, y int, c color.NRGBA) {
			if x < canvas.Width && y < canvas.Height {
				canvas.Pixels[y*canvas.Width+x] = Pixel{Color: (uint32(c.R) + uint32(c.G) + uint32(c.B)) / 3, Alpha: 1}
			}
		},
		func(delay time.Duration) error {
			fb, err := SampleRaster(canvas, p, v)
			if err != nil {
				return err
			}
			anim.Frames = append(anim.Frames, Frame{Buffer: fb, Delay: delay})
			return nil
		})
	if err != nil {
		return nil, err
	}
	return anim, nil
}

// DiagonalGifFromFile decodes a gif authored on the ASUS slanted template,
// such as the stock ASUS animations.
func DiagonalGifFromFile(path string, brightness float64, t AnimTime, v Variant) (*Animation, error) {
	if err := validBrightness(brightness); err != nil {
		return nil, err
	}
	if !v.Supported() {
		return nil, &UnsupportedVariantError{Name: v.String()}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := NewDiagonal(v)
	anim := &Animation{Time: t}
	err = gifFrames(f, path,
		func(int, int) {},
		func() {
			// a reset restarts the animation from this frame
			d = NewDiagonal(v)
			anim.Frames = anim.Frames[:0]
		},
		func(x, y int, c color.NRGBA) {
			d.Set(x, y, clampByte(float64(c.R)*brightness))
		},
		func(delay time.Duration) error {
			anim.Frames = append(anim.Frames, Frame{Buffer: d.FrameBuffer(), Delay: delay})
			return nil
		})
	if err != nil {
		return nil, err
	}
	if len(anim.Frames) == 0 {
		return nil, ErrNoFrames
	}
	return anim, nil
}

// StillAnimation turns a single frame into a timed animation.
func StillAnimation(fb FrameBuffer, t AnimTime) *Animation {
	return &Animation{Frames: []Frame{{Buffer: fb, Delay: stillFrameDelay}}, Time: t}
}
