package anime

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestWhiteImageLightsEveryLED(t *testing.T) {
	for _, v := range Variants {
		t.Run(v.String(), func(t *testing.T) {
			fb, err := SampleRaster(RasterFromImage(uniform(33, 55, color.White)), DefaultPlacement(), v)
			require.NoError(t, err)
			for i, slot := range Positions(v) {
				if slot == nil {
					assert.Zero(t, fb.Slot(i), "dead slot %d", i)
					continue
				}
				if fb.Slot(i) != 255 {
					t.Fatalf("slot %d at %+v is %d", i, *slot, fb.Slot(i))
				}
			}
		})
	}
}

func TestSampleBrightness(t *testing.T) {
	r := RasterFromImage(uniform(10, 10, color.White))

	p := DefaultPlacement()
	p.Brightness = 0
	fb, err := SampleRaster(r, p, GA402)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, GA402.DataLength()), fb.Data())

	p.Brightness = 0.5
	fb, err = SampleRaster(r, p, GA402)
	require.NoError(t, err)
	assert.Equal(t, byte(128), fb.Slot(0))
}

func TestSampleBounds(t *testing.T) {
	// random-ish content with alpha never leaves 0..255
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 7), uint8(y * 11), uint8(x * y), uint8(255 - x)})
		}
	}
	p := Placement{Scale: Vec2{1.3, 0.8}, Angle: 0.4, Translation: Vec2{2, -1}, Brightness: 1}
	fb, err := SampleRaster(RasterFromImage(img), p, GU604)
	require.NoError(t, err)
	assert.Len(t, fb.Data(), GU604.DataLength())
}

func TestInvalidBrightnessRejected(t *testing.T) {
	r := RasterFromImage(uniform(4, 4, color.White))
	for _, b := range []float64{-0.1, 1.01, math.NaN()} {
		p := DefaultPlacement()
		p.Brightness = b
		_, err := SampleRaster(r, p, GA401)
		var be *InvalidBrightnessError
		assert.True(t, errors.As(err, &be), "brightness %v", b)
	}
}

func TestSampleRejectsBadInput(t *testing.T) {
	_, err := SampleRaster(NewRaster(0, 0), DefaultPlacement(), GA402)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = SampleRaster(NewRaster(2, 2), DefaultPlacement(), Unsupported)
	assert.ErrorIs(t, err, ErrUnsupportedVariant)

	for _, scale := range []Vec2{{0, 1}, {1, 0}} {
		p := DefaultPlacement()
		p.Scale = scale
		_, err = SampleRaster(NewRaster(2, 2), p, GA402)
		assert.ErrorIs(t, err, ErrPlacement, "scale %v", scale)
	}
}

func TestRasterFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{90, 60, 30, 255})
	img.Set(1, 0, color.NRGBA{255, 255, 255, 0})
	r := RasterFromImage(img)
	assert.Equal(t, Pixel{Color: 30 + 20 + 10, Alpha: 1}, r.Pixels[0])
	assert.Equal(t, float64(0), r.Pixels[1].Alpha)

	g := image.NewGray(image.Rect(0, 0, 1, 1))
	g.SetGray(0, 0, color.Gray{Y: 200})
	assert.Equal(t, uint32(200), RasterFromImage(g).Pixels[0].Color)
}

func TestImageFromReader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, uniform(20, 20, color.White)))
	fb, err := ImageFromReader(&buf, DefaultPlacement(), GA402)
	require.NoError(t, err)
	assert.Equal(t, byte(255), fb.Slot(GA402.LiveLEDs()/2))

	_, err = ImageFromReader(bytes.NewReader([]byte("not an image")), DefaultPlacement(), GA402)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestFrameBufferFromBytes(t *testing.T) {
	_, err := FrameBufferFromBytes(GA402, make([]byte, 10))
	assert.Error(t, err)

	_, err = FrameBufferFromBytes(Unsupported, nil)
	assert.ErrorIs(t, err, ErrUnsupportedVariant)

	raw := make([]byte, GA401.DataLength())
	raw[5] = 42
	fb, err := FrameBufferFromBytes(GA401, raw)
	require.NoError(t, err)
	raw[5] = 0
	assert.Equal(t, byte(42), fb.Data()[5], "input is copied")
}

func TestFrameBufferScaled(t *testing.T) {
	fb := NewFrameBuffer(GA402)
	fb.SetSlot(3, 200)
	assert.Equal(t, fb.Data(), fb.Scaled(1).Data())

	half := fb.Scaled(0.5)
	assert.Equal(t, byte(100), half.Slot(3))
	assert.Equal(t, byte(200), fb.Slot(3), "source untouched")
}

func TestSetSlotIgnoresDeadSlots(t *testing.T) {
	fb := NewFrameBuffer(GA401)
	fb.SetSlot(66, 255)
	fb.SetSlot(-1, 255)
	fb.SetSlot(len(Positions(GA401)), 255)
	assert.Equal(t, make([]byte, GA401.DataLength()), fb.Data())
}
