package anime

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Allow gifs to be loaded as stills
	_ "image/jpeg" // Allow jpegs to be loaded
	_ "image/png"  // Allow pngs to be loaded
	"io"
	"math"
	"os"

	"github.com/disintegration/imaging"
	log "github.com/s00500/env_logger"
	_ "golang.org/x/image/bmp"  // Allow bmps to be loaded
	_ "golang.org/x/image/webp" // Allow webps to be loaded
	"golang.org/x/image/math/f64"
)

// Pixel is one greyscale and alpha sample of a source image.
type Pixel struct {
	Color uint32
	Alpha float64
}

// Raster is a decoded source image, row-major.
type Raster struct {
	Width  int
	Height int
	Pixels []Pixel
}

// NewRaster returns a fully transparent raster.
func NewRaster(width, height int) *Raster {
	return &Raster{Width: width, Height: height, Pixels: make([]Pixel, width*height)}
}

// RasterFromImage converts any image to greyscale samples. Grey images use
// the value directly, colour images the integer average of r/3, g/3 and b/3.
func RasterFromImage(img image.Image) *Raster {
	b := img.Bounds()
	r := NewRaster(b.Dx(), b.Dy())
	grey := isGrey(img.ColorModel())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r.Pixels[(y-b.Min.Y)*r.Width+(x-b.Min.X)] = pixelFrom(img.At(x, y), grey)
		}
	}
	return r
}

func isGrey(m color.Model) bool {
	return m == color.GrayModel || m == color.Gray16Model
}

func pixelFrom(c color.Color, grey bool) Pixel {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	p := Pixel{Alpha: float64(n.A) / 255}
	if grey {
		p.Color = uint32(n.R)
	} else {
		p.Color = uint32(n.R/3) + uint32(n.G/3) + uint32(n.B/3)
	}
	return p
}

// Vec2 is a 2D vector.
type Vec2 struct {
	X float64 `yaml:"x" toml:"x" json:"x"`
	Y float64 `yaml:"y" toml:"y" json:"y"`
}

// Placement positions an image on the display. Scale and translation are in
// display centimetres, Angle in radians.
type Placement struct {
	Scale       Vec2
	Angle       float64
	Translation Vec2
	// Brightness of the final image, 0.0 is off and 1.0 is full
	Brightness float64
}

// DefaultPlacement is a centred, unrotated, full brightness fit.
func DefaultPlacement() Placement {
	return Placement{Scale: Vec2{1, 1}, Brightness: 1}
}

// supersampling offsets along the du and dv basis vectors
var sampleGroup = [4]float64{0, 0.5, 1, 1.5}

// ledFromPixel builds the pixel-to-LED transform for a bitmap of the given
// size and returns its inverse, mapping LED coordinates into the bitmap.
func ledFromPixel(p Placement, v Variant, bmpW, bmpH float64) (f64.Aff3, bool) {
	center := affTranslate(-0.5*bmpW, -0.5*bmpH)
	// fit the whole image on the display
	base := math.Min(v.PhysWidth()/bmpW, v.PhysHeight()/bmpH)
	cmFromPx := affScale(base, base)
	user := affScaleAngleTranslate(p.Scale.X, p.Scale.Y, p.Angle, p.Translation.X, p.Translation.Y)
	ledFromCm := affScale(1/v.ScaleX(), 1/v.ScaleY())
	posInLeds := affTranslate(20, 20)
	return affInvert(affChain(posInLeds, ledFromCm, user, cmFromPx, center))
}

// SampleRaster renders a raster onto the LED layout of a variant. Every live
// LED averages a 4x4 grid of samples across its footprint; samples outside
// the raster are clamped to the nearest edge pixel.
func SampleRaster(r *Raster, p Placement, v Variant) (FrameBuffer, error) {
	if err := validBrightness(p.Brightness); err != nil {
		return FrameBuffer{}, err
	}
	if !v.Supported() {
		return FrameBuffer{}, &UnsupportedVariantError{Name: v.String()}
	}
	if r == nil || r.Width <= 0 || r.Height <= 0 || len(r.Pixels) < r.Width*r.Height {
		return FrameBuffer{}, &FormatError{Err: io.ErrUnexpectedEOF}
	}

	m, ok := ledFromPixel(p, v, float64(r.Width), float64(r.Height))
	if !ok {
		return FrameBuffer{}, fmt.Errorf("%w: scale %v", ErrPlacement, p.Scale)
	}
	dux, duy := affVector(m, -0.5, 0.5)
	dvx, dvy := affVector(m, 0.5, 0.5)

	fb := NewFrameBuffer(v)
	for i, led := range Positions(v) {
		if led == nil {
			continue
		}
		x0, y0 := affPoint(m, led.X, led.Y-0.5)

		var sum, alpha float64
		for _, u := range sampleGroup {
			for _, w := range sampleGroup {
				sx := clampInt(int(math.Floor(x0+u*dux+w*dvx)), r.Width-1)
				sy := clampInt(int(math.Floor(y0+u*duy+w*dvy)), r.Height-1)
				px := r.Pixels[sx+sy*r.Width]
				sum += float64(px.Color)
				alpha += px.Alpha
			}
		}
		n := float64(len(sampleGroup) * len(sampleGroup))
		fb.SetSlot(i, clampByte(sum/n*p.Brightness*alpha/n))
	}
	return fb, nil
}

func clampInt(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// ImageFromFile decodes a still image and samples it for the variant.
func ImageFromFile(path string, p Placement, v Variant) (FrameBuffer, error) {
	if err := validBrightness(p.Brightness); err != nil {
		return FrameBuffer{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		log.Errorf("Could not open %s: %v", path, err)
		return FrameBuffer{}, err
	}
	defer f.Close()
	img, err := decodeImage(f, path)
	if err != nil {
		return FrameBuffer{}, err
	}
	return SampleRaster(RasterFromImage(img), p, v)
}

// ImageFromReader is ImageFromFile for an already open stream.
func ImageFromReader(r io.Reader, p Placement, v Variant) (FrameBuffer, error) {
	if err := validBrightness(p.Brightness); err != nil {
		return FrameBuffer{}, err
	}
	img, err := decodeImage(r, "")
	if err != nil {
		return FrameBuffer{}, err
	}
	return SampleRaster(RasterFromImage(img), p, v)
}

func decodeImage(r io.Reader, source string) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &FormatError{Source: source, Err: err}
	}
	return img, nil
}
