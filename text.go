package anime

import (
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce sync.Once
	textFont *truetype.Font
	fontErr  error
)

func defaultFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		textFont, fontErr = freetype.ParseFont(goregular.TTF)
	})
	return textFont, fontErr
}

// TextOptions configures a text frame. When Layout is set the text is
// formatted as a time.Format layout at every refresh, so "15:04" makes a
// clock.
type TextOptions struct {
	Text      string
	Layout    string
	Size      float64
	Placement Placement
	Time      AnimTime
	Interval  time.Duration
}

func (o TextOptions) content(now time.Time) string {
	if o.Layout != "" {
		return now.Format(o.Layout)
	}
	return o.Text
}

// RenderText draws s in white on black and samples it for the variant.
func RenderText(s string, size float64, p Placement, v Variant) (FrameBuffer, error) {
	if err := validBrightness(p.Brightness); err != nil {
		return FrameBuffer{}, err
	}
	if size <= 0 {
		size = 12
	}
	f, err := defaultFont()
	if err != nil {
		return FrameBuffer{}, fmt.Errorf("load font: %w", err)
	}

	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72})
	width := font.MeasureString(face, s).Ceil() + 2
	height := int(size*1.3) + 2
	canvas := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(size)
	c.SetClip(canvas.Bounds())
	c.SetDst(canvas)
	c.SetSrc(image.White)
	c.SetHinting(font.HintingFull)
	pt := freetype.Pt(1, 1+int(c.PointToFixed(size)>>6))
	if _, err := c.DrawString(s, pt); err != nil {
		return FrameBuffer{}, err
	}
	return SampleRaster(RasterFromImage(canvas), p, v)
}

// NewTextAction returns a procedural action that re-renders the text every
// interval.
func NewTextAction(o TextOptions, v Variant) (*Procedural, error) {
	if err := validBrightness(o.Placement.Brightness); err != nil {
		return nil, err
	}
	// fail at load time rather than on the first frame
	if _, err := RenderText(o.content(time.Now()), o.Size, o.Placement, v); err != nil {
		return nil, err
	}
	interval := o.Interval
	if interval <= 0 {
		interval = time.Second
	}
	name := o.Text
	if o.Layout != "" {
		name = o.Layout
	}
	return &Procedural{
		Name:     "text " + name,
		Interval: interval,
		Time:     o.Time,
		Render: func(now time.Time) (FrameBuffer, error) {
			return RenderText(o.content(now), o.Size, o.Placement, v)
		},
	}, nil
}
