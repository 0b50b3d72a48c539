package anime

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"periph.io/x/conn/v3/display"
)

// Drawer exposes a session as a periph display.Drawer. Images drawn on it
// are composited onto a canvas with the display's aspect ratio, sampled with
// Placement and written as one frame.
type Drawer struct {
	session   *Session
	placement Placement
	canvas    *image.NRGBA
}

var _ display.Drawer = (*Drawer)(nil)

// NewDrawer returns a Drawer for s using placement p.
func NewDrawer(s *Session, p Placement) *Drawer {
	v := s.Variant()
	w := int(math.Ceil(v.PhysWidth() / v.ScaleX()))
	return &Drawer{
		session:   s,
		placement: p,
		canvas:    image.NewNRGBA(image.Rect(0, 0, w, v.Rows())),
	}
}

func (d *Drawer) String() string {
	return "AniMe " + d.session.Variant().String()
}

// Halt blanks the display.
func (d *Drawer) Halt() error {
	draw.Draw(d.canvas, d.canvas.Bounds(), image.Transparent, image.Point{}, draw.Src)
	return d.session.WriteFrame(NewFrameBuffer(d.session.Variant()))
}

func (d *Drawer) ColorModel() color.Model {
	return color.GrayModel
}

func (d *Drawer) Bounds() image.Rectangle {
	return d.canvas.Bounds()
}

// Draw composites src onto the canvas at r and pushes the whole canvas.
func (d *Drawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.canvas, r, src, sp, draw.Over)
	fb, err := SampleRaster(RasterFromImage(d.canvas), d.placement, d.session.Variant())
	if err != nil {
		return err
	}
	return d.session.WriteFrame(fb)
}
