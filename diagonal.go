package anime

import (
	"image"
	"os"
)

// Diagonal is an image authored on the ASUS slanted template, where every
// diagonal of the template is one physical row of the display. It is mostly
// used for the stock ASUS gifs, which are pixel exact for the hardware.
type Diagonal struct {
	variant Variant
	rows    [][]byte
}

// NewDiagonal returns an empty template for the variant.
func NewDiagonal(v Variant) *Diagonal {
	d := &Diagonal{variant: v, rows: make([][]byte, v.DiagonalHeight())}
	for y := range d.rows {
		d.rows[y] = make([]byte, v.DiagonalWidth())
	}
	return d
}

// Set stores the brightness at template position x, y. Out of range
// positions are ignored.
func (d *Diagonal) Set(x, y int, b byte) {
	if y < 0 || y >= len(d.rows) || x < 0 || x >= len(d.rows[y]) {
		return
	}
	d.rows[y][x] = b
}

// row reads n values going up and to the right from x, y, where y counts
// from the bottom of the template.
func (d *Diagonal) row(x, y, n int) []byte {
	buf := make([]byte, n)
	h := len(d.rows)
	for i := 0; i < n; i++ {
		buf[i] = d.rows[h-y-i-1][x+i]
	}
	return buf
}

type diagonalRow struct {
	start, x, y, n int
}

// GA401 rows are not contiguous on the wire.
var ga401Diagonal = []diagonalRow{
	{1, 0, 3, 32}, {34, 0, 2, 33}, {69, 1, 2, 33}, {102, 1, 1, 33},
	{137, 2, 1, 33}, {170, 2, 0, 33}, {204, 3, 0, 33}, {237, 4, 0, 32},
	{270, 5, 0, 32}, {302, 6, 0, 31}, {334, 7, 0, 31}, {365, 8, 0, 30},
	{396, 9, 0, 30}, {426, 10, 0, 29}, {456, 11, 0, 29}, {485, 12, 0, 28},
	{514, 13, 0, 28}, {542, 14, 0, 27}, {570, 15, 0, 27}, {597, 16, 0, 26},
	{624, 17, 0, 26}, {650, 18, 0, 25}, {676, 19, 0, 25}, {701, 20, 0, 24},
	{726, 21, 0, 24}, {750, 22, 0, 23}, {774, 23, 0, 23}, {797, 24, 0, 22},
	{820, 25, 0, 22}, {842, 26, 0, 21}, {864, 27, 0, 21}, {885, 28, 0, 20},
	{906, 29, 0, 20}, {926, 30, 0, 19}, {946, 31, 0, 19}, {965, 32, 0, 18},
	{984, 33, 0, 18}, {1002, 34, 0, 17}, {1020, 35, 0, 17}, {1037, 36, 0, 16},
	{1054, 37, 0, 16}, {1070, 38, 0, 15}, {1086, 39, 0, 15}, {1101, 40, 0, 14},
	{1116, 41, 0, 14}, {1130, 42, 0, 13}, {1144, 43, 0, 13}, {1157, 44, 0, 12},
	{1170, 45, 0, 12}, {1182, 46, 0, 11}, {1194, 47, 0, 11}, {1205, 48, 0, 10},
	{1216, 49, 0, 10}, {1226, 50, 0, 9}, {1236, 51, 0, 9},
}

var (
	ga402Diagonal = packedDiagonal([][3]int{
		{0, 5, 34}, {1, 5, 34}, {1, 4, 34}, {2, 4, 34}, {2, 3, 34}, {3, 3, 34},
		{3, 2, 34}, {4, 2, 34}, {4, 1, 34}, {5, 1, 34}, {5, 0, 34}, {6, 0, 34},
	}, 7, 55, 33)
	gu604Diagonal = packedDiagonal([][3]int{
		{0, 4, 38}, {0, 3, 39}, {1, 3, 38}, {1, 2, 39}, {2, 2, 38}, {2, 1, 39},
		{3, 1, 38}, {3, 0, 39}, {4, 0, 39}, {5, 0, 39},
	}, 6, 58, 38)
)

// packedDiagonal lays rows out back to back. The irregular head rows are
// given explicitly, then rows from x = from to x = to along the bottom edge
// with a length starting at n and shrinking by one every second row.
func packedDiagonal(head [][3]int, from, to, n int) []diagonalRow {
	var rows []diagonalRow
	start := 0
	for _, r := range head {
		rows = append(rows, diagonalRow{start: start, x: r[0], y: r[1], n: r[2]})
		start += r[2]
	}
	for x := from; x <= to; x++ {
		rows = append(rows, diagonalRow{start: start, x: x, y: 0, n: n})
		start += n
		if (x-from)%2 == 1 {
			n--
		}
	}
	return rows
}

func (d *Diagonal) table() []diagonalRow {
	switch d.variant {
	case GA401:
		return ga401Diagonal
	case GU604:
		return gu604Diagonal
	}
	return ga402Diagonal
}

// FrameBuffer maps the template onto the wire layout.
func (d *Diagonal) FrameBuffer() FrameBuffer {
	fb := NewFrameBuffer(d.variant)
	for _, r := range d.table() {
		copy(fb.data[r.start:r.start+r.n], d.row(r.x, r.y, r.n))
	}
	return fb
}

// DiagonalFromImage copies a template image into a frame. Pixels outside the
// template are dropped.
func DiagonalFromImage(img image.Image, brightness float64, v Variant) (FrameBuffer, error) {
	if err := validBrightness(brightness); err != nil {
		return FrameBuffer{}, err
	}
	if !v.Supported() {
		return FrameBuffer{}, &UnsupportedVariantError{Name: v.String()}
	}
	d := NewDiagonal(v)
	r := RasterFromImage(img)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			d.Set(x, y, clampByte(float64(r.Pixels[y*r.Width+x].Color)*brightness))
		}
	}
	return d.FrameBuffer(), nil
}

// DiagonalFromFile decodes a template image from disk.
func DiagonalFromFile(path string, brightness float64, v Variant) (FrameBuffer, error) {
	if err := validBrightness(brightness); err != nil {
		return FrameBuffer{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return FrameBuffer{}, err
	}
	defer f.Close()
	img, err := decodeImage(f, path)
	if err != nil {
		return FrameBuffer{}, err
	}
	return DiagonalFromImage(img, brightness, v)
}
