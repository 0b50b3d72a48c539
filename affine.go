package anime

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine transforms are kept as f64.Aff3, the row-major top two rows of a
// 3x3 matrix whose bottom row is 0 0 1.

func affIdentity() f64.Aff3 {
	return f64.Aff3{1, 0, 0, 0, 1, 0}
}

func affTranslate(x, y float64) f64.Aff3 {
	return f64.Aff3{1, 0, x, 0, 1, y}
}

func affScale(x, y float64) f64.Aff3 {
	return f64.Aff3{x, 0, 0, 0, y, 0}
}

// affScaleAngleTranslate is T * R * S.
func affScaleAngleTranslate(sx, sy, angle, tx, ty float64) f64.Aff3 {
	sin, cos := math.Sincos(angle)
	return f64.Aff3{
		cos * sx, -sin * sy, tx,
		sin * sx, cos * sy, ty,
	}
}

// affMul returns a*b, so that b is applied first.
func affMul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

// affChain multiplies left to right, the last matrix is applied first.
func affChain(ms ...f64.Aff3) f64.Aff3 {
	out := affIdentity()
	for _, m := range ms {
		out = affMul(out, m)
	}
	return out
}

// affInvert reports false for a singular matrix.
func affInvert(m f64.Aff3) (f64.Aff3, bool) {
	det := m[0]*m[4] - m[1]*m[3]
	if det == 0 {
		return f64.Aff3{}, false
	}
	inv := 1 / det
	a := m[4] * inv
	b := -m[1] * inv
	d := -m[3] * inv
	e := m[0] * inv
	return f64.Aff3{
		a, b, -(a*m[2] + b*m[5]),
		d, e, -(d*m[2] + e*m[5]),
	}, true
}

// affPoint maps a point (homogeneous w = 1).
func affPoint(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// affVector maps a direction (homogeneous w = 0).
func affVector(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y, m[3]*x + m[4]*y
}
