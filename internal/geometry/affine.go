package geometry

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Affine is a 2x3 affine transform held as a homogeneous 3x3 matrix.
type Affine struct {
	m *mat.Dense
}

func newAffine(a, b, c, d, e, f float64) Affine {
	return Affine{m: mat.NewDense(3, 3, []float64{
		a, b, c,
		d, e, f,
		0, 0, 1,
	})}
}

// Identity returns the identity transform.
func Identity() Affine {
	return newAffine(1, 0, 0, 0, 1, 0)
}

// Rotation rotates points about the origin so that a region rotated
// counter-clockwise by deg becomes upright.
func Rotation(deg float64) Affine {
	sin, cos := sincos(deg)
	return newAffine(cos, -sin, 0, sin, cos, 0)
}

// Translation shifts points by (dx, dy).
func Translation(dx, dy float64) Affine {
	return newAffine(1, 0, dx, 0, 1, dy)
}

// MirrorX mirrors points about the vertical line x = width/2.
func MirrorX(width float64) Affine {
	return newAffine(-1, 0, width, 0, 1, 0)
}

// Then returns the transform that applies a and then next.
func (a Affine) Then(next Affine) Affine {
	var out mat.Dense
	out.Mul(next.m, a.m)
	return Affine{m: &out}
}

// Inverse returns the inverse transform.
func (a Affine) Inverse() (Affine, error) {
	var inv mat.Dense
	if err := inv.Inverse(a.m); err != nil {
		return Affine{}, fmt.Errorf("affine transform is not invertible: %w", err)
	}
	return Affine{m: &inv}, nil
}

// Apply transforms a point.
func (a Affine) Apply(p r2.Vec) r2.Vec {
	m := a.m
	return r2.Vec{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2),
	}
}

// ApplyAll transforms every point.
func (a Affine) ApplyAll(points []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, len(points))
	for i, p := range points {
		out[i] = a.Apply(p)
	}
	return out
}

// Aff3 returns the top two rows in the layout golang.org/x/image/draw expects.
func (a Affine) Aff3() f64.Aff3 {
	m := a.m
	return f64.Aff3{
		m.At(0, 0), m.At(0, 1), m.At(0, 2),
		m.At(1, 0), m.At(1, 1), m.At(1, 2),
	}
}

// Equal reports whether every coefficient of a and b is within tol.
func (a Affine) Equal(b Affine, tol float64) bool {
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a.m.At(i, j)-b.m.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}

func (a Affine) String() string {
	m := a.m
	return fmt.Sprintf("[%.4g %.4g %.4g; %.4g %.4g %.4g]",
		m.At(0, 0), m.At(0, 1), m.At(0, 2), m.At(1, 0), m.At(1, 1), m.At(1, 2))
}
