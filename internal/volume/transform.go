package volume

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is an affine index-to-world mapping stored as a row-major 4x4
// matrix acting on column vectors; the translation sits in the last column.
// The zero value is the identity.
type Transform struct {
	set bool
	m   [16]float64
	inv [16]float64
}

var identity16 = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// IdentityTransform returns the identity mapping.
func IdentityTransform() Transform {
	return Transform{}
}

// NewTransform builds a transform from a row-major 4x4 matrix. The bottom
// row must be (0, 0, 0, 1) and the matrix must be invertible.
func NewTransform(m [16]float64) (Transform, error) {
	if m[12] != 0 || m[13] != 0 || m[14] != 0 || m[15] != 1 {
		return Transform{}, fmt.Errorf("transform bottom row %v: not affine", m[12:])
	}
	d := mat.NewDense(4, 4, append([]float64(nil), m[:]...))
	if det := mat.Det(d); det == 0 {
		return Transform{}, ErrSingularTransform
	}
	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		return Transform{}, fmt.Errorf("%w: %v", ErrSingularTransform, err)
	}
	t := Transform{set: true, m: m}
	copy(t.inv[:], inv.RawMatrix().Data)
	return t, nil
}

// NewLinearTransform returns a uniform scale by voxelSize.
func NewLinearTransform(voxelSize float64) (Transform, error) {
	return NewScaleTranslateTransform(r3.Vec{X: voxelSize, Y: voxelSize, Z: voxelSize}, r3.Vec{})
}

// NewScaleTranslateTransform returns world = index*scale + translate.
func NewScaleTranslateTransform(scale, translate r3.Vec) (Transform, error) {
	return NewTransform([16]float64{
		scale.X, 0, 0, translate.X,
		0, scale.Y, 0, translate.Y,
		0, 0, scale.Z, translate.Z,
		0, 0, 0, 1,
	})
}

// NewRotationTransform returns a rotation of angle radians about axis
// through the origin followed by uniform scale.
func NewRotationTransform(axis r3.Vec, angle, scale float64) (Transform, error) {
	rm := r3.NewRotation(angle, axis).Mat()
	var m [16]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i*4+j] = rm.At(i, j) * scale
		}
	}
	m[15] = 1
	return NewTransform(m)
}

func (t Transform) matrix() *[16]float64 {
	if !t.set {
		return &identity16
	}
	return &t.m
}

func (t Transform) inverse() *[16]float64 {
	if !t.set {
		return &identity16
	}
	return &t.inv
}

func apply(m *[16]float64, p r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// IndexToWorld maps an index-space point to world space.
func (t Transform) IndexToWorld(p r3.Vec) r3.Vec {
	return apply(t.matrix(), p)
}

// WorldToIndex maps a world-space point back to index space.
func (t Transform) WorldToIndex(p r3.Vec) r3.Vec {
	return apply(t.inverse(), p)
}

// VoxelSize returns the world length of a unit index step along each axis.
func (t Transform) VoxelSize() r3.Vec {
	m := t.matrix()
	return r3.Vec{
		X: r3.Norm(r3.Vec{X: m[0], Y: m[4], Z: m[8]}),
		Y: r3.Norm(r3.Vec{X: m[1], Y: m[5], Z: m[9]}),
		Z: r3.Norm(r3.Vec{X: m[2], Y: m[6], Z: m[10]}),
	}
}

// Matrix returns the 16 row-major matrix entries.
func (t Transform) Matrix() [16]float64 {
	return *t.matrix()
}

// IsIdentity reports whether the transform maps every point to itself.
func (t Transform) IsIdentity() bool {
	return *t.matrix() == identity16
}

// IsLinearScaleTranslate reports whether the linear part is diagonal,
// the only case where transforming two box corners gives a tight box.
func (t Transform) IsLinearScaleTranslate() bool {
	m := t.matrix()
	return m[1] == 0 && m[2] == 0 && m[4] == 0 && m[6] == 0 && m[8] == 0 && m[9] == 0
}

// Equal reports whether both transforms have identical matrices.
func (t Transform) Equal(o Transform) bool {
	return *t.matrix() == *o.matrix()
}
