package models

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/num/quat"

	"emcvolume/pkg/rotation"
)

// Orientation is one sampled rotation of the object together with the
// weight its pattern carries when merged.
type Orientation struct {
	// Quaternion is a unit quaternion with Real as the scalar part.
	Quaternion quat.Number

	// Weight scales the pattern and its interpolation weights on merge.
	Weight float64
}

// Rotation returns the 3x3 rotation matrix of the orientation.
func (o Orientation) Rotation() rotation.Matrix3 {
	return rotation.FromQuaternion(o.Quaternion)
}

// RandomOrientations draws n rotations uniformly from SO(3) using
// Shoemake's subgroup algorithm. Every orientation has weight 1.
func RandomOrientations(n int, rng *rand.Rand) []Orientation {
	out := make([]Orientation, n)
	for i := range out {
		u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
		a, b := math.Sqrt(1-u1), math.Sqrt(u1)
		s2, c2 := math.Sincos(2 * math.Pi * u2)
		s3, c3 := math.Sincos(2 * math.Pi * u3)
		q := quat.Number{Real: b * c3, Imag: a * s2, Jmag: a * c2, Kmag: b * s3}
		// Keep the scalar part non-negative; q and -q are the same rotation.
		if q.Real < 0 {
			q = quat.Scale(-1, q)
		}
		out[i] = Orientation{Quaternion: q, Weight: 1}
	}
	return out
}

// RandomInPlane draws n rotations about the z axis with angles uniform in
// [0, 2*pi). Every orientation has weight 1.
func RandomInPlane(n int, rng *rand.Rand) []Orientation {
	out := make([]Orientation, n)
	for i := range out {
		theta := 2 * math.Pi * rng.Float64()
		out[i] = Orientation{Quaternion: rotation.AxisAngle([3]float64{0, 0, 1}, theta), Weight: 1}
	}
	return out
}

// Angle returns the in-plane angle of a rotation about the z axis. It is
// meaningless for other rotations.
func (o Orientation) Angle() float64 {
	return 2 * math.Atan2(o.Quaternion.Kmag, o.Quaternion.Real)
}
