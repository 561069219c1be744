// Package rotation builds dense rotation matrices from quaternions and
// angles, and rotates whole intensity volumes with the shared trilinear
// stencil.
package rotation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Matrix3 is a 3x3 rotation matrix in row-major order.
type Matrix3 [3][3]float64

// Matrix2 is a 2x2 rotation matrix in row-major order.
type Matrix2 [2][2]float64

var (
	// Identity3 is the 3x3 identity.
	Identity3 = Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	// Identity2 is the 2x2 identity.
	Identity2 = Matrix2{{1, 0}, {0, 1}}
)

// FromQuaternion returns the rotation matrix of q, acting on column vectors
// as v -> q v q*. q.Real is the scalar part.
//
// q is assumed to have unit norm. It is not renormalized; a non-unit q gives
// a scaled, non-orthonormal matrix.
func FromQuaternion(q quat.Number) Matrix3 {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Matrix3{
		{1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy)},
		{2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx)},
		{2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy)},
	}
}

// FromAngle returns the planar rotation by theta radians, counterclockwise.
func FromAngle(theta float64) Matrix2 {
	s, c := math.Sincos(theta)
	return Matrix2{
		{c, -s},
		{s, c},
	}
}

// AxisAngle returns the unit quaternion rotating by theta radians about
// axis. The axis need not be normalized but must be non-zero.
func AxisAngle(axis [3]float64, theta float64) quat.Number {
	n := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	s, c := math.Sincos(theta / 2)
	s /= n
	return quat.Number{Real: c, Imag: s * axis[0], Jmag: s * axis[1], Kmag: s * axis[2]}
}

// Apply returns m*v.
func (m Matrix3) Apply(v [3]float64) [3]float64 {
	return [3]float64{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Mul returns m*o.
func (m Matrix3) Mul(o Matrix3) Matrix3 {
	var r Matrix3
	for i := range 3 {
		for j := range 3 {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

// Transpose returns the transpose, which is the inverse of a rotation.
func (m Matrix3) Transpose() Matrix3 {
	var r Matrix3
	for i := range 3 {
		for j := range 3 {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Apply returns m*v.
func (m Matrix2) Apply(v [2]float64) [2]float64 {
	return [2]float64{
		m[0][0]*v[0] + m[0][1]*v[1],
		m[1][0]*v[0] + m[1][1]*v[1],
	}
}

// Mul returns m*o.
func (m Matrix2) Mul(o Matrix2) Matrix2 {
	return Matrix2{
		{m[0][0]*o[0][0] + m[0][1]*o[1][0], m[0][0]*o[0][1] + m[0][1]*o[1][1]},
		{m[1][0]*o[0][0] + m[1][1]*o[1][0], m[1][0]*o[0][1] + m[1][1]*o[1][1]},
	}
}

// Transpose returns the transpose.
func (m Matrix2) Transpose() Matrix2 {
	return Matrix2{
		{m[0][0], m[1][0]},
		{m[0][1], m[1][1]},
	}
}
