package symmetry

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/num/quat"

	"emcvolume/pkg/rotation"
)

// IcosahedralOrder is the number of proper rotations in the icosahedral group.
const IcosahedralOrder = 60

// Phi is the golden ratio.
const Phi = 1.61803398874989484820458683436563811772030917980576

// IcosahedronVertices returns the 12 vertices of the reference icosahedron,
// the cyclic permutations of (0, ±1, ±Phi). The group returned by
// Icosahedral is the rotation group of this solid.
func IcosahedronVertices() [][3]float64 {
	verts := make([][3]float64, 0, 12)
	for _, s1 := range []float64{-1, 1} {
		for _, s2 := range []float64{-Phi, Phi} {
			verts = append(verts,
				[3]float64{0, s1, s2},
				[3]float64{s2, 0, s1},
				[3]float64{s1, s2, 0},
			)
		}
	}
	return verts
}

// icosahedralTable is generated once and never mutated.
var icosahedralTable = sync.OnceValue(func() []rotation.Matrix3 {
	gens := []quat.Number{
		rotation.AxisAngle([3]float64{0, 1, Phi}, 2*math.Pi/5),
		rotation.AxisAngle([3]float64{1, 1, 1}, 2*math.Pi/3),
		rotation.AxisAngle([3]float64{0, 0, 1}, math.Pi),
	}

	elems := closure(gens, IcosahedralOrder)
	if len(elems) != IcosahedralOrder {
		panic("symmetry: icosahedral closure produced wrong group order")
	}

	table := make([]rotation.Matrix3, len(elems))
	for i, q := range elems {
		table[i] = rotation.FromQuaternion(q)
	}
	return table
})

// Icosahedral returns a copy of the 60 icosahedral rotation matrices. The
// identity is always the first element.
func Icosahedral() []rotation.Matrix3 {
	t := icosahedralTable()
	out := make([]rotation.Matrix3, len(t))
	copy(out, t)
	return out
}

// closure returns every rotation reachable from the identity by right
// multiplication with gens. q and -q describe the same rotation and are
// stored once. Generation stops after limit elements.
func closure(gens []quat.Number, limit int) []quat.Number {
	elems := []quat.Number{{Real: 1}}
	for i := 0; i < len(elems) && len(elems) <= limit; i++ {
		for _, g := range gens {
			q := quat.Mul(elems[i], g)
			q = quat.Scale(1/quat.Abs(q), q)
			if !containsRotation(elems, q) {
				elems = append(elems, q)
			}
		}
	}
	return elems
}

func containsRotation(set []quat.Number, q quat.Number) bool {
	for _, e := range set {
		dot := e.Real*q.Real + e.Imag*q.Imag + e.Jmag*q.Jmag + e.Kmag*q.Kmag
		if math.Abs(dot) > 1-1e-9 {
			return true
		}
	}
	return false
}
