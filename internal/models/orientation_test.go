package models

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/stat"

	"emcvolume/pkg/rotation"
)

func TestRandomOrientationsAreUnit(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	orients := RandomOrientations(200, rng)
	if len(orients) != 200 {
		t.Fatalf("Expected 200 orientations, got %d", len(orients))
	}
	for i, o := range orients {
		if n := quat.Abs(o.Quaternion); !scalar.EqualWithinAbs(n, 1, 1e-12) {
			t.Errorf("Orientation %d has norm %v", i, n)
		}
		if o.Quaternion.Real < 0 {
			t.Errorf("Orientation %d has a negative scalar part", i)
		}
		if o.Weight != 1 {
			t.Errorf("Orientation %d has weight %v", i, o.Weight)
		}
	}
}

func TestRandomOrientationsAreUniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	orients := RandomOrientations(4000, rng)

	// For a uniform rotation the rotated z axis is uniform on the sphere:
	// each component has mean 0 and variance 1/3.
	xs := make([]float64, len(orients))
	zs := make([]float64, len(orients))
	for i, o := range orients {
		v := o.Rotation().Apply([3]float64{0, 0, 1})
		xs[i], zs[i] = v[0], v[2]
	}
	for name, s := range map[string][]float64{"x": xs, "z": zs} {
		mean, variance := stat.MeanVariance(s, nil)
		if !scalar.EqualWithinAbs(mean, 0, 0.05) {
			t.Errorf("%s component mean %v, want 0", name, mean)
		}
		if !scalar.EqualWithinAbs(variance, 1.0/3, 0.03) {
			t.Errorf("%s component variance %v, want 1/3", name, variance)
		}
	}
}

func TestRandomOrientationsDeterministic(t *testing.T) {
	a := RandomOrientations(5, rand.New(rand.NewPCG(9, 9)))
	b := RandomOrientations(5, rand.New(rand.NewPCG(9, 9)))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Orientation %d differs for the same seed", i)
		}
	}
}

func TestRandomInPlane(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for i, o := range RandomInPlane(50, rng) {
		theta := o.Angle()
		if theta < 0 || theta >= 2*math.Pi {
			t.Errorf("Orientation %d: angle %v outside [0, 2pi)", i, theta)
		}
		// The 3D rotation restricted to the xy plane is the planar rotation.
		m3 := o.Rotation()
		m2 := rotation.FromAngle(theta)
		for r := range 2 {
			for c := range 2 {
				if !scalar.EqualWithinAbs(m3[r][c], m2[r][c], 1e-12) {
					t.Fatalf("Orientation %d: matrices differ at (%d,%d): %v vs %v", i, r, c, m3[r][c], m2[r][c])
				}
			}
		}
		if !scalar.EqualWithinAbs(m3[2][2], 1, 1e-12) {
			t.Errorf("Orientation %d does not fix the z axis", i)
		}
	}
}
