package phantom

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"emcvolume/pkg/grid"
	"emcvolume/pkg/symmetry"
)

func TestDensity(t *testing.T) {
	spec := Spec{Radius: 1.5, Spacing: 5}
	v, err := Density(17, spec)
	if err != nil {
		t.Fatalf("Density failed: %v", err)
	}

	c := v.Center()
	if v.Data[v.Index3(c, c, c)] != 0 {
		t.Errorf("Center should be empty without a core sphere")
	}
	if len(spec.Centers()) != 12 {
		t.Errorf("Expected 12 sphere centers, got %d", len(spec.Centers()))
	}
	for _, o := range spec.Centers() {
		if r := math.Sqrt(o[0]*o[0] + o[1]*o[1] + o[2]*o[2]); !scalar.EqualWithinAbs(r, 5, 1e-12) {
			t.Errorf("Sphere center %v at distance %v, want 5", o, r)
		}
	}

	total := floats.Sum(v.Data)
	if total < 12 {
		t.Fatalf("Expected at least one voxel per sphere, got %v", total)
	}

	spec.Core = true
	withCore, err := Density(17, spec)
	if err != nil {
		t.Fatalf("Density failed: %v", err)
	}
	if withCore.Data[withCore.Index3(c, c, c)] != 1 {
		t.Errorf("Core sphere should cover the center")
	}
}

func TestDensityInvalid(t *testing.T) {
	if _, err := Density(17, Spec{Radius: 0, Spacing: 3}); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("Expected ErrInvalidSpec for zero radius, got %v", err)
	}
	if _, err := Density(9, Spec{Radius: 2, Spacing: 5}); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("Expected ErrInvalidSpec for an object larger than the grid, got %v", err)
	}
	if _, err := Density(1, Spec{Radius: 1}); !errors.Is(err, grid.ErrInvalidSize) {
		t.Errorf("Expected grid.ErrInvalidSize, got %v", err)
	}
}

func TestIntensityOfDelta(t *testing.T) {
	v, _ := grid.New(6, 3)
	v.Data[v.Index3(1, 4, 2)] = 2
	in, err := Intensity(v, 2)
	if err != nil {
		t.Fatalf("Intensity failed: %v", err)
	}
	for i, x := range in.Data {
		if !scalar.EqualWithinAbs(x, 4, 1e-12) {
			t.Fatalf("Voxel %d: expected flat spectrum 4, got %v", i, x)
		}
	}
}

func TestIntensityMatchesDirectDFT(t *testing.T) {
	const size = 5
	rng := rand.New(rand.NewPCG(12, 34))
	v, _ := grid.New(size, 3)
	for i := range v.Data {
		v.Data[i] = rng.Float64()
	}
	in, err := Intensity(v, 1)
	if err != nil {
		t.Fatalf("Intensity failed: %v", err)
	}

	c := v.Center()
	for _, k := range [][3]int{{0, 0, 0}, {1, 0, 0}, {1, 2, -1}, {-2, -2, 2}} {
		var f complex128
		for x := range size {
			for y := range size {
				for z := range size {
					phase := -2 * math.Pi * float64(k[0]*x+k[1]*y+k[2]*z) / size
					f += complex(v.Data[v.Index3(x, y, z)], 0) * cmplx.Exp(complex(0, phase))
				}
			}
		}
		want := real(f)*real(f) + imag(f)*imag(f)
		got := in.Data[in.Index3(k[0]+c, k[1]+c, k[2]+c)]
		if !scalar.EqualWithinAbsOrRel(got, want, 1e-9, 1e-9) {
			t.Errorf("Frequency %v: expected %v, got %v", k, want, got)
		}
	}
}

func TestIntensityIsCentrosymmetric(t *testing.T) {
	const size = 15
	v, err := Density(size, Spec{Radius: 1.2, Spacing: 4.5, Core: true})
	if err != nil {
		t.Fatalf("Density failed: %v", err)
	}
	in, err := Intensity(v, 0)
	if err != nil {
		t.Fatalf("Intensity failed: %v", err)
	}

	peak := floats.Max(in.Data)
	c := in.Center()
	if in.Data[in.Index3(c, c, c)] != peak {
		t.Errorf("The zero frequency should be the maximum")
	}

	sym := in.Clone()
	if err := symmetry.SymmetrizeFriedel(sym); err != nil {
		t.Fatalf("Friedel failed: %v", err)
	}
	for i := range in.Data {
		if !scalar.EqualWithinAbs(sym.Data[i], in.Data[i], 1e-9*peak) {
			t.Fatalf("Voxel %d not centrosymmetric: %v vs %v", i, in.Data[i], sym.Data[i])
		}
	}
}
