package metrics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestCompareIdentical(t *testing.T) {
	ref := []float64{1, 2, 3, 4, 5}
	r, err := Compare(ref, ref, nil)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if r.RMSE != 0 {
		t.Errorf("Expected RMSE 0, got %v", r.RMSE)
	}
	if !scalar.EqualWithinAbs(r.Correlation, 1, 1e-12) {
		t.Errorf("Expected correlation 1, got %v", r.Correlation)
	}
	if !scalar.EqualWithinAbs(r.SSIM, 1, 1e-12) {
		t.Errorf("Expected SSIM 1, got %v", r.SSIM)
	}
	if !scalar.EqualWithinAbs(r.Scale, 1, 1e-12) || r.Coverage != 1 {
		t.Errorf("Expected scale 1 and full coverage, got %v and %v", r.Scale, r.Coverage)
	}
}

func TestCompareScaled(t *testing.T) {
	ref := []float64{2, 4, 6, 8}
	got := []float64{1, 2, 3, 4}
	r, err := Compare(ref, got, nil)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !scalar.EqualWithinAbs(r.Scale, 2, 1e-12) {
		t.Errorf("Expected scale 2, got %v", r.Scale)
	}
	if !scalar.EqualWithinAbs(r.Correlation, 1, 1e-12) {
		t.Errorf("Correlation is scale invariant, got %v", r.Correlation)
	}
	if want := math.Sqrt((1 + 4 + 9 + 16) / 4.0); !scalar.EqualWithinAbs(r.RMSE, want, 1e-12) {
		t.Errorf("Expected RMSE %v, got %v", want, r.RMSE)
	}
}

func TestCompareWeighted(t *testing.T) {
	ref := []float64{1, 2, 100, 3}
	got := []float64{1, 2, -50, 3}
	weight := []float64{1, 0.5, 0, 2}
	r, err := Compare(ref, got, weight)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if r.RMSE != 0 {
		t.Errorf("Zero-weight voxel must be excluded, RMSE %v", r.RMSE)
	}
	if r.Coverage != 0.75 {
		t.Errorf("Expected coverage 0.75, got %v", r.Coverage)
	}
}

func TestCompareErrors(t *testing.T) {
	if _, err := Compare([]float64{1}, []float64{1, 2}, nil); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
	if _, err := Compare([]float64{1, 2}, []float64{1, 2}, []float64{0, 0}); !errors.Is(err, ErrNoCoverage) {
		t.Errorf("Expected ErrNoCoverage, got %v", err)
	}
}
