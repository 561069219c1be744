// Package metrics compares a reconstructed intensity volume against a
// reference volume.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrLengthMismatch is returned when the inputs differ in length.
	ErrLengthMismatch = errors.New("metrics: inputs differ in length")

	// ErrNoCoverage is returned when no voxel carries weight.
	ErrNoCoverage = errors.New("metrics: no voxel has non-zero weight")
)

// Report holds the comparison metrics.
type Report struct {
	// RMSE is the root mean square error over the compared voxels.
	RMSE float64

	// Correlation is the Pearson correlation over the compared voxels.
	Correlation float64

	// SSIM is the global structural similarity index, using the dynamic
	// range of the reference.
	SSIM float64

	// Scale is the least-squares factor s minimizing |ref - s*got|. The
	// overall scale of a reconstruction is arbitrary, so a Scale far from 1
	// alone is not an error.
	Scale float64

	// Coverage is the fraction of voxels that were compared.
	Coverage float64
}

// Compare evaluates got against ref over the voxels whose weight is
// non-zero. A nil weight compares every voxel.
func Compare(ref, got, weight []float64) (Report, error) {
	if len(ref) != len(got) || (weight != nil && len(weight) != len(ref)) {
		return Report{}, fmt.Errorf("%d reference, %d reconstructed, %d weights: %w",
			len(ref), len(got), len(weight), ErrLengthMismatch)
	}

	x, y := ref, got
	if weight != nil {
		x = make([]float64, 0, len(ref))
		y = make([]float64, 0, len(ref))
		for i, w := range weight {
			if w == 0 {
				continue
			}
			x = append(x, ref[i])
			y = append(y, got[i])
		}
	}
	if len(x) == 0 {
		return Report{}, ErrNoCoverage
	}

	r := Report{
		RMSE:     rmse(x, y),
		SSIM:     ssim(x, y),
		Coverage: float64(len(x)) / float64(len(ref)),
	}
	if len(x) > 1 {
		r.Correlation = stat.Correlation(x, y, nil)
	}
	if gg := floats.Dot(y, y); gg > 0 {
		r.Scale = floats.Dot(x, y) / gg
	}
	return r, nil
}

func rmse(x, y []float64) float64 {
	return floats.Distance(x, y, 2) / math.Sqrt(float64(len(x)))
}

func ssim(x, y []float64) float64 {
	const k1, k2 = 0.01, 0.03

	l := floats.Max(x) - floats.Min(x)
	if l == 0 {
		l = 1
	}
	c1 := (k1 * l) * (k1 * l)
	c2 := (k2 * l) * (k2 * l)

	muX := stat.Mean(x, nil)
	muY := stat.Mean(y, nil)
	var varX, varY, cov float64
	if len(x) > 1 {
		varX = stat.Variance(x, nil)
		varY = stat.Variance(y, nil)
		cov = stat.Covariance(x, y, nil)
	}

	num := (2*muX*muY + c1) * (2*cov + c2)
	den := (muX*muX + muY*muY + c1) * (varX + varY + c2)
	if den > 0 {
		return num / den
	}
	return 0
}
