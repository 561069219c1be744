// Package detector describes the per-pixel reciprocal-space geometry that
// the slicing kernels sample along.
//
// A Detector is read-only once built. Coordinates are in voxel units of the
// intensity grid, relative to its center; planar (2D) kernels use only the
// X and Y components.
package detector

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mask classifies a pixel.
type Mask uint8

const (
	// MaskGood pixels take part in every stage.
	MaskGood Mask = iota

	// MaskIgnored pixels are left out of orientation scoring by the driver
	// but are still merged.
	MaskIgnored

	// MaskBad pixels are never merged.
	MaskBad
)

var (
	// ErrEmpty is returned for a detector without pixels.
	ErrEmpty = errors.New("detector: no pixels")

	// ErrLengthMismatch is returned when per-pixel arrays differ in length.
	ErrLengthMismatch = errors.New("detector: per-pixel arrays differ in length")

	// ErrInvalidGeometry is returned for non-physical planar parameters.
	ErrInvalidGeometry = errors.New("detector: invalid geometry")
)

// Detector holds the geometry of every pixel.
type Detector struct {
	// Q is the reciprocal-space coordinate of each pixel in voxels.
	Q []r3.Vec

	// Correction is the solid-angle and polarization factor of each pixel.
	// It is carried for likelihood scoring of measured photons; extraction
	// and merging map intensities and never read it.
	Correction []float64

	// Mask classifies each pixel.
	Mask []Mask

	// Distance is the sample-detector distance the geometry was built with.
	Distance float64

	// EwaldRadius is the radius of the Ewald sphere in voxels.
	EwaldRadius float64
}

// New builds a detector from caller-supplied arrays. A nil correction
// defaults to 1 everywhere and a nil mask to MaskGood.
func New(q []r3.Vec, correction []float64, mask []Mask) (*Detector, error) {
	if len(q) == 0 {
		return nil, ErrEmpty
	}
	if correction == nil {
		correction = make([]float64, len(q))
		for i := range correction {
			correction[i] = 1
		}
	}
	if mask == nil {
		mask = make([]Mask, len(q))
	}
	d := &Detector{Q: q, Correction: correction, Mask: mask}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks that the detector has pixels and consistent arrays.
func (d *Detector) Validate() error {
	if d == nil || len(d.Q) == 0 {
		return ErrEmpty
	}
	if len(d.Correction) != len(d.Q) || len(d.Mask) != len(d.Q) {
		return fmt.Errorf("%d coordinates, %d corrections, %d mask entries: %w",
			len(d.Q), len(d.Correction), len(d.Mask), ErrLengthMismatch)
	}
	return nil
}

// NumPixels returns the pixel count.
func (d *Detector) NumPixels() int { return len(d.Q) }

// Count returns the number of pixels with mask m.
func (d *Detector) Count(m Mask) int {
	n := 0
	for _, v := range d.Mask {
		if v == m {
			n++
		}
	}
	return n
}

// MaxQ returns the largest |q| over all pixels that are not MaskBad.
func (d *Detector) MaxQ() float64 {
	var qmax float64
	for i, q := range d.Q {
		if d.Mask[i] == MaskBad {
			continue
		}
		qmax = math.Max(qmax, r3.Norm(q))
	}
	return qmax
}
