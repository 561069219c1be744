// Package slicing implements the forward and adjoint operators between an
// intensity volume and detector patterns.
//
// Extraction gathers a simulated pattern from the volume along the rotated
// detector geometry. Merging scatters a weighted pattern back into an
// accumulator volume and a companion weight volume. Both go through the
// same per-pixel kernel, so for every rotation the merge is the exact
// adjoint of the extraction.
package slicing

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"emcvolume/pkg/detector"
	"emcvolume/pkg/grid"
	"emcvolume/pkg/interpolation"
	"emcvolume/pkg/rotation"
)

// OutOfBounds is the value written for pixels whose rotated coordinate
// falls outside the volume.
const OutOfBounds = 0.0

var (
	// ErrPatternLength is returned when a pattern's length differs from the
	// detector's pixel count.
	ErrPatternLength = errors.New("slicing: pattern length does not match detector")

	// ErrDims is returned when a volume has the wrong dimensionality for the
	// requested operator.
	ErrDims = errors.New("slicing: wrong volume dimensionality")

	// ErrShapeMismatch is returned when model and weight volumes differ.
	ErrShapeMismatch = errors.New("slicing: model and weight volumes differ in shape")

	// ErrAliased is returned when model and weight share memory.
	ErrAliased = errors.New("slicing: model and weight volumes overlap")
)

// kernel maps detector pixel t to its interpolation stencil under one
// rotation and gathers or scatters through it.
type kernel interface {
	gather(t int, data []float64) (float64, bool)
	scatter(t int, model, weight []float64, value, scale float64) bool
}

type kernel3 struct {
	rot  rotation.Matrix3
	q    []r3.Vec
	c    float64
	size int
}

func (k *kernel3) stencil(t int) (interpolation.Stencil3, bool) {
	q := k.q[t]
	p := k.rot.Apply([3]float64{q.X, q.Y, q.Z})
	p[0] += k.c
	p[1] += k.c
	p[2] += k.c
	return interpolation.Trilinear(p, k.size)
}

func (k *kernel3) gather(t int, data []float64) (float64, bool) {
	s, ok := k.stencil(t)
	if !ok {
		return OutOfBounds, false
	}
	return s.Gather(data), true
}

func (k *kernel3) scatter(t int, model, weight []float64, value, scale float64) bool {
	s, ok := k.stencil(t)
	if !ok {
		return false
	}
	s.Scatter(model, value*scale)
	s.Scatter(weight, scale)
	return true
}

type kernel2 struct {
	rot  rotation.Matrix2
	q    []r3.Vec
	c    float64
	size int
}

func (k *kernel2) stencil(t int) (interpolation.Stencil2, bool) {
	q := k.q[t]
	p := k.rot.Apply([2]float64{q.X, q.Y})
	p[0] += k.c
	p[1] += k.c
	return interpolation.Bilinear(p, k.size)
}

func (k *kernel2) gather(t int, data []float64) (float64, bool) {
	s, ok := k.stencil(t)
	if !ok {
		return OutOfBounds, false
	}
	return s.Gather(data), true
}

func (k *kernel2) scatter(t int, model, weight []float64, value, scale float64) bool {
	s, ok := k.stencil(t)
	if !ok {
		return false
	}
	s.Scatter(model, value*scale)
	s.Scatter(weight, scale)
	return true
}

func newKernel3(rot rotation.Matrix3, v *grid.Volume, det *detector.Detector) *kernel3 {
	return &kernel3{rot: rot, q: det.Q, c: float64(v.Center()), size: v.Size}
}

func newKernel2(rot rotation.Matrix2, v *grid.Volume, det *detector.Detector) *kernel2 {
	return &kernel2{rot: rot, q: det.Q, c: float64(v.Center()), size: v.Size}
}

type options struct {
	workers int
}

// Option configures an extraction or merge.
type Option func(*options)

// WithWorkers bounds the number of goroutines. Zero or less means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func checkVolume(v *grid.Volume, dims int, name string) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if v.Dims != dims {
		return fmt.Errorf("%s has %d dims, want %d: %w", name, v.Dims, dims, ErrDims)
	}
	return nil
}

func checkPattern(det *detector.Detector, pattern []float64) error {
	if err := det.Validate(); err != nil {
		return err
	}
	if len(pattern) != det.NumPixels() {
		return fmt.Errorf("%d values for %d pixels: %w", len(pattern), det.NumPixels(), ErrPatternLength)
	}
	return nil
}
