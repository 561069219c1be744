package rotation

import (
	"errors"
	"fmt"

	"emcvolume/pkg/grid"
	"emcvolume/pkg/interpolation"
	"emcvolume/pkg/logging"
	"emcvolume/pkg/parallel"
)

var (
	// ErrAliased is returned when source and destination share memory.
	ErrAliased = errors.New("rotation: source and destination overlap")

	// ErrSizeMismatch is returned when source and destination differ in shape.
	ErrSizeMismatch = errors.New("rotation: source and destination differ in shape")

	// ErrDims is returned when a volume has the wrong dimensionality for the
	// requested operation.
	ErrDims = errors.New("rotation: wrong volume dimensionality")
)

type options struct {
	workers int
}

// Option configures a model rotation.
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

// RotateModel fills dst by sampling src at rot applied to each destination
// voxel's centered coordinate:
//
//	dst(r) = src(rot * r)
//
// so the content of dst is src rotated by the inverse of rot. Samples that
// fall outside src are 0. src and dst must have the same shape and must not
// share memory.
func RotateModel(rot Matrix3, src, dst *grid.Volume, opts ...Option) error {
	if err := checkPair(src, dst, 3); err != nil {
		return err
	}
	o := buildOptions(opts)

	size := src.Size
	c := float64(src.Center())
	workers := parallel.Workers(o.workers, size, 1)
	logging.Logger().Debug("rotating model", "size", size, "workers", workers)

	parallel.For(size, workers, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := range size {
				base := (x*size + y) * size
				for z := range size {
					r := [3]float64{float64(x) - c, float64(y) - c, float64(z) - c}
					p := rot.Apply(r)
					p[0] += c
					p[1] += c
					p[2] += c

					s, ok := interpolation.Trilinear(p, size)
					if !ok {
						dst.Data[base+z] = 0
						continue
					}
					dst.Data[base+z] = s.Gather(src.Data)
				}
			}
		}
	})
	return nil
}

// RotateModel2D is the planar analogue of RotateModel.
func RotateModel2D(rot Matrix2, src, dst *grid.Volume, opts ...Option) error {
	if err := checkPair(src, dst, 2); err != nil {
		return err
	}
	o := buildOptions(opts)

	size := src.Size
	c := float64(src.Center())
	workers := parallel.Workers(o.workers, size, 8)

	parallel.For(size, workers, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := range size {
				p := rot.Apply([2]float64{float64(x) - c, float64(y) - c})
				p[0] += c
				p[1] += c

				idx := x*size + y
				s, ok := interpolation.Bilinear(p, size)
				if !ok {
					dst.Data[idx] = 0
					continue
				}
				dst.Data[idx] = s.Gather(src.Data)
			}
		}
	})
	return nil
}

func checkPair(src, dst *grid.Volume, dims int) error {
	if err := src.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if src.Dims != dims {
		return fmt.Errorf("source has %d dims, want %d: %w", src.Dims, dims, ErrDims)
	}
	if !src.SameShape(dst) {
		return fmt.Errorf("%d^%d vs %d^%d: %w", src.Size, src.Dims, dst.Size, dst.Dims, ErrSizeMismatch)
	}
	if src.Overlaps(dst) {
		return ErrAliased
	}
	return nil
}
