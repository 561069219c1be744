// Package symmetry projects intensity volumes onto the icosahedral point
// group and onto Friedel (centrosymmetric) symmetry.
//
// Both operators compute the symmetrized values into a scratch buffer and
// then copy them over the caller's buffer, so no voxel is ever read after
// it has been overwritten.
package symmetry

import (
	"errors"
	"fmt"

	"emcvolume/pkg/grid"
	"emcvolume/pkg/interpolation"
	"emcvolume/pkg/logging"
	"emcvolume/pkg/parallel"
)

// ErrDims is returned when the icosahedral operator is given a 2D volume.
var ErrDims = errors.New("symmetry: icosahedral averaging needs a 3D volume")

type options struct {
	workers int
}

// Option configures an Averager.
type Option func(*options)

// WithWorkers bounds the number of goroutines. Zero or less means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Averager applies symmetry operators in place, reusing one scratch buffer
// across calls. An Averager must not be used by two goroutines at once.
type Averager struct {
	opts    options
	scratch []float64
}

// NewAverager returns an Averager with the given options.
func NewAverager(opts ...Option) *Averager {
	a := &Averager{}
	for _, fn := range opts {
		fn(&a.opts)
	}
	return a
}

func (a *Averager) buffer(n int) []float64 {
	if cap(a.scratch) < n {
		a.scratch = make([]float64, n)
	}
	return a.scratch[:n]
}

// Icosahedral replaces every voxel with the mean of the volume sampled at
// the voxel's 60 symmetry-equivalent positions. Samples that fall off the
// grid are left out of the mean; the identity sample is always on the grid,
// so every voxel has at least one.
func (a *Averager) Icosahedral(v *grid.Volume) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if v.Dims != 3 {
		return fmt.Errorf("volume has %d dims: %w", v.Dims, ErrDims)
	}

	group := icosahedralTable()
	size := v.Size
	c := float64(v.Center())
	out := a.buffer(len(v.Data))
	workers := parallel.Workers(a.opts.workers, size, 1)
	logging.Logger().Debug("icosahedral averaging", "size", size, "workers", workers)

	parallel.For(size, workers, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := range size {
				base := (x*size + y) * size
				for z := range size {
					r := [3]float64{float64(x) - c, float64(y) - c, float64(z) - c}

					var sum float64
					n := 0
					for _, rot := range group {
						p := rot.Apply(r)
						p[0] += c
						p[1] += c
						p[2] += c
						s, ok := interpolation.Trilinear(p, size)
						if !ok {
							continue
						}
						sum += s.Gather(v.Data)
						n++
					}
					out[base+z] = sum / float64(n)
				}
			}
		}
	})

	copy(v.Data, out)
	return nil
}

// Friedel averages every voxel with its point-inverted partner about the
// grid center: the voxel at centered offset r is paired with -r. For an odd
// side this is (S-1-x, S-1-y, S-1-z). A voxel whose partner would be off the
// grid (the index 0 planes of an even side) is left unchanged, as is the
// center voxel, which is its own partner. Works on 2D and 3D volumes.
func (a *Averager) Friedel(v *grid.Volume) error {
	if err := v.Validate(); err != nil {
		return err
	}

	size := v.Size
	c2 := 2 * v.Center()
	out := a.buffer(len(v.Data))
	workers := parallel.Workers(a.opts.workers, size, 4)

	partner := func(i int) (int, bool) {
		j := c2 - i
		return j, j >= 0 && j < size
	}

	parallel.For(size, workers, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			px, okx := partner(x)
			for y := range size {
				py, oky := partner(y)
				if v.Dims == 2 {
					i := x*size + y
					if okx && oky {
						out[i] = 0.5 * (v.Data[i] + v.Data[px*size+py])
					} else {
						out[i] = v.Data[i]
					}
					continue
				}
				base := (x*size + y) * size
				pbase := (px*size + py) * size
				for z := range size {
					pz, okz := partner(z)
					if okx && oky && okz {
						out[base+z] = 0.5 * (v.Data[base+z] + v.Data[pbase+pz])
					} else {
						out[base+z] = v.Data[base+z]
					}
				}
			}
		}
	})

	copy(v.Data, out)
	return nil
}

// SymmetrizeIcosahedral applies the icosahedral operator with a fresh
// scratch buffer.
func SymmetrizeIcosahedral(v *grid.Volume, opts ...Option) error {
	return NewAverager(opts...).Icosahedral(v)
}

// SymmetrizeFriedel applies the Friedel operator with a fresh scratch buffer.
func SymmetrizeFriedel(v *grid.Volume, opts ...Option) error {
	return NewAverager(opts...).Friedel(v)
}
