package phantom

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"emcvolume/pkg/grid"
	"emcvolume/pkg/parallel"
)

// Intensity returns |F|^2 of a real density, where F is its 3D discrete
// Fourier transform. Frequency 0 is placed at the grid center, so the
// result follows the same centering convention as every kernel and is
// centrosymmetric up to rounding.
func Intensity(density *grid.Volume, workers int) (*grid.Volume, error) {
	if err := density.Validate(); err != nil {
		return nil, err
	}
	if density.Dims != 3 {
		return nil, fmt.Errorf("density has %d dims: %w", density.Dims, ErrInvalidSpec)
	}

	size := density.Size
	spec := make([]complex128, len(density.Data))
	for i, v := range density.Data {
		spec[i] = complex(v, 0)
	}

	// Transform along z, then y, then x. Each line is independent.
	strides := [3]int{1, size, size * size}
	lines := size * size
	w := parallel.Workers(workers, lines, 16)
	for _, stride := range strides {
		parallel.For(lines, w, func(lo, hi int) {
			fft := fourier.NewCmplxFFT(size)
			line := make([]complex128, size)
			for l := lo; l < hi; l++ {
				start := lineStart(l, stride, size)
				for k := range size {
					line[k] = spec[start+k*stride]
				}
				fft.Coefficients(line, line)
				for k := range size {
					spec[start+k*stride] = line[k]
				}
			}
		})
	}

	out, err := grid.New(size, 3)
	if err != nil {
		return nil, err
	}
	c := size / 2
	shift := func(k int) int { return (k + c) % size }
	for x := range size {
		for y := range size {
			for z := range size {
				f := spec[(x*size+y)*size+z]
				out.Data[out.Index3(shift(x), shift(y), shift(z))] = real(f)*real(f) + imag(f)*imag(f)
			}
		}
	}
	return out, nil
}

// lineStart returns the flat index of the first element of line l when
// lines run along the axis with the given stride.
func lineStart(l, stride, size int) int {
	switch stride {
	case 1:
		return l * size
	case size:
		return (l/size)*size*size + l%size
	default:
		return l
	}
}
