// Package grid provides the cubic (or square) intensity grids shared by the
// resampling kernels. A Volume is a flat row-major buffer with its
// reciprocal-space origin at integer index Size/2 along every axis.
package grid

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrInvalidSize is returned for a side length below 2.
	ErrInvalidSize = errors.New("grid: side length must be at least 2")

	// ErrInvalidDims is returned for a dimensionality other than 2 or 3.
	ErrInvalidDims = errors.New("grid: dimensionality must be 2 or 3")

	// ErrShapeMismatch is returned when a buffer does not hold Size^Dims values
	// or when two volumes that must agree in shape do not.
	ErrShapeMismatch = errors.New("grid: shape mismatch")
)

// Volume is a flat grid of Size^Dims intensities.
//
// Index of voxel (x, y, z) is (x*Size+y)*Size+z; in two dimensions (x, y)
// maps to x*Size+y. The buffer is owned by whoever created it; the kernels
// read and write it in place and never reallocate it.
type Volume struct {
	// Size is the side length of the grid in voxels.
	Size int

	// Dims is the dimensionality, 2 or 3.
	Dims int

	// Data holds the intensities in row-major order.
	Data []float64
}

// New allocates a zeroed volume.
func New(size, dims int) (*Volume, error) {
	if err := checkShape(size, dims); err != nil {
		return nil, err
	}
	return &Volume{
		Size: size,
		Dims: dims,
		Data: make([]float64, pow(size, dims)),
	}, nil
}

// Wrap adopts a caller-owned buffer without copying it.
func Wrap(data []float64, size, dims int) (*Volume, error) {
	v := &Volume{Size: size, Dims: dims, Data: data}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate reports whether the volume is usable by the kernels. A nil or
// empty volume fails here so no kernel ever runs on a degenerate grid.
func (v *Volume) Validate() error {
	if v == nil {
		return fmt.Errorf("nil volume: %w", ErrShapeMismatch)
	}
	if err := checkShape(v.Size, v.Dims); err != nil {
		return err
	}
	if want := pow(v.Size, v.Dims); len(v.Data) != want {
		return fmt.Errorf("buffer holds %d values, want %d for %d^%d: %w",
			len(v.Data), want, v.Size, v.Dims, ErrShapeMismatch)
	}
	return nil
}

// Len returns the number of voxels.
func (v *Volume) Len() int { return len(v.Data) }

// Center returns the integer index of the reciprocal-space origin.
func (v *Volume) Center() int { return v.Size / 2 }

// Index3 returns the flat index of (x, y, z). It does not bounds check.
func (v *Volume) Index3(x, y, z int) int { return (x*v.Size+y)*v.Size + z }

// Index2 returns the flat index of (x, y). It does not bounds check.
func (v *Volume) Index2(x, y int) int { return x*v.Size + y }

// At3 returns the value at (x, y, z) and false when the index is off-grid.
func (v *Volume) At3(x, y, z int) (float64, bool) {
	if !v.inside(x) || !v.inside(y) || !v.inside(z) {
		return 0, false
	}
	return v.Data[v.Index3(x, y, z)], true
}

func (v *Volume) inside(i int) bool { return i >= 0 && i < v.Size }

// SameShape reports whether o has the same size and dimensionality.
func (v *Volume) SameShape(o *Volume) bool {
	return v != nil && o != nil && v.Size == o.Size && v.Dims == o.Dims && len(v.Data) == len(o.Data)
}

// Overlaps reports whether v and o share any part of their backing arrays.
// Whole-volume operators use it to refuse reading and writing one buffer.
func (v *Volume) Overlaps(o *Volume) bool {
	if len(v.Data) == 0 || len(o.Data) == 0 {
		return false
	}
	const elem = unsafe.Sizeof(float64(0))
	a := uintptr(unsafe.Pointer(unsafe.SliceData(v.Data)))
	b := uintptr(unsafe.Pointer(unsafe.SliceData(o.Data)))
	return a < b+uintptr(len(o.Data))*elem && b < a+uintptr(len(v.Data))*elem
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	data := make([]float64, len(v.Data))
	copy(data, v.Data)
	return &Volume{Size: v.Size, Dims: v.Dims, Data: data}
}

// Zero resets every voxel to 0.
func (v *Volume) Zero() {
	clear(v.Data)
}

// Fill sets every voxel to val.
func (v *Volume) Fill(val float64) {
	for i := range v.Data {
		v.Data[i] = val
	}
}

func checkShape(size, dims int) error {
	if dims != 2 && dims != 3 {
		return fmt.Errorf("dims %d: %w", dims, ErrInvalidDims)
	}
	if size < 2 {
		return fmt.Errorf("size %d: %w", size, ErrInvalidSize)
	}
	return nil
}

func pow(size, dims int) int {
	n := 1
	for range dims {
		n *= size
	}
	return n
}
