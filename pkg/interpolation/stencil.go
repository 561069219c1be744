// Package interpolation implements the multilinear stencils shared by every
// resampling kernel.
//
// A stencil is the set of grid corners surrounding a fractional query point
// together with their interpolation weights. Forward operators gather
// through a stencil and adjoint operators scatter through the very same
// stencil, which keeps slice extraction and slice merging exact adjoints of
// each other.
//
// Bounds policy: a query point is usable only when every coordinate lies in
// the closed interval [0, size-1]. A coordinate equal to size-1 is anchored
// at size-2 with a fractional part of 1, so every corner index stays inside
// the grid and the corner weights still sum to 1.
package interpolation

// Stencil3 holds the 8 corners of a trilinear stencil.
type Stencil3 struct {
	Index  [8]int
	Weight [8]float64
}

// Stencil2 holds the 4 corners of a bilinear stencil.
type Stencil2 struct {
	Index  [4]int
	Weight [4]float64
}

// anchor returns the lower stencil corner along one axis and the fractional
// distance from it. NaN fails the range test.
func anchor(x float64, size int) (int, float64, bool) {
	if size < 2 || !(x >= 0 && x <= float64(size-1)) {
		return 0, 0, false
	}
	i := int(x)
	if i > size-2 {
		i = size - 2
	}
	return i, x - float64(i), true
}

// Trilinear builds the stencil for p, given in fractional grid indices of a
// cube with side size. It reports false when p is out of range.
func Trilinear(p [3]float64, size int) (Stencil3, bool) {
	var s Stencil3

	x, fx, ok := anchor(p[0], size)
	if !ok {
		return s, false
	}
	y, fy, ok := anchor(p[1], size)
	if !ok {
		return s, false
	}
	z, fz, ok := anchor(p[2], size)
	if !ok {
		return s, false
	}

	wx := [2]float64{1 - fx, fx}
	wy := [2]float64{1 - fy, fy}
	wz := [2]float64{1 - fz, fz}

	k := 0
	for dx := range 2 {
		for dy := range 2 {
			row := ((x+dx)*size + y + dy) * size
			wxy := wx[dx] * wy[dy]
			for dz := range 2 {
				s.Index[k] = row + z + dz
				s.Weight[k] = wxy * wz[dz]
				k++
			}
		}
	}
	return s, true
}

// Bilinear builds the stencil for p on a square grid with side size.
func Bilinear(p [2]float64, size int) (Stencil2, bool) {
	var s Stencil2

	x, fx, ok := anchor(p[0], size)
	if !ok {
		return s, false
	}
	y, fy, ok := anchor(p[1], size)
	if !ok {
		return s, false
	}

	wx := [2]float64{1 - fx, fx}
	wy := [2]float64{1 - fy, fy}

	k := 0
	for dx := range 2 {
		for dy := range 2 {
			s.Index[k] = (x+dx)*size + y + dy
			s.Weight[k] = wx[dx] * wy[dy]
			k++
		}
	}
	return s, true
}

// Gather returns the weighted sum of data over the stencil corners.
func (s *Stencil3) Gather(data []float64) float64 {
	var sum float64
	for k, idx := range s.Index {
		sum += s.Weight[k] * data[idx]
	}
	return sum
}

// Scatter adds value times each corner weight into data.
func (s *Stencil3) Scatter(data []float64, value float64) {
	for k, idx := range s.Index {
		data[idx] += s.Weight[k] * value
	}
}

// Gather returns the weighted sum of data over the stencil corners.
func (s *Stencil2) Gather(data []float64) float64 {
	var sum float64
	for k, idx := range s.Index {
		sum += s.Weight[k] * data[idx]
	}
	return sum
}

// Scatter adds value times each corner weight into data.
func (s *Stencil2) Scatter(data []float64, value float64) {
	for k, idx := range s.Index {
		data[idx] += s.Weight[k] * value
	}
}
