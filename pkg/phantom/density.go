// Package phantom builds synthetic test objects: a real-space electron
// density made of uniform spheres and the diffraction intensity it
// produces. The driver uses them as ground truth when exercising the
// resampling kernels.
package phantom

import (
	"errors"
	"fmt"
	"math"

	"emcvolume/pkg/grid"
	"emcvolume/pkg/symmetry"
)

// ErrInvalidSpec is returned for non-physical phantom parameters.
var ErrInvalidSpec = errors.New("phantom: invalid specification")

// Spec describes the sphere arrangement.
type Spec struct {
	// Radius is the radius of every sphere in voxels.
	Radius float64

	// Spacing is the distance from the grid center to each vertex sphere.
	Spacing float64

	// Core adds a sphere at the grid center.
	Core bool
}

// Centers returns the sphere centers relative to the grid center: one on
// each vertex of the reference icosahedron, scaled to Spacing, and the
// origin when Core is set.
func (s Spec) Centers() [][3]float64 {
	verts := symmetry.IcosahedronVertices()
	norm := math.Sqrt(1 + symmetry.Phi*symmetry.Phi)

	centers := make([][3]float64, 0, len(verts)+1)
	for _, v := range verts {
		f := s.Spacing / norm
		centers = append(centers, [3]float64{v[0] * f, v[1] * f, v[2] * f})
	}
	if s.Core {
		centers = append(centers, [3]float64{})
	}
	return centers
}

// Density samples the phantom on a cube of the given side: voxels inside
// any sphere are 1, all others 0.
func Density(size int, s Spec) (*grid.Volume, error) {
	if s.Radius <= 0 || s.Spacing < 0 {
		return nil, fmt.Errorf("radius %g, spacing %g: %w", s.Radius, s.Spacing, ErrInvalidSpec)
	}
	v, err := grid.New(size, 3)
	if err != nil {
		return nil, err
	}
	if half := float64(size-1) / 2; s.Spacing+s.Radius > half {
		return nil, fmt.Errorf("object extent %g exceeds half grid %g: %w", s.Spacing+s.Radius, half, ErrInvalidSpec)
	}

	c := v.Center()
	r2 := s.Radius * s.Radius
	centers := s.Centers()
	for x := range size {
		for y := range size {
			for z := range size {
				p := [3]float64{float64(x - c), float64(y - c), float64(z - c)}
				for _, o := range centers {
					dx, dy, dz := p[0]-o[0], p[1]-o[1], p[2]-o[2]
					if dx*dx+dy*dy+dz*dz <= r2 {
						v.Data[v.Index3(x, y, z)] = 1
						break
					}
				}
			}
		}
	}
	return v, nil
}
