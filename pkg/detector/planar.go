package detector

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Polarization selects the polarization correction applied to each pixel.
type Polarization string

const (
	PolarizationNone Polarization = "none"
	PolarizationX    Polarization = "x"
	PolarizationY    Polarization = "y"
)

// Planar describes a flat-panel detector normal to the beam.
type Planar struct {
	// NX and NY are the pixel counts along each panel axis.
	NX, NY int

	// PixelSize is the pixel pitch, in the same unit as Distance.
	PixelSize float64

	// Distance is the sample-detector distance.
	Distance float64

	// EwaldRadius scales the unit scattering vector into voxels.
	EwaldRadius float64

	// Beamstop is the radius, in pixels, inside which pixels are MaskBad.
	Beamstop float64

	// QMax is the |q| in voxels beyond which pixels are MaskIgnored. Zero
	// disables the cut.
	QMax float64

	// Polarization selects the polarization factor. Empty means none.
	Polarization Polarization
}

// NewPlanar projects every pixel of a flat panel onto the Ewald sphere.
//
// Pixel (i, j) sits at (x, y, D) with x and y measured from the panel
// center. With n = |(x, y, D)| its scattering vector in voxels is
//
//	q = R * (x/n, y/n, D/n - 1)
//
// and its correction is the solid angle D/n^3, normalized to 1 on the beam
// axis, times the polarization factor.
func NewPlanar(p Planar) (*Detector, error) {
	if p.NX <= 0 || p.NY <= 0 {
		return nil, fmt.Errorf("panel %dx%d: %w", p.NX, p.NY, ErrEmpty)
	}
	if p.PixelSize <= 0 || p.Distance <= 0 || p.EwaldRadius <= 0 {
		return nil, fmt.Errorf("pixel size %g, distance %g, ewald radius %g: %w",
			p.PixelSize, p.Distance, p.EwaldRadius, ErrInvalidGeometry)
	}
	switch p.Polarization {
	case "", PolarizationNone, PolarizationX, PolarizationY:
	default:
		return nil, fmt.Errorf("polarization %q: %w", p.Polarization, ErrInvalidGeometry)
	}

	n := p.NX * p.NY
	d := &Detector{
		Q:           make([]r3.Vec, n),
		Correction:  make([]float64, n),
		Mask:        make([]Mask, n),
		Distance:    p.Distance,
		EwaldRadius: p.EwaldRadius,
	}

	cx := float64(p.NX-1) / 2
	cy := float64(p.NY-1) / 2
	for i := range p.NX {
		for j := range p.NY {
			t := i*p.NY + j
			px, py := float64(i)-cx, float64(j)-cy
			x, y := px*p.PixelSize, py*p.PixelSize

			norm := math.Sqrt(x*x + y*y + p.Distance*p.Distance)
			q := r3.Scale(p.EwaldRadius, r3.Vec{X: x / norm, Y: y / norm, Z: p.Distance/norm - 1})
			d.Q[t] = q

			solid := p.Distance * p.Distance * p.Distance / (norm * norm * norm)
			d.Correction[t] = solid * polarizationFactor(p.Polarization, x/norm, y/norm)

			switch {
			case math.Hypot(px, py) < p.Beamstop:
				d.Mask[t] = MaskBad
			case p.QMax > 0 && r3.Norm(q) > p.QMax:
				d.Mask[t] = MaskIgnored
			}
		}
	}
	return d, nil
}

func polarizationFactor(pol Polarization, sx, sy float64) float64 {
	switch pol {
	case PolarizationX:
		return 1 - sx*sx
	case PolarizationY:
		return 1 - sy*sy
	default:
		return 1
	}
}
