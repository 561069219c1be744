// Package visualization renders orthogonal sections of a cubic volume as
// 16-bit grayscale images for quick inspection of merged intensities.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"

	"emcvolume/pkg/grid"
)

// Scale selects how voxel values map to gray levels.
type Scale int

const (
	// Linear maps [min, max] of the volume linearly onto [0, 65535].
	Linear Scale = iota

	// Log maps log(1 + v - min) instead, which keeps the weak high-q
	// shells of a diffraction volume visible next to the central peak.
	Log
)

// ParseScale converts "linear" or "log" into a Scale.
func ParseScale(s string) (Scale, error) {
	switch s {
	case "", "linear":
		return Linear, nil
	case "log":
		return Log, nil
	}
	return Linear, fmt.Errorf("invalid scale: %s (must be linear or log)", s)
}

// Viewer extracts sections from a 3D volume. Gray levels are normalized
// against the whole volume so sections of the same volume are comparable.
type Viewer struct {
	volume *grid.Volume
	scale  Scale
	min    float64
	max    float64
}

// NewViewer creates a viewer over a 3D volume.
func NewViewer(v *grid.Volume, scale Scale) (*Viewer, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if v.Dims != 3 {
		return nil, fmt.Errorf("viewer needs a 3D volume, got %d dims: %w", v.Dims, grid.ErrInvalidDims)
	}
	return &Viewer{
		volume: v,
		scale:  scale,
		min:    floats.Min(v.Data),
		max:    floats.Max(v.Data),
	}, nil
}

// level maps a voxel value to a 16-bit gray level.
func (vw *Viewer) level(x float64) uint16 {
	span := vw.max - vw.min
	if span <= 0 || math.IsNaN(x) {
		return 0
	}
	var f float64
	switch vw.scale {
	case Log:
		f = math.Log1p(x-vw.min) / math.Log1p(span)
	default:
		f = (x - vw.min) / span
	}
	return uint16(math.Max(0, math.Min(65535, f*65535)))
}

// Section extracts the plane perpendicular to axis ("x", "y" or "z") at the
// given position. The two remaining axes, in x, y, z order, run along the
// image columns and rows.
func (vw *Viewer) Section(axis string, position int) (*image.Gray16, error) {
	size := vw.volume.Size
	if position < 0 || position >= size {
		return nil, fmt.Errorf("position %d outside [0, %d)", position, size)
	}

	var at func(a, b int) int
	switch axis {
	case "x", "X":
		at = func(a, b int) int { return vw.volume.Index3(position, a, b) }
	case "y", "Y":
		at = func(a, b int) int { return vw.volume.Index3(a, position, b) }
	case "z", "Z":
		at = func(a, b int) int { return vw.volume.Index3(a, b, position) }
	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	img := image.NewGray16(image.Rect(0, 0, size, size))
	for b := range size {
		for a := range size {
			img.SetGray16(a, b, color.Gray16{Y: vw.level(vw.volume.Data[at(a, b)])})
		}
	}
	return img, nil
}

// CentralSections returns the x, y and z sections through the grid center.
func (vw *Viewer) CentralSections() (map[string]*image.Gray16, error) {
	c := vw.volume.Center()
	out := make(map[string]*image.Gray16, 3)
	for _, axis := range []string{"x", "y", "z"} {
		img, err := vw.Section(axis, c)
		if err != nil {
			return nil, err
		}
		out[axis] = img
	}
	return out, nil
}

// Upscale enlarges img by an integer factor with Catmull-Rom resampling.
// Factors below 2 return img unchanged.
func Upscale(img *image.Gray16, factor int) *image.Gray16 {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	dst := image.NewGray16(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SaveSection writes an image as PNG.
func SaveSection(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveCentralSections writes the three central sections into outputDir as
// <prefix>_<axis>.png, upscaled by factor. It returns the written paths.
func (vw *Viewer) SaveCentralSections(outputDir, prefix string, factor int) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}
	sections, err := vw.CentralSections()
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, axis := range []string{"x", "y", "z"} {
		filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", prefix, axis))
		if err := SaveSection(Upscale(sections[axis], factor), filename); err != nil {
			return nil, err
		}
		paths = append(paths, filename)
	}
	return paths, nil
}
