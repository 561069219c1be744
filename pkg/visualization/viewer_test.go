package visualization

import (
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"emcvolume/pkg/grid"
)

// rampVolume returns a volume whose value is the x coordinate.
func rampVolume(t *testing.T, size int) *grid.Volume {
	t.Helper()
	v, err := grid.New(size, 3)
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}
	for x := range size {
		for y := range size {
			for z := range size {
				v.Data[v.Index3(x, y, z)] = float64(x)
			}
		}
	}
	return v
}

func TestNewViewer(t *testing.T) {
	v := rampVolume(t, 6)
	viewer, err := NewViewer(v, Linear)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}
	if viewer.min != 0 || viewer.max != 5 {
		t.Errorf("Expected range [0, 5], got [%v, %v]", viewer.min, viewer.max)
	}

	flat, _ := grid.New(6, 2)
	if _, err := NewViewer(flat, Linear); err == nil {
		t.Error("Expected error for a 2D volume, got nil")
	}
}

func TestSection(t *testing.T) {
	const size = 6
	viewer, err := NewViewer(rampVolume(t, size), Linear)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	// Perpendicular to x every pixel has the same value.
	pos := 3
	img, err := viewer.Section("x", pos)
	if err != nil {
		t.Fatalf("Failed to extract x section: %v", err)
	}
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		t.Errorf("Expected %dx%d section, got %dx%d", size, size, b.Dx(), b.Dy())
	}
	want := uint16(float64(pos) / 5 * 65535)
	for _, p := range []image.Point{{0, 0}, {2, 4}, {5, 5}} {
		if got := img.Gray16At(p.X, p.Y).Y; got != want {
			t.Errorf("x section at %v: expected %d, got %d", p, want, got)
		}
	}

	// Perpendicular to z, x runs along the columns.
	img, err = viewer.Section("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract z section: %v", err)
	}
	for col := range size {
		want := uint16(float64(col) / 5 * 65535)
		if got := img.Gray16At(col, 2).Y; got != want {
			t.Errorf("z section column %d: expected %d, got %d", col, want, got)
		}
	}

	if _, err := viewer.Section("invalid", 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
	if _, err := viewer.Section("y", size); err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}
}

func TestLogScale(t *testing.T) {
	viewer, err := NewViewer(rampVolume(t, 6), Log)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}
	img, err := viewer.Section("x", 1)
	if err != nil {
		t.Fatalf("Failed to extract section: %v", err)
	}
	want := uint16(math.Log1p(1) / math.Log1p(5) * 65535)
	if got := img.Gray16At(0, 0).Y; got != want {
		t.Errorf("Expected log level %d, got %d", want, got)
	}
	if linear := uint16(65535.0 / 5); want <= linear {
		t.Errorf("Log scale should lift weak values: log %d, linear %d", want, linear)
	}

	if s, err := ParseScale("log"); err != nil || s != Log {
		t.Errorf("ParseScale(log) = %v, %v", s, err)
	}
	if _, err := ParseScale("sqrt"); err == nil {
		t.Error("Expected error for unknown scale, got nil")
	}
}

func TestUpscale(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	if Upscale(img, 1) != img {
		t.Error("Factor 1 should return the input")
	}
	big := Upscale(img, 3)
	if b := big.Bounds(); b.Dx() != 12 || b.Dy() != 12 {
		t.Fatalf("Expected 12x12, got %dx%d", b.Dx(), b.Dy())
	}
	orig := int(img.Gray16At(0, 0).Y)
	if got := int(big.Gray16At(6, 6).Y); math.Abs(float64(got-orig)) > 1 {
		t.Errorf("Constant image should stay constant: %d vs %d", got, orig)
	}
}

func TestSaveCentralSections(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	viewer, err := NewViewer(rampVolume(t, 5), Linear)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "sections")
	paths, err := viewer.SaveCentralSections(dir, "intensity", 2)
	if err != nil {
		t.Fatalf("Failed to save sections: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("Expected 3 files, got %d", len(paths))
	}
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			t.Fatalf("Saved file missing: %v", err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("Invalid PNG %s: %v", p, err)
		}
		if cfg.Width != 10 || cfg.Height != 10 {
			t.Errorf("%s: expected 10x10, got %dx%d", p, cfg.Width, cfg.Height)
		}
	}
}
