package slicing

import (
	"emcvolume/pkg/detector"
	"emcvolume/pkg/grid"
	"emcvolume/pkg/parallel"
	"emcvolume/pkg/rotation"
)

const (
	// minPixelsPerWorker keeps small detectors on one goroutine.
	minPixelsPerWorker = 1024

	minVoxelsPerWorker = 4096
)

// Extract3D writes into out the slice of model seen by det under rot,
// multiplied by scale. Pixels whose rotated coordinate leaves the volume
// get OutOfBounds. model is only read.
func Extract3D(rot rotation.Matrix3, model *grid.Volume, scale float64, det *detector.Detector, out []float64, opts ...Option) error {
	if err := checkVolume(model, 3, "model"); err != nil {
		return err
	}
	if err := checkPattern(det, out); err != nil {
		return err
	}
	extract(newKernel3(rot, model, det), model, scale, out, buildOptions(opts))
	return nil
}

// Extract2D is the planar analogue of Extract3D. It uses the X and Y
// components of each pixel coordinate.
func Extract2D(rot rotation.Matrix2, model *grid.Volume, scale float64, det *detector.Detector, out []float64, opts ...Option) error {
	if err := checkVolume(model, 2, "model"); err != nil {
		return err
	}
	if err := checkPattern(det, out); err != nil {
		return err
	}
	extract(newKernel2(rot, model, det), model, scale, out, buildOptions(opts))
	return nil
}

func extract(k kernel, model *grid.Volume, scale float64, out []float64, o options) {
	n := len(out)
	workers := parallel.Workers(o.workers, n, minPixelsPerWorker)
	parallel.For(n, workers, func(lo, hi int) {
		for t := lo; t < hi; t++ {
			v, ok := k.gather(t, model.Data)
			if !ok {
				out[t] = OutOfBounds
				continue
			}
			out[t] = v * scale
		}
	})
}
