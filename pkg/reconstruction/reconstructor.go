package reconstruction

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"

	"emcvolume/internal/models"
	"emcvolume/pkg/config"
	"emcvolume/pkg/detector"
	"emcvolume/pkg/grid"
	"emcvolume/pkg/logging"
	"emcvolume/pkg/metrics"
	"emcvolume/pkg/parallel"
	"emcvolume/pkg/phantom"
	"emcvolume/pkg/rotation"
	"emcvolume/pkg/slicing"
	"emcvolume/pkg/symmetry"
	"emcvolume/pkg/visualization"
)

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// ValidationMetrics holds the quality of the merged volume against the
// reference intensity, plus run statistics.
type ValidationMetrics struct {
	metrics.Report

	// Orientations is the number of patterns merged.
	Orientations int

	// Pixels is the number of detector pixels per pattern.
	Pixels int

	// Stages lists the pipeline stages in execution order.
	Stages []StageTiming

	// Sections lists the preview images written, if any.
	Sections []string
}

// Reconstructor runs a full slice-and-merge cycle on a synthetic object.
//
// The pipeline consists of:
// 1. Building the detector from the configured panel geometry
// 2. Building the reference intensity from the phantom density
// 3. Sampling orientations
// 4. Extracting one pattern per orientation and merging it back
// 5. Normalizing the merged model by the accumulated weights
// 6. Applying the configured symmetry
// 7. Comparing against the reference and saving previews
type Reconstructor struct {
	cfg *config.Config

	det          *detector.Detector
	reference    *grid.Volume
	orientations []models.Orientation

	// model and weight are the merge accumulators. After normalization
	// model holds the intensity estimate.
	model  *grid.Volume
	weight *grid.Volume

	metrics ValidationMetrics
}

// NewReconstructor creates a reconstructor for the given configuration.
func NewReconstructor(cfg *config.Config) *Reconstructor {
	return &Reconstructor{cfg: cfg}
}

// Process runs the complete pipeline.
func (r *Reconstructor) Process() error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}

	stages := []struct {
		name string
		run  func() error
	}{
		{"detector", r.buildDetector},
		{"reference", r.buildReference},
		{"orientations", r.sampleOrientations},
		{"merge", r.mergePatterns},
		{"normalize", r.normalize},
		{"symmetrize", r.symmetrize},
		{"compare", r.compare},
		{"sections", r.saveSections},
	}

	log := logging.Logger()
	r.metrics = ValidationMetrics{}
	for i, s := range stages {
		log.Info("stage started", "step", i+1, "stage", s.name)
		start := time.Now()
		if err := s.run(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		d := time.Since(start)
		r.metrics.Stages = append(r.metrics.Stages, StageTiming{Name: s.name, Duration: d})
		log.Info("stage finished", "stage", s.name, "duration", d)
	}
	return nil
}

func (r *Reconstructor) buildDetector() error {
	c := r.cfg.Detector
	det, err := detector.NewPlanar(detector.Planar{
		NX:           c.NX,
		NY:           c.NY,
		PixelSize:    c.PixelSize,
		Distance:     c.Distance,
		EwaldRadius:  c.EwaldRadius,
		Beamstop:     c.Beamstop,
		QMax:         c.QMax,
		Polarization: detector.Polarization(c.Polarization),
	})
	if err != nil {
		return err
	}
	r.det = det
	r.metrics.Pixels = det.NumPixels()
	logging.Logger().Info("detector ready",
		"pixels", det.NumPixels(),
		"bad", det.Count(detector.MaskBad),
		"ignored", det.Count(detector.MaskIgnored),
		"maxQ", det.MaxQ())
	return nil
}

// buildReference computes the phantom intensity, scaled so its maximum is
// 1. A 2D run uses the central z section.
func (r *Reconstructor) buildReference() error {
	size := r.cfg.Volume.Size
	density, err := phantom.Density(size, phantom.Spec{
		Radius:  r.cfg.Phantom.Radius,
		Spacing: r.cfg.Phantom.Spacing,
		Core:    r.cfg.Phantom.Core,
	})
	if err != nil {
		return err
	}
	in, err := phantom.Intensity(density, r.cfg.Run.Workers)
	if err != nil {
		return err
	}
	if peak := floats.Max(in.Data); peak > 0 {
		floats.Scale(1/peak, in.Data)
	}

	if r.cfg.Volume.Dims == 3 {
		r.reference = in
		return nil
	}
	plane, err := grid.New(size, 2)
	if err != nil {
		return err
	}
	c := in.Center()
	for x := range size {
		for y := range size {
			plane.Data[plane.Index2(x, y)] = in.Data[in.Index3(x, y, c)]
		}
	}
	r.reference = plane
	return nil
}

func (r *Reconstructor) sampleOrientations() error {
	seed := r.cfg.Run.Seed
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	if r.cfg.Volume.Dims == 3 {
		r.orientations = models.RandomOrientations(r.cfg.Run.Orientations, rng)
	} else {
		r.orientations = models.RandomInPlane(r.cfg.Run.Orientations, rng)
	}
	r.metrics.Orientations = len(r.orientations)
	return nil
}

// mergePatterns extracts the reference under every orientation and merges
// each pattern back with that orientation's weight. Concurrent merges are
// reduced into the accumulators once, after the last orientation.
func (r *Reconstructor) mergePatterns() error {
	var err error
	if r.model, err = grid.New(r.cfg.Volume.Size, r.cfg.Volume.Dims); err != nil {
		return err
	}
	if r.weight, err = grid.New(r.cfg.Volume.Size, r.cfg.Volume.Dims); err != nil {
		return err
	}

	workers := slicing.WithWorkers(r.cfg.Run.Workers)
	merger := slicing.NewMerger(workers)
	pattern := make([]float64, r.det.NumPixels())
	for i, o := range r.orientations {
		if r.cfg.Volume.Dims == 3 {
			rot := o.Rotation()
			if err := slicing.Extract3D(rot, r.reference, 1, r.det, pattern, workers); err != nil {
				return fmt.Errorf("orientation %d: %w", i, err)
			}
			if err := merger.Merge3D(rot, pattern, o.Weight, r.det, r.model, r.weight); err != nil {
				return fmt.Errorf("orientation %d: %w", i, err)
			}
			continue
		}
		rot := rotation.FromAngle(o.Angle())
		if err := slicing.Extract2D(rot, r.reference, 1, r.det, pattern, workers); err != nil {
			return fmt.Errorf("orientation %d: %w", i, err)
		}
		if err := merger.Merge2D(rot, pattern, o.Weight, r.det, r.model, r.weight); err != nil {
			return fmt.Errorf("orientation %d: %w", i, err)
		}
	}
	merger.Flush()
	return nil
}

// normalize divides the model by the weight. Voxels no pixel reached are
// set to 0.
func (r *Reconstructor) normalize() error {
	model, weight := r.model.Data, r.weight.Data
	n := len(model)
	parallel.For(n, parallel.Workers(r.cfg.Run.Workers, n, 4096), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if weight[i] > 0 {
				model[i] /= weight[i]
			} else {
				model[i] = 0
			}
		}
	})
	return nil
}

func (r *Reconstructor) symmetrize() error {
	avg := symmetry.NewAverager(symmetry.WithWorkers(r.cfg.Run.Workers))
	switch r.cfg.Run.Symmetry {
	case config.SymmetryFriedel:
		return avg.Friedel(r.model)
	case config.SymmetryIcosahedral:
		return avg.Icosahedral(r.model)
	case config.SymmetryBoth:
		if err := avg.Icosahedral(r.model); err != nil {
			return err
		}
		return avg.Friedel(r.model)
	}
	return nil
}

func (r *Reconstructor) compare() error {
	report, err := metrics.Compare(r.reference.Data, r.model.Data, r.weight.Data)
	if err != nil {
		return err
	}
	r.metrics.Report = report
	return nil
}

// saveSections writes central sections of the reference and the model.
// Only 3D volumes have sections.
func (r *Reconstructor) saveSections() error {
	out := r.cfg.Output
	if out.SectionsDir == "" {
		return nil
	}
	if r.model.Dims != 3 {
		logging.Logger().Warn("sections are only written for 3D volumes")
		return nil
	}
	scale, err := visualization.ParseScale(out.Scale)
	if err != nil {
		return err
	}

	for _, v := range []struct {
		prefix string
		vol    *grid.Volume
	}{
		{"reference", r.reference},
		{"merged", r.model},
	} {
		viewer, err := visualization.NewViewer(v.vol, scale)
		if err != nil {
			return err
		}
		paths, err := viewer.SaveCentralSections(out.SectionsDir, v.prefix, out.Upscale)
		if err != nil {
			return err
		}
		r.metrics.Sections = append(r.metrics.Sections, paths...)
	}
	return nil
}

// GetMetrics returns the metrics of the last Process call.
func (r *Reconstructor) GetMetrics() ValidationMetrics {
	return r.metrics
}

// Model returns the normalized, symmetrized intensity estimate.
func (r *Reconstructor) Model() *grid.Volume { return r.model }

// Weight returns the accumulated interpolation weights.
func (r *Reconstructor) Weight() *grid.Volume { return r.weight }

// Reference returns the ground-truth intensity.
func (r *Reconstructor) Reference() *grid.Volume { return r.reference }

// Detector returns the detector built from the configuration.
func (r *Reconstructor) Detector() *detector.Detector { return r.det }
