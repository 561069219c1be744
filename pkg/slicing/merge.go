package slicing

import (
	"gonum.org/v1/gonum/floats"

	"emcvolume/pkg/detector"
	"emcvolume/pkg/grid"
	"emcvolume/pkg/logging"
	"emcvolume/pkg/parallel"
	"emcvolume/pkg/rotation"
)

// Merger scatters weighted patterns into accumulator volumes.
//
// Distinct pixels can share stencil corners, so a concurrent merge splits
// the pixels into contiguous chunks and scatters each chunk into its own
// partial model and weight. The partials persist across calls and are
// added into the target volumes by Flush, in chunk order, so a batch of
// patterns costs one reduction instead of one per pattern. Until Flush the
// target volumes hold only the contributions of single-worker merges.
// For a fixed worker count the result is deterministic; across worker
// counts it agrees to rounding.
//
// A Merger holds two partial volumes per worker and must not be used by
// two goroutines at once. Merging into different volumes flushes the
// pending partials into the previous ones first.
type Merger struct {
	opts     options
	partials [][]float64

	// pending is the number of partial pairs holding unflushed data for
	// the model and weight volumes below.
	pending       int
	model, weight *grid.Volume
}

// NewMerger returns a Merger with the given options.
func NewMerger(opts ...Option) *Merger {
	return &Merger{opts: buildOptions(opts)}
}

// Merge3D adds pattern[t]*scale*w to model and scale*w to weight at every
// stencil corner of every pixel t whose rotated coordinate lies inside the
// volume, where w is the corner's trilinear weight. MaskBad pixels are
// skipped. Nothing is ever divided.
func (m *Merger) Merge3D(rot rotation.Matrix3, pattern []float64, scale float64, det *detector.Detector, model, weight *grid.Volume) error {
	if err := m.check(pattern, det, model, weight, 3); err != nil {
		return err
	}
	m.merge(newKernel3(rot, model, det), pattern, scale, det, model, weight)
	return nil
}

// Merge2D is the planar analogue of Merge3D.
func (m *Merger) Merge2D(rot rotation.Matrix2, pattern []float64, scale float64, det *detector.Detector, model, weight *grid.Volume) error {
	if err := m.check(pattern, det, model, weight, 2); err != nil {
		return err
	}
	m.merge(newKernel2(rot, model, det), pattern, scale, det, model, weight)
	return nil
}

// Merge3D merges one pattern with a fresh Merger and flushes it.
func Merge3D(rot rotation.Matrix3, pattern []float64, scale float64, det *detector.Detector, model, weight *grid.Volume, opts ...Option) error {
	m := NewMerger(opts...)
	if err := m.Merge3D(rot, pattern, scale, det, model, weight); err != nil {
		return err
	}
	m.Flush()
	return nil
}

// Merge2D merges one pattern with a fresh Merger and flushes it.
func Merge2D(rot rotation.Matrix2, pattern []float64, scale float64, det *detector.Detector, model, weight *grid.Volume, opts ...Option) error {
	m := NewMerger(opts...)
	if err := m.Merge2D(rot, pattern, scale, det, model, weight); err != nil {
		return err
	}
	m.Flush()
	return nil
}

func (m *Merger) check(pattern []float64, det *detector.Detector, model, weight *grid.Volume, dims int) error {
	if err := checkVolume(model, dims, "model"); err != nil {
		return err
	}
	if err := checkVolume(weight, dims, "weight"); err != nil {
		return err
	}
	if !model.SameShape(weight) {
		return ErrShapeMismatch
	}
	if model.Overlaps(weight) {
		return ErrAliased
	}
	return checkPattern(det, pattern)
}

func (m *Merger) merge(k kernel, pattern []float64, scale float64, det *detector.Detector, model, weight *grid.Volume) {
	n := len(pattern)
	workers := parallel.Workers(m.opts.workers, n, minPixelsPerWorker)

	scatterRange := func(lo, hi int, mdst, wdst []float64) int {
		merged := 0
		for t := lo; t < hi; t++ {
			if det.Mask[t] == detector.MaskBad {
				continue
			}
			if k.scatter(t, mdst, wdst, pattern[t], scale) {
				merged++
			}
		}
		return merged
	}

	if workers == 1 {
		merged := scatterRange(0, n, model.Data, weight.Data)
		logging.Logger().Debug("merged pattern", "pixels", merged, "workers", 1)
		return
	}

	if m.pending > 0 && (m.model != model || m.weight != weight) {
		m.Flush()
	}
	m.model, m.weight = model, weight

	chunks := parallel.Chunks(n, workers)
	bufs := m.buffers(2*len(chunks), len(model.Data))
	counts := make([]int, len(chunks))

	parallel.ForChunks(chunks, func(i int, r parallel.Range) {
		mdst, wdst := bufs[2*i], bufs[2*i+1]
		if i >= m.pending {
			clear(mdst)
			clear(wdst)
		}
		counts[i] = scatterRange(r.Lo, r.Hi, mdst, wdst)
	})
	m.pending = max(m.pending, len(chunks))

	merged := 0
	for _, c := range counts {
		merged += c
	}
	logging.Logger().Debug("merged pattern", "pixels", merged, "workers", len(chunks))
}

// Flush adds the pending partials into the volumes of the last concurrent
// merge and resets them. It is a no-op when nothing is pending. Callers
// must Flush before reading volumes filled by a Merger.
func (m *Merger) Flush() {
	if m.pending == 0 {
		return
	}
	model, weight := m.model.Data, m.weight.Data
	bufs := m.partials[:2*m.pending]
	vol := len(model)

	// Reduce over disjoint voxel ranges, adding the partials in chunk order.
	parallel.For(vol, parallel.Workers(m.opts.workers, vol, minVoxelsPerWorker), func(lo, hi int) {
		for i := 0; i < len(bufs); i += 2 {
			floats.Add(model[lo:hi], bufs[i][lo:hi])
			floats.Add(weight[lo:hi], bufs[i+1][lo:hi])
			clear(bufs[i][lo:hi])
			clear(bufs[i+1][lo:hi])
		}
	})
	logging.Logger().Debug("flushed partials", "pairs", m.pending, "voxels", vol)

	m.pending = 0
	m.model, m.weight = nil, nil
}

// buffers returns count partial buffers of length n, reusing earlier ones.
// Buffers that are reallocated start zeroed; reused ones keep their data.
func (m *Merger) buffers(count, n int) [][]float64 {
	for len(m.partials) < count {
		m.partials = append(m.partials, nil)
	}
	for i := range count {
		if cap(m.partials[i]) < n {
			m.partials[i] = make([]float64, n)
		}
		m.partials[i] = m.partials[i][:n]
	}
	return m.partials[:count]
}
