// Package parallel provides the fork-join helpers used by the resampling
// kernels: split an index range into contiguous chunks and run one task per
// chunk on a bounded number of goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Range is a half-open index interval [Lo, Hi).
type Range struct {
	Lo, Hi int
}

// Len returns the number of indices in the range.
func (r Range) Len() int { return r.Hi - r.Lo }

// Workers picks the number of workers for n items.
//
// A non-positive request means GOMAXPROCS. The result never exceeds the
// number of chunks of at least minPerWorker items, so small inputs run on a
// single goroutine.
func Workers(requested, n, minPerWorker int) int {
	w := requested
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if minPerWorker < 1 {
		minPerWorker = 1
	}
	if limit := n / minPerWorker; w > limit {
		w = limit
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Chunks splits [0, n) into at most parts contiguous ranges whose lengths
// differ by at most one. Empty ranges are never returned.
func Chunks(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}

	ranges := make([]Range, parts)
	base, rem := n/parts, n%parts
	lo := 0
	for i := range parts {
		size := base
		if i < rem {
			size++
		}
		ranges[i] = Range{Lo: lo, Hi: lo + size}
		lo += size
	}
	return ranges
}

// For runs fn once per chunk of [0, n) using up to workers goroutines and
// returns when every chunk is done. With a single chunk fn runs on the
// calling goroutine.
func For(n, workers int, fn func(lo, hi int)) {
	ForChunks(Chunks(n, workers), func(_ int, r Range) { fn(r.Lo, r.Hi) })
}

// ForChunks runs fn for each of the given ranges concurrently, passing the
// chunk's position so callers can address per-chunk state.
func ForChunks(chunks []Range, fn func(i int, r Range)) {
	switch len(chunks) {
	case 0:
		return
	case 1:
		fn(0, chunks[0])
		return
	}

	var g errgroup.Group
	g.SetLimit(len(chunks))
	for i, r := range chunks {
		g.Go(func() error {
			fn(i, r)
			return nil
		})
	}
	// Tasks never fail; Wait is only the join point.
	_ = g.Wait()
}
