package dwt

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/filter"
)

// linePool hands out temporary line buffers to reduce allocations.
type linePool[T filter.Sample] struct {
	pool sync.Pool
}

// get returns a buffer of at least size n from the pool.
func (lp *linePool[T]) get(n int) *[]T {
	bp, _ := lp.pool.Get().(*[]T)
	if bp == nil {
		buf := make([]T, 0, max(n, 4096))
		bp = &buf
	}
	if cap(*bp) < n {
		*bp = make([]T, n)
	}
	*bp = (*bp)[:n]
	return bp
}

// put returns a buffer to the pool.
func (lp *linePool[T]) put(bp *[]T) {
	lp.pool.Put(bp)
}

// minPerWorker is the smallest number of lines worth a goroutine.
const minPerWorker = 16

// parallelFor splits [0, n) into contiguous chunks and runs fn on up to
// workers goroutines. fn must only write to samples of its own lines.
func parallelFor(workers, n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	chunks := min(workers, (n+minPerWorker-1)/minPerWorker)
	if chunks <= 1 {
		fn(0, n)
		return
	}

	size := (n + chunks - 1) / chunks
	var g errgroup.Group
	for start := 0; start < n; start += size {
		start, end := start, min(start+size, n)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}
