// Package parallel provides a small helper for splitting row-oriented
// image work across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// For splits the range [0, n) into contiguous chunks and runs fn on each
// chunk from up to workers goroutines, blocking until all chunks finish.
// If workers is 0 or negative, GOMAXPROCS is used. Chunks never overlap,
// so fn may write disjoint slices of a shared buffer without locking.
func For(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
