// Package parallel runs index ranges across a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// minChunk keeps small inputs on a single goroutine.
const minChunk = 64

// Workers normalises a requested worker count. If workers is 0 or negative,
// GOMAXPROCS is used.
func Workers(workers int) int {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return workers
}

// Chunks splits [0, n) into at most workers contiguous ranges of nearly
// equal size. Ranges are returned in index order.
func Chunks(n, workers int) [][2]int {
	if n <= 0 {
		return nil
	}
	workers = Workers(workers)
	if limit := (n + minChunk - 1) / minChunk; workers > limit {
		workers = limit
	}
	size := (n + workers - 1) / workers
	out := make([][2]int, 0, workers)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		out = append(out, [2]int{lo, hi})
	}
	return out
}

// For calls fn once per chunk of [0, n) and waits for all calls to return.
// fn receives the chunk's ordinal w, which callers use to index per-worker
// scratch space without locking.
func For(n, workers int, fn func(w, lo, hi int)) int {
	chunks := Chunks(n, workers)
	if len(chunks) == 1 {
		fn(0, chunks[0][0], chunks[0][1])
		return 1
	}

	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for w, c := range chunks {
		go func(w, lo, hi int) {
			defer wg.Done()
			fn(w, lo, hi)
		}(w, c[0], c[1])
	}
	wg.Wait()
	return len(chunks)
}
