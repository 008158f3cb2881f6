package parallel

import (
	"sync/atomic"
	"testing"
)

func TestChunksCoverRange(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		workers int
		want    int // number of chunks
	}{
		{"empty", 0, 4, 0},
		{"small input single chunk", 10, 8, 1},
		{"even split", 1024, 4, 4},
		{"uneven split", 1000, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Chunks(tt.n, tt.workers)
			if len(chunks) != tt.want {
				t.Fatalf("Chunks(%d, %d) gave %d chunks, want %d", tt.n, tt.workers, len(chunks), tt.want)
			}
			next := 0
			for _, c := range chunks {
				if c[0] != next {
					t.Fatalf("gap or overlap at %d: chunk %v", next, c)
				}
				next = c[1]
			}
			if next != tt.n {
				t.Errorf("chunks end at %d, want %d", next, tt.n)
			}
		})
	}
}

func TestForVisitsEveryIndexOnce(t *testing.T) {
	const n = 5000
	seen := make([]int32, n)
	used := For(n, 7, func(w, lo, hi int) {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})
	if used < 1 || used > 7 {
		t.Errorf("For used %d chunks", used)
	}
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times", i, c)
		}
	}
}
