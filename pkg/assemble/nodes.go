package assemble

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// cellKey addresses a spatial hash cell of edge tol.
type cellKey [3]int64

// hash buckets point ids by position so that neighbours within tol are
// found by scanning the 27 surrounding cells.
type hash struct {
	tol   float64
	cells map[cellKey][]int
}

func newHash(tol float64) *hash {
	return &hash{tol: tol, cells: make(map[cellKey][]int)}
}

func (h *hash) key(p v3.Vec) cellKey {
	return cellKey{
		int64(math.Floor(p.X / h.tol)),
		int64(math.Floor(p.Y / h.tol)),
		int64(math.Floor(p.Z / h.tol)),
	}
}

func (h *hash) insert(id int, p v3.Vec) {
	k := h.key(p)
	h.cells[k] = append(h.cells[k], id)
}

// near calls fn for every id inserted in the cells around p.
func (h *hash) near(p v3.Vec, fn func(id int)) {
	k := h.key(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, id := range h.cells[cellKey{k[0] + dx, k[1] + dy, k[2] + dz}] {
					fn(id)
				}
			}
		}
	}
}

// unionFind is a disjoint-set forest over point ids.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

// union joins the sets of i and j, keeping the smaller root so that the
// representative of a set is its lowest id.
func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	switch {
	case ri < rj:
		u.parent[rj] = ri
	case rj < ri:
		u.parent[ri] = rj
	}
}

// cluster merges the given points into nodes: points within tol of each
// other, directly or through a chain of neighbours, share a node. It
// returns the node of each point and the representative point id of each
// node. Nodes are numbered in order of their lowest point id.
func cluster(points []v3.Vec, tol float64) (nodeOf []int, reps []int) {
	h := newHash(tol)
	uf := newUnionFind(len(points))
	tol2 := tol * tol
	for i, p := range points {
		h.near(p, func(j int) {
			if points[j].Sub(p).Length2() <= tol2 {
				uf.union(i, j)
			}
		})
		h.insert(i, p)
	}

	nodeOf = make([]int, len(points))
	index := make(map[int]int)
	for i := range points {
		r := uf.find(i)
		n, ok := index[r]
		if !ok {
			n = len(reps)
			index[r] = n
			reps = append(reps, r)
		}
		nodeOf[i] = n
	}
	return nodeOf, reps
}
