package main

// unionFind is an arena of integer-indexed elements with union by size and
// path compression. Elements are allocated up front or via add; callers map
// their own keys (record indices, reference ids) onto element indices.
//
// Unions must be applied by a single owner; the structure is not safe for
// concurrent use.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := 0; i < n; i++ {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

// add creates a new singleton set and returns its element index.
func (uf *unionFind) add() int {
	i := len(uf.parent)
	uf.parent = append(uf.parent, i)
	uf.size = append(uf.size, 1)
	return i
}

// find returns the canonical root of x, compressing the path as it goes.
func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union merges the sets containing a and b, attaching the smaller tree
// under the larger.
func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}

// sameSet reports whether a and b are in the same set.
func (uf *unionFind) sameSet(a, b int) bool {
	return uf.find(a) == uf.find(b)
}
