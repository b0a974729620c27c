package graph

// Complete returns the unweighted complete graph on n vertices.
func Complete(n int) *Graph {
	b := NewBuilder(n)
	addClique(b, 0, n)
	return b.Build()
}

// Cycle returns the unweighted cycle on n vertices.
func Cycle(n int) *Graph {
	b := NewBuilder(n)
	if n > 1 {
		for v := 0; v < n; v++ {
			_ = b.AddEdge(v, (v+1)%n, 1)
		}
	}
	return b.Build()
}

// Barbell returns two n-cliques on vertices 0..n-1 and n..2n-1 joined by the
// single edge {n-1, n}.
func Barbell(n int) *Graph {
	b := NewBuilder(2 * n)
	addClique(b, 0, n)
	addClique(b, n, 2*n)
	if n > 0 {
		_ = b.AddEdge(n-1, n, 1)
	}
	return b.Build()
}

// Star returns a star on n vertices centred on vertex 0.
func Star(n int) *Graph {
	b := NewBuilder(n)
	for v := 1; v < n; v++ {
		_ = b.AddEdge(0, v, 1)
	}
	return b.Build()
}

func addClique(b *Builder, lo, hi int) {
	for u := lo; u < hi; u++ {
		for v := u + 1; v < hi; v++ {
			_ = b.AddEdge(u, v, 1)
		}
	}
}
