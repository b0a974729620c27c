package graph

import "gonum.org/v1/gonum/mat"

// Dense matrix views of the graph. Each call allocates an n x n matrix, so
// they suit graphs of moderate size only.

// Adjacency returns the weighted adjacency matrix A. A self-loop of weight w
// gives A(v, v) = w.
func (g *Graph) Adjacency() *mat.SymDense {
	if g.numVertices == 0 {
		return &mat.SymDense{}
	}
	a := mat.NewSymDense(g.numVertices, nil)
	for u := 0; u < g.numVertices; u++ {
		targets, weights := g.Neighbors(u)
		for i, v := range targets {
			if u <= v {
				a.SetSym(u, v, weights[i])
			}
		}
	}
	return a
}

// DegreeMatrix returns the diagonal matrix D with D(v, v) = deg(v).
func (g *Graph) DegreeMatrix() *mat.DiagDense {
	if g.numVertices == 0 {
		return &mat.DiagDense{}
	}
	d := make([]float64, g.numVertices)
	copy(d, g.degrees)
	return mat.NewDiagDense(g.numVertices, d)
}

// InverseDegreeMatrix returns D^{-1}, with zero entries for isolated
// vertices.
func (g *Graph) InverseDegreeMatrix() *mat.DiagDense {
	if g.numVertices == 0 {
		return &mat.DiagDense{}
	}
	d := make([]float64, g.numVertices)
	for v, deg := range g.degrees {
		if deg > 0 {
			d[v] = 1 / deg
		}
	}
	return mat.NewDiagDense(g.numVertices, d)
}

// Laplacian returns L = D - A.
func (g *Graph) Laplacian() *mat.SymDense {
	lap := g.Adjacency()
	if g.numVertices == 0 {
		return lap
	}
	lap.ScaleSym(-1, lap)
	for v, deg := range g.degrees {
		lap.SetSym(v, v, lap.At(v, v)+deg)
	}
	return lap
}

// LazyRandomWalkMatrix returns W = I/2 + A D^{-1} / 2. Column v holds the
// one-step distribution of a lazy walk started at v; the column of an
// isolated vertex keeps only its 1/2 on the diagonal.
func (g *Graph) LazyRandomWalkMatrix() *mat.Dense {
	if g.numVertices == 0 {
		return &mat.Dense{}
	}
	var w mat.Dense
	w.Mul(g.Adjacency(), g.InverseDegreeMatrix())
	w.Scale(0.5, &w)
	for v := 0; v < g.numVertices; v++ {
		w.Set(v, v, w.At(v, v)+0.5)
	}
	return &w
}
