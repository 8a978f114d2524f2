package solver

import "github.com/banshee-data/fieldmesh/internal/mesh"

// BCKind is the per-axis boundary condition of the potential solve.
type BCKind int

const (
	// Dirichlet pins the potential to zero on the domain boundary nodes.
	// This stands in for open-space boundaries and is a known modeling
	// approximation: the conductor-at-infinity it implies sits at the
	// computational edge instead.
	Dirichlet BCKind = iota
	Periodic
)

// NodeLaplacian is the generalized Poisson operator
//
//	L = ∇² − (β·∇)²
//
// discretized with second-order centered differences on the node lattice of
// one level. Apply computes the negated operator −L, which is symmetric
// positive (semi-)definite and therefore directly usable by the conjugate
// gradient solve; Solve accounts for the sign so that callers see the bare-L
// convention (solutions must afterwards be scaled by −1/ε₀ to satisfy the
// physical Poisson equation).
type NodeLaplacian struct {
	NDims int
	Shape [mesh.MaxDims]int
	Dx    [mesh.MaxDims]float64
	BCLo  [mesh.MaxDims]BCKind
	BCHi  [mesh.MaxDims]BCKind

	// sigma[a] = 1 − β_a², the diagonal of the drift-corrected tensor.
	sigma [mesh.MaxDims]float64
	beta  [mesh.MaxDims]float64
}

// NewNodeLaplacian assembles the operator for one level. beta is the drift
// velocity over c restricted to the active axes; boundary conditions follow
// the level's periodicity, Dirichlet elsewhere.
func NewNodeLaplacian(geom *mesh.Geometry, lev int, beta [3]float64) *NodeLaplacian {
	op := &NodeLaplacian{NDims: geom.NDims, Dx: geom.CellSize(lev)}
	f := NewNodeField(geom, lev)
	op.Shape = f.Shape
	for a := 0; a < geom.NDims; a++ {
		if geom.IsPeriodic(a) {
			op.BCLo[a] = Periodic
			op.BCHi[a] = Periodic
		}
	}
	for a := 0; a < mesh.MaxDims; a++ {
		op.beta[a] = beta[a]
		op.sigma[a] = 1 - beta[a]*beta[a]
	}
	return op
}

// AllPeriodic reports whether every active axis is periodic, in which case
// the operator has the constant-field null space.
func (op *NodeLaplacian) AllPeriodic() bool {
	for a := 0; a < op.NDims; a++ {
		if op.BCLo[a] != Periodic {
			return false
		}
	}
	return true
}

// NumNodes returns the flat vector length the operator acts on.
func (op *NodeLaplacian) NumNodes() int {
	n := 1
	for a := 0; a < mesh.MaxDims; a++ {
		n *= op.Shape[a]
	}
	return n
}

// isDirichletNode reports whether the node sits on a Dirichlet boundary
// plane; such rows are kept as identity so the boundary value stays pinned.
func (op *NodeLaplacian) isDirichletNode(iv [mesh.MaxDims]int) bool {
	for a := 0; a < op.NDims; a++ {
		if op.BCLo[a] != Periodic && (iv[a] == 0 || iv[a] == op.Shape[a]-1) {
			return true
		}
	}
	return false
}

// at reads src at node indices, wrapping periodic axes and treating nodes
// beyond a Dirichlet boundary as zero potential.
func (op *NodeLaplacian) at(src []float64, i, j, k int) float64 {
	iv := [mesh.MaxDims]int{i, j, k}
	off := 0
	stride := 1
	for a := 0; a < mesh.MaxDims; a++ {
		x := iv[a]
		if op.BCLo[a] == Periodic {
			x %= op.Shape[a]
			if x < 0 {
				x += op.Shape[a]
			}
		} else if x < 0 || x >= op.Shape[a] {
			return 0
		}
		off += x * stride
		stride *= op.Shape[a]
	}
	return src[off]
}

// Apply computes dst = (−L) src.
func (op *NodeLaplacian) Apply(dst, src []float64) {
	var invDx2 [mesh.MaxDims]float64
	for a := 0; a < op.NDims; a++ {
		invDx2[a] = 1 / (op.Dx[a] * op.Dx[a])
	}
	off := 0
	var iv [mesh.MaxDims]int
	for k := 0; k < op.Shape[2]; k++ {
		for j := 0; j < op.Shape[1]; j++ {
			for i := 0; i < op.Shape[0]; i++ {
				iv[0], iv[1], iv[2] = i, j, k
				if op.isDirichletNode(iv) {
					dst[off] = src[off]
					off++
					continue
				}
				v := 0.0
				for a := 0; a < op.NDims; a++ {
					c := iv
					c[a]++
					hi := op.at(src, c[0], c[1], c[2])
					c[a] -= 2
					lo := op.at(src, c[0], c[1], c[2])
					v += op.sigma[a] * invDx2[a] * (2*src[off] - hi - lo)
				}
				for a := 0; a < op.NDims; a++ {
					for b := a + 1; b < op.NDims; b++ {
						c := iv
						c[a]++
						c[b]++
						pp := op.at(src, c[0], c[1], c[2])
						c[b] -= 2
						pm := op.at(src, c[0], c[1], c[2])
						c[a] -= 2
						mm := op.at(src, c[0], c[1], c[2])
						c[b] += 2
						mp := op.at(src, c[0], c[1], c[2])
						// Cross term of −L: +β_a β_b ∂a∂b, counted for both
						// (a,b) orderings.
						v += op.beta[a] * op.beta[b] * (pp - pm - mp + mm) / (2 * op.Dx[a] * op.Dx[b])
					}
				}
				dst[off] = v
				off++
			}
		}
	}
}
