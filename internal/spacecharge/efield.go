package spacecharge

import (
	"github.com/banshee-data/fieldmesh/internal/mesh"
	"github.com/banshee-data/fieldmesh/internal/solver"
)

// compAxis maps vector component c to the mesh axis it varies along, or -1
// when the component is out of plane for the active dimensionality. The
// two-axis reduced form keeps x and z (axes 0 and 1); one dimension keeps z.
func compAxis(c, ndims int) int {
	switch ndims {
	case 3:
		return c
	case 2:
		switch c {
		case 0:
			return 0
		case 2:
			return 1
		}
	case 1:
		if c == 2 {
			return 0
		}
	}
	return -1
}

// EStagger returns the Yee staggering of electric field component c on a
// mesh of the given dimensionality: cell-centered along the mesh axis the
// component varies along, nodal along the others. Out-of-plane components
// are nodal everywhere.
func EStagger(c, ndims int) mesh.Stagger {
	s := mesh.AllNodal
	if ax := compAxis(c, ndims); ax >= 0 {
		s[ax] = false
	}
	return s
}

// computeE accumulates into the E component grids the field of the drifting
// source,
//
//	E += −∇φ + β(β·∇)φ
//
// where the second term is the −∂A/∂t correction for a source moving at
// constant β. Each component uses the difference that matches its
// staggering: one-sided along its own (cell-centered) axis, centered
// half-step along the (nodal) transverse axes. Each level reads its own
// potential.
func (init *Initializer) computeE(e [][3]*mesh.Grid, phi []*mesh.Grid, beta [3]float64) {
	ndims := init.Geom.NDims
	for lev := range phi {
		dx := init.Geom.CellSize(lev)
		pf := solver.GatherNodes(init.Geom, lev, phi[lev])
		for c := 0; c < 3; c++ {
			ax := compAxis(c, ndims)
			if ax < 0 {
				continue
			}
			bc := beta[c]
			diag := (bc*bc - 1) / dx[ax]
			mesh.ForEachBlockParallel(e[lev][c].Blocks(), func(b *mesh.Block) {
				mesh.ForEach(b.Valid, func(iv mesh.IntVect) {
					v := diag * (pf.At(iv.Shift(ax, 1)) - pf.At(iv))
					for t := 0; t < ndims; t++ {
						if t == ax {
							continue
						}
						bt := beta[axisComp(t, ndims)]
						v += bc * bt * 0.5 / dx[t] * (pf.At(iv.Shift(t, 1)) - pf.At(iv.Shift(t, -1)))
					}
					b.Add(iv, 0, v)
				})
			})
		}
	}
}

// axisComp is the inverse of compAxis: the vector component that varies
// along mesh axis t.
func axisComp(t, ndims int) int {
	if ndims == 3 {
		return t
	}
	if ndims == 2 && t == 0 {
		return 0
	}
	return 2 // reduced meshes keep z as their last axis
}
