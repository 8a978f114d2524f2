// Package pec enforces the perfect-electric-conductor boundary condition on
// staggered electric and magnetic field grids.
//
// At an ideal conductor the tangential electric field and the normal
// magnetic field vanish. On the staggered mesh this becomes a per-sample
// rule: samples sitting exactly on a PEC boundary node are zeroed (tangential
// E, normal B), and guard samples beyond the boundary are mirror images of
// the interior — odd (sign-flipped) for tangential components, even for
// normal components — so that stencils reaching across the boundary see the
// correct field symmetry.
package pec

import "github.com/banshee-data/fieldmesh/internal/mesh"

// IsAnyBoundaryPEC reports whether any side of any active axis is PEC.
// Callers use it to skip boundary passes entirely on fully periodic or open
// meshes.
func IsAnyBoundaryPEC(bt mesh.BoundaryTable, ndims int) bool {
	for a := 0; a < ndims; a++ {
		if bt.Lo[a] == mesh.BoundaryPEC || bt.Hi[a] == mesh.BoundaryPEC {
			return true
		}
	}
	return false
}

// reflect accumulates the effect of one axis/side on the cell at iv:
// whether iv sits exactly on the PEC boundary plane (for a nodal sample),
// whether it lies in the guard region beyond it, the mirrored interior
// index, and the running reflection sign.
//
// The mirror plane is the boundary node itself for nodal staggering, and the
// half-cell face at the domain edge for cell-centered staggering.
type reflect struct {
	mirror     mesh.IntVect
	sign       float64
	onBoundary bool
	guard      bool
}

func (r *reflect) axis(a int, nodal, tangential bool, domLo, domHi mesh.IntVect, iv mesh.IntVect, bt mesh.BoundaryTable) {
	if bt.Lo[a] == mesh.BoundaryPEC {
		ig := domLo[a] - iv[a] // > 0 when beyond the low boundary
		if nodal {
			if ig == 0 && tangential {
				r.onBoundary = true
			} else if ig > 0 {
				r.guard = true
				r.mirror[a] = domLo[a] + ig
				if tangential {
					r.sign = -r.sign
				}
			}
		} else if ig > 0 {
			r.guard = true
			r.mirror[a] = domLo[a] + ig - 1
			if tangential {
				r.sign = -r.sign
			}
		}
	}
	if bt.Hi[a] == mesh.BoundaryPEC {
		bnd := domHi[a]
		if nodal {
			bnd++ // cells 0..N-1 carry their high boundary node at N
		}
		ig := iv[a] - bnd // > 0 when beyond the high boundary
		if nodal {
			if ig == 0 && tangential {
				r.onBoundary = true
			} else if ig > 0 {
				r.guard = true
				r.mirror[a] = bnd - ig
				if tangential {
					r.sign = -r.sign
				}
			}
		} else if ig > 0 {
			r.guard = true
			// Mirror about the face between the last valid cell and the
			// first guard cell.
			r.mirror[a] = bnd + 1 - ig
			if tangential {
				r.sign = -r.sign
			}
		}
	}
}

// setEFieldOnPEC applies the electric-field PEC rule to channel n of the
// sample at iv. icomp is the vector component the grid represents. The
// tangential E component is zeroed on boundary nodes and odd-reflected into
// the guard region; the normal component is left free on the boundary and
// even-reflected. Samples strictly inside the domain are untouched.
func setEFieldOnPEC(icomp int, domLo, domHi mesh.IntVect, iv mesh.IntVect, n int, blk *mesh.Block, stag mesh.Stagger, bt mesh.BoundaryTable, ndims int) {
	r := reflect{mirror: iv, sign: 1}
	for a := 0; a < ndims; a++ {
		// Tangential E zeroes on the boundary plane; the zeroing branch
		// inside axis only fires for tangential samples.
		r.axis(a, stag[a], icomp != a, domLo, domHi, iv, bt)
	}
	if r.onBoundary {
		blk.Set(iv, n, 0)
	} else if r.guard {
		blk.Set(iv, n, r.sign*blk.At(r.mirror, n))
	}
}

// setBFieldOnPEC applies the magnetic-field PEC rule: the mirror image of
// the electric rule. The normal B component is zeroed on boundary nodes;
// guard reflection keeps the same parity as for E (even for normal, odd for
// tangential).
func setBFieldOnPEC(icomp int, domLo, domHi mesh.IntVect, iv mesh.IntVect, n int, blk *mesh.Block, stag mesh.Stagger, bt mesh.BoundaryTable, ndims int) {
	r := reflect{mirror: iv, sign: 1}
	var zero bool
	for a := 0; a < ndims; a++ {
		// Reflection parity matches the E rule, so run axis with the
		// boundary-zero branch disabled and track normal-on-node zeroing
		// separately.
		if stag[a] && icomp == a {
			ig := domLo[a] - iv[a]
			if bt.Lo[a] == mesh.BoundaryPEC && ig == 0 {
				zero = true
			}
			bnd := domHi[a] + 1
			if bt.Hi[a] == mesh.BoundaryPEC && iv[a] == bnd {
				zero = true
			}
		}
		r.axis(a, stag[a], icomp != a, domLo, domHi, iv, bt)
	}
	if zero {
		blk.Set(iv, n, 0)
	} else if r.guard {
		blk.Set(iv, n, r.sign*blk.At(r.mirror, n))
	}
}
