package pec

import "github.com/banshee-data/fieldmesh/internal/mesh"

// PatchType selects whether boundary rules apply at a level's native
// resolution or at the coarsened representation used during inter-level
// coupling.
type PatchType int

const (
	PatchFine PatchType = iota
	PatchCoarse
)

// Applicator walks every block and vector component of a field and applies
// the per-sample PEC rule. It carries the explicit boundary table and
// geometry instead of reading process globals, so it is safe to hold one
// per mesh.
//
// GatherHalo is the guard width that particles gather fields from; the
// boundary pass extends that far into the guard region. It is zero for runs
// without particles or lasers, in which case guard samples are untouched.
type Applicator struct {
	Geom       *mesh.Geometry
	Boundary   mesh.BoundaryTable
	GatherHalo int
}

func (ap *Applicator) domainBounds(lev int, patch PatchType) (mesh.IntVect, mesh.IntVect) {
	dom := ap.Geom.DomainBox(lev)
	if patch == PatchCoarse {
		dom = dom.Coarsen(ap.Geom.RefRatio(lev - 1))
	}
	return dom.Lo, dom.Hi
}

// ApplyToEField applies the PEC rule to the three electric field component
// grids of one level in place. splitPMLField marks the split PML auxiliary
// fields, whose pass covers only the valid staggered range rather than the
// gather-extended one. Every data channel of each grid is processed.
//
// Levels and patch types are independent; calls for distinct levels may run
// in any order or concurrently with each other and with ApplyToBField.
func (ap *Applicator) ApplyToEField(e [3]*mesh.Grid, lev int, patch PatchType, splitPMLField bool) {
	domLo, domHi := ap.domainBounds(lev, patch)
	ndims := ap.Geom.NDims
	for c := 0; c < 3; c++ {
		icomp := c
		g := e[c]
		stag := g.Stagger
		mesh.ForEachBlockParallel(g.Blocks(), func(b *mesh.Block) {
			tile := b.Valid
			if !splitPMLField {
				tile = tile.Grow(ap.GatherHalo, ndims)
			}
			for n := 0; n < b.NumChan(); n++ {
				mesh.ForEach(tile, func(iv mesh.IntVect) {
					setEFieldOnPEC(icomp, domLo, domHi, iv, n, b, stag, ap.Boundary, ndims)
				})
			}
		})
	}
}

// ApplyToBField applies the PEC rule to the three magnetic field component
// grids of one level in place.
func (ap *Applicator) ApplyToBField(bf [3]*mesh.Grid, lev int, patch PatchType) {
	domLo, domHi := ap.domainBounds(lev, patch)
	ndims := ap.Geom.NDims
	for c := 0; c < 3; c++ {
		icomp := c
		g := bf[c]
		stag := g.Stagger
		mesh.ForEachBlockParallel(g.Blocks(), func(b *mesh.Block) {
			tile := b.Valid.Grow(ap.GatherHalo, ndims)
			for n := 0; n < b.NumChan(); n++ {
				mesh.ForEach(tile, func(iv mesh.IntVect) {
					setBFieldOnPEC(icomp, domLo, domHi, iv, n, b, stag, ap.Boundary, ndims)
				})
			}
		})
	}
}
