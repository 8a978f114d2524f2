// Package solver provides the linear-solve primitive for the generalized
// (drift-corrected) Poisson equation on node-centered grids: the operator
// assembly, a conjugate-gradient solve, and gather/scatter between
// block-decomposed grids and the flat per-level node vector the solve runs
// on.
package solver

import "github.com/banshee-data/fieldmesh/internal/mesh"

// NodeField is the flat, single-level view of a node-centered grid over the
// whole domain. Along a periodic axis the wrap node is identified with node
// zero, so the field stores each physical node exactly once. Reads outside
// the domain on non-periodic axes return zero, matching the zero-potential
// Dirichlet convention.
type NodeField struct {
	NDims    int
	Shape    [mesh.MaxDims]int
	Periodic [mesh.MaxDims]bool

	lo   mesh.IntVect
	Data []float64
}

// NewNodeField allocates a zero NodeField for one level of a geometry.
func NewNodeField(geom *mesh.Geometry, lev int) *NodeField {
	dom := geom.DomainBox(lev)
	f := &NodeField{NDims: geom.NDims, lo: dom.Lo}
	n := 1
	for a := 0; a < mesh.MaxDims; a++ {
		f.Shape[a] = dom.Extent(a)
		if a < geom.NDims {
			f.Periodic[a] = geom.IsPeriodic(a)
			if !f.Periodic[a] {
				f.Shape[a]++ // N cells carry N+1 nodes when not wrapping
			}
		}
		n *= f.Shape[a]
	}
	f.Data = make([]float64, n)
	return f
}

// index maps a node IntVect to the flat offset. ok is false when the node
// lies outside the domain on a non-periodic axis.
func (f *NodeField) index(iv mesh.IntVect) (int, bool) {
	off := 0
	stride := 1
	for a := 0; a < mesh.MaxDims; a++ {
		i := iv[a] - f.lo[a]
		if f.Periodic[a] {
			i %= f.Shape[a]
			if i < 0 {
				i += f.Shape[a]
			}
		} else if i < 0 || i >= f.Shape[a] {
			return 0, false
		}
		off += i * stride
		stride *= f.Shape[a]
	}
	return off, true
}

// At returns the node value, zero outside the domain.
func (f *NodeField) At(iv mesh.IntVect) float64 {
	if off, ok := f.index(iv); ok {
		return f.Data[off]
	}
	return 0
}

// Add accumulates v at the node (dropped silently outside the domain, which
// only happens for truncated deposition stencils at open boundaries).
func (f *NodeField) Add(iv mesh.IntVect, v float64) {
	if off, ok := f.index(iv); ok {
		f.Data[off] += v
	}
}

// GatherNodes copies channel 0 of a node-centered grid's valid values into a
// flat NodeField. Seam nodes shared by adjacent blocks hold identical
// values, so last-writer order does not matter.
func GatherNodes(geom *mesh.Geometry, lev int, g *mesh.Grid) *NodeField {
	f := NewNodeField(geom, lev)
	for _, b := range g.Blocks() {
		blk := b
		mesh.ForEach(blk.Valid, func(iv mesh.IntVect) {
			if off, ok := f.index(iv); ok {
				f.Data[off] = blk.At(iv, 0)
			}
		})
	}
	return f
}

// ScatterNodes writes a flat NodeField back into channel 0 of every block's
// valid range, resolving periodic wrap so seam nodes agree.
func ScatterNodes(f *NodeField, g *mesh.Grid) {
	for _, b := range g.Blocks() {
		blk := b
		mesh.ForEach(blk.Valid, func(iv mesh.IntVect) {
			blk.Set(iv, 0, f.At(iv))
		})
	}
}
