package mesh

import "fmt"

// CoordSys identifies the mesh coordinate system. Cylindrical meshes are
// representable in configuration but rejected by the space-charge
// initializer.
type CoordSys int

const (
	CoordCartesian CoordSys = iota
	CoordCylindrical
)

// BoundaryKind classifies one side of one axis of the physical domain.
type BoundaryKind int

const (
	BoundaryOther BoundaryKind = iota
	BoundaryPeriodic
	BoundaryPEC
)

func (k BoundaryKind) String() string {
	switch k {
	case BoundaryPeriodic:
		return "periodic"
	case BoundaryPEC:
		return "pec"
	default:
		return "other"
	}
}

// ParseBoundaryKind maps a config string to a BoundaryKind.
func ParseBoundaryKind(s string) (BoundaryKind, error) {
	switch s {
	case "periodic":
		return BoundaryPeriodic, nil
	case "pec":
		return BoundaryPEC, nil
	case "other", "":
		return BoundaryOther, nil
	}
	return BoundaryOther, fmt.Errorf("unknown boundary kind %q", s)
}

// BoundaryTable holds the field boundary type for both sides of every axis.
// It is passed explicitly to every consumer rather than living in process
// globals, so distinct meshes can coexist.
type BoundaryTable struct {
	Lo [MaxDims]BoundaryKind
	Hi [MaxDims]BoundaryKind
}

// Validate checks internal consistency: a periodic axis must be periodic on
// both sides. Called once at configuration time; the per-cell paths assume a
// valid table.
func (t BoundaryTable) Validate(ndims int) error {
	for a := 0; a < ndims; a++ {
		lp := t.Lo[a] == BoundaryPeriodic
		hp := t.Hi[a] == BoundaryPeriodic
		if lp != hp {
			return fmt.Errorf("axis %d: periodic boundary on one side only (lo=%s hi=%s)", a, t.Lo[a], t.Hi[a])
		}
	}
	return nil
}

// Geometry describes the index-space layout of an AMR mesh hierarchy: the
// cell-centered domain box, block decomposition and cell sizes per level,
// refinement ratios between levels, and per-axis periodicity. It is the
// explicit configuration object threaded through boundary application and
// field initialization.
type Geometry struct {
	NDims int
	Coord CoordSys

	// domain[lev] is the cell-centered index box of the physical domain at
	// that level's resolution.
	domain []Box
	// blocks[lev] is the cell-centered box decomposition at that level.
	blocks [][]Box
	// cellSize[lev][a] is the mesh spacing along axis a at that level.
	cellSize [][MaxDims]float64
	// refRatio[lev] is the ratio between level lev and lev+1
	// (len = NumLevels-1).
	refRatio []IntVect

	periodic [MaxDims]bool
}

// GeometrySpec carries the level-0 description used to build a Geometry.
type GeometrySpec struct {
	NDims    int
	Coord    CoordSys
	Cells    IntVect    // level-0 cells per axis
	Extent   [3]float64 // physical domain size per axis
	Periodic [3]bool
	// MaxBlockCells splits the domain into tiles no wider than this along
	// each axis; zero means a single block.
	MaxBlockCells int
	// RefRatios defines refined levels; each entry refines every axis by
	// the given factor relative to the previous level.
	RefRatios []int
}

// NewGeometry builds the per-level domain boxes, decompositions and cell
// sizes from a level-0 spec.
func NewGeometry(spec GeometrySpec) (*Geometry, error) {
	if spec.NDims < 1 || spec.NDims > MaxDims {
		return nil, fmt.Errorf("geometry: ndims must be 1..%d, got %d", MaxDims, spec.NDims)
	}
	for a := 0; a < spec.NDims; a++ {
		if spec.Cells[a] < 1 {
			return nil, fmt.Errorf("geometry: axis %d has %d cells", a, spec.Cells[a])
		}
		if spec.Extent[a] <= 0 {
			return nil, fmt.Errorf("geometry: axis %d has non-positive extent", a)
		}
	}
	g := &Geometry{NDims: spec.NDims, Coord: spec.Coord, periodic: spec.Periodic}

	dom := Box{Lo: Unit(0), Hi: Unit(0)}
	var dx [MaxDims]float64
	for a := 0; a < MaxDims; a++ {
		if a < spec.NDims {
			dom.Hi[a] = spec.Cells[a] - 1
			dx[a] = spec.Extent[a] / float64(spec.Cells[a])
		} else {
			dx[a] = 1
		}
	}
	g.domain = []Box{dom}
	g.cellSize = [][MaxDims]float64{dx}
	g.blocks = [][]Box{splitBox(dom, spec.MaxBlockCells, spec.NDims)}

	for _, r := range spec.RefRatios {
		if r < 2 {
			return nil, fmt.Errorf("geometry: refinement ratio must be >= 2, got %d", r)
		}
		ratio := Unit(1)
		for a := 0; a < spec.NDims; a++ {
			ratio[a] = r
		}
		g.refRatio = append(g.refRatio, ratio)

		prev := g.domain[len(g.domain)-1]
		fine := prev
		var fdx [MaxDims]float64
		for a := 0; a < MaxDims; a++ {
			fdx[a] = g.cellSize[len(g.cellSize)-1][a]
			if a < spec.NDims {
				fine.Lo[a] = prev.Lo[a] * r
				fine.Hi[a] = (prev.Hi[a]+1)*r - 1
				fdx[a] /= float64(r)
			}
		}
		g.domain = append(g.domain, fine)
		g.cellSize = append(g.cellSize, fdx)
		g.blocks = append(g.blocks, splitBox(fine, spec.MaxBlockCells, spec.NDims))
	}
	return g, nil
}

// NumLevels returns the number of refinement levels (level 0 included).
func (g *Geometry) NumLevels() int { return len(g.domain) }

// DomainBox returns the cell-centered domain box at the given level.
func (g *Geometry) DomainBox(lev int) Box { return g.domain[lev] }

// BlockBoxes returns the cell-centered decomposition at the given level.
func (g *Geometry) BlockBoxes(lev int) []Box { return g.blocks[lev] }

// CellSize returns the per-axis mesh spacing at the given level.
func (g *Geometry) CellSize(lev int) [MaxDims]float64 { return g.cellSize[lev] }

// RefRatio returns the refinement ratio between lev and lev+1. Level counts
// below 1 return unit ratio, matching the coarse-patch convention at the
// base level.
func (g *Geometry) RefRatio(lev int) IntVect {
	if lev < 0 || lev >= len(g.refRatio) {
		return Unit(1)
	}
	return g.refRatio[lev]
}

// IsPeriodic reports whether the given axis is periodic.
func (g *Geometry) IsPeriodic(axis int) bool { return g.periodic[axis] }

// splitBox tiles a box into blocks no wider than maxw cells per axis.
func splitBox(b Box, maxw, ndims int) []Box {
	if maxw <= 0 {
		return []Box{b}
	}
	out := []Box{b}
	for a := 0; a < ndims; a++ {
		var next []Box
		for _, bb := range out {
			lo := bb.Lo[a]
			for lo <= bb.Hi[a] {
				hi := lo + maxw - 1
				if hi > bb.Hi[a] {
					hi = bb.Hi[a]
				}
				piece := bb
				piece.Lo[a] = lo
				piece.Hi[a] = hi
				next = append(next, piece)
				lo = hi + 1
			}
		}
		out = next
	}
	return out
}
