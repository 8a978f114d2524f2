package mesh

import "fmt"

// Block is one dense tile of a Grid: a valid (owned) index range plus a halo
// of guard cells on every side. Values are stored channel-major so that one
// physical quantity occupies a contiguous run.
type Block struct {
	// Valid is the owned index range in the grid's staggering.
	Valid Box
	// Halo is the guard width on each side of each axis.
	Halo int

	full   Box // Valid grown by Halo
	stride [MaxDims]int
	ncells int
	nchan  int
	data   []float64
}

func newBlock(valid Box, halo, nchan, ndims int) *Block {
	b := &Block{Valid: valid, Halo: halo, nchan: nchan}
	b.full = valid.Grow(halo, ndims)
	b.stride[0] = 1
	for a := 1; a < MaxDims; a++ {
		b.stride[a] = b.stride[a-1] * b.full.Extent(a-1)
	}
	b.ncells = b.full.NumCells()
	b.data = make([]float64, b.ncells*nchan)
	return b
}

// FullBox returns the valid range grown by the halo.
func (b *Block) FullBox() Box { return b.full }

// NumChan returns the number of data channels sharing this block.
func (b *Block) NumChan() int { return b.nchan }

func (b *Block) offset(iv IntVect, n int) int {
	off := n * b.ncells
	for a := 0; a < MaxDims; a++ {
		off += (iv[a] - b.full.Lo[a]) * b.stride[a]
	}
	return off
}

// At returns the value of channel n at index iv. iv must lie within the
// halo-grown box; no bounds check is performed in this hot path.
func (b *Block) At(iv IntVect, n int) float64 { return b.data[b.offset(iv, n)] }

// Set stores v for channel n at index iv.
func (b *Block) Set(iv IntVect, n int, v float64) { b.data[b.offset(iv, n)] = v }

// Add accumulates v into channel n at index iv.
func (b *Block) Add(iv IntVect, n int, v float64) { b.data[b.offset(iv, n)] += v }

// Grid is a distributed scalar field: a set of blocks tiling an index range,
// all sharing one staggering descriptor, halo width and channel count. Three
// Grids with Yee staggering represent one vector field.
type Grid struct {
	Stagger Stagger
	Halo    int
	NChan   int

	ndims  int
	blocks []*Block
}

// NewGrid allocates one block per cell-centered box in ba, converting each
// to the requested staggering. Staggering beyond the active dimensions is
// ignored, so Yee descriptors carry over unchanged to reduced meshes. All
// values start at zero.
func NewGrid(ba []Box, s Stagger, nchan, halo, ndims int) *Grid {
	for a := ndims; a < MaxDims; a++ {
		s[a] = false
	}
	g := &Grid{Stagger: s, Halo: halo, NChan: nchan, ndims: ndims}
	for _, cc := range ba {
		g.blocks = append(g.blocks, newBlock(cc.ToStagger(s), halo, nchan, ndims))
	}
	return g
}

// Blocks returns the grid's blocks. Callers must not reorder the slice.
func (g *Grid) Blocks() []*Block { return g.blocks }

// NDims returns the number of active spatial dimensions.
func (g *Grid) NDims() int { return g.ndims }

// SetVal sets every stored value (valid and halo) of every block to v.
func (g *Grid) SetVal(v float64) {
	for _, b := range g.blocks {
		for i := range b.data {
			b.data[i] = v
		}
	}
}

// Mult scales every stored value of every block by v.
func (g *Grid) Mult(v float64) {
	for _, b := range g.blocks {
		for i := range b.data {
			b.data[i] *= v
		}
	}
}

// Clone returns a deep copy of the grid, used by tests to diff a pass's
// effect against the prior state.
func (g *Grid) Clone() *Grid {
	out := &Grid{Stagger: g.Stagger, Halo: g.Halo, NChan: g.NChan, ndims: g.ndims}
	for _, b := range g.blocks {
		nb := *b
		nb.data = append([]float64(nil), b.data...)
		out.blocks = append(out.blocks, &nb)
	}
	return out
}

// Equal reports whether two grids hold identical values everywhere.
func (g *Grid) Equal(o *Grid) bool {
	if len(g.blocks) != len(o.blocks) {
		return false
	}
	for i, b := range g.blocks {
		ob := o.blocks[i]
		if len(b.data) != len(ob.data) {
			return false
		}
		for j, v := range b.data {
			if v != ob.data[j] {
				return false
			}
		}
	}
	return true
}

// BlockAt returns the block whose valid range contains iv, or nil.
func (g *Grid) BlockAt(iv IntVect) *Block {
	for _, b := range g.blocks {
		if b.Valid.Contains(iv) {
			return b
		}
	}
	return nil
}

func (g *Grid) String() string {
	return fmt.Sprintf("Grid{stagger=%v blocks=%d halo=%d nchan=%d}", g.Stagger, len(g.blocks), g.Halo, g.NChan)
}
