// Package mesh provides the index-space vocabulary for a block-decomposed,
// staggered structured mesh: integer index vectors, inclusive index boxes,
// per-axis staggering descriptors, and dense per-block storage with halo
// (guard) cells.
//
// All boxes are inclusive on both ends. A cell-centered domain box with cells
// 0..N-1 has N+1 node positions 0..N along a nodal axis; Box.ToStagger
// performs that conversion.
package mesh

import "fmt"

// MaxDims is the maximum number of spatial dimensions carried by index
// vectors. Reduced-dimensionality meshes use the leading NDims entries and
// leave the rest degenerate (extent one, index zero).
const MaxDims = 3

// IntVect is a fixed-width integer index vector.
type IntVect [MaxDims]int

// Unit returns an IntVect with every component set to v.
func Unit(v int) IntVect { return IntVect{v, v, v} }

// Shift returns iv with delta added to component axis.
func (iv IntVect) Shift(axis, delta int) IntVect {
	iv[axis] += delta
	return iv
}

// Stagger describes where samples live along each axis: true means node
// positions (cell corners), false means cell centers. Yee-grid field
// components combine both per axis.
type Stagger [MaxDims]bool

// CellCenter is the all-cell-centered staggering.
var CellCenter = Stagger{false, false, false}

// AllNodal is the all-node staggering used for charge and potential grids.
var AllNodal = Stagger{true, true, true}

// YeeE returns the staggering of electric field component c on a Yee grid:
// cell-centered along its own axis, nodal along the others.
func YeeE(c int) Stagger {
	var s Stagger
	for a := 0; a < MaxDims; a++ {
		s[a] = a != c
	}
	return s
}

// YeeB returns the staggering of magnetic field component c on a Yee grid:
// nodal along its own axis, cell-centered along the others.
func YeeB(c int) Stagger {
	var s Stagger
	s[c] = true
	return s
}

// Box is an inclusive index-space box [Lo, Hi]. An empty box has Hi < Lo on
// some axis.
type Box struct {
	Lo IntVect
	Hi IntVect
}

// NewBox builds a box from inclusive corners.
func NewBox(lo, hi IntVect) Box { return Box{Lo: lo, Hi: hi} }

// Extent returns the number of indices covered along axis (0 if empty).
func (b Box) Extent(axis int) int {
	n := b.Hi[axis] - b.Lo[axis] + 1
	if n < 0 {
		return 0
	}
	return n
}

// NumCells returns the total index count of the box.
func (b Box) NumCells() int {
	n := 1
	for a := 0; a < MaxDims; a++ {
		n *= b.Extent(a)
	}
	return n
}

// Contains reports whether iv lies inside the box.
func (b Box) Contains(iv IntVect) bool {
	for a := 0; a < MaxDims; a++ {
		if iv[a] < b.Lo[a] || iv[a] > b.Hi[a] {
			return false
		}
	}
	return true
}

// Grow expands the box by ng on both sides of the leading ndims axes.
func (b Box) Grow(ng, ndims int) Box {
	for a := 0; a < ndims; a++ {
		b.Lo[a] -= ng
		b.Hi[a] += ng
	}
	return b
}

// ToStagger converts a cell-centered box to the index range of samples with
// staggering s: along nodal axes the high corner gains one (cells 0..N-1
// carry nodes 0..N).
func (b Box) ToStagger(s Stagger) Box {
	for a := 0; a < MaxDims; a++ {
		if s[a] {
			b.Hi[a]++
		}
	}
	return b
}

// Coarsen maps a cell-centered box to the next-coarser index space with the
// given per-axis refinement ratio, using floor division so that negative
// indices coarsen correctly.
func (b Box) Coarsen(ratio IntVect) Box {
	for a := 0; a < MaxDims; a++ {
		b.Lo[a] = floorDiv(b.Lo[a], ratio[a])
		b.Hi[a] = floorDiv(b.Hi[a], ratio[a])
	}
	return b
}

// Intersect returns the overlap of two boxes (possibly empty).
func (b Box) Intersect(o Box) Box {
	for a := 0; a < MaxDims; a++ {
		if o.Lo[a] > b.Lo[a] {
			b.Lo[a] = o.Lo[a]
		}
		if o.Hi[a] < b.Hi[a] {
			b.Hi[a] = o.Hi[a]
		}
	}
	return b
}

// IsEmpty reports whether the box covers no indices.
func (b Box) IsEmpty() bool {
	for a := 0; a < MaxDims; a++ {
		if b.Hi[a] < b.Lo[a] {
			return true
		}
	}
	return false
}

func (b Box) String() string {
	return fmt.Sprintf("[%v..%v]", b.Lo, b.Hi)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
