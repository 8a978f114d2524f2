package mesh

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridBlockStorage(t *testing.T) {
	t.Parallel()
	ba := []Box{NewBox(Unit(0), IntVect{7, 7, 7})}
	g := NewGrid(ba, AllNodal, 2, 2, 3)

	require.Len(t, g.Blocks(), 1)
	b := g.Blocks()[0]
	assert.Equal(t, NewBox(Unit(0), Unit(8)), b.Valid)
	assert.Equal(t, NewBox(Unit(-2), Unit(10)), b.FullBox())
	assert.Equal(t, 2, b.NumChan())

	// Halo cells are addressable and channels do not alias.
	b.Set(IntVect{-2, 0, 0}, 0, 1.5)
	b.Set(IntVect{-2, 0, 0}, 1, -3.0)
	assert.Equal(t, 1.5, b.At(IntVect{-2, 0, 0}, 0))
	assert.Equal(t, -3.0, b.At(IntVect{-2, 0, 0}, 1))

	b.Add(IntVect{-2, 0, 0}, 0, 0.5)
	assert.Equal(t, 2.0, b.At(IntVect{-2, 0, 0}, 0))
}

func TestGridReducedDimsIgnoreStagger(t *testing.T) {
	t.Parallel()
	ba := []Box{NewBox(Unit(0), IntVect{7, 7, 0})}
	g := NewGrid(ba, AllNodal, 1, 0, 2)

	b := g.Blocks()[0]
	assert.Equal(t, IntVect{8, 8, 0}, b.Valid.Hi, "inactive axis must stay degenerate")
	assert.False(t, g.Stagger[2])
}

func TestGridCloneEqualMult(t *testing.T) {
	t.Parallel()
	ba := []Box{NewBox(Unit(0), IntVect{3, 3, 3})}
	g := NewGrid(ba, CellCenter, 1, 1, 3)
	g.SetVal(2)

	c := g.Clone()
	assert.True(t, g.Equal(c))

	g.Mult(3)
	assert.False(t, g.Equal(c))
	assert.Equal(t, 6.0, g.Blocks()[0].At(Unit(0), 0))
	assert.Equal(t, 2.0, c.Blocks()[0].At(Unit(0), 0), "clone must not share storage")
}

func TestGridBlockAt(t *testing.T) {
	t.Parallel()
	ba := []Box{
		NewBox(Unit(0), IntVect{3, 7, 7}),
		NewBox(IntVect{4, 0, 0}, IntVect{7, 7, 7}),
	}
	g := NewGrid(ba, CellCenter, 1, 1, 3)

	require.NotNil(t, g.BlockAt(IntVect{2, 2, 2}))
	assert.Equal(t, g.Blocks()[0], g.BlockAt(IntVect{2, 2, 2}))
	assert.Equal(t, g.Blocks()[1], g.BlockAt(IntVect{5, 2, 2}))
	assert.Nil(t, g.BlockAt(IntVect{9, 0, 0}))
}

func TestForEachOrderAndCount(t *testing.T) {
	t.Parallel()
	box := NewBox(IntVect{-1, 0, 0}, IntVect{1, 1, 0})
	var got []IntVect
	ForEach(box, func(iv IntVect) { got = append(got, iv) })

	require.Len(t, got, 6)
	assert.Equal(t, IntVect{-1, 0, 0}, got[0], "innermost axis first")
	assert.Equal(t, IntVect{1, 0, 0}, got[2])
	assert.Equal(t, IntVect{-1, 1, 0}, got[3])

	ForEach(NewBox(Unit(1), Unit(0)), func(IntVect) {
		t.Fatal("empty box must not iterate")
	})
}

func TestForEachBlockParallelCoversAllBlocks(t *testing.T) {
	t.Parallel()
	ba := splitBox(NewBox(Unit(0), IntVect{15, 15, 15}), 4, 3)
	g := NewGrid(ba, CellCenter, 1, 0, 3)
	require.Len(t, g.Blocks(), 64)

	var n atomic.Int64
	ForEachBlockParallel(g.Blocks(), func(b *Block) {
		b.Set(b.Valid.Lo, 0, 1)
		n.Add(1)
	})
	assert.Equal(t, int64(64), n.Load())
	for _, b := range g.Blocks() {
		assert.Equal(t, 1.0, b.At(b.Valid.Lo, 0))
	}
}
