package spacecharge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fieldmesh/internal/mesh"
	"github.com/banshee-data/fieldmesh/internal/solver"
	"github.com/banshee-data/fieldmesh/internal/units"
)

func newEGrids(geom *mesh.Geometry, halo int) [][3]*mesh.Grid {
	e := make([][3]*mesh.Grid, geom.NumLevels())
	for lev := range e {
		ba := geom.BlockBoxes(lev)
		for c := 0; c < 3; c++ {
			e[lev][c] = mesh.NewGrid(ba, EStagger(c, geom.NDims), 1, halo, geom.NDims)
		}
	}
	return e
}

func TestEStagger(t *testing.T) {
	t.Parallel()
	assert.Equal(t, mesh.YeeE(0), EStagger(0, 3))
	assert.Equal(t, mesh.YeeE(2), EStagger(2, 3))
	// Two active axes keep x and z; Ez is cell-centered along mesh axis 1.
	assert.Equal(t, mesh.Stagger{true, false, true}, EStagger(2, 2))
	// Out-of-plane Ey is nodal everywhere.
	assert.Equal(t, mesh.AllNodal, EStagger(1, 2))
}

func TestInitRejectsCylindricalGeometry(t *testing.T) {
	t.Parallel()
	geom, err := mesh.NewGeometry(mesh.GeometrySpec{
		NDims:    2,
		Coord:    mesh.CoordCylindrical,
		Cells:    mesh.IntVect{8, 8, 1},
		Extent:   [3]float64{1, 1, 1},
		Periodic: [3]bool{false, true, false},
	})
	require.NoError(t, err)

	e := newEGrids(geom, 1)
	e[0][0].SetVal(1.5)
	before := e[0][0].Clone()

	init := &Initializer{Geom: geom, ShapeOrder: 1, Solver: &solver.Multilevel{}}
	_, err = init.InitSpaceChargeField(&Bunch{}, e)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedGeometry))
	assert.True(t, e[0][0].Equal(before), "field grids must be untouched")
}

func TestInitLevelCountMismatch(t *testing.T) {
	t.Parallel()
	geom := depositGeometry(t)
	init := &Initializer{Geom: geom, ShapeOrder: 1, Solver: &solver.Multilevel{}}
	_, err := init.InitSpaceChargeField(&Bunch{}, nil)
	assert.Error(t, err)
}

// divergenceAt evaluates the staggered divergence of E at a node of a
// single-block level: the backward difference matching the one-sided
// gradient the field was built with.
func divergenceAt(e [3]*mesh.Grid, iv mesh.IntVect, dx [mesh.MaxDims]float64, ndims int) float64 {
	d := 0.0
	for c := 0; c < ndims; c++ {
		blk := e[c].Blocks()[0]
		d += (blk.At(iv, 0) - blk.At(iv.Shift(c, -1), 0)) / dx[c]
	}
	return d
}

func TestPointChargeFieldSatisfiesGaussLaw(t *testing.T) {
	t.Parallel()
	geom, err := mesh.NewGeometry(mesh.GeometrySpec{
		NDims:    3,
		Cells:    mesh.IntVect{16, 16, 16},
		Extent:   [3]float64{1, 1, 1},
		Periodic: [3]bool{true, true, true},
	})
	require.NoError(t, err)

	// A single stationary macroparticle exactly on node (8,8,8).
	const q = -1e-9
	bn := &Bunch{Particles: []Particle{{Pos: [3]float64{0.5, 0.5, 0.5}, Charge: q}}}

	e := newEGrids(geom, 1)
	init := &Initializer{Geom: geom, ShapeOrder: 1, Solver: &solver.Multilevel{}}
	results, err := init.InitSpaceChargeField(bn, e)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.LessOrEqual(t, results[0].Residual, RelTol*results[0].RHSNorm)

	dx := geom.CellSize(0)
	vol := dx[0] * dx[1] * dx[2]
	nodes := 16.0 * 16 * 16

	// The periodic solve subtracts the uniform neutralizing background, so
	// the discrete Gauss law sees the charge density minus its mean.
	atCharge := (q / vol) * (1 - 1/nodes) / units.Epsilon0
	got := divergenceAt(e[0], mesh.IntVect{8, 8, 8}, dx, 3)
	assert.InEpsilon(t, atCharge, got, 1e-6)

	background := -(q / vol) / nodes / units.Epsilon0
	got = divergenceAt(e[0], mesh.IntVect{2, 13, 5}, dx, 3)
	assert.InEpsilon(t, background, got, 1e-5)

	// A negative charge pulls the field inward: Ex just past the charge on
	// the +x side is negative, and its mirror on the -x side matches.
	blk := e[0][0].Blocks()[0]
	plus := blk.At(mesh.IntVect{8, 8, 8}, 0)
	minus := blk.At(mesh.IntVect{7, 8, 8}, 0)
	assert.Negative(t, plus)
	assert.InEpsilon(t, -plus, minus, 1e-9)
}

func TestInitAccumulatesIntoExistingField(t *testing.T) {
	t.Parallel()
	geom := depositGeometry(t)
	bn := &Bunch{Particles: []Particle{
		{Pos: [3]float64{0.5, 0.5, 0.5}, Charge: -1e-9},
	}}

	fromZero := newEGrids(geom, 1)
	init := &Initializer{Geom: geom, ShapeOrder: 1, Solver: &solver.Multilevel{}}
	_, err := init.InitSpaceChargeField(bn, fromZero)
	require.NoError(t, err)

	prefilled := newEGrids(geom, 1)
	for c := 0; c < 3; c++ {
		prefilled[0][c].SetVal(1.25)
	}
	_, err = init.InitSpaceChargeField(bn, prefilled)
	require.NoError(t, err)

	for c := 0; c < 3; c++ {
		z := fromZero[0][c].Blocks()[0]
		p := prefilled[0][c].Blocks()[0]
		for _, iv := range []mesh.IntVect{{0, 0, 0}, {4, 4, 4}, {7, 3, 5}} {
			assert.InDelta(t, 1.25+z.At(iv, 0), p.At(iv, 0), 1e-9, "component %d at %v", c, iv)
		}
	}
}

func TestComputeEDriftCorrection(t *testing.T) {
	t.Parallel()
	geom := depositGeometry(t)
	init := &Initializer{Geom: geom}
	beta := [3]float64{0.3, 0.2, -0.1}

	// A node-periodic potential so wrap reads agree with direct evaluation.
	m := func(i int) int { return ((i % 8) + 8) % 8 }
	val := func(iv mesh.IntVect) float64 {
		return float64((m(iv[0])*5 + m(iv[1])*3 + m(iv[2])*2) % 7)
	}
	phi := mesh.NewGrid(geom.BlockBoxes(0), mesh.AllNodal, 1, 0, 3)
	for _, b := range phi.Blocks() {
		blk := b
		mesh.ForEach(blk.Valid, func(iv mesh.IntVect) {
			blk.Set(iv, 0, val(iv))
		})
	}

	e := newEGrids(geom, 0)
	init.computeE(e[:1], []*mesh.Grid{phi}, beta)

	dx := geom.CellSize(0)
	for c := 0; c < 3; c++ {
		blk := e[0][c].Blocks()[0]
		for _, iv := range []mesh.IntVect{{0, 0, 0}, {3, 4, 5}, {7, 0, 7}} {
			want := (beta[c]*beta[c] - 1) / dx[c] * (val(iv.Shift(c, 1)) - val(iv))
			for tt := 0; tt < 3; tt++ {
				if tt == c {
					continue
				}
				want += beta[c] * beta[tt] * 0.5 / dx[tt] * (val(iv.Shift(tt, 1)) - val(iv.Shift(tt, -1)))
			}
			assert.InDelta(t, want, blk.At(iv, 0), 1e-12, "component %d at %v", c, iv)
		}
	}
}

func TestComputeEReducedDims(t *testing.T) {
	t.Parallel()
	geom, err := mesh.NewGeometry(mesh.GeometrySpec{
		NDims:  2,
		Cells:  mesh.IntVect{8, 8, 1},
		Extent: [3]float64{1, 2, 1},
	})
	require.NoError(t, err)
	init := &Initializer{Geom: geom}
	beta := [3]float64{0.4, 0.25, -0.2}

	val := func(iv mesh.IntVect) float64 {
		return float64(iv[0]*iv[0] + 2*iv[1])
	}
	phi := mesh.NewGrid(geom.BlockBoxes(0), mesh.AllNodal, 1, 0, 2)
	for _, b := range phi.Blocks() {
		blk := b
		mesh.ForEach(blk.Valid, func(iv mesh.IntVect) {
			blk.Set(iv, 0, val(iv))
		})
	}

	e := newEGrids(geom, 0)
	init.computeE(e[:1], []*mesh.Grid{phi}, beta)

	dx := geom.CellSize(0)
	iv := mesh.IntVect{3, 4, 0}

	// Ex: one-sided along mesh axis 0, centered along mesh axis 1 where the
	// transverse drift component is beta_z.
	wantX := (beta[0]*beta[0]-1)/dx[0]*(val(iv.Shift(0, 1))-val(iv)) +
		beta[0]*beta[2]*0.5/dx[1]*(val(iv.Shift(1, 1))-val(iv.Shift(1, -1)))
	assert.InDelta(t, wantX, e[0][0].Blocks()[0].At(iv, 0), 1e-12)

	// Ez varies along mesh axis 1.
	wantZ := (beta[2]*beta[2]-1)/dx[1]*(val(iv.Shift(1, 1))-val(iv)) +
		beta[2]*beta[0]*0.5/dx[0]*(val(iv.Shift(0, 1))-val(iv.Shift(0, -1)))
	assert.InDelta(t, wantZ, e[0][2].Blocks()[0].At(iv, 0), 1e-12)

	// The out-of-plane component is never written.
	assert.Zero(t, e[0][1].Blocks()[0].At(iv, 0))
}
