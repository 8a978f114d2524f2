package spacecharge

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fieldmesh/internal/mesh"
	"github.com/banshee-data/fieldmesh/internal/solver"
)

func depositGeometry(t *testing.T) *mesh.Geometry {
	t.Helper()
	g, err := mesh.NewGeometry(mesh.GeometrySpec{
		NDims:    3,
		Cells:    mesh.IntVect{8, 8, 8},
		Extent:   [3]float64{1, 1, 1},
		Periodic: [3]bool{true, true, true},
	})
	require.NoError(t, err)
	return g
}

func nodeSum(geom *mesh.Geometry, g *mesh.Grid) float64 {
	f := solver.GatherNodes(geom, 0, g)
	s := 0.0
	for _, v := range f.Data {
		s += v
	}
	return s
}

func TestDepositChargeConservesTotal(t *testing.T) {
	t.Parallel()
	geom := depositGeometry(t)
	bn := &Bunch{Particles: []Particle{
		{Pos: [3]float64{0.13, 0.71, 0.42}, Charge: -2e-9},
		{Pos: [3]float64{0.55, 0.05, 0.93}, Charge: 5e-10},
		{Pos: [3]float64{0.99, 0.99, 0.01}, Charge: 1e-9},
	}}
	rho := mesh.NewGrid(geom.BlockBoxes(0), mesh.AllNodal, 1, 1, 3)
	bn.DepositCharge(geom, []*mesh.Grid{rho}, false, true)

	dx := geom.CellSize(0)
	vol := dx[0] * dx[1] * dx[2]
	assert.InEpsilon(t, -5e-10, nodeSum(geom, rho)*vol, 1e-12)
}

func TestDepositChargeOnNode(t *testing.T) {
	t.Parallel()
	geom := depositGeometry(t)
	// dx = 1/8, so this position sits exactly on node (2,4,6).
	bn := &Bunch{Particles: []Particle{
		{Pos: [3]float64{0.25, 0.5, 0.75}, Charge: -1e-9},
	}}
	rho := mesh.NewGrid(geom.BlockBoxes(0), mesh.AllNodal, 1, 1, 3)
	bn.DepositCharge(geom, []*mesh.Grid{rho}, false, true)

	dx := geom.CellSize(0)
	vol := dx[0] * dx[1] * dx[2]
	blk := rho.Blocks()[0]
	assert.InEpsilon(t, -1e-9/vol, blk.At(mesh.IntVect{2, 4, 6}, 0), 1e-12)
	assert.Zero(t, blk.At(mesh.IntVect{3, 4, 6}, 0))
	assert.Zero(t, blk.At(mesh.IntVect{2, 5, 6}, 0))
}

func TestDepositChargeMidCellSplitsEvenly(t *testing.T) {
	t.Parallel()
	geom := depositGeometry(t)
	dx := geom.CellSize(0)
	bn := &Bunch{Particles: []Particle{
		{Pos: [3]float64{0.25 + dx[0]/2, 0.5 + dx[1]/2, 0.75 + dx[2]/2}, Charge: 8e-10},
	}}
	rho := mesh.NewGrid(geom.BlockBoxes(0), mesh.AllNodal, 1, 1, 3)
	bn.DepositCharge(geom, []*mesh.Grid{rho}, false, true)

	vol := dx[0] * dx[1] * dx[2]
	blk := rho.Blocks()[0]
	base := mesh.IntVect{2, 4, 6}
	for m := 0; m < 8; m++ {
		iv := base
		for a := 0; a < 3; a++ {
			if m&(1<<a) != 0 {
				iv[a]++
			}
		}
		assert.InEpsilon(t, 1e-10/vol, blk.At(iv, 0), 1e-12, "corner %v", iv)
	}
}

func TestDepositChargeResetAndAccumulate(t *testing.T) {
	t.Parallel()
	geom := depositGeometry(t)
	bn := &Bunch{Particles: []Particle{
		{Pos: [3]float64{0.25, 0.5, 0.75}, Charge: -1e-9},
	}}
	rho := mesh.NewGrid(geom.BlockBoxes(0), mesh.AllNodal, 1, 1, 3)
	bn.DepositCharge(geom, []*mesh.Grid{rho}, false, true)
	once := rho.Blocks()[0].At(mesh.IntVect{2, 4, 6}, 0)

	bn.DepositCharge(geom, []*mesh.Grid{rho}, false, false)
	assert.InEpsilon(t, 2*once, rho.Blocks()[0].At(mesh.IntVect{2, 4, 6}, 0), 1e-12)

	bn.DepositCharge(geom, []*mesh.Grid{rho}, false, true)
	assert.Equal(t, once, rho.Blocks()[0].At(mesh.IntVect{2, 4, 6}, 0))
}

func TestMeanParticleVelocityIsChargeWeighted(t *testing.T) {
	t.Parallel()
	bn := &Bunch{Particles: []Particle{
		{Vel: [3]float64{1, 2, 0}, Charge: 1},
		{Vel: [3]float64{-1, 2, 4}, Charge: -3},
	}}
	v := bn.MeanParticleVelocity(false)
	// Weights are charge magnitudes: (1·1 + 3·(−1)) / 4 on x.
	assert.InDelta(t, -0.5, v[0], 1e-15)
	assert.InDelta(t, 2, v[1], 1e-15)
	assert.InDelta(t, 3, v[2], 1e-15)

	empty := &Bunch{}
	assert.Equal(t, [3]float64{}, empty.MeanParticleVelocity(false))
}

func TestNewGaussianBunch(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(5))
	center := [3]float64{0.5, 0.5, 0.5}
	sigma := [3]float64{0.05, 0.05, 0.05}
	vel := [3]float64{0, 0, 1e6}
	bn := NewGaussianBunch(rng, 2000, center, sigma, vel, -1e-9)

	require.Len(t, bn.Particles, 2000)
	total := 0.0
	var mean [3]float64
	for _, p := range bn.Particles {
		total += p.Charge
		assert.Equal(t, vel, p.Vel)
		for a := 0; a < 3; a++ {
			mean[a] += p.Pos[a]
		}
	}
	assert.InEpsilon(t, -1e-9, total, 1e-9)
	for a := 0; a < 3; a++ {
		assert.InDelta(t, center[a], mean[a]/2000, 0.01, "axis %d", a)
	}

	assert.Equal(t, vel, bn.MeanParticleVelocity(false))
}
