// Package spacecharge initializes the electrostatic field of a particle
// population: it deposits the particle charge onto node-centered grids,
// solves the generalized Poisson equation for a possibly drifting source,
//
//	∇²φ − (β·∇)²φ = −ρ/ε₀
//
// and accumulates the corresponding electric field onto the staggered field
// grids. Cylindrical (azimuthally symmetric) meshes are not supported and
// fail fast before any grid is touched.
package spacecharge

import (
	"errors"
	"fmt"

	"github.com/banshee-data/fieldmesh/internal/mesh"
	"github.com/banshee-data/fieldmesh/internal/solver"
	"github.com/banshee-data/fieldmesh/internal/units"
)

// RelTol is the fixed relative tolerance the potential is solved to.
const RelTol = 1e-11

// ErrUnsupportedGeometry reports an initialization request on a cylindrical
// mesh. No partial state is produced.
var ErrUnsupportedGeometry = errors.New("spacecharge: field initialization is not implemented for cylindrical geometry")

// ParticleSource supplies the charge distribution and bulk motion of a
// particle population. Both methods are collective: with local false the
// results must be summed/averaged across every participating block before
// returning, and callers treat them as synchronization points.
type ParticleSource interface {
	// DepositCharge deposits the population's charge density into the
	// per-level node grids. reset clears any prior contents first.
	DepositCharge(geom *mesh.Geometry, rho []*mesh.Grid, local, reset bool)
	// MeanParticleVelocity returns the charge-weighted mean velocity in m/s.
	MeanParticleVelocity(local bool) [3]float64
}

// LinearSolver is the linear-solve primitive consumed by the potential
// solve. Implementations report non-convergence through their error return;
// the initializer surfaces it unchanged.
type LinearSolver interface {
	Solve(geom *mesh.Geometry, beta [3]float64, rhs, sol []*mesh.Grid, relTol, absTol float64) ([]solver.Result, error)
}

// Initializer orchestrates space-charge field initialization over an AMR
// hierarchy. ShapeOrder is the particle shape-function order and sets the
// halo width of the charge grids (the potential grids carry none).
type Initializer struct {
	Geom       *mesh.Geometry
	ShapeOrder int
	Solver     LinearSolver
}

// InitSpaceChargeField computes the electrostatic field of the particle
// source and accumulates it into the per-level E component grids in place.
// The charge and potential grids are scoped to this call. Per-level solver
// results are returned for diagnostics.
func (init *Initializer) InitSpaceChargeField(pc ParticleSource, e [][3]*mesh.Grid) ([]solver.Result, error) {
	if init.Geom.Coord == mesh.CoordCylindrical {
		return nil, ErrUnsupportedGeometry
	}

	nlev := init.Geom.NumLevels()
	if len(e) != nlev {
		return nil, fmt.Errorf("spacecharge: %d field levels for %d mesh levels", len(e), nlev)
	}
	rho := make([]*mesh.Grid, nlev)
	phi := make([]*mesh.Grid, nlev)
	for lev := 0; lev < nlev; lev++ {
		ba := init.Geom.BlockBoxes(lev)
		rho[lev] = mesh.NewGrid(ba, mesh.AllNodal, 1, init.ShapeOrder, init.Geom.NDims)
		phi[lev] = mesh.NewGrid(ba, mesh.AllNodal, 1, 0, init.Geom.NDims)
	}

	// Deposit the charge density that sources the Poisson solve. Global
	// reduction: every block's contribution is summed before the solve.
	pc.DepositCharge(init.Geom, rho, false, true)

	// Normalized bulk drift of the population, averaged globally.
	beta := pc.MeanParticleVelocity(false)
	for a := range beta {
		beta[a] /= units.SpeedOfLight
	}

	results, err := init.computePhi(rho, phi, beta)
	if err != nil {
		return results, err
	}
	init.computeE(e, phi, beta)
	return results, nil
}

// computePhi solves the generalized Poisson equation with rho as the source.
// The linear solve runs in the bare-operator convention L·φ = ρ, so the
// result is scaled by −1/ε₀ afterwards to obtain the physical potential.
func (init *Initializer) computePhi(rho, phi []*mesh.Grid, beta [3]float64) ([]solver.Result, error) {
	results, err := init.Solver.Solve(init.Geom, beta, rho, phi, RelTol, 0)
	if err != nil {
		return results, err
	}
	for lev := range phi {
		phi[lev].Mult(-1 / units.Epsilon0)
	}
	return results, nil
}
