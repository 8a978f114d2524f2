package solver

import (
	"fmt"

	"github.com/banshee-data/fieldmesh/internal/mesh"
	"github.com/banshee-data/fieldmesh/internal/monitoring"
)

// Multilevel solves the drift-corrected Poisson problem level by level on
// node-centered grids. Levels are decoupled: each is solved on its own node
// lattice with the domain boundary conditions (periodic where the mesh is
// periodic, zero-potential Dirichlet elsewhere). Inter-level composite
// coupling belongs to the surrounding multigrid machinery, not this
// primitive.
type Multilevel struct {
	// MaxIters caps each level's CG iterations; zero picks a default.
	MaxIters int
	// Verbose reports per-level convergence through the package logger.
	Verbose bool
}

// Solve solves L·sol = rhs per level in the bare-operator convention
// (L = ∇² − (β·∇)²) and returns per-level convergence results. beta is the
// source drift velocity over c. sol provides initial guesses and receives
// the solutions in place. A non-converged level aborts the remaining levels
// and surfaces the solver error as-is.
func (ml *Multilevel) Solve(geom *mesh.Geometry, beta [3]float64, rhs, sol []*mesh.Grid, relTol, absTol float64) ([]Result, error) {
	if len(rhs) != len(sol) {
		return nil, fmt.Errorf("solver: %d rhs levels vs %d solution levels", len(rhs), len(sol))
	}
	cg := CG{MaxIters: ml.MaxIters}
	results := make([]Result, 0, len(rhs))
	for lev := range rhs {
		op := NewNodeLaplacian(geom, lev, beta)
		b := GatherNodes(geom, lev, rhs[lev])
		x := GatherNodes(geom, lev, sol[lev])
		res, err := cg.Solve(op, x.Data, b.Data, relTol, absTol)
		results = append(results, res)
		if ml.Verbose {
			monitoring.Logf("solver: level %d finished in %d iterations, residual %.3e (rhs norm %.3e)",
				lev, res.Iterations, res.Residual, res.RHSNorm)
		}
		if err != nil {
			return results, fmt.Errorf("level %d: %w", lev, err)
		}
		ScatterNodes(x, sol[lev])
	}
	return results, nil
}
