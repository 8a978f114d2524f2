package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrNotConverged reports that the iterative solve stopped at its iteration
// cap before reaching tolerance. Callers surface it unchanged; there is no
// retry inside the solver.
var ErrNotConverged = errors.New("solver: conjugate gradient did not converge")

// Result summarizes one level's solve for logging and run records.
type Result struct {
	Iterations int
	Residual   float64 // final ‖r‖₂
	RHSNorm    float64 // ‖b‖₂ the relative tolerance was measured against
}

// CG is an unpreconditioned conjugate-gradient solve over the negated node
// Laplacian. MaxIters of zero defaults to ten unknown-counts, generous for
// the well-conditioned sub-luminal operator.
type CG struct {
	MaxIters int
}

// Solve solves L x = b in the bare-operator convention (L = ∇² − (β·∇)²),
// overwriting x (which also provides the initial guess). Convergence is
// ‖b − Lx‖₂ ≤ max(relTol·‖b‖₂, absTol).
//
// When every axis is periodic the operator is singular with the constant
// null space; the mean is projected out of b and of the iterates, so the
// returned potential has zero mean and b is solvable up to its mean.
func (cg *CG) Solve(op *NodeLaplacian, x, b []float64, relTol, absTol float64) (Result, error) {
	n := op.NumNodes()
	if len(x) != n || len(b) != n {
		return Result{}, fmt.Errorf("solver: vector length %d/%d does not match %d nodes", len(x), len(b), n)
	}

	// CG needs the positive form: Apply computes −L, so negate the rhs.
	nb := make([]float64, n)
	for i, v := range b {
		nb[i] = -v
	}
	if op.AllPeriodic() {
		removeMean(nb)
		removeMean(x)
	} else {
		// Pin the Dirichlet boundary nodes at zero in both rhs and guess.
		zeroDirichlet(op, nb)
		zeroDirichlet(op, x)
	}

	bnorm := floats.Norm(nb, 2)
	target := relTol * bnorm
	if absTol > target {
		target = absTol
	}

	r := make([]float64, n)
	op.Apply(r, x)
	for i := range r {
		r[i] = nb[i] - r[i]
	}
	d := append([]float64(nil), r...)
	ad := make([]float64, n)

	rr := floats.Dot(r, r)
	res := math.Sqrt(rr)
	maxIters := cg.MaxIters
	if maxIters <= 0 {
		maxIters = 10 * n
	}

	iter := 0
	for ; res > target && iter < maxIters; iter++ {
		op.Apply(ad, d)
		dad := floats.Dot(d, ad)
		if dad == 0 {
			break
		}
		alpha := rr / dad
		floats.AddScaled(x, alpha, d)
		floats.AddScaled(r, -alpha, ad)
		if op.AllPeriodic() {
			// Rounding can leak a constant component back in; project it
			// out so the singular system stays consistent.
			removeMean(r)
		}
		rrNew := floats.Dot(r, r)
		floats.Scale(rrNew/rr, d)
		floats.Add(d, r)
		rr = rrNew
		res = math.Sqrt(rr)
	}

	if op.AllPeriodic() {
		removeMean(x)
	}
	out := Result{Iterations: iter, Residual: res, RHSNorm: bnorm}
	if res > target {
		return out, fmt.Errorf("%w: residual %.3e after %d iterations (target %.3e)", ErrNotConverged, res, iter, target)
	}
	return out, nil
}

func removeMean(v []float64) {
	if len(v) == 0 {
		return
	}
	m := floats.Sum(v) / float64(len(v))
	for i := range v {
		v[i] -= m
	}
}

func zeroDirichlet(op *NodeLaplacian, v []float64) {
	off := 0
	var iv [3]int
	for k := 0; k < op.Shape[2]; k++ {
		for j := 0; j < op.Shape[1]; j++ {
			for i := 0; i < op.Shape[0]; i++ {
				iv[0], iv[1], iv[2] = i, j, k
				if op.isDirichletNode(iv) {
					v[off] = 0
				}
				off++
			}
		}
	}
}
