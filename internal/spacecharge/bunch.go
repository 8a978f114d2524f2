package spacecharge

import (
	"math/rand"

	"github.com/banshee-data/fieldmesh/internal/mesh"
	"github.com/banshee-data/fieldmesh/internal/solver"
)

// Particle is one macroparticle: a position in meters, a velocity in m/s and
// a carried charge in coulombs.
type Particle struct {
	Pos    [3]float64
	Vel    [3]float64
	Charge float64
}

// Bunch is the built-in ParticleSource: a list of macroparticles deposited
// with a cloud-in-cell shape onto the node lattice. It lets the
// initialization path run end to end without an external particle stack.
type Bunch struct {
	Particles []Particle
}

// NewGaussianBunch samples n macroparticles from an axis-aligned Gaussian
// with the given center and per-axis sigma, all drifting at vel and sharing
// totalCharge equally.
func NewGaussianBunch(rng *rand.Rand, n int, center, sigma, vel [3]float64, totalCharge float64) *Bunch {
	b := &Bunch{Particles: make([]Particle, n)}
	w := totalCharge / float64(n)
	for i := range b.Particles {
		var pos [3]float64
		for a := 0; a < 3; a++ {
			pos[a] = center[a] + rng.NormFloat64()*sigma[a]
		}
		b.Particles[i] = Particle{Pos: pos, Vel: vel, Charge: w}
	}
	return b
}

// DepositCharge deposits the bunch's charge density onto the per-level node
// grids with cloud-in-cell weights. Contributions from every block are
// summed through a flat per-level accumulator before scattering back, which
// is the single-process form of the required global reduction; local is
// accepted for interface compatibility and behaves identically here.
func (bn *Bunch) DepositCharge(geom *mesh.Geometry, rho []*mesh.Grid, local, reset bool) {
	_ = local
	for lev := range rho {
		dx := geom.CellSize(lev)
		vol := 1.0
		for a := 0; a < geom.NDims; a++ {
			vol *= dx[a]
		}
		acc := solver.NewNodeField(geom, lev)
		for _, p := range bn.Particles {
			depositCIC(acc, geom, dx, p, 1/vol)
		}
		for _, blk := range rho[lev].Blocks() {
			b := blk
			mesh.ForEach(b.Valid, func(iv mesh.IntVect) {
				if reset {
					b.Set(iv, 0, acc.At(iv))
				} else {
					b.Add(iv, 0, acc.At(iv))
				}
			})
		}
	}
}

// depositCIC spreads one particle's charge over the 2^ndims surrounding
// nodes with linear weights. Positions map to index space with the domain's
// low corner at physical zero. Stencil legs falling outside a non-periodic
// domain are dropped.
func depositCIC(acc *solver.NodeField, geom *mesh.Geometry, dx [mesh.MaxDims]float64, p Particle, invVol float64) {
	ndims := geom.NDims
	var base mesh.IntVect
	var frac [mesh.MaxDims]float64
	for a := 0; a < ndims; a++ {
		x := p.Pos[axisComp(a, ndims)] / dx[a]
		i := int(x)
		if x < float64(i) { // floor for negative positions
			i--
		}
		base[a] = i
		frac[a] = x - float64(i)
	}
	corners := 1 << ndims
	for m := 0; m < corners; m++ {
		iv := base
		w := p.Charge * invVol
		for a := 0; a < ndims; a++ {
			if m&(1<<a) != 0 {
				iv[a]++
				w *= frac[a]
			} else {
				w *= 1 - frac[a]
			}
		}
		acc.Add(iv, w)
	}
}

// MeanParticleVelocity returns the charge-weighted mean velocity of the
// bunch. The average is over the whole population (the global form); local
// is accepted for interface compatibility.
func (bn *Bunch) MeanParticleVelocity(local bool) [3]float64 {
	_ = local
	var sum [3]float64
	var wsum float64
	for _, p := range bn.Particles {
		w := p.Charge
		if w < 0 {
			w = -w
		}
		for a := 0; a < 3; a++ {
			sum[a] += w * p.Vel[a]
		}
		wsum += w
	}
	if wsum == 0 {
		return [3]float64{}
	}
	for a := 0; a < 3; a++ {
		sum[a] /= wsum
	}
	return sum
}
