// Package config loads the JSON run configuration for the field
// initialization driver. Fields are pointer-typed so partial configs are
// safe: anything omitted keeps its default through the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/fieldmesh/internal/mesh"
)

// RunConfig is the root configuration for a space-charge initialization run.
type RunConfig struct {
	// Mesh
	NDims         *int      `json:"ndims,omitempty"`
	GridCells     []int     `json:"grid_cells,omitempty"`     // cells per axis, level 0
	DomainSize    []float64 `json:"domain_size,omitempty"`    // meters per axis
	Periodic      []bool    `json:"periodic,omitempty"`       // per axis
	BoundaryLo    []string  `json:"boundary_lo,omitempty"`    // "periodic" | "pec" | "other"
	BoundaryHi    []string  `json:"boundary_hi,omitempty"`    //
	MaxBlockCells *int      `json:"max_block_cells,omitempty"`
	RefRatios     []int     `json:"ref_ratios,omitempty"` // refined levels, factor each

	// Particles
	ParticleCount *int      `json:"particle_count,omitempty"`
	BunchCharge   *float64  `json:"bunch_charge,omitempty"` // coulombs, total
	BunchCenter   []float64 `json:"bunch_center,omitempty"` // meters
	BunchSigma    []float64 `json:"bunch_sigma,omitempty"`  // meters per axis
	DriftVelocity []float64 `json:"drift_velocity,omitempty"`
	ShapeOrder    *int      `json:"shape_order,omitempty"`
	Seed          *int64    `json:"seed,omitempty"`

	// Solver
	SolverMaxIters *int  `json:"solver_max_iters,omitempty"`
	SolverVerbose  *bool `json:"solver_verbose,omitempty"`

	// Outputs
	PlotPath   *string `json:"plot_path,omitempty"`   // potential slice plot (.png)
	RunLogPath *string `json:"runlog_path,omitempty"` // sqlite run database
}

// LoadRunConfig loads a RunConfig from a JSON file. The file must have a
// .json extension and stay under 1MB.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	fi, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fi.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fi.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &RunConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration values against the mesh contracts.
func (c *RunConfig) Validate() error {
	nd := c.GetNDims()
	if nd < 1 || nd > mesh.MaxDims {
		return fmt.Errorf("ndims must be 1..%d, got %d", mesh.MaxDims, nd)
	}
	for name, l := range map[string]int{
		"grid_cells":  len(c.GridCells),
		"domain_size": len(c.DomainSize),
	} {
		if l != 0 && l != nd {
			return fmt.Errorf("%s must have %d entries, got %d", name, nd, l)
		}
	}
	for _, n := range c.GridCells {
		if n < 1 {
			return fmt.Errorf("grid_cells entries must be positive, got %d", n)
		}
	}
	for _, s := range c.DomainSize {
		if s <= 0 {
			return fmt.Errorf("domain_size entries must be positive, got %g", s)
		}
	}
	for _, ss := range [][]string{c.BoundaryLo, c.BoundaryHi} {
		for _, s := range ss {
			if _, err := mesh.ParseBoundaryKind(s); err != nil {
				return err
			}
		}
	}
	if _, err := c.BoundaryTable(); err != nil {
		return err
	}
	if c.ParticleCount != nil && *c.ParticleCount < 0 {
		return fmt.Errorf("particle_count must be non-negative, got %d", *c.ParticleCount)
	}
	if c.ShapeOrder != nil && *c.ShapeOrder < 0 {
		return fmt.Errorf("shape_order must be non-negative, got %d", *c.ShapeOrder)
	}
	if p := c.PlotPath; p != nil && *p != "" && filepath.Ext(*p) != ".png" {
		return fmt.Errorf("plot_path must end in .png, got %q", *p)
	}
	return nil
}

// GetNDims returns the dimensionality or the 3D default.
func (c *RunConfig) GetNDims() int {
	if c.NDims == nil {
		return 3
	}
	return *c.NDims
}

// GetGridCells returns the level-0 cells per axis, defaulting to 32.
func (c *RunConfig) GetGridCells() mesh.IntVect {
	cells := mesh.Unit(1)
	for a := 0; a < c.GetNDims(); a++ {
		cells[a] = 32
		if a < len(c.GridCells) {
			cells[a] = c.GridCells[a]
		}
	}
	return cells
}

// GetDomainSize returns the physical extent per axis, defaulting to 1m.
func (c *RunConfig) GetDomainSize() [3]float64 {
	out := [3]float64{1, 1, 1}
	for a := 0; a < len(c.DomainSize) && a < 3; a++ {
		out[a] = c.DomainSize[a]
	}
	return out
}

// GetPeriodic returns per-axis periodicity, defaulting to true.
func (c *RunConfig) GetPeriodic() [3]bool {
	out := [3]bool{}
	for a := 0; a < c.GetNDims(); a++ {
		out[a] = true
		if a < len(c.Periodic) {
			out[a] = c.Periodic[a]
		}
	}
	return out
}

// BoundaryTable builds the field boundary table from the boundary_lo/hi
// lists; axes left unspecified follow periodicity (periodic or other).
func (c *RunConfig) BoundaryTable() (mesh.BoundaryTable, error) {
	var t mesh.BoundaryTable
	per := c.GetPeriodic()
	for a := 0; a < c.GetNDims(); a++ {
		if per[a] {
			t.Lo[a] = mesh.BoundaryPeriodic
			t.Hi[a] = mesh.BoundaryPeriodic
		}
		if a < len(c.BoundaryLo) {
			k, err := mesh.ParseBoundaryKind(c.BoundaryLo[a])
			if err != nil {
				return t, err
			}
			t.Lo[a] = k
		}
		if a < len(c.BoundaryHi) {
			k, err := mesh.ParseBoundaryKind(c.BoundaryHi[a])
			if err != nil {
				return t, err
			}
			t.Hi[a] = k
		}
	}
	if err := t.Validate(c.GetNDims()); err != nil {
		return t, err
	}
	return t, nil
}

// GeometrySpec assembles the mesh geometry spec from the config.
func (c *RunConfig) GeometrySpec() mesh.GeometrySpec {
	return mesh.GeometrySpec{
		NDims:         c.GetNDims(),
		Cells:         c.GetGridCells(),
		Extent:        c.GetDomainSize(),
		Periodic:      c.GetPeriodic(),
		MaxBlockCells: c.GetMaxBlockCells(),
		RefRatios:     c.RefRatios,
	}
}

// GetMaxBlockCells returns the block split width, 0 (single block) default.
func (c *RunConfig) GetMaxBlockCells() int {
	if c.MaxBlockCells == nil {
		return 0
	}
	return *c.MaxBlockCells
}

// GetParticleCount returns the macroparticle count or the default.
func (c *RunConfig) GetParticleCount() int {
	if c.ParticleCount == nil {
		return 100000
	}
	return *c.ParticleCount
}

// GetBunchCharge returns the total bunch charge or the default (-1 nC).
func (c *RunConfig) GetBunchCharge() float64 {
	if c.BunchCharge == nil {
		return -1e-9
	}
	return *c.BunchCharge
}

// GetBunchCenter returns the bunch center, defaulting to the domain middle.
func (c *RunConfig) GetBunchCenter() [3]float64 {
	size := c.GetDomainSize()
	out := [3]float64{size[0] / 2, size[1] / 2, size[2] / 2}
	for a := 0; a < len(c.BunchCenter) && a < 3; a++ {
		out[a] = c.BunchCenter[a]
	}
	return out
}

// GetBunchSigma returns the per-axis bunch sigma, defaulting to 5% of the
// domain extent.
func (c *RunConfig) GetBunchSigma() [3]float64 {
	size := c.GetDomainSize()
	out := [3]float64{size[0] * 0.05, size[1] * 0.05, size[2] * 0.05}
	for a := 0; a < len(c.BunchSigma) && a < 3; a++ {
		out[a] = c.BunchSigma[a]
	}
	return out
}

// GetDriftVelocity returns the bunch drift velocity in m/s, zero default.
func (c *RunConfig) GetDriftVelocity() [3]float64 {
	var out [3]float64
	for a := 0; a < len(c.DriftVelocity) && a < 3; a++ {
		out[a] = c.DriftVelocity[a]
	}
	return out
}

// GetShapeOrder returns the particle shape order (charge-grid halo width).
func (c *RunConfig) GetShapeOrder() int {
	if c.ShapeOrder == nil {
		return 1
	}
	return *c.ShapeOrder
}

// GetSeed returns the sampling seed.
func (c *RunConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

// GetSolverMaxIters returns the CG iteration cap (0 = solver default).
func (c *RunConfig) GetSolverMaxIters() int {
	if c.SolverMaxIters == nil {
		return 0
	}
	return *c.SolverMaxIters
}

// GetSolverVerbose returns whether per-level convergence is logged.
func (c *RunConfig) GetSolverVerbose() bool {
	if c.SolverVerbose == nil {
		return true
	}
	return *c.SolverVerbose
}

// GetPlotPath returns the potential plot output path ("" disables).
func (c *RunConfig) GetPlotPath() string {
	if c.PlotPath == nil {
		return ""
	}
	return *c.PlotPath
}

// GetRunLogPath returns the run database path ("" disables).
func (c *RunConfig) GetRunLogPath() string {
	if c.RunLogPath == nil {
		return ""
	}
	return *c.RunLogPath
}
