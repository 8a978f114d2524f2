// Package runlog persists solve-run diagnostics to a local sqlite database:
// one row per potential solve with grid shape, iteration counts, residuals
// and wall time, so convergence behavior can be compared across runs and
// tunings.
package runlog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the run database handle.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the run database at path and applies any
// pending migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run database: %w", err)
	}
	db := &DB{conn}
	if err := db.migrateUp(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	drv, err := sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	// Not closing m: that would close the shared DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SolveRun is one recorded potential solve.
type SolveRun struct {
	RunID      string
	StartedAt  time.Time
	NDims      int
	GridCells  string // "nx x ny x nz"
	Levels     int
	Particles  int
	Iterations int     // summed over levels
	Residual   float64 // worst level
	WallNanos  int64
	Converged  bool
}

// InsertSolveRun records one solve, assigning a fresh run id, and returns it.
func (db *DB) InsertSolveRun(r SolveRun) (string, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	_, err := db.Exec(`
		INSERT INTO solve_runs
			(run_id, started_at, ndims, grid_cells, levels, particles,
			 iterations, residual, wall_nanos, converged)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt.Format(time.RFC3339Nano), r.NDims, r.GridCells,
		r.Levels, r.Particles, r.Iterations, r.Residual, r.WallNanos, r.Converged,
	)
	if err != nil {
		return "", fmt.Errorf("insert solve run: %w", err)
	}
	return r.RunID, nil
}

// RecentSolveRuns returns the most recent runs, newest first.
func (db *DB) RecentSolveRuns(limit int) ([]SolveRun, error) {
	rows, err := db.Query(`
		SELECT run_id, started_at, ndims, grid_cells, levels, particles,
		       iterations, residual, wall_nanos, converged
		FROM solve_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query solve runs: %w", err)
	}
	defer rows.Close()
	var out []SolveRun
	for rows.Next() {
		var r SolveRun
		var ts string
		if err := rows.Scan(&r.RunID, &ts, &r.NDims, &r.GridCells, &r.Levels,
			&r.Particles, &r.Iterations, &r.Residual, &r.WallNanos, &r.Converged); err != nil {
			return nil, fmt.Errorf("scan solve run: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			r.StartedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
