// Package journal persists one summary record per generation of an
// evolutionary run.
package journal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Record summarises one completed generation.
type Record struct {
	RunID      string    `json:"run_id"`
	Generation int       `json:"generation"`
	Time       time.Time `json:"time"`

	BestGenomeID int     `json:"best_genome_id"`
	BestFitness  float64 `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	StdevFitness float64 `json:"stdev_fitness"`

	PopulationSize int `json:"population_size"`
	Evaluated      int `json:"evaluated"`
	Species        int `json:"species"`
	// SinceImprovement counts generations since the best fitness last improved.
	SinceImprovement int `json:"since_improvement"`
	// ArchiveCoverage holds the filled-cell fraction of each MAP-Elites archive.
	ArchiveCoverage []float64 `json:"archive_coverage"`
}

// Store saves and lists generation records.
type Store interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, rec Record) error
	// Records returns the records of a run ordered by generation.
	Records(ctx context.Context, runID string) ([]Record, error)
	Close() error
}

// NewStore creates a store of the given kind ("memory" or "sqlite"). The
// store must still be initialised with Init.
func NewStore(kind, sqlitePath string, logger *zap.Logger) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath, logger), nil
	default:
		return nil, fmt.Errorf("unsupported journal backend: %s", kind)
	}
}
