package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// SQLiteStore writes records to a SQLite database through the pure-Go
// modernc driver.
type SQLiteStore struct {
	path   string
	logger *zap.Logger

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database file at path. Use
// ":memory:" for a throwaway database.
func NewSQLiteStore(path string, logger *zap.Logger) *SQLiteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{path: path, logger: logger}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	// A ":memory:" database exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.logger.Debug("journal opened", zap.String("path", s.path))
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	coverage, err := json.Marshal(rec.ArchiveCoverage)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (
			run_id, generation, recorded_at, best_genome_id, best_fitness, mean_fitness,
			stdev_fitness, population_size, evaluated, species, since_improvement, archive_coverage
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			recorded_at = excluded.recorded_at,
			best_genome_id = excluded.best_genome_id,
			best_fitness = excluded.best_fitness,
			mean_fitness = excluded.mean_fitness,
			stdev_fitness = excluded.stdev_fitness,
			population_size = excluded.population_size,
			evaluated = excluded.evaluated,
			species = excluded.species,
			since_improvement = excluded.since_improvement,
			archive_coverage = excluded.archive_coverage
	`, rec.RunID, rec.Generation, rec.Time.UTC().UnixNano(), rec.BestGenomeID, rec.BestFitness,
		rec.MeanFitness, rec.StdevFitness, rec.PopulationSize, rec.Evaluated, rec.Species,
		rec.SinceImprovement, string(coverage))
	if err != nil {
		return fmt.Errorf("append generation %d of run %s: %w", rec.Generation, rec.RunID, err)
	}
	return nil
}

func (s *SQLiteStore) Records(ctx context.Context, runID string) ([]Record, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, recorded_at, best_genome_id, best_fitness, mean_fitness, stdev_fitness,
			population_size, evaluated, species, since_improvement, archive_coverage
		FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec := Record{RunID: runID}
		var recordedAt int64
		var coverage string
		if err := rows.Scan(&rec.Generation, &recordedAt, &rec.BestGenomeID, &rec.BestFitness,
			&rec.MeanFitness, &rec.StdevFitness, &rec.PopulationSize, &rec.Evaluated, &rec.Species,
			&rec.SinceImprovement, &coverage); err != nil {
			return nil, err
		}
		rec.Time = time.Unix(0, recordedAt).UTC()
		if err := json.Unmarshal([]byte(coverage), &rec.ArchiveCoverage); err != nil {
			return nil, fmt.Errorf("decode archive coverage of generation %d: %w", rec.Generation, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL,
			best_genome_id INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			stdev_fitness REAL NOT NULL,
			population_size INTEGER NOT NULL,
			evaluated INTEGER NOT NULL,
			species INTEGER NOT NULL,
			since_improvement INTEGER NOT NULL,
			archive_coverage TEXT NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
