// Package store persists GPS fixes to two independent sinks: an
// append-only CSV file and a SQLite table. The sinks are best-effort
// projections of the same fix stream; a failure in one never rolls back
// the other.
package store

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/locness-lab/gpslogger/internal/gps"
)

// SinkError reports which sink a persist failure came from.
type SinkError struct {
	Sink string // "csv" or "sqlite"
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// Store fans each fix out to both sinks.
type Store struct {
	csv *csvSink
	db  *sqliteSink
	log zerolog.Logger
}

// Open initializes both sinks. Initialization is idempotent: an existing
// CSV file keeps its header and rows, an existing table keeps its rows.
func Open(csvPath, dbPath, table string, logger zerolog.Logger) (*Store, error) {
	csv, err := openCSV(csvPath)
	if err != nil {
		return nil, fmt.Errorf("init csv %s: %w", csvPath, err)
	}
	db, err := openSQLite(dbPath, table)
	if err != nil {
		_ = csv.close()
		return nil, fmt.Errorf("init sqlite %s: %w", dbPath, err)
	}
	return &Store{
		csv: csv,
		db:  db,
		log: logger.With().Str("module", "store").Logger(),
	}, nil
}

// Persist writes the fix to the CSV file and then to the SQLite table.
// Both sinks are attempted even if the first fails; the returned error
// names every sink that failed.
func (s *Store) Persist(fix gps.Fix) error {
	var errs []error
	if err := s.csv.append(fix); err != nil {
		errs = append(errs, &SinkError{Sink: "csv", Err: err})
	}
	if err := s.db.insert(fix); err != nil {
		errs = append(errs, &SinkError{Sink: "sqlite", Err: err})
	}
	if len(errs) == 0 {
		s.log.Info().
			Float64("lat", fix.Latitude).
			Float64("lon", fix.Longitude).
			Msg("logged fix")
	}
	return errors.Join(errs...)
}

// Latest returns the n most recent rows from the SQLite table.
func (s *Store) Latest(n int) ([]Row, error) {
	return queryLatest(s.db.db, s.db.table, n)
}

func (s *Store) Close() error {
	return errors.Join(s.csv.close(), s.db.close())
}
