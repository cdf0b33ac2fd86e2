// Package store persists trace records to a SQLite database so runs can be
// compared after the fact.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration

	"process_trace/internal/monitor"
)

// Store records samples grouped into runs. One run is one (target, pid)
// pair within one trace invocation; runs are created lazily on the first
// record for the pair.
type Store struct {
	db       *sql.DB
	interval time.Duration

	mu   sync.Mutex
	runs map[string]int64
}

// Open opens or creates a trace database at path. interval is recorded on
// every run this store creates.
func Open(path string, interval time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:       db,
		interval: interval,
		runs:     make(map[string]int64),
	}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			target           TEXT NOT NULL,
			pid              INTEGER NOT NULL,
			started_at       TEXT NOT NULL,
			interval_seconds REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS samples (
			run_id              INTEGER NOT NULL REFERENCES runs(id),
			ts_offset           INTEGER NOT NULL,
			pss_kb              INTEGER NOT NULL,
			vm_rss_kb           INTEGER NOT NULL,
			rss_anon_kb         INTEGER NOT NULL,
			rss_file_kb         INTEGER NOT NULL,
			rss_shmem_kb        INTEGER NOT NULL,
			vm_swap_kb          INTEGER NOT NULL,
			vol_ctxt_switches   INTEGER NOT NULL,
			nonvol_ctxt_switches INTEGER NOT NULL,
			minflt              INTEGER NOT NULL,
			majflt              INTEGER NOT NULL,
			utime_seconds       REAL NOT NULL,
			stime_seconds       REAL NOT NULL,
			cpu_seconds         REAL NOT NULL,
			global_cpu_seconds  REAL NOT NULL,
			cpu_occupancy       REAL NOT NULL,
			priority            INTEGER NOT NULL,
			nice                INTEGER NOT NULL,
			num_threads         INTEGER NOT NULL,
			start_time          INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_samples_run ON samples(run_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// HandleRecord implements monitor.SampleHandler.
func (s *Store) HandleRecord(target string, pid int, rec *monitor.Record) error {
	runID, err := s.runID(target, pid)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO samples (
			run_id, ts_offset, pss_kb, vm_rss_kb, rss_anon_kb, rss_file_kb,
			rss_shmem_kb, vm_swap_kb, vol_ctxt_switches, nonvol_ctxt_switches,
			minflt, majflt, utime_seconds, stime_seconds, cpu_seconds,
			global_cpu_seconds, cpu_occupancy, priority, nice, num_threads,
			start_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.TimeOffset, rec.PssKB, rec.VmRSSKB, rec.RssAnonKB,
		rec.RssFileKB, rec.RssShmemKB, rec.VmSwapKB,
		rec.VoluntaryCtxtSwitches, rec.NonvoluntaryCtxtSwitches,
		rec.MinFlt, rec.MajFlt, rec.UTime, rec.STime, rec.TotalCPUTime,
		rec.GlobalTotalCPUTime, rec.CPUOccupancy, rec.Priority, rec.Nice,
		rec.NumThreads, rec.StartTimeTicks)
	if err != nil {
		return fmt.Errorf("inserting sample for %s: %w", target, err)
	}
	return nil
}

// runID returns the run for a (target, pid) pair, creating it on first use.
func (s *Store) runID(target string, pid int) (int64, error) {
	key := fmt.Sprintf("%s|%d", target, pid)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.runs[key]; ok {
		return id, nil
	}

	res, err := s.db.Exec(`
		INSERT INTO runs (target, pid, started_at, interval_seconds)
		VALUES (?, ?, ?, ?)`,
		target, pid, time.Now().UTC().Format(time.RFC3339), s.interval.Seconds())
	if err != nil {
		return 0, fmt.Errorf("creating run for %s: %w", target, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("creating run for %s: %w", target, err)
	}

	s.runs[key] = id
	return id, nil
}

// RunSummary describes one recorded run.
type RunSummary struct {
	ID              int64
	Target          string
	PID             int
	StartedAt       time.Time
	IntervalSeconds float64
	Samples         int
}

// RunSummaries lists all runs in the database, newest first.
func (s *Store) RunSummaries() ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.target, r.pid, r.started_at, r.interval_seconds,
		       COUNT(s.run_id)
		FROM runs r
		LEFT JOIN samples s ON s.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var sum RunSummary
		var startedAt string
		if err := rows.Scan(&sum.ID, &sum.Target, &sum.PID, &startedAt,
			&sum.IntervalSeconds, &sum.Samples); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		sum.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing run start time %q: %w", startedAt, err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}
	return summaries, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// ErrNoDatabase is returned by ListRuns when the database file is missing.
var ErrNoDatabase = errors.New("trace database does not exist")

// ListRuns returns the run summaries of an existing trace database. Unlike
// Open it refuses to create the file.
func ListRuns(path string) ([]RunSummary, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDatabase, path)
	}

	s, err := Open(path, 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.Close()
	}()

	return s.RunSummaries()
}
