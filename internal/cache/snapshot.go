package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Snapshots persists the last aggregation result per dataset so a
// restart can seed the in-memory store with stale entries instead of
// starting empty. Everything here is best-effort: the in-memory store
// is the source of truth and losing a snapshot only costs warm start.
type Snapshots struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func OpenSnapshots(dbPath string) (*Snapshots, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Snapshots{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Snapshots) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			dataset    TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			fetched_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Snapshots) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Save overwrites the snapshot for a dataset.
func (s *Snapshots) Save(dataset string, records []Record, fetchedAt time.Time) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding snapshot %s: %w", dataset, err)
	}
	_, err = s.writeDB.Exec(`
		INSERT INTO snapshots (dataset, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(dataset) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, dataset, string(payload), fetchedAt)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", dataset, err)
	}
	return nil
}

// Load returns the stored records for a dataset, or ok=false if none
// exists. A snapshot that fails to decode is treated as absent.
func (s *Snapshots) Load(dataset string) ([]Record, time.Time, bool) {
	var (
		payload   string
		fetchedAt time.Time
	)
	err := s.readDB.QueryRow(
		"SELECT payload, fetched_at FROM snapshots WHERE dataset = ?", dataset,
	).Scan(&payload, &fetchedAt)
	if err != nil {
		return nil, time.Time{}, false
	}

	var records []Record
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, time.Time{}, false
	}
	return records, fetchedAt, true
}

// Datasets lists the dataset keys with a stored snapshot.
func (s *Snapshots) Datasets() ([]string, error) {
	rows, err := s.readDB.Query("SELECT dataset FROM snapshots ORDER BY dataset")
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning snapshot key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Prune deletes snapshots older than the retention period and returns
// how many were removed.
func (s *Snapshots) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := s.writeDB.Exec("DELETE FROM snapshots WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns the snapshot count and database file size.
func (s *Snapshots) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting snapshots: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("statting db: %w", err)
	}
	return count, info.Size(), nil
}
