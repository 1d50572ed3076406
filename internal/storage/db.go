package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

// Measurement is a cached header probe for one library file. Error holds
// the failure reason when Width and Height are zero.
type Measurement struct {
	Path       string `json:"path"`
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FileSize   int64  `json:"file_size"`
	ModTime    int64  `json:"mod_time"`
	MeasuredAt int64  `json:"measured_at"`
	Error      string `json:"error,omitempty"`
}

// Fresh reports whether m still describes a file with the given size and
// modification time.
func (m *Measurement) Fresh(size, modTime int64) bool {
	return m.FileSize == size && m.ModTime == modTime
}

type ScanRun struct {
	ID         string `json:"id"`
	Root       string `json:"root"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at,omitempty"`
	Files      int    `json:"files"`
	Measured   int    `json:"measured"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "imghead.db")
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS measurements (
		path TEXT PRIMARY KEY,
		format TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		file_size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		measured_at INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS scan_runs (
		id CHAR(36) PRIMARY KEY,
		root TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL DEFAULT 0,
		files INTEGER NOT NULL DEFAULT 0,
		measured INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_measurements_measured ON measurements(measured_at);
	CREATE INDEX IF NOT EXISTS idx_measurements_format ON measurements(format);
	CREATE INDEX IF NOT EXISTS idx_scan_runs_started ON scan_runs(started_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) UpsertMeasurement(m *Measurement) error {
	_, err := db.conn.Exec(`
		INSERT INTO measurements (path, format, width, height, file_size, mod_time, measured_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			format = excluded.format,
			width = excluded.width,
			height = excluded.height,
			file_size = excluded.file_size,
			mod_time = excluded.mod_time,
			measured_at = excluded.measured_at,
			error = excluded.error`,
		m.Path, m.Format, m.Width, m.Height, m.FileSize, m.ModTime, m.MeasuredAt, m.Error)
	return err
}

func (db *DB) GetMeasurement(path string) (*Measurement, error) {
	m := &Measurement{}
	err := db.conn.QueryRow(`
		SELECT path, format, width, height, file_size, mod_time, measured_at, error
		FROM measurements WHERE path = ?`, path).Scan(
		&m.Path, &m.Format, &m.Width, &m.Height, &m.FileSize, &m.ModTime, &m.MeasuredAt, &m.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (db *DB) ListMeasurements(limit, offset int) ([]*Measurement, int, error) {
	var total int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM measurements").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.conn.Query(`
		SELECT path, format, width, height, file_size, mod_time, measured_at, error
		FROM measurements ORDER BY path LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*Measurement
	for rows.Next() {
		m := &Measurement{}
		if err := rows.Scan(&m.Path, &m.Format, &m.Width, &m.Height, &m.FileSize, &m.ModTime, &m.MeasuredAt, &m.Error); err != nil {
			return nil, 0, err
		}
		list = append(list, m)
	}
	return list, total, rows.Err()
}

// ListPaths returns every cached path.
func (db *DB) ListPaths() ([]string, error) {
	rows, err := db.conn.Query("SELECT path FROM measurements")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (db *DB) DeleteMeasurement(path string) error {
	_, err := db.conn.Exec("DELETE FROM measurements WHERE path = ?", path)
	return err
}

// DeleteMeasurementsOlderThan removes rows measured before cutoff (unix
// seconds) and returns how many were removed.
func (db *DB) DeleteMeasurementsOlderThan(cutoff int64) (int64, error) {
	res, err := db.conn.Exec("DELETE FROM measurements WHERE measured_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountByFormat counts successfully measured rows per format name. Failed
// probes are counted under "failed".
func (db *DB) CountByFormat() (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT CASE WHEN error = '' THEN format ELSE 'failed' END AS bucket, COUNT(*)
		FROM measurements GROUP BY bucket`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

func (db *DB) InsertScanRun(run *ScanRun) error {
	_, err := db.conn.Exec(`
		INSERT INTO scan_runs (id, root, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Root, run.StartedAt)
	return err
}

func (db *DB) FinishScanRun(run *ScanRun) error {
	if run.FinishedAt == 0 {
		run.FinishedAt = time.Now().Unix()
	}
	_, err := db.conn.Exec(`
		UPDATE scan_runs SET finished_at = ?, files = ?, measured = ?, skipped = ?, failed = ?
		WHERE id = ?`,
		run.FinishedAt, run.Files, run.Measured, run.Skipped, run.Failed, run.ID)
	return err
}

func (db *DB) GetScanRun(id string) (*ScanRun, error) {
	run := &ScanRun{}
	err := db.conn.QueryRow(`
		SELECT id, root, started_at, finished_at, files, measured, skipped, failed
		FROM scan_runs WHERE id = ?`, id).Scan(
		&run.ID, &run.Root, &run.StartedAt, &run.FinishedAt, &run.Files, &run.Measured, &run.Skipped, &run.Failed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func (db *DB) LatestScanRun() (*ScanRun, error) {
	run := &ScanRun{}
	err := db.conn.QueryRow(`
		SELECT id, root, started_at, finished_at, files, measured, skipped, failed
		FROM scan_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(
		&run.ID, &run.Root, &run.StartedAt, &run.FinishedAt, &run.Files, &run.Measured, &run.Skipped, &run.Failed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func (db *DB) Close() error {
	return db.conn.Close()
}
