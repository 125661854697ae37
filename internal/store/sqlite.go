package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "pegasus.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	status     TEXT NOT NULL,
	stats      TEXT NOT NULL DEFAULT '{}',
	failures   TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS records (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	source      TEXT NOT NULL,
	source_id   TEXT NOT NULL,
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	timestamp   DATETIME,
	title       TEXT NOT NULL DEFAULT '',
	caption     TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	distance_km REAL NOT NULL DEFAULT 0,
	raw         TEXT,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_records_source ON records(source, source_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run, records []model.GeoRecord) error {
	queryJSON, err := json.Marshal(run.Query)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal query")
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}
	failuresJSON, err := json.Marshal(run.Failures)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal failures")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, status, stats, failures, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, string(queryJSON), string(run.Status), string(statsJSON), string(failuresJSON), run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, position, source, source_id, latitude, longitude, timestamp, title, caption, url, distance_km, raw)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare record insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i := range records {
		rec := &records[i]
		rawJSON, err := rec.MarshalRaw()
		if err != nil {
			return err
		}
		var ts any
		if rec.Timestamp != nil {
			ts = rec.Timestamp.UTC()
		}
		_, err = stmt.ExecContext(ctx,
			run.ID, i, string(rec.Source), rec.ID, rec.Latitude, rec.Longitude,
			ts, rec.Title, rec.Caption, rec.URL, rec.DistanceKM, string(rawJSON),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert record %d for run %s", i, run.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, status, stats, failures, created_at FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row.Scan)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "%s", runID)
	}
	return run, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, query, status, stats, failures, created_at FROM runs`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) GetRecords(ctx context.Context, runID string) ([]model.GeoRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, source_id, latitude, longitude, timestamp, title, caption, url, distance_km, raw
		 FROM records WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get records for run %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var records []model.GeoRecord
	for rows.Next() {
		var rec model.GeoRecord
		var src string
		var ts sql.NullTime
		var raw sql.NullString
		if err := rows.Scan(&src, &rec.ID, &rec.Latitude, &rec.Longitude, &ts, &rec.Title, &rec.Caption, &rec.URL, &rec.DistanceKM, &raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		rec.Source = model.Source(src)
		if ts.Valid {
			t := ts.Time.UTC()
			rec.Timestamp = &t
		}
		if raw.Valid && raw.String != "" && raw.String != "null" {
			if err := json.Unmarshal([]byte(raw.String), &rec.Raw); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal raw payload")
			}
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

// scanRun decodes one runs row via the given Scan function, shared by
// GetRun and ListRuns.
func scanRun(scan func(...any) error) (*model.Run, error) {
	var run model.Run
	var status, queryJSON, statsJSON string
	var failuresJSON sql.NullString
	var createdAt time.Time

	if err := scan(&run.ID, &queryJSON, &status, &statsJSON, &failuresJSON, &createdAt); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "store: scan run")
	}

	run.Status = model.RunStatus(status)
	run.CreatedAt = createdAt.UTC()
	if err := json.Unmarshal([]byte(queryJSON), &run.Query); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal query")
	}
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal stats")
	}
	if failuresJSON.Valid && failuresJSON.String != "" && failuresJSON.String != "null" {
		if err := json.Unmarshal([]byte(failuresJSON.String), &run.Failures); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal failures")
		}
	}
	return &run, nil
}
