package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/pegasus-osint/pegasus-bazooka/internal/db"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// recordColumns is the COPY column order for bulk record loading.
var recordColumns = []string{
	"run_id", "position", "source", "source_id", "latitude", "longitude",
	"timestamp", "title", "caption", "url", "distance_km", "raw",
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	query      JSONB NOT NULL,
	status     TEXT NOT NULL,
	stats      JSONB NOT NULL DEFAULT '{}',
	failures   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS records (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	source      TEXT NOT NULL,
	source_id   TEXT NOT NULL,
	latitude    DOUBLE PRECISION NOT NULL,
	longitude   DOUBLE PRECISION NOT NULL,
	timestamp   TIMESTAMPTZ,
	title       TEXT NOT NULL DEFAULT '',
	caption     TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
	raw         JSONB,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_records_source ON records(source, source_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run, records []model.GeoRecord) error {
	queryJSON, err := json.Marshal(run.Query)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal query")
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}
	failuresJSON, err := json.Marshal(run.Failures)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal failures")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, query, status, stats, failures, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, queryJSON, string(run.Status), statsJSON, failuresJSON, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}

	rows := make([][]any, 0, len(records))
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
		rows = append(rows, []any{
			run.ID, i, string(rec.Source), rec.ID, rec.Latitude, rec.Longitude,
			ts, rec.Title, rec.Caption, rec.URL, rec.DistanceKM, rawJSON,
		})
	}

	if _, err := db.CopyFrom(ctx, s.pool, "records", recordColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: copy records for run %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, query, status, stats, failures, created_at FROM runs WHERE id = $1`, runID)
	run, err := scanPgRun(row.Scan)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "%s", runID)
	}
	return run, err
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, query, status, stats, failures, created_at FROM runs`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPgRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) GetRecords(ctx context.Context, runID string) ([]model.GeoRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source, source_id, latitude, longitude, timestamp, title, caption, url, distance_km, raw
		 FROM records WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get records for run %s", runID)
	}
	defer rows.Close()

	var records []model.GeoRecord
	for rows.Next() {
		var rec model.GeoRecord
		var src string
		var ts *time.Time
		var raw []byte
		if err := rows.Scan(&src, &rec.ID, &rec.Latitude, &rec.Longitude, &ts, &rec.Title, &rec.Caption, &rec.URL, &rec.DistanceKM, &raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec.Source = model.Source(src)
		if ts != nil {
			t := ts.UTC()
			rec.Timestamp = &t
		}
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &rec.Raw); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal raw payload")
			}
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func scanPgRun(scan func(...any) error) (*model.Run, error) {
	var run model.Run
	var status string
	var queryJSON, statsJSON, failuresJSON []byte
	var createdAt time.Time

	if err := scan(&run.ID, &queryJSON, &status, &statsJSON, &failuresJSON, &createdAt); err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	run.Status = model.RunStatus(status)
	run.CreatedAt = createdAt.UTC()
	if err := json.Unmarshal(queryJSON, &run.Query); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal query")
	}
	if err := json.Unmarshal(statsJSON, &run.Stats); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal stats")
	}
	if len(failuresJSON) > 0 && string(failuresJSON) != "null" {
		if err := json.Unmarshal(failuresJSON, &run.Failures); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal failures")
		}
	}
	return &run, nil
}
