package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresWithPool(mock), mock
}

func TestPostgres_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, query, status, stats, failures, created_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2025, 8, 27, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, query, status, stats, failures, created_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "query", "status", "stats", "failures", "created_at"}).
			AddRow("run-1", []byte(`{"keyword":"bridge"}`), "complete", []byte(`{"returned":3}`), []byte(`null`), created))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "bridge", run.Query.Keyword)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, 3, run.Stats.Returned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	run := testRun("run-1", model.RunStatusComplete)
	records := testRecords()

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(run.ID, pgxmock.AnyArg(), string(run.Status), pgxmock.AnyArg(), pgxmock.AnyArg(), run.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"records"}, recordColumns).
		WillReturnResult(int64(len(records)))

	require.NoError(t, s.SaveRun(context.Background(), run, records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListRuns_StatusFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2025, 8, 27, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, query, status, stats, failures, created_at FROM runs WHERE status = \$1 ORDER BY created_at DESC`).
		WithArgs("partial").
		WillReturnRows(pgxmock.NewRows([]string{"id", "query", "status", "stats", "failures", "created_at"}).
			AddRow("run-2", []byte(`{"keyword":"bridge"}`), "partial", []byte(`{}`), []byte(`[{"source":"twitter","reason":"timeout"}]`), created))

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusPartial})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Len(t, runs[0].Failures, 1)
	assert.Equal(t, model.SourceTwitter, runs[0].Failures[0].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	when := time.Date(2025, 8, 27, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT source, source_id, latitude, longitude, timestamp, title, caption, url, distance_km, raw`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"source", "source_id", "latitude", "longitude", "timestamp", "title", "caption", "url", "distance_km", "raw"}).
			AddRow("flickr", "53001", 59.9343, 30.3351, &when, "old bridge", "", "https://example.com", 1.2, []byte(`{"owner":"u"}`)).
			AddRow("wikipedia", "42", 48.85, 2.29, (*time.Time)(nil), "", "a bridge article", "", 0.0, []byte(`null`)))

	records, err := s.GetRecords(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.SourceFlickr, records[0].Source)
	require.NotNil(t, records[0].Timestamp)
	assert.Equal(t, "u", records[0].Raw["owner"])
	assert.Nil(t, records[1].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}
