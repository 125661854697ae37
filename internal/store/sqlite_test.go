package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRun(id string, status model.RunStatus) *model.Run {
	return &model.Run{
		ID:     id,
		Query:  model.QuerySpec{Keyword: "bridge"},
		Status: status,
		Stats: model.RunStats{
			PerSource: map[model.Source]model.SourceStats{
				model.SourceFlickr: {Fetched: 2},
			},
			Returned: 2,
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func testRecords() []model.GeoRecord {
	when := time.Date(2025, 8, 27, 12, 0, 0, 0, time.UTC)
	return []model.GeoRecord{
		{
			Source:    model.SourceFlickr,
			ID:        "53001",
			Latitude:  59.9343,
			Longitude: 30.3351,
			Timestamp: &when,
			Title:     "old bridge",
			URL:       "https://www.flickr.com/photos/u/53001",
			Raw:       model.RawRecord{"owner": "u"},
		},
		{
			Source:    model.SourceWikipedia,
			ID:        "42",
			Latitude:  48.85,
			Longitude: 2.29,
			Caption:   "a bridge article",
		},
	}
}

func TestSQLite_SaveAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := testRun("run-1", model.RunStatusComplete)
	require.NoError(t, st.SaveRun(ctx, run, testRecords()))

	got, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, "bridge", got.Query.Keyword)
	assert.Equal(t, 2, got.Stats.PerSource[model.SourceFlickr].Fetched)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_GetRecords_OrderAndFields(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveRun(ctx, testRun("run-1", model.RunStatusComplete), testRecords()))

	records, err := st.GetRecords(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "53001", records[0].ID)
	assert.Equal(t, model.SourceFlickr, records[0].Source)
	require.NotNil(t, records[0].Timestamp)
	assert.Equal(t, 2025, records[0].Timestamp.Year())
	assert.Equal(t, "u", records[0].Raw["owner"])

	assert.Equal(t, "42", records[1].ID)
	assert.Nil(t, records[1].Timestamp)
}

func TestSQLite_ListRuns_FilterAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	older := testRun("run-old", model.RunStatusComplete)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, st.SaveRun(ctx, older, nil))

	newer := testRun("run-new", model.RunStatusPartial)
	require.NoError(t, st.SaveRun(ctx, newer, nil))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "run-new", all[0].ID) // newest first

	partial, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusPartial})
	require.NoError(t, err)
	require.Len(t, partial, 1)
	assert.Equal(t, "run-new", partial[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_SaveRun_DuplicateID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveRun(ctx, testRun("run-1", model.RunStatusComplete), nil))
	err := st.SaveRun(ctx, testRun("run-1", model.RunStatusComplete), nil)
	require.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_SQLiteDefault(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "open.db")
	st, err := Open(context.Background(), config.StoreConfig{DatabaseURL: dbPath})
	require.NoError(t, err)
	require.NoError(t, st.Close())
}
