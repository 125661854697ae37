package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
	"github.com/pegasus-osint/pegasus-bazooka/internal/store"
)

// stubStore serves canned runs for router tests.
type stubStore struct {
	runs    map[string]*model.Run
	records map[string][]model.GeoRecord
}

func (s *stubStore) SaveRun(_ context.Context, run *model.Run, records []model.GeoRecord) error {
	s.runs[run.ID] = run
	s.records[run.ID] = records
	return nil
}

func (s *stubStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	run, ok := s.runs[runID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return run, nil
}

func (s *stubStore) ListRuns(_ context.Context, _ store.RunFilter) ([]model.Run, error) {
	var out []model.Run
	for _, run := range s.runs {
		out = append(out, *run)
	}
	return out, nil
}

func (s *stubStore) GetRecords(_ context.Context, runID string) ([]model.GeoRecord, error) {
	return s.records[runID], nil
}

func (s *stubStore) Migrate(context.Context) error { return nil }
func (s *stubStore) Close() error                  { return nil }

func newStubStore() *stubStore {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &stubStore{
		runs: map[string]*model.Run{
			"run-1": {
				ID:        "run-1",
				Query:     model.QuerySpec{Keyword: "tower"},
				Status:    model.RunStatusComplete,
				Stats:     model.RunStats{Returned: 1},
				CreatedAt: ts,
			},
		},
		records: map[string][]model.GeoRecord{
			"run-1": {
				{Source: model.SourceFlickr, ID: "f1", Latitude: 48.8584, Longitude: 2.2945, Title: "tower", Timestamp: &ts},
			},
		},
	}
}

func TestRouter_Health(t *testing.T) {
	withTestConfig(t)
	handler := newRouter(nil, newStubStore())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestRouter_GetRun(t *testing.T) {
	withTestConfig(t)
	handler := newRouter(nil, newStubStore())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var run model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, model.RunStatusComplete, run.Status)
}

func TestRouter_GetRun_NotFound(t *testing.T) {
	withTestConfig(t)
	handler := newRouter(nil, newStubStore())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_RunGeoJSON(t *testing.T) {
	withTestConfig(t)
	handler := newRouter(nil, newStubStore())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs/run-1/geojson", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/geo+json", rr.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	// GeoJSON positions are lon-first.
	assert.InDelta(t, 2.2945, fc.Features[0].Geometry.Coordinates[0], 0.0001)
	assert.InDelta(t, 48.8584, fc.Features[0].Geometry.Coordinates[1], 0.0001)
}

func TestRouter_SearchBadBody(t *testing.T) {
	withTestConfig(t)
	handler := newRouter(nil, newStubStore())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
