package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pegasus-osint/pegasus-bazooka/internal/export"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
	"github.com/pegasus-osint/pegasus-bazooka/internal/pipeline"
	"github.com/pegasus-osint/pegasus-bazooka/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, err := initEngine()
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(engine, st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("api server listening", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

// searchRequest is the POST /api/search payload.
type searchRequest struct {
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	RadiusKM   float64  `json:"radius_km"`
	Keyword    string   `json:"keyword"`
	Since      string   `json:"since"`
	Until      string   `json:"until"`
	Sources    []string `json:"sources"`
	MaxResults int      `json:"max_results"`
}

func newRouter(engine *pipeline.Engine, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeAPIJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/search", func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		q, err := queryFromRequest(&req)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}

		run, records, err := engine.Search(r.Context(), q)
		if err != nil {
			status := http.StatusBadGateway
			if run == nil {
				status = http.StatusBadRequest
			}
			writeAPIError(w, status, err.Error())
			return
		}

		if err := st.SaveRun(r.Context(), run, records); err != nil {
			zap.L().Error("failed to persist run", zap.Error(err))
		}

		writeAPIJSON(w, http.StatusOK, map[string]any{
			"run":     run,
			"records": records,
		})
	})

	r.Get("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		runs, err := st.ListRuns(r.Context(), store.RunFilter{Limit: 50})
		if err != nil {
			writeAPIError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeAPIJSON(w, http.StatusOK, runs)
	})

	r.Get("/api/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		run, err := st.GetRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeAPIError(w, http.StatusNotFound, "run not found")
			return
		}
		writeAPIJSON(w, http.StatusOK, run)
	})

	r.Get("/api/runs/{id}/records", func(w http.ResponseWriter, r *http.Request) {
		records, err := st.GetRecords(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeAPIError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeAPIJSON(w, http.StatusOK, records)
	})

	r.Get("/api/runs/{id}/geojson", func(w http.ResponseWriter, r *http.Request) {
		records, err := st.GetRecords(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeAPIError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		if err := export.WriteGeoJSON(w, records); err != nil {
			zap.L().Error("geojson encode failed", zap.Error(err))
		}
	})

	return r
}

func queryFromRequest(req *searchRequest) (*model.QuerySpec, error) {
	q := &model.QuerySpec{
		Keyword:    req.Keyword,
		RadiusKM:   req.RadiusKM,
		MaxResults: req.MaxResults,
	}
	if req.Latitude != nil && req.Longitude != nil {
		q.Center = &model.LatLng{Lat: *req.Latitude, Lng: *req.Longitude}
		if q.RadiusKM <= 0 {
			q.RadiusKM = float64(cfg.Search.DefaultRadiusKM)
		}
	}
	if q.MaxResults <= 0 {
		q.MaxResults = cfg.Search.MaxResults
	}
	if req.Since != "" {
		start, err := time.Parse("2006-01-02", req.Since)
		if err != nil {
			return nil, err
		}
		q.Start = &start
	}
	if req.Until != "" {
		end, err := time.Parse("2006-01-02", req.Until)
		if err != nil {
			return nil, err
		}
		q.End = &end
	}
	for _, name := range req.Sources {
		src, err := model.ParseSource(name)
		if err != nil {
			return nil, err
		}
		q.Sources = append(q.Sources, src)
	}
	return q, q.Validate()
}

func writeAPIJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("response encode failed", zap.Error(err))
	}
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	writeAPIJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
