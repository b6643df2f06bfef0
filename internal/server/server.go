// Package server exposes the ranking engine over a small JSON API for the
// dashboard front end.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/landrank/internal/config"
	"github.com/sells-group/landrank/internal/model"
	"github.com/sells-group/landrank/internal/store"
)

// DatasetSource returns a private copy of the dataset for src.
type DatasetSource interface {
	Get(ctx context.Context, src string) (*model.Dataset, error)
	Invalidate(src string) bool
}

// Server serves ranking results for a single configured dataset.
type Server struct {
	cfg    *config.Config
	source string
	data   DatasetSource
	store  store.Store // nil disables the run log endpoints
	now    func() time.Time
}

// New creates a Server. st may be nil.
func New(cfg *config.Config, source string, data DatasetSource, st store.Store) *Server {
	return &Server{
		cfg:    cfg,
		source: source,
		data:   data,
		store:  st,
		now:    time.Now,
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{headerCenterLat, headerCenterLon, headerZoom, headerStyle, "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Get("/parcels", s.handleParcels)
		r.Get("/summary", s.handleSummary)
		r.Get("/map", s.handleMap)
		r.Get("/export.csv", s.handleExportCSV)
		r.Post("/cache/invalidate", s.handleInvalidate)

		if s.store != nil {
			r.Get("/runs", s.handleListRuns)
			r.Post("/runs", s.handleCreateRun)
			r.Get("/runs/{id}", s.handleGetRun)
		}
	})

	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.cfg.Server.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.Server.CORSOrigins
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
