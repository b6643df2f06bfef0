package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/landrank/internal/export"
	"github.com/sells-group/landrank/internal/geo"
	"github.com/sells-group/landrank/internal/model"
	"github.com/sells-group/landrank/internal/scorer"
	"github.com/sells-group/landrank/internal/store"
)

// Map view headers set on /api/map responses.
const (
	headerCenterLat = "X-Map-Center-Lat"
	headerCenterLon = "X-Map-Center-Lon"
	headerZoom      = "X-Map-Zoom"
	headerStyle     = "X-Map-Style"
)

type optionsResponse struct {
	Styles         []string           `json:"styles"`
	ColorFields    []string           `json:"color_fields"`
	DefaultWeights map[string]float64 `json:"default_weights"`
	OnlyAvailable  bool               `json:"only_available"`
	TopN           int                `json:"top_n"`
	Style          string             `json:"style"`
	ColorBy        string             `json:"color_by"`
}

type parcelsResponse struct {
	Table               export.Table         `json:"table"`
	Parcels             []model.RankedParcel `json:"parcels"`
	NormalizedWeights   map[string]float64   `json:"normalized_weights"`
	AvailabilityApplied bool                 `json:"availability_applied"`
	DroppedInvalidDates int                  `json:"dropped_invalid_dates"`
	DroppedUpcoming     int                  `json:"dropped_upcoming"`
	Warnings            []scorer.Warning     `json:"warnings"`
}

type summaryResponse struct {
	Summary   model.Summary           `json:"summary"`
	Formatted export.FormattedSummary `json:"formatted"`
	Warnings  []scorer.Warning        `json:"warnings"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, optionsResponse{
		Styles:         geo.Styles,
		ColorFields:    geo.ColorFields,
		DefaultWeights: scorer.WeightsFromConfig(s.cfg.Scoring),
		OnlyAvailable:  s.cfg.Scoring.OnlyAvailable,
		TopN:           s.cfg.Scoring.TopN,
		Style:          s.cfg.Map.Style,
		ColorBy:        s.cfg.Map.ColorBy,
	})
}

func (s *Server) handleParcels(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.score(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, parcelsResponse{
		Table:               export.TopTable(res.Dataset, res.Top),
		Parcels:             model.RankedFromParcels(res.Top),
		NormalizedWeights:   res.NormalizedWeights,
		AvailabilityApplied: res.AvailabilityApplied,
		DroppedInvalidDates: res.DroppedInvalidDates,
		DroppedUpcoming:     res.DroppedUpcoming,
		Warnings:            nonNil(res.Warnings),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.score(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:   res.Summary,
		Formatted: export.FormatSummary(res.Summary),
		Warnings:  nonNil(res.Warnings),
	})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.score(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := geo.Options{
		Style:    firstNonEmpty(q.Get("style"), s.cfg.Map.Style),
		ColorBy:  firstNonEmpty(q.Get("color"), s.cfg.Map.ColorBy),
		Zoom:     s.cfg.Map.Zoom,
		Fallback: geo.Center{Lat: s.cfg.Map.CenterLat, Lon: s.cfg.Map.CenterLon},
	}

	m, warnings, err := geo.BuildMap(res.Dataset, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	scorer.LogWarnings(warnings)

	h := w.Header()
	h.Set(headerCenterLat, strconv.FormatFloat(m.Center.Lat, 'f', -1, 64))
	h.Set(headerCenterLon, strconv.FormatFloat(m.Center.Lon, 'f', -1, 64))
	h.Set(headerZoom, strconv.Itoa(m.Zoom))
	h.Set(headerStyle, m.Style)

	if m.Empty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := m.WriteGeoJSON(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.score(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, res.Dataset, res.Ranked); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleInvalidate(w http.ResponseWriter, _ *http.Request) {
	dropped := s.data.Invalidate(s.source)
	zap.L().Info("dataset cache invalidated", zap.String("source", s.source), zap.Bool("dropped", dropped))
	writeJSON(w, http.StatusOK, map[string]bool{"invalidated": dropped})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	res, opts, ok := s.score(w, r)
	if !ok {
		return
	}

	run := res.ToRun(uuid.NewString(), opts.Weights, opts.OnlyAvailable, s.now().UTC())
	if err := s.store.SaveRun(r.Context(), &run); err != nil {
		zap.L().Error("save run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save run")
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := parseCount(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("get run failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// score loads the dataset and runs the engine with the request's options.
// On failure it writes the error response and reports false.
func (s *Server) score(w http.ResponseWriter, r *http.Request) (*scorer.Result, scorer.Options, bool) {
	opts, err := s.scoringOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, opts, false
	}

	ds, err := s.data.Get(r.Context(), s.source)
	if err != nil {
		zap.L().Error("dataset load failed", zap.String("source", s.source), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load dataset: "+err.Error())
		return nil, opts, false
	}

	res, err := scorer.Run(ds, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, opts, false
	}
	return res, opts, true
}

// scoringOptions reads weights, the availability toggle and the top-N cut
// from the query string, falling back to the configured defaults.
func (s *Server) scoringOptions(r *http.Request) (scorer.Options, error) {
	q := r.URL.Query()

	opts := scorer.DefaultOptions()
	opts.Weights = scorer.WeightsFromConfig(s.cfg.Scoring)
	opts.OnlyAvailable = s.cfg.Scoring.OnlyAvailable
	opts.TopN = s.cfg.Scoring.TopN
	opts.Today = s.now()

	for _, comp := range opts.Catalogue {
		key := strings.ToLower(comp.Name)
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, eris.Errorf("invalid %s weight %q", key, raw)
		}
		opts.Weights[comp.Name] = v
	}

	if raw := q.Get("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, eris.Errorf("invalid available flag %q", raw)
		}
		opts.OnlyAvailable = v
	}

	if raw := q.Get("top"); raw != "" {
		n, err := parseCount(raw, "top")
		if err != nil {
			return opts, err
		}
		opts.TopN = n
	}

	return opts, nil
}

// parseCount parses a non-negative integer query value; empty means 0.
func parseCount(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, eris.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

func nonNil(w []scorer.Warning) []scorer.Warning {
	if w == nil {
		return []scorer.Warning{}
	}
	return w
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
