package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/landrank/internal/config"
	"github.com/sells-group/landrank/internal/export"
	"github.com/sells-group/landrank/internal/fetcher"
	"github.com/sells-group/landrank/internal/geo"
	"github.com/sells-group/landrank/internal/scorer"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score and rank land parcels",
	Long: `Load a parcel table, score every parcel, estimate its solar energy
impact and print the top-ranked parcels with a summary.

The score is a weighted sum of four components:
  Social     FuelPovertyIndex
  Technical  SolarIrradiance
  Economic   1000 / GridDistance
  Fairness   5 - ExistingProjects

Weights are rescaled over the components whose columns are present.
Parcels whose AvailableFrom year is still in the future are left out
unless --all is given.

Examples:
  # Rank a local CSV with default weights
  score --input parcels.csv

  # Emphasise fuel poverty, keep the top 25, export everything
  score --input parcels.xlsx --social 0.7 --top 25 --output ranked.xlsx

  # Load weights from a profile and write map layers
  score --input https://example.org/parcels.csv --profile social.yaml \
    --geojson parcels.geojson --shapefile parcels.shp

  # Record the run in the run log
  score --input parcels.csv --save`,
	RunE: runScore,
}

func init() {
	registerScoreFlags(scoreCmd)
	rootCmd.AddCommand(scoreCmd)
}

func registerScoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("input", "", "parcel table: local path, http(s):// or ftp:// URL (default from config)")
	f.Float64("social", 0, "Social weight in [0,1] (overrides config)")
	f.Float64("technical", 0, "Technical weight in [0,1] (overrides config)")
	f.Float64("economic", 0, "Economic weight in [0,1] (overrides config)")
	f.Float64("fairness", 0, "Fairness weight in [0,1] (overrides config)")
	f.String("profile", "", "YAML weight profile applied before flag overrides")
	f.Bool("all", false, "include parcels that are not yet available")
	f.Int("top", 0, "number of parcels to show (0=use config default)")
	f.String("color", "", "map color field (Score, FuelPovertyIndex, SolarIrradiance, GridDistance, Energy_kWh)")
	f.String("style", "", "map style recorded in map outputs")
	f.String("output", "", "write the full ranked table to a .csv or .xlsx file")
	f.String("geojson", "", "write the parcel map as GeoJSON")
	f.String("shapefile", "", "write the parcel map as a point shapefile")
	f.Bool("save", false, "save the run to the run log")
}

// weightFlags maps flag names to scoring components.
var weightFlags = map[string]string{
	"social":    scorer.Social,
	"technical": scorer.Technical,
	"economic":  scorer.Economic,
	"fairness":  scorer.Fairness,
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("score"); err != nil {
		return err
	}

	input, err := resolveInput(cmd)
	if err != nil {
		return err
	}

	opts, err := scoreOptions(cmd, cfg)
	if err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "score"), zap.String("input", input))

	ds, err := fetcher.LoadDataset(ctx, input, loadOptions(cfg))
	if err != nil {
		return eris.Wrap(err, "score: load dataset")
	}

	res, err := scorer.Run(ds, opts)
	if err != nil {
		return err
	}
	scorer.LogWarnings(res.Warnings)

	out := cmd.OutOrStdout()
	if err := printResult(out, res); err != nil {
		return err
	}

	paths := exportPaths{}
	paths.Output, _ = cmd.Flags().GetString("output")
	paths.GeoJSON, _ = cmd.Flags().GetString("geojson")
	paths.Shapefile, _ = cmd.Flags().GetString("shapefile")

	var m *geo.Map
	if paths.GeoJSON != "" || paths.Shapefile != "" {
		m, err = buildMap(cmd, res)
		if err != nil {
			return err
		}
	}

	if err := writeExports(ctx, res, m, paths); err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run := res.ToRun(uuid.NewString(), opts.Weights, opts.OnlyAvailable, time.Now().UTC())
		if err := st.SaveRun(ctx, &run); err != nil {
			return eris.Wrap(err, "score: save run")
		}
		log.Info("run saved", zap.String("run_id", run.ID))
		_, _ = fmt.Fprintf(out, "\nSaved run %s\n", run.ID)
	}

	return nil
}

// scoreOptions layers config defaults, an optional profile, and explicit
// flags, in that order.
func scoreOptions(cmd *cobra.Command, c *config.Config) (scorer.Options, error) {
	opts := scorer.DefaultOptions()
	opts.Weights = scorer.WeightsFromConfig(c.Scoring)
	opts.OnlyAvailable = c.Scoring.OnlyAvailable
	opts.TopN = c.Scoring.TopN

	flags := cmd.Flags()

	if path, _ := flags.GetString("profile"); path != "" {
		p, err := scorer.LoadProfile(path, opts.Catalogue)
		if err != nil {
			return opts, err
		}
		opts.Weights = p.Apply(opts.Weights)
		if p.OnlyAvailable != nil {
			opts.OnlyAvailable = *p.OnlyAvailable
		}
		zap.L().Debug("weight profile applied", zap.String("profile", p.Name))
	}

	for name, comp := range weightFlags {
		if flags.Changed(name) {
			v, _ := flags.GetFloat64(name)
			opts.Weights[comp] = v
		}
	}

	if all, _ := flags.GetBool("all"); all {
		opts.OnlyAvailable = false
	}
	if flags.Changed("top") {
		top, _ := flags.GetInt("top")
		if top < 0 {
			return opts, eris.Errorf("score: --top must be >= 0, got %d", top)
		}
		opts.TopN = top
	}

	if err := opts.Weights.Validate(opts.Catalogue); err != nil {
		return opts, err
	}
	return opts, nil
}

func printResult(out io.Writer, res *scorer.Result) error {
	if err := export.WriteTable(out, export.TopTable(res.Dataset, res.Top)); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "\n--- Summary ---")
	for _, line := range export.SummaryLines(res.Summary) {
		_, _ = fmt.Fprintln(out, line)
	}

	if len(res.Warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\n--- Warnings ---")
		for _, w := range res.Warnings {
			_, _ = fmt.Fprintf(out, "[%s] %s\n", w.Severity, w.Message)
		}
	}
	return nil
}

func buildMap(cmd *cobra.Command, res *scorer.Result) (*geo.Map, error) {
	color, _ := cmd.Flags().GetString("color")
	style, _ := cmd.Flags().GetString("style")

	m, warnings, err := geo.BuildMap(res.Dataset, geo.Options{
		Style:    firstNonEmpty(style, cfg.Map.Style),
		ColorBy:  firstNonEmpty(color, cfg.Map.ColorBy),
		Zoom:     cfg.Map.Zoom,
		Fallback: geo.Center{Lat: cfg.Map.CenterLat, Lon: cfg.Map.CenterLon},
	})
	if err != nil {
		return nil, err
	}
	scorer.LogWarnings(warnings)
	return m, nil
}

type exportPaths struct {
	Output    string
	GeoJSON   string
	Shapefile string
}

// writeExports writes every requested file concurrently. Map files are
// skipped when the map is empty.
func writeExports(ctx context.Context, res *scorer.Result, m *geo.Map, p exportPaths) error {
	g, _ := errgroup.WithContext(ctx)

	if p.Output != "" {
		g.Go(func() error {
			return writeRanked(p.Output, res)
		})
	}

	if (p.GeoJSON != "" || p.Shapefile != "") && m.Empty() {
		zap.L().Warn("map outputs skipped: no parcels to place",
			zap.String("geojson", p.GeoJSON),
			zap.String("shapefile", p.Shapefile),
		)
		return g.Wait()
	}

	if p.GeoJSON != "" {
		g.Go(func() error {
			return export.WriteFile(p.GeoJSON, m.WriteGeoJSON)
		})
	}
	if p.Shapefile != "" {
		g.Go(func() error {
			return m.WriteShapefile(p.Shapefile)
		})
	}

	return g.Wait()
}

func writeRanked(path string, res *scorer.Result) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return export.WriteCSVFile(path, res.Dataset, res.Ranked)
	case ".xlsx":
		return export.WriteXLSXFile(path, res.Dataset, res.Ranked)
	default:
		return eris.Errorf("score: unsupported output type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
