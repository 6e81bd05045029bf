// Package main runs an offline horizon forecast from a demand CSV and writes
// forecast.csv and FORECAST.md.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"uk-forecast-lab/internal/config"
	"uk-forecast-lab/internal/estimator"
	"uk-forecast-lab/internal/features"
	"uk-forecast-lab/internal/forecast"
	"uk-forecast-lab/internal/holiday"
	"uk-forecast-lab/internal/ingestion"
	"uk-forecast-lab/internal/reporting"
	"uk-forecast-lab/internal/series"
	"uk-forecast-lab/internal/storage"
	pgstore "uk-forecast-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	modelPath := flag.String("model", config.String("ELECTRICITY_MODEL", "models/electricity-demand.json"), "Electricity model file")
	seriesCSV := flag.String("series-csv", config.String("SERIES_CSV", "data/historic_demand.csv"), "Historical demand CSV")
	startFlag := flag.String("start", "", "First forecast instant, RFC3339 (default: one step after the series end)")
	hours := flag.Int("hours", 24, "Horizon length in hours")
	step := flag.Duration("step", time.Hour, "Step between forecast instants")
	timezone := flag.String("timezone", os.Getenv("TIMEZONE"), "Zone for naive CSV timestamps (default UTC)")
	featuresConfig := flag.String("features-config", os.Getenv("FEATURES_CONFIG"), "YAML feature definition (default built-in)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "Include recent served predictions from PostgreSQL (optional)")
	outputDir := flag.String("output-dir", "output", "Output directory for reports")

	flag.Parse()

	logger := log.New(os.Stdout, "[forecast] ", log.LstdFlags|log.Lshortfile)

	ctx := context.Background()
	if err := run(ctx, logger, runConfig{
		modelPath:      *modelPath,
		seriesCSV:      *seriesCSV,
		start:          *startFlag,
		hours:          *hours,
		step:           *step,
		timezone:       *timezone,
		featuresConfig: *featuresConfig,
		postgresDSN:    *postgresDSN,
		outputDir:      *outputDir,
	}); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

type runConfig struct {
	modelPath      string
	seriesCSV      string
	start          string
	hours          int
	step           time.Duration
	timezone       string
	featuresConfig string
	postgresDSN    string
	outputDir      string
}

func run(ctx context.Context, logger *log.Logger, cfg runConfig) error {
	if cfg.hours <= 0 || cfg.step <= 0 {
		return fmt.Errorf("--hours and --step must be positive")
	}
	loc, err := config.Location(cfg.timezone)
	if err != nil {
		return err
	}
	featureCfg, err := config.LoadFeatures(cfg.featuresConfig)
	if err != nil {
		return err
	}
	synth, err := features.NewSynthesizer(featureCfg)
	if err != nil {
		return err
	}

	model, err := estimator.LoadTreeEnsemble(cfg.modelPath)
	if err != nil {
		return err
	}
	registry := estimator.NewRegistry()
	if err := registry.Register(model); err != nil {
		return err
	}

	opts := ingestion.DefaultOptions()
	opts.Location = loc
	points, err := ingestion.NewCSVSource(cfg.seriesCSV, opts, logger).Load(ctx)
	if err != nil {
		return err
	}
	hist, err := series.New(points)
	if err != nil {
		return err
	}

	start, err := resolveStart(cfg.start, hist, cfg.step, loc)
	if err != nil {
		return err
	}

	svc, err := forecast.NewService(forecast.ServiceOptions{
		Snapshot:     series.NewSnapshot(hist),
		Calendar:     holiday.UK(),
		Synthesizer:  synth,
		Registry:     registry,
		DefaultModel: model.Name(),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	steps := int(time.Duration(cfg.hours) * time.Hour / cfg.step)
	if steps == 0 {
		return fmt.Errorf("--step %s is longer than %d hours", cfg.step, cfg.hours)
	}
	logger.Printf("Forecasting %d steps of %s from %s with %s@%s",
		steps, cfg.step, start.Format(time.RFC3339), model.Name(), model.Version())

	results, err := svc.Horizon(ctx, start, steps, cfg.step, "", "")
	if err != nil {
		return err
	}

	var records storage.PredictionStore
	if cfg.postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		records = pgstore.NewPredictionStore(pool)
	}

	report, err := reporting.NewGenerator(records).Generate(ctx, results, cfg.step)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	csvPath := filepath.Join(cfg.outputDir, "forecast.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Rows)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", csvPath, err)
	}
	mdPath := filepath.Join(cfg.outputDir, "FORECAST.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}

	logger.Printf("Peak %.0f MW at %s, mean %.0f MW; wrote %s and %s",
		report.Summary.Max, report.Summary.MaxAt.Format(time.RFC3339), report.Summary.Mean, csvPath, mdPath)
	return nil
}

// resolveStart parses --start, defaulting to one step after the last point.
// resolveStart returns the first forecast instant in loc, so calendar features
// and the report's peak hour use the configured timezone.
func resolveStart(value string, hist *series.Series, step time.Duration, loc *time.Location) (time.Time, error) {
	if value != "" {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
		return t.In(loc), nil
	}
	last, ok := hist.Last()
	if !ok {
		return time.Time{}, fmt.Errorf("series is empty")
	}
	return last.Time().Add(step).In(loc), nil
}
