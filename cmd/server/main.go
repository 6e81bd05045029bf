// Package main runs the prediction API: it loads the estimators and the
// historical demand series, serves HTTP, and reloads the series periodically.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"uk-forecast-lab/internal/api"
	"uk-forecast-lab/internal/config"
	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/estimator"
	"uk-forecast-lab/internal/features"
	"uk-forecast-lab/internal/forecast"
	"uk-forecast-lab/internal/holiday"
	"uk-forecast-lab/internal/ingestion"
	"uk-forecast-lab/internal/series"
	"uk-forecast-lab/internal/storage"
	chstore "uk-forecast-lab/internal/storage/clickhouse"
	"uk-forecast-lab/internal/storage/influx"
	"uk-forecast-lab/internal/storage/memory"
	"uk-forecast-lab/internal/storage/migrations"
	pgstore "uk-forecast-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	// Parse flags (env vars as defaults)
	httpAddr := flag.String("http-addr", config.String("HTTP_ADDR", ":8000"), "HTTP listen address")
	electricityModel := flag.String("electricity-model", config.String("ELECTRICITY_MODEL", "models/electricity-demand.json"), "Comma-separated electricity model files")
	housingModel := flag.String("housing-model", config.String("HOUSING_MODEL", "models/housing-price.json"), "Comma-separated housing model files (empty to disable)")
	seriesSource := flag.String("series-source", config.String("SERIES_SOURCE", "csv"), "Historical series source: csv, clickhouse, influx")
	seriesCSV := flag.String("series-csv", config.String("SERIES_CSV", "data/historic_demand.csv"), "Historical demand CSV (series-source=csv)")
	seriesLookback := flag.Duration("series-lookback", config.Duration("SERIES_LOOKBACK", 0), "Only load this much history from a warehouse (0 = all)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (empty for in-memory prediction records)")
	influxURL := flag.String("influxdb-url", os.Getenv("INFLUXDB_URL"), "InfluxDB URL")
	influxToken := flag.String("influxdb-token", os.Getenv("INFLUXDB_TOKEN"), "InfluxDB token")
	influxOrg := flag.String("influxdb-org", os.Getenv("INFLUXDB_ORG"), "InfluxDB organization")
	influxBucket := flag.String("influxdb-bucket", config.String("INFLUXDB_BUCKET", "demand"), "InfluxDB bucket")
	reloadInterval := flag.Duration("reload-interval", config.Duration("RELOAD_INTERVAL", 15*time.Minute), "Series reload interval (0 disables)")
	timezone := flag.String("timezone", os.Getenv("TIMEZONE"), "Zone for naive timestamps (default UTC)")
	featuresConfig := flag.String("features-config", os.Getenv("FEATURES_CONFIG"), "YAML feature definition (default built-in)")
	maxHorizon := flag.Int("max-horizon-hours", config.Int("MAX_HORIZON_HOURS", 0), "Longest accepted forecast horizon (0 = shortest rolling window)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	loc, err := config.Location(*timezone)
	if err != nil {
		logger.Fatalf("Invalid timezone: %v", err)
	}
	featureCfg, err := config.LoadFeatures(*featuresConfig)
	if err != nil {
		logger.Fatalf("Failed to load features config: %v", err)
	}
	synth, err := features.NewSynthesizer(featureCfg)
	if err != nil {
		logger.Fatalf("Failed to create synthesizer: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Estimators
	registry := estimator.NewRegistry()
	defaultModel, err := registerModels(registry, *electricityModel)
	if err != nil {
		logger.Fatalf("Failed to load electricity model: %v", err)
	}
	housingName := ""
	if *housingModel != "" {
		housingName, err = registerModels(registry, *housingModel)
		if err != nil {
			logger.Printf("Housing model unavailable, housing API disabled: %v", err)
			housingName = ""
		}
	}
	logger.Printf("Loaded models: %v", registry.Names())

	// Stores
	stores, cleanup, err := createStores(ctx, storeConfig{
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		seriesSource:  *seriesSource,
		influxURL:     *influxURL,
		influxToken:   *influxToken,
		influxOrg:     *influxOrg,
		influxBucket:  *influxBucket,
	})
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	calendar, err := loadCalendar(ctx, stores.holidays)
	if err != nil {
		logger.Fatalf("Failed to load holiday calendar: %v", err)
	}
	logger.Printf("Holiday calendar: %d dates", calendar.Len())

	// Historical series
	var source forecast.SeriesSource
	switch *seriesSource {
	case "csv":
		opts := ingestion.DefaultOptions()
		opts.Location = loc
		source = ingestion.NewCSVSource(*seriesCSV, opts, log.New(os.Stdout, "[reload] ", log.LstdFlags))
	case "clickhouse", "influx":
		source = storage.NewSeriesSource(stores.demand, *seriesLookback)
	default:
		logger.Fatalf("Unknown series source %q (csv, clickhouse, influx)", *seriesSource)
	}

	empty, _ := series.New(nil)
	snapshot := series.NewSnapshot(empty)
	reloader := forecast.NewReloader(source, snapshot, *reloadInterval, log.New(os.Stdout, "[reload] ", log.LstdFlags|log.Lshortfile))
	if err := reloader.Reload(ctx); err != nil {
		// Serve anyway; electricity predictions answer 503 until a reload succeeds
		logger.Printf("Initial series load failed: %v", err)
	}

	svc, err := forecast.NewService(forecast.ServiceOptions{
		Snapshot:     snapshot,
		Calendar:     calendar,
		Synthesizer:  synth,
		Registry:     registry,
		DefaultModel: defaultModel,
		HousingModel: housingName,
		Records:      stores.predictions,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create service: %v", err)
	}

	apiServer := api.NewServer(api.Options{
		Service:         svc,
		Location:        loc,
		Logger:          log.New(os.Stdout, "[api] ", log.LstdFlags),
		MaxHorizonHours: *maxHorizon,
	})
	httpServer := &http.Server{
		Addr:              *httpAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = run(ctx, httpServer, reloader, logger)
	close(done)
	if err != nil {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// run serves HTTP and reloads the series until ctx is cancelled.
func run(ctx context.Context, srv *http.Server, reloader *forecast.Reloader, logger *log.Logger) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Printf("Starting HTTP server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return reloader.Run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// registerModels loads every comma-separated model file into the registry and
// returns the name of the first one.
func registerModels(reg *estimator.Registry, paths string) (string, error) {
	var first string
	for _, path := range strings.Split(paths, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		m, err := estimator.LoadTreeEnsemble(path)
		if err != nil {
			return "", err
		}
		if err := reg.Register(m); err != nil {
			return "", err
		}
		if first == "" {
			first = m.Name()
		}
	}
	if first == "" {
		return "", errors.New("no model files given")
	}
	return first, nil
}

type storeConfig struct {
	postgresDSN   string
	clickhouseDSN string
	seriesSource  string
	influxURL     string
	influxToken   string
	influxOrg     string
	influxBucket  string
}

// allStores holds the storage implementations the server uses.
type allStores struct {
	predictions storage.PredictionStore
	holidays    storage.HolidayStore
	demand      storage.DemandSeriesStore // nil for series-source=csv
}

func createStores(ctx context.Context, cfg storeConfig) (*allStores, func(), error) {
	stores := &allStores{
		predictions: memory.NewPredictionStore(),
		holidays:    memory.NewHolidayStore(),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// PostgreSQL (prediction records + holidays)
	if cfg.postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.predictions = pgstore.NewPredictionStore(pool)
		stores.holidays = pgstore.NewHolidayStore(pool)
	}

	switch cfg.seriesSource {
	case "clickhouse":
		if cfg.clickhouseDSN == "" {
			cleanup()
			return nil, nil, errors.New("--clickhouse-dsn is required for series-source=clickhouse")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		stores.demand = chstore.NewDemandTimeseriesStore(conn)
	case "influx":
		client, err := influx.NewClient(ctx, cfg.influxURL, cfg.influxToken, cfg.influxOrg, cfg.influxBucket, 30*time.Second)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("influxdb: %w", err)
		}
		closers = append(closers, client.Close)
		stores.demand = influx.NewDemandTimeseriesStore(client)
	}

	return stores, cleanup, nil
}

// loadCalendar seeds an empty holiday store with the UK bank holidays and
// builds the calendar from its contents.
func loadCalendar(ctx context.Context, store storage.HolidayStore) (*holiday.Calendar, error) {
	stored, err := store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}

	if len(stored) == 0 {
		seed := holiday.UKBankHolidays()
		rows := make([]*domain.Holiday, len(seed))
		for i := range seed {
			rows[i] = &seed[i]
		}
		if err := store.InsertBulk(ctx, rows); err != nil {
			return nil, fmt.Errorf("seed holidays: %w", err)
		}
		stored = rows
	}

	holidays := make([]domain.Holiday, len(stored))
	for i, h := range stored {
		holidays[i] = *h
	}
	return holiday.NewCalendar(holidays)
}
