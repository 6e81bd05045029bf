// Package main loads historical demand CSVs into the series warehouse and seeds
// the holiday table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uk-forecast-lab/internal/config"
	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/holiday"
	"uk-forecast-lab/internal/ingestion"
	"uk-forecast-lab/internal/observability"
	"uk-forecast-lab/internal/storage"
	chstore "uk-forecast-lab/internal/storage/clickhouse"
	"uk-forecast-lab/internal/storage/influx"
	"uk-forecast-lab/internal/storage/migrations"
	pgstore "uk-forecast-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	// Parse flags
	mode := flag.String("mode", "demand", "Ingestion mode: demand or holidays")
	csvPath := flag.String("csv", config.String("SERIES_CSV", "data/historic_demand.csv"), "Historical demand CSV")
	target := flag.String("target", config.String("SERIES_SOURCE", "clickhouse"), "Demand warehouse: clickhouse or influx")
	dateColumn := flag.String("date-column", "settlement_date", "CSV timestamp column")
	valueColumn := flag.String("value-column", "demand_value", "CSV demand column")
	periodColumn := flag.String("period-column", "settlement_period", "CSV settlement period column (empty to ignore)")
	timezone := flag.String("timezone", os.Getenv("TIMEZONE"), "Zone for naive timestamps (default UTC)")
	batchSize := flag.Int("batch-size", 5000, "Points per insert batch")
	skipExisting := flag.Bool("skip-existing", true, "Only append points newer than the stored series")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (holidays mode)")
	influxURL := flag.String("influxdb-url", os.Getenv("INFLUXDB_URL"), "InfluxDB URL")
	influxToken := flag.String("influxdb-token", os.Getenv("INFLUXDB_TOKEN"), "InfluxDB token")
	influxOrg := flag.String("influxdb-org", os.Getenv("INFLUXDB_ORG"), "InfluxDB organization")
	influxBucket := flag.String("influxdb-bucket", config.String("INFLUXDB_BUCKET", "demand"), "InfluxDB bucket")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

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

	var err error
	switch *mode {
	case "demand":
		loc, locErr := config.Location(*timezone)
		if locErr != nil {
			logger.Fatalf("Invalid timezone: %v", locErr)
		}
		opts := ingestion.Options{
			DateColumn:   *dateColumn,
			ValueColumn:  *valueColumn,
			PeriodColumn: *periodColumn,
			Location:     loc,
		}
		wh := warehouse{
			target:        *target,
			clickhouseDSN: *clickhouseDSN,
			influxURL:     *influxURL,
			influxToken:   *influxToken,
			influxOrg:     *influxOrg,
			influxBucket:  *influxBucket,
		}
		err = runDemand(ctx, logger, *csvPath, opts, wh, *batchSize, *skipExisting)
	case "holidays":
		err = runHolidays(ctx, logger, *postgresDSN)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type warehouse struct {
	target        string
	clickhouseDSN string
	influxURL     string
	influxToken   string
	influxOrg     string
	influxBucket  string
}

// open connects to the configured demand warehouse.
func (w warehouse) open(ctx context.Context) (storage.DemandSeriesStore, func(), error) {
	switch w.target {
	case "clickhouse":
		if w.clickhouseDSN == "" {
			return nil, nil, fmt.Errorf("--clickhouse-dsn is required for target clickhouse")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, w.clickhouseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		return chstore.NewDemandTimeseriesStore(conn), func() { conn.Close() }, nil
	case "influx":
		if w.influxURL == "" {
			return nil, nil, fmt.Errorf("--influxdb-url is required for target influx")
		}
		client, err := influx.NewClient(ctx, w.influxURL, w.influxToken, w.influxOrg, w.influxBucket, 30*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("influxdb: %w", err)
		}
		return influx.NewDemandTimeseriesStore(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown target %q (clickhouse, influx)", w.target)
	}
}

// runDemand parses a demand CSV and appends it to the warehouse.
func runDemand(ctx context.Context, logger *log.Logger, path string, opts ingestion.Options, wh warehouse, batchSize int, skipExisting bool) error {
	points, err := ingestion.NewCSVSource(path, opts, logger).Load(ctx)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("%s contains no usable rows", path)
	}

	store, closeStore, err := wh.open(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	loader := ingestion.NewLoader(ingestion.LoaderOptions{
		Store:        store,
		BatchSize:    batchSize,
		SkipExisting: skipExisting,
		Logger:       logger,
	})

	start := time.Now()
	result, err := loader.Load(ctx, points)
	if err != nil {
		return err
	}

	minTs, maxTs, err := store.GetGlobalTimeRange(ctx)
	if err != nil {
		return fmt.Errorf("read stored range: %w", err)
	}
	logger.Printf("Stored %d points in %d batches (%d skipped) in %v; series now spans %s .. %s",
		result.Stored, result.Batches, result.Skipped, time.Since(start).Round(time.Millisecond),
		time.UnixMilli(minTs).UTC().Format(time.RFC3339), time.UnixMilli(maxTs).UTC().Format(time.RFC3339))
	return nil
}

// runHolidays inserts the built-in UK bank holidays missing from PostgreSQL.
func runHolidays(ctx context.Context, logger *log.Logger, postgresDSN string) error {
	if postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required for holidays mode")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}

	store := pgstore.NewHolidayStore(pool)
	existing, err := store.GetAll(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]struct{}, len(existing))
	for _, h := range existing {
		have[h.Date] = struct{}{}
	}

	var missing []*domain.Holiday
	for _, h := range holiday.UKBankHolidays() {
		if _, ok := have[h.Date]; !ok {
			missing = append(missing, &h)
		}
	}
	if len(missing) == 0 {
		logger.Printf("Holiday table already has all %d bank holidays", len(existing))
		return nil
	}

	if err := store.InsertBulk(ctx, missing); err != nil {
		return err
	}
	logger.Printf("Inserted %d holidays", len(missing))
	return nil
}
