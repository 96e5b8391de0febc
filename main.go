package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bulletin-etl/config"
	"bulletin-etl/etl"
	"bulletin-etl/scraper/harti"
	"bulletin-etl/services"
	"bulletin-etl/storage"
	"bulletin-etl/utils"
)

func main() {
	logger := utils.NewLogger()

	rootCmd := &cobra.Command{
		Use:   "bulletin-etl",
		Short: "Incremental ETL of HARTI food commodity price bulletins",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				os.Setenv("CONFIG_FILE", path)
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (overrides CONFIG_FILE)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Process every bulletin not yet in the ledger, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runOnce(ctx, logger)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "schedule",
		Short: "Run on the SCHEDULE cron expression until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return schedule(ctx, logger)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, logger *utils.Logger) error {
	app, err := newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	_, err = app.runner.Run(ctx)
	return err
}

func schedule(ctx context.Context, logger *utils.Logger) error {
	app, err := newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	s, err := etl.NewScheduler(ctx, app.cfg.Schedule, app.runner, logger)
	if err != nil {
		return err
	}
	logger.Info("=== Bulletin ETL scheduler starting — schedule: %q ===", app.cfg.Schedule)
	s.Start()

	<-ctx.Done()
	<-s.Stop().Done()
	return nil
}

type app struct {
	cfg     *config.Config
	runner  *etl.Runner
	records storage.RecordWriter
}

func (a *app) Close() {
	a.records.Close()
}

func newApp(ctx context.Context, logger *utils.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.LogLevel)
	logger.Info("Config — source: %s | discovery: %s | sink: %s | split: %s | rate: %dms",
		cfg.SourceURL, cfg.DiscoveryMode, cfg.RecordSink, cfg.SplitMode, cfg.RateLimitMs)

	blobs, err := storage.NewDirBlobStore(cfg.StorageDir)
	if err != nil {
		return nil, err
	}

	records, err := newRecordWriter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	fetcher := harti.NewHTTPFetcher(timeout, &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	})

	var discoverer etl.Discoverer = harti.NewHTTPDiscoverer(fetcher, logger)
	if cfg.DiscoveryMode == config.DiscoveryBrowser {
		discoverer = harti.NewBrowserDiscoverer(cfg.ChromeBin, timeout, logger)
	}

	runner := etl.NewRunner(
		etl.Options{
			SourceURL:      cfg.SourceURL,
			MetadataMarker: cfg.MetadataMarker,
			RateLimitMs:    cfg.RateLimitMs,
		},
		etl.Deps{
			Discoverer: discoverer,
			Fetcher:    fetcher,
			Text:       harti.PDFTextExtractor{},
			Tables:     harti.NewTabulaExtractor(cfg.JavaBin, cfg.TabulaJar, logger),
			Ledger:     storage.NewBlobLedger(blobs, cfg.LedgerFile),
			CSV:        storage.NewCSVWriter(blobs, cfg.CSVPrefix, cfg.CSVNameSuffix),
			Records:    records,
			Logs:       storage.NewLogArchive(blobs, cfg.LogPrefix, cfg.LogRetention),
		},
		services.NewTransformer(logger, services.SplitMode(cfg.SplitMode)),
		logger,
	)
	return &app{cfg: cfg, runner: runner, records: records}, nil
}

func newRecordWriter(ctx context.Context, cfg *config.Config) (storage.RecordWriter, error) {
	switch cfg.RecordSink {
	case config.SinkPostgres:
		w, err := storage.NewPostgresWriter(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		return w, nil
	case config.SinkMongo:
		w, err := storage.NewMongoWriter(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		return w, nil
	default:
		return storage.DiscardWriter{}, nil
	}
}
