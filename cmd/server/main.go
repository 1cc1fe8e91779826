package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ramonvasc/comunicahub/internal/api"
	"github.com/ramonvasc/comunicahub/internal/app"
	"github.com/ramonvasc/comunicahub/internal/app/scheduler"
	"github.com/ramonvasc/comunicahub/internal/database"
	"github.com/ramonvasc/comunicahub/internal/feed"
	"github.com/ramonvasc/comunicahub/internal/ingest"
	"github.com/ramonvasc/comunicahub/internal/kv"
	"github.com/ramonvasc/comunicahub/internal/registry"
	"github.com/ramonvasc/comunicahub/internal/services"
	"github.com/ramonvasc/comunicahub/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comunicahub-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	comms, err := services.NewCommunicationService(db)
	if err != nil {
		return fmt.Errorf("initialise communication service: %w", err)
	}
	deadlines, err := services.NewDeadlineService(db)
	if err != nil {
		return fmt.Errorf("initialise deadline service: %w", err)
	}
	appointments, err := services.NewAppointmentService(db)
	if err != nil {
		return fmt.Errorf("initialise appointment service: %w", err)
	}

	matcher, err := registry.NewMatcher(db)
	if err != nil {
		return fmt.Errorf("initialise registry matcher: %w", err)
	}

	pipeline, err := ingest.NewPipeline(db, comms, matcher)
	if err != nil {
		return fmt.Errorf("initialise ingestion pipeline: %w", err)
	}

	readStore, err := buildReadStateBackend(cfg, db)
	if err != nil {
		return fmt.Errorf("initialise read state backend: %w", err)
	}
	reads, err := feed.NewReadStateStore(readStore)
	if err != nil {
		return fmt.Errorf("initialise read state store: %w", err)
	}

	aggregator, err := feed.NewAggregator(comms, deadlines, appointments, reads)
	if err != nil {
		return fmt.Errorf("initialise feed aggregator: %w", err)
	}

	if cfg.Ingestion.Enabled {
		sources, err := buildIngestionSources(cfg)
		if err != nil {
			return err
		}

		importer, err := scheduler.NewImporter(pipeline, sources,
			scheduler.WithSchedule(cfg.Ingestion.Schedule),
			scheduler.WithRunTimeout(cfg.Ingestion.RunTimeout),
		)
		if err != nil {
			return fmt.Errorf("initialise importer: %w", err)
		}
		if err := importer.Start(); err != nil {
			return fmt.Errorf("start importer: %w", err)
		}
		defer func() {
			<-importer.Stop().Done()
		}()
	}

	router, err := api.NewRouter(api.Deps{
		DB:             db,
		Pipeline:       pipeline,
		Aggregator:     aggregator,
		FeedWindowDays: cfg.Feed.WindowDays,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

// buildReadStateBackend selects the key-value store behind the local read
// state. The file backend is the default so acknowledgements survive without
// touching the primary database.
func buildReadStateBackend(cfg *app.Config, db *gorm.DB) (kv.Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Feed.ReadState.Backend))
	switch backend {
	case "", "file":
		path := strings.TrimSpace(cfg.Feed.ReadState.Path)
		if path == "" {
			path = "./data/readstate.json"
		}
		return kv.NewFileStore(path)
	case "database", "db":
		return kv.NewDatabaseStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported read state backend %q", cfg.Feed.ReadState.Backend)
	}
}

func buildIngestionSources(cfg *app.Config) ([]scheduler.Source, error) {
	url := strings.TrimSpace(cfg.Ingestion.SourceURL)
	if url == "" {
		return nil, nil
	}

	name := strings.TrimSpace(cfg.Ingestion.SourceName)
	if name == "" {
		name = "diario"
	}

	source, err := scheduler.NewHTTPSource(name, url, cfg.Ingestion.RunTimeout)
	if err != nil {
		return nil, fmt.Errorf("initialise ingestion source: %w", err)
	}
	return []scheduler.Source{source}, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
