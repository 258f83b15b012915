package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/creatorjobs/creatorjobs-api/config"
	"github.com/creatorjobs/creatorjobs-api/pkg/db"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	migrationsPath := flag.String("path", "file://./migrations", "path to migration files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Server.AppEnv,
		ServiceName: "creatorjobs-migrate",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Database.WorkOffline {
		logger.Fatal("Cannot run migrations in database offline mode")
	}

	logger.Info("Running migrations", zap.String("path", *migrationsPath))
	if err := db.RunMigrations(cfg.Database.URL, *migrationsPath); err != nil {
		logger.Fatal("Migrations failed", zap.Error(err))
	}
	logger.Info("Migrations complete")
}
