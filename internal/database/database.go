// Package database provides database connection and migration functionality.
package database

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"phraseapp/internal/config"
	"phraseapp/internal/observability"
	contextutils "phraseapp/internal/utils"

	// Import PostgreSQL driver for database/sql
	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // required for golang-migrate postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // required for golang-migrate file source

	// OpenTelemetry SQL instrumentation
	"go.nhat.io/otelsql"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Manager handles database connection setup and schema migrations
type Manager struct {
	logger *observability.Logger
}

var (
	otelDriverNameCache string
	otelDriverOnce      sync.Once
	otelDriverErr       error
)

// NewManager creates a new database manager with the provided logger
func NewManager(logger *observability.Logger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// DefaultDatabaseConfig returns the default database configuration
func DefaultDatabaseConfig() config.DatabaseConfig {
	cfg := config.DatabaseConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: config.DatabaseConnMaxLifetime,
	}

	// Check for TEST_DATABASE_URL first (for tests)
	if testURL := os.Getenv("TEST_DATABASE_URL"); testURL != "" {
		cfg.URL = testURL
	}

	return cfg
}

// InitDB initializes and returns a database connection with migrations
func (dm *Manager) InitDB(databaseURL string) (result0 *sql.DB, err error) {
	dbName := extractDatabaseName(databaseURL)
	_, span := observability.TraceDatabaseFunction(context.Background(), "InitDB",
		attribute.String("db.name", dbName),
		attribute.String("db.system", "postgresql"),
		attribute.Bool("migrations.enabled", true),
	)
	defer observability.FinishSpan(span, &err)
	cfg := DefaultDatabaseConfig()
	cfg.URL = databaseURL
	return dm.InitDBWithConfig(cfg)
}

// InitDBWithConfig initializes and returns a database connection with migrations and custom config
func (dm *Manager) InitDBWithConfig(cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	dbName := extractDatabaseName(cfg.URL)
	_, span := observability.TraceDatabaseFunction(context.Background(), "InitDBWithConfig",
		attribute.String("db.name", dbName),
		attribute.String("db.system", "postgresql"),
		attribute.Bool("migrations.enabled", true),
		attribute.Int("db.max_open_conns", cfg.MaxOpenConns),
		attribute.Int("db.max_idle_conns", cfg.MaxIdleConns),
		attribute.String("db.conn_max_lifetime", cfg.ConnMaxLifetime.String()),
	)
	defer observability.FinishSpan(span, &err)
	db, err := dm.InitDBWithoutMigrations(cfg)
	if err != nil {
		return nil, err
	}

	if err := dm.RunMigrations(cfg.URL); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(context.Background(), "Failed to close database connection after migration failure", closeErr)
		}
		return nil, err
	}

	return db, nil
}

// extractDatabaseName extracts the database name from a PostgreSQL connection string
func extractDatabaseName(databaseURL string) string {
	if u, err := url.Parse(databaseURL); err == nil && u.Path != "" {
		dbName := strings.TrimPrefix(u.Path, "/")
		if dbName != "" {
			return dbName
		}
	}

	// Fallback for non-URL connection strings
	if strings.Contains(databaseURL, "/") {
		parts := strings.Split(databaseURL, "/")
		if len(parts) > 1 {
			dbPart := parts[len(parts)-1]
			if idx := strings.Index(dbPart, "?"); idx != -1 {
				return dbPart[:idx]
			}
			return dbPart
		}
	}

	return "phraseapp_db"
}

// InitDBWithoutMigrations initializes and returns a database connection without running migrations
func (dm *Manager) InitDBWithoutMigrations(cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(context.Background(), "InitDBWithoutMigrations",
		attribute.String("db.name", extractDatabaseName(cfg.URL)),
	)
	defer observability.FinishSpan(span, &err)

	// Register OpenTelemetry SQL driver once per process and reuse the name
	otelDriverOnce.Do(func() {
		otelDriverNameCache, otelDriverErr = otelsql.Register("postgres",
			otelsql.WithDatabaseName(extractDatabaseName(cfg.URL)),
			otelsql.TraceQueryWithArgs(),
			otelsql.WithSystem(semconv.DBSystemPostgreSQL),
			otelsql.TraceRowsAffected(),
		)
	})
	if otelDriverErr != nil {
		return nil, contextutils.WrapError(otelDriverErr, "failed to register otelsql driver")
	}

	db, err := sql.Open(otelDriverNameCache, cfg.URL)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open database connection")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after ping failure", closeErr)
		}
		return nil, contextutils.WrapError(err, "failed to ping database")
	}

	dm.logger.Info(ctx, "Database connection established", map[string]interface{}{
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime,
	})

	return db, nil
}

// RunMigrations applies any pending migrations from the migrations directory
func (dm *Manager) RunMigrations(databaseURL string) (err error) {
	migrationsPath, err := dm.GetMigrationsPath()
	if err != nil {
		dm.logger.Error(context.Background(), "Could not find migrations path", err)
		return err
	}

	_, span := observability.TraceDatabaseFunction(context.Background(), "RunMigrations",
		attribute.String("db.system", "postgresql"),
		attribute.String("migration.path", migrationsPath),
	)
	defer observability.FinishSpan(span, &err)

	// Count migration files so an empty directory is a clean no-op
	files, err := os.ReadDir(migrationsPath)
	if err != nil {
		dm.logger.Error(context.Background(), "Could not read migrations directory", err)
		return err
	}

	migrationFileCount := 0
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			migrationFileCount++
		}
	}
	span.SetAttributes(attribute.Int("migration.files.count", migrationFileCount))

	if migrationFileCount == 0 {
		dm.logger.Info(context.Background(), "No migration files found, skipping migrations", map[string]interface{}{
			"migrations_path": migrationsPath,
		})
		return nil
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("TEST_DATABASE_URL")
	}
	if databaseURL == "" {
		err = errors.New("database url must be set for migrations")
		return err
	}

	migrationSourceURL := "file://" + filepath.ToSlash(migrationsPath)

	dm.logger.Info(context.Background(), "Running database migrations", map[string]interface{}{
		"migrations_path": migrationsPath,
		"source_url":      migrationSourceURL,
	})

	m, err := migrate.New(migrationSourceURL, databaseURL)
	if err != nil {
		err = contextutils.WrapError(err, "failed to initialize golang-migrate")
		return err
	}
	defer func() {
		if _, closeErr := m.Close(); closeErr != nil {
			dm.logger.Error(context.Background(), "Error closing migration", closeErr)
		}
	}()

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		err = contextutils.WrapError(err, "golang-migrate up failed")
		return err
	}
	if err == migrate.ErrNoChange {
		dm.logger.Info(context.Background(), "No new migrations to apply")
		err = nil
	} else {
		dm.logger.Info(context.Background(), "Migrations applied successfully")
	}
	return nil
}

// GetMigrationsPath returns the path to the migrations directory, searching
// upward from the working directory
func (dm *Manager) GetMigrationsPath() (result0 string, err error) {
	_, span := observability.TraceDatabaseFunction(context.Background(), "GetMigrationsPath",
		attribute.String("migration.dir.name", "migrations"),
	)
	defer observability.FinishSpan(span, &err)
	currentDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	span.SetAttributes(attribute.String("search.start_dir", currentDir))

	for {
		migrationsPath := filepath.Join(currentDir, "migrations")
		if _, statErr := os.Stat(migrationsPath); statErr == nil {
			span.SetAttributes(attribute.String("migration.found_path", migrationsPath))
			return migrationsPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			span.SetAttributes(attribute.String("search.result", "not_found"))
			err = contextutils.ErrorWithContextf("migrations directory not found in any parent directory")
			return "", err
		}
		currentDir = parentDir
	}
}
