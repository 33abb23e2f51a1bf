package database

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	configpkg "github.com/samaj-registry/registry-backend/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DatabaseType represents the type of database to use
type DatabaseType string

const (
	DatabaseTypeSQLite   DatabaseType = "sqlite"
	DatabaseTypePostgres DatabaseType = "postgres"
)

// Config holds database connection configuration
type Config struct {
	// Database type (sqlite or postgres)
	Type DatabaseType

	// SQLite configuration
	DatabasePath string

	// PostgreSQL configuration
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings (applies to both database types)
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// NewDatabaseConfig creates a new database configuration from environment
// variables. Supports both SQLite (default) and PostgreSQL.
// Configuration priority:
//  1. DB_TYPE=postgres → PostgreSQL (DB_HOST, DB_PASSWORD, etc. required)
//  2. DB_TYPE=sqlite OR DB_PATH set → file-based SQLite (default: ./data/registry.db)
//  3. No database configuration at all → in-memory SQLite (:memory:)
func NewDatabaseConfig() *Config {
	dbTypeStr := strings.ToLower(configpkg.GetEnvOrDefault("DB_TYPE", ""))
	var dbType DatabaseType

	dbTypeSet := os.Getenv("DB_TYPE") != ""
	dbPathSet := os.Getenv("DB_PATH") != ""

	// For SQLite: only DB_TYPE=sqlite or DB_PATH count as configuration;
	// DB_HOST is only relevant when DB_TYPE=postgres
	hasSQLiteConfig := dbPathSet || (dbTypeSet && dbTypeStr != "postgres" && dbTypeStr != "postgresql")

	switch dbTypeStr {
	case "postgres", "postgresql":
		dbType = DatabaseTypePostgres
	case "sqlite", "":
		dbType = DatabaseTypeSQLite
	default:
		slog.Warn("Unknown DB_TYPE, defaulting to sqlite", "db_type", dbTypeStr)
		dbType = DatabaseTypeSQLite
	}

	config := &Config{
		Type: dbType,
	}

	if dbType == DatabaseTypeSQLite {
		// SQLite best practice: MaxOpenConns=1 serializes access through a
		// single connection and prevents "database is locked" errors under
		// concurrent writes, even with WAL mode enabled.
		config.MaxOpenConns = parseIntOrDefault("DB_MAX_OPEN_CONNS", 1)
		config.MaxIdleConns = parseIntOrDefault("DB_MAX_IDLE_CONNS", 1)

		if !hasSQLiteConfig {
			config.DatabasePath = ":memory:"
			slog.Info("No database configuration found, using in-memory SQLite")
		} else {
			config.DatabasePath = configpkg.GetEnvOrDefault("DB_PATH", "./data/registry.db")
		}

		if config.DatabasePath != ":memory:" {
			dbDir := filepath.Dir(config.DatabasePath)
			if err := os.MkdirAll(dbDir, 0o755); err != nil {
				slog.Warn("Failed to create database directory", "path", dbDir, "error", err)
			}
		}

		slog.Info("Database configuration (SQLite)",
			"database_path", config.DatabasePath,
			"max_open_conns", config.MaxOpenConns,
			"max_idle_conns", config.MaxIdleConns,
		)
	} else {
		config.Host = configpkg.GetEnvOrDefault("DB_HOST", "localhost")
		config.Port = configpkg.GetEnvOrDefault("DB_PORT", "5432")
		config.Username = configpkg.GetEnvOrDefault("DB_USERNAME", "postgres")
		config.Password = configpkg.GetEnvOrDefault("DB_PASSWORD", "")
		config.Database = configpkg.GetEnvOrDefault("DB_NAME", "registry_db")
		config.SSLMode = configpkg.GetEnvOrDefault("DB_SSLMODE", "disable")

		config.MaxOpenConns = parseIntOrDefault("DB_MAX_OPEN_CONNS", 25)
		config.MaxIdleConns = parseIntOrDefault("DB_MAX_IDLE_CONNS", 5)

		slog.Info("Database configuration (PostgreSQL)",
			"host", config.Host,
			"port", config.Port,
			"database", config.Database,
			"username", config.Username,
			"sslmode", config.SSLMode,
			"max_open_conns", config.MaxOpenConns,
			"max_idle_conns", config.MaxIdleConns,
		)
	}

	config.ConnMaxLifetime = parseDurationOrDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	config.ConnMaxIdleTime = parseDurationOrDefault("DB_CONN_MAX_IDLE_TIME", 15*time.Minute)

	return config
}

// ConnectGormDB establishes a GORM connection to the database (SQLite or
// PostgreSQL). TranslateError is enabled so unique-constraint violations
// surface as gorm.ErrDuplicatedKey on both drivers; the audit-number
// sequence assigner depends on that.
func ConnectGormDB(config *Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{TranslateError: true}

	var gormDB *gorm.DB
	var err error

	if config.Type == DatabaseTypeSQLite {
		slog.Info("Attempting GORM SQLite database connection", "path", config.DatabasePath)

		gormDB, err = gorm.Open(sqlite.Open(config.DatabasePath), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open GORM SQLite database connection: %w", err)
		}
	} else {
		// Use net/url to properly encode credentials (handles special
		// characters in passwords)
		dsnURL := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(config.Username, config.Password),
			Host:   fmt.Sprintf("%s:%s", config.Host, config.Port),
			Path:   config.Database,
		}
		q := dsnURL.Query()
		q.Set("sslmode", config.SSLMode)
		dsnURL.RawQuery = q.Encode()
		dsn := dsnURL.String()

		slog.Info("Attempting GORM PostgreSQL database connection",
			"host", config.Host,
			"port", config.Port,
			"database", config.Database)

		gormDB, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open GORM PostgreSQL database connection: %w", err)
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	dbTypeStr := "SQLite"
	if config.Type == DatabaseTypePostgres {
		dbTypeStr = "PostgreSQL"
	}
	slog.Info("GORM database connection established successfully", "type", dbTypeStr)
	return gormDB, nil
}

// parseIntOrDefault parses an integer from an environment variable or returns
// the default
func parseIntOrDefault(key string, defaultValue int) int {
	if value := configpkg.GetEnvOrDefault(key, ""); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// parseDurationOrDefault parses a duration ("1h", "30m", "15s") from an
// environment variable or returns the default
func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := configpkg.GetEnvOrDefault(key, ""); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		slog.Warn("Invalid duration format, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}
