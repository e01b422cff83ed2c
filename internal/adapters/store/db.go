package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/phishguard/internal/config"
)

// Dialect names the SQL flavour of a connection
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// sqlx driver names per dialect
var driverNames = map[Dialect]string{
	DialectSQLite:   "sqlite3",
	DialectMySQL:    "mysql",
	DialectPostgres: "pgx",
}

// Open connects to the configured database
func Open(cfg config.StoreConfig) (*sqlx.DB, Dialect, error) {
	dialect := Dialect(strings.ToLower(cfg.Driver))
	if dialect == "postgresql" || dialect == "pgx" {
		dialect = DialectPostgres
	}

	driver, ok := driverNames[dialect]
	if !ok {
		return nil, "", fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}

	dsn := cfg.DSN
	switch dialect {
	case DialectSQLite:
		if dsn == "" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
				return nil, "", fmt.Errorf("failed to create database directory: %w", err)
			}
			dsn = SQLiteDSN(cfg.SQLitePath)
		}
	case DialectMySQL:
		// DATETIME columns must scan into time.Time
		if !strings.Contains(dsn, "parseTime=") {
			if strings.Contains(dsn, "?") {
				dsn += "&parseTime=true"
			} else {
				dsn += "?parseTime=true"
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if dialect == DialectSQLite {
		// one writer at a time avoids SQLITE_BUSY under the fetch pool
		db.SetMaxOpenConns(1)
	}
	return db, dialect, nil
}

// SQLiteDSN returns the connection string for a database file with WAL mode
// and foreign keys enabled
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
}
