package database

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dukerupert/grocer/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// Open connects to the configured database and runs migrations.
func Open(cfg config.Database) (*sql.DB, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}

	if err := Up(db, cfg.DriverName()); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Connect opens and pings the database without touching the schema.
func Connect(cfg config.Database) (*sql.DB, error) {
	driver := cfg.DriverName()

	var db *sql.DB
	var err error
	switch driver {
	case config.DriverSQLite:
		db, err = sql.Open("sqlite", sqliteDSN(cfg.DSN))
		if err == nil && isMemory(cfg.DSN) {
			// Every connection to :memory: is a separate database.
			db.SetMaxOpenConns(1)
		}
	case config.DriverPostgres:
		db, err = sql.Open("pgx", cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// Up applies all pending migrations.
func Up(db *sql.DB, driver string) error {
	dir, err := prepare(driver)
	if err != nil {
		return err
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func Down(db *sql.DB, driver string) error {
	dir, err := prepare(driver)
	if err != nil {
		return err
	}
	if err := goose.Down(db, dir); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// Status logs the applied state of every migration.
func Status(db *sql.DB, driver string) error {
	dir, err := prepare(driver)
	if err != nil {
		return err
	}
	if err := goose.Status(db, dir); err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func Version(db *sql.DB, driver string) (int64, error) {
	if _, err := prepare(driver); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}

func prepare(driver string) (string, error) {
	goose.SetBaseFS(migrations)

	var dialect goose.Dialect
	switch driver {
	case config.DriverSQLite:
		dialect = goose.DialectSQLite3
	case config.DriverPostgres:
		dialect = goose.DialectPostgres
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
	if err := goose.SetDialect(string(dialect)); err != nil {
		return "", fmt.Errorf("set dialect: %w", err)
	}
	return "migrations/" + driver, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

func isMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
