package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Open connects to the database named by driver and dsn and applies any
// pending migrations. For SQLite, dsn is a file path.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, "":
		return openSQLite(fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite", dsn), dsn)
	case DriverPostgres, "postgres":
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// OpenForTesting returns a migrated, private in-memory SQLite database.
func OpenForTesting() (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:memdb_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_time_format=sqlite", uuid.NewString())
	return openSQLite(dsn, "")
}

func openSQLite(dsn, dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one connection keeps in-memory
	// databases alive and avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", dbPath, err)
	}

	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare migrations: %w", err)
	}
	if err := runMigrations(driver, "migrations/sqlite", DriverSQLite); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("failed to run migrations: %w (also failed to close db: %v)", err, cerr)
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func openPostgres(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// The pgx migration driver pins a connection for its lifetime, so it
	// gets a handle of its own that is closed once migrations finish.
	migrationDB, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}
	driver, err := migratepgx.WithInstance(migrationDB, &migratepgx.Config{})
	if err != nil {
		_ = migrationDB.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare migrations: %w", err)
	}
	err = runMigrations(driver, "migrations/postgres", "postgres")
	if cerr := driver.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// runMigrations applies the embedded migrations under dir. The database
// driver is left open; the caller owns its lifetime.
func runMigrations(driver database.Driver, dir, name string) error {
	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	defer func() { _ = src.Close() }()

	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
