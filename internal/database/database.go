package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver" // Register ncruces sqlite3 driver
	"github.com/rs/zerolog"

	"github.com/learnx/calendar-sync/internal/database/sqlite3"
	"github.com/learnx/calendar-sync/internal/logging"
)

//go:embed migrations
var migrationsFS embed.FS

// DB manages the database connection holding sync state: cached collection
// ids, assignment-to-external-object mappings and user preferences.
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// New opens a database connection using the provided options and applies
// the PRAGMA settings not expressible in the DSN.
func New(opts SQLiteOptions) (*DB, error) {
	connStr := opts.buildConnectionString()
	logger := logging.GetLogger("database").With().Str("db_path", opts.Path).Logger()
	logger.Info().Str("connection_string", connStr).Msg("Opening database connection")

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open database")
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := applyPragmas(conn, opts); err != nil {
		conn.Close()
		logger.Error().Err(err).Msg("Failed to apply PRAGMA settings")
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		logger.Error().Err(err).Msg("Failed to ping database")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info().Msg("Database connection opened and configured successfully")

	return &DB{conn: conn, logger: logger}, nil
}

// applyPragmas executes the PRAGMA statements derived from the options.
func applyPragmas(conn *sql.DB, opts SQLiteOptions) error {
	type pragma struct {
		name  string
		value string
	}

	pragmas := []pragma{}
	if opts.Journal != "" {
		pragmas = append(pragmas, pragma{"journal_mode", string(opts.Journal)})
	}
	if opts.Synchronous != "" {
		pragmas = append(pragmas, pragma{"synchronous", string(opts.Synchronous)})
	}
	if opts.ForeignKeys {
		pragmas = append(pragmas, pragma{"foreign_keys", "1"})
	}
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, pragma{"busy_timeout", fmt.Sprintf("%d", opts.BusyTimeout)})
	}
	if opts.CacheSize != 0 {
		pragmas = append(pragmas, pragma{"cache_size", fmt.Sprintf("%d", opts.CacheSize)})
	}

	for _, p := range pragmas {
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("failed to apply PRAGMA %s: %w", p.name, err)
		}
	}
	return nil
}

// Conn returns the underlying database connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection
func (db *DB) Close() error {
	db.logger.Info().Msg("Closing database connection")
	if err := db.conn.Close(); err != nil {
		db.logger.Error().Err(err).Msg("Failed to close database connection")
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// MigrateDatabase applies any pending schema migrations
func (db *DB) MigrateDatabase() error {
	db.logger.Info().Msg("Starting database migration")

	driver, err := sqlite3.WithInstance(db.conn, &sqlite3.Config{})
	if err != nil {
		db.logger.Error().Err(err).Msg("Failed to create database driver for migration")
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	subFS, err := fs.Sub(migrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem: %w", err)
	}

	sourceInstance, err := iofs.New(subFS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embedded file source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceInstance, "sqlite3", driver)
	if err != nil {
		db.logger.Error().Err(err).Msg("Failed to create migrator instance")
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	db.logger.Debug().Uint("current_version", currentVersion).Bool("dirty", dirty).Msg("Current database migration version")

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		db.logger.Error().Err(err).Msg("Failed to apply migrations")
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version after applying migrations: %w", err)
	}
	db.logger.Info().Uint("version", newVersion).Msg("Database migrations up to date")

	return nil
}
