package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cleared-dev/tally/internal/model"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the relational ledger store. A Store returned to an Atomic
// callback is bound to that unit; everything it does commits or rolls back
// together.
type Store struct {
	db     *gorm.DB
	driver string
}

// Open connects to the database. An empty driver means sqlite.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", DriverSQLite:
		driver = DriverSQLite
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		driver = DriverPostgres
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// sqlite allows a single writer; one connection keeps units serialised
		// instead of failing with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("getting sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting database handle: %w", err)
	}
	return sqlDB.Close()
}

// Driver returns the database driver name.
func (s *Store) Driver() string { return s.driver }

// Migrate creates or updates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&model.Bank{},
		&model.Account{},
		&model.Transaction{},
		&model.ImportedTransaction{},
	)
	if err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Atomic runs fn inside one database transaction. Nested calls become
// savepoints of the outer unit.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, driver: s.driver})
	})
}

// IsDuplicate reports whether err is a uniqueness violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}

// forUpdate adds a row lock where the dialect supports one. sqlite locks
// the whole database for the writer instead.
func (s *Store) forUpdate(db *gorm.DB) *gorm.DB {
	if s.driver == DriverPostgres {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf(format+": %w", append(args, model.ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
