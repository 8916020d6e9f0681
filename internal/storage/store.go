// Package storage persists bank transactions in a relational database
// through gorm. Postgres is the production target; sqlite serves local runs
// and tests.
package storage

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"golang-bank-transaction-service/internal/ingest"
	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/internal/query"
	"golang-bank-transaction-service/pkg/errors"
	"golang-bank-transaction-service/pkg/logger"
)

// insertBatchSize caps the rows of one INSERT statement. A whole chunk in one
// statement would exceed the bind variable limit of sqlite and postgres.
const insertBatchSize = 500

// Store is the gorm-backed transaction store. It serves both the ingestion
// engine (chunk writes) and the query engine (page reads).
type Store struct {
	db     *gorm.DB
	driver Driver
	logger logger.Logger
}

var (
	_ ingest.Store = (*Store)(nil)
	_ query.Reader = (*Store)(nil)
)

// Open connects to the configured database and migrates the schema when
// AutoMigrate is set
func Open(ctx context.Context, config *Config, log logger.Logger) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError("database", config.Driver, err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("storage")

	var dialector gorm.Dialector
	switch config.Driver {
	case DriverPostgres:
		dialector = postgres.Open(config.DSN)
	default:
		dialector = sqlite.Open(config.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(log, config.SlowQuery),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, errors.StorageError("open", err).WithContext("driver", config.Driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.StorageError("open", err).WithContext("driver", config.Driver)
	}
	maxConns := config.MaxOpenConns
	if config.Driver == DriverSQLite {
		// sqlite has a single writer
		maxConns = 1
	}
	sqlDB.SetMaxOpenConns(maxConns)

	store := &Store{db: db, driver: config.Driver, logger: log}

	if err := store.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if config.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	log.WithFields(logger.Fields{
		"driver":         config.Driver,
		"max_open_conns": maxConns,
		"auto_migrate":   config.AutoMigrate,
	}).Info("Database opened")

	return store, nil
}

// Migrate creates or updates the bank_transaction table and its index
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.BankTransaction{}); err != nil {
		return errors.StorageError("migrate", err)
	}
	return nil
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.StorageError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.StorageError("ping", err)
	}
	return nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.StorageError("close", err)
	}
	if err := sqlDB.Close(); err != nil {
		return errors.StorageError("close", err)
	}
	return nil
}

// SaveChunk inserts chunk in its own write transaction
func (s *Store) SaveChunk(ctx context.Context, chunk []*models.BankTransaction) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertChunk(tx, chunk)
	})
	if err != nil {
		return chunkError(chunk, err)
	}
	return nil
}

// Atomically runs fn inside one write transaction. Chunks saved through the
// writer handed to fn commit together when fn returns nil.
func (s *Store) Atomically(ctx context.Context, fn func(w ingest.ChunkWriter) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&txWriter{tx: tx})
		return fnErr
	})
	if err != nil {
		if fnErr != nil {
			// rollback succeeded, report the caller's error as is
			return fnErr
		}
		return errors.StorageError("commit", err)
	}
	return nil
}

type txWriter struct {
	tx *gorm.DB
}

func (w *txWriter) SaveChunk(ctx context.Context, chunk []*models.BankTransaction) error {
	if err := insertChunk(w.tx.WithContext(ctx), chunk); err != nil {
		return chunkError(chunk, err)
	}
	return nil
}

func insertChunk(tx *gorm.DB, chunk []*models.BankTransaction) error {
	if len(chunk) == 0 {
		return nil
	}
	return tx.CreateInBatches(&chunk, insertBatchSize).Error
}

func chunkError(chunk []*models.BankTransaction, err error) error {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.DuplicateID(chunk[0].ID, chunk[len(chunk)-1].ID, err).
			WithContext("chunk_size", len(chunk))
	}
	return errors.StorageError("save chunk", err).WithContext("chunk_size", len(chunk))
}

// FindPage runs the content and count queries for pred in one read
// transaction so both see the same snapshot
func (s *Store) FindPage(ctx context.Context, pred *query.Predicate, order query.Order, page models.PageRequest) ([]*models.BankTransaction, int64, error) {
	var (
		rows  []*models.BankTransaction
		total int64
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := filtered(tx, pred).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 {
			return nil
		}

		q := filtered(tx, pred)
		for _, col := range order.Columns() {
			q = q.Order(col)
		}
		return q.Limit(page.Size).Offset(int(page.Offset())).Find(&rows).Error
	}, s.readTxOptions())
	if err != nil {
		return nil, 0, errors.StorageError("find page", err).WithContext("predicate", pred.String())
	}

	return rows, total, nil
}

func filtered(tx *gorm.DB, pred *query.Predicate) *gorm.DB {
	q := tx.Model(&models.BankTransaction{})
	for _, expr := range pred.Expressions() {
		q = q.Where(expr)
	}
	return q
}

// readTxOptions returns the options of the snapshot transaction. sqlite
// transactions are already serializable, so it keeps the defaults.
func (s *Store) readTxOptions() *sql.TxOptions {
	if s.driver == DriverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}
