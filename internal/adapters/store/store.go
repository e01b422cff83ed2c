package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// mysqlDuplicateKeyName is returned when an index already exists
const mysqlDuplicateKeyName = 1061

// Store implements core.Repository on a relational database
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	logger  *zap.Logger
}

// New creates a new store on an open connection
func New(db *sqlx.DB, dialect Dialect, logger *zap.Logger) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}
}

// Migrate creates the tables and indexes that do not exist yet
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range statements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			var myErr *mysql.MySQLError
			if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateKeyName {
				continue
			}
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	s.logger.Debug("Store schema ready", zap.String("dialect", string(s.dialect)))
	return nil
}

// DB returns the underlying connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the connection
func (s *Store) Close() error {
	return s.db.Close()
}

// insert runs an INSERT and returns the new row id
func (s *Store) insert(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, error) {
	if s.dialect == DialectPostgres {
		var id int64
		if err := sqlx.GetContext(ctx, q, &id, q.Rebind(query+" RETURNING id"), args...); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// inTx runs fn in a transaction, rolling back when it fails
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.GetContext(ctx, dest, s.db.Rebind(query), args...)
}

func (s *Store) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.db.Rebind(query), args...)
}
