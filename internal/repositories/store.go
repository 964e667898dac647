package repositories

import (
	"context"
	"errors"
	"fmt"

	"dbdesigner/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConflict is returned when a write violates a unique or foreign-key
// constraint of the schema store.
var ErrConflict = errors.New("constraint violation")

// Store is the persistence contract for designer entities. Lookups that
// find nothing return nil, nil.
type Store interface {
	DatabaseStore
	TableStore
	FieldStore
	LinkStore
	// Transaction runs f in one transaction. Nested calls join the outer one.
	Transaction(ctx context.Context, f func(tx Store) error) error
}

type DatabaseStore interface {
	CreateDatabase(ctx context.Context, db *models.Database) error
	GetDatabase(ctx context.Context, id int64) (*models.Database, error)
	// GetEarliestDatabase returns the database created first, ties by id.
	GetEarliestDatabase(ctx context.Context) (*models.Database, error)
	// LockDatabase reads the database and holds a write lock on it until
	// the surrounding transaction ends.
	LockDatabase(ctx context.Context, id int64) (*models.Database, error)
	UpdateDatabase(ctx context.Context, db *models.Database) error
	DeleteDatabase(ctx context.Context, id int64) error
}

type TableStore interface {
	// ListTables returns the tables of a database in creation order.
	ListTables(ctx context.Context, databaseID int64) ([]models.Table, error)
	GetTable(ctx context.Context, id int64) (*models.Table, error)
	CreateTable(ctx context.Context, t *models.Table) error
	UpdateTable(ctx context.Context, t *models.Table) error
	DeleteTable(ctx context.Context, id int64) error
}

type FieldStore interface {
	// ListFields returns the fields of a table by order, then creation.
	ListFields(ctx context.Context, tableID int64) ([]models.Field, error)
	ListFieldsByDatabase(ctx context.Context, databaseID int64) ([]models.Field, error)
	GetField(ctx context.Context, id int64) (*models.Field, error)
	CreateField(ctx context.Context, f *models.Field) error
	UpdateField(ctx context.Context, f *models.Field) error
	DeleteField(ctx context.Context, id int64) error
	DeleteFieldsByTable(ctx context.Context, tableID int64) (int64, error)
}

type LinkStore interface {
	// ListLinks returns the links of a database with names resolved.
	ListLinks(ctx context.Context, databaseID int64) ([]models.Link, error)
	GetLink(ctx context.Context, id int64) (*models.Link, error)
	CreateLink(ctx context.Context, l *models.Link) error
	UpdateLink(ctx context.Context, l *models.Link) error
	DeleteLink(ctx context.Context, id int64) error
	DeleteLinksByTable(ctx context.Context, tableID int64) (int64, error)
	CountLinksByField(ctx context.Context, fieldID int64) (int64, error)
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore implements Store on PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
	db   DBTX
}

var _ Store = (*PgStore)(nil)

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, db: pool}
}

func (s *PgStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	if _, ok := s.db.(pgx.Tx); ok {
		return f(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return f(&PgStore{pool: s.pool, db: tx})
	})
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		}
	}
	return err
}
