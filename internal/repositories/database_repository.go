package repositories

import (
	"context"
	"errors"
	"time"

	"dbdesigner/internal/models"

	"github.com/jackc/pgx/v5"
)

const databaseColumns = `id, user_id, name, slug, created_at, updated_at`

func scanDatabase(row pgx.Row) (*models.Database, error) {
	var db models.Database
	err := row.Scan(
		&db.ID,
		&db.UserID,
		&db.Name,
		&db.Slug,
		&db.CreatedAt,
		&db.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &db, nil
}

func (s *PgStore) CreateDatabase(ctx context.Context, db *models.Database) error {
	db.Prepare()

	now := time.Now()
	if db.CreatedAt.IsZero() {
		db.CreatedAt = now
	}
	db.UpdatedAt = now

	query := `
		INSERT INTO databases (user_id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := s.db.QueryRow(ctx, query,
		db.UserID,
		db.Name,
		db.Slug,
		db.CreatedAt,
		db.UpdatedAt,
	).Scan(&db.ID)

	return mapPgError(err)
}

func (s *PgStore) GetDatabase(ctx context.Context, id int64) (*models.Database, error) {
	query := `SELECT ` + databaseColumns + ` FROM databases WHERE id = $1`
	return scanDatabase(s.db.QueryRow(ctx, query, id))
}

func (s *PgStore) GetEarliestDatabase(ctx context.Context) (*models.Database, error) {
	query := `SELECT ` + databaseColumns + ` FROM databases ORDER BY created_at ASC, id ASC LIMIT 1`
	return scanDatabase(s.db.QueryRow(ctx, query))
}

func (s *PgStore) LockDatabase(ctx context.Context, id int64) (*models.Database, error) {
	query := `SELECT ` + databaseColumns + ` FROM databases WHERE id = $1 FOR UPDATE`
	return scanDatabase(s.db.QueryRow(ctx, query, id))
}

func (s *PgStore) UpdateDatabase(ctx context.Context, db *models.Database) error {
	db.Prepare()
	db.UpdatedAt = time.Now()

	query := `UPDATE databases SET name = $2, slug = $3, updated_at = $4 WHERE id = $1`
	_, err := s.db.Exec(ctx, query, db.ID, db.Name, db.Slug, db.UpdatedAt)
	return mapPgError(err)
}

func (s *PgStore) DeleteDatabase(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM databases WHERE id = $1`, id)
	return mapPgError(err)
}
