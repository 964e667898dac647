package repositories

import (
	"context"
	"errors"
	"time"

	"dbdesigner/internal/models"

	"github.com/jackc/pgx/v5"
)

const tableColumns = `id, database_id, name, x, y, created_at, updated_at`

func scanTable(row pgx.Row) (models.Table, error) {
	var t models.Table
	err := row.Scan(
		&t.ID,
		&t.DatabaseID,
		&t.Name,
		&t.X,
		&t.Y,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (s *PgStore) ListTables(ctx context.Context, databaseID int64) ([]models.Table, error) {
	query := `
		SELECT ` + tableColumns + `
		FROM designer_tables WHERE database_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.Query(ctx, query, databaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []models.Table{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return tables, rows.Err()
}

func (s *PgStore) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM designer_tables WHERE id = $1`
	t, err := scanTable(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (s *PgStore) CreateTable(ctx context.Context, t *models.Table) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	query := `
		INSERT INTO designer_tables (database_id, name, x, y, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := s.db.QueryRow(ctx, query,
		t.DatabaseID,
		t.Name,
		t.X,
		t.Y,
		t.CreatedAt,
		t.UpdatedAt,
	).Scan(&t.ID)

	return mapPgError(err)
}

func (s *PgStore) UpdateTable(ctx context.Context, t *models.Table) error {
	t.UpdatedAt = time.Now()

	query := `UPDATE designer_tables SET name = $2, x = $3, y = $4, updated_at = $5 WHERE id = $1`
	_, err := s.db.Exec(ctx, query, t.ID, t.Name, t.X, t.Y, t.UpdatedAt)
	return mapPgError(err)
}

func (s *PgStore) DeleteTable(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM designer_tables WHERE id = $1`, id)
	return mapPgError(err)
}
