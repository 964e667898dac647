package repositories

import (
	"context"
	"errors"
	"time"

	"dbdesigner/internal/models"

	"github.com/jackc/pgx/v5"
)

const fieldColumns = `id, table_id, name, field_type, length, default_value,
	primary_field, ai, nullable, index_field, sort_order, created_at, updated_at`

func scanField(row pgx.Row) (models.Field, error) {
	var (
		f                             models.Field
		primary, ai, nullable, indexd bool
	)
	err := row.Scan(
		&f.ID,
		&f.TableID,
		&f.Name,
		&f.FieldType,
		&f.Length,
		&f.DefaultValue,
		&primary,
		&ai,
		&nullable,
		&indexd,
		&f.Order,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	f.PrimaryField = models.Flag(primary)
	f.AI = models.Flag(ai)
	f.Nullable = models.Flag(nullable)
	f.IndexField = models.Flag(indexd)
	return f, err
}

func (s *PgStore) listFields(ctx context.Context, query string, arg int64) ([]models.Field, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := []models.Field{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	return fields, rows.Err()
}

func (s *PgStore) ListFields(ctx context.Context, tableID int64) ([]models.Field, error) {
	query := `
		SELECT ` + fieldColumns + `
		FROM designer_fields WHERE table_id = $1
		ORDER BY sort_order ASC, created_at ASC, id ASC
	`
	return s.listFields(ctx, query, tableID)
}

func (s *PgStore) ListFieldsByDatabase(ctx context.Context, databaseID int64) ([]models.Field, error) {
	query := `
		SELECT f.id, f.table_id, f.name, f.field_type, f.length, f.default_value,
			f.primary_field, f.ai, f.nullable, f.index_field, f.sort_order, f.created_at, f.updated_at
		FROM designer_fields f
		JOIN designer_tables t ON t.id = f.table_id
		WHERE t.database_id = $1
		ORDER BY f.table_id ASC, f.sort_order ASC, f.created_at ASC, f.id ASC
	`
	return s.listFields(ctx, query, databaseID)
}

func (s *PgStore) GetField(ctx context.Context, id int64) (*models.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM designer_fields WHERE id = $1`
	f, err := scanField(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (s *PgStore) CreateField(ctx context.Context, f *models.Field) error {
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now

	query := `
		INSERT INTO designer_fields (table_id, name, field_type, length, default_value,
			primary_field, ai, nullable, index_field, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := s.db.QueryRow(ctx, query,
		f.TableID,
		f.Name,
		f.FieldType,
		f.Length,
		f.DefaultValue,
		bool(f.PrimaryField),
		bool(f.AI),
		bool(f.Nullable),
		bool(f.IndexField),
		f.Order,
		f.CreatedAt,
		f.UpdatedAt,
	).Scan(&f.ID)

	return mapPgError(err)
}

func (s *PgStore) UpdateField(ctx context.Context, f *models.Field) error {
	f.UpdatedAt = time.Now()

	query := `
		UPDATE designer_fields SET
			name = $2, field_type = $3, length = $4, default_value = $5,
			primary_field = $6, ai = $7, nullable = $8, index_field = $9,
			sort_order = $10, updated_at = $11
		WHERE id = $1
	`
	_, err := s.db.Exec(ctx, query,
		f.ID,
		f.Name,
		f.FieldType,
		f.Length,
		f.DefaultValue,
		bool(f.PrimaryField),
		bool(f.AI),
		bool(f.Nullable),
		bool(f.IndexField),
		f.Order,
		f.UpdatedAt,
	)

	return mapPgError(err)
}

func (s *PgStore) DeleteField(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM designer_fields WHERE id = $1`, id)
	return mapPgError(err)
}

func (s *PgStore) DeleteFieldsByTable(ctx context.Context, tableID int64) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM designer_fields WHERE table_id = $1`, tableID)
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}
