package repositories

import (
	"context"
	"errors"
	"time"

	"dbdesigner/internal/models"

	"github.com/jackc/pgx/v5"
)

const linkSelect = `
	SELECT l.id, l.database_id,
		l.source_table_id, l.source_field_id, l.target_table_id, l.target_field_id,
		st.name, sf.name, tt.name, tf.name,
		l.created_at, l.updated_at
	FROM designer_links l
	JOIN designer_tables st ON st.id = l.source_table_id
	JOIN designer_fields sf ON sf.id = l.source_field_id
	JOIN designer_tables tt ON tt.id = l.target_table_id
	JOIN designer_fields tf ON tf.id = l.target_field_id
`

func scanLink(row pgx.Row) (models.Link, error) {
	var l models.Link
	err := row.Scan(
		&l.ID,
		&l.DatabaseID,
		&l.SourceTableID,
		&l.SourceFieldID,
		&l.TargetTableID,
		&l.TargetFieldID,
		&l.SourceTable,
		&l.SourceField,
		&l.TargetTable,
		&l.TargetField,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}

func (s *PgStore) ListLinks(ctx context.Context, databaseID int64) ([]models.Link, error) {
	rows, err := s.db.Query(ctx, linkSelect+` WHERE l.database_id = $1 ORDER BY l.id ASC`, databaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}

	return links, rows.Err()
}

func (s *PgStore) GetLink(ctx context.Context, id int64) (*models.Link, error) {
	l, err := scanLink(s.db.QueryRow(ctx, linkSelect+` WHERE l.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (s *PgStore) CreateLink(ctx context.Context, l *models.Link) error {
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now

	query := `
		INSERT INTO designer_links (database_id, source_table_id, source_field_id,
			target_table_id, target_field_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.db.QueryRow(ctx, query,
		l.DatabaseID,
		l.SourceTableID,
		l.SourceFieldID,
		l.TargetTableID,
		l.TargetFieldID,
		l.CreatedAt,
		l.UpdatedAt,
	).Scan(&l.ID)

	return mapPgError(err)
}

func (s *PgStore) UpdateLink(ctx context.Context, l *models.Link) error {
	l.UpdatedAt = time.Now()

	query := `
		UPDATE designer_links SET
			source_table_id = $2, source_field_id = $3,
			target_table_id = $4, target_field_id = $5, updated_at = $6
		WHERE id = $1
	`
	_, err := s.db.Exec(ctx, query,
		l.ID,
		l.SourceTableID,
		l.SourceFieldID,
		l.TargetTableID,
		l.TargetFieldID,
		l.UpdatedAt,
	)

	return mapPgError(err)
}

func (s *PgStore) DeleteLink(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM designer_links WHERE id = $1`, id)
	return mapPgError(err)
}

func (s *PgStore) DeleteLinksByTable(ctx context.Context, tableID int64) (int64, error) {
	query := `DELETE FROM designer_links WHERE source_table_id = $1 OR target_table_id = $1`
	tag, err := s.db.Exec(ctx, query, tableID)
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) CountLinksByField(ctx context.Context, fieldID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM designer_links WHERE source_field_id = $1 OR target_field_id = $1`

	var n int64
	if err := s.db.QueryRow(ctx, query, fieldID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
