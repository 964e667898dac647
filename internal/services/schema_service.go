package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"dbdesigner/internal/models"
	"dbdesigner/internal/repositories"
)

type SchemaService struct {
	store repositories.Store
}

func NewSchemaService(store repositories.Store) *SchemaService {
	return &SchemaService{store: store}
}

// GetSchema returns the table/field/link graph of a database. rawID is
// the id as received; "0" selects the earliest created database. Every
// call reads from the store.
func (s *SchemaService) GetSchema(ctx context.Context, rawID string) (*models.Schema, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id < 0 {
		return nil, invalid("database_id %q is not a valid identifier", rawID)
	}

	var db *models.Database
	if id == 0 {
		db, err = s.store.GetEarliestDatabase(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database: %w", err)
		}
		if db == nil {
			return nil, fmt.Errorf("%w: no databases found", ErrNotFound)
		}
	} else {
		db, err = s.store.GetDatabase(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get database: %w", err)
		}
		if db == nil {
			return nil, notFound(KindDatabase, id)
		}
	}

	tables, err := s.store.ListTables(ctx, db.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	fields, err := s.store.ListFieldsByDatabase(ctx, db.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	links, err := s.store.ListLinks(ctx, db.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	// fields arrive ordered within each table.
	byTable := make(map[int64][]models.Field, len(tables))
	for _, f := range fields {
		byTable[f.TableID] = append(byTable[f.TableID], f)
	}
	for i := range tables {
		tables[i].Fields = byTable[tables[i].ID]
		if tables[i].Fields == nil {
			tables[i].Fields = []models.Field{}
		}
	}

	return &models.Schema{
		DatabaseID: db.ID,
		Tables:     tables,
		Links:      links,
	}, nil
}
