package services

import (
	"context"
	"fmt"
	"strings"

	"dbdesigner/internal/models"
	"dbdesigner/internal/repositories"
	"dbdesigner/internal/utils"
)

type DatabaseService struct {
	store repositories.Store
}

func NewDatabaseService(store repositories.Store) *DatabaseService {
	return &DatabaseService{store: store}
}

type CreateDatabaseRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateDatabaseRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *DatabaseService) CreateDatabase(ctx context.Context, caller Caller, req CreateDatabaseRequest, opts WriteOptions) (*models.Database, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if caller.UserID == 0 {
		return nil, ErrUnauthorized
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("database name is required")
	}

	db := &models.Database{
		UserID: caller.UserID,
		Name:   name,
		Slug:   utils.Slugify(name),
	}
	if err := s.store.CreateDatabase(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to save database: %w", mapStoreError(err))
	}

	return db, nil
}

// GetDatabase returns a database the caller may read.
func (s *DatabaseService) GetDatabase(ctx context.Context, caller Caller, id int64) (*models.Database, error) {
	db, err := s.store.GetDatabase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	if db == nil {
		return nil, notFound(KindDatabase, id)
	}
	if err := authorize(caller, db); err != nil {
		return nil, err
	}
	return db, nil
}

func (s *DatabaseService) UpdateDatabase(ctx context.Context, caller Caller, id int64, req UpdateDatabaseRequest, opts WriteOptions) (*models.Database, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("database name is required")
	}

	var db *models.Database
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		var err error
		if db, err = lockDatabase(ctx, tx, id); err != nil {
			return err
		}
		if err := authorize(caller, db); err != nil {
			return err
		}
		db.Name = name
		db.Slug = utils.Slugify(name)
		return mapStoreError(tx.UpdateDatabase(ctx, db))
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// DeleteDatabase removes the database with all of its tables, fields and
// links.
func (s *DatabaseService) DeleteDatabase(ctx context.Context, caller Caller, id int64, opts WriteOptions) error {
	if err := opts.check(); err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx repositories.Store) error {
		db, err := tx.LockDatabase(ctx, id)
		if err != nil {
			return err
		}
		if db == nil {
			return notFound(KindDatabase, id)
		}
		if err := authorize(caller, db); err != nil {
			return err
		}
		return tx.DeleteDatabase(ctx, id)
	})
}
