package services

import (
	"context"
	"errors"
	"fmt"

	"dbdesigner/internal/models"
	"dbdesigner/internal/repositories"

	"github.com/sirupsen/logrus"
)

// TableService holds the single-entity operations on tables, fields and
// links. Deletes are the only way rows leave the schema.
type TableService struct {
	store repositories.Store
}

func NewTableService(store repositories.Store) *TableService {
	return &TableService{store: store}
}

// GetTable returns one table with its fields in display order.
func (s *TableService) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	t, err := s.store.GetTable(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	if t == nil {
		return nil, notFound(KindTable, id)
	}
	if t.Fields, err = s.store.ListFields(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	return t, nil
}

// DeleteTable removes the table, every link that uses it as source or
// target, and its fields, in that order.
func (s *TableService) DeleteTable(ctx context.Context, caller Caller, id int64, opts WriteOptions) error {
	if err := opts.check(); err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx repositories.Store) error {
		t, err := tx.GetTable(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return notFound(KindTable, id)
		}
		if err := s.authorizeDatabase(ctx, tx, caller, t.DatabaseID); err != nil {
			return err
		}

		links, err := tx.DeleteLinksByTable(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("failed to delete links of table %q: %w", t.Name, err)
		}
		fields, err := tx.DeleteFieldsByTable(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("failed to delete fields of table %q: %w", t.Name, err)
		}
		if err := tx.DeleteTable(ctx, t.ID); err != nil {
			return fmt.Errorf("failed to delete table %q: %w", t.Name, err)
		}

		logrus.WithFields(logrus.Fields{
			"table_id": t.ID,
			"table":    t.Name,
			"fields":   fields,
			"links":    links,
		}).Info("table deleted")
		return nil
	})
}

// DeleteField removes exactly one field. A field still used by a link is
// rejected with ErrConflict; the link has to be deleted first.
func (s *TableService) DeleteField(ctx context.Context, caller Caller, id int64, opts WriteOptions) error {
	if err := opts.check(); err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx repositories.Store) error {
		f, err := tx.GetField(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return notFound(KindField, id)
		}
		t, err := tx.GetTable(ctx, f.TableID)
		if err != nil {
			return err
		}
		if t == nil {
			return notFound(KindTable, f.TableID)
		}
		if err := s.authorizeDatabase(ctx, tx, caller, t.DatabaseID); err != nil {
			return err
		}

		n, err := tx.CountLinksByField(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: field %q is used by %d link(s)", ErrConflict, f.Name, n)
		}

		if err := tx.DeleteField(ctx, id); err != nil {
			return mapStoreError(err)
		}
		return nil
	})
}

func (s *TableService) DeleteLink(ctx context.Context, caller Caller, id int64, opts WriteOptions) error {
	if err := opts.check(); err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx repositories.Store) error {
		l, err := tx.GetLink(ctx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return notFound(KindLink, id)
		}
		if err := s.authorizeDatabase(ctx, tx, caller, l.DatabaseID); err != nil {
			return err
		}
		return tx.DeleteLink(ctx, id)
	})
}

func (s *TableService) authorizeDatabase(ctx context.Context, tx repositories.Store, caller Caller, databaseID int64) error {
	db, err := tx.LockDatabase(ctx, databaseID)
	if err != nil {
		return err
	}
	if db == nil {
		return notFound(KindDatabase, databaseID)
	}
	return authorize(caller, db)
}

func mapStoreError(err error) error {
	if errors.Is(err, repositories.ErrConflict) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
