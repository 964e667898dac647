package services

import (
	"fmt"

	"dbdesigner/internal/models"
)

// Caller is the identity supplied by the auth layer.
type Caller struct {
	UserID int64
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// WriteOptions is passed to every write operation.
type WriteOptions struct {
	// Demo turns writes into no-ops answered with ErrReadOnlyMode.
	Demo bool
}

func (o WriteOptions) check() error {
	if o.Demo {
		return ErrReadOnlyMode
	}
	return nil
}

func authorize(caller Caller, db *models.Database) error {
	if caller.UserID == 0 {
		return ErrUnauthorized
	}
	if caller.IsAdmin() || db.UserID == caller.UserID {
		return nil
	}
	return fmt.Errorf("%w: database %d belongs to another user", ErrForbidden, db.ID)
}
