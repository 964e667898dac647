package models

import (
	"strings"
	"time"
)

// Database is a named schema design owned by a user.
type Database struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Database) Prepare() {
	d.Name = strings.TrimSpace(d.Name)
	d.Slug = strings.TrimSpace(d.Slug)
}
