package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		createUsersTable,
		createDatabasesTable,
		createDesignerTablesTable,
		createDesignerFieldsTable,
		createDesignerLinksTable,
	}

	for i, migration := range migrations {
		logrus.Debugf("running migration %d/%d", i+1, len(migrations))
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	logrus.Infof("applied %d migrations", len(migrations))
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const createDatabasesTable = `
CREATE TABLE IF NOT EXISTS databases (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_databases_user_id ON databases(user_id);
CREATE INDEX IF NOT EXISTS idx_databases_created_at ON databases(created_at, id);
`

const createDesignerTablesTable = `
CREATE TABLE IF NOT EXISTS designer_tables (
  id BIGSERIAL PRIMARY KEY,
  database_id BIGINT NOT NULL REFERENCES databases(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  x INTEGER,
  y INTEGER,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  UNIQUE (database_id, name)
);
`

const createDesignerFieldsTable = `
CREATE TABLE IF NOT EXISTS designer_fields (
  id BIGSERIAL PRIMARY KEY,
  table_id BIGINT NOT NULL REFERENCES designer_tables(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  field_type TEXT NOT NULL DEFAULT '',
  length INTEGER NOT NULL DEFAULT 0,
  default_value TEXT NOT NULL DEFAULT '',
  primary_field BOOLEAN NOT NULL DEFAULT FALSE,
  ai BOOLEAN NOT NULL DEFAULT FALSE,
  nullable BOOLEAN NOT NULL DEFAULT FALSE,
  index_field BOOLEAN NOT NULL DEFAULT FALSE,
  sort_order INTEGER NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  UNIQUE (table_id, name)
);

CREATE INDEX IF NOT EXISTS idx_designer_fields_order ON designer_fields(table_id, sort_order);
`

// Field references are NO ACTION: a field still used by a link cannot be
// deleted on its own.
const createDesignerLinksTable = `
CREATE TABLE IF NOT EXISTS designer_links (
  id BIGSERIAL PRIMARY KEY,
  database_id BIGINT NOT NULL REFERENCES databases(id) ON DELETE CASCADE,
  source_table_id BIGINT NOT NULL REFERENCES designer_tables(id) ON DELETE CASCADE,
  source_field_id BIGINT NOT NULL REFERENCES designer_fields(id),
  target_table_id BIGINT NOT NULL REFERENCES designer_tables(id) ON DELETE CASCADE,
  target_field_id BIGINT NOT NULL REFERENCES designer_fields(id),
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_designer_links_database_id ON designer_links(database_id);
CREATE INDEX IF NOT EXISTS idx_designer_links_source ON designer_links(source_table_id, source_field_id);
CREATE INDEX IF NOT EXISTS idx_designer_links_target ON designer_links(target_table_id, target_field_id);
`
