package services

import (
	"context"
	"encoding/json"
	"testing"

	"dbdesigner/internal/models"
	"dbdesigner/internal/repositories"

	"github.com/stretchr/testify/require"
)

var (
	owner    = Caller{UserID: 1, Role: models.RoleUser}
	stranger = Caller{UserID: 2, Role: models.RoleUser}
	admin    = Caller{UserID: 3, Role: models.RoleAdmin}
)

func newTestStore(t *testing.T) (*repositories.MemoryStore, *models.Database) {
	t.Helper()

	store := repositories.NewMemoryStore()
	db := &models.Database{UserID: owner.UserID, Name: "shop", Slug: "shop"}
	require.NoError(t, store.CreateDatabase(context.Background(), db))
	return store, db
}

func decodeRequest(t *testing.T, body string) *ReconcileRequest {
	t.Helper()

	var req ReconcileRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func fieldsOf(t *testing.T, store repositories.Store, tableID int64) []models.Field {
	t.Helper()

	fields, err := store.ListFields(context.Background(), tableID)
	require.NoError(t, err)
	return fields
}

func tableByName(t *testing.T, store repositories.Store, databaseID int64, name string) models.Table {
	t.Helper()

	tables, err := store.ListTables(context.Background(), databaseID)
	require.NoError(t, err)
	for _, tbl := range tables {
		if tbl.Name == name {
			return tbl
		}
	}
	t.Fatalf("table %q not found", name)
	return models.Table{}
}

func names(fields []models.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func orders(fields []models.Field) []int {
	out := make([]int, len(fields))
	for i, f := range fields {
		out[i] = f.Order
	}
	return out
}

func newEmptyStore() *repositories.MemoryStore {
	return repositories.NewMemoryStore()
}
