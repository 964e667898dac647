package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dbdesigner/internal/handlers"
	"dbdesigner/internal/middlewares"
	"dbdesigner/internal/models"
	"dbdesigner/internal/repositories"
	"dbdesigner/internal/routes"
	"dbdesigner/internal/services"
	"dbdesigner/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("handler-secret")

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type fakeRevoker struct {
	revoked map[string]time.Duration
}

func (f *fakeRevoker) Blacklist(_ context.Context, jti string, ttl time.Duration) error {
	f.revoked[jti] = ttl
	return nil
}

type fakeUsers map[int64]*models.User

func (f fakeUsers) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	return f[id], nil
}

type testAPI struct {
	t       *testing.T
	router  *gin.Engine
	store   *repositories.MemoryStore
	revoker *fakeRevoker
}

func newAPI(t *testing.T, demo bool) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositories.NewMemoryStore()
	reconcile := services.NewReconcileService(store)
	revoker := &fakeRevoker{revoked: map[string]time.Duration{}}

	h := routes.Handlers{
		Schema:   handlers.NewSchemaHandler(services.NewSchemaService(store), reconcile, demo),
		Table:    handlers.NewTableHandler(services.NewTableService(store), reconcile, demo),
		Database: handlers.NewDatabaseHandler(services.NewDatabaseService(store), demo),
		Demo:     handlers.NewDemoHandler(demo),
		Token:    handlers.NewTokenHandler(revoker, time.Hour),
	}
	users := fakeUsers{
		1: {ID: 1, Role: models.RoleUser},
		2: {ID: 2, Role: models.RoleUser},
		3: {ID: 3, Role: models.RoleAdmin},
	}

	router := gin.New()
	routes.RegisterRoutes(router, h, middlewares.Authenticate(middlewares.AuthConfig{Secret: secret, Users: users}))
	return &testAPI{t: t, router: router, store: store, revoker: revoker}
}

func (a *testAPI) do(userID int64, method, path string, body any) (int, envelope) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, _, err := utils.GenerateAccessToken(secret, userID, time.Hour)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestSchemaFlow(t *testing.T) {
	api := newAPI(t, false)

	code, env := api.do(1, http.MethodPost, "/api/v1/databases", map[string]string{"name": "Shop"})
	require.Equal(t, http.StatusCreated, code)
	db := decode[models.Database](t, env.Data)
	assert.Equal(t, "shop", db.Slug)

	payload := fmt.Sprintf(`{"id": %d, "tables": [
		{"id": "tmp-1", "name": "users", "position": {"x": 40, "y": 80}, "fields": [
			{"name": "id", "field_type": "INT", "primary_field": "1", "ai": true},
			{"name": "email", "field_type": "VARCHAR", "lenght": 255}
		]},
		{"name": "posts", "fields": [{"name": "id"}, {"name": "user_id"}]}
	], "links": [
		{"sourceTable": "posts", "sourceField": "user_id", "targetTable": "users", "targetField": "id"}
	]}`, db.ID)
	code, env = api.do(1, http.MethodPost, "/api/v1/update-tables", payload)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, "Tables update successfully!", env.Message)
	result := decode[services.ReconcileResult](t, env.Data)
	assert.Equal(t, services.Counts{Inserted: 2}, result.Tables)
	assert.Equal(t, services.Counts{Inserted: 4}, result.Fields)
	assert.Equal(t, services.Counts{Inserted: 1}, result.Links)

	code, env = api.do(1, http.MethodGet, "/api/v1/tables?database_id=0", nil)
	require.Equal(t, http.StatusOK, code)
	var schema struct {
		DatabaseID int64 `json:"database_id"`
		Tables     []struct {
			ID     int64            `json:"id"`
			Name   string           `json:"name"`
			Fields []map[string]any `json:"fields"`
		} `json:"tables"`
		Links []map[string]any `json:"links"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &schema))
	assert.Equal(t, db.ID, schema.DatabaseID)
	require.Len(t, schema.Tables, 2)
	assert.Equal(t, "users", schema.Tables[0].Name)
	assert.Equal(t, float64(1), schema.Tables[0].Fields[0]["primary_field"])
	assert.Equal(t, float64(255), schema.Tables[0].Fields[1]["lenght"])
	require.Len(t, schema.Links, 1)
	assert.Equal(t, "posts", schema.Links[0]["sourceTable"])

	usersID := result.TableIDs[0]
	code, env = api.do(1, http.MethodPatch, fmt.Sprintf("/api/v1/tables/%d", usersID),
		`{"position": {"x": 1, "y": 2}, "fields": [{"name": "created_at", "field_type": "TIMESTAMP"}]}`)
	require.Equal(t, http.StatusOK, code, env.Error)
	table := decode[models.Table](t, env.Data)
	assert.Equal(t, 1, *table.X)
	require.Len(t, table.Fields, 3)
	assert.Equal(t, 3, table.Fields[2].Order)

	code, env = api.do(1, http.MethodGet, fmt.Sprintf("/api/v1/tables/%d", usersID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "users", decode[models.Table](t, env.Data).Name)

	userIDField := decode[models.Table](t, mustGet(t, api, fmt.Sprintf("/api/v1/tables/%d", result.TableIDs[1]))).Fields[1]
	code, _ = api.do(1, http.MethodDelete, fmt.Sprintf("/api/v1/fields/%d", userIDField.ID), nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = api.do(1, http.MethodDelete, fmt.Sprintf("/api/v1/links/%d", result.LinkIDs[0]), nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(1, http.MethodDelete, fmt.Sprintf("/api/v1/fields/%d", userIDField.ID), nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = api.do(1, http.MethodDelete, fmt.Sprintf("/api/v1/tables/%d", usersID), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, fmt.Sprintf(`{"id": %d}`, usersID), string(env.Data))

	code, _ = api.do(1, http.MethodGet, fmt.Sprintf("/api/v1/tables/%d", usersID), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func mustGet(t *testing.T, api *testAPI, path string) json.RawMessage {
	t.Helper()

	code, env := api.do(1, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	return env.Data
}

func TestSchemaErrors(t *testing.T) {
	api := newAPI(t, false)

	code, _ := api.do(1, http.MethodGet, "/api/v1/tables", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(1, http.MethodGet, "/api/v1/tables?database_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(1, http.MethodPost, "/api/v1/databases", map[string]string{"name": "Shop"})
	require.Equal(t, http.StatusCreated, code)

	code, _ = api.do(1, http.MethodGet, "/api/v1/tables?database_id=99", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(1, http.MethodPost, "/api/v1/update-tables", `{"tables": [`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := api.do(1, http.MethodPost, "/api/v1/update-tables",
		`{"id": 0, "tables": [{"name": "users", "fields": [{"name": "id"}, {"name": " "}]}]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"kind": "field", "index": 1, "table_index": 0}`, string(env.Data))

	code, env = api.do(1, http.MethodPost, "/api/v1/update-tables", `{"id": "abc", "tables": [{"name": "users"}]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, env.Data)

	code, _ = api.do(1, http.MethodPost, "/api/v1/update-tables", `{"tables": [{"name": "users"}]}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(2, http.MethodPost, "/api/v1/update-tables", `{"id": 0, "tables": [{"name": "users"}]}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(3, http.MethodPost, "/api/v1/update-tables", `{"id": 0, "tables": [{"name": "user accounts"}]}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(1, http.MethodDelete, "/api/v1/tables/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRoutesRequireToken(t *testing.T) {
	api := newAPI(t, false)

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/tables"},
		{http.MethodPost, "/api/v1/update-tables"},
		{http.MethodGet, "/api/v1/tables/1"},
		{http.MethodDelete, "/api/v1/fields/1"},
		{http.MethodDelete, "/api/v1/links/1"},
		{http.MethodPost, "/api/v1/databases"},
		{http.MethodGet, "/api/v1/demo-mode"},
	} {
		req := httptest.NewRequest(r.method, r.path, nil)
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, r.path)
	}
}

func TestDemoMode(t *testing.T) {
	api := newAPI(t, true)
	require.NoError(t, api.store.CreateDatabase(context.Background(), &models.Database{UserID: 1, Name: "shop"}))

	code, env := api.do(1, http.MethodGet, "/api/v1/demo-mode", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"demo": true}`, string(env.Data))

	code, env = api.do(1, http.MethodPost, "/api/v1/update-tables", `{"tables": [{"name": "users"}]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "demo", env.Status)
	assert.Equal(t, "Demo mode", env.Message)

	tables, err := api.store.ListTables(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestRevokeToken(t *testing.T) {
	api := newAPI(t, false)

	code, _ := api.do(1, http.MethodDelete, "/api/v1/admin/tokens/abc", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Empty(t, api.revoker.revoked)

	code, env := api.do(3, http.MethodDelete, "/api/v1/admin/tokens/abc", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"jti": "abc"}`, string(env.Data))
	assert.Equal(t, time.Hour, api.revoker.revoked["abc"])
}
