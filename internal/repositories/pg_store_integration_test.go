//go:build integration

package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"dbdesigner/internal/database"
	"dbdesigner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPgStore(t *testing.T) {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("dbdesigner"),
		postgres.WithUsername("designer"),
		postgres.WithPassword("designer"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.RunMigrations(ctx, pool))

	gdb, err := gorm.Open(gormpg.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	users := NewUserRepository(gdb)

	n := 0
	runStoreContract(t, func(t *testing.T) (Store, int64) {
		_, err := pool.Exec(ctx, `TRUNCATE designer_links, designer_fields, designer_tables, databases, users RESTART IDENTITY CASCADE`)
		require.NoError(t, err)

		n++
		user := &models.User{Email: fmt.Sprintf("owner%d@example.com", n), Name: "Owner"}
		require.NoError(t, users.Create(ctx, user))
		return NewPgStore(pool), user.ID
	})

	t.Run("user lookups", func(t *testing.T) {
		admin := &models.User{Email: "admin@example.com", Role: models.RoleAdmin}
		require.NoError(t, users.Create(ctx, admin))

		byID, err := users.FindUserByID(ctx, admin.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.True(t, byID.IsAdmin())

		byEmail, err := users.FindUserByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, admin.ID, byEmail.ID)

		missing, err := users.FindUserByID(ctx, admin.ID+100)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("lock waits for the holder", func(t *testing.T) {
		store := NewPgStore(pool)
		owner := &models.User{Email: "locker@example.com"}
		require.NoError(t, users.Create(ctx, owner))
		db := &models.Database{UserID: owner.ID, Name: "locked", Slug: "locked"}
		require.NoError(t, store.CreateDatabase(ctx, db))

		locked := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- store.Transaction(ctx, func(tx Store) error {
				if _, err := tx.LockDatabase(ctx, db.ID); err != nil {
					return err
				}
				close(locked)
				<-release
				return tx.CreateTable(ctx, &models.Table{DatabaseID: db.ID, Name: "first"})
			})
		}()
		<-locked

		second := make(chan error, 1)
		go func() {
			second <- store.Transaction(ctx, func(tx Store) error {
				if _, err := tx.LockDatabase(ctx, db.ID); err != nil {
					return err
				}
				tables, err := tx.ListTables(ctx, db.ID)
				if err != nil {
					return err
				}
				if len(tables) != 1 {
					return fmt.Errorf("saw %d tables", len(tables))
				}
				return nil
			})
		}()

		select {
		case err := <-second:
			t.Fatalf("second transaction did not wait for the lock: %v", err)
		case <-time.After(200 * time.Millisecond):
		}
		close(release)
		require.NoError(t, <-done)
		require.NoError(t, <-second)
	})
}
