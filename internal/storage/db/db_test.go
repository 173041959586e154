package db_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

func setupClient(t *testing.T) *db.Client {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Skipf("Postgres not available: %v", err)
	}

	require.NoError(t, db.Migrate(ctx, pool, log.Discard()))

	_, err = pool.Exec(ctx, `TRUNCATE categories RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return db.NewClient(pool)
}

func countCategories(t *testing.T, client db.DB) int {
	t.Helper()

	var n int
	require.NoError(t, client.QueryRow(context.Background(), `SELECT count(*) FROM categories`).Scan(&n))
	return n
}

func TestClient(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	t.Run("Should report the latest schema version", func(t *testing.T) {
		version, err := db.SchemaVersion(ctx, client.Pool)
		require.NoError(t, err)
		assert.Equal(t, int64(3), version)
	})

	t.Run("Should report healthy", func(t *testing.T) {
		ok, err := client.IsHealthy(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, client.Connect(ctx))
	})

	t.Run("Should commit transaction", func(t *testing.T) {
		err := client.WithTx(ctx, func(tx db.DB) error {
			require.NoError(t, tx.Connect(ctx))
			_, err := tx.Exec(ctx, `INSERT INTO categories (name) VALUES ('Outils')`)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countCategories(t, client))
	})

	t.Run("Should roll back on error including nested calls", func(t *testing.T) {
		errBoom := errors.New("boom")

		err := client.WithTx(ctx, func(tx db.DB) error {
			return tx.WithTx(ctx, func(nested db.DB) error {
				if _, err := nested.Exec(ctx, `INSERT INTO categories (name) VALUES ('Jardin')`); err != nil {
					return err
				}
				return errBoom
			})
		})
		require.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, countCategories(t, client))
	})
}
