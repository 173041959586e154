package repository_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

// setupTestDB migrates the database at TEST_DATABASE_URL and empties it, or skips.
func setupTestDB(t *testing.T) *db.Client {
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

	_, err = pool.Exec(ctx, `
		TRUNCATE outbox_messages, order_returns, wishlists, carts, product_reviews,
			order_details, stock_histories, products, categories
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO categories (name) VALUES ('Outils'), ('Jardin')`)
	require.NoError(t, err)

	return db.NewClient(pool)
}

func createProduct(t *testing.T, repo repository.ProductRepository, code string, categoryID int64) model.Product {
	t.Helper()

	p, err := repo.CreateProduct(context.Background(), repository.CreateProductParams{
		Name:        "Produit " + code,
		CodeProduct: code,
		Price:       decimal.RequireFromString("9.99"),
		Stock:       5,
		CategoryID:  categoryID,
	})
	require.NoError(t, err)

	return p
}

func TestProductRepository(t *testing.T) {
	client := setupTestDB(t)
	ctx := context.Background()
	repo := repository.NewProductRepository(client)

	first := createProduct(t, repo, "A1", 1)
	second := createProduct(t, repo, "A2", 2)
	third := createProduct(t, repo, "A3", 1)

	t.Run("Should reject duplicate product code", func(t *testing.T) {
		_, err := repo.CreateProduct(ctx, repository.CreateProductParams{
			Name:        "Doublon",
			CodeProduct: "A1",
			Price:       decimal.NewFromInt(1),
			Stock:       1,
			CategoryID:  1,
		})
		assert.ErrorIs(t, err, repository.ErrDuplicateProductCode)
	})

	t.Run("Should reject unknown category", func(t *testing.T) {
		_, err := repo.CreateProduct(ctx, repository.CreateProductParams{
			Name:        "Orphelin",
			CodeProduct: "Z9",
			Price:       decimal.NewFromInt(1),
			Stock:       1,
			CategoryID:  999,
		})
		assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
	})

	t.Run("Should soft delete only once", func(t *testing.T) {
		deleted, err := repo.SoftDeleteProduct(ctx, second.ID)
		require.NoError(t, err)
		assert.True(t, deleted.IsDeleted)

		_, err = repo.SoftDeleteProduct(ctx, second.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = repo.GetProduct(ctx, repository.GetProductParams{ID: second.ID})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Should count deleted rows but list only active ones", func(t *testing.T) {
		total, err := repo.CountProducts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)

		products, err := repo.ListProducts(ctx, repository.ListProductsParams{Offset: 0, Limit: 10})
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, first.ID, products[0].ID)
		assert.Equal(t, third.ID, products[1].ID)
	})

	t.Run("Should page after cursor", func(t *testing.T) {
		products, err := repo.ListProductsAfter(ctx, repository.ListProductsAfterParams{Limit: 1})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, first.ID, products[0].ID)

		products, err = repo.ListProductsAfter(ctx, repository.ListProductsAfterParams{Cursor: &first.ID, Limit: 5})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, third.ID, products[0].ID)
	})

	t.Run("Should search case-insensitively with literal wildcards", func(t *testing.T) {
		details, err := repo.SearchProductDetails(ctx, repository.SearchProductsParams{Query: "produit a", Limit: 10})
		require.NoError(t, err)
		require.Len(t, details, 2)
		require.NotNil(t, details[0].Category)
		assert.Equal(t, "Outils", details[0].Category.Name)
		assert.Empty(t, details[0].OrderDetails)

		details, err = repo.SearchProductDetails(ctx, repository.SearchProductsParams{Query: "%", Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, details)
	})

	t.Run("Should list by category name", func(t *testing.T) {
		products, err := repo.ListProductsByCategory(ctx, repository.ListProductsByCategoryParams{
			CategoryName: "Outils",
			Offset:       1,
			Limit:        10,
		})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, third.ID, products[0].ID)
	})

	t.Run("Should update inside a transaction", func(t *testing.T) {
		err := client.WithTx(ctx, func(tx db.DB) error {
			txRepo := repo.WithDB(tx)
			current, err := txRepo.GetProduct(ctx, repository.GetProductParams{ID: first.ID, ForUpdate: true})
			if err != nil {
				return err
			}

			updated, err := txRepo.UpdateProduct(ctx, repository.UpdateProductParams{
				ID:          current.ID,
				Name:        "Renommé",
				Description: ptr.New(""),
				Price:       decimal.Zero,
				Stock:       0,
				CategoryID:  2,
			})
			if err != nil {
				return err
			}
			assert.Equal(t, "Renommé", updated.Name)
			assert.True(t, updated.Price.IsZero())
			return nil
		})
		require.NoError(t, err)

		detail, err := repo.GetProductDetail(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jardin", detail.Category.Name)
		assert.Equal(t, "", *detail.Description)
	})

	t.Run("Should treat ids beyond int32 as missing", func(t *testing.T) {
		const bigID int64 = 3_000_000_000

		_, err := repo.GetProductDetail(ctx, bigID)
		require.ErrorIs(t, err, repository.ErrNotFound)

		_, err = repo.GetProduct(ctx, repository.GetProductParams{ID: bigID})
		require.ErrorIs(t, err, repository.ErrNotFound)

		_, err = repo.SoftDeleteProduct(ctx, bigID)
		require.ErrorIs(t, err, repository.ErrNotFound)

		products, err := repo.ListProductsAfter(ctx, repository.ListProductsAfterParams{Cursor: ptr.New(bigID), Limit: 6})
		require.NoError(t, err)
		assert.Empty(t, products)

		_, err = repo.UpdateProduct(ctx, repository.UpdateProductParams{
			ID:         first.ID,
			Name:       "Renommé",
			Price:      decimal.Zero,
			CategoryID: bigID,
		})
		require.ErrorIs(t, err, repository.ErrCategoryNotFound)
	})
}

func TestStockHistoryRepository(t *testing.T) {
	client := setupTestDB(t)
	ctx := context.Background()
	product := createProduct(t, repository.NewProductRepository(client), "S1", 1)

	repo := repository.NewStockHistoryRepository(client)
	history, err := repo.CreateStockHistory(ctx, repository.CreateStockHistoryParams{
		ProductID:      product.ID,
		QuantityBefore: 0,
		QuantityAfter:  5,
		MovementType:   model.MovementTypeAdded,
	})
	require.NoError(t, err)
	assert.Equal(t, model.MovementTypeAdded, history.MovementType)
	assert.Equal(t, 5, history.QuantityAfter)

	_, err = repo.CreateStockHistory(ctx, repository.CreateStockHistoryParams{
		ProductID:    product.ID,
		MovementType: "moved",
	})
	assert.Error(t, err)
}

func TestOutboxMsgRepository(t *testing.T) {
	client := setupTestDB(t)
	ctx := context.Background()
	repo := repository.NewOutboxMsgRepository(client)

	require.NoError(t, repo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        "product.created",
		Headers:      map[string]string{"X-Correlation-ID": "corr-1"},
		Payload:      json.RawMessage(`{"id_product":1}`),
		PartitionKey: ptr.New("1"),
	}))

	err := client.WithTx(ctx, func(tx db.DB) error {
		msgs, err := repo.WithDB(tx).ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{BatchSize: 10})
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "corr-1", msgs[0].Headers["X-Correlation-ID"])
		assert.Equal(t, "1", *msgs[0].PartitionKey)

		return repo.WithDB(tx).BulkUpdateOutboxMsgs(ctx, repository.BulkUpdateOutboxMsgsParams{
			Items: []repository.BulkUpdateOutboxMsgsItem{{ID: msgs[0].ID}},
		})
	})
	require.NoError(t, err)

	msgs, err := repo.ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{BatchSize: 10})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
