package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

type CreateStockHistoryParams struct {
	ProductID      int64
	QuantityBefore int
	QuantityAfter  int
	MovementType   model.MovementType
}

type StockHistoryRepository interface {
	WithDB(db db.DB) StockHistoryRepository
	CreateStockHistory(ctx context.Context, params CreateStockHistoryParams) (model.StockHistory, error)
}

type stockHistoryRepository struct {
	db db.DB
}

func NewStockHistoryRepository(db db.DB) StockHistoryRepository {
	return &stockHistoryRepository{db: db}
}

func (r stockHistoryRepository) WithDB(db db.DB) StockHistoryRepository {
	return &stockHistoryRepository{db: db}
}

func (r stockHistoryRepository) CreateStockHistory(ctx context.Context, params CreateStockHistoryParams) (model.StockHistory, error) {
	if err := params.MovementType.Validate(); err != nil {
		return model.StockHistory{}, fmt.Errorf("validate movement type: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		INSERT INTO stock_histories (id_product, quantity_before, quantity_after, movement_type)
		VALUES (@product_id, @before, @after, @movement_type)
		RETURNING id_stock_history, id_product, quantity_before, quantity_after, movement_type, created_at
	`, pgx.NamedArgs{
		"product_id":    params.ProductID,
		"before":        params.QuantityBefore,
		"after":         params.QuantityAfter,
		"movement_type": string(params.MovementType),
	})
	if err != nil {
		return model.StockHistory{}, fmt.Errorf("insert stock history: %w", err)
	}

	history, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.StockHistory])
	if err != nil {
		return model.StockHistory{}, fmt.Errorf("insert stock history: %w", err)
	}

	return history, nil
}
