package event

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
)

const (
	TopicProductCreated = "product.created"
	TopicProductUpdated = "product.updated"
	TopicProductDeleted = "product.deleted"
)

type ProductCreatedEvent struct {
	ProductID   int64           `json:"id_product"`
	Name        string          `json:"name"`
	CodeProduct string          `json:"codeProduct"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"id_category"`
	Image       *string         `json:"image"`
}

type ProductUpdatedEvent struct {
	ProductID     int64           `json:"id_product"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	PreviousStock int             `json:"previous_stock"`
	CategoryID    int64           `json:"id_category"`
	Image         *string         `json:"image"`
}

type ProductDeletedEvent struct {
	ProductID   int64  `json:"id_product"`
	CodeProduct string `json:"codeProduct"`
}

func NewProductCreatedEvent(p model.Product) ProductCreatedEvent {
	return ProductCreatedEvent{
		ProductID:   p.ID,
		Name:        p.Name,
		CodeProduct: p.CodeProduct,
		Price:       p.Price,
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		Image:       p.Image,
	}
}

func NewProductUpdatedEvent(p model.Product, previousStock int) ProductUpdatedEvent {
	return ProductUpdatedEvent{
		ProductID:     p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Stock:         p.Stock,
		PreviousStock: previousStock,
		CategoryID:    p.CategoryID,
		Image:         p.Image,
	}
}

func NewProductDeletedEvent(p model.Product) ProductDeletedEvent {
	return ProductDeletedEvent{
		ProductID:   p.ID,
		CodeProduct: p.CodeProduct,
	}
}

func (s *Service) handleProductCreatedEvent(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "product created",
		slog.Int64("id_product", ev.ProductID),
		slog.String("code_product", ev.CodeProduct),
	)
	return nil
}

func (s *Service) handleProductUpdatedEvent(ctx context.Context, ev ProductUpdatedEvent) error {
	s.logger.InfoContext(ctx, "product updated",
		slog.Int64("id_product", ev.ProductID),
		slog.Int("stock", ev.Stock),
		slog.Int("previous_stock", ev.PreviousStock),
	)
	return s.evict(ctx, ev.ProductID)
}

func (s *Service) handleProductDeletedEvent(ctx context.Context, ev ProductDeletedEvent) error {
	s.logger.InfoContext(ctx, "product deleted", slog.Int64("id_product", ev.ProductID))
	return s.evict(ctx, ev.ProductID)
}
