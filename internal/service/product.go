package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/upload"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
	"github.com/tuanvumaihuynh/product-catalog/pkg/zerror"
)

const (
	DefaultListLimit     = 6
	DefaultSearchLimit   = 10
	DefaultCategoryPage  = 1
	DefaultCategoryLimit = 20
)

type ListProductsParams struct {
	Offset int `validate:"gte=0"`
	Limit  int `validate:"gt=0"`
}

type ListProductsResult struct {
	Products   []model.Product
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}

type ListProductsByCursorParams struct {
	Cursor *int64
	Limit  int `validate:"gt=0"`
}

type ListProductsByCursorResult struct {
	Products   []model.Product
	Limit      int
	Total      int64
	NextCursor *int64
}

type SearchProductsParams struct {
	Query string `validate:"notblank"`
	Limit int    `validate:"gt=0"`
}

// CreateProductParams holds raw form values. Numeric fields are parsed by CreateProduct.
type CreateProductParams struct {
	Name        string `validate:"required"`
	Description *string
	CodeProduct string `validate:"required"`
	Price       string `validate:"required"`
	Stock       string `validate:"required"`
	CategoryID  string `validate:"required"`
	Image       *upload.File
}

type CreateProductResult struct {
	Product      model.Product
	StockHistory model.StockHistory
}

type UpdateProductParams struct {
	ID          int64
	Name        Field[string]
	Description Field[*string]
	Price       Field[decimal.Decimal]
	Stock       Field[int]
	Image       Field[*string]
	CategoryID  Field[int64]
}

type ListProductsByCategoryParams struct {
	CategoryName string
	Page         int `validate:"gt=0"`
	Limit        int `validate:"gt=0"`
}

type ProductService interface {
	ListProducts(ctx context.Context, params ListProductsParams) (ListProductsResult, error)
	ListProductsByCursor(ctx context.Context, params ListProductsByCursorParams) (ListProductsByCursorResult, error)
	SearchProducts(ctx context.Context, params SearchProductsParams) ([]model.ProductDetail, error)
	GetProduct(ctx context.Context, id int64) (model.ProductDetail, error)
	CreateProduct(ctx context.Context, params CreateProductParams) (CreateProductResult, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (model.Product, error)
	ListProductsByCategory(ctx context.Context, params ListProductsByCategoryParams) ([]model.Product, error)
}

type productService struct {
	db               db.DB
	validator        validator.Validator
	productRepo      repository.ProductRepository
	stockHistoryRepo repository.StockHistoryRepository
	outboxMsgRepo    repository.OutboxMsgRepository
	cache            cache.ProductCache
	uploader         upload.Uploader
	logger           *slog.Logger
}

func NewProductService(
	db db.DB,
	validator validator.Validator,
	productRepo repository.ProductRepository,
	stockHistoryRepo repository.StockHistoryRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	cache cache.ProductCache,
	uploader upload.Uploader,
	logger *slog.Logger,
) ProductService {
	return &productService{
		db:               db,
		validator:        validator,
		productRepo:      productRepo,
		stockHistoryRepo: stockHistoryRepo,
		outboxMsgRepo:    outboxMsgRepo,
		cache:            cache,
		uploader:         uploader,
		logger:           logger.With(slog.String("service", "product")),
	}
}

func (s *productService) ListProducts(ctx context.Context, params ListProductsParams) (ListProductsResult, error) {
	if err := s.validator.Validate(params); err != nil {
		return ListProductsResult{}, apperr.ErrInvalidPagination.WrapParent(err)
	}

	products, err := s.productRepo.ListProducts(ctx, repository.ListProductsParams{
		Offset: params.Offset,
		Limit:  params.Limit,
	})
	if err != nil {
		return ListProductsResult{}, fmt.Errorf("product repository list products: %w", err)
	}

	total, err := s.productRepo.CountProducts(ctx)
	if err != nil {
		return ListProductsResult{}, fmt.Errorf("product repository count products: %w", err)
	}

	return ListProductsResult{
		Products:   products,
		Page:       pageNumber(params.Offset, params.Limit),
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages(total, params.Limit),
	}, nil
}

func (s *productService) ListProductsByCursor(ctx context.Context, params ListProductsByCursorParams) (ListProductsByCursorResult, error) {
	if err := s.validator.Validate(params); err != nil {
		return ListProductsByCursorResult{}, apperr.ErrInvalidLimit.WrapParent(err)
	}

	products, err := s.productRepo.ListProductsAfter(ctx, repository.ListProductsAfterParams{
		Cursor: params.Cursor,
		Limit:  params.Limit,
	})
	if err != nil {
		return ListProductsByCursorResult{}, fmt.Errorf("product repository list products after: %w", err)
	}

	total, err := s.productRepo.CountProducts(ctx)
	if err != nil {
		return ListProductsByCursorResult{}, fmt.Errorf("product repository count products: %w", err)
	}

	var nextCursor *int64
	if len(products) > 0 {
		nextCursor = ptr.New(products[len(products)-1].ID)
	}

	return ListProductsByCursorResult{
		Products:   products,
		Limit:      params.Limit,
		Total:      total,
		NextCursor: nextCursor,
	}, nil
}

func (s *productService) SearchProducts(ctx context.Context, params SearchProductsParams) ([]model.ProductDetail, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, apperr.ErrEmptySearchQuery
	}
	if err := s.validator.Validate(params); err != nil {
		return nil, apperr.ErrInvalidLimit.WrapParent(err)
	}

	if err := s.db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	products, err := s.productRepo.SearchProductDetails(ctx, repository.SearchProductsParams{
		Query: params.Query,
		Limit: params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("product repository search products: %w", err)
	}

	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id int64) (model.ProductDetail, error) {
	ctx = log.WithProductID(ctx, id)

	cached, ok, err := s.cache.GetProduct(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "error reading cached product", slog.Any("error", err))
	} else if ok {
		return cached, nil
	}

	product, err := s.productRepo.GetProductDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ProductDetail{}, apperr.ErrProductNotFound
		}
		return model.ProductDetail{}, fmt.Errorf("product repository get product detail: %w", err)
	}

	if err := s.cache.SetProduct(ctx, product); err != nil {
		s.logger.WarnContext(ctx, "error caching product", slog.Any("error", err))
	}

	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (_ CreateProductResult, err error) {
	var image *string
	if params.Image != nil {
		stored, storeErr := s.uploader.Store(ctx, *params.Image)
		if storeErr != nil {
			if errors.Is(storeErr, upload.ErrUnsupportedType) || errors.Is(storeErr, upload.ErrFileTooLarge) {
				return CreateProductResult{}, apperr.ErrInvalidImage.WithMsg(storeErr.Error()).WrapParent(storeErr)
			}
			return CreateProductResult{}, fmt.Errorf("uploader store: %w", storeErr)
		}
		image = &stored.Path

		defer func() {
			if err == nil {
				return
			}
			if rmErr := s.uploader.Remove(context.WithoutCancel(ctx), stored); rmErr != nil {
				s.logger.ErrorContext(ctx, "error removing uploaded image",
					slog.String("path", stored.Path),
					slog.Any("error", rmErr),
				)
			}
		}()
	}

	if err := s.validator.Validate(params); err != nil {
		return CreateProductResult{}, apperr.ErrMissingRequiredFields.WrapParent(err)
	}

	exists, err := s.productRepo.ExistsProductByCode(ctx, params.CodeProduct)
	if err != nil {
		return CreateProductResult{}, fmt.Errorf("product repository exists product by code: %w", err)
	}
	if exists {
		return CreateProductResult{}, duplicateCodeError(params.CodeProduct)
	}

	price, stock, categoryID, err := parseNumericFields(params)
	if err != nil {
		return CreateProductResult{}, apperr.ErrInvalidNumericFields.WrapParent(err)
	}

	var result CreateProductResult
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		product, err := s.productRepo.
			WithDB(db).
			CreateProduct(ctx, repository.CreateProductParams{
				Name:        params.Name,
				Description: params.Description,
				CodeProduct: params.CodeProduct,
				Price:       price,
				Stock:       stock,
				Image:       image,
				CategoryID:  categoryID,
			})
		if err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		history, err := s.stockHistoryRepo.
			WithDB(db).
			CreateStockHistory(ctx, repository.CreateStockHistoryParams{
				ProductID:      product.ID,
				QuantityBefore: 0,
				QuantityAfter:  product.Stock,
				MovementType:   model.MovementTypeAdded,
			})
		if err != nil {
			return fmt.Errorf("stock history repository create stock history: %w", err)
		}

		if err := s.writeEvent(ctx, db, event.TopicProductCreated, product.ID, event.NewProductCreatedEvent(product)); err != nil {
			return err
		}

		result = CreateProductResult{Product: product, StockHistory: history}
		return nil
	}); err != nil {
		return CreateProductResult{}, s.mapWriteError(err, params.CodeProduct)
	}

	return result, nil
}

func (s *productService) UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error) {
	ctx = log.WithProductID(ctx, params.ID)

	var updated model.Product
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		current, err := s.productRepo.
			WithDB(db).
			GetProduct(ctx, repository.GetProductParams{ID: params.ID, ForUpdate: true})
		if err != nil {
			return fmt.Errorf("product repository get product: %w", err)
		}

		if params.Price.Set && params.Price.Value.IsNegative() {
			return apperr.ErrInvalidNumericFields
		}
		if params.Stock.Set && (params.Stock.Value < 0 || params.Stock.Value > math.MaxInt32) {
			return apperr.ErrInvalidNumericFields
		}

		updated, err = s.productRepo.
			WithDB(db).
			UpdateProduct(ctx, repository.UpdateProductParams{
				ID:          current.ID,
				Name:        params.Name.Or(current.Name),
				Description: params.Description.Or(current.Description),
				Price:       params.Price.Or(current.Price),
				Stock:       params.Stock.Or(current.Stock),
				Image:       params.Image.Or(current.Image),
				CategoryID:  params.CategoryID.Or(current.CategoryID),
			})
		if err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		if updated.Stock != current.Stock {
			if _, err := s.stockHistoryRepo.
				WithDB(db).
				CreateStockHistory(ctx, repository.CreateStockHistoryParams{
					ProductID:      updated.ID,
					QuantityBefore: current.Stock,
					QuantityAfter:  updated.Stock,
					MovementType:   model.MovementTypeAdjusted,
				}); err != nil {
				return fmt.Errorf("stock history repository create stock history: %w", err)
			}
		}

		return s.writeEvent(ctx, db, event.TopicProductUpdated, updated.ID, event.NewProductUpdatedEvent(updated, current.Stock))
	}); err != nil {
		return model.Product{}, s.mapWriteError(err, "")
	}

	s.evict(ctx, updated.ID)

	return updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id int64) (model.Product, error) {
	ctx = log.WithProductID(ctx, id)

	var deleted model.Product
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		var err error
		deleted, err = s.productRepo.
			WithDB(db).
			SoftDeleteProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("product repository soft delete product: %w", err)
		}

		return s.writeEvent(ctx, db, event.TopicProductDeleted, deleted.ID, event.NewProductDeletedEvent(deleted))
	}); err != nil {
		return model.Product{}, s.mapWriteError(err, "")
	}

	s.evict(ctx, deleted.ID)

	return deleted, nil
}

func (s *productService) ListProductsByCategory(ctx context.Context, params ListProductsByCategoryParams) ([]model.Product, error) {
	if err := s.validator.Validate(params); err != nil {
		return nil, apperr.ErrInvalidCategoryPagination.WrapParent(err)
	}

	offset, ok := offsetForPage(params.Page, params.Limit)
	if !ok {
		return nil, apperr.ErrInvalidCategoryPagination
	}

	products, err := s.productRepo.ListProductsByCategory(ctx, repository.ListProductsByCategoryParams{
		CategoryName: params.CategoryName,
		Offset:       offset,
		Limit:        params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("product repository list products by category: %w", err)
	}

	return products, nil
}

// writeEvent stores ev in the outbox within the caller's transaction.
func (s *productService) writeEvent(ctx context.Context, db db.DB, topic string, productID int64, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	if err := s.outboxMsgRepo.
		WithDB(db).
		CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        topic,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      payload,
			PartitionKey: ptr.New(strconv.FormatInt(productID, 10)),
		}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}

func (s *productService) evict(ctx context.Context, id int64) {
	if err := s.cache.DeleteProduct(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "error evicting cached product", slog.Any("error", err))
	}
}

func (s *productService) mapWriteError(err error, code string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.ErrProductNotFound
	case errors.Is(err, repository.ErrDuplicateProductCode):
		return duplicateCodeError(code).WrapParent(err)
	case errors.Is(err, repository.ErrCategoryNotFound):
		return apperr.ErrCategoryNotFound.WrapParent(err)
	default:
		return fmt.Errorf("db with tx: %w", err)
	}
}

func duplicateCodeError(code string) zerror.ZError {
	if code == "" {
		return apperr.ErrDuplicateProductCode
	}
	return apperr.ErrDuplicateProductCode.WithMsg(fmt.Sprintf(`Le code produit "%s" est déjà utilisé.`, code))
}

func parseNumericFields(params CreateProductParams) (decimal.Decimal, int, int64, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(params.Price))
	if err != nil {
		return decimal.Decimal{}, 0, 0, fmt.Errorf("parse price: %w", err)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, 0, 0, fmt.Errorf("negative price: %s", price)
	}

	stock, err := strconv.ParseInt(strings.TrimSpace(params.Stock), 10, 32)
	if err != nil {
		return decimal.Decimal{}, 0, 0, fmt.Errorf("parse stock: %w", err)
	}
	if stock < 0 {
		return decimal.Decimal{}, 0, 0, fmt.Errorf("negative stock: %d", stock)
	}

	categoryID, err := strconv.ParseInt(strings.TrimSpace(params.CategoryID), 10, 64)
	if err != nil {
		return decimal.Decimal{}, 0, 0, fmt.Errorf("parse id_category: %w", err)
	}

	return price, int(stock), categoryID, nil
}
