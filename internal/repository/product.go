package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	productCodeUniqueConstraint = "products_code_product_key"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateProductCode = errors.New("duplicate product code")
	ErrCategoryNotFound     = errors.New("category not found")
)

const productColumns = `
	id_product, name, description, code_product, price, stock, image,
	id_category, is_deleted, created_at, updated_at`

type ListProductsParams struct {
	Offset int
	Limit  int
}

type ListProductsAfterParams struct {
	// Cursor is the id of the last product already seen. Nil starts from the beginning.
	Cursor *int64
	Limit  int
}

type SearchProductsParams struct {
	Query string
	Limit int
}

type GetProductParams struct {
	ID int64
	// ForUpdate locks the row until the surrounding transaction ends.
	ForUpdate bool
}

type CreateProductParams struct {
	Name        string
	Description *string
	CodeProduct string
	Price       decimal.Decimal
	Stock       int
	Image       *string
	CategoryID  int64
}

type UpdateProductParams struct {
	ID          int64
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	Image       *string
	CategoryID  int64
}

type ListProductsByCategoryParams struct {
	CategoryName string
	Offset       int
	Limit        int
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error)
	ListProductsAfter(ctx context.Context, params ListProductsAfterParams) ([]model.Product, error)
	// CountProducts counts every product row, soft-deleted ones included.
	CountProducts(ctx context.Context) (int64, error)
	SearchProductDetails(ctx context.Context, params SearchProductsParams) ([]model.ProductDetail, error)
	GetProduct(ctx context.Context, params GetProductParams) (model.Product, error)
	GetProductDetail(ctx context.Context, id int64) (model.ProductDetail, error)
	ExistsProductByCode(ctx context.Context, code string) (bool, error)
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error)
	SoftDeleteProduct(ctx context.Context, id int64) (model.Product, error)
	ListProductsByCategory(ctx context.Context, params ListProductsByCategoryParams) ([]model.Product, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+productColumns+`
		FROM products
		WHERE is_deleted = FALSE
		ORDER BY id_product
		OFFSET @offset
		LIMIT @limit
	`, pgx.NamedArgs{
		"offset": params.Offset,
		"limit":  params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	return products, nil
}

func (r productRepository) ListProductsAfter(ctx context.Context, params ListProductsAfterParams) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+productColumns+`
		FROM products
		WHERE is_deleted = FALSE
			AND (@cursor::bigint IS NULL OR id_product > @cursor::bigint)
		ORDER BY id_product
		LIMIT @limit
	`, pgx.NamedArgs{
		"cursor": params.Cursor,
		"limit":  params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query products after cursor: %w", err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	return products, nil
}

func (r productRepository) CountProducts(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}

	return total, nil
}

func (r productRepository) SearchProductDetails(ctx context.Context, params SearchProductsParams) ([]model.ProductDetail, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+productColumns+`
		FROM products
		WHERE is_deleted = FALSE
			AND name ILIKE '%' || @query || '%' ESCAPE '\'
		ORDER BY id_product
		LIMIT @limit
	`, pgx.NamedArgs{
		"query": escapeLike(params.Query),
		"limit": params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	details, err := r.loadDetails(ctx, products)
	if err != nil {
		return nil, fmt.Errorf("load product details: %w", err)
	}

	return details, nil
}

func (r productRepository) GetProduct(ctx context.Context, params GetProductParams) (model.Product, error) {
	query := `
		SELECT` + productColumns + `
		FROM products
		WHERE id_product = @id
			AND is_deleted = FALSE`
	if params.ForUpdate {
		query += `
		FOR UPDATE`
	}

	rows, err := r.db.Query(ctx, query, pgx.NamedArgs{"id": params.ID})
	if err != nil {
		return model.Product{}, fmt.Errorf("query product: %w", err)
	}

	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, fmt.Errorf("collect product: %w", err)
	}

	return product, nil
}

func (r productRepository) GetProductDetail(ctx context.Context, id int64) (model.ProductDetail, error) {
	product, err := r.GetProduct(ctx, GetProductParams{ID: id})
	if err != nil {
		return model.ProductDetail{}, err
	}

	details, err := r.loadDetails(ctx, []model.Product{product})
	if err != nil {
		return model.ProductDetail{}, fmt.Errorf("load product details: %w", err)
	}

	return details[0], nil
}

func (r productRepository) ExistsProductByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE code_product = @code)
	`, pgx.NamedArgs{"code": code}).Scan(&exists); err != nil {
		return false, fmt.Errorf("check product code: %w", err)
	}

	return exists, nil
}

func (r productRepository) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	rows, err := r.db.Query(ctx, `
		INSERT INTO products (name, description, code_product, price, stock, image, id_category)
		VALUES (@name, @description, @code, @price, @stock, @image, @category_id)
		RETURNING`+productColumns, pgx.NamedArgs{
		"name":        params.Name,
		"description": params.Description,
		"code":        params.CodeProduct,
		"price":       params.Price,
		"stock":       params.Stock,
		"image":       params.Image,
		"category_id": params.CategoryID,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}

	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		if mapped := mapConstraintError(err); mapped != nil {
			return model.Product{}, mapped
		}
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}

	return product, nil
}

func (r productRepository) UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE products
		SET
			name        = @name,
			description = @description,
			price       = @price,
			stock       = @stock,
			image       = @image,
			id_category = @category_id,
			updated_at  = NOW()
		WHERE id_product = @id
			AND is_deleted = FALSE
		RETURNING`+productColumns, pgx.NamedArgs{
		"id":          params.ID,
		"name":        params.Name,
		"description": params.Description,
		"price":       params.Price,
		"stock":       params.Stock,
		"image":       params.Image,
		"category_id": params.CategoryID,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}

	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, ErrNotFound
		}
		if mapped := mapConstraintError(err); mapped != nil {
			return model.Product{}, mapped
		}
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func (r productRepository) SoftDeleteProduct(ctx context.Context, id int64) (model.Product, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE products
		SET
			is_deleted = TRUE,
			updated_at = NOW()
		WHERE id_product = @id
			AND is_deleted = FALSE
		RETURNING`+productColumns, pgx.NamedArgs{"id": id})
	if err != nil {
		return model.Product{}, fmt.Errorf("soft delete product: %w", err)
	}

	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, fmt.Errorf("soft delete product: %w", err)
	}

	return product, nil
}

func (r productRepository) ListProductsByCategory(ctx context.Context, params ListProductsByCategoryParams) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+prefixColumns("p")+`
		FROM products AS p
		JOIN categories AS c ON c.id_category = p.id_category
		WHERE c.name = @category_name
			AND p.is_deleted = FALSE
		ORDER BY p.id_product
		OFFSET @offset
		LIMIT @limit
	`, pgx.NamedArgs{
		"category_name": params.CategoryName,
		"offset":        params.Offset,
		"limit":         params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query products by category: %w", err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	return products, nil
}

// loadDetails expands products with their category and display associations
// using a single batch round trip.
func (r productRepository) loadDetails(ctx context.Context, products []model.Product) ([]model.ProductDetail, error) {
	details := make([]model.ProductDetail, 0, len(products))
	if len(products) == 0 {
		return details, nil
	}

	productIDs := make([]int64, 0, len(products))
	categoryIDs := make([]int64, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
		categoryIDs = append(categoryIDs, p.CategoryID)
	}

	batch := &pgx.Batch{}
	batch.Queue(`SELECT id_category, name FROM categories WHERE id_category = ANY($1)`, categoryIDs)
	batch.Queue(`
		SELECT id_order_detail, id_order, id_product, quantity, unit_price
		FROM order_details WHERE id_product = ANY($1) ORDER BY id_order_detail`, productIDs)
	batch.Queue(`
		SELECT id_review, id_product, id_user, rating, comment, created_at
		FROM product_reviews WHERE id_product = ANY($1) ORDER BY id_review`, productIDs)
	batch.Queue(`
		SELECT id_stock_history, id_product, quantity_before, quantity_after, movement_type, created_at
		FROM stock_histories WHERE id_product = ANY($1) ORDER BY id_stock_history`, productIDs)
	batch.Queue(`
		SELECT id_cart, id_user, id_product, quantity
		FROM carts WHERE id_product = ANY($1) ORDER BY id_cart`, productIDs)
	batch.Queue(`
		SELECT id_wishlist, id_user, id_product, added_at
		FROM wishlists WHERE id_product = ANY($1) ORDER BY id_wishlist`, productIDs)
	batch.Queue(`
		SELECT id_return, id_order, id_product, quantity, reason, status
		FROM order_returns WHERE id_product = ANY($1) ORDER BY id_return`, productIDs)

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	categories, err := collectBatch[model.Category](br)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	orderDetails, err := collectBatch[model.OrderDetail](br)
	if err != nil {
		return nil, fmt.Errorf("load order details: %w", err)
	}
	reviews, err := collectBatch[model.ProductReview](br)
	if err != nil {
		return nil, fmt.Errorf("load product reviews: %w", err)
	}
	stockHistory, err := collectBatch[model.StockHistory](br)
	if err != nil {
		return nil, fmt.Errorf("load stock history: %w", err)
	}
	carts, err := collectBatch[model.CartItem](br)
	if err != nil {
		return nil, fmt.Errorf("load carts: %w", err)
	}
	wishlists, err := collectBatch[model.WishlistItem](br)
	if err != nil {
		return nil, fmt.Errorf("load wishlists: %w", err)
	}
	returns, err := collectBatch[model.OrderReturn](br)
	if err != nil {
		return nil, fmt.Errorf("load order returns: %w", err)
	}

	categoryByID := make(map[int64]model.Category, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = c
	}

	index := make(map[int64]int, len(products))
	for i, p := range products {
		d := model.NewProductDetail(p)
		if c, ok := categoryByID[p.CategoryID]; ok {
			d.Category = &c
		}
		details = append(details, d)
		index[p.ID] = i
	}

	for _, v := range orderDetails {
		d := &details[index[v.ProductID]]
		d.OrderDetails = append(d.OrderDetails, v)
	}
	for _, v := range reviews {
		d := &details[index[v.ProductID]]
		d.ProductReviews = append(d.ProductReviews, v)
	}
	for _, v := range stockHistory {
		d := &details[index[v.ProductID]]
		d.StockHistory = append(d.StockHistory, v)
	}
	for _, v := range carts {
		d := &details[index[v.ProductID]]
		d.Cart = append(d.Cart, v)
	}
	for _, v := range wishlists {
		d := &details[index[v.ProductID]]
		d.Wishlist = append(d.Wishlist, v)
	}
	for _, v := range returns {
		d := &details[index[v.ProductID]]
		d.OrderReturns = append(d.OrderReturns, v)
	}

	return details, nil
}

func collectBatch[T any](br pgx.BatchResults) ([]T, error) {
	rows, err := br.Query()
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == productCodeUniqueConstraint {
			return ErrDuplicateProductCode
		}
	case pgForeignKeyViolation:
		return ErrCategoryNotFound
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func prefixColumns(alias string) string {
	cols := strings.Split(productColumns, ",")
	for i, c := range cols {
		cols[i] = " " + alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ",")
}
