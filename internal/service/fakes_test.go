package service_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/upload"
)

// fakeDB runs transactions inline. Unused db.DB methods panic through the nil embed.
type fakeDB struct {
	db.DB

	txCount      int
	connectCount int
	connectErr   error
}

func (f *fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	f.txCount++
	return txFunc(f)
}

func (f *fakeDB) Connect(context.Context) error {
	f.connectCount++
	return f.connectErr
}

type fakeProductRepo struct {
	mu         sync.Mutex
	products   map[int64]model.Product
	categories map[int64]string
	nextID     int64
	calls      int

	createErr error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:   map[int64]model.Product{},
		categories: map[int64]string{1: "Outils", 2: "Jardin"},
		nextID:     1,
	}
}

func (r *fakeProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r *fakeProductRepo) sorted() []model.Product {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.Product) int { return int(a.ID - b.ID) })
	return out
}

func (r *fakeProductRepo) active() []model.Product {
	return slices.DeleteFunc(r.sorted(), func(p model.Product) bool { return p.IsDeleted })
}

func window(products []model.Product, offset, limit int) []model.Product {
	if offset >= len(products) {
		return []model.Product{}
	}
	return products[offset:min(offset+limit, len(products))]
}

func (r *fakeProductRepo) ListProducts(_ context.Context, params repository.ListProductsParams) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return window(r.active(), params.Offset, params.Limit), nil
}

func (r *fakeProductRepo) ListProductsAfter(_ context.Context, params repository.ListProductsAfterParams) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	products := r.active()
	if params.Cursor != nil {
		products = slices.DeleteFunc(products, func(p model.Product) bool { return p.ID <= *params.Cursor })
	}
	return window(products, 0, params.Limit), nil
}

func (r *fakeProductRepo) CountProducts(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return int64(len(r.products)), nil
}

func (r *fakeProductRepo) SearchProductDetails(_ context.Context, params repository.SearchProductsParams) ([]model.ProductDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var out []model.ProductDetail
	for _, p := range r.active() {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(params.Query)) {
			out = append(out, model.NewProductDetail(p))
		}
	}
	if len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *fakeProductRepo) GetProduct(_ context.Context, params repository.GetProductParams) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	p, ok := r.products[params.ID]
	if !ok || p.IsDeleted {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) GetProductDetail(ctx context.Context, id int64) (model.ProductDetail, error) {
	p, err := r.GetProduct(ctx, repository.GetProductParams{ID: id})
	if err != nil {
		return model.ProductDetail{}, err
	}
	return model.NewProductDetail(p), nil
}

func (r *fakeProductRepo) ExistsProductByCode(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, p := range r.products {
		if p.CodeProduct == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProductRepo) CreateProduct(_ context.Context, params repository.CreateProductParams) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.createErr != nil {
		return model.Product{}, r.createErr
	}
	if _, ok := r.categories[params.CategoryID]; !ok {
		return model.Product{}, repository.ErrCategoryNotFound
	}
	p := model.Product{
		ID:          r.nextID,
		Name:        params.Name,
		Description: params.Description,
		CodeProduct: params.CodeProduct,
		Price:       params.Price,
		Stock:       params.Stock,
		Image:       params.Image,
		CategoryID:  params.CategoryID,
	}
	r.products[p.ID] = p
	r.nextID++
	return p, nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, params repository.UpdateProductParams) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	p, ok := r.products[params.ID]
	if !ok || p.IsDeleted {
		return model.Product{}, repository.ErrNotFound
	}
	if _, ok := r.categories[params.CategoryID]; !ok {
		return model.Product{}, repository.ErrCategoryNotFound
	}
	p.Name = params.Name
	p.Description = params.Description
	p.Price = params.Price
	p.Stock = params.Stock
	p.Image = params.Image
	p.CategoryID = params.CategoryID
	r.products[p.ID] = p
	return p, nil
}

func (r *fakeProductRepo) SoftDeleteProduct(_ context.Context, id int64) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	p, ok := r.products[id]
	if !ok || p.IsDeleted {
		return model.Product{}, repository.ErrNotFound
	}
	p.IsDeleted = true
	r.products[id] = p
	return p, nil
}

func (r *fakeProductRepo) ListProductsByCategory(_ context.Context, params repository.ListProductsByCategoryParams) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	products := slices.DeleteFunc(r.active(), func(p model.Product) bool {
		return r.categories[p.CategoryID] != params.CategoryName
	})
	return window(products, params.Offset, params.Limit), nil
}

type fakeStockHistoryRepo struct {
	rows []model.StockHistory
	err  error
}

func (r *fakeStockHistoryRepo) WithDB(db.DB) repository.StockHistoryRepository { return r }

func (r *fakeStockHistoryRepo) CreateStockHistory(_ context.Context, params repository.CreateStockHistoryParams) (model.StockHistory, error) {
	if r.err != nil {
		return model.StockHistory{}, r.err
	}
	h := model.StockHistory{
		ID:             int64(len(r.rows) + 1),
		ProductID:      params.ProductID,
		QuantityBefore: params.QuantityBefore,
		QuantityAfter:  params.QuantityAfter,
		MovementType:   params.MovementType,
	}
	r.rows = append(r.rows, h)
	return h, nil
}

type fakeOutboxRepo struct {
	msgs []repository.CreateOutboxMsgParams
}

func (r *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.msgs = append(r.msgs, params)
	return nil
}

func (r *fakeOutboxRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

type fakeCache struct {
	products map[int64]model.ProductDetail
	evicted  []int64
	getErr   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{products: map[int64]model.ProductDetail{}}
}

func (c *fakeCache) GetProduct(_ context.Context, id int64) (model.ProductDetail, bool, error) {
	if c.getErr != nil {
		return model.ProductDetail{}, false, c.getErr
	}
	p, ok := c.products[id]
	return p, ok, nil
}

func (c *fakeCache) SetProduct(_ context.Context, p model.ProductDetail) error {
	c.products[p.ID] = p
	return nil
}

func (c *fakeCache) DeleteProduct(_ context.Context, id int64) error {
	delete(c.products, id)
	c.evicted = append(c.evicted, id)
	return nil
}

type fakeUploader struct {
	stored  []upload.StoredFile
	removed []upload.StoredFile
}

func (u *fakeUploader) Store(_ context.Context, file upload.File) (upload.StoredFile, error) {
	head, err := io.ReadAll(file.Content)
	if err != nil {
		return upload.StoredFile{}, err
	}
	if !strings.HasPrefix(string(head), "\x89PNG") {
		return upload.StoredFile{}, upload.ErrUnsupportedType
	}
	f := upload.StoredFile{Name: "1700000000000.png", Path: "/uploads/1700000000000.png", ContentType: "image/png"}
	u.stored = append(u.stored, f)
	return f, nil
}

func (u *fakeUploader) Remove(_ context.Context, file upload.StoredFile) error {
	u.removed = append(u.removed, file)
	return nil
}

var errBoom = errors.New("boom")
