package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/upload"
	"github.com/tuanvumaihuynh/product-catalog/pkg/zerror"
)

const (
	// formOverhead leaves room for text fields next to the largest accepted image.
	formOverhead      = 1 << 20
	multipartMemory   = 8 << 20
	maxUpdateBodySize = 1 << 20
)

type ProductPageResponse struct {
	Success    bool            `json:"success"`
	Data       []model.Product `json:"data"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"totalPages"`
}

type ProductScrollResponse struct {
	Success    bool            `json:"success"`
	Data       []model.Product `json:"data"`
	Limit      int             `json:"limit"`
	Total      int64           `json:"total"`
	NextCursor *int64          `json:"nextCursor"`
}

type CreateProductResponse struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	Product      model.Product      `json:"product"`
	StockHistory model.StockHistory `json:"stockHistory"`
}

type ProductMessageResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Product model.Product `json:"product"`
}

type productHandler struct {
	productSvc  service.ProductService
	maxFormSize int64
}

func newProductHandler(productSvc service.ProductService, maxImageSize int64) *productHandler {
	return &productHandler{
		productSvc:  productSvc,
		maxFormSize: maxImageSize + formOverhead,
	}
}

func (h *productHandler) ListProducts(_ http.ResponseWriter, r *http.Request) (response, error) {
	offset, limit := 0, service.DefaultListLimit
	if err := bindQuery(r, "offset", &offset); err != nil {
		return response{}, apperr.ErrInvalidPagination.WrapParent(err)
	}
	if err := bindQuery(r, "limit", &limit); err != nil {
		return response{}, apperr.ErrInvalidPagination.WrapParent(err)
	}

	res, err := h.productSvc.ListProducts(r.Context(), service.ListProductsParams{
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return response{}, fmt.Errorf("product service list products: %w", err)
	}

	return response{http.StatusOK, ProductPageResponse{
		Success:    true,
		Data:       nonNil(res.Products),
		Page:       res.Page,
		Limit:      res.Limit,
		Total:      res.Total,
		TotalPages: res.TotalPages,
	}}, nil
}

func (h *productHandler) ScrollProducts(_ http.ResponseWriter, r *http.Request) (response, error) {
	var cursor *int64
	if err := runtime.BindQueryParameter("form", true, false, "cursor", r.URL.Query(), &cursor); err != nil {
		return response{}, apperr.ErrInvalidCursor.WrapParent(err)
	}

	limit := service.DefaultListLimit
	if err := bindQuery(r, "limit", &limit); err != nil {
		return response{}, apperr.ErrInvalidLimit.WrapParent(err)
	}

	res, err := h.productSvc.ListProductsByCursor(r.Context(), service.ListProductsByCursorParams{
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		return response{}, fmt.Errorf("product service list products by cursor: %w", err)
	}

	return response{http.StatusOK, ProductScrollResponse{
		Success:    true,
		Data:       nonNil(res.Products),
		Limit:      res.Limit,
		Total:      res.Total,
		NextCursor: res.NextCursor,
	}}, nil
}

func (h *productHandler) SearchProducts(_ http.ResponseWriter, r *http.Request) (response, error) {
	var query string
	if err := bindQuery(r, "query", &query); err != nil {
		return response{}, apperr.ErrEmptySearchQuery.WrapParent(err)
	}

	limit := service.DefaultSearchLimit
	if err := bindQuery(r, "limit", &limit); err != nil {
		return response{}, apperr.ErrInvalidLimit.WrapParent(err)
	}

	products, err := h.productSvc.SearchProducts(r.Context(), service.SearchProductsParams{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		return response{}, fmt.Errorf("product service search products: %w", err)
	}

	return response{http.StatusOK, nonNil(products)}, nil
}

func (h *productHandler) GetProduct(_ http.ResponseWriter, r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}

	product, err := h.productSvc.GetProduct(r.Context(), id)
	if err != nil {
		return response{}, fmt.Errorf("product service get product: %w", err)
	}

	return response{http.StatusOK, product}, nil
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) (response, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFormSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return response{}, formError(err)
		}
		if err := r.ParseForm(); err != nil {
			return response{}, formError(err)
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll() //nolint:errcheck
	}

	params := service.CreateProductParams{
		Name:        r.PostFormValue("name"),
		CodeProduct: r.PostFormValue("codeProduct"),
		Price:       r.PostFormValue("price"),
		Stock:       r.PostFormValue("stock"),
		CategoryID:  r.PostFormValue("id_category"),
	}
	if values, ok := r.PostForm["description"]; ok && len(values) > 0 {
		params.Description = &values[0]
	}

	if r.MultipartForm != nil {
		file, header, err := r.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return response{}, formError(err)
		default:
			defer file.Close()
			params.Image = &upload.File{
				Filename: header.Filename,
				Size:     header.Size,
				Content:  file,
			}
		}
	}

	res, err := h.productSvc.CreateProduct(r.Context(), params)
	if err != nil {
		return response{}, fmt.Errorf("product service create product: %w", err)
	}

	return response{http.StatusCreated, CreateProductResponse{
		Success:      true,
		Message:      "Produit créé avec succès",
		Product:      res.Product,
		StockHistory: res.StockHistory,
	}}, nil
}

func (h *productHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBodySize)).Decode(&body); err != nil {
		return response{}, apperr.ErrInvalidRequestBody.WrapParent(err)
	}

	params, err := decodeUpdateParams(id, body)
	if err != nil {
		return response{}, err
	}

	product, err := h.productSvc.UpdateProduct(r.Context(), params)
	if err != nil {
		return response{}, fmt.Errorf("product service update product: %w", err)
	}

	return response{http.StatusOK, ProductMessageResponse{
		Success: true,
		Message: "Produit mis à jour avec succès",
		Product: product,
	}}, nil
}

func (h *productHandler) DeleteProduct(_ http.ResponseWriter, r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}

	product, err := h.productSvc.DeleteProduct(r.Context(), id)
	if err != nil {
		return response{}, fmt.Errorf("product service delete product: %w", err)
	}

	return response{http.StatusOK, ProductMessageResponse{
		Success: true,
		Message: "Produit supprimé avec succès",
		Product: product,
	}}, nil
}

func (h *productHandler) ListProductsByCategory(_ http.ResponseWriter, r *http.Request) (response, error) {
	var categoryName string
	if err := runtime.BindStyledParameterWithOptions("simple", "categoryName", chi.URLParam(r, "categoryName"), &categoryName,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true}); err != nil {
		return response{}, apperr.ErrInvalidRequestBody.WrapParent(err)
	}

	page, limit := service.DefaultCategoryPage, service.DefaultCategoryLimit
	if err := bindQuery(r, "page", &page); err != nil {
		return response{}, apperr.ErrInvalidCategoryPagination.WrapParent(err)
	}
	if err := bindQuery(r, "limit", &limit); err != nil {
		return response{}, apperr.ErrInvalidCategoryPagination.WrapParent(err)
	}

	products, err := h.productSvc.ListProductsByCategory(r.Context(), service.ListProductsByCategoryParams{
		CategoryName: categoryName,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return response{}, fmt.Errorf("product service list products by category: %w", err)
	}

	return response{http.StatusOK, nonNil(products)}, nil
}

// bindQuery binds an optional query parameter, leaving dest untouched when absent.
func bindQuery[T any](r *http.Request, name string, dest *T) error {
	var v *T
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return err
	}
	if v != nil {
		*dest = *v
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	var id int64
	if err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true}); err != nil {
		return 0, apperr.ErrInvalidProductID.WrapParent(err)
	}
	return id, nil
}

func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.ErrInvalidImage.WithMsg(upload.ErrFileTooLarge.Error()).WrapParent(err)
	}
	return apperr.ErrInvalidRequestBody.WrapParent(err)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var errNotNumeric = errors.New("not a number")

// decodeUpdateParams maps a partial JSON body onto update fields. Keys that are
// absent keep the stored value; numeric fields accept numbers or numeric strings.
func decodeUpdateParams(id int64, body map[string]json.RawMessage) (service.UpdateProductParams, error) {
	params := service.UpdateProductParams{ID: id}

	if raw, ok := body["name"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return params, apperr.ErrInvalidRequestBody.WrapParent(err)
		}
		params.Name = service.Set(name)
	}

	if raw, ok := body["description"]; ok {
		var description *string
		if err := json.Unmarshal(raw, &description); err != nil {
			return params, apperr.ErrInvalidRequestBody.WrapParent(err)
		}
		params.Description = service.Set(description)
	}

	if raw, ok := body["image"]; ok {
		var image *string
		if err := json.Unmarshal(raw, &image); err != nil {
			return params, apperr.ErrInvalidRequestBody.WrapParent(err)
		}
		params.Image = service.Set(image)
	}

	if raw, ok := body["price"]; ok {
		s, err := numericString(raw)
		if err != nil {
			return params, invalidNumeric(err)
		}
		price, err := decimal.NewFromString(s)
		if err != nil {
			return params, invalidNumeric(err)
		}
		params.Price = service.Set(price)
	}

	if raw, ok := body["stock"]; ok {
		s, err := numericString(raw)
		if err != nil {
			return params, invalidNumeric(err)
		}
		stock, err := strconv.Atoi(s)
		if err != nil {
			return params, invalidNumeric(err)
		}
		params.Stock = service.Set(stock)
	}

	if raw, ok := body["id_category"]; ok {
		s, err := numericString(raw)
		if err != nil {
			return params, invalidNumeric(err)
		}
		categoryID, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return params, invalidNumeric(err)
		}
		params.CategoryID = service.Set(categoryID)
	}

	return params, nil
}

func numericString(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}

	switch t := v.(type) {
	case json.Number:
		return t.String(), nil
	case string:
		return strings.TrimSpace(t), nil
	default:
		return "", errNotNumeric
	}
}

func invalidNumeric(err error) zerror.ZError {
	return apperr.ErrInvalidNumericFields.WrapParent(err)
}
