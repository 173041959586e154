package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Products are never removed, only flagged with IsDeleted.
type Product struct {
	ID          int64           `json:"id_product" db:"id_product"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description" db:"description"`
	CodeProduct string          `json:"codeProduct" db:"code_product"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Image       *string         `json:"image" db:"image"`
	CategoryID  int64           `json:"id_category" db:"id_category"`
	IsDeleted   bool            `json:"is_deleted" db:"is_deleted"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductDetail is a product with the associations shown on detail and search views.
type ProductDetail struct {
	Product

	Category       *Category       `json:"category"`
	OrderDetails   []OrderDetail   `json:"orderDetails"`
	ProductReviews []ProductReview `json:"productReviews"`
	StockHistory   []StockHistory  `json:"stockHistory"`
	Cart           []CartItem      `json:"cart"`
	Wishlist       []WishlistItem  `json:"wishlist"`
	OrderReturns   []OrderReturn   `json:"orderReturns"`
}

// NewProductDetail returns a detail view of p with empty associations.
func NewProductDetail(p Product) ProductDetail {
	return ProductDetail{
		Product:        p,
		OrderDetails:   []OrderDetail{},
		ProductReviews: []ProductReview{},
		StockHistory:   []StockHistory{},
		Cart:           []CartItem{},
		Wishlist:       []WishlistItem{},
		OrderReturns:   []OrderReturn{},
	}
}
