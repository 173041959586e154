package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// The types below are owned by the order, review, cart, wishlist and return
// subsystems. The catalog only reads them for display.

type OrderDetail struct {
	ID        int64           `json:"id_order_detail" db:"id_order_detail"`
	OrderID   int64           `json:"id_order" db:"id_order"`
	ProductID int64           `json:"id_product" db:"id_product"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
}

type ProductReview struct {
	ID        int64     `json:"id_review" db:"id_review"`
	ProductID int64     `json:"id_product" db:"id_product"`
	UserID    int64     `json:"id_user" db:"id_user"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   *string   `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CartItem struct {
	ID        int64 `json:"id_cart" db:"id_cart"`
	UserID    int64 `json:"id_user" db:"id_user"`
	ProductID int64 `json:"id_product" db:"id_product"`
	Quantity  int   `json:"quantity" db:"quantity"`
}

type WishlistItem struct {
	ID        int64     `json:"id_wishlist" db:"id_wishlist"`
	UserID    int64     `json:"id_user" db:"id_user"`
	ProductID int64     `json:"id_product" db:"id_product"`
	AddedAt   time.Time `json:"added_at" db:"added_at"`
}

type OrderReturn struct {
	ID        int64   `json:"id_return" db:"id_return"`
	OrderID   int64   `json:"id_order" db:"id_order"`
	ProductID int64   `json:"id_product" db:"id_product"`
	Quantity  int     `json:"quantity" db:"quantity"`
	Reason    *string `json:"reason" db:"reason"`
	Status    string  `json:"status" db:"status"`
}
