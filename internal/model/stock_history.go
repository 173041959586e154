package model

import (
	"fmt"
	"time"
)

// MovementType is the kind of stock change recorded in a StockHistory row.
type MovementType string

const (
	MovementTypeAdded    MovementType = "added"
	MovementTypeRemoved  MovementType = "removed"
	MovementTypeAdjusted MovementType = "adjusted"
)

// Validate implements the enum validation contract.
func (m MovementType) Validate() error {
	switch m {
	case MovementTypeAdded, MovementTypeRemoved, MovementTypeAdjusted:
		return nil
	default:
		return fmt.Errorf("unknown movement type: %q", string(m))
	}
}

// StockHistory is an append-only record of a product's stock change.
type StockHistory struct {
	ID             int64        `json:"id_stock_history" db:"id_stock_history"`
	ProductID      int64        `json:"id_product" db:"id_product"`
	QuantityBefore int          `json:"quantity_before" db:"quantity_before"`
	QuantityAfter  int          `json:"quantity_after" db:"quantity_after"`
	MovementType   MovementType `json:"movement_type" db:"movement_type"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}
