package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MovementTypeIn     = "in"
	MovementTypeOut    = "out"
	MovementTypeAdjust = "adjust"
)

// InventoryItem is a stocked material or consumable.
type InventoryItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	SKU         *string         `json:"sku,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Unit        *string         `json:"unit,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
	Location    *string         `json:"location,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	LowStock bool `json:"is_low_stock"`
}

// IsLowStock reports whether the on-hand quantity has reached the reorder threshold.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity.LessThanOrEqual(i.MinQuantity)
}

// FillDerived populates response-only fields.
func (i *InventoryItem) FillDerived() {
	i.LowStock = i.IsLowStock()
}

// InventoryMovement is one append-only ledger entry for an item.
type InventoryMovement struct {
	ID           int64           `json:"id"`
	ItemID       int64           `json:"item_id"`
	MovementType string          `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	JobID        *int64          `json:"job_id,omitempty"`
	Reason       *string         `json:"reason,omitempty"`
	CreatedBy    *int64          `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`

	ItemName string `json:"item_name,omitempty"`
}

// IsValidMovementType reports whether s is in, out or adjust.
func IsValidMovementType(s string) bool {
	return s == MovementTypeIn || s == MovementTypeOut || s == MovementTypeAdjust
}

// MovementDelta returns the signed change a movement applies to on-hand quantity.
// in adds, out subtracts, adjust is already signed.
func MovementDelta(movementType string, quantity decimal.Decimal) (decimal.Decimal, error) {
	switch movementType {
	case MovementTypeIn:
		return quantity, nil
	case MovementTypeOut:
		return quantity.Neg(), nil
	case MovementTypeAdjust:
		return quantity, nil
	}
	return decimal.Zero, fmt.Errorf("unknown movement type %q", movementType)
}

// ValidateMovementQuantity checks the quantity rule for a movement type:
// in and out need a positive amount, adjust needs a nonzero one.
func ValidateMovementQuantity(movementType string, quantity decimal.Decimal) error {
	switch movementType {
	case MovementTypeIn, MovementTypeOut:
		if !quantity.IsPositive() {
			return fmt.Errorf("quantity must be greater than zero for %s movements", movementType)
		}
	case MovementTypeAdjust:
		if quantity.IsZero() {
			return fmt.Errorf("quantity must be nonzero for adjust movements")
		}
	default:
		return fmt.Errorf("unknown movement type %q", movementType)
	}
	return nil
}

// ApplyMovement returns the quantity after applying one movement.
func ApplyMovement(current decimal.Decimal, movementType string, quantity decimal.Decimal) (decimal.Decimal, error) {
	delta, err := MovementDelta(movementType, quantity)
	if err != nil {
		return current, err
	}
	return current.Add(delta), nil
}

// JobMaterial records an inventory item consumed by a job.
type JobMaterial struct {
	ID        int64           `json:"id"`
	JobID     int64           `json:"job_id"`
	ItemID    int64           `json:"item_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
	CreatedAt time.Time       `json:"created_at"`

	ItemName string  `json:"item_name,omitempty"`
	ItemUnit *string `json:"item_unit,omitempty"`
}

// RecalculateCost sets TotalCost to quantity times unit cost, rounded to cents.
func (m *JobMaterial) RecalculateCost() {
	m.TotalCost = Money(m.Quantity.Mul(m.UnitCost))
}

// InventoryItemFilter narrows item listings.
type InventoryItemFilter struct {
	Category *string
	Search   *string
	LowStock bool
	Page     int
	PageSize int
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	ItemID       *int64
	JobID        *int64
	MovementType *string
	From         *Date
	To           *Date
	Page         int
	PageSize     int
}

// ReconcileResult reports the outcome of rebuilding an item quantity from its ledger.
type ReconcileResult struct {
	ItemID     int64           `json:"item_id"`
	Previous   decimal.Decimal `json:"previous"`
	Recomputed decimal.Decimal `json:"recomputed"`
	Drift      decimal.Decimal `json:"drift"`
}
