package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gioservice_backend/internal/events"
	"gioservice_backend/internal/locks"
	"gioservice_backend/internal/metrics"
	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"
	"gioservice_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Inventory ---
var (
	ErrItemNotFound = errors.New("inventory item not found")
	ErrItemInUse    = errors.New("inventory item cannot be deleted while job materials reference it")
	ErrSKUExists    = errors.New("an inventory item with this sku already exists")
)

// --- Inventory DTOs ---
type CreateItemRequest struct {
	Name            string           `json:"name" binding:"required"`
	SKU             *string          `json:"sku"`
	Category        *string          `json:"category"`
	Unit            *string          `json:"unit"`
	InitialQuantity *decimal.Decimal `json:"quantity"`
	MinQuantity     *decimal.Decimal `json:"min_quantity"`
	CostPerUnit     *decimal.Decimal `json:"cost_per_unit"`
	Location        *string          `json:"location"`
}

// UpdateItemRequest has no quantity: stock only changes through movements.
type UpdateItemRequest struct {
	Name        *string          `json:"name"`
	SKU         *string          `json:"sku"`
	Category    *string          `json:"category"`
	Unit        *string          `json:"unit"`
	MinQuantity *decimal.Decimal `json:"min_quantity"`
	CostPerUnit *decimal.Decimal `json:"cost_per_unit"`
	Location    *string          `json:"location"`
}

type RecordMovementRequest struct {
	ItemID       int64           `json:"item_id" binding:"required"`
	MovementType string          `json:"movement_type" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	JobID        *int64          `json:"job_id"`
	Reason       *string         `json:"reason"`
}

// MovementResult is a recorded movement and the item as it stands afterwards.
type MovementResult struct {
	Movement *models.InventoryMovement `json:"movement"`
	Item     *models.InventoryItem     `json:"item"`
}

// --- InventoryService Interface ---
type InventoryService interface {
	CreateItem(ctx context.Context, req CreateItemRequest, userID *int64) (*models.InventoryItem, error)
	GetItemByID(itemID int64) (*models.InventoryItem, error)
	GetItems(filter models.InventoryItemFilter) ([]models.InventoryItem, int, error)
	UpdateItem(itemID int64, req UpdateItemRequest) (*models.InventoryItem, error)
	DeleteItem(itemID int64) error
	GetLowStock() ([]models.InventoryItem, error)

	RecordMovement(ctx context.Context, req RecordMovementRequest, userID *int64) (*MovementResult, error)
	GetMovements(filter models.MovementFilter) ([]models.InventoryMovement, int, error)
	Reconcile(ctx context.Context, itemID int64) (*models.ReconcileResult, error)
}

// --- inventoryService Implementation ---
type inventoryService struct {
	itemRepo     repositories.InventoryItemRepository
	movementRepo repositories.InventoryMovementRepository
	tx           repositories.TxRunner
	db           *sql.DB
	locker       locks.Locker
	publisher    events.Publisher
	metrics      *metrics.Metrics
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(
	itemRepo repositories.InventoryItemRepository,
	movementRepo repositories.InventoryMovementRepository,
	tx repositories.TxRunner,
	db *sql.DB,
	locker locks.Locker,
	publisher events.Publisher,
	m *metrics.Metrics,
) InventoryService {
	if locker == nil {
		locker = locks.Noop{}
	}
	return &inventoryService{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		tx:           tx,
		db:           db,
		locker:       locker,
		publisher:    publisher,
		metrics:      m,
	}
}

// stockLedger applies movements to item quantities. It is shared by the inventory
// endpoints and by job materials so both follow the same locking and ledger rules.
type stockLedger struct {
	itemRepo     repositories.InventoryItemRepository
	movementRepo repositories.InventoryMovementRepository
	locker       locks.Locker
}

// lockItem takes the per-item lock. Callers defer the returned release.
func (l stockLedger) lockItem(ctx context.Context, itemID int64) (func(), error) {
	release, err := l.locker.Acquire(ctx, locks.InventoryItemKey(itemID))
	if err != nil {
		if errors.Is(err, locks.ErrBusy) {
			return nil, fmt.Errorf("%w: inventory item %d", ErrLockBusy, itemID)
		}
		return nil, fmt.Errorf("failed to lock inventory item: %w", err)
	}
	return release, nil
}

// apply runs inside a transaction: it locks the item row, appends the movement and
// writes the new quantity. The returned item carries the new quantity.
func (l stockLedger) apply(exec repositories.SQLExecutor, movement *models.InventoryMovement) (*models.InventoryItem, error) {
	item, err := l.itemRepo.GetItemForUpdate(exec, movement.ItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to lock inventory item row: %w", err)
	}

	newQuantity, err := models.ApplyMovement(item.Quantity, movement.MovementType, movement.Quantity)
	if err != nil {
		return nil, validationf("%v", err)
	}

	id, err := l.movementRepo.CreateMovement(exec, movement)
	if err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return nil, validationf("movement references a missing job or user")
		}
		return nil, fmt.Errorf("failed to record inventory movement: %w", err)
	}
	movement.ID = id
	movement.ItemName = item.Name

	if err := l.itemRepo.SetItemQuantity(exec, item.ID, newQuantity); err != nil {
		return nil, fmt.Errorf("failed to update item quantity: %w", err)
	}
	if newQuantity.IsNegative() {
		utils.LogWarn("Inventory quantity went negative", map[string]interface{}{
			"item_id":       item.ID,
			"movement_type": movement.MovementType,
			"quantity":      newQuantity.String(),
		})
	}
	item.Quantity = newQuantity
	item.FillDerived()
	return item, nil
}

func (s *inventoryService) ledger() stockLedger {
	return stockLedger{itemRepo: s.itemRepo, movementRepo: s.movementRepo, locker: s.locker}
}

func validateItemAmounts(checks fieldChecks, minQuantity, costPerUnit *decimal.Decimal) {
	checks.nonNegative("min_quantity", minQuantity)
	checks.nonNegative("cost_per_unit", costPerUnit)
}

func mapItemWriteError(err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrItemNotFound
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrSKUExists
	}
	return fmt.Errorf("failed to %s inventory item: %w", action, err)
}

// CreateItem stores the item at zero stock; an initial quantity is recorded as an in movement
// so the ledger always explains the on-hand figure.
func (s *inventoryService) CreateItem(ctx context.Context, req CreateItemRequest, userID *int64) (*models.InventoryItem, error) {
	checks := fieldChecks{}
	checks.required("name", req.Name)
	checks.nonNegative("quantity", req.InitialQuantity)
	validateItemAmounts(checks, req.MinQuantity, req.CostPerUnit)
	if err := checks.err(); err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		Name:        strings.TrimSpace(req.Name),
		SKU:         trimmedOrNil(req.SKU),
		Category:    trimmedOrNil(req.Category),
		Unit:        trimmedOrNil(req.Unit),
		Quantity:    decimal.Zero,
		MinQuantity: models.Money(decOrZero(req.MinQuantity)),
		CostPerUnit: models.Money(decOrZero(req.CostPerUnit)),
		Location:    trimmedOrNil(req.Location),
	}
	initial := models.Money(decOrZero(req.InitialQuantity))

	var itemID int64
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		id, err := s.itemRepo.CreateItem(exec, item)
		if err != nil {
			return mapItemWriteError(err, "create")
		}
		itemID = id
		if !initial.IsPositive() {
			return nil
		}
		reason := "initial stock"
		_, err = s.ledger().apply(exec, &models.InventoryMovement{
			ItemID:       id,
			MovementType: models.MovementTypeIn,
			Quantity:     initial,
			Reason:       &reason,
			CreatedBy:    userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if initial.IsPositive() {
		s.metrics.InventoryMovement(models.MovementTypeIn)
	}
	return s.GetItemByID(itemID)
}

func (s *inventoryService) GetItemByID(itemID int64) (*models.InventoryItem, error) {
	item, err := s.itemRepo.GetItemByID(itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

func (s *inventoryService) GetItems(filter models.InventoryItemFilter) ([]models.InventoryItem, int, error) {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)
	filter.Search = trimmedOrNil(filter.Search)
	filter.Category = trimmedOrNil(filter.Category)
	items, total, err := s.itemRepo.GetItems(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory items: %w", err)
	}
	return items, total, nil
}

func (s *inventoryService) UpdateItem(itemID int64, req UpdateItemRequest) (*models.InventoryItem, error) {
	item, err := s.GetItemByID(itemID)
	if err != nil {
		return nil, err
	}

	checks := fieldChecks{}
	if req.Name != nil {
		checks.required("name", *req.Name)
	}
	validateItemAmounts(checks, req.MinQuantity, req.CostPerUnit)
	if err := checks.err(); err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		item.SKU = trimmedOrNil(req.SKU)
	}
	if req.Category != nil {
		item.Category = trimmedOrNil(req.Category)
	}
	if req.Unit != nil {
		item.Unit = trimmedOrNil(req.Unit)
	}
	if req.MinQuantity != nil {
		item.MinQuantity = models.Money(*req.MinQuantity)
	}
	if req.CostPerUnit != nil {
		item.CostPerUnit = models.Money(*req.CostPerUnit)
	}
	if req.Location != nil {
		item.Location = trimmedOrNil(req.Location)
	}

	if err := s.itemRepo.UpdateItem(s.db, item); err != nil {
		return nil, mapItemWriteError(err, "update")
	}
	return s.GetItemByID(itemID)
}

func (s *inventoryService) DeleteItem(itemID int64) error {
	if err := s.itemRepo.DeleteItem(s.db, itemID); err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return ErrItemInUse
		}
		return mapItemWriteError(err, "delete")
	}
	return nil
}

func (s *inventoryService) GetLowStock() ([]models.InventoryItem, error) {
	items, _, err := s.itemRepo.GetItems(models.InventoryItemFilter{LowStock: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock items: %w", err)
	}
	return items, nil
}

// RecordMovement serializes on the item through the distributed lock and the row lock,
// then appends the movement and applies its delta in one transaction.
func (s *inventoryService) RecordMovement(ctx context.Context, req RecordMovementRequest, userID *int64) (*MovementResult, error) {
	req.MovementType = strings.TrimSpace(strings.ToLower(req.MovementType))
	// Validate the stored (rounded) quantity, not the raw input.
	req.Quantity = models.Money(req.Quantity)
	checks := fieldChecks{}
	if req.ItemID <= 0 {
		checks.fail("item_id", "required")
	}
	if !models.IsValidMovementType(req.MovementType) {
		checks.fail("movement_type", "must be one of in, out, adjust")
	} else if err := models.ValidateMovementQuantity(req.MovementType, req.Quantity); err != nil {
		checks.fail("quantity", err.Error())
	}
	if err := checks.err(); err != nil {
		return nil, err
	}

	movement := &models.InventoryMovement{
		ItemID:       req.ItemID,
		MovementType: req.MovementType,
		Quantity:     req.Quantity,
		JobID:        req.JobID,
		Reason:       trimmedOrNil(req.Reason),
		CreatedBy:    userID,
	}

	ledger := s.ledger()
	release, err := ledger.lockItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	var item *models.InventoryItem
	err = s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		var err error
		item, err = ledger.apply(exec, movement)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.InventoryMovement(movement.MovementType)
	events.Emit(ctx, s.publisher, events.New(events.InventoryMoved, movement.ID, map[string]interface{}{
		"item_id":       item.ID,
		"movement_type": movement.MovementType,
		"quantity":      movement.Quantity.String(),
		"new_quantity":  item.Quantity.String(),
	}))
	return &MovementResult{Movement: movement, Item: item}, nil
}

func (s *inventoryService) GetMovements(filter models.MovementFilter) ([]models.InventoryMovement, int, error) {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)
	if filter.MovementType != nil && !models.IsValidMovementType(*filter.MovementType) {
		return nil, 0, &ValidationError{Fields: map[string]string{"movement_type": "must be one of in, out, adjust"}}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, &ValidationError{Fields: map[string]string{"to": "must not be before from"}}
	}
	movements, total, err := s.movementRepo.GetMovements(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory movements: %w", err)
	}
	return movements, total, nil
}

// Reconcile rebuilds the item quantity from its full movement ledger and reports the drift it removed.
func (s *inventoryService) Reconcile(ctx context.Context, itemID int64) (*models.ReconcileResult, error) {
	ledger := s.ledger()
	release, err := ledger.lockItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	defer release()

	result := &models.ReconcileResult{ItemID: itemID}
	err = s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		item, err := s.itemRepo.GetItemForUpdate(exec, itemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to lock inventory item row: %w", err)
		}
		recomputed, err := s.movementRepo.SumDeltas(exec, itemID)
		if err != nil {
			return fmt.Errorf("failed to sum inventory ledger: %w", err)
		}
		result.Previous = item.Quantity
		result.Recomputed = recomputed
		result.Drift = item.Quantity.Sub(recomputed)
		if result.Drift.IsZero() {
			return nil
		}
		return s.itemRepo.SetItemQuantity(exec, itemID, recomputed)
	})
	if err != nil {
		return nil, err
	}
	if !result.Drift.IsZero() {
		utils.LogWarn("Inventory quantity reconciled", map[string]interface{}{
			"item_id": itemID,
			"drift":   result.Drift.String(),
		})
	}
	return result, nil
}
