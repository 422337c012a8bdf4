package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
)

// InventoryItemRepository defines the interface for inventory item database operations.
type InventoryItemRepository interface {
	CreateItem(executor SQLExecutor, item *models.InventoryItem) (int64, error)
	GetItemByID(id int64) (*models.InventoryItem, error)
	GetItemForUpdate(executor SQLExecutor, id int64) (*models.InventoryItem, error)
	GetItems(filter models.InventoryItemFilter) ([]models.InventoryItem, int, error)
	UpdateItem(executor SQLExecutor, item *models.InventoryItem) error
	SetItemQuantity(executor SQLExecutor, id int64, quantity decimal.Decimal) error
	DeleteItem(executor SQLExecutor, id int64) error
	CountLowStock() (int, error)
}

type inventoryItemRepository struct {
	db *sql.DB
}

// NewInventoryItemRepository creates a new instance of InventoryItemRepository.
func NewInventoryItemRepository(db *sql.DB) InventoryItemRepository {
	return &inventoryItemRepository{db: db}
}

const itemColumns = `id, name, sku, category, unit, quantity, min_quantity, cost_per_unit, location, created_at, updated_at`

func scanItem(s scanner, item *models.InventoryItem, extra ...interface{}) error {
	dest := []interface{}{
		&item.ID, &item.Name, &item.SKU, &item.Category, &item.Unit, &item.Quantity,
		&item.MinQuantity, &item.CostPerUnit, &item.Location, &item.CreatedAt, &item.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	item.FillDerived()
	return nil
}

func (r *inventoryItemRepository) CreateItem(executor SQLExecutor, item *models.InventoryItem) (int64, error) {
	query := `INSERT INTO inventory_items (name, sku, category, unit, quantity, min_quantity, cost_per_unit, location, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	currentTime := time.Now()
	item.CreatedAt = currentTime
	item.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		item.Name, item.SKU, item.Category, item.Unit, item.Quantity, item.MinQuantity,
		item.CostPerUnit, item.Location, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating inventory item")
	}
	return item.ID, nil
}

func (r *inventoryItemRepository) GetItemByID(id int64) (*models.InventoryItem, error) {
	return r.getItem(r.db, id, false)
}

// GetItemForUpdate reads an item with SELECT ... FOR UPDATE so concurrent movements serialize on the row.
func (r *inventoryItemRepository) GetItemForUpdate(executor SQLExecutor, id int64) (*models.InventoryItem, error) {
	return r.getItem(executor, id, true)
}

func (r *inventoryItemRepository) getItem(executor SQLExecutor, id int64, forUpdate bool) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	if err := scanItem(executor.QueryRow(query, id), item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *inventoryItemRepository) GetItems(filter models.InventoryItemFilter) ([]models.InventoryItem, int, error) {
	items := []models.InventoryItem{}
	totalCount := 0

	where := newWhereBuilder()
	if filter.Category != nil && *filter.Category != "" {
		where.add("category = ?", *filter.Category)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		pattern := likePattern(*filter.Search)
		where.add("(LOWER(name) LIKE ? OR LOWER(COALESCE(sku, '')) LIKE ?)", pattern, pattern)
	}
	if filter.LowStock {
		where.add("quantity <= min_quantity")
	}

	query := `SELECT ` + itemColumns + `, COUNT(*) OVER() AS total_count FROM inventory_items` +
		where.clause() + " ORDER BY name ASC, id ASC" +
		paginate(&where.args, &where.argCount, filter.Page, filter.PageSize)

	rows, err := r.db.Query(query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying inventory items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.InventoryItem
		if err := scanItem(rows, &item, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory items: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

// UpdateItem writes descriptive fields only; quantity changes go through movements.
func (r *inventoryItemRepository) UpdateItem(executor SQLExecutor, item *models.InventoryItem) error {
	query := `UPDATE inventory_items SET
	            name = $1, sku = $2, category = $3, unit = $4, min_quantity = $5,
	            cost_per_unit = $6, location = $7, updated_at = $8
	          WHERE id = $9`

	item.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		item.Name, item.SKU, item.Category, item.Unit, item.MinQuantity,
		item.CostPerUnit, item.Location, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating inventory item ID %d", item.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating inventory item ID %d", item.ID))
}

func (r *inventoryItemRepository) SetItemQuantity(executor SQLExecutor, id int64, quantity decimal.Decimal) error {
	result, err := executor.Exec(`UPDATE inventory_items SET quantity = $1, updated_at = $2 WHERE id = $3`,
		quantity, time.Now(), id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("setting quantity of inventory item ID %d", id))
	}
	return expectAffected(result, fmt.Sprintf("setting quantity of inventory item ID %d", id))
}

func (r *inventoryItemRepository) DeleteItem(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting inventory item ID %d", id))
	}
	return expectAffected(result, fmt.Sprintf("deleting inventory item ID %d", id))
}

func (r *inventoryItemRepository) CountLowStock() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM inventory_items WHERE quantity <= min_quantity`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting low stock items: %v", ErrDatabaseError, err)
	}
	return n, nil
}
