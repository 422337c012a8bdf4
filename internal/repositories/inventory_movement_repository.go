package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
)

// InventoryMovementRepository defines the interface for inventory movement-related database operations.
// Movements are append-only: there is no update or delete.
type InventoryMovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.InventoryMovement) (int64, error)
	GetMovements(filter models.MovementFilter) ([]models.InventoryMovement, int, error)
	SumDeltas(executor SQLExecutor, itemID int64) (decimal.Decimal, error)
}

type inventoryMovementRepository struct {
	db *sql.DB
}

// NewInventoryMovementRepository creates a new instance of InventoryMovementRepository.
func NewInventoryMovementRepository(db *sql.DB) InventoryMovementRepository {
	return &inventoryMovementRepository{db: db}
}

func (r *inventoryMovementRepository) CreateMovement(executor SQLExecutor, movement *models.InventoryMovement) (int64, error) {
	query := `INSERT INTO inventory_movements (item_id, movement_type, quantity, job_id, reason, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		movement.ItemID, movement.MovementType, movement.Quantity, movement.JobID,
		movement.Reason, movement.CreatedBy, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating inventory movement")
	}
	return movement.ID, nil
}

func (r *inventoryMovementRepository) GetMovements(filter models.MovementFilter) ([]models.InventoryMovement, int, error) {
	movements := []models.InventoryMovement{}
	totalCount := 0

	where := newWhereBuilder()
	if filter.ItemID != nil {
		where.add("im.item_id = ?", *filter.ItemID)
	}
	if filter.JobID != nil {
		where.add("im.job_id = ?", *filter.JobID)
	}
	if filter.MovementType != nil && *filter.MovementType != "" {
		where.add("im.movement_type = ?", *filter.MovementType)
	}
	if filter.From != nil {
		where.add("im.created_at >= ?", filter.From.Time)
	}
	if filter.To != nil {
		// inclusive of the whole end day
		where.add("im.created_at < ?", filter.To.AddDate(0, 0, 1))
	}

	query := `SELECT im.id, im.item_id, im.movement_type, im.quantity, im.job_id, im.reason, im.created_by, im.created_at,
	            ii.name, COUNT(*) OVER() AS total_count
	          FROM inventory_movements im
	          JOIN inventory_items ii ON ii.id = im.item_id` +
		where.clause() + " ORDER BY im.created_at DESC, im.id DESC" +
		paginate(&where.args, &where.argCount, filter.Page, filter.PageSize)

	rows, err := r.db.Query(query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.InventoryMovement
		if err := rows.Scan(
			&m.ID, &m.ItemID, &m.MovementType, &m.Quantity, &m.JobID, &m.Reason, &m.CreatedBy, &m.CreatedAt,
			&m.ItemName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory movement: %v", ErrDatabaseError, err)
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}

// SumDeltas replays the ledger of one item: in adds, out subtracts, adjust is signed.
func (r *inventoryMovementRepository) SumDeltas(executor SQLExecutor, itemID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(CASE movement_type
	            WHEN 'in' THEN quantity
	            WHEN 'out' THEN -quantity
	            ELSE quantity END), 0)
	          FROM inventory_movements WHERE item_id = $1`
	var total decimal.Decimal
	if err := executor.QueryRow(query, itemID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%w: summing movements for item %d: %v", ErrDatabaseError, itemID, err)
	}
	return total, nil
}
