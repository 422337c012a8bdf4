package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
)

// JobMaterialRepository defines the interface for job material database operations.
type JobMaterialRepository interface {
	CreateMaterial(executor SQLExecutor, material *models.JobMaterial) (int64, error)
	GetMaterialByID(executor SQLExecutor, jobID, materialID int64) (*models.JobMaterial, error)
	GetMaterialsByJob(jobID int64) ([]models.JobMaterial, error)
	DeleteMaterial(executor SQLExecutor, jobID, materialID int64) error
	SumMaterialCost(executor SQLExecutor, jobID int64) (decimal.Decimal, error)
}

type jobMaterialRepository struct {
	db *sql.DB
}

// NewJobMaterialRepository creates a new instance of JobMaterialRepository.
func NewJobMaterialRepository(db *sql.DB) JobMaterialRepository {
	return &jobMaterialRepository{db: db}
}

func (r *jobMaterialRepository) CreateMaterial(executor SQLExecutor, material *models.JobMaterial) (int64, error) {
	query := `INSERT INTO job_materials (job_id, item_id, quantity, unit_cost, total_cost, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	material.CreatedAt = time.Now()
	material.RecalculateCost()

	err := executor.QueryRow(query,
		material.JobID, material.ItemID, material.Quantity, material.UnitCost, material.TotalCost, material.CreatedAt,
	).Scan(&material.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("adding material to job %d", material.JobID))
	}
	return material.ID, nil
}

func (r *jobMaterialRepository) GetMaterialByID(executor SQLExecutor, jobID, materialID int64) (*models.JobMaterial, error) {
	if executor == nil {
		executor = r.db
	}
	m := &models.JobMaterial{}
	query := `SELECT jm.id, jm.job_id, jm.item_id, jm.quantity, jm.unit_cost, jm.total_cost, jm.created_at, ii.name, ii.unit
	          FROM job_materials jm JOIN inventory_items ii ON ii.id = jm.item_id
	          WHERE jm.id = $1 AND jm.job_id = $2`
	err := executor.QueryRow(query, materialID, jobID).Scan(
		&m.ID, &m.JobID, &m.ItemID, &m.Quantity, &m.UnitCost, &m.TotalCost, &m.CreatedAt, &m.ItemName, &m.ItemUnit,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting material %d of job %d: %v", ErrDatabaseError, materialID, jobID, err)
	}
	return m, nil
}

func (r *jobMaterialRepository) GetMaterialsByJob(jobID int64) ([]models.JobMaterial, error) {
	query := `SELECT jm.id, jm.job_id, jm.item_id, jm.quantity, jm.unit_cost, jm.total_cost, jm.created_at, ii.name, ii.unit
	          FROM job_materials jm JOIN inventory_items ii ON ii.id = jm.item_id
	          WHERE jm.job_id = $1
	          ORDER BY jm.created_at ASC, jm.id ASC`
	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying materials for job %d: %v", ErrDatabaseError, jobID, err)
	}
	defer rows.Close()

	materials := []models.JobMaterial{}
	for rows.Next() {
		var m models.JobMaterial
		if err := rows.Scan(
			&m.ID, &m.JobID, &m.ItemID, &m.Quantity, &m.UnitCost, &m.TotalCost, &m.CreatedAt, &m.ItemName, &m.ItemUnit,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning material: %v", ErrDatabaseError, err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating materials: %v", ErrDatabaseError, err)
	}
	return materials, nil
}

func (r *jobMaterialRepository) DeleteMaterial(executor SQLExecutor, jobID, materialID int64) error {
	result, err := executor.Exec(`DELETE FROM job_materials WHERE id = $1 AND job_id = $2`, materialID, jobID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting material ID %d", materialID))
	}
	return expectAffected(result, fmt.Sprintf("deleting material ID %d", materialID))
}

// SumMaterialCost returns the sum of total_cost over the job's materials.
func (r *jobMaterialRepository) SumMaterialCost(executor SQLExecutor, jobID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := executor.QueryRow(`SELECT COALESCE(SUM(total_cost), 0) FROM job_materials WHERE job_id = $1`, jobID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: summing materials for job %d: %v", ErrDatabaseError, jobID, err)
	}
	return total, nil
}
