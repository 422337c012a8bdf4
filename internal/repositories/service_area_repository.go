package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gioservice_backend/internal/models"

	"github.com/lib/pq"
)

// ServiceAreaRepository defines the interface for service area and ZIP database operations.
type ServiceAreaRepository interface {
	CreateArea(executor SQLExecutor, area *models.ServiceArea) (int64, error)
	GetAreaByID(id int64) (*models.ServiceArea, error)
	GetAreas(activeOnly bool) ([]models.ServiceArea, error)
	UpdateArea(executor SQLExecutor, area *models.ServiceArea) error
	DeleteArea(executor SQLExecutor, id int64) error
	ReplaceZips(executor SQLExecutor, areaID int64, zips []string) error
	FindAreaByZip(zip string) (*models.ServiceArea, error)
}

type serviceAreaRepository struct {
	db *sql.DB
}

// NewServiceAreaRepository creates a new instance of ServiceAreaRepository.
func NewServiceAreaRepository(db *sql.DB) ServiceAreaRepository {
	return &serviceAreaRepository{db: db}
}

const areaSelect = `SELECT sa.id, sa.name, sa.description, sa.is_active, sa.created_at, sa.updated_at,
	COALESCE(ARRAY(SELECT z.zip_code FROM service_area_zips z WHERE z.area_id = sa.id ORDER BY z.zip_code), '{}')
	FROM service_areas sa`

func scanArea(s scanner, area *models.ServiceArea) error {
	var zips pq.StringArray
	if err := s.Scan(&area.ID, &area.Name, &area.Description, &area.IsActive, &area.CreatedAt, &area.UpdatedAt, &zips); err != nil {
		return err
	}
	area.Zips = []string(zips)
	if area.Zips == nil {
		area.Zips = []string{}
	}
	return nil
}

func (r *serviceAreaRepository) CreateArea(executor SQLExecutor, area *models.ServiceArea) (int64, error) {
	query := `INSERT INTO service_areas (name, description, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	currentTime := time.Now()
	area.CreatedAt = currentTime
	area.UpdatedAt = currentTime

	err := executor.QueryRow(query, area.Name, area.Description, area.IsActive, area.CreatedAt, area.UpdatedAt).Scan(&area.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating service area")
	}
	return area.ID, nil
}

func (r *serviceAreaRepository) GetAreaByID(id int64) (*models.ServiceArea, error) {
	area := &models.ServiceArea{}
	if err := scanArea(r.db.QueryRow(areaSelect+` WHERE sa.id = $1`, id), area); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting service area by ID %d: %v", ErrDatabaseError, id, err)
	}
	return area, nil
}

func (r *serviceAreaRepository) GetAreas(activeOnly bool) ([]models.ServiceArea, error) {
	query := areaSelect
	if activeOnly {
		query += ` WHERE sa.is_active = TRUE`
	}
	query += ` ORDER BY sa.name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying service areas: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	areas := []models.ServiceArea{}
	for rows.Next() {
		var area models.ServiceArea
		if err := scanArea(rows, &area); err != nil {
			return nil, fmt.Errorf("%w: scanning service area: %v", ErrDatabaseError, err)
		}
		areas = append(areas, area)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating service areas: %v", ErrDatabaseError, err)
	}
	return areas, nil
}

func (r *serviceAreaRepository) UpdateArea(executor SQLExecutor, area *models.ServiceArea) error {
	area.UpdatedAt = time.Now()
	result, err := executor.Exec(`UPDATE service_areas SET name = $1, description = $2, is_active = $3, updated_at = $4 WHERE id = $5`,
		area.Name, area.Description, area.IsActive, area.UpdatedAt, area.ID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating service area %d", area.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating service area %d", area.ID))
}

func (r *serviceAreaRepository) DeleteArea(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM service_areas WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting service area %d", id))
	}
	return expectAffected(result, fmt.Sprintf("deleting service area %d", id))
}

// ReplaceZips swaps the area's ZIP set. Run it inside a transaction.
// A ZIP owned by another area fails with ErrDuplicateKey.
func (r *serviceAreaRepository) ReplaceZips(executor SQLExecutor, areaID int64, zips []string) error {
	if _, err := executor.Exec(`DELETE FROM service_area_zips WHERE area_id = $1`, areaID); err != nil {
		return wrapWriteError(err, fmt.Sprintf("clearing zips of service area %d", areaID))
	}
	for _, zip := range zips {
		if _, err := executor.Exec(`INSERT INTO service_area_zips (area_id, zip_code) VALUES ($1, $2)`, areaID, zip); err != nil {
			return wrapWriteError(err, fmt.Sprintf("adding zip %s to service area %d", zip, areaID))
		}
	}
	return nil
}

// FindAreaByZip returns the active area covering zip.
func (r *serviceAreaRepository) FindAreaByZip(zip string) (*models.ServiceArea, error) {
	area := &models.ServiceArea{}
	query := areaSelect + ` JOIN service_area_zips sz ON sz.area_id = sa.id
	          WHERE sz.zip_code = $1 AND sa.is_active = TRUE`
	if err := scanArea(r.db.QueryRow(query, zip), area); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: looking up service area for zip %s: %v", ErrDatabaseError, zip, err)
	}
	return area, nil
}
