package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gioservice_backend/internal/models"
)

// JobRepository defines the interface for job-related database operations.
type JobRepository interface {
	CreateJob(executor SQLExecutor, job *models.Job) (int64, error)
	GetJobByID(id int64) (*models.Job, error)
	GetJobForUpdate(executor SQLExecutor, id int64) (*models.Job, error)
	GetJobs(filter models.JobFilter) ([]models.Job, int, error)
	UpdateJob(executor SQLExecutor, job *models.Job) error
	DeleteJob(executor SQLExecutor, id int64) error
	GetPublicServiceTypes() ([]string, error)
}

type jobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new instance of JobRepository.
func NewJobRepository(db *sql.DB) JobRepository {
	return &jobRepository{db: db}
}

const jobColumns = `j.id, j.client_id, j.customer_name, j.customer_phone, j.customer_email,
	j.address_line, j.city, j.state, j.zip_code, j.service_area_id, j.service_type, j.description,
	j.status, j.scheduled_date, j.completed_at, j.travel_fee, j.labor_total, j.materials_total,
	j.other_fees, j.total_amount, j.is_public, j.notes, j.created_at, j.updated_at, sa.name`

const jobFrom = ` FROM jobs j LEFT JOIN service_areas sa ON sa.id = j.service_area_id`

func scanJob(s scanner, job *models.Job, extra ...interface{}) error {
	dest := []interface{}{
		&job.ID, &job.ClientID, &job.CustomerName, &job.CustomerPhone, &job.CustomerEmail,
		&job.AddressLine, &job.City, &job.State, &job.ZipCode, &job.ServiceAreaID, &job.ServiceType, &job.Description,
		&job.Status, &job.ScheduledDate, &job.CompletedAt, &job.TravelFee, &job.LaborTotal, &job.MaterialsTotal,
		&job.OtherFees, &job.TotalAmount, &job.IsPublic, &job.Notes, &job.CreatedAt, &job.UpdatedAt, &job.ServiceAreaName,
	}
	return s.Scan(append(dest, extra...)...)
}

// CreateJob inserts a job. total_amount is recalculated from the components before the write.
func (r *jobRepository) CreateJob(executor SQLExecutor, job *models.Job) (int64, error) {
	query := `INSERT INTO jobs (client_id, customer_name, customer_phone, customer_email, address_line, city, state,
	            zip_code, service_area_id, service_type, description, status, scheduled_date, completed_at,
	            travel_fee, labor_total, materials_total, other_fees, total_amount, is_public, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	          RETURNING id`

	currentTime := time.Now()
	job.CreatedAt = currentTime
	job.UpdatedAt = currentTime
	if job.Status == "" {
		job.Status = models.JobStatusLead
	}
	job.RecalculateTotal()

	err := executor.QueryRow(query,
		job.ClientID, job.CustomerName, job.CustomerPhone, job.CustomerEmail, job.AddressLine, job.City, job.State,
		job.ZipCode, job.ServiceAreaID, job.ServiceType, job.Description, job.Status, job.ScheduledDate, job.CompletedAt,
		job.TravelFee, job.LaborTotal, job.MaterialsTotal, job.OtherFees, job.TotalAmount, job.IsPublic, job.Notes,
		job.CreatedAt, job.UpdatedAt,
	).Scan(&job.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating job")
	}
	return job.ID, nil
}

func (r *jobRepository) GetJobByID(id int64) (*models.Job, error) {
	return r.getJob(r.db, id, false)
}

// GetJobForUpdate reads a job and locks its row until the surrounding transaction ends.
func (r *jobRepository) GetJobForUpdate(executor SQLExecutor, id int64) (*models.Job, error) {
	return r.getJob(executor, id, true)
}

func (r *jobRepository) getJob(executor SQLExecutor, id int64, forUpdate bool) (*models.Job, error) {
	job := &models.Job{}
	query := `SELECT ` + jobColumns + jobFrom + ` WHERE j.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF j`
	}
	if err := scanJob(executor.QueryRow(query, id), job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting job by ID %d: %v", ErrDatabaseError, id, err)
	}
	return job, nil
}

// GetJobs lists jobs matching filter, newest scheduled first, with the total match count.
func (r *jobRepository) GetJobs(filter models.JobFilter) ([]models.Job, int, error) {
	jobs := []models.Job{}
	totalCount := 0

	where := newWhereBuilder()
	if filter.Status != nil && *filter.Status != "" {
		where.add("j.status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		where.add("j.client_id = ?", *filter.ClientID)
	}
	if filter.ServiceAreaID != nil {
		where.add("j.service_area_id = ?", *filter.ServiceAreaID)
	}
	if filter.From != nil {
		where.add("j.scheduled_date >= ?", *filter.From)
	}
	if filter.To != nil {
		where.add("j.scheduled_date <= ?", *filter.To)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		pattern := likePattern(*filter.Search)
		where.add("(LOWER(j.customer_name) LIKE ? OR COALESCE(j.customer_phone, '') LIKE ? OR LOWER(COALESCE(j.service_type, '')) LIKE ? OR LOWER(COALESCE(j.address_line, '')) LIKE ?)",
			pattern, pattern, pattern, pattern)
	}
	if filter.PublicOnly {
		where.add("j.is_public = TRUE")
	}
	if filter.FinishedOnly {
		where.add("j.status IN (?, ?, ?)", models.JobStatusCompleted, models.JobStatusInvoiced, models.JobStatusPaid)
	}

	query := `SELECT ` + jobColumns + `, COUNT(*) OVER() AS total_count` + jobFrom +
		where.clause() + " ORDER BY j.scheduled_date DESC NULLS LAST, j.created_at DESC" +
		paginate(&where.args, &where.argCount, filter.Page, filter.PageSize)

	rows, err := r.db.Query(query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying jobs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var job models.Job
		if err := scanJob(rows, &job, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning job: %v", ErrDatabaseError, err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating job rows: %v", ErrDatabaseError, err)
	}
	return jobs, totalCount, nil
}

// UpdateJob writes every editable column. total_amount is always recalculated here.
func (r *jobRepository) UpdateJob(executor SQLExecutor, job *models.Job) error {
	query := `UPDATE jobs SET
	            client_id = $1, customer_name = $2, customer_phone = $3, customer_email = $4, address_line = $5,
	            city = $6, state = $7, zip_code = $8, service_area_id = $9, service_type = $10, description = $11,
	            status = $12, scheduled_date = $13, completed_at = $14, travel_fee = $15, labor_total = $16,
	            materials_total = $17, other_fees = $18, total_amount = $19, is_public = $20, notes = $21, updated_at = $22
	          WHERE id = $23`

	job.UpdatedAt = time.Now()
	job.RecalculateTotal()

	result, err := executor.Exec(query,
		job.ClientID, job.CustomerName, job.CustomerPhone, job.CustomerEmail, job.AddressLine,
		job.City, job.State, job.ZipCode, job.ServiceAreaID, job.ServiceType, job.Description,
		job.Status, job.ScheduledDate, job.CompletedAt, job.TravelFee, job.LaborTotal,
		job.MaterialsTotal, job.OtherFees, job.TotalAmount, job.IsPublic, job.Notes, job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating job ID %d", job.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating job ID %d", job.ID))
}

// DeleteJob removes a job; assignments, photos and materials cascade.
func (r *jobRepository) DeleteJob(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting job ID %d", id))
	}
	return expectAffected(result, fmt.Sprintf("deleting job ID %d", id))
}

// GetPublicServiceTypes returns the distinct service types of finished, published jobs.
func (r *jobRepository) GetPublicServiceTypes() ([]string, error) {
	query := `SELECT DISTINCT service_type FROM jobs
	          WHERE is_public = TRUE AND service_type IS NOT NULL AND service_type <> ''
	            AND status IN ($1, $2, $3)
	          ORDER BY service_type`
	rows, err := r.db.Query(query, models.JobStatusCompleted, models.JobStatusInvoiced, models.JobStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("%w: querying public service types: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%w: scanning service type: %v", ErrDatabaseError, err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating service types: %v", ErrDatabaseError, err)
	}
	return types, nil
}
