package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
)

// JobWorkerRepository defines the interface for worker assignment database operations.
type JobWorkerRepository interface {
	CreateAssignment(executor SQLExecutor, assignment *models.JobWorker) (int64, error)
	GetAssignmentByID(id int64) (*models.JobWorker, error)
	GetAssignmentsByJob(jobID int64) ([]models.JobWorker, error)
	GetAssignmentsByWorker(workerID int64) ([]models.JobWorker, error)
	UpdateAssignment(executor SQLExecutor, assignment *models.JobWorker) error
	DeleteAssignment(executor SQLExecutor, jobID, assignmentID int64) error
	GetWorkerHoursInRange(start, end models.Date) ([]models.WorkerHours, error)
}

type jobWorkerRepository struct {
	db *sql.DB
}

// NewJobWorkerRepository creates a new instance of JobWorkerRepository.
func NewJobWorkerRepository(db *sql.DB) JobWorkerRepository {
	return &jobWorkerRepository{db: db}
}

const jobWorkerColumns = `jw.id, jw.job_id, jw.worker_id, jw.hours_regular, jw.hours_overtime,
	jw.labor_rate, jw.labor_cost, jw.created_at, jw.updated_at`

func scanJobWorker(s scanner, jw *models.JobWorker, extra ...interface{}) error {
	dest := []interface{}{
		&jw.ID, &jw.JobID, &jw.WorkerID, &jw.HoursRegular, &jw.HoursOvertime,
		&jw.LaborRate, &jw.LaborCost, &jw.CreatedAt, &jw.UpdatedAt,
	}
	return s.Scan(append(dest, extra...)...)
}

// CreateAssignment inserts a job-worker row. UNIQUE(job_id, worker_id) surfaces as ErrDuplicateKey.
func (r *jobWorkerRepository) CreateAssignment(executor SQLExecutor, assignment *models.JobWorker) (int64, error) {
	query := `INSERT INTO job_workers (job_id, worker_id, hours_regular, hours_overtime, labor_rate, labor_cost, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	currentTime := time.Now()
	assignment.CreatedAt = currentTime
	assignment.UpdatedAt = currentTime
	assignment.RecalculateCost()

	err := executor.QueryRow(query,
		assignment.JobID, assignment.WorkerID, assignment.HoursRegular, assignment.HoursOvertime,
		assignment.LaborRate, assignment.LaborCost, assignment.CreatedAt, assignment.UpdatedAt,
	).Scan(&assignment.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("assigning worker %d to job %d", assignment.WorkerID, assignment.JobID))
	}
	return assignment.ID, nil
}

func (r *jobWorkerRepository) GetAssignmentByID(id int64) (*models.JobWorker, error) {
	jw := &models.JobWorker{}
	query := `SELECT ` + jobWorkerColumns + `, w.full_name
	          FROM job_workers jw JOIN workers w ON w.id = jw.worker_id
	          WHERE jw.id = $1`
	if err := scanJobWorker(r.db.QueryRow(query, id), jw, &jw.WorkerName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting assignment by ID %d: %v", ErrDatabaseError, id, err)
	}
	return jw, nil
}

func (r *jobWorkerRepository) GetAssignmentsByJob(jobID int64) ([]models.JobWorker, error) {
	query := `SELECT ` + jobWorkerColumns + `, w.full_name
	          FROM job_workers jw JOIN workers w ON w.id = jw.worker_id
	          WHERE jw.job_id = $1
	          ORDER BY w.full_name ASC, jw.id ASC`
	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying assignments for job %d: %v", ErrDatabaseError, jobID, err)
	}
	defer rows.Close()

	assignments := []models.JobWorker{}
	for rows.Next() {
		var jw models.JobWorker
		if err := scanJobWorker(rows, &jw, &jw.WorkerName); err != nil {
			return nil, fmt.Errorf("%w: scanning assignment: %v", ErrDatabaseError, err)
		}
		assignments = append(assignments, jw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating assignments: %v", ErrDatabaseError, err)
	}
	return assignments, nil
}

// GetAssignmentsByWorker lists a worker's assignments with a summary of each job.
func (r *jobWorkerRepository) GetAssignmentsByWorker(workerID int64) ([]models.JobWorker, error) {
	query := `SELECT ` + jobWorkerColumns + `, j.customer_name, j.service_type, j.status, j.scheduled_date
	          FROM job_workers jw JOIN jobs j ON j.id = jw.job_id
	          WHERE jw.worker_id = $1
	          ORDER BY j.scheduled_date DESC NULLS LAST, jw.id DESC`
	rows, err := r.db.Query(query, workerID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying assignments for worker %d: %v", ErrDatabaseError, workerID, err)
	}
	defer rows.Close()

	assignments := []models.JobWorker{}
	for rows.Next() {
		var jw models.JobWorker
		summary := &models.JobSummary{}
		if err := scanJobWorker(rows, &jw, &summary.CustomerName, &summary.ServiceType, &summary.Status, &summary.ScheduledDate); err != nil {
			return nil, fmt.Errorf("%w: scanning assignment: %v", ErrDatabaseError, err)
		}
		summary.ID = jw.JobID
		jw.Job = summary
		assignments = append(assignments, jw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating assignments: %v", ErrDatabaseError, err)
	}
	return assignments, nil
}

// UpdateAssignment writes hours and rate; labor_cost is recalculated before the write.
func (r *jobWorkerRepository) UpdateAssignment(executor SQLExecutor, assignment *models.JobWorker) error {
	query := `UPDATE job_workers SET
	            hours_regular = $1, hours_overtime = $2, labor_rate = $3, labor_cost = $4, updated_at = $5
	          WHERE id = $6 AND job_id = $7`

	assignment.UpdatedAt = time.Now()
	assignment.RecalculateCost()

	result, err := executor.Exec(query,
		assignment.HoursRegular, assignment.HoursOvertime, assignment.LaborRate, assignment.LaborCost,
		assignment.UpdatedAt, assignment.ID, assignment.JobID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating assignment ID %d", assignment.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating assignment ID %d", assignment.ID))
}

func (r *jobWorkerRepository) DeleteAssignment(executor SQLExecutor, jobID, assignmentID int64) error {
	result, err := executor.Exec(`DELETE FROM job_workers WHERE id = $1 AND job_id = $2`, assignmentID, jobID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting assignment ID %d", assignmentID))
	}
	return expectAffected(result, fmt.Sprintf("deleting assignment ID %d", assignmentID))
}

// GetWorkerHoursInRange returns every assignment whose job is scheduled within [start, end].
func (r *jobWorkerRepository) GetWorkerHoursInRange(start, end models.Date) ([]models.WorkerHours, error) {
	query := `SELECT jw.worker_id, jw.job_id, j.scheduled_date, jw.hours_regular, jw.hours_overtime
	          FROM job_workers jw JOIN jobs j ON j.id = jw.job_id
	          WHERE j.scheduled_date >= $1 AND j.scheduled_date <= $2
	          ORDER BY jw.worker_id, j.scheduled_date, jw.id`
	rows, err := r.db.Query(query, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: querying worker hours: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var out []models.WorkerHours
	for rows.Next() {
		var wh models.WorkerHours
		var regular, overtime decimal.NullDecimal
		if err := rows.Scan(&wh.WorkerID, &wh.JobID, &wh.ScheduledDate, &regular, &overtime); err != nil {
			return nil, fmt.Errorf("%w: scanning worker hours: %v", ErrDatabaseError, err)
		}
		if regular.Valid {
			v := regular.Decimal
			wh.HoursRegular = &v
		}
		if overtime.Valid {
			v := overtime.Decimal
			wh.HoursOvertime = &v
		}
		out = append(out, wh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating worker hours: %v", ErrDatabaseError, err)
	}
	return out, nil
}
