package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gioservice_backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// WorkerRepository defines the interface for worker-related database operations.
type WorkerRepository interface {
	CreateWorker(executor SQLExecutor, worker *models.Worker) (int64, error)
	GetWorkerByID(id int64) (*models.Worker, error)
	GetWorkersByIDs(executor SQLExecutor, ids []int64) ([]models.Worker, error)
	GetWorkers(status *string, searchTerm *string, page, pageSize int) ([]models.Worker, int, error)
	UpdateWorker(executor SQLExecutor, worker *models.Worker) error
	DeleteWorker(executor SQLExecutor, id int64) error
	CountActiveWorkers() (int, error)
}

type workerRepository struct {
	db *sql.DB
}

// NewWorkerRepository creates a new instance of WorkerRepository.
func NewWorkerRepository(db *sql.DB) WorkerRepository {
	return &workerRepository{db: db}
}

const workerColumns = `id, full_name, phone, email, role, pay_type, hourly_rate, overtime_rate, status, created_at, updated_at`

func scanWorker(s scanner, w *models.Worker, extra ...interface{}) error {
	var overtime decimal.NullDecimal
	dest := []interface{}{
		&w.ID, &w.FullName, &w.Phone, &w.Email, &w.Role, &w.PayType,
		&w.HourlyRate, &overtime, &w.Status, &w.CreatedAt, &w.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	w.OvertimeRate = nil
	if overtime.Valid {
		rate := overtime.Decimal
		w.OvertimeRate = &rate
	}
	w.FillDerived()
	return nil
}

func (r *workerRepository) CreateWorker(executor SQLExecutor, worker *models.Worker) (int64, error) {
	query := `INSERT INTO workers (full_name, phone, email, role, pay_type, hourly_rate, overtime_rate, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	currentTime := time.Now()
	worker.CreatedAt = currentTime
	worker.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		worker.FullName, worker.Phone, worker.Email, worker.Role, worker.PayType,
		worker.HourlyRate, worker.OvertimeRate, worker.Status, worker.CreatedAt, worker.UpdatedAt,
	).Scan(&worker.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating worker")
	}
	return worker.ID, nil
}

func (r *workerRepository) GetWorkerByID(id int64) (*models.Worker, error) {
	worker := &models.Worker{}
	query := `SELECT ` + workerColumns + ` FROM workers WHERE id = $1`
	if err := scanWorker(r.db.QueryRow(query, id), worker); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting worker by ID %d: %v", ErrDatabaseError, id, err)
	}
	return worker, nil
}

// GetWorkersByIDs loads the given workers. Missing ids are simply absent from the result.
func (r *workerRepository) GetWorkersByIDs(executor SQLExecutor, ids []int64) ([]models.Worker, error) {
	workers := []models.Worker{}
	if len(ids) == 0 {
		return workers, nil
	}
	if executor == nil {
		executor = r.db
	}
	query := `SELECT ` + workerColumns + ` FROM workers WHERE id = ANY($1) ORDER BY id`
	rows, err := executor.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying workers by ids: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var w models.Worker
		if err := scanWorker(rows, &w); err != nil {
			return nil, fmt.Errorf("%w: scanning worker: %v", ErrDatabaseError, err)
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating worker rows: %v", ErrDatabaseError, err)
	}
	return workers, nil
}

func (r *workerRepository) GetWorkers(status *string, searchTerm *string, page, pageSize int) ([]models.Worker, int, error) {
	workers := []models.Worker{}
	totalCount := 0

	where := newWhereBuilder()
	if status != nil && *status != "" {
		where.add("status = ?", *status)
	}
	if searchTerm != nil && strings.TrimSpace(*searchTerm) != "" {
		pattern := likePattern(*searchTerm)
		where.add("(LOWER(full_name) LIKE ? OR LOWER(COALESCE(role, '')) LIKE ? OR COALESCE(phone, '') LIKE ?)", pattern, pattern, pattern)
	}

	query := `SELECT ` + workerColumns + `, COUNT(*) OVER() AS total_count FROM workers` +
		where.clause() + " ORDER BY full_name ASC, id ASC" +
		paginate(&where.args, &where.argCount, page, pageSize)

	rows, err := r.db.Query(query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying workers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var w models.Worker
		if err := scanWorker(rows, &w, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning worker: %v", ErrDatabaseError, err)
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating worker rows: %v", ErrDatabaseError, err)
	}
	return workers, totalCount, nil
}

func (r *workerRepository) UpdateWorker(executor SQLExecutor, worker *models.Worker) error {
	query := `UPDATE workers SET
	            full_name = $1, phone = $2, email = $3, role = $4, pay_type = $5,
	            hourly_rate = $6, overtime_rate = $7, status = $8, updated_at = $9
	          WHERE id = $10`

	worker.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		worker.FullName, worker.Phone, worker.Email, worker.Role, worker.PayType,
		worker.HourlyRate, worker.OvertimeRate, worker.Status, worker.UpdatedAt, worker.ID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating worker ID %d", worker.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating worker ID %d", worker.ID))
}

// DeleteWorker removes a worker. Assignments or payroll entries block it with ErrForeignKey.
func (r *workerRepository) DeleteWorker(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM workers WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting worker ID %d", id))
	}
	return expectAffected(result, fmt.Sprintf("deleting worker ID %d", id))
}

func (r *workerRepository) CountActiveWorkers() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM workers WHERE status = $1`, models.WorkerStatusActive).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting active workers: %v", ErrDatabaseError, err)
	}
	return n, nil
}
