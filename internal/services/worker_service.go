package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Workers ---
var (
	ErrWorkerNotFound = errors.New("worker not found")
	ErrWorkerInUse    = errors.New("worker cannot be deleted while job assignments or payroll entries reference it")
)

// --- Worker DTOs ---
type CreateWorkerRequest struct {
	FullName     string           `json:"full_name" binding:"required"`
	Phone        *string          `json:"phone"`
	Email        *string          `json:"email"`
	Role         *string          `json:"role"`
	PayType      string           `json:"pay_type"`
	HourlyRate   decimal.Decimal  `json:"hourly_rate"`
	OvertimeRate *decimal.Decimal `json:"overtime_rate"`
	Status       string           `json:"status"`
}

type UpdateWorkerRequest struct {
	FullName          *string          `json:"full_name"`
	Phone             *string          `json:"phone"`
	Email             *string          `json:"email"`
	Role              *string          `json:"role"`
	PayType           *string          `json:"pay_type"`
	HourlyRate        *decimal.Decimal `json:"hourly_rate"`
	OvertimeRate      *decimal.Decimal `json:"overtime_rate"`
	ClearOvertimeRate bool             `json:"clear_overtime_rate"`
	Status            *string          `json:"status"`
}

// --- WorkerService Interface ---
type WorkerService interface {
	CreateWorker(req CreateWorkerRequest) (*models.Worker, error)
	GetWorkerByID(id int64) (*models.Worker, error)
	GetWorkers(status, searchTerm *string, page, pageSize int) ([]models.Worker, int, error)
	UpdateWorker(id int64, req UpdateWorkerRequest) (*models.Worker, error)
	DeleteWorker(id int64) error
	GetWorkerAssignments(id int64) ([]models.JobWorker, error)
}

// --- workerService Implementation ---
type workerService struct {
	workerRepo     repositories.WorkerRepository
	assignmentRepo repositories.JobWorkerRepository
	db             *sql.DB
	phoneRegion    string
}

// NewWorkerService creates a new instance of WorkerService.
func NewWorkerService(workerRepo repositories.WorkerRepository, assignmentRepo repositories.JobWorkerRepository, db *sql.DB, phoneRegion string) WorkerService {
	return &workerService{
		workerRepo:     workerRepo,
		assignmentRepo: assignmentRepo,
		db:             db,
		phoneRegion:    phoneRegion,
	}
}

func validateWorker(w *models.Worker) error {
	checks := fieldChecks{}
	checks.required("full_name", w.FullName)
	if !models.IsValidPayType(w.PayType) {
		checks.fail("pay_type", "must be one of hourly, per_job, salary")
	}
	if !models.IsValidWorkerStatus(w.Status) {
		checks.fail("status", "must be active or inactive")
	}
	checks.nonNegative("hourly_rate", &w.HourlyRate)
	checks.nonNegative("overtime_rate", w.OvertimeRate)
	return checks.err()
}

func (s *workerService) CreateWorker(req CreateWorkerRequest) (*models.Worker, error) {
	phone, email, err := normalizeContact(req.Phone, req.Email, s.phoneRegion)
	if err != nil {
		return nil, err
	}
	worker := &models.Worker{
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        phone,
		Email:        email,
		Role:         trimmedOrNil(req.Role),
		PayType:      req.PayType,
		HourlyRate:   req.HourlyRate,
		OvertimeRate: req.OvertimeRate,
		Status:       req.Status,
	}
	if worker.PayType == "" {
		worker.PayType = models.PayTypeHourly
	}
	if worker.Status == "" {
		worker.Status = models.WorkerStatusActive
	}
	if err := validateWorker(worker); err != nil {
		return nil, err
	}

	id, err := s.workerRepo.CreateWorker(s.db, worker)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}
	return s.GetWorkerByID(id)
}

func (s *workerService) GetWorkerByID(id int64) (*models.Worker, error) {
	worker, err := s.workerRepo.GetWorkerByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	worker.FillDerived()
	return worker, nil
}

func (s *workerService) GetWorkers(status, searchTerm *string, page, pageSize int) ([]models.Worker, int, error) {
	if status != nil && !models.IsValidWorkerStatus(*status) {
		return nil, 0, validationf("unknown worker status %q", *status)
	}
	page, pageSize = normalizePaging(page, pageSize)
	workers, total, err := s.workerRepo.GetWorkers(status, trimmedOrNil(searchTerm), page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get workers: %w", err)
	}
	for i := range workers {
		workers[i].FillDerived()
	}
	return workers, total, nil
}

func (s *workerService) UpdateWorker(id int64, req UpdateWorkerRequest) (*models.Worker, error) {
	worker, err := s.GetWorkerByID(id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		worker.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil || req.Email != nil {
		phone, email, err := normalizeContact(req.Phone, req.Email, s.phoneRegion)
		if err != nil {
			return nil, err
		}
		if req.Phone != nil {
			worker.Phone = phone
		}
		if req.Email != nil {
			worker.Email = email
		}
	}
	if req.Role != nil {
		worker.Role = trimmedOrNil(req.Role)
	}
	if req.PayType != nil {
		worker.PayType = *req.PayType
	}
	if req.HourlyRate != nil {
		worker.HourlyRate = *req.HourlyRate
	}
	if req.ClearOvertimeRate {
		worker.OvertimeRate = nil
	} else if req.OvertimeRate != nil {
		worker.OvertimeRate = req.OvertimeRate
	}
	if req.Status != nil {
		worker.Status = *req.Status
	}
	if err := validateWorker(worker); err != nil {
		return nil, err
	}

	if err := s.workerRepo.UpdateWorker(s.db, worker); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, fmt.Errorf("failed to update worker: %w", err)
	}
	return s.GetWorkerByID(id)
}

// DeleteWorker is refused while assignments or payroll entries reference the worker;
// setting the status to inactive is the usual alternative.
func (s *workerService) DeleteWorker(id int64) error {
	if err := s.workerRepo.DeleteWorker(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrWorkerNotFound
		}
		if errors.Is(err, repositories.ErrForeignKey) {
			return ErrWorkerInUse
		}
		return fmt.Errorf("failed to delete worker: %w", err)
	}
	return nil
}

func (s *workerService) GetWorkerAssignments(id int64) ([]models.JobWorker, error) {
	if _, err := s.GetWorkerByID(id); err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.GetAssignmentsByWorker(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get worker assignments: %w", err)
	}
	return assignments, nil
}
