package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gioservice_backend/internal/events"
	"gioservice_backend/internal/exports"
	"gioservice_backend/internal/locks"
	"gioservice_backend/internal/metrics"
	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"
	"gioservice_backend/internal/share"
	"gioservice_backend/internal/storage"
	"gioservice_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Job ---
var (
	ErrJobNotFound           = errors.New("job not found")
	ErrAssignmentNotFound    = errors.New("worker assignment not found")
	ErrWorkerAlreadyAssigned = errors.New("worker is already assigned to this job")
	ErrMaterialNotFound      = errors.New("job material not found")
	ErrNoSharePhone          = errors.New("no phone number to share with")
)

// --- Job DTOs ---
type CreateJobRequest struct {
	ClientID       *int64           `json:"client_id"`
	CustomerName   string           `json:"customer_name"`
	CustomerPhone  *string          `json:"customer_phone"`
	CustomerEmail  *string          `json:"customer_email"`
	AddressLine    *string          `json:"address_line"`
	City           *string          `json:"city"`
	State          *string          `json:"state"`
	ZipCode        *string          `json:"zip_code"`
	ServiceAreaID  *int64           `json:"service_area_id"`
	ServiceType    *string          `json:"service_type"`
	Description    *string          `json:"description"`
	Status         *string          `json:"status"`
	ScheduledDate  *models.Date     `json:"scheduled_date"`
	TravelFee      *decimal.Decimal `json:"travel_fee"`
	LaborTotal     *decimal.Decimal `json:"labor_total"`
	MaterialsTotal *decimal.Decimal `json:"materials_total"`
	OtherFees      *decimal.Decimal `json:"other_fees"`
	IsPublic       *bool            `json:"is_public"`
	Notes          *string          `json:"notes"`
}

// UpdateJobRequest is a partial update. total_amount is not accepted; it is always derived.
type UpdateJobRequest struct {
	ClientID       *int64           `json:"client_id"`
	CustomerName   *string          `json:"customer_name"`
	CustomerPhone  *string          `json:"customer_phone"`
	CustomerEmail  *string          `json:"customer_email"`
	AddressLine    *string          `json:"address_line"`
	City           *string          `json:"city"`
	State          *string          `json:"state"`
	ZipCode        *string          `json:"zip_code"`
	ServiceAreaID  *int64           `json:"service_area_id"`
	ServiceType    *string          `json:"service_type"`
	Description    *string          `json:"description"`
	Status         *string          `json:"status"`
	ScheduledDate  models.NullDate  `json:"scheduled_date"`
	TravelFee      *decimal.Decimal `json:"travel_fee"`
	LaborTotal     *decimal.Decimal `json:"labor_total"`
	MaterialsTotal *decimal.Decimal `json:"materials_total"`
	OtherFees      *decimal.Decimal `json:"other_fees"`
	IsPublic       *bool            `json:"is_public"`
	Notes          *string          `json:"notes"`
}

type UpdateJobStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AssignWorkerRequest struct {
	WorkerID  int64            `json:"worker_id" binding:"required"`
	LaborRate *decimal.Decimal `json:"labor_rate"`
}

type UpdateAssignmentRequest struct {
	HoursRegular  *decimal.Decimal `json:"hours_regular"`
	HoursOvertime *decimal.Decimal `json:"hours_overtime"`
	LaborRate     *decimal.Decimal `json:"labor_rate"`
}

type AddMaterialRequest struct {
	ItemID   int64            `json:"item_id" binding:"required"`
	Quantity decimal.Decimal  `json:"quantity"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
}

// ShareLink is a ready-to-open WhatsApp deep link.
type ShareLink struct {
	URL     string `json:"url"`
	Message string `json:"message"`
	Phone   string `json:"phone,omitempty"`
}

// JobServiceConfig carries the settings the job service reads from configuration.
type JobServiceConfig struct {
	CompanyName   string
	PublicSiteURL string
	PhoneRegion   string
}

// --- JobService Interface ---
type JobService interface {
	CreateJob(ctx context.Context, req CreateJobRequest) (*models.Job, error)
	GetJobByID(jobID int64) (*models.Job, error)
	GetJobs(filter models.JobFilter) ([]models.Job, int, error)
	UpdateJob(ctx context.Context, jobID int64, req UpdateJobRequest) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, jobID int64, status string) (*models.Job, error)
	DeleteJob(ctx context.Context, jobID int64) error

	AssignWorker(jobID int64, req AssignWorkerRequest) (*models.JobWorker, error)
	UpdateAssignment(jobID, assignmentID int64, req UpdateAssignmentRequest) (*models.JobWorker, error)
	RemoveAssignment(jobID, assignmentID int64) error

	AddMaterial(ctx context.Context, jobID int64, req AddMaterialRequest, userID *int64) (*models.Job, error)
	RemoveMaterial(ctx context.Context, jobID, materialID int64, userID *int64) (*models.Job, error)

	RenderReport(ctx context.Context, jobID int64) ([]byte, string, error)
	WhatsAppShare(jobID int64, phone *string, public bool) (*ShareLink, error)
}

// --- jobService Implementation ---
type jobService struct {
	jobRepo        repositories.JobRepository
	clientRepo     repositories.ClientRepository
	assignmentRepo repositories.JobWorkerRepository
	materialRepo   repositories.JobMaterialRepository
	workerRepo     repositories.WorkerRepository
	photoRepo      repositories.PhotoRepository
	areaRepo       repositories.ServiceAreaRepository
	ledger         stockLedger
	tx             repositories.TxRunner
	db             *sql.DB
	blobs          storage.BlobStore
	publisher      events.Publisher
	metrics        *metrics.Metrics
	cfg            JobServiceConfig
	now            func() time.Time
}

// JobRepos bundles the repositories the job service works across.
type JobRepos struct {
	Jobs        repositories.JobRepository
	Clients     repositories.ClientRepository
	Assignments repositories.JobWorkerRepository
	Materials   repositories.JobMaterialRepository
	Workers     repositories.WorkerRepository
	Photos      repositories.PhotoRepository
	Areas       repositories.ServiceAreaRepository
	Items       repositories.InventoryItemRepository
	Movements   repositories.InventoryMovementRepository
}

// NewJobService creates a new instance of JobService.
func NewJobService(
	repos JobRepos,
	tx repositories.TxRunner,
	db *sql.DB,
	locker locks.Locker,
	blobs storage.BlobStore,
	publisher events.Publisher,
	m *metrics.Metrics,
	cfg JobServiceConfig,
) JobService {
	if locker == nil {
		locker = locks.Noop{}
	}
	return &jobService{
		jobRepo:        repos.Jobs,
		clientRepo:     repos.Clients,
		assignmentRepo: repos.Assignments,
		materialRepo:   repos.Materials,
		workerRepo:     repos.Workers,
		photoRepo:      repos.Photos,
		areaRepo:       repos.Areas,
		ledger:         stockLedger{itemRepo: repos.Items, movementRepo: repos.Movements, locker: locker},
		tx:             tx,
		db:             db,
		blobs:          blobs,
		publisher:      publisher,
		metrics:        m,
		cfg:            cfg,
		now:            time.Now,
	}
}

func validateJobPricing(checks fieldChecks, travel, labor, materials, other *decimal.Decimal) {
	checks.nonNegative("travel_fee", travel)
	checks.nonNegative("labor_total", labor)
	checks.nonNegative("materials_total", materials)
	checks.nonNegative("other_fees", other)
}

// normalizeJobZip validates an optional ZIP code and returns its five-digit form.
func normalizeJobZip(checks fieldChecks, zip *string) *string {
	zip = trimmedOrNil(zip)
	if zip == nil {
		return nil
	}
	z := models.NormalizeZip(*zip)
	if !models.IsValidZip(z) {
		checks.fail("zip_code", "must be a 5-digit ZIP code")
		return nil
	}
	return &z
}

// tagArea resolves the service area of a ZIP code. An uncovered ZIP leaves the job untagged.
func tagArea(areaRepo repositories.ServiceAreaRepository, zip *string) (*int64, error) {
	if zip == nil {
		return nil, nil
	}
	area, err := areaRepo.FindAreaByZip(*zip)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up service area: %w", err)
	}
	id := area.ID
	return &id, nil
}

// setJobStatus applies a status and keeps completed_at in step with it: entering a finished
// status stamps it once, returning to an open status clears it.
func setJobStatus(job *models.Job, status string, now time.Time) {
	job.Status = status
	switch {
	case status == models.JobStatusCompleted && job.CompletedAt == nil:
		t := now.UTC()
		job.CompletedAt = &t
	case !models.IsFinishedJobStatus(status):
		job.CompletedAt = nil
	}
}

func mapJobWriteError(err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrJobNotFound
	case errors.Is(err, repositories.ErrForeignKey):
		if repositories.IsConstraint(err, "jobs_service_area_id_fkey") {
			return ErrServiceAreaNotFound
		}
		return ErrClientNotFound
	}
	return fmt.Errorf("failed to %s job: %w", action, err)
}

func (s *jobService) CreateJob(ctx context.Context, req CreateJobRequest) (*models.Job, error) {
	checks := fieldChecks{}
	status := models.JobStatusLead
	if req.Status != nil {
		status = strings.TrimSpace(*req.Status)
	} else if req.ScheduledDate != nil {
		status = models.JobStatusScheduled
	}
	if !models.IsValidJobStatus(status) {
		checks.fail("status", "invalid job status")
	}
	validateJobPricing(checks, req.TravelFee, req.LaborTotal, req.MaterialsTotal, req.OtherFees)
	zip := normalizeJobZip(checks, req.ZipCode)
	phone, email, err := normalizeContact(req.CustomerPhone, req.CustomerEmail, s.cfg.PhoneRegion)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			checks.fail("customer_email", verr.Fields["email"])
		} else {
			return nil, err
		}
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" && req.ClientID != nil {
		client, err := s.lookupClientName(*req.ClientID)
		if err != nil {
			return nil, err
		}
		name = client
	}
	checks.required("customer_name", name)
	if err := checks.err(); err != nil {
		return nil, err
	}

	job := &models.Job{
		ClientID:       req.ClientID,
		CustomerName:   name,
		CustomerPhone:  phone,
		CustomerEmail:  email,
		AddressLine:    trimmedOrNil(req.AddressLine),
		City:           trimmedOrNil(req.City),
		State:          trimmedOrNil(req.State),
		ZipCode:        zip,
		ServiceAreaID:  req.ServiceAreaID,
		ServiceType:    trimmedOrNil(req.ServiceType),
		Description:    trimmedOrNil(req.Description),
		ScheduledDate:  req.ScheduledDate,
		TravelFee:      decOrZero(req.TravelFee),
		LaborTotal:     decOrZero(req.LaborTotal),
		MaterialsTotal: decOrZero(req.MaterialsTotal),
		OtherFees:      decOrZero(req.OtherFees),
		Notes:          trimmedOrNil(req.Notes),
	}
	if req.IsPublic != nil {
		job.IsPublic = *req.IsPublic
	}
	setJobStatus(job, status, s.now())
	if job.ServiceAreaID == nil {
		if job.ServiceAreaID, err = tagArea(s.areaRepo, zip); err != nil {
			return nil, err
		}
	}

	id, err := s.jobRepo.CreateJob(s.db, job)
	if err != nil {
		return nil, mapJobWriteError(err, "create")
	}

	s.metrics.JobCreated(metrics.SourceAdmin)
	events.Emit(ctx, s.publisher, events.New(events.JobCreated, id, map[string]interface{}{
		"source": metrics.SourceAdmin,
		"status": job.Status,
	}))
	return s.GetJobByID(id)
}

// lookupClientName returns the name of an existing client, used when a job is created for one.
func (s *jobService) lookupClientName(clientID int64) (string, error) {
	client, err := s.clientRepo.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrClientNotFound
		}
		return "", fmt.Errorf("failed to get client: %w", err)
	}
	return client.FullName, nil
}

// GetJobByID returns the job with its assignments, materials and photos.
func (s *jobService) GetJobByID(jobID int64) (*models.Job, error) {
	job, err := s.jobRepo.GetJobByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job.Workers, err = s.assignmentRepo.GetAssignmentsByJob(jobID); err != nil {
		return nil, fmt.Errorf("failed to get job workers: %w", err)
	}
	if job.Materials, err = s.materialRepo.GetMaterialsByJob(jobID); err != nil {
		return nil, fmt.Errorf("failed to get job materials: %w", err)
	}
	if job.Photos, err = s.photoRepo.GetPhotosByJob(jobID, nil); err != nil {
		return nil, fmt.Errorf("failed to get job photos: %w", err)
	}
	return job, nil
}

func (s *jobService) GetJobs(filter models.JobFilter) ([]models.Job, int, error) {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)
	if filter.Status != nil && !models.IsValidJobStatus(*filter.Status) {
		return nil, 0, &ValidationError{Fields: map[string]string{"status": "invalid job status"}}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, &ValidationError{Fields: map[string]string{"to": "must not be before from"}}
	}
	filter.Search = trimmedOrNil(filter.Search)
	jobs, total, err := s.jobRepo.GetJobs(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get jobs: %w", err)
	}
	return jobs, total, nil
}

// UpdateJob merges the given fields into the locked row. The repository recomputes total_amount on write.
func (s *jobService) UpdateJob(ctx context.Context, jobID int64, req UpdateJobRequest) (*models.Job, error) {
	checks := fieldChecks{}
	if req.CustomerName != nil {
		checks.required("customer_name", *req.CustomerName)
	}
	if req.Status != nil && !models.IsValidJobStatus(strings.TrimSpace(*req.Status)) {
		checks.fail("status", "invalid job status")
	}
	validateJobPricing(checks, req.TravelFee, req.LaborTotal, req.MaterialsTotal, req.OtherFees)
	var zip *string
	if req.ZipCode != nil {
		zip = normalizeJobZip(checks, req.ZipCode)
	}
	var phone, email *string
	if req.CustomerPhone != nil || req.CustomerEmail != nil {
		var err error
		phone, email, err = normalizeContact(req.CustomerPhone, req.CustomerEmail, s.cfg.PhoneRegion)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}
			checks.fail("customer_email", verr.Fields["email"])
		}
	}
	if err := checks.err(); err != nil {
		return nil, err
	}

	var previousStatus, newStatus string
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		job, err := s.jobRepo.GetJobForUpdate(exec, jobID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrJobNotFound
			}
			return fmt.Errorf("failed to lock job: %w", err)
		}
		previousStatus = job.Status

		if req.CustomerPhone != nil {
			job.CustomerPhone = phone
		}
		if req.CustomerEmail != nil {
			job.CustomerEmail = email
		}
		if req.ClientID != nil {
			if *req.ClientID > 0 {
				job.ClientID = req.ClientID
			} else {
				job.ClientID = nil
			}
		}
		if req.CustomerName != nil {
			job.CustomerName = strings.TrimSpace(*req.CustomerName)
		}
		if req.AddressLine != nil {
			job.AddressLine = trimmedOrNil(req.AddressLine)
		}
		if req.City != nil {
			job.City = trimmedOrNil(req.City)
		}
		if req.State != nil {
			job.State = trimmedOrNil(req.State)
		}
		if req.ZipCode != nil {
			job.ZipCode = zip
			if req.ServiceAreaID == nil {
				if job.ServiceAreaID, err = tagArea(s.areaRepo, zip); err != nil {
					return err
				}
			}
		}
		if req.ServiceAreaID != nil {
			if *req.ServiceAreaID > 0 {
				job.ServiceAreaID = req.ServiceAreaID
			} else {
				job.ServiceAreaID = nil
			}
		}
		if req.ServiceType != nil {
			job.ServiceType = trimmedOrNil(req.ServiceType)
		}
		if req.Description != nil {
			job.Description = trimmedOrNil(req.Description)
		}
		if req.ScheduledDate.Set {
			job.ScheduledDate = req.ScheduledDate.Value
		}
		if req.TravelFee != nil {
			job.TravelFee = *req.TravelFee
		}
		if req.LaborTotal != nil {
			job.LaborTotal = *req.LaborTotal
		}
		if req.MaterialsTotal != nil {
			job.MaterialsTotal = *req.MaterialsTotal
		}
		if req.OtherFees != nil {
			job.OtherFees = *req.OtherFees
		}
		if req.IsPublic != nil {
			job.IsPublic = *req.IsPublic
		}
		if req.Notes != nil {
			job.Notes = trimmedOrNil(req.Notes)
		}
		if req.Status != nil {
			setJobStatus(job, strings.TrimSpace(*req.Status), s.now())
		}
		newStatus = job.Status

		if err := s.jobRepo.UpdateJob(exec, job); err != nil {
			return mapJobWriteError(err, "update")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if newStatus != previousStatus {
		s.emitStatusChanged(ctx, jobID, previousStatus, newStatus)
	}
	return s.GetJobByID(jobID)
}

// UpdateJobStatus moves a job to any valid status. Entering completed stamps completed_at.
func (s *jobService) UpdateJobStatus(ctx context.Context, jobID int64, status string) (*models.Job, error) {
	status = strings.TrimSpace(status)
	if !models.IsValidJobStatus(status) {
		return nil, fmt.Errorf("%w: %q is not a job status", ErrInvalidStatus, status)
	}

	var previous string
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		job, err := s.jobRepo.GetJobForUpdate(exec, jobID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrJobNotFound
			}
			return fmt.Errorf("failed to lock job: %w", err)
		}
		previous = job.Status
		if previous == status {
			return nil
		}
		setJobStatus(job, status, s.now())
		if err := s.jobRepo.UpdateJob(exec, job); err != nil {
			return mapJobWriteError(err, "update status of")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if previous != status {
		s.emitStatusChanged(ctx, jobID, previous, status)
	}
	return s.GetJobByID(jobID)
}

func (s *jobService) emitStatusChanged(ctx context.Context, jobID int64, from, to string) {
	utils.LogInfo("Job status changed", map[string]interface{}{"job_id": jobID, "from": from, "to": to})
	events.Emit(ctx, s.publisher, events.New(events.JobStatusChanged, jobID, map[string]interface{}{
		"from": from,
		"to":   to,
	}))
}

// DeleteJob removes the job; its rows cascade. Photo blobs are removed afterwards, best-effort.
func (s *jobService) DeleteJob(ctx context.Context, jobID int64) error {
	photos, err := s.photoRepo.GetPhotosByJob(jobID, nil)
	if err != nil {
		return fmt.Errorf("failed to get job photos: %w", err)
	}
	if err := s.jobRepo.DeleteJob(s.db, jobID); err != nil {
		return mapJobWriteError(err, "delete")
	}
	if s.blobs == nil {
		return nil
	}
	for _, p := range photos {
		if err := s.blobs.Delete(ctx, p.StoragePath); err != nil {
			utils.LogWarn("Failed to delete photo blob of deleted job", map[string]interface{}{
				"job_id": jobID,
				"path":   p.StoragePath,
				"error":  err.Error(),
			})
		}
	}
	return nil
}

func (s *jobService) ensureJob(jobID int64) error {
	if _, err := s.jobRepo.GetJobByID(jobID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to get job: %w", err)
	}
	return nil
}

// AssignWorker adds one worker to a job with zero hours. The rate defaults to the worker's hourly rate.
func (s *jobService) AssignWorker(jobID int64, req AssignWorkerRequest) (*models.JobWorker, error) {
	checks := fieldChecks{}
	if req.WorkerID <= 0 {
		checks.fail("worker_id", "required")
	}
	checks.nonNegative("labor_rate", req.LaborRate)
	if err := checks.err(); err != nil {
		return nil, err
	}
	if err := s.ensureJob(jobID); err != nil {
		return nil, err
	}
	worker, err := s.workerRepo.GetWorkerByID(req.WorkerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}

	assignment := &models.JobWorker{
		JobID:         jobID,
		WorkerID:      worker.ID,
		HoursRegular:  decimal.Zero,
		HoursOvertime: decimal.Zero,
		LaborRate:     worker.HourlyRate,
	}
	if req.LaborRate != nil {
		assignment.LaborRate = models.Money(*req.LaborRate)
	}
	assignment.RecalculateCost()

	id, err := s.assignmentRepo.CreateAssignment(s.db, assignment)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, ErrWorkerAlreadyAssigned
		case errors.Is(err, repositories.ErrForeignKey):
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to assign worker: %w", err)
	}
	return s.getAssignment(jobID, id)
}

func (s *jobService) getAssignment(jobID, assignmentID int64) (*models.JobWorker, error) {
	assignment, err := s.assignmentRepo.GetAssignmentByID(assignmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.JobID != jobID {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}

// UpdateAssignment records hours worked; labor_cost follows from hours and rate.
func (s *jobService) UpdateAssignment(jobID, assignmentID int64, req UpdateAssignmentRequest) (*models.JobWorker, error) {
	checks := fieldChecks{}
	checks.nonNegative("hours_regular", req.HoursRegular)
	checks.nonNegative("hours_overtime", req.HoursOvertime)
	checks.nonNegative("labor_rate", req.LaborRate)
	if err := checks.err(); err != nil {
		return nil, err
	}

	assignment, err := s.getAssignment(jobID, assignmentID)
	if err != nil {
		return nil, err
	}
	if req.HoursRegular != nil {
		assignment.HoursRegular = models.Money(*req.HoursRegular)
	}
	if req.HoursOvertime != nil {
		assignment.HoursOvertime = models.Money(*req.HoursOvertime)
	}
	if req.LaborRate != nil {
		assignment.LaborRate = models.Money(*req.LaborRate)
	}
	assignment.RecalculateCost()

	if err := s.assignmentRepo.UpdateAssignment(s.db, assignment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}
	return s.getAssignment(jobID, assignmentID)
}

func (s *jobService) RemoveAssignment(jobID, assignmentID int64) error {
	if err := s.assignmentRepo.DeleteAssignment(s.db, jobID, assignmentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to remove assignment: %w", err)
	}
	return nil
}

// syncMaterialsTotal sets the job's materials_total to the sum of its material costs
// and writes the job so total_amount follows.
func (s *jobService) syncMaterialsTotal(exec repositories.SQLExecutor, jobID int64) error {
	job, err := s.jobRepo.GetJobForUpdate(exec, jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to lock job: %w", err)
	}
	sum, err := s.materialRepo.SumMaterialCost(exec, jobID)
	if err != nil {
		return fmt.Errorf("failed to sum job materials: %w", err)
	}
	job.MaterialsTotal = sum
	if err := s.jobRepo.UpdateJob(exec, job); err != nil {
		return mapJobWriteError(err, "update totals of")
	}
	return nil
}

// AddMaterial consumes stock for a job. The material row, the out movement, the item
// quantity and the job totals are written in one transaction under the item lock.
func (s *jobService) AddMaterial(ctx context.Context, jobID int64, req AddMaterialRequest, userID *int64) (*models.Job, error) {
	quantity := models.Money(req.Quantity)
	checks := fieldChecks{}
	if req.ItemID <= 0 {
		checks.fail("item_id", "required")
	}
	if !quantity.IsPositive() {
		checks.fail("quantity", "must be at least 0.01")
	}
	checks.nonNegative("unit_cost", req.UnitCost)
	if err := checks.err(); err != nil {
		return nil, err
	}
	if err := s.ensureJob(jobID); err != nil {
		return nil, err
	}

	release, err := s.ledger.lockItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		reason := fmt.Sprintf("used on job #%d", jobID)
		item, err := s.ledger.apply(exec, &models.InventoryMovement{
			ItemID:       req.ItemID,
			MovementType: models.MovementTypeOut,
			Quantity:     quantity,
			JobID:        &jobID,
			Reason:       &reason,
			CreatedBy:    userID,
		})
		if err != nil {
			return err
		}

		material := &models.JobMaterial{
			JobID:    jobID,
			ItemID:   item.ID,
			Quantity: quantity,
			UnitCost: item.CostPerUnit,
		}
		if req.UnitCost != nil {
			material.UnitCost = models.Money(*req.UnitCost)
		}
		material.RecalculateCost()
		if _, err := s.materialRepo.CreateMaterial(exec, material); err != nil {
			if errors.Is(err, repositories.ErrForeignKey) {
				return ErrJobNotFound
			}
			return fmt.Errorf("failed to add job material: %w", err)
		}
		return s.syncMaterialsTotal(exec, jobID)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.InventoryMovement(models.MovementTypeOut)
	return s.GetJobByID(jobID)
}

// RemoveMaterial deletes a material and returns its quantity to stock with an in movement.
func (s *jobService) RemoveMaterial(ctx context.Context, jobID, materialID int64, userID *int64) (*models.Job, error) {
	material, err := s.materialRepo.GetMaterialByID(nil, jobID, materialID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get job material: %w", err)
	}

	release, err := s.ledger.lockItem(ctx, material.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		// re-read inside the transaction so a concurrent removal cannot return stock twice
		material, err := s.materialRepo.GetMaterialByID(exec, jobID, materialID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrMaterialNotFound
			}
			return fmt.Errorf("failed to get job material: %w", err)
		}
		if err := s.materialRepo.DeleteMaterial(exec, jobID, materialID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrMaterialNotFound
			}
			return fmt.Errorf("failed to delete job material: %w", err)
		}
		reason := fmt.Sprintf("returned from job #%d", jobID)
		if _, err := s.ledger.apply(exec, &models.InventoryMovement{
			ItemID:       material.ItemID,
			MovementType: models.MovementTypeIn,
			Quantity:     material.Quantity,
			JobID:        &jobID,
			Reason:       &reason,
			CreatedBy:    userID,
		}); err != nil {
			return err
		}
		return s.syncMaterialsTotal(exec, jobID)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.InventoryMovement(models.MovementTypeIn)
	return s.GetJobByID(jobID)
}

// RenderReport builds the job PDF. Photos that cannot be read print as a placeholder.
func (s *jobService) RenderReport(ctx context.Context, jobID int64) ([]byte, string, error) {
	job, err := s.GetJobByID(jobID)
	if err != nil {
		return nil, "", err
	}

	photos := make([]exports.ReportPhoto, 0, len(job.Photos))
	for _, p := range job.Photos {
		rp := exports.ReportPhoto{Photo: p}
		if s.blobs != nil {
			data, err := s.blobs.Get(ctx, p.StoragePath)
			if err != nil {
				utils.LogWarn("Failed to read photo for job report", map[string]interface{}{
					"job_id": jobID,
					"path":   p.StoragePath,
					"error":  err.Error(),
				})
			} else {
				rp.Data = data
			}
		}
		photos = append(photos, rp)
	}

	pdf, err := exports.RenderJobReport(exports.JobReport{
		Company:     s.cfg.CompanyName,
		Job:         job,
		Photos:      photos,
		GeneratedAt: s.now(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to render job report: %w", err)
	}
	return pdf, exports.JobReportName(job), nil
}

// WhatsAppShare builds a share link for the job, sent to phone or to the job's customer phone.
// public selects a link to the public job page instead of the full summary.
func (s *jobService) WhatsAppShare(jobID int64, phone *string, public bool) (*ShareLink, error) {
	job, err := s.jobRepo.GetJobByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	target := trimmedOrNil(phone)
	if target == nil {
		target = trimmedOrNil(job.CustomerPhone)
	}
	if target == nil {
		return nil, ErrNoSharePhone
	}

	var message string
	if public {
		message = share.PublicJobMessage(s.cfg.CompanyName, s.cfg.PublicSiteURL, job)
	} else {
		message = share.JobSummaryMessage(s.cfg.CompanyName, job)
	}
	digits := share.WhatsAppDigits(*target, s.cfg.PhoneRegion)
	if digits == "" {
		return nil, &ValidationError{Fields: map[string]string{"phone": "must contain digits"}}
	}
	return &ShareLink{
		URL:     share.WhatsAppLink(digits, message),
		Message: message,
		Phone:   digits,
	}, nil
}
