package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gioservice_backend/internal/events"
	"gioservice_backend/internal/intake"
	"gioservice_backend/internal/metrics"
	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"
	"gioservice_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// AfterSubmitRedirect is where the back office goes once an intake job exists.
const AfterSubmitRedirect = "/admin/trabajos"

// SubmitResult is the outcome of a successful intake submission.
type SubmitResult struct {
	Job      *models.Job `json:"job"`
	Redirect string      `json:"redirect"`
}

// --- IntakeService Interface ---
type IntakeService interface {
	CreateDraft(ctx context.Context) (*intake.Draft, error)
	GetDraft(ctx context.Context, draftID string) (*intake.Draft, error)
	PatchDraft(ctx context.Context, draftID string, patch intake.Patch) (*intake.Draft, error)
	Next(ctx context.Context, draftID string) (*intake.Draft, error)
	Back(ctx context.Context, draftID string) (*intake.Draft, error)
	ResolveZip(ctx context.Context, draftID, zip string) (*intake.Draft, error)
	Submit(ctx context.Context, draftID string) (*SubmitResult, error)
	Discard(ctx context.Context, draftID string) error
}

// --- intakeService Implementation ---
type intakeService struct {
	controller     *intake.Controller
	clientRepo     repositories.ClientRepository
	jobRepo        repositories.JobRepository
	workerRepo     repositories.WorkerRepository
	assignmentRepo repositories.JobWorkerRepository
	tx             repositories.TxRunner
	publisher      events.Publisher
	metrics        *metrics.Metrics
	phoneRegion    string
	now            func() time.Time
}

// NewIntakeService creates a new instance of IntakeService.
func NewIntakeService(
	controller *intake.Controller,
	clientRepo repositories.ClientRepository,
	jobRepo repositories.JobRepository,
	workerRepo repositories.WorkerRepository,
	assignmentRepo repositories.JobWorkerRepository,
	tx repositories.TxRunner,
	publisher events.Publisher,
	m *metrics.Metrics,
	phoneRegion string,
) IntakeService {
	return &intakeService{
		controller:     controller,
		clientRepo:     clientRepo,
		jobRepo:        jobRepo,
		workerRepo:     workerRepo,
		assignmentRepo: assignmentRepo,
		tx:             tx,
		publisher:      publisher,
		metrics:        m,
		phoneRegion:    phoneRegion,
		now:            time.Now,
	}
}

func (s *intakeService) CreateDraft(ctx context.Context) (*intake.Draft, error) {
	return s.controller.Create(ctx)
}

func (s *intakeService) GetDraft(ctx context.Context, draftID string) (*intake.Draft, error) {
	return s.controller.Get(ctx, draftID)
}

func (s *intakeService) PatchDraft(ctx context.Context, draftID string, patch intake.Patch) (*intake.Draft, error) {
	return s.controller.Patch(ctx, draftID, patch)
}

func (s *intakeService) Next(ctx context.Context, draftID string) (*intake.Draft, error) {
	return s.controller.Next(ctx, draftID)
}

func (s *intakeService) Back(ctx context.Context, draftID string) (*intake.Draft, error) {
	return s.controller.Back(ctx, draftID)
}

func (s *intakeService) ResolveZip(ctx context.Context, draftID, zip string) (*intake.Draft, error) {
	return s.controller.ResolveZip(ctx, draftID, zip)
}

func (s *intakeService) Discard(ctx context.Context, draftID string) error {
	return s.controller.Discard(ctx, draftID)
}

// Submit writes the client, the job and its worker assignments in one transaction.
// On any failure nothing is written and the draft stays where it was.
func (s *intakeService) Submit(ctx context.Context, draftID string) (*SubmitResult, error) {
	d, err := s.controller.Ready(ctx, draftID)
	if err != nil {
		return nil, err
	}
	workerIDs := d.UniqueWorkerIDs()

	var jobID int64
	err = s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		clientID, err := s.resolveClient(exec, d)
		if err != nil {
			return err
		}

		job := s.jobFromDraft(d, clientID)
		jobID, err = s.jobRepo.CreateJob(exec, job)
		if err != nil {
			return mapJobWriteError(err, "create")
		}

		if len(workerIDs) == 0 {
			return nil
		}
		workers, err := s.workerRepo.GetWorkersByIDs(exec, workerIDs)
		if err != nil {
			return fmt.Errorf("failed to load selected workers: %w", err)
		}
		byID := make(map[int64]models.Worker, len(workers))
		for _, w := range workers {
			byID[w.ID] = w
		}
		for _, id := range workerIDs {
			w, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: worker %d", ErrWorkerNotFound, id)
			}
			assignment := &models.JobWorker{
				JobID:         jobID,
				WorkerID:      id,
				HoursRegular:  decimal.Zero,
				HoursOvertime: decimal.Zero,
				LaborRate:     w.HourlyRate,
			}
			assignment.RecalculateCost()
			if _, err := s.assignmentRepo.CreateAssignment(exec, assignment); err != nil {
				if errors.Is(err, repositories.ErrForeignKey) {
					return fmt.Errorf("%w: worker %d", ErrWorkerNotFound, id)
				}
				return fmt.Errorf("failed to assign worker %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		utils.LogWarn("Intake submission rolled back", map[string]interface{}{"draft_id": draftID, "error": err.Error()})
		return nil, err
	}

	if err := s.controller.Complete(ctx, draftID); err != nil {
		utils.LogWarn("Failed to discard submitted intake draft", map[string]interface{}{"draft_id": draftID, "error": err.Error()})
	}
	s.metrics.JobCreated(metrics.SourceIntake)
	events.Emit(ctx, s.publisher, events.New(events.JobCreated, jobID, map[string]interface{}{
		"source":     metrics.SourceIntake,
		"worker_ids": workerIDs,
	}))

	job, err := s.jobRepo.GetJobByID(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get created job: %w", err)
	}
	return &SubmitResult{Job: job, Redirect: AfterSubmitRedirect}, nil
}

// resolveClient creates the client for a new customer, or returns the selected one.
func (s *intakeService) resolveClient(exec repositories.SQLExecutor, d *intake.Draft) (*int64, error) {
	if !d.IsNewClient {
		return d.ClientID, nil
	}
	phone, email, err := normalizeContact(strPtrOrNil(d.CustomerPhone), strPtrOrNil(d.CustomerEmail), s.phoneRegion)
	if err != nil {
		return nil, err
	}
	client := &models.Client{
		FullName: d.CustomerName,
		Phone:    phone,
		Email:    email,
		Address:  strPtrOrNil(intakeAddress(d)),
	}
	id, err := s.clientRepo.CreateClient(exec, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &id, nil
}

func (s *intakeService) jobFromDraft(d *intake.Draft, clientID *int64) *models.Job {
	phone, email, _ := normalizeContact(strPtrOrNil(d.CustomerPhone), strPtrOrNil(d.CustomerEmail), s.phoneRegion)
	zip := d.ZipCode
	job := &models.Job{
		ClientID:       clientID,
		CustomerName:   d.CustomerName,
		CustomerPhone:  phone,
		CustomerEmail:  email,
		AddressLine:    strPtrOrNil(d.AddressLine),
		City:           strPtrOrNil(d.City),
		State:          strPtrOrNil(d.State),
		ZipCode:        &zip,
		ServiceAreaID:  d.ServiceAreaID,
		ServiceType:    strPtrOrNil(d.ServiceType),
		Description:    strPtrOrNil(d.Description),
		ScheduledDate:  d.ScheduledDate,
		TravelFee:      d.TravelFee,
		LaborTotal:     d.LaborTotal,
		MaterialsTotal: d.MaterialsTotal,
		OtherFees:      d.OtherFees,
	}
	status := d.Status
	if status == "" {
		status = models.JobStatusLead
		if d.ScheduledDate != nil {
			status = models.JobStatusScheduled
		}
	}
	setJobStatus(job, status, s.now())
	job.RecalculateTotal()
	return job
}

func intakeAddress(d *intake.Draft) string {
	j := models.Job{
		AddressLine: strPtrOrNil(d.AddressLine),
		City:        strPtrOrNil(d.City),
		State:       strPtrOrNil(d.State),
		ZipCode:     strPtrOrNil(d.ZipCode),
	}
	return j.AddressSummary()
}

func strPtrOrNil(s string) *string {
	return trimmedOrNil(&s)
}
