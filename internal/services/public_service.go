package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gioservice_backend/internal/events"
	"gioservice_backend/internal/metrics"
	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"
)

// ErrPublicJobNotFound hides whether a job exists but is not published.
var ErrPublicJobNotFound = errors.New("job not found")

// --- Public DTOs ---

// PublicServices is the catalogue shown on the public site.
type PublicServices struct {
	ServiceAreas []models.ServiceArea `json:"service_areas"`
	ServiceTypes []string             `json:"service_types"`
}

// PublicJob is the portfolio view of a finished job. It carries no contact or price data.
type PublicJob struct {
	ID              int64             `json:"id"`
	ServiceType     *string           `json:"service_type,omitempty"`
	Description     *string           `json:"description,omitempty"`
	City            *string           `json:"city,omitempty"`
	State           *string           `json:"state,omitempty"`
	ServiceAreaName *string           `json:"service_area_name,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Photos          []models.JobPhoto `json:"photos"`
}

type PublicBookingRequest struct {
	CustomerName  string       `json:"customer_name" binding:"required"`
	CustomerPhone *string      `json:"customer_phone"`
	CustomerEmail *string      `json:"customer_email"`
	AddressLine   string       `json:"address_line" binding:"required"`
	City          *string      `json:"city"`
	State         *string      `json:"state"`
	ZipCode       string       `json:"zip_code" binding:"required"`
	ServiceType   string       `json:"service_type" binding:"required"`
	Description   *string      `json:"description"`
	PreferredDate *models.Date `json:"preferred_date"`
}

// PublicBooking acknowledges a booking request without exposing the job record.
type PublicBooking struct {
	Reference       int64   `json:"reference"`
	ServiceAreaName *string `json:"service_area_name,omitempty"`
	Covered         bool    `json:"covered"`
}

// --- PublicService Interface ---
type PublicService interface {
	GetServices() (*PublicServices, error)
	GetJobs(page, pageSize int) ([]PublicJob, int, error)
	GetJob(jobID int64) (*PublicJob, error)
	CreateBooking(ctx context.Context, req PublicBookingRequest) (*PublicBooking, error)
}

// --- publicService Implementation ---
type publicService struct {
	jobRepo     repositories.JobRepository
	photoRepo   repositories.PhotoRepository
	areaRepo    repositories.ServiceAreaRepository
	db          *sql.DB
	publisher   events.Publisher
	metrics     *metrics.Metrics
	phoneRegion string
}

// NewPublicService creates a new instance of PublicService.
func NewPublicService(
	jobRepo repositories.JobRepository,
	photoRepo repositories.PhotoRepository,
	areaRepo repositories.ServiceAreaRepository,
	db *sql.DB,
	publisher events.Publisher,
	m *metrics.Metrics,
	phoneRegion string,
) PublicService {
	return &publicService{
		jobRepo:     jobRepo,
		photoRepo:   photoRepo,
		areaRepo:    areaRepo,
		db:          db,
		publisher:   publisher,
		metrics:     m,
		phoneRegion: phoneRegion,
	}
}

func toPublicJob(j *models.Job, photos []models.JobPhoto) PublicJob {
	if photos == nil {
		photos = []models.JobPhoto{}
	}
	return PublicJob{
		ID:              j.ID,
		ServiceType:     j.ServiceType,
		Description:     j.Description,
		City:            j.City,
		State:           j.State,
		ServiceAreaName: j.ServiceAreaName,
		CompletedAt:     j.CompletedAt,
		Photos:          photos,
	}
}

func isPublished(j *models.Job) bool {
	return j.IsPublic && models.IsFinishedJobStatus(j.Status)
}

func (s *publicService) GetServices() (*PublicServices, error) {
	areas, err := s.areaRepo.GetAreas(true)
	if err != nil {
		return nil, fmt.Errorf("failed to get service areas: %w", err)
	}
	types, err := s.jobRepo.GetPublicServiceTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get service types: %w", err)
	}
	return &PublicServices{ServiceAreas: areas, ServiceTypes: types}, nil
}

// GetJobs lists published finished jobs with their "after" photos.
func (s *publicService) GetJobs(page, pageSize int) ([]PublicJob, int, error) {
	page, pageSize = normalizePaging(page, pageSize)
	jobs, total, err := s.jobRepo.GetJobs(models.JobFilter{
		PublicOnly:   true,
		FinishedOnly: true,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get public jobs: %w", err)
	}

	ids := make([]int64, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	photos, err := s.photoRepo.GetPhotosByJobs(ids, models.PhotoStageAfter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get public job photos: %w", err)
	}

	out := make([]PublicJob, 0, len(jobs))
	for i := range jobs {
		out = append(out, toPublicJob(&jobs[i], photos[jobs[i].ID]))
	}
	return out, total, nil
}

// GetJob returns one published job with all its photos. Unpublished jobs look like missing ones.
func (s *publicService) GetJob(jobID int64) (*PublicJob, error) {
	job, err := s.jobRepo.GetJobByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPublicJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if !isPublished(job) {
		return nil, ErrPublicJobNotFound
	}
	photos, err := s.photoRepo.GetPhotosByJob(jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get job photos: %w", err)
	}
	view := toPublicJob(job, photos)
	return &view, nil
}

// CreateBooking records a website request as a lead job tagged with the ZIP's service area.
func (s *publicService) CreateBooking(ctx context.Context, req PublicBookingRequest) (*PublicBooking, error) {
	checks := fieldChecks{}
	checks.required("customer_name", req.CustomerName)
	checks.required("address_line", req.AddressLine)
	checks.required("service_type", req.ServiceType)
	zip := models.NormalizeZip(req.ZipCode)
	if !models.IsValidZip(zip) {
		checks.fail("zip_code", "must be a 5-digit ZIP code")
	}
	if trimmedOrNil(req.CustomerPhone) == nil && trimmedOrNil(req.CustomerEmail) == nil {
		checks.fail("customer_phone", "a phone or an email is required")
	}
	phone, email, err := normalizeContact(req.CustomerPhone, req.CustomerEmail, s.phoneRegion)
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		checks.fail("customer_email", verr.Fields["email"])
	}
	if err := checks.err(); err != nil {
		return nil, err
	}

	areaID, err := tagArea(s.areaRepo, &zip)
	if err != nil {
		return nil, err
	}
	job := &models.Job{
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: phone,
		CustomerEmail: email,
		AddressLine:   trimmedOrNil(&req.AddressLine),
		City:          trimmedOrNil(req.City),
		State:         trimmedOrNil(req.State),
		ZipCode:       &zip,
		ServiceAreaID: areaID,
		ServiceType:   trimmedOrNil(&req.ServiceType),
		Description:   trimmedOrNil(req.Description),
		ScheduledDate: req.PreferredDate,
		Status:        models.JobStatusLead,
	}
	id, err := s.jobRepo.CreateJob(s.db, job)
	if err != nil {
		return nil, mapJobWriteError(err, "create")
	}

	s.metrics.JobCreated(metrics.SourcePublic)
	events.Emit(ctx, s.publisher, events.New(events.JobCreated, id, map[string]interface{}{
		"source": metrics.SourcePublic,
		"status": models.JobStatusLead,
	}))

	booking := &PublicBooking{Reference: id, Covered: areaID != nil}
	if areaID != nil {
		if area, err := s.areaRepo.GetAreaByID(*areaID); err == nil {
			booking.ServiceAreaName = &area.Name
		}
	}
	return booking, nil
}
