package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"
	"gioservice_backend/internal/storage"
	"gioservice_backend/pkg/utils"
)

// --- Custom Service Errors for Photo ---
var (
	ErrPhotoNotFound = errors.New("photo not found")
	ErrInvalidImage  = errors.New("uploaded file is not a supported image")
)

// UploadPhotoRequest is one decoded multipart upload.
type UploadPhotoRequest struct {
	Data    []byte
	Stage   string
	Caption *string
}

// --- PhotoService Interface ---
type PhotoService interface {
	UploadPhoto(ctx context.Context, jobID int64, req UploadPhotoRequest) (*models.JobPhoto, error)
	GetPhotos(jobID int64, stage *string) ([]models.JobPhoto, error)
	DeletePhoto(ctx context.Context, jobID, photoID int64) error
}

// --- photoService Implementation ---
type photoService struct {
	photoRepo    repositories.PhotoRepository
	jobRepo      repositories.JobRepository
	db           *sql.DB
	blobs        storage.BlobStore
	maxDimension int
}

// NewPhotoService creates a new instance of PhotoService.
func NewPhotoService(photoRepo repositories.PhotoRepository, jobRepo repositories.JobRepository, db *sql.DB, blobs storage.BlobStore, maxDimension int) PhotoService {
	return &photoService{
		photoRepo:    photoRepo,
		jobRepo:      jobRepo,
		db:           db,
		blobs:        blobs,
		maxDimension: maxDimension,
	}
}

// UploadPhoto normalizes the image to a bounded JPEG, stores the blob, then records the row.
// A failed row insert removes the blob again.
func (s *photoService) UploadPhoto(ctx context.Context, jobID int64, req UploadPhotoRequest) (*models.JobPhoto, error) {
	stage := strings.TrimSpace(strings.ToLower(req.Stage))
	if stage == "" {
		stage = models.PhotoStageDuring
	}
	if !models.IsValidPhotoStage(stage) {
		return nil, &ValidationError{Fields: map[string]string{"stage": "must be one of before, during, after"}}
	}
	if len(req.Data) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"file": "required"}}
	}
	if _, err := s.jobRepo.GetJobByID(jobID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	data, err := storage.NormalizeImage(req.Data, s.maxDimension)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			return nil, ErrInvalidImage
		}
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	objectPath := storage.JobPhotoPath(jobID)
	url, err := s.blobs.Put(ctx, objectPath, data, "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	photo := &models.JobPhoto{
		JobID:       jobID,
		URL:         url,
		StoragePath: objectPath,
		Stage:       stage,
		Caption:     trimmedOrNil(req.Caption),
	}
	id, err := s.photoRepo.CreatePhoto(s.db, photo)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, objectPath); delErr != nil {
			utils.LogWarn("Failed to remove orphaned photo blob", map[string]interface{}{"path": objectPath, "error": delErr.Error()})
		}
		if errors.Is(err, repositories.ErrForeignKey) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	saved, err := s.photoRepo.GetPhotoByID(jobID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return saved, nil
}

func (s *photoService) GetPhotos(jobID int64, stage *string) ([]models.JobPhoto, error) {
	stage = trimmedOrNil(stage)
	if stage != nil && !models.IsValidPhotoStage(*stage) {
		return nil, &ValidationError{Fields: map[string]string{"stage": "must be one of before, during, after"}}
	}
	if _, err := s.jobRepo.GetJobByID(jobID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	photos, err := s.photoRepo.GetPhotosByJob(jobID, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to get photos: %w", err)
	}
	return photos, nil
}

// DeletePhoto removes the blob first, then the row. A blob that is already gone is not an error.
func (s *photoService) DeletePhoto(ctx context.Context, jobID, photoID int64) error {
	photo, err := s.photoRepo.GetPhotoByID(jobID, photoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPhotoNotFound
		}
		return fmt.Errorf("failed to get photo: %w", err)
	}
	if err := s.blobs.Delete(ctx, photo.StoragePath); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		return fmt.Errorf("failed to delete photo blob: %w", err)
	}
	if err := s.photoRepo.DeletePhoto(s.db, jobID, photoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPhotoNotFound
		}
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}
