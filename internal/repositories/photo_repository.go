package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gioservice_backend/internal/models"

	"github.com/lib/pq"
)

// PhotoRepository defines the interface for job photo database operations.
type PhotoRepository interface {
	CreatePhoto(executor SQLExecutor, photo *models.JobPhoto) (int64, error)
	GetPhotoByID(jobID, photoID int64) (*models.JobPhoto, error)
	GetPhotosByJob(jobID int64, stage *string) ([]models.JobPhoto, error)
	GetPhotosByJobs(jobIDs []int64, stage string) (map[int64][]models.JobPhoto, error)
	DeletePhoto(executor SQLExecutor, jobID, photoID int64) error
}

type photoRepository struct {
	db *sql.DB
}

// NewPhotoRepository creates a new instance of PhotoRepository.
func NewPhotoRepository(db *sql.DB) PhotoRepository {
	return &photoRepository{db: db}
}

const photoColumns = `id, job_id, url, storage_path, stage, caption, created_at`

func scanPhoto(s scanner, p *models.JobPhoto) error {
	return s.Scan(&p.ID, &p.JobID, &p.URL, &p.StoragePath, &p.Stage, &p.Caption, &p.CreatedAt)
}

func (r *photoRepository) CreatePhoto(executor SQLExecutor, photo *models.JobPhoto) (int64, error) {
	query := `INSERT INTO job_photos (job_id, url, storage_path, stage, caption, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	photo.CreatedAt = time.Now()
	err := executor.QueryRow(query, photo.JobID, photo.URL, photo.StoragePath, photo.Stage, photo.Caption, photo.CreatedAt).Scan(&photo.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("creating photo for job %d", photo.JobID))
	}
	return photo.ID, nil
}

func (r *photoRepository) GetPhotoByID(jobID, photoID int64) (*models.JobPhoto, error) {
	photo := &models.JobPhoto{}
	query := `SELECT ` + photoColumns + ` FROM job_photos WHERE id = $1 AND job_id = $2`
	if err := scanPhoto(r.db.QueryRow(query, photoID, jobID), photo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting photo %d: %v", ErrDatabaseError, photoID, err)
	}
	return photo, nil
}

func (r *photoRepository) GetPhotosByJob(jobID int64, stage *string) ([]models.JobPhoto, error) {
	where := newWhereBuilder()
	where.add("job_id = ?", jobID)
	if stage != nil && *stage != "" {
		where.add("stage = ?", *stage)
	}
	query := `SELECT ` + photoColumns + ` FROM job_photos` + where.clause() + ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying photos for job %d: %v", ErrDatabaseError, jobID, err)
	}
	defer rows.Close()

	photos := []models.JobPhoto{}
	for rows.Next() {
		var p models.JobPhoto
		if err := scanPhoto(rows, &p); err != nil {
			return nil, fmt.Errorf("%w: scanning photo: %v", ErrDatabaseError, err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating photos: %v", ErrDatabaseError, err)
	}
	return photos, nil
}

// GetPhotosByJobs loads one stage of photos for several jobs in a single query, keyed by job id.
func (r *photoRepository) GetPhotosByJobs(jobIDs []int64, stage string) (map[int64][]models.JobPhoto, error) {
	out := make(map[int64][]models.JobPhoto, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + photoColumns + ` FROM job_photos WHERE job_id = ANY($1) AND stage = $2 ORDER BY job_id, created_at, id`
	rows, err := r.db.Query(query, pq.Array(jobIDs), stage)
	if err != nil {
		return nil, fmt.Errorf("%w: querying photos for jobs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.JobPhoto
		if err := scanPhoto(rows, &p); err != nil {
			return nil, fmt.Errorf("%w: scanning photo: %v", ErrDatabaseError, err)
		}
		out[p.JobID] = append(out[p.JobID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating photos: %v", ErrDatabaseError, err)
	}
	return out, nil
}

func (r *photoRepository) DeletePhoto(executor SQLExecutor, jobID, photoID int64) error {
	result, err := executor.Exec(`DELETE FROM job_photos WHERE id = $1 AND job_id = $2`, photoID, jobID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting photo %d", photoID))
	}
	return expectAffected(result, fmt.Sprintf("deleting photo %d", photoID))
}
