package models

import "time"

const (
	PhotoStageBefore = "before"
	PhotoStageDuring = "during"
	PhotoStageAfter  = "after"
)

func IsValidPhotoStage(s string) bool {
	return s == PhotoStageBefore || s == PhotoStageDuring || s == PhotoStageAfter
}

// JobPhoto references an image stored in the blob store.
type JobPhoto struct {
	ID          int64     `json:"id"`
	JobID       int64     `json:"job_id"`
	URL         string    `json:"url"`
	StoragePath string    `json:"storage_path"`
	Stage       string    `json:"stage"`
	Caption     *string   `json:"caption,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
