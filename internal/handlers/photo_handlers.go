package handlers

import (
	"io"
	"net/http"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/services"
	"gioservice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const maxPhotoUploadBytes = 15 << 20

// PhotoHandler serves job photo uploads.
type PhotoHandler struct {
	photoService services.PhotoService
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(ps services.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: ps}
}

// UploadPhoto accepts a multipart form with file, stage and caption.
func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.LogError(err, "UploadPhoto: missing file part")
		utils.RespondFieldErrors(c, "Validation failed.", map[string]string{"file": "required"})
		return
	}
	if header.Size > maxPhotoUploadBytes {
		utils.RespondFieldErrors(c, "Validation failed.", map[string]string{"file": "exceeds 15 MB"})
		return
	}
	f, err := header.Open()
	if err != nil {
		utils.LogError(err, "UploadPhoto: failed to open upload")
		utils.RespondValidationFailed(c, "could not read uploaded file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxPhotoUploadBytes))
	if err != nil {
		utils.LogError(err, "UploadPhoto: failed to read upload")
		utils.RespondValidationFailed(c, "could not read uploaded file")
		return
	}

	var caption *string
	if v, ok := c.GetPostForm("caption"); ok && !utils.IsEmpty(v) {
		caption = &v
	}

	photo, err := h.photoService.UploadPhoto(c.Request.Context(), jobID, services.UploadPhotoRequest{
		Data:    data,
		Stage:   c.PostForm("stage"),
		Caption: caption,
	})
	if err != nil {
		respondServiceError(c, err, "UploadPhoto: Error from photoService.UploadPhoto for job "+c.Param("id"), "Failed to upload photo.")
		return
	}
	c.JSON(http.StatusCreated, photo)
}

// GetPhotos lists a job's photos, optionally for one stage.
func (h *PhotoHandler) GetPhotos(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	photos, err := h.photoService.GetPhotos(jobID, optionalQuery(c, "stage"))
	if err != nil {
		respondServiceError(c, err, "GetPhotos: Error from photoService.GetPhotos for job "+c.Param("id"), "Failed to fetch photos.")
		return
	}
	if photos == nil {
		photos = []models.JobPhoto{}
	}
	c.JSON(http.StatusOK, photos)
}

func (h *PhotoHandler) DeletePhoto(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	photoID, ok := parseIDParam(c, "photoId")
	if !ok {
		return
	}

	if err := h.photoService.DeletePhoto(c.Request.Context(), jobID, photoID); err != nil {
		respondServiceError(c, err, "DeletePhoto: Error from photoService.DeletePhoto for photo "+c.Param("photoId"), "Failed to delete photo.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo deleted successfully"})
}
