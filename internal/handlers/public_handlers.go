package handlers

import (
	"net/http"

	"gioservice_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the unauthenticated marketing site endpoints.
type PublicHandler struct {
	publicService services.PublicService
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(ps services.PublicService) *PublicHandler {
	return &PublicHandler{publicService: ps}
}

func (h *PublicHandler) GetServices(c *gin.Context) {
	catalogue, err := h.publicService.GetServices()
	if err != nil {
		respondServiceError(c, err, "GetServices: Error from publicService.GetServices", "Failed to fetch services.")
		return
	}
	c.JSON(http.StatusOK, catalogue)
}

// GetJobs lists finished public jobs for the portfolio page.
func (h *PublicHandler) GetJobs(c *gin.Context) {
	page, pageSize := parsePaging(c)

	jobs, total, err := h.publicService.GetJobs(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetJobs: Error from publicService.GetJobs", "Failed to fetch jobs.")
		return
	}
	if jobs == nil {
		jobs = []services.PublicJob{}
	}
	c.JSON(http.StatusOK, listResponse(jobs, total, page, pageSize))
}

func (h *PublicHandler) GetJob(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	job, err := h.publicService.GetJob(jobID)
	if err != nil {
		respondServiceError(c, err, "GetJob: Error from publicService.GetJob for ID "+c.Param("id"), "Failed to fetch job.")
		return
	}
	c.JSON(http.StatusOK, job)
}

// CreateBooking records a booking request from the public site as a lead.
func (h *PublicHandler) CreateBooking(c *gin.Context) {
	var req services.PublicBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateBooking")
		return
	}

	booking, err := h.publicService.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateBooking: Error from publicService.CreateBooking", "Failed to submit booking.")
		return
	}
	c.JSON(http.StatusCreated, booking)
}
