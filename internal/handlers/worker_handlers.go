package handlers

import (
	"net/http"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// WorkerHandler holds the worker service.
type WorkerHandler struct {
	workerService services.WorkerService
}

// NewWorkerHandler creates a new WorkerHandler.
func NewWorkerHandler(ws services.WorkerService) *WorkerHandler {
	return &WorkerHandler{workerService: ws}
}

func (h *WorkerHandler) CreateWorker(c *gin.Context) {
	var req services.CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateWorker")
		return
	}

	worker, err := h.workerService.CreateWorker(req)
	if err != nil {
		respondServiceError(c, err, "CreateWorker: Error from workerService.CreateWorker", "Failed to create worker.")
		return
	}
	c.JSON(http.StatusCreated, worker)
}

// GetWorkers lists workers, optionally filtered by status and a search term.
func (h *WorkerHandler) GetWorkers(c *gin.Context) {
	page, pageSize := parsePaging(c)

	workers, total, err := h.workerService.GetWorkers(optionalQuery(c, "status"), optionalQuery(c, "search"), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetWorkers: Error from workerService.GetWorkers", "Failed to fetch workers.")
		return
	}
	if workers == nil {
		workers = []models.Worker{}
	}
	c.JSON(http.StatusOK, listResponse(workers, total, page, pageSize))
}

func (h *WorkerHandler) GetWorkerByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	worker, err := h.workerService.GetWorkerByID(id)
	if err != nil {
		respondServiceError(c, err, "GetWorkerByID: Error from workerService.GetWorkerByID for ID "+c.Param("id"), "Failed to fetch worker.")
		return
	}
	c.JSON(http.StatusOK, worker)
}

func (h *WorkerHandler) UpdateWorker(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateWorker")
		return
	}

	worker, err := h.workerService.UpdateWorker(id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateWorker: Error from workerService.UpdateWorker for ID "+c.Param("id"), "Failed to update worker.")
		return
	}
	c.JSON(http.StatusOK, worker)
}

// DeleteWorker removes a worker that has no assignments or payroll entries.
func (h *WorkerHandler) DeleteWorker(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.workerService.DeleteWorker(id); err != nil {
		respondServiceError(c, err, "DeleteWorker: Error from workerService.DeleteWorker for ID "+c.Param("id"), "Failed to delete worker.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Worker deleted successfully"})
}

// GetWorkerAssignments lists the worker's job assignments with a job summary.
func (h *WorkerHandler) GetWorkerAssignments(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	assignments, err := h.workerService.GetWorkerAssignments(id)
	if err != nil {
		respondServiceError(c, err, "GetWorkerAssignments: Error from workerService.GetWorkerAssignments for ID "+c.Param("id"), "Failed to fetch worker assignments.")
		return
	}
	if assignments == nil {
		assignments = []models.JobWorker{}
	}
	c.JSON(http.StatusOK, assignments)
}
