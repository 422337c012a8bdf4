package handlers

import (
	"net/http"
	"strconv"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// JobHandler serves jobs and the job-detail editing endpoints.
type JobHandler struct {
	jobService services.JobService
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(js services.JobService) *JobHandler {
	return &JobHandler{jobService: js}
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	var req services.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateJob")
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateJob: Error from jobService.CreateJob", "Failed to create job.")
		return
	}
	c.JSON(http.StatusCreated, job)
}

// GetJobs lists jobs with status, client, area, date range and search filters.
func (h *JobHandler) GetJobs(c *gin.Context) {
	page, pageSize := parsePaging(c)
	filter := models.JobFilter{
		Status:   optionalQuery(c, "status"),
		Search:   optionalQuery(c, "search"),
		Page:     page,
		PageSize: pageSize,
	}
	var ok bool
	if filter.ClientID, ok = optionalInt64Query(c, "client_id"); !ok {
		return
	}
	if filter.ServiceAreaID, ok = optionalInt64Query(c, "service_area_id"); !ok {
		return
	}
	if filter.From, ok = optionalDateQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = optionalDateQuery(c, "to"); !ok {
		return
	}

	jobs, total, err := h.jobService.GetJobs(filter)
	if err != nil {
		respondServiceError(c, err, "GetJobs: Error from jobService.GetJobs", "Failed to fetch jobs.")
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	c.JSON(http.StatusOK, listResponse(jobs, total, page, pageSize))
}

func (h *JobHandler) GetJobByID(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	job, err := h.jobService.GetJobByID(jobID)
	if err != nil {
		respondServiceError(c, err, "GetJobByID: Error from jobService.GetJobByID for ID "+c.Param("id"), "Failed to fetch job.")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateJob")
		return
	}

	job, err := h.jobService.UpdateJob(c.Request.Context(), jobID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateJob: Error from jobService.UpdateJob for ID "+c.Param("id"), "Failed to update job.")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) UpdateJobStatus(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateJobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateJobStatus")
		return
	}

	job, err := h.jobService.UpdateJobStatus(c.Request.Context(), jobID, req.Status)
	if err != nil {
		respondServiceError(c, err, "UpdateJobStatus: Error from jobService.UpdateJobStatus for ID "+c.Param("id"), "Failed to update job status.")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.jobService.DeleteJob(c.Request.Context(), jobID); err != nil {
		respondServiceError(c, err, "DeleteJob: Error from jobService.DeleteJob for ID "+c.Param("id"), "Failed to delete job.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully"})
}

// --- Worker assignments ---

func (h *JobHandler) AssignWorker(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AssignWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "AssignWorker")
		return
	}

	assignment, err := h.jobService.AssignWorker(jobID, req)
	if err != nil {
		respondServiceError(c, err, "AssignWorker: Error from jobService.AssignWorker for job "+c.Param("id"), "Failed to assign worker.")
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *JobHandler) UpdateAssignment(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	assignmentID, ok := parseIDParam(c, "assignmentId")
	if !ok {
		return
	}

	var req services.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateAssignment")
		return
	}

	assignment, err := h.jobService.UpdateAssignment(jobID, assignmentID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateAssignment: Error from jobService.UpdateAssignment for assignment "+c.Param("assignmentId"), "Failed to update assignment.")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func (h *JobHandler) RemoveAssignment(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	assignmentID, ok := parseIDParam(c, "assignmentId")
	if !ok {
		return
	}

	if err := h.jobService.RemoveAssignment(jobID, assignmentID); err != nil {
		respondServiceError(c, err, "RemoveAssignment: Error from jobService.RemoveAssignment for assignment "+c.Param("assignmentId"), "Failed to remove assignment.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Worker removed from job"})
}

// --- Materials ---

// AddMaterial consumes stock for the job and returns the job with updated totals.
func (h *JobHandler) AddMaterial(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AddMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "AddMaterial")
		return
	}

	job, err := h.jobService.AddMaterial(c.Request.Context(), jobID, req, currentUserID(c))
	if err != nil {
		respondServiceError(c, err, "AddMaterial: Error from jobService.AddMaterial for job "+c.Param("id"), "Failed to add material.")
		return
	}
	c.JSON(http.StatusCreated, job)
}

// RemoveMaterial returns the material's stock and returns the job with updated totals.
func (h *JobHandler) RemoveMaterial(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	materialID, ok := parseIDParam(c, "materialId")
	if !ok {
		return
	}

	job, err := h.jobService.RemoveMaterial(c.Request.Context(), jobID, materialID, currentUserID(c))
	if err != nil {
		respondServiceError(c, err, "RemoveMaterial: Error from jobService.RemoveMaterial for material "+c.Param("materialId"), "Failed to remove material.")
		return
	}
	c.JSON(http.StatusOK, job)
}

// --- Report and sharing ---

func (h *JobHandler) DownloadReport(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	data, filename, err := h.jobService.RenderReport(c.Request.Context(), jobID)
	if err != nil {
		respondServiceError(c, err, "DownloadReport: Error from jobService.RenderReport for job "+c.Param("id"), "Failed to render job report.")
		return
	}
	sendFile(c, "application/pdf", filename, data)
}

// WhatsAppShare builds a share link. ?phone overrides the customer's phone; ?public=true shares the public page.
func (h *JobHandler) WhatsAppShare(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	public, _ := strconv.ParseBool(c.DefaultQuery("public", "false"))

	link, err := h.jobService.WhatsAppShare(jobID, optionalQuery(c, "phone"), public)
	if err != nil {
		respondServiceError(c, err, "WhatsAppShare: Error from jobService.WhatsAppShare for job "+c.Param("id"), "Failed to build share link.")
		return
	}
	c.JSON(http.StatusOK, link)
}
