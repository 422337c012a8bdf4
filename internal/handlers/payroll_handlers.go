package handlers

import (
	"net/http"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/services"
	"gioservice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PayrollHandler serves payroll previews and periods.
type PayrollHandler struct {
	payrollService services.PayrollService
}

// NewPayrollHandler creates a new PayrollHandler.
func NewPayrollHandler(ps services.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollService: ps}
}

// Preview computes the payroll for ?start_date&end_date without saving it.
func (h *PayrollHandler) Preview(c *gin.Context) {
	start, ok := optionalDateQuery(c, "start_date")
	if !ok {
		return
	}
	end, ok := optionalDateQuery(c, "end_date")
	if !ok {
		return
	}
	if start == nil || end == nil {
		fields := map[string]string{}
		if start == nil {
			fields["start_date"] = "required"
		}
		if end == nil {
			fields["end_date"] = "required"
		}
		utils.RespondFieldErrors(c, "Validation failed.", fields)
		return
	}

	preview, err := h.payrollService.Preview(*start, *end, nil)
	if err != nil {
		respondServiceError(c, err, "Preview: Error from payrollService.Preview", "Failed to compute payroll.")
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *PayrollHandler) CreatePeriod(c *gin.Context) {
	var req services.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreatePeriod")
		return
	}

	period, err := h.payrollService.CreatePeriod(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreatePeriod: Error from payrollService.CreatePeriod", "Failed to create payroll period.")
		return
	}
	c.JSON(http.StatusCreated, period)
}

func (h *PayrollHandler) GetPeriods(c *gin.Context) {
	page, pageSize := parsePaging(c)

	periods, total, err := h.payrollService.GetPeriods(optionalQuery(c, "status"), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetPeriods: Error from payrollService.GetPeriods", "Failed to fetch payroll periods.")
		return
	}
	if periods == nil {
		periods = []models.PayrollPeriod{}
	}
	c.JSON(http.StatusOK, listResponse(periods, total, page, pageSize))
}

func (h *PayrollHandler) GetPeriodByID(c *gin.Context) {
	periodID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	period, err := h.payrollService.GetPeriodByID(periodID)
	if err != nil {
		respondServiceError(c, err, "GetPeriodByID: Error from payrollService.GetPeriodByID for ID "+c.Param("id"), "Failed to fetch payroll period.")
		return
	}
	c.JSON(http.StatusOK, period)
}

// UpdateEntry edits one entry of a draft period.
func (h *PayrollHandler) UpdateEntry(c *gin.Context) {
	periodID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entryID, ok := parseIDParam(c, "entryId")
	if !ok {
		return
	}

	var req services.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateEntry")
		return
	}

	period, err := h.payrollService.UpdateEntry(periodID, entryID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateEntry: Error from payrollService.UpdateEntry for entry "+c.Param("entryId"), "Failed to update payroll entry.")
		return
	}
	c.JSON(http.StatusOK, period)
}

func (h *PayrollHandler) UpdatePeriodStatus(c *gin.Context) {
	periodID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdatePeriodStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdatePeriodStatus")
		return
	}

	period, err := h.payrollService.UpdatePeriodStatus(periodID, req.Status)
	if err != nil {
		respondServiceError(c, err, "UpdatePeriodStatus: Error from payrollService.UpdatePeriodStatus for ID "+c.Param("id"), "Failed to update payroll period status.")
		return
	}
	c.JSON(http.StatusOK, period)
}

func (h *PayrollHandler) DeletePeriod(c *gin.Context) {
	periodID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.payrollService.DeletePeriod(periodID); err != nil {
		respondServiceError(c, err, "DeletePeriod: Error from payrollService.DeletePeriod for ID "+c.Param("id"), "Failed to delete payroll period.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payroll period deleted successfully"})
}

// ExportPeriod downloads the period as an XLSX workbook.
func (h *PayrollHandler) ExportPeriod(c *gin.Context) {
	periodID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	data, filename, err := h.payrollService.ExportPeriod(periodID)
	if err != nil {
		respondServiceError(c, err, "ExportPeriod: Error from payrollService.ExportPeriod for ID "+c.Param("id"), "Failed to export payroll period.")
		return
	}
	sendFile(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, data)
}
