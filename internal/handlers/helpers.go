package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gioservice_backend/internal/intake"
	"gioservice_backend/internal/models"
	"gioservice_backend/internal/services"
	"gioservice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var notFoundErrors = []error{
	services.ErrJobNotFound,
	services.ErrClientNotFound,
	services.ErrWorkerNotFound,
	services.ErrAssignmentNotFound,
	services.ErrMaterialNotFound,
	services.ErrPhotoNotFound,
	services.ErrItemNotFound,
	services.ErrPeriodNotFound,
	services.ErrPayrollEntryMissing,
	services.ErrServiceAreaNotFound,
	services.ErrZipNotCovered,
	services.ErrPublicJobNotFound,
	services.ErrUserNotFound,
	intake.ErrDraftNotFound,
}

var conflictErrors = []error{
	services.ErrClientInUse,
	services.ErrWorkerInUse,
	services.ErrItemInUse,
	services.ErrSKUExists,
	services.ErrWorkerAlreadyAssigned,
	services.ErrPeriodExists,
	services.ErrPeriodNotDraft,
	services.ErrServiceAreaExists,
	services.ErrZipTaken,
	services.ErrUsernameExists,
	services.ErrLockBusy,
	intake.ErrNoNextStep,
	intake.ErrNoPreviousStep,
	intake.ErrNotFinalStep,
}

var badRequestErrors = []error{
	services.ErrInvalidStatus,
	services.ErrInvalidImage,
	services.ErrNoSharePhone,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondServiceError logs a service error and writes the matching API error.
// fallback is the message used for unexpected failures.
func respondServiceError(c *gin.Context, err error, where, fallback string) {
	utils.LogError(err, where)

	var fieldErr *services.ValidationError
	if errors.As(err, &fieldErr) {
		utils.RespondFieldErrors(c, "Validation failed.", fieldErr.Fields)
		return
	}
	var stepErr *intake.StepError
	if errors.As(err, &stepErr) {
		utils.RespondFieldErrors(c, "Step "+strconv.Itoa(stepErr.Step)+" is incomplete.", stepErr.Fields)
		return
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	case matchesAny(err, badRequestErrors):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, err.Error(), err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password.", err.Error()))
	case matchesAny(err, notFoundErrors):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, notFoundMessage(err), err.Error()))
	case matchesAny(err, conflictErrors):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

// notFoundMessage names the missing entity, e.g. "Job not found."
func notFoundMessage(err error) string {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			msg := target.Error()
			return strings.ToUpper(msg[:1]) + msg[1:] + "."
		}
	}
	return "Resource not found."
}

// respondBindError reports a malformed body. Struct-tag failures are reported per field.
func respondBindError(c *gin.Context, err error, where string) {
	utils.LogError(err, where+": Failed to bind request")
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		utils.RespondFieldErrors(c, "Validation failed.", fields)
		return
	}
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}

// parseIDParam reads a positive int64 path parameter, writing a 400 when it is malformed.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", "expected a positive integer, got "+strconv.Quote(raw)))
		return 0, false
	}
	return id, true
}

func parsePaging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func optionalQuery(c *gin.Context, key string) *string {
	return utils.NewNullString(c.Query(key))
}

// optionalInt64Query writes a 400 and reports false when the value is present but malformed.
func optionalInt64Query(c *gin.Context, key string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	v, err := utils.StrToInt64(raw)
	if err != nil {
		utils.RespondValidationFailed(c, key+" must be an integer")
		return nil, false
	}
	return &v, true
}

// optionalDateQuery writes a 400 and reports false when the value is present but malformed.
func optionalDateQuery(c *gin.Context, key string) (*models.Date, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		utils.RespondValidationFailed(c, key+" must be a date in YYYY-MM-DD format")
		return nil, false
	}
	return &d, true
}

// currentUserID returns the authenticated user id set by the session guard, if any.
func currentUserID(c *gin.Context) *int64 {
	raw, ok := c.Get("userID")
	if !ok {
		return nil
	}
	id, ok := raw.(int64)
	if !ok {
		return nil
	}
	return &id
}

func listResponse(data interface{}, total, page, pageSize int) gin.H {
	return gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}
}

// sendFile writes a generated document as a download.
func sendFile(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
