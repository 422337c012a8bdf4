package handlers

import (
	"net/http"

	"gioservice_backend/internal/intake"
	"gioservice_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// IntakeHandler drives the four-step job intake wizard.
type IntakeHandler struct {
	intakeService services.IntakeService
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(is services.IntakeService) *IntakeHandler {
	return &IntakeHandler{intakeService: is}
}

type resolveZipRequest struct {
	ZipCode string `json:"zip_code" binding:"required"`
}

// draftResponse exposes the ZIP warning at the top level so the form can show it inline.
func draftResponse(d *intake.Draft) gin.H {
	resp := gin.H{"draft": d}
	if d.ZipWarning != nil {
		resp["warning"] = *d.ZipWarning
	}
	return resp
}

func (h *IntakeHandler) CreateDraft(c *gin.Context) {
	d, err := h.intakeService.CreateDraft(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "CreateDraft: Error from intakeService.CreateDraft", "Failed to start intake.")
		return
	}
	c.JSON(http.StatusCreated, draftResponse(d))
}

func (h *IntakeHandler) GetDraft(c *gin.Context) {
	d, err := h.intakeService.GetDraft(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		respondServiceError(c, err, "GetDraft: Error from intakeService.GetDraft for "+c.Param("draftId"), "Failed to load intake draft.")
		return
	}
	c.JSON(http.StatusOK, draftResponse(d))
}

// PatchDraft merges fields of any step into the draft.
func (h *IntakeHandler) PatchDraft(c *gin.Context) {
	var patch intake.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err, "PatchDraft")
		return
	}

	d, err := h.intakeService.PatchDraft(c.Request.Context(), c.Param("draftId"), patch)
	if err != nil {
		respondServiceError(c, err, "PatchDraft: Error from intakeService.PatchDraft for "+c.Param("draftId"), "Failed to update intake draft.")
		return
	}
	c.JSON(http.StatusOK, draftResponse(d))
}

func (h *IntakeHandler) Next(c *gin.Context) {
	d, err := h.intakeService.Next(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		respondServiceError(c, err, "Next: Error from intakeService.Next for "+c.Param("draftId"), "Failed to advance intake.")
		return
	}
	c.JSON(http.StatusOK, draftResponse(d))
}

func (h *IntakeHandler) Back(c *gin.Context) {
	d, err := h.intakeService.Back(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		respondServiceError(c, err, "Back: Error from intakeService.Back for "+c.Param("draftId"), "Failed to go back.")
		return
	}
	c.JSON(http.StatusOK, draftResponse(d))
}

// ResolveZip tags the draft with the service area covering the ZIP, or sets a warning.
func (h *IntakeHandler) ResolveZip(c *gin.Context) {
	var req resolveZipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "ResolveZip")
		return
	}

	d, err := h.intakeService.ResolveZip(c.Request.Context(), c.Param("draftId"), req.ZipCode)
	if err != nil {
		respondServiceError(c, err, "ResolveZip: Error from intakeService.ResolveZip for "+c.Param("draftId"), "Failed to look up zip code.")
		return
	}
	c.JSON(http.StatusOK, draftResponse(d))
}

// Submit turns a completed draft into a job. On failure the draft is left at its last step.
func (h *IntakeHandler) Submit(c *gin.Context) {
	res, err := h.intakeService.Submit(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		respondServiceError(c, err, "Submit: Error from intakeService.Submit for "+c.Param("draftId"), "Failed to create job from intake.")
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *IntakeHandler) Discard(c *gin.Context) {
	if err := h.intakeService.Discard(c.Request.Context(), c.Param("draftId")); err != nil {
		respondServiceError(c, err, "Discard: Error from intakeService.Discard for "+c.Param("draftId"), "Failed to discard intake draft.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Intake draft discarded"})
}
