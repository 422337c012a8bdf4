package handlers

import (
	"net/http"
	"strconv"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ServiceAreaHandler serves service areas and ZIP coverage lookups.
type ServiceAreaHandler struct {
	areaService services.ServiceAreaService
}

// NewServiceAreaHandler creates a new ServiceAreaHandler.
func NewServiceAreaHandler(as services.ServiceAreaService) *ServiceAreaHandler {
	return &ServiceAreaHandler{areaService: as}
}

func (h *ServiceAreaHandler) CreateArea(c *gin.Context) {
	var req services.CreateServiceAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateArea")
		return
	}

	area, err := h.areaService.CreateArea(req)
	if err != nil {
		respondServiceError(c, err, "CreateArea: Error from areaService.CreateArea", "Failed to create service area.")
		return
	}
	c.JSON(http.StatusCreated, area)
}

func (h *ServiceAreaHandler) GetAreas(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	areas, err := h.areaService.GetAreas(activeOnly)
	if err != nil {
		respondServiceError(c, err, "GetAreas: Error from areaService.GetAreas", "Failed to fetch service areas.")
		return
	}
	if areas == nil {
		areas = []models.ServiceArea{}
	}
	c.JSON(http.StatusOK, areas)
}

func (h *ServiceAreaHandler) GetAreaByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	area, err := h.areaService.GetAreaByID(id)
	if err != nil {
		respondServiceError(c, err, "GetAreaByID: Error from areaService.GetAreaByID for ID "+c.Param("id"), "Failed to fetch service area.")
		return
	}
	c.JSON(http.StatusOK, area)
}

func (h *ServiceAreaHandler) UpdateArea(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateServiceAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateArea")
		return
	}

	area, err := h.areaService.UpdateArea(id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateArea: Error from areaService.UpdateArea for ID "+c.Param("id"), "Failed to update service area.")
		return
	}
	c.JSON(http.StatusOK, area)
}

// ReplaceZips swaps the area's ZIP list in one transaction.
func (h *ServiceAreaHandler) ReplaceZips(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ReplaceZipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "ReplaceZips")
		return
	}

	area, err := h.areaService.ReplaceZips(id, req.Zips)
	if err != nil {
		respondServiceError(c, err, "ReplaceZips: Error from areaService.ReplaceZips for ID "+c.Param("id"), "Failed to update service area zip codes.")
		return
	}
	c.JSON(http.StatusOK, area)
}

func (h *ServiceAreaHandler) DeleteArea(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.areaService.DeleteArea(id); err != nil {
		respondServiceError(c, err, "DeleteArea: Error from areaService.DeleteArea for ID "+c.Param("id"), "Failed to delete service area.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service area deleted successfully"})
}

// LookupZip returns the active area covering ?zip, or 404.
func (h *ServiceAreaHandler) LookupZip(c *gin.Context) {
	area, err := h.areaService.LookupZip(c.Query("zip"))
	if err != nil {
		respondServiceError(c, err, "LookupZip: Error from areaService.LookupZip", "Failed to look up zip code.")
		return
	}
	c.JSON(http.StatusOK, area)
}
