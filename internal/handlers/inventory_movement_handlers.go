package handlers

import (
	"net/http"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// InventoryMovementHandler holds the inventory service for ledger operations.
type InventoryMovementHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryMovementHandler creates a new InventoryMovementHandler.
func NewInventoryMovementHandler(is services.InventoryService) *InventoryMovementHandler {
	return &InventoryMovementHandler{inventoryService: is}
}

// CreateInventoryMovement records a movement and returns it with the item's new quantity.
func (h *InventoryMovementHandler) CreateInventoryMovement(c *gin.Context) {
	var req services.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateInventoryMovement")
		return
	}

	result, err := h.inventoryService.RecordMovement(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		respondServiceError(c, err, "CreateInventoryMovement: Error from inventoryService.RecordMovement", "Failed to record inventory movement.")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetInventoryMovements handles fetching movements with filters.
func (h *InventoryMovementHandler) GetInventoryMovements(c *gin.Context) {
	page, pageSize := parsePaging(c)
	filter := models.MovementFilter{
		MovementType: optionalQuery(c, "movement_type"),
		Page:         page,
		PageSize:     pageSize,
	}
	var ok bool
	if filter.ItemID, ok = optionalInt64Query(c, "item_id"); !ok {
		return
	}
	if filter.JobID, ok = optionalInt64Query(c, "job_id"); !ok {
		return
	}
	if filter.From, ok = optionalDateQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = optionalDateQuery(c, "to"); !ok {
		return
	}

	movements, total, err := h.inventoryService.GetMovements(filter)
	if err != nil {
		respondServiceError(c, err, "GetInventoryMovements: Error from inventoryService.GetMovements", "Failed to fetch inventory movements.")
		return
	}
	if movements == nil {
		movements = []models.InventoryMovement{}
	}
	c.JSON(http.StatusOK, listResponse(movements, total, page, pageSize))
}
