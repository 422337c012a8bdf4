package handlers

import (
	"net/http"
	"strconv"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves inventory items. Stock levels change only through movements.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

// CreateItem creates an item; an initial quantity is recorded as an "in" movement.
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req services.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateItem")
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		respondServiceError(c, err, "CreateItem: Error from inventoryService.CreateItem", "Failed to create inventory item.")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItems lists items filtered by category, search and low_stock=true.
func (h *InventoryHandler) GetItems(c *gin.Context) {
	page, pageSize := parsePaging(c)
	lowStock, _ := strconv.ParseBool(c.DefaultQuery("low_stock", "false"))

	items, total, err := h.inventoryService.GetItems(models.InventoryItemFilter{
		Category: optionalQuery(c, "category"),
		Search:   optionalQuery(c, "search"),
		LowStock: lowStock,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "GetItems: Error from inventoryService.GetItems", "Failed to fetch inventory items.")
		return
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	c.JSON(http.StatusOK, listResponse(items, total, page, pageSize))
}

func (h *InventoryHandler) GetItemByID(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.inventoryService.GetItemByID(itemID)
	if err != nil {
		respondServiceError(c, err, "GetItemByID: Error from inventoryService.GetItemByID for ID "+c.Param("id"), "Failed to fetch inventory item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateItem")
		return
	}

	item, err := h.inventoryService.UpdateItem(itemID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateItem: Error from inventoryService.UpdateItem for ID "+c.Param("id"), "Failed to update inventory item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteItem(itemID); err != nil {
		respondServiceError(c, err, "DeleteItem: Error from inventoryService.DeleteItem for ID "+c.Param("id"), "Failed to delete inventory item.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory item deleted successfully"})
}

func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	items, err := h.inventoryService.GetLowStock()
	if err != nil {
		respondServiceError(c, err, "GetLowStock: Error from inventoryService.GetLowStock", "Failed to fetch low stock items.")
		return
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	c.JSON(http.StatusOK, items)
}

// Reconcile rebuilds the item quantity from its movement ledger.
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.inventoryService.Reconcile(c.Request.Context(), itemID)
	if err != nil {
		respondServiceError(c, err, "Reconcile: Error from inventoryService.Reconcile for ID "+c.Param("id"), "Failed to reconcile inventory item.")
		return
	}
	c.JSON(http.StatusOK, result)
}
