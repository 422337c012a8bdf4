package handlers

import (
	"net/http"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ClientHandler holds the client service.
type ClientHandler struct {
	clientService services.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(cs services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: cs}
}

// CreateClient handles the creation of a new client.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req services.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateClient")
		return
	}

	client, err := h.clientService.CreateClient(req)
	if err != nil {
		respondServiceError(c, err, "CreateClient: Error from clientService.CreateClient", "Failed to create client.")
		return
	}
	c.JSON(http.StatusCreated, client)
}

// GetClients handles fetching clients with pagination and search.
func (h *ClientHandler) GetClients(c *gin.Context) {
	page, pageSize := parsePaging(c)

	clients, totalCount, err := h.clientService.GetClients(page, pageSize, optionalQuery(c, "search"))
	if err != nil {
		respondServiceError(c, err, "GetClients: Error from clientService.GetClients", "Failed to fetch clients.")
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	c.JSON(http.StatusOK, listResponse(clients, totalCount, page, pageSize))
}

// GetClientByID handles fetching a single client by ID.
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	client, err := h.clientService.GetClientByID(clientID)
	if err != nil {
		respondServiceError(c, err, "GetClientByID: Error from clientService.GetClientByID for ID "+c.Param("id"), "Failed to fetch client.")
		return
	}
	c.JSON(http.StatusOK, client)
}

// UpdateClient handles updating a client.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateClient")
		return
	}

	client, err := h.clientService.UpdateClient(clientID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateClient: Error from clientService.UpdateClient for ID "+c.Param("id"), "Failed to update client.")
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient handles deleting a client. Clients referenced by jobs are kept.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.clientService.DeleteClient(clientID); err != nil {
		respondServiceError(c, err, "DeleteClient: Error from clientService.DeleteClient for ID "+c.Param("id"), "Failed to delete client.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

// GetClientJobs lists the jobs linked to a client.
func (h *ClientHandler) GetClientJobs(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := parsePaging(c)

	jobs, total, err := h.clientService.GetClientJobs(clientID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetClientJobs: Error from clientService.GetClientJobs for ID "+c.Param("id"), "Failed to fetch client jobs.")
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	c.JSON(http.StatusOK, listResponse(jobs, total, page, pageSize))
}
