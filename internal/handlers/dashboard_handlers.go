package handlers

import (
	"net/http"
	"time"

	"gioservice_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the back-office summary.
type DashboardHandler struct {
	dashboardService services.DashboardService
	now              func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(ds services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds, now: time.Now}
}

func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.dashboardService.GetSummary(h.now())
	if err != nil {
		respondServiceError(c, err, "GetSummary: Error from dashboardService.GetSummary", "Failed to build dashboard summary.")
		return
	}
	c.JSON(http.StatusOK, summary)
}
