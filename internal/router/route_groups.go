package router

import (
	"gioservice_backend/internal/handlers"
	"gioservice_backend/internal/middleware"
	"gioservice_backend/internal/models"

	"github.com/gin-gonic/gin"
)

var (
	staffOrAdmin = middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff)
	adminOnly    = middleware.RoleAuthMiddleware(models.RoleAdmin)
)

// SetupPublicAuthRoutes sets up the routes reachable without a session.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.Login)
	group.POST("/logout", authHandler.Logout)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/session", authHandler.Session)
	group.POST("/refresh", authHandler.Refresh)
	group.POST("/users", adminOnly, authHandler.CreateUser)
}

// SetupPublicSiteRoutes sets up the unauthenticated routes used by the marketing site.
func SetupPublicSiteRoutes(group *gin.RouterGroup, publicHandler *handlers.PublicHandler, areaHandler *handlers.ServiceAreaHandler) {
	group.GET("/services", publicHandler.GetServices)
	group.GET("/jobs", publicHandler.GetJobs)
	group.GET("/jobs/:id", publicHandler.GetJob)
	group.GET("/service-areas/lookup", areaHandler.LookupZip)
	group.POST("/bookings", publicHandler.CreateBooking)
}

// SetupClientRoutes sets up the client routes.
func SetupClientRoutes(authenticatedGroup *gin.RouterGroup, clientHandler *handlers.ClientHandler) {
	clientRoutes := authenticatedGroup.Group("/clients")
	clientRoutes.Use(staffOrAdmin)
	{
		clientRoutes.POST("", clientHandler.CreateClient)
		clientRoutes.GET("", clientHandler.GetClients)
		clientRoutes.GET("/:id", clientHandler.GetClientByID)
		clientRoutes.GET("/:id/jobs", clientHandler.GetClientJobs)
		clientRoutes.PUT("/:id", clientHandler.UpdateClient)
		clientRoutes.DELETE("/:id", clientHandler.DeleteClient)
	}
}

// SetupWorkerRoutes sets up the worker routes. Deleting a worker is admin only.
func SetupWorkerRoutes(authenticatedGroup *gin.RouterGroup, workerHandler *handlers.WorkerHandler) {
	workerRoutes := authenticatedGroup.Group("/workers")
	workerRoutes.Use(staffOrAdmin)
	{
		workerRoutes.POST("", workerHandler.CreateWorker)
		workerRoutes.GET("", workerHandler.GetWorkers)
		workerRoutes.GET("/:id", workerHandler.GetWorkerByID)
		workerRoutes.GET("/:id/assignments", workerHandler.GetWorkerAssignments)
		workerRoutes.PUT("/:id", workerHandler.UpdateWorker)
		workerRoutes.DELETE("/:id", adminOnly, workerHandler.DeleteWorker)
	}
}

// SetupServiceAreaRoutes sets up the service area routes. Deleting an area is admin only.
func SetupServiceAreaRoutes(authenticatedGroup *gin.RouterGroup, areaHandler *handlers.ServiceAreaHandler) {
	areaRoutes := authenticatedGroup.Group("/service-areas")
	areaRoutes.Use(staffOrAdmin)
	{
		areaRoutes.GET("/lookup", areaHandler.LookupZip)
		areaRoutes.POST("", areaHandler.CreateArea)
		areaRoutes.GET("", areaHandler.GetAreas)
		areaRoutes.GET("/:id", areaHandler.GetAreaByID)
		areaRoutes.PUT("/:id", areaHandler.UpdateArea)
		areaRoutes.PUT("/:id/zips", areaHandler.ReplaceZips)
		areaRoutes.DELETE("/:id", adminOnly, areaHandler.DeleteArea)
	}
}

// SetupJobRoutes sets up jobs with their assignments, materials, photos, report and share link.
func SetupJobRoutes(authenticatedGroup *gin.RouterGroup, jobHandler *handlers.JobHandler, photoHandler *handlers.PhotoHandler) {
	jobRoutes := authenticatedGroup.Group("/jobs")
	jobRoutes.Use(staffOrAdmin)
	{
		jobRoutes.POST("", jobHandler.CreateJob)
		jobRoutes.GET("", jobHandler.GetJobs)
		jobRoutes.GET("/:id", jobHandler.GetJobByID)
		jobRoutes.PUT("/:id", jobHandler.UpdateJob)
		jobRoutes.PATCH("/:id/status", jobHandler.UpdateJobStatus)
		jobRoutes.DELETE("/:id", adminOnly, jobHandler.DeleteJob)

		jobRoutes.POST("/:id/workers", jobHandler.AssignWorker)
		jobRoutes.PUT("/:id/workers/:assignmentId", jobHandler.UpdateAssignment)
		jobRoutes.DELETE("/:id/workers/:assignmentId", jobHandler.RemoveAssignment)

		jobRoutes.POST("/:id/materials", jobHandler.AddMaterial)
		jobRoutes.DELETE("/:id/materials/:materialId", jobHandler.RemoveMaterial)

		jobRoutes.POST("/:id/photos", photoHandler.UploadPhoto)
		jobRoutes.GET("/:id/photos", photoHandler.GetPhotos)
		jobRoutes.DELETE("/:id/photos/:photoId", photoHandler.DeletePhoto)

		jobRoutes.GET("/:id/report.pdf", jobHandler.DownloadReport)
		jobRoutes.GET("/:id/share/whatsapp", jobHandler.WhatsAppShare)
	}
}

// SetupIntakeRoutes sets up the job intake wizard routes.
func SetupIntakeRoutes(authenticatedGroup *gin.RouterGroup, intakeHandler *handlers.IntakeHandler) {
	intakeRoutes := authenticatedGroup.Group("/intake")
	intakeRoutes.Use(staffOrAdmin)
	{
		intakeRoutes.POST("", intakeHandler.CreateDraft)
		intakeRoutes.GET("/:draftId", intakeHandler.GetDraft)
		intakeRoutes.PATCH("/:draftId", intakeHandler.PatchDraft)
		intakeRoutes.DELETE("/:draftId", intakeHandler.Discard)
		intakeRoutes.POST("/:draftId/next", intakeHandler.Next)
		intakeRoutes.POST("/:draftId/back", intakeHandler.Back)
		intakeRoutes.POST("/:draftId/zip", intakeHandler.ResolveZip)
		intakeRoutes.POST("/:draftId/submit", intakeHandler.Submit)
	}
}

// SetupInventoryRoutes sets up inventory items and the movement ledger.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler, inventoryMvHandler *handlers.InventoryMovementHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	inventoryRoutes.Use(staffOrAdmin)
	{
		inventoryRoutes.POST("/items", inventoryHandler.CreateItem)
		inventoryRoutes.GET("/items", inventoryHandler.GetItems)
		inventoryRoutes.GET("/items/:id", inventoryHandler.GetItemByID)
		inventoryRoutes.PUT("/items/:id", inventoryHandler.UpdateItem)
		inventoryRoutes.DELETE("/items/:id", adminOnly, inventoryHandler.DeleteItem)
		inventoryRoutes.POST("/items/:id/reconcile", inventoryHandler.Reconcile)
		inventoryRoutes.GET("/low-stock", inventoryHandler.GetLowStock)

		inventoryRoutes.POST("/movements", inventoryMvHandler.CreateInventoryMovement)
		inventoryRoutes.GET("/movements", inventoryMvHandler.GetInventoryMovements)
	}
}

// SetupPayrollRoutes sets up the payroll routes. Status changes and deletion are admin only.
func SetupPayrollRoutes(authenticatedGroup *gin.RouterGroup, payrollHandler *handlers.PayrollHandler) {
	payrollRoutes := authenticatedGroup.Group("/payroll")
	payrollRoutes.Use(staffOrAdmin)
	{
		payrollRoutes.GET("/preview", payrollHandler.Preview)
		payrollRoutes.POST("/periods", payrollHandler.CreatePeriod)
		payrollRoutes.GET("/periods", payrollHandler.GetPeriods)
		payrollRoutes.GET("/periods/:id", payrollHandler.GetPeriodByID)
		payrollRoutes.PUT("/periods/:id/entries/:entryId", payrollHandler.UpdateEntry)
		payrollRoutes.PATCH("/periods/:id/status", adminOnly, payrollHandler.UpdatePeriodStatus)
		payrollRoutes.DELETE("/periods/:id", adminOnly, payrollHandler.DeletePeriod)
		payrollRoutes.GET("/periods/:id/export.xlsx", payrollHandler.ExportPeriod)
	}
}

// SetupDashboardRoutes sets up the dashboard routes.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	dashboardRoutes.Use(staffOrAdmin)
	{
		dashboardRoutes.GET("/summary", dashboardHandler.GetSummary)
	}
}
