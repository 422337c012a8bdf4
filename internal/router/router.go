package router

import (
	"database/sql"
	"net/http"
	"reflect"
	"strings"

	"gioservice_backend/internal/config"
	"gioservice_backend/internal/events"
	"gioservice_backend/internal/handlers"
	"gioservice_backend/internal/intake"
	"gioservice_backend/internal/locks"
	"gioservice_backend/internal/metrics"
	"gioservice_backend/internal/middleware"
	"gioservice_backend/internal/repositories"
	"gioservice_backend/internal/services"
	"gioservice_backend/internal/storage"
	"gioservice_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Dependencies are the process-wide resources the routes are built on.
type Dependencies struct {
	DB        *sql.DB
	Config    *config.Config
	Tokens    *utils.TokenIssuer
	Locker    locks.Locker
	Drafts    intake.DraftStore
	Blobs     storage.BlobStore
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	// MediaDir is served at /media when photos live on local disk.
	MediaDir string
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	registerJSONFieldNames()
	cfg := deps.Config

	engine.Use(middleware.MetricsMiddleware(deps.Metrics))
	engine.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(deps.DB)
	clientRepo := repositories.NewClientRepository(deps.DB)
	workerRepo := repositories.NewWorkerRepository(deps.DB)
	jobRepo := repositories.NewJobRepository(deps.DB)
	assignmentRepo := repositories.NewJobWorkerRepository(deps.DB)
	materialRepo := repositories.NewJobMaterialRepository(deps.DB)
	photoRepo := repositories.NewPhotoRepository(deps.DB)
	areaRepo := repositories.NewServiceAreaRepository(deps.DB)
	itemRepo := repositories.NewInventoryItemRepository(deps.DB)
	movementRepo := repositories.NewInventoryMovementRepository(deps.DB)
	payrollRepo := repositories.NewPayrollRepository(deps.DB)
	dashboardRepo := repositories.NewDashboardRepository(deps.DB)
	tx := repositories.NewTxRunner(deps.DB)

	// Initialize Services
	authService := services.NewAuthService(authRepo, deps.DB, deps.Tokens)
	clientService := services.NewClientService(clientRepo, jobRepo, deps.DB, cfg.DefaultPhoneRegion)
	workerService := services.NewWorkerService(workerRepo, assignmentRepo, deps.DB, cfg.DefaultPhoneRegion)
	areaService := services.NewServiceAreaService(areaRepo, tx, deps.DB)
	jobService := services.NewJobService(services.JobRepos{
		Jobs:        jobRepo,
		Clients:     clientRepo,
		Assignments: assignmentRepo,
		Materials:   materialRepo,
		Workers:     workerRepo,
		Photos:      photoRepo,
		Areas:       areaRepo,
		Items:       itemRepo,
		Movements:   movementRepo,
	}, tx, deps.DB, deps.Locker, deps.Blobs, deps.Publisher, deps.Metrics, services.JobServiceConfig{
		CompanyName:   cfg.CompanyName,
		PublicSiteURL: cfg.PublicSiteURL,
		PhoneRegion:   cfg.DefaultPhoneRegion,
	})
	photoService := services.NewPhotoService(photoRepo, jobRepo, deps.DB, deps.Blobs, cfg.PhotoMaxDimension)
	controller := intake.NewController(deps.Drafts, services.NewZipLookup(areaRepo))
	intakeService := services.NewIntakeService(controller, clientRepo, jobRepo, workerRepo, assignmentRepo, tx, deps.Publisher, deps.Metrics, cfg.DefaultPhoneRegion)
	inventoryService := services.NewInventoryService(itemRepo, movementRepo, tx, deps.DB, deps.Locker, deps.Publisher, deps.Metrics)
	payrollService := services.NewPayrollService(payrollRepo, workerRepo, assignmentRepo, tx, deps.Locker, deps.Publisher, deps.Metrics)
	publicService := services.NewPublicService(jobRepo, photoRepo, areaRepo, deps.DB, deps.Publisher, deps.Metrics, cfg.DefaultPhoneRegion)
	dashboardService := services.NewDashboardService(dashboardRepo, itemRepo, workerRepo, payrollRepo)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	clientHandler := handlers.NewClientHandler(clientService)
	workerHandler := handlers.NewWorkerHandler(workerService)
	areaHandler := handlers.NewServiceAreaHandler(areaService)
	jobHandler := handlers.NewJobHandler(jobService)
	photoHandler := handlers.NewPhotoHandler(photoService)
	intakeHandler := handlers.NewIntakeHandler(intakeService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	inventoryMvHandler := handlers.NewInventoryMovementHandler(inventoryService)
	payrollHandler := handlers.NewPayrollHandler(payrollService)
	publicHandler := handlers.NewPublicHandler(publicService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	SetupOperationalRoutes(engine, deps)

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)
	SetupPublicSiteRoutes(apiV1.Group("/public"), publicHandler, areaHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupClientRoutes(authenticated, clientHandler)
		SetupWorkerRoutes(authenticated, workerHandler)
		SetupServiceAreaRoutes(authenticated, areaHandler)
		SetupJobRoutes(authenticated, jobHandler, photoHandler)
		SetupIntakeRoutes(authenticated, intakeHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler, inventoryMvHandler)
		SetupPayrollRoutes(authenticated, payrollHandler)
		SetupDashboardRoutes(authenticated, dashboardHandler)
	}
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowOrigins = origins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.ExposeHeaders = []string{"Content-Disposition"}
	config.AllowCredentials = true
	return config
}

// registerJSONFieldNames makes binding errors name fields by their json tag.
func registerJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// SetupOperationalRoutes registers liveness, readiness, metrics and local media.
func SetupOperationalRoutes(engine *gin.Engine, deps Dependencies) {
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.GET("/healthz", func(c *gin.Context) {
		if err := deps.DB.PingContext(c.Request.Context()); err != nil {
			utils.LogError(err, "Health check: database ping failed")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeServiceUnavailable, "Database unavailable.", ""))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.MediaDir != "" {
		engine.Static("/media", deps.MediaDir)
	}
}
