// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/events"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/holds"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/seatmap"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/selection"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/session"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/config"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/database"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	store     inventory.Store
	publisher events.Publisher

	// Services kept for cross-feature injection and bootstrap
	inventoryService inventory.Service
	holdService      holds.Service
	sessionService   session.Service

	jobProcessor *holds.JobProcessor
	reconciler   *session.Reconciler
}

// NewRouter creates a new router instance. The seat store is built by the
// caller since its backend (memory or Redis) is a deployment decision.
func NewRouter(cfg *config.Config, db *database.DB, store inventory.Store) *Router {
	return &Router{
		config: cfg,
		db:     db,
		store:  store,
	}
}

// SetEventPublisher wires the seat-event publisher before SetupRoutes.
// Leaving it unset means hold transitions are not announced on the bus.
func (r *Router) SetEventPublisher(publisher events.Publisher) {
	r.publisher = publisher
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Inventory first, every other feature reads through it
		r.setupInventoryRoutes(api)

		r.setupHoldRoutes(api)

		r.setupSelectionRoutes(api)

		r.setupSeatmapRoutes(api)

		r.setupSessionRoutes(api)
	}
}

// InventoryService exposes the seat inventory service for bootstrap
// (chart loading) and the seat-event consumer.
func (r *Router) InventoryService() inventory.Service {
	return r.inventoryService
}

// HoldService exposes the hold service for bootstrap (rehydration).
func (r *Router) HoldService() holds.Service {
	return r.holdService
}

// JobProcessor exposes the hold background jobs for lifecycle control.
func (r *Router) JobProcessor() *holds.JobProcessor {
	return r.jobProcessor
}

// Reconciler exposes the session background jobs for lifecycle control.
func (r *Router) Reconciler() *session.Reconciler {
	return r.reconciler
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		// Perform health checks
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "seating-engine",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "seating-engine",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		jobs := gin.H{}
		if r.jobProcessor != nil {
			jobs["holds"] = r.jobProcessor.GetJobStatus()
		}
		if r.reconciler != nil {
			jobs["sessions"] = r.reconciler.GetJobStatus()
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
			"jobs":        jobs,
		})
	})
}

// setupInventoryRoutes configures chart and seat inventory routes
func (r *Router) setupInventoryRoutes(rg *gin.RouterGroup) {
	// Initialize inventory dependencies
	inventoryRepo := inventory.NewRepository(r.db.GetPostgreSQL())
	inventoryService := inventory.NewService(inventoryRepo, r.store, r.config)

	// Availability summaries and chart layouts are cached in Redis
	if r.db.GetRedisClient() != nil {
		inventoryService.SetCacheService(cache.NewService(r.db.GetRedisClient()))
	}

	inventoryController := inventory.NewController(inventoryService)

	// Store inventory service for dependency injection
	r.inventoryService = inventoryService

	// Setup inventory routes
	inventory.SetupInventoryRoutes(rg, inventoryController)
}

// setupHoldRoutes configures hold lifecycle routes
func (r *Router) setupHoldRoutes(rg *gin.RouterGroup) {
	// Initialize hold dependencies
	holdRepo := holds.NewRepository(r.db.GetPostgreSQL())
	holdService := holds.NewService(holdRepo, r.store, r.inventoryService, r.config)

	// Inject seat-event publisher dependency
	if r.publisher != nil {
		holdService.SetEventPublisher(r.publisher)
	}

	holdController := holds.NewController(holdService)

	// Store hold service for dependency injection
	r.holdService = holdService

	// Background jobs: expiration sweep plus audit reconcile
	r.jobProcessor = holds.NewJobProcessor(holdService, &holds.JobConfig{
		SweepInterval:     r.config.Holds.SweepInterval,
		ReconcileInterval: 1 * time.Minute,
	})

	// Setup hold routes
	holds.SetupHoldRoutes(rg, holdController)
}

// setupSelectionRoutes configures best-available selection routes
func (r *Router) setupSelectionRoutes(rg *gin.RouterGroup) {
	selectionService := selection.NewService(r.inventoryService, r.store, r.config)
	selectionController := selection.NewController(selectionService)

	selection.SetupSelectionRoutes(rg, selectionController)
}

// setupSeatmapRoutes configures seat map rendering routes
func (r *Router) setupSeatmapRoutes(rg *gin.RouterGroup) {
	seatmapService := seatmap.NewService(r.inventoryService, r.store)
	seatmapController := seatmap.NewController(seatmapService)

	seatmap.SetupSeatmapRoutes(rg, seatmapController)
}

// setupSessionRoutes configures browsing session routes
func (r *Router) setupSessionRoutes(rg *gin.RouterGroup) {
	sessionService := session.NewService(r.holdService, r.inventoryService, r.store, r.config)
	sessionController := session.NewController(sessionService)

	// Store session service for dependency injection
	r.sessionService = sessionService

	// Background jobs: fold session views onto server truth, evict idle
	r.reconciler = session.NewReconciler(sessionService, &session.ReconcilerConfig{
		ReconcileInterval: r.config.Session.ReconcileInterval,
		EvictInterval:     1 * time.Minute,
	})

	session.SetupSessionRoutes(rg, sessionController)
}
