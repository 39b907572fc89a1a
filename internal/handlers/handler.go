package handlers

import (
	"time"

	"generator_ledger/internal/logger"
	"generator_ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	// loc is the zone in which date-only and civil query times are interpreted.
	loc *time.Location
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, loc *time.Location) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{services: services, log: log, loc: loc}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestIDMiddleware)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.GET("/state", h.getState)
		// Body example: {"fuel":171,"last_oil":1100,"actor":"Olena"}
		api.POST("/state/correct", h.correctState)
		h.registerShiftRoutes(api)
		h.registerFuelRoutes(api)
		h.registerMaintenanceRoutes(api)
		h.registerSyncRoutes(api)
		h.registerReferenceRoutes(api)
		h.registerSchedulerRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerShiftRoutes(api *gin.RouterGroup) {
	shifts := api.Group("/shifts")
	{
		// Body example: {"shift":"shift1","actor":"Olena"}
		shifts.POST("/start", h.startShift)
		shifts.POST("/stop", h.stopShift)
	}
}

func (h *Handler) registerFuelRoutes(api *gin.RouterGroup) {
	fuel := api.Group("/fuel")
	{
		fuel.POST("/refuel", h.refuel)
		fuel.POST("/check", h.checkFuel)
	}
}

func (h *Handler) registerMaintenanceRoutes(api *gin.RouterGroup) {
	api.GET("/maintenance", h.getMaintenance)
	api.POST("/maintenance", h.recordMaintenance)
}

func (h *Handler) registerSyncRoutes(api *gin.RouterGroup) {
	sync := api.Group("/sync")
	{
		sync.POST("/offline", h.forceOffline)
		sync.POST("/online", h.forceOnline)
		sync.POST("/run", h.runSync)
		sync.GET("/health", h.ledgerHealth)
	}
}

func (h *Handler) registerReferenceRoutes(api *gin.RouterGroup) {
	ref := api.Group("/reference")
	{
		ref.GET("/drivers", h.getDrivers)
		ref.GET("/personnel", h.getPersonnel)
		ref.PUT("/personnel/bindings/:user_id", h.bindPersonnel)
	}
}

func (h *Handler) registerSchedulerRoutes(api *gin.RouterGroup) {
	sched := api.Group("/scheduler")
	{
		sched.GET("/open-shift", h.getOpenShift)
		sched.POST("/auto-close", h.autoClose)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
