package api

import (
	"net/http"

	"github.com/frostdev-ops/home-planner-go/internal/api/handlers"
	"github.com/frostdev-ops/home-planner-go/internal/api/middleware"
	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/internal/websocket"
	"github.com/frostdev-ops/home-planner-go/pkg/logger"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
)

// RouterDeps are the collaborators of the HTTP router
type RouterDeps struct {
	Config   *config.Config
	Handlers *handlers.Handlers
	Logger   *logger.BatchLogger
	Metrics  metrics.Collector
	// MetricsHandler serves the scrape endpoint; nil disables it
	MetricsHandler http.Handler
	// Hub serves realtime subscriptions; nil disables /ws
	Hub *websocket.Hub
}

// NewRouter creates and configures the main HTTP router
func NewRouter(d RouterDeps) *gin.Engine {
	cfg := d.Config
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	collector := d.Metrics
	if collector == nil {
		collector = metrics.NoopCollector{}
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(d.Logger.Logger))
	router.Use(middleware.Logging(d.Logger))
	router.Use(middleware.Metrics(collector))
	if cfg.Security.EnableCORS {
		router.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	}

	router.NoRoute(func(c *gin.Context) {
		utils.SendError(c, http.StatusNotFound, "Route not found")
	})
	router.NoMethod(func(c *gin.Context) {
		utils.SendError(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	h := d.Handlers

	router.GET("/health", h.Health)
	if d.MetricsHandler != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(d.MetricsHandler))
	}
	if d.Hub != nil {
		router.GET("/ws", websocket.HandleWebSocketGin(d.Hub))
	}

	api := router.Group("/api/v1")
	api.Use(middleware.MutationsOnly(middleware.Auth(cfg.Auth)))
	{
		api.GET("/collections/:collection", h.GetCollection)

		devices := api.Group("/devices/:collection")
		{
			devices.GET("", h.GetDevices)
			devices.POST("", h.CreateDevice)
			devices.GET("/:id", h.GetDevice)
			devices.PUT("/:id", h.UpdateDevice)
			devices.DELETE("/:id", h.DeleteDevice)
		}
		api.POST("/scores/preview", h.PreviewScore)

		floors := api.Group("/floors")
		{
			floors.GET("", h.GetFloors)
			floors.POST("", h.CreateFloor)
			floors.GET("/:id", h.GetFloor)
			floors.PUT("/:id", h.RenameFloor)
			floors.DELETE("/:id", h.DeleteFloor)
			floors.PUT("/:id/layout", h.UpdateLayout)
			floors.GET("/:id/background", h.GetBackground)
			floors.PUT("/:id/background", h.PutBackground)
			floors.DELETE("/:id/background", h.DeleteBackground)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", h.GetRooms)
			rooms.POST("", h.CreateRoom)
			rooms.POST("/from-template", h.CreateRoomFromTemplate)
			rooms.GET("/:id", h.GetRoom)
			rooms.PUT("/:id", h.UpdateRoom)
			rooms.DELETE("/:id", h.DeleteRoom)
			rooms.POST("/:id/devices", h.AddRoomDevice)
			rooms.DELETE("/:id/devices/:instanceId", h.RemoveRoomDevice)
			rooms.PUT("/:id/devices/:instanceId/owned", h.SetRoomDeviceOwned)
			rooms.POST("/:id/templates/:templateId", h.ApplyTemplate)
		}

		templates := api.Group("/templates")
		{
			templates.GET("", h.GetTemplates)
			templates.POST("", h.CreateTemplate)
			templates.GET("/:id", h.GetTemplate)
			templates.PUT("/:id", h.UpdateTemplate)
			templates.DELETE("/:id", h.DeleteTemplate)
		}

		api.GET("/house", h.GetHouse)
		api.PUT("/house/gateways", h.SetHouseGateways)

		views := api.Group("/views")
		{
			views.GET("/shopping-list", h.GetShoppingList)
			views.GET("/shopping-list.csv", h.GetShoppingListCSV)
			views.GET("/compatibility", h.GetCompatibility)
			views.GET("/topology", h.GetTopology)
			views.POST("/quota", h.GetQuota)
		}

		backups := api.Group("/backups")
		{
			backups.GET("", h.GetBackups)
			backups.POST("", h.CreateBackup)
			backups.GET("/:id", h.DownloadBackup)
			backups.POST("/:id/restore", h.RestoreBackup)
			backups.DELETE("/:id", h.DeleteBackup)
		}
		api.GET("/export", h.Export)
		api.POST("/import", h.Import)
		api.POST("/catalog/import", h.ImportCatalog)

		api.GET("/websocket/stats", h.GetWebSocketStats)
		api.GET("/cache/stats", h.GetCacheStats)
	}

	return router
}
