package handlers

import (
	"net/http"

	"github.com/frostdev-ops/home-planner-go/internal/core/system"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Health answers 503 when the database is unreachable
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	health := h.health.Health(ctx)
	status := http.StatusOK
	if health.Status == system.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	utils.SendStatus(c, status, health)
}

func (h *Handlers) GetWebSocketStats(c *gin.Context) {
	if h.hub == nil {
		utils.SendAppError(c, errNotImplemented)
		return
	}
	utils.SendSuccess(c, h.hub.GetStats())
}

func (h *Handlers) GetCacheStats(c *gin.Context) {
	utils.SendSuccess(c, h.planner.CacheStats())
}
