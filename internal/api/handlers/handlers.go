// Package handlers implements the HTTP API of the planner.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/core/backup"
	"github.com/frostdev-ops/home-planner-go/internal/core/planner"
	"github.com/frostdev-ops/home-planner-go/internal/core/system"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/frostdev-ops/home-planner-go/internal/websocket"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	cfg     *config.Config
	planner *planner.Service
	backups *backup.Manager
	health  *system.Service
	hub     *websocket.Hub
	log     *logrus.Logger
}

// NewHandlers creates a new handlers instance. backups and hub may be nil.
func NewHandlers(cfg *config.Config, svc *planner.Service, backups *backup.Manager, health *system.Service, hub *websocket.Hub, logger *logrus.Logger) *Handlers {
	return &Handlers{
		cfg:     cfg,
		planner: svc,
		backups: backups,
		health:  health,
		hub:     hub,
		log:     logger,
	}
}

// requestContext bounds store calls of one request
func (h *Handlers) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(h.cfg.Server.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// listQuery reads ordering and an optional equality filter from the query string:
// ?order_by=name&direction=desc&where=floor_id:abc
func listQuery(c *gin.Context) repositories.Query {
	q := repositories.Query{
		OrderBy:   c.Query("order_by"),
		Direction: repositories.Direction(c.Query("direction")),
	}
	if where := c.Query("where"); where != "" {
		field, value, _ := strings.Cut(where, ":")
		q.Where = &repositories.Filter{Field: field, Equals: value}
	}
	return q
}

// bind decodes the JSON body or answers 400
func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func sendList(c *gin.Context, items interface{}, count int) {
	utils.SendSuccessWithMeta(c, items, gin.H{"count": count})
}
