package handlers

import (
	"net/http"
	"strings"

	"github.com/frostdev-ops/home-planner-go/internal/core/shopping"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
)

func (h *Handlers) GetShoppingList(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	list, err := h.planner.ShoppingList(ctx)
	if err != nil {
		h.fail(c, err, "Failed to build shopping list")
		return
	}
	utils.SendSuccess(c, list)
}

// GetShoppingListCSV serves the shopping list as a spreadsheet download
func (h *Handlers) GetShoppingListCSV(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	list, err := h.planner.ShoppingList(ctx)
	if err != nil {
		h.fail(c, err, "Failed to build shopping list")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping-list.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := shopping.WriteCSV(c.Writer, list); err != nil {
		h.log.WithError(err).Error("Failed to write shopping list CSV")
	}
}

func (h *Handlers) GetCompatibility(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	report, err := h.planner.Compatibility(ctx)
	if err != nil {
		h.fail(c, err, "Failed to resolve gateway compatibility")
		return
	}
	utils.SendSuccess(c, report)
}

// GetTopology builds the network graph; ?hidden=<roomId>,<roomId> collapses rooms
func (h *Handlers) GetTopology(c *gin.Context) {
	hidden := make(map[string]bool)
	for _, id := range strings.Split(c.Query("hidden"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			hidden[id] = true
		}
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	graph, err := h.planner.Topology(ctx, hidden)
	if err != nil {
		h.fail(c, err, "Failed to build topology")
		return
	}
	utils.SendSuccess(c, graph)
}

// GetQuota reports which instances of an unsaved room form may be marked owned
func (h *Handlers) GetQuota(c *gin.Context) {
	var request struct {
		RoomID  string                     `json:"room_id"`
		Devices []types.RoomDeviceInstance `json:"devices"`
	}
	if !bind(c, &request) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	view, err := h.planner.Quota(ctx, request.RoomID, request.Devices)
	if err != nil {
		h.fail(c, err, "Failed to compute quota")
		return
	}
	utils.SendSuccess(c, view)
}

// GetCollection lists any collection by the name realtime clients subscribe to
func (h *Handlers) GetCollection(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	data, err := h.planner.List(ctx, c.Param("collection"), listQuery(c))
	if err != nil {
		h.fail(c, err, "Failed to retrieve collection")
		return
	}
	utils.SendSuccess(c, data)
}
