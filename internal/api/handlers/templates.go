package handlers

import (
	"net/http"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
)

func (h *Handlers) GetTemplates(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	templates, err := h.planner.ListTemplates(ctx, listQuery(c))
	if err != nil {
		h.fail(c, err, "Failed to retrieve room templates")
		return
	}
	sendList(c, templates, len(templates))
}

func (h *Handlers) GetTemplate(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	tpl, err := h.planner.GetTemplate(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve room template")
		return
	}
	utils.SendSuccess(c, tpl)
}

func (h *Handlers) CreateTemplate(c *gin.Context) {
	var tpl types.RoomTemplate
	if !bind(c, &tpl) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.CreateTemplate(ctx, &tpl); err != nil {
		h.fail(c, err, "Failed to create room template")
		return
	}
	utils.SendCreated(c, tpl)
}

func (h *Handlers) UpdateTemplate(c *gin.Context) {
	var tpl types.RoomTemplate
	if !bind(c, &tpl) {
		return
	}
	tpl.ID = c.Param("id")

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.UpdateTemplate(ctx, &tpl); err != nil {
		h.fail(c, err, "Failed to update room template")
		return
	}
	utils.SendSuccess(c, tpl)
}

func (h *Handlers) DeleteTemplate(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.DeleteTemplate(ctx, c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete room template")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) GetHouse(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	house, err := h.planner.House(ctx)
	if err != nil {
		h.fail(c, err, "Failed to retrieve house configuration")
		return
	}
	utils.SendSuccess(c, house)
}

// SetHouseGateways replaces the ordered house-level gateway list
func (h *Handlers) SetHouseGateways(c *gin.Context) {
	var request struct {
		GatewayIDs []string `json:"gateway_ids"`
	}
	if !bind(c, &request) {
		return
	}
	if request.GatewayIDs == nil {
		request.GatewayIDs = []string{}
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	house, err := h.planner.SetHouseGateways(ctx, request.GatewayIDs)
	if err != nil {
		h.fail(c, err, "Failed to update house gateways")
		return
	}
	utils.SendSuccess(c, house)
}
