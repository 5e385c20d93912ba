package handlers

import (
	"net/http"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
)

// category resolves the :collection path segment, answering 404 for unknown ones
func category(c *gin.Context) (types.Category, bool) {
	cat, ok := types.CategoryForCollection(c.Param("collection"))
	if !ok {
		utils.SendError(c, http.StatusNotFound, "Unknown device collection")
		return "", false
	}
	return cat, true
}

// GetDevices lists the devices of one catalog collection
func (h *Handlers) GetDevices(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	devices, err := h.planner.ListDevices(ctx, cat, listQuery(c))
	if err != nil {
		h.fail(c, err, "Failed to retrieve devices")
		return
	}
	sendList(c, devices, len(devices))
}

func (h *Handlers) GetDevice(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	d, err := h.planner.GetDevice(ctx, cat, c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve device")
		return
	}
	utils.SendSuccess(c, d)
}

// CreateDevice adds a device to the collection named in the path. The score
// in the body is ignored and recomputed.
func (h *Handlers) CreateDevice(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	var d types.Device
	if !bind(c, &d) {
		return
	}
	d.Category = cat

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.CreateDevice(ctx, &d); err != nil {
		h.fail(c, err, "Failed to create device")
		return
	}
	utils.SendCreated(c, d)
}

func (h *Handlers) UpdateDevice(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	var d types.Device
	if !bind(c, &d) {
		return
	}
	d.ID = c.Param("id")
	d.Category = cat

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.UpdateDevice(ctx, &d); err != nil {
		h.fail(c, err, "Failed to update device")
		return
	}
	utils.SendSuccess(c, d)
}

func (h *Handlers) DeleteDevice(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.DeleteDevice(ctx, cat, c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete device")
		return
	}
	c.Status(http.StatusNoContent)
}

// PreviewScore scores an unsaved device form
func (h *Handlers) PreviewScore(c *gin.Context) {
	var d types.Device
	if !bind(c, &d) {
		return
	}
	if !d.Category.Valid() {
		utils.SendError(c, http.StatusBadRequest, "Unknown device category")
		return
	}
	utils.SendSuccess(c, gin.H{"score": h.planner.PreviewScore(d)})
}
