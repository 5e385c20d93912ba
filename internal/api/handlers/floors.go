package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/frostdev-ops/home-planner-go/internal/core/floorplan"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
)

func (h *Handlers) GetFloors(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	floors, err := h.planner.ListFloors(ctx, listQuery(c))
	if err != nil {
		h.fail(c, err, "Failed to retrieve floors")
		return
	}
	sendList(c, floors, len(floors))
}

func (h *Handlers) GetFloor(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	f, err := h.planner.GetFloor(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve floor")
		return
	}
	utils.SendSuccess(c, f)
}

func (h *Handlers) CreateFloor(c *gin.Context) {
	var f types.Floor
	if !bind(c, &f) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.CreateFloor(ctx, &f); err != nil {
		h.fail(c, err, "Failed to create floor")
		return
	}
	utils.SendCreated(c, f)
}

// RenameFloor only changes the name; layouts have their own route
func (h *Handlers) RenameFloor(c *gin.Context) {
	var request struct {
		Name string `json:"name"`
	}
	if !bind(c, &request) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	f, err := h.planner.RenameFloor(ctx, c.Param("id"), request.Name)
	if err != nil {
		h.fail(c, err, "Failed to update floor")
		return
	}
	utils.SendSuccess(c, f)
}

// DeleteFloor deletes the floor and every room on it
func (h *Handlers) DeleteFloor(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.DeleteFloor(ctx, c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete floor")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) UpdateLayout(c *gin.Context) {
	var layout types.FloorLayout
	if !bind(c, &layout) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	f, err := h.planner.UpdateLayout(ctx, c.Param("id"), layout)
	if err != nil {
		h.fail(c, err, "Failed to update floor layout")
		return
	}
	utils.SendSuccess(c, f)
}

// PutBackground stores the raw request body as the floor background image
func (h *Handlers) PutBackground(c *gin.Context) {
	var body io.Reader = c.Request.Body
	if limit := h.cfg.Floorplan.MaxBackgroundBytes; limit > 0 {
		// one byte past the limit lets the processor report the upload as too large
		body = io.LimitReader(body, limit+1)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	bg, err := h.planner.SetBackground(ctx, c.Param("id"), buf.Bytes())
	if err != nil {
		h.fail(c, err, "Failed to store floor background")
		return
	}
	utils.SendSuccess(c, gin.H{
		"floor_id":     bg.FloorID,
		"content_type": bg.ContentType,
		"width":        bg.Width,
		"height":       bg.Height,
		"size":         len(bg.Data),
	})
}

// GetBackground serves the background image, or its preview with ?preview=true
func (h *Handlers) GetBackground(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	bg, err := h.planner.Background(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve floor background")
		return
	}

	if preview, _ := strconv.ParseBool(c.Query("preview")); preview {
		c.Data(http.StatusOK, floorplan.PreviewContentType, bg.Preview)
		return
	}
	c.Data(http.StatusOK, bg.ContentType, bg.Data)
}

func (h *Handlers) DeleteBackground(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.DeleteBackground(ctx, c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete floor background")
		return
	}
	c.Status(http.StatusNoContent)
}
