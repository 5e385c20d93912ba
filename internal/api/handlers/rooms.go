package handlers

import (
	"net/http"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
)

// GetRooms lists rooms; ?where=floor_id:<id> narrows to one floor
func (h *Handlers) GetRooms(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	rooms, err := h.planner.ListRooms(ctx, listQuery(c))
	if err != nil {
		h.fail(c, err, "Failed to retrieve rooms")
		return
	}
	sendList(c, rooms, len(rooms))
}

func (h *Handlers) GetRoom(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	room, err := h.planner.GetRoom(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve room")
		return
	}
	utils.SendSuccess(c, room)
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var room types.Room
	if !bind(c, &room) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.CreateRoom(ctx, &room); err != nil {
		h.fail(c, err, "Failed to create room")
		return
	}
	utils.SendCreated(c, room)
}

// UpdateRoom replaces name, floor and the full device list of a room
func (h *Handlers) UpdateRoom(c *gin.Context) {
	var room types.Room
	if !bind(c, &room) {
		return
	}
	room.ID = c.Param("id")

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.UpdateRoom(ctx, &room); err != nil {
		h.fail(c, err, "Failed to update room")
		return
	}
	utils.SendSuccess(c, room)
}

func (h *Handlers) DeleteRoom(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.planner.DeleteRoom(ctx, c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete room")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddRoomDevice places a fresh, not owned instance of a catalog device in the room
func (h *Handlers) AddRoomDevice(c *gin.Context) {
	var request struct {
		DeviceID string `json:"device_id" binding:"required"`
	}
	if !bind(c, &request) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	room, inst, err := h.planner.AddDevice(ctx, c.Param("id"), request.DeviceID)
	if err != nil {
		h.fail(c, err, "Failed to add device to room")
		return
	}
	utils.SendCreated(c, gin.H{"room": room, "instance": inst})
}

func (h *Handlers) RemoveRoomDevice(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	room, err := h.planner.RemoveDevice(ctx, c.Param("id"), c.Param("instanceId"))
	if err != nil {
		h.fail(c, err, "Failed to remove device from room")
		return
	}
	utils.SendSuccess(c, room)
}

// SetRoomDeviceOwned toggles the owned flag of one instance. Marking an
// instance owned beyond the device quantity answers 409.
func (h *Handlers) SetRoomDeviceOwned(c *gin.Context) {
	var request struct {
		IsOwned *bool `json:"is_owned" binding:"required"`
	}
	if !bind(c, &request) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	room, err := h.planner.SetOwned(ctx, c.Param("id"), c.Param("instanceId"), *request.IsOwned)
	if err != nil {
		h.fail(c, err, "Failed to update owned flag")
		return
	}
	utils.SendSuccess(c, room)
}

func (h *Handlers) ApplyTemplate(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	room, err := h.planner.ApplyTemplate(ctx, c.Param("id"), c.Param("templateId"))
	if err != nil {
		h.fail(c, err, "Failed to apply template")
		return
	}
	utils.SendSuccess(c, room)
}

func (h *Handlers) CreateRoomFromTemplate(c *gin.Context) {
	var request struct {
		TemplateID string `json:"template_id" binding:"required"`
		Name       string `json:"name"`
		FloorID    string `json:"floor_id"`
	}
	if !bind(c, &request) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	room := types.Room{Name: request.Name, FloorID: request.FloorID}
	if err := h.planner.CreateRoomFromTemplate(ctx, request.TemplateID, &room); err != nil {
		h.fail(c, err, "Failed to create room from template")
		return
	}
	utils.SendCreated(c, room)
}
