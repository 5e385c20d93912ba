// Package assignment maintains device instances inside rooms and the per base
// device ownership quota shared across all rooms.
package assignment

import (
	"errors"
	"fmt"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/google/uuid"
)

var (
	// ErrQuotaExceeded is returned when marking an instance owned would exceed the device quantity
	ErrQuotaExceeded = errors.New("ownership quota exceeded")
	// ErrInstanceNotFound is returned when an instance id is not part of the room
	ErrInstanceNotFound = errors.New("device instance not found")
)

// Usage is the owned stock and the consumed units of one base device
type Usage struct {
	DeviceID string `json:"device_id"`
	Owned    int    `json:"owned"`
	Used     int    `json:"used"`
}

// Available reports whether another instance may be marked owned
func (u Usage) Available() bool {
	return u.Used < u.Owned
}

// Ledger counts owned instances per base device across rooms.
// A house-level gateway reserves one unit when stock is left after room usage.
type Ledger struct {
	devices   types.DeviceIndex
	rooms     []types.Room
	house     types.HouseConfig
	draftRoom string
	draft     []types.RoomDeviceInstance
	hasDraft  bool
}

// NewLedger builds a ledger from the persisted state
func NewLedger(devices types.DeviceIndex, rooms []types.Room, house types.HouseConfig) *Ledger {
	return &Ledger{devices: devices, rooms: rooms, house: house}
}

// FromSnapshot builds a ledger over a snapshot
func FromSnapshot(s *types.Snapshot) *Ledger {
	return NewLedger(s.Index(), s.Rooms, s.House)
}

// WithDraft returns a ledger in which the persisted devices of roomID are
// replaced by the in-progress instances of the room being edited.
// An empty roomID stands for a room that is not persisted yet.
func (l *Ledger) WithDraft(roomID string, instances []types.RoomDeviceInstance) *Ledger {
	return &Ledger{
		devices:   l.devices,
		rooms:     l.rooms,
		house:     l.house,
		draftRoom: roomID,
		draft:     instances,
		hasDraft:  true,
	}
}

// RoomUsed counts owned instances of a device across rooms, honouring the draft
func (l *Ledger) RoomUsed(deviceID string) int {
	used := 0
	for _, room := range l.rooms {
		if l.hasDraft && room.ID == l.draftRoom {
			continue
		}
		used += countOwned(room.Devices, deviceID)
	}
	if l.hasDraft {
		used += countOwned(l.draft, deviceID)
	}
	return used
}

// Usage returns owned stock and consumed units for a device.
// Dangling device ids report zero stock.
func (l *Ledger) Usage(deviceID string) Usage {
	u := Usage{DeviceID: deviceID, Used: l.RoomUsed(deviceID)}
	d := l.devices.Lookup(deviceID)
	if d == nil {
		return u
	}
	u.Owned = d.Quantity
	if l.houseDemand(d) > 0 && u.Owned > u.Used {
		u.Used++
	}
	return u
}

// houseDemand is the number of units the house-level assignment needs
func (l *Ledger) houseDemand(d *types.Device) int {
	if d.Category == types.CategoryGateway && l.house.HasGateway(d.ID) {
		return 1
	}
	return 0
}

// CanMarkOwned reports whether the owned checkbox of inst is enabled.
// Unchecking is always allowed; a device with no stock can never be checked.
func (l *Ledger) CanMarkOwned(inst types.RoomDeviceInstance) bool {
	if inst.IsOwned {
		return true
	}
	return l.Usage(inst.DeviceID).Available()
}

// Availability reports per instance whether the owned checkbox is enabled
func (l *Ledger) Availability(instances []types.RoomDeviceInstance) map[string]bool {
	out := make(map[string]bool, len(instances))
	for _, inst := range instances {
		out[inst.InstanceID] = l.CanMarkOwned(inst)
	}
	return out
}

// Overdrawn returns the devices whose owned count in next exceeds their stock
// and grew compared to the persisted state of the room.
func (l *Ledger) Overdrawn(roomID string, next []types.RoomDeviceInstance) []Usage {
	after := l.WithDraft(roomID, next)
	seen := make(map[string]bool)
	var out []Usage
	for _, inst := range next {
		if !inst.IsOwned || seen[inst.DeviceID] {
			continue
		}
		seen[inst.DeviceID] = true
		d := l.devices.Lookup(inst.DeviceID)
		if d == nil {
			continue
		}
		before := l.RoomUsed(inst.DeviceID)
		used := after.RoomUsed(inst.DeviceID)
		if used > before && used+l.houseDemand(d) > d.Quantity {
			out = append(out, Usage{DeviceID: d.ID, Owned: d.Quantity, Used: used + l.houseDemand(d)})
		}
	}
	return out
}

// AddInstance appends a new, not owned instance of device to instances
func AddInstance(instances []types.RoomDeviceInstance, device *types.Device) ([]types.RoomDeviceInstance, types.RoomDeviceInstance) {
	inst := types.RoomDeviceInstance{
		InstanceID: uuid.New().String(),
		DeviceID:   device.ID,
		CustomName: device.Name,
		IsOwned:    false,
	}
	return append(instances, inst), inst
}

// RemoveInstance drops the instance with the given id
func RemoveInstance(instances []types.RoomDeviceInstance, instanceID string) ([]types.RoomDeviceInstance, error) {
	for i, inst := range instances {
		if inst.InstanceID == instanceID {
			out := make([]types.RoomDeviceInstance, 0, len(instances)-1)
			out = append(out, instances[:i]...)
			return append(out, instances[i+1:]...), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
}

// SetOwned sets the owned flag of an instance of the room being edited.
// Checking is refused with ErrQuotaExceeded when the ledger has no unit left.
func SetOwned(l *Ledger, roomID string, instances []types.RoomDeviceInstance, instanceID string, owned bool) ([]types.RoomDeviceInstance, error) {
	idx := -1
	for i, inst := range instances {
		if inst.InstanceID == instanceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
	}

	out := make([]types.RoomDeviceInstance, len(instances))
	copy(out, instances)
	if out[idx].IsOwned == owned {
		return out, nil
	}
	if owned && !l.WithDraft(roomID, instances).CanMarkOwned(out[idx]) {
		return nil, fmt.Errorf("%w: device %s", ErrQuotaExceeded, out[idx].DeviceID)
	}
	out[idx].IsOwned = owned
	return out, nil
}

// ApplyTemplate copies every template entry with a freshly generated instance id.
// Owned flags are copied as-is; the quota applies on the next check.
func ApplyTemplate(instances []types.RoomDeviceInstance, tpl *types.RoomTemplate) []types.RoomDeviceInstance {
	out := make([]types.RoomDeviceInstance, 0, len(instances)+len(tpl.Devices))
	out = append(out, instances...)
	for _, entry := range tpl.Devices {
		out = append(out, types.RoomDeviceInstance{
			InstanceID: uuid.New().String(),
			DeviceID:   entry.DeviceID,
			CustomName: entry.CustomName,
			IsOwned:    entry.IsOwned,
		})
	}
	return out
}

func countOwned(instances []types.RoomDeviceInstance, deviceID string) int {
	n := 0
	for _, inst := range instances {
		if inst.IsOwned && inst.DeviceID == deviceID {
			n++
		}
	}
	return n
}
