package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frostdev-ops/home-planner-go/internal/core/assignment"
	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/frostdev-ops/home-planner-go/internal/publisher"
	"github.com/google/uuid"
)

// QuotaView is the owned checkbox state of a room being edited
type QuotaView struct {
	Availability map[string]bool    `json:"availability"`
	Usage        []assignment.Usage `json:"usage"`
}

func (s *Service) ListRooms(ctx context.Context, q repositories.Query) ([]types.Room, error) {
	timer := metrics.StartTimer()
	rooms, err := s.repos.Room.List(ctx, q)
	return rooms, s.observe(types.CollectionRooms, "list", timer, err)
}

func (s *Service) GetRoom(ctx context.Context, id string) (*types.Room, error) {
	timer := metrics.StartTimer()
	room, err := s.repos.Room.GetByID(ctx, id)
	return room, s.observe(types.CollectionRooms, "get", timer, err)
}

// CreateRoom validates the room against the rest of the house and stores it
func (s *Service) CreateRoom(ctx context.Context, room *types.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room.ID = ""
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.checkRoom(ctx, snap, room, true); err != nil {
		return err
	}
	return s.storeRoom(ctx, room, true)
}

// UpdateRoom overwrites name, floor and device list of a room. Raising the owned
// count of a device past its quantity is rejected with a QuotaError.
func (s *Service) UpdateRoom(ctx context.Context, room *types.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	existing, err := findRoom(snap, room.ID)
	if err != nil {
		return err
	}
	room.CreatedAt = existing.CreatedAt
	if err := s.checkRoom(ctx, snap, room, true); err != nil {
		return err
	}
	return s.storeRoom(ctx, room, false)
}

func (s *Service) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionRooms, "delete", timer, s.repos.Room.Delete(ctx, id)); err != nil {
		return err
	}
	s.publish(ctx, types.CollectionRooms, publisher.ActionDeleted, id)
	return nil
}

// AddDevice places a new, not owned instance of a base device in a room
func (s *Service) AddDevice(ctx context.Context, roomID, deviceID string) (*types.Room, types.RoomDeviceInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, types.RoomDeviceInstance{}, err
	}
	room, err := findRoom(snap, roomID)
	if err != nil {
		return nil, types.RoomDeviceInstance{}, err
	}
	device := snap.Index().Lookup(deviceID)
	if device == nil {
		v := &ValidationError{}
		v.add("device_id", "unknown device %q", deviceID)
		return nil, types.RoomDeviceInstance{}, v
	}

	var inst types.RoomDeviceInstance
	room.Devices, inst = assignment.AddInstance(room.Devices, device)
	if err := s.storeRoom(ctx, room, false); err != nil {
		return nil, types.RoomDeviceInstance{}, err
	}
	return room, inst, nil
}

// RemoveDevice drops an instance from a room
func (s *Service) RemoveDevice(ctx context.Context, roomID, instanceID string) (*types.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Devices, err = assignment.RemoveInstance(room.Devices, instanceID); err != nil {
		return nil, err
	}
	if err := s.storeRoom(ctx, room, false); err != nil {
		return nil, err
	}
	return room, nil
}

// SetOwned sets the owned flag of one instance, honouring the quota shared by all rooms
func (s *Service) SetOwned(ctx context.Context, roomID, instanceID string, owned bool) (*types.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	room, err := findRoom(snap, roomID)
	if err != nil {
		return nil, err
	}

	room.Devices, err = assignment.SetOwned(assignment.FromSnapshot(snap), roomID, room.Devices, instanceID, owned)
	if err != nil {
		return nil, err
	}
	if err := s.storeRoom(ctx, room, false); err != nil {
		return nil, err
	}
	return room, nil
}

// ApplyTemplate appends the entries of a template to a room. Owned flags are
// copied without a quota check.
func (s *Service) ApplyTemplate(ctx context.Context, roomID, templateID string) (*types.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	room.Devices = assignment.ApplyTemplate(room.Devices, tpl)
	if err := s.storeRoom(ctx, room, false); err != nil {
		return nil, err
	}
	return room, nil
}

// CreateRoomFromTemplate creates a room holding a copy of the template entries
func (s *Service) CreateRoomFromTemplate(ctx context.Context, templateID string, room *types.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	room.ID = ""
	room.Devices = assignment.ApplyTemplate(nil, tpl)
	if err := s.checkRoom(ctx, snap, room, false); err != nil {
		return err
	}
	return s.storeRoom(ctx, room, true)
}

// Quota reports the owned checkbox state for the in-progress device list of a
// room. An empty roomID stands for a room that is not stored yet.
func (s *Service) Quota(ctx context.Context, roomID string, draft []types.RoomDeviceInstance) (QuotaView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return QuotaView{}, err
	}

	ledger := assignment.FromSnapshot(snap).WithDraft(roomID, draft)
	view := QuotaView{
		Availability: ledger.Availability(draft),
		Usage:        []assignment.Usage{},
	}
	seen := make(map[string]bool)
	for _, inst := range draft {
		if seen[inst.DeviceID] {
			continue
		}
		seen[inst.DeviceID] = true
		view.Usage = append(view.Usage, ledger.Usage(inst.DeviceID))
	}
	return view, nil
}

// checkRoom validates a room write. Instance ids are generated when missing and
// custom names default to the base device name.
func (s *Service) checkRoom(ctx context.Context, snap *types.Snapshot, room *types.Room, enforceQuota bool) error {
	v := &ValidationError{}
	room.Name = strings.TrimSpace(room.Name)
	if room.Name == "" {
		v.add("name", "is required")
	}
	if room.FloorID == "" {
		v.add("floor_id", "is required")
	} else if _, err := s.repos.Floor.GetByID(ctx, room.FloorID); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		v.add("floor_id", "unknown floor %q", room.FloorID)
	}

	taken := make(map[string]bool)
	for _, other := range snap.Rooms {
		if other.ID == room.ID {
			continue
		}
		for _, inst := range other.Devices {
			taken[inst.InstanceID] = true
		}
	}

	idx := snap.Index()
	checkInstances(v, "devices", room.Devices, idx, taken)
	if err := v.err(); err != nil {
		return err
	}

	if enforceQuota {
		if over := assignment.FromSnapshot(snap).Overdrawn(room.ID, room.Devices); len(over) > 0 {
			return &QuotaError{Overdrawn: over}
		}
	}
	return nil
}

// checkInstances fills missing ids and names in place and rejects unknown
// devices and duplicate ids
func checkInstances(v *ValidationError, field string, instances []types.RoomDeviceInstance, idx types.DeviceIndex, taken map[string]bool) {
	checkInstanceIDs(v, field, instances, taken)
	for i := range instances {
		inst := &instances[i]
		d := idx.Lookup(inst.DeviceID)
		if d == nil {
			v.add(fmt.Sprintf("%s[%d].device_id", field, i), "unknown device %q", inst.DeviceID)
			continue
		}
		if strings.TrimSpace(inst.CustomName) == "" {
			inst.CustomName = d.Name
		}
	}
}

// checkInstanceIDs generates missing instance ids and rejects ids already in taken
func checkInstanceIDs(v *ValidationError, field string, instances []types.RoomDeviceInstance, taken map[string]bool) {
	for i := range instances {
		inst := &instances[i]
		if inst.InstanceID == "" {
			inst.InstanceID = uuid.New().String()
		}
		if taken[inst.InstanceID] {
			v.add(fmt.Sprintf("%s[%d].instance_id", field, i), "duplicate instance id %q", inst.InstanceID)
		}
		taken[inst.InstanceID] = true
	}
}

func (s *Service) storeRoom(ctx context.Context, room *types.Room, create bool) error {
	if room.Devices == nil {
		room.Devices = []types.RoomDeviceInstance{}
	}

	op, action := "update", publisher.ActionUpdated
	store := s.repos.Room.Update
	if create {
		op, action = "create", publisher.ActionCreated
		store = s.repos.Room.Create
	}

	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionRooms, op, timer, store(ctx, room)); err != nil {
		return err
	}
	s.publish(ctx, types.CollectionRooms, action, room.ID)
	return nil
}

func findRoom(snap *types.Snapshot, id string) (*types.Room, error) {
	for i := range snap.Rooms {
		if snap.Rooms[i].ID == id {
			room := snap.Rooms[i]
			room.Devices = append([]types.RoomDeviceInstance(nil), room.Devices...)
			return &room, nil
		}
	}
	return nil, fmt.Errorf("%w: room %s", repositories.ErrNotFound, id)
}
