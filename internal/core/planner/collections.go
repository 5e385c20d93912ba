package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/frostdev-ops/home-planner-go/internal/core/floorplan"
	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/internal/core/scoring"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/frostdev-ops/home-planner-go/internal/publisher"
	"github.com/samber/lo"
)

// ErrUnknownCollection is returned for collection names outside types.Collections
var ErrUnknownCollection = fmt.Errorf("%w: unknown collection", repositories.ErrInvalidQuery)

// List returns the records of a collection by its client-facing name
func (s *Service) List(ctx context.Context, collection string, q repositories.Query) (interface{}, error) {
	if category, ok := types.CategoryForCollection(collection); ok {
		return s.ListDevices(ctx, category, q)
	}
	switch collection {
	case types.CollectionFloors:
		return s.ListFloors(ctx, q)
	case types.CollectionRooms:
		return s.ListRooms(ctx, q)
	case types.CollectionRoomTemplates:
		return s.ListTemplates(ctx, q)
	case types.CollectionHouseConfig:
		return s.House(ctx)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownCollection, collection)
}

// Restore replaces every stored record with the content of snap. Ids and
// creation timestamps are kept, scores are recomputed and floor backgrounds
// are dropped. The snapshot is checked as a whole before anything is
// touched, and the replacement happens in one transaction.
func (s *Service) Restore(ctx context.Context, snap *types.Snapshot) error {
	if err := checkSnapshot(snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timer := metrics.StartTimer()
	if err := s.observe("snapshot", "restore", timer, s.repos.State.Replace(ctx, snap)); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	for _, collection := range types.Collections {
		s.publish(ctx, collection, publisher.ActionUpdated, "")
	}
	s.log.WithField("devices", len(snap.Devices)).
		WithField("rooms", len(snap.Rooms)).
		Info("Planner state restored")
	return nil
}

// checkSnapshot normalizes snap in place and rejects content the store would
// refuse or that breaks cross-collection rules. References to devices that
// are missing from the snapshot are kept, as they are after a device delete.
func checkSnapshot(snap *types.Snapshot) error {
	v := &ValidationError{}

	deviceIDs := make(map[string]bool, len(snap.Devices))
	for i := range snap.Devices {
		d := &snap.Devices[i]
		normalizeDevice(d)
		if err := validateDevice(d); err != nil {
			for _, fe := range err.(*ValidationError).Errors {
				v.add(fmt.Sprintf("devices[%d].%s", i, fe.Field), "%s", fe.Message)
			}
		}
		d.Score = scoring.ForDevice(d)
		checkRecordID(v, fmt.Sprintf("devices[%d]", i), d.ID, deviceIDs)
	}

	floorIDs := make(map[string]bool, len(snap.Floors))
	for i := range snap.Floors {
		f := &snap.Floors[i]
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			v.add(fmt.Sprintf("floors[%d].name", i), "is required")
		}
		f.Layout = floorplan.NormalizeLayout(f.Layout)
		checkRecordID(v, fmt.Sprintf("floors[%d]", i), f.ID, floorIDs)
	}

	roomIDs := make(map[string]bool, len(snap.Rooms))
	taken := make(map[string]bool)
	for i := range snap.Rooms {
		room := &snap.Rooms[i]
		field := fmt.Sprintf("rooms[%d]", i)
		room.Name = strings.TrimSpace(room.Name)
		if room.Name == "" {
			v.add(field+".name", "is required")
		}
		if !floorIDs[room.FloorID] {
			v.add(field+".floor_id", "unknown floor %q", room.FloorID)
		}
		checkRecordID(v, field, room.ID, roomIDs)
		if room.Devices == nil {
			room.Devices = []types.RoomDeviceInstance{}
		}
		checkInstanceIDs(v, field+".devices", room.Devices, taken)
		checkDeviceRefs(v, field+".devices", room.Devices)
	}

	templateIDs := make(map[string]bool, len(snap.Templates))
	for i := range snap.Templates {
		tpl := &snap.Templates[i]
		field := fmt.Sprintf("room_templates[%d]", i)
		tpl.Name = strings.TrimSpace(tpl.Name)
		if tpl.Name == "" {
			v.add(field+".name", "is required")
		}
		checkRecordID(v, field, tpl.ID, templateIDs)
		checkInstanceIDs(v, field+".devices", tpl.Devices, map[string]bool{})
		checkDeviceRefs(v, field+".devices", tpl.Devices)
	}

	idx := snap.Index()
	snap.House.GatewayIDs = lo.Uniq(snap.House.GatewayIDs)
	for i, id := range snap.House.GatewayIDs {
		if d := idx.Lookup(id); d != nil && d.Category != types.CategoryGateway {
			v.add(fmt.Sprintf("house_config.gateway_ids[%d]", i), "%q is not a gateway", id)
		}
	}
	return v.err()
}

// checkRecordID rejects ids seen before in the same collection. Empty ids are
// assigned by the store.
func checkRecordID(v *ValidationError, field, id string, seen map[string]bool) {
	if id == "" {
		return
	}
	if seen[id] {
		v.add(field+".id", "duplicate id %q", id)
	}
	seen[id] = true
}

func checkDeviceRefs(v *ValidationError, field string, instances []types.RoomDeviceInstance) {
	for i, inst := range instances {
		if inst.DeviceID == "" {
			v.add(fmt.Sprintf("%s[%d].device_id", field, i), "is required")
		}
	}
}
