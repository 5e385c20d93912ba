package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frostdev-ops/home-planner-go/internal/core/floorplan"
	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/frostdev-ops/home-planner-go/internal/publisher"
)

// ErrBackgroundsDisabled is returned when no background processor is configured
var ErrBackgroundsDisabled = errors.New("background images are not configured")

func (s *Service) ListFloors(ctx context.Context, q repositories.Query) ([]types.Floor, error) {
	timer := metrics.StartTimer()
	floors, err := s.repos.Floor.List(ctx, q)
	return floors, s.observe(types.CollectionFloors, "list", timer, err)
}

func (s *Service) GetFloor(ctx context.Context, id string) (*types.Floor, error) {
	timer := metrics.StartTimer()
	f, err := s.repos.Floor.GetByID(ctx, id)
	return f, s.observe(types.CollectionFloors, "get", timer, err)
}

// CreateFloor stores a new floor with an empty layout
func (s *Service) CreateFloor(ctx context.Context, f *types.Floor) error {
	f.ID = ""
	f.Name = strings.TrimSpace(f.Name)
	f.Layout = floorplan.NormalizeLayout(types.FloorLayout{})
	if f.Name == "" {
		v := &ValidationError{}
		v.add("name", "is required")
		return v
	}

	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionFloors, "create", timer, s.repos.Floor.Create(ctx, f)); err != nil {
		return err
	}
	s.publish(ctx, types.CollectionFloors, publisher.ActionCreated, f.ID)
	return nil
}

// RenameFloor changes the floor name and keeps its layout
func (s *Service) RenameFloor(ctx context.Context, id, name string) (*types.Floor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		v := &ValidationError{}
		v.add("name", "is required")
		return nil, v
	}

	f, err := s.GetFloor(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Name = name

	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionFloors, "update", timer, s.repos.Floor.Update(ctx, f)); err != nil {
		return nil, err
	}
	s.publish(ctx, types.CollectionFloors, publisher.ActionUpdated, f.ID)
	return f, nil
}

// UpdateLayout replaces the walls and placed devices of a floor
func (s *Service) UpdateLayout(ctx context.Context, id string, layout types.FloorLayout) (*types.Floor, error) {
	f, err := s.GetFloor(ctx, id)
	if err != nil {
		return nil, err
	}

	devices, err := s.repos.Device.List(ctx, "", repositories.Query{})
	if err != nil {
		return nil, err
	}
	layout = floorplan.NormalizeLayout(layout)
	if err := floorplan.ValidateLayout(layout, types.IndexDevices(devices)); err != nil {
		v := &ValidationError{}
		v.add("layout", "%s", strings.TrimPrefix(err.Error(), floorplan.ErrInvalidLayout.Error()+": "))
		return nil, v
	}
	f.Layout = layout

	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionFloors, "update", timer, s.repos.Floor.Update(ctx, f)); err != nil {
		return nil, err
	}
	s.publish(ctx, types.CollectionFloors, publisher.ActionUpdated, f.ID)
	return f, nil
}

// DeleteFloor deletes every room of the floor, one at a time, then the floor itself.
// A failure part way keeps the rooms deleted so far deleted.
func (s *Service) DeleteFloor(ctx context.Context, id string) error {
	if _, err := s.GetFloor(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rooms, err := s.repos.Room.List(ctx, repositories.Query{Where: &repositories.Filter{Field: "floor_id", Equals: id}})
	if err != nil {
		return err
	}
	for _, room := range rooms {
		timer := metrics.StartTimer()
		if err := s.observe(types.CollectionRooms, "delete", timer, s.repos.Room.Delete(ctx, room.ID)); err != nil {
			return fmt.Errorf("failed to delete room %s of floor %s: %w", room.ID, id, err)
		}
		s.publish(ctx, types.CollectionRooms, publisher.ActionDeleted, room.ID)
	}

	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionFloors, "delete", timer, s.repos.Floor.Delete(ctx, id)); err != nil {
		return err
	}
	s.publish(ctx, types.CollectionFloors, publisher.ActionDeleted, id)

	s.log.WithField("floor_id", id).WithField("rooms", len(rooms)).Info("Floor deleted")
	return nil
}

// SetBackground validates, thumbnails and stores the background image of a floor
func (s *Service) SetBackground(ctx context.Context, floorID string, data []byte) (*repositories.Background, error) {
	if s.backgrounds == nil {
		return nil, ErrBackgroundsDisabled
	}
	if _, err := s.GetFloor(ctx, floorID); err != nil {
		return nil, err
	}

	bg, err := s.backgrounds.Process(floorID, data)
	if err != nil {
		return nil, err
	}

	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionFloors, "save_background", timer, s.repos.Backgrounds.Save(ctx, bg)); err != nil {
		return nil, err
	}
	s.publish(ctx, types.CollectionFloors, publisher.ActionUpdated, floorID)
	return bg, nil
}

func (s *Service) Background(ctx context.Context, floorID string) (*repositories.Background, error) {
	timer := metrics.StartTimer()
	bg, err := s.repos.Backgrounds.Get(ctx, floorID)
	return bg, s.observe(types.CollectionFloors, "get_background", timer, err)
}

func (s *Service) DeleteBackground(ctx context.Context, floorID string) error {
	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionFloors, "delete_background", timer, s.repos.Backgrounds.Delete(ctx, floorID)); err != nil {
		return err
	}
	s.publish(ctx, types.CollectionFloors, publisher.ActionUpdated, floorID)
	return nil
}
