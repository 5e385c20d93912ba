package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/frostdev-ops/home-planner-go/internal/publisher"
	"github.com/samber/lo"
)

func (s *Service) ListTemplates(ctx context.Context, q repositories.Query) ([]types.RoomTemplate, error) {
	timer := metrics.StartTimer()
	tpls, err := s.repos.Template.List(ctx, q)
	return tpls, s.observe(types.CollectionRoomTemplates, "list", timer, err)
}

func (s *Service) GetTemplate(ctx context.Context, id string) (*types.RoomTemplate, error) {
	timer := metrics.StartTimer()
	tpl, err := s.repos.Template.GetByID(ctx, id)
	return tpl, s.observe(types.CollectionRoomTemplates, "get", timer, err)
}

func (s *Service) CreateTemplate(ctx context.Context, tpl *types.RoomTemplate) error {
	tpl.ID = ""
	if err := s.checkTemplate(ctx, tpl); err != nil {
		return err
	}

	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionRoomTemplates, "create", timer, s.repos.Template.Create(ctx, tpl)); err != nil {
		return err
	}
	s.publish(ctx, types.CollectionRoomTemplates, publisher.ActionCreated, tpl.ID)
	return nil
}

func (s *Service) UpdateTemplate(ctx context.Context, tpl *types.RoomTemplate) error {
	existing, err := s.GetTemplate(ctx, tpl.ID)
	if err != nil {
		return err
	}
	tpl.CreatedAt = existing.CreatedAt
	if err := s.checkTemplate(ctx, tpl); err != nil {
		return err
	}

	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionRoomTemplates, "update", timer, s.repos.Template.Update(ctx, tpl)); err != nil {
		return err
	}
	s.publish(ctx, types.CollectionRoomTemplates, publisher.ActionUpdated, tpl.ID)
	return nil
}

func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionRoomTemplates, "delete", timer, s.repos.Template.Delete(ctx, id)); err != nil {
		return err
	}
	s.publish(ctx, types.CollectionRoomTemplates, publisher.ActionDeleted, id)
	return nil
}

// checkTemplate validates template entries. Entry ids only need to be unique
// within the template since applying it always generates fresh ones.
func (s *Service) checkTemplate(ctx context.Context, tpl *types.RoomTemplate) error {
	v := &ValidationError{}
	tpl.Name = strings.TrimSpace(tpl.Name)
	if tpl.Name == "" {
		v.add("name", "is required")
	}

	devices, err := s.repos.Device.List(ctx, "", repositories.Query{})
	if err != nil {
		return err
	}
	checkInstances(v, "devices", tpl.Devices, types.IndexDevices(devices), map[string]bool{})
	return v.err()
}

// House returns the house-level configuration
func (s *Service) House(ctx context.Context) (*types.HouseConfig, error) {
	timer := metrics.StartTimer()
	house, err := s.repos.House.Get(ctx)
	return house, s.observe(types.CollectionHouseConfig, "get", timer, err)
}

// SetHouseGateways replaces the house-level gateway assignment. Order is kept
// and defines the order in which gateways are discovered.
func (s *Service) SetHouseGateways(ctx context.Context, ids []string) (*types.HouseConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.repos.Device.List(ctx, types.CategoryGateway, repositories.Query{})
	if err != nil {
		return nil, err
	}
	gateways := types.IndexDevices(devices)

	ids = lo.Uniq(ids)
	v := &ValidationError{}
	for i, id := range ids {
		if gateways.Lookup(id) == nil {
			v.add(fmt.Sprintf("gateway_ids[%d]", i), "unknown gateway %q", id)
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	house := &types.HouseConfig{GatewayIDs: ids}
	timer := metrics.StartTimer()
	if err := s.observe(types.CollectionHouseConfig, "update", timer, s.repos.House.Save(ctx, house)); err != nil {
		return nil, err
	}
	s.publish(ctx, types.CollectionHouseConfig, publisher.ActionUpdated, "")
	return house, nil
}
