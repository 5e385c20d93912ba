package planner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/internal/core/scoring"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/frostdev-ops/home-planner-go/internal/publisher"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ListDevices lists the devices of one category
func (s *Service) ListDevices(ctx context.Context, category types.Category, q repositories.Query) ([]types.Device, error) {
	timer := metrics.StartTimer()
	devices, err := s.repos.Device.List(ctx, category, q)
	return devices, s.observe(category.Collection(), "list", timer, err)
}

// GetDevice returns a device, reporting ErrNotFound when it belongs to another category
func (s *Service) GetDevice(ctx context.Context, category types.Category, id string) (*types.Device, error) {
	timer := metrics.StartTimer()
	d, err := s.repos.Device.GetByID(ctx, id)
	if err := s.observe(category.Collection(), "get", timer, err); err != nil {
		return nil, err
	}
	if category != "" && d.Category != category {
		return nil, fmt.Errorf("%w: %s %s", repositories.ErrNotFound, category, id)
	}
	return d, nil
}

// CreateDevice validates d, computes its score and stores it
func (s *Service) CreateDevice(ctx context.Context, d *types.Device) error {
	d.ID = ""
	normalizeDevice(d)
	if err := validateDevice(d); err != nil {
		return err
	}
	d.Score = scoring.ForDevice(d)

	timer := metrics.StartTimer()
	if err := s.observe(d.Category.Collection(), "create", timer, s.repos.Device.Create(ctx, d)); err != nil {
		return err
	}
	s.publish(ctx, d.Category.Collection(), publisher.ActionCreated, d.ID)
	return nil
}

// UpdateDevice overwrites the mutable fields of a device. The category of a
// stored device never changes.
func (s *Service) UpdateDevice(ctx context.Context, d *types.Device) error {
	existing, err := s.GetDevice(ctx, d.Category, d.ID)
	if err != nil {
		return err
	}

	d.Category = existing.Category
	d.CreatedAt = existing.CreatedAt
	normalizeDevice(d)
	if err := validateDevice(d); err != nil {
		return err
	}
	d.Score = scoring.ForDevice(d)

	timer := metrics.StartTimer()
	if err := s.observe(d.Category.Collection(), "update", timer, s.repos.Device.Update(ctx, d)); err != nil {
		return err
	}
	s.publish(ctx, d.Category.Collection(), publisher.ActionUpdated, d.ID)
	return nil
}

// DeleteDevice removes a device. Room instances and house gateway ids that
// still reference it are left in place and skipped by the derived views.
func (s *Service) DeleteDevice(ctx context.Context, category types.Category, id string) error {
	if _, err := s.GetDevice(ctx, category, id); err != nil {
		return err
	}

	timer := metrics.StartTimer()
	if err := s.observe(category.Collection(), "delete", timer, s.repos.Device.Delete(ctx, id)); err != nil {
		return err
	}
	s.publish(ctx, category.Collection(), publisher.ActionDeleted, id)
	return nil
}

// PreviewScore returns the score an in-progress device form would get
func (s *Service) PreviewScore(d types.Device) float64 {
	normalizeDevice(&d)
	return scoring.ForDevice(&d)
}

// normalizeDevice clears fields that do not apply to the device category and
// fills server-side defaults
func normalizeDevice(d *types.Device) {
	d.Name = strings.TrimSpace(d.Name)
	d.Brand = strings.TrimSpace(d.Brand)
	d.Tags = lo.Uniq(lo.Filter(lo.Map(d.Tags, func(t string, _ int) string {
		return strings.TrimSpace(t)
	}), func(t string, _ int) bool {
		return t != ""
	}))

	specs := make([]types.Specification, 0, len(d.Specs))
	for _, spec := range d.Specs {
		if spec.ID == "" {
			spec.ID = uuid.New().String()
		}
		spec.Name = strings.TrimSpace(spec.Name)
		specs = append(specs, spec)
	}
	d.Specs = specs

	switch d.Category {
	case types.CategoryGateway:
		d.Connectivity = ""
		d.IsGateway = false
		d.GatewayProtocols = lo.Uniq(d.GatewayProtocols)
	case types.CategoryVoiceAssistant:
		d.Connectivity = ""
		if d.IsGateway {
			d.GatewayProtocols = lo.Uniq(d.GatewayProtocols)
		} else {
			d.GatewayProtocols = nil
		}
	default:
		d.IsGateway = false
		d.GatewayProtocols = nil
	}
}

func validateDevice(d *types.Device) error {
	v := &ValidationError{}

	if !d.Category.Valid() {
		v.add("category", "unknown category %q", d.Category)
	}
	if d.Name == "" {
		v.add("name", "is required")
	}
	if d.Price < 0 {
		v.add("price", "must not be negative")
	}
	if !d.PriceEvaluation.Valid() {
		v.add("price_evaluation", "must be one of good, medium, bad")
	}
	if d.Quantity < 0 {
		v.add("quantity", "must not be negative")
	}
	// 0 means not rated
	if d.Category != types.CategorySensor && (d.HomeAssistantCompatibility < 0 || d.HomeAssistantCompatibility > 5) {
		v.add("home_assistant_compatibility", "must be between 1 and 5, or 0 when unrated")
	}
	for i, spec := range d.Specs {
		if spec.Name == "" {
			v.add(fmt.Sprintf("specs[%d].name", i), "is required")
		}
		if !spec.Evaluation.Valid() {
			v.add(fmt.Sprintf("specs[%d].evaluation", i), "must be one of good, medium, bad")
		}
	}
	if d.Category.HasSingleConnectivity() && !d.Connectivity.Valid() {
		v.add("connectivity", "unknown connectivity %q", d.Connectivity)
	}
	for i, p := range d.GatewayProtocols {
		if !p.ValidGatewayProtocol() {
			v.add(fmt.Sprintf("gateway_protocols[%d]", i), "protocol %q cannot be bridged", p)
		}
	}
	if d.Link != "" {
		if u, err := url.Parse(d.Link); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			v.add("link", "must be an http or https url")
		}
	}

	return v.err()
}

// IsValidation reports whether err is a rejected write
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
