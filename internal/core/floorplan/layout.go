// Package floorplan validates drawn floor layouts and prepares background images.
package floorplan

import (
	"errors"
	"fmt"
	"math"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/google/uuid"
)

// ErrInvalidLayout is wrapped by every layout validation failure
var ErrInvalidLayout = errors.New("invalid floor layout")

// NormalizeLayout assigns ids to new walls and placements and replaces nil slices
func NormalizeLayout(layout types.FloorLayout) types.FloorLayout {
	out := types.FloorLayout{
		Walls:         make([]types.Wall, 0, len(layout.Walls)),
		PlacedDevices: make([]types.PlacedDevice, 0, len(layout.PlacedDevices)),
	}
	for _, w := range layout.Walls {
		if w.ID == "" {
			w.ID = uuid.New().String()
		}
		out.Walls = append(out.Walls, w)
	}
	for _, p := range layout.PlacedDevices {
		if p.InstanceID == "" {
			p.InstanceID = uuid.New().String()
		}
		out.PlacedDevices = append(out.PlacedDevices, p)
	}
	return out
}

// ValidateLayout checks coordinates and that every placed device references a
// known base device. All problems are reported together.
func ValidateLayout(layout types.FloorLayout, devices types.DeviceIndex) error {
	var errs []error
	seen := make(map[string]bool)

	for i, w := range layout.Walls {
		if !finite(w.Start) || !finite(w.End) {
			errs = append(errs, fmt.Errorf("walls[%d]: coordinates must be finite", i))
		}
		if w.Start == w.End {
			errs = append(errs, fmt.Errorf("walls[%d]: start and end are the same point", i))
		}
		if seen[w.ID] {
			errs = append(errs, fmt.Errorf("walls[%d]: duplicate id %s", i, w.ID))
		}
		seen[w.ID] = true
	}

	for i, p := range layout.PlacedDevices {
		if !finite(types.Point{X: p.X, Y: p.Y}) {
			errs = append(errs, fmt.Errorf("placed_devices[%d]: coordinates must be finite", i))
		}
		if devices.Lookup(p.DeviceID) == nil {
			errs = append(errs, fmt.Errorf("placed_devices[%d]: unknown device %q", i, p.DeviceID))
		}
		if seen[p.InstanceID] {
			errs = append(errs, fmt.Errorf("placed_devices[%d]: duplicate id %s", i, p.InstanceID))
		}
		seen[p.InstanceID] = true
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidLayout, errors.Join(errs...))
}

func finite(p types.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
