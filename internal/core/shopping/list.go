// Package shopping aggregates the devices that still have to be bought.
package shopping

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/samber/lo"
)

// Group names used for display, in display order
const (
	GroupSensors    = "sensors"
	GroupSwitches   = "switches"
	GroupAssistants = "assistants"
	GroupLighting   = "lighting"
	GroupOther      = "other"
	GroupGateways   = "gateways"
)

var groupOrder = []string{GroupSensors, GroupSwitches, GroupAssistants, GroupLighting, GroupOther, GroupGateways}

// Item is a single unit to purchase
type Item struct {
	DeviceID   string         `json:"device_id"`
	RoomID     string         `json:"room_id,omitempty"`
	Brand      string         `json:"brand"`
	BaseName   string         `json:"base_name"`
	CustomName string         `json:"custom_name"`
	Price      float64        `json:"price"`
	Type       types.Category `json:"type"`
	Link       string         `json:"link,omitempty"`
}

// Group is the items of one device type with their subtotal
type Group struct {
	Name     string  `json:"name"`
	Items    []Item  `json:"items"`
	Subtotal float64 `json:"subtotal"`
}

// List is the complete shopping list
type List struct {
	Items  []Item  `json:"items"`
	Groups []Group `json:"groups"`
	Total  float64 `json:"total"`
}

// Build computes the shopping list of a snapshot.
//
// Every room instance that is not owned becomes an item. A house-level
// gateway is listed when its quantity does not exceed the owned instances
// already used in rooms, which includes a quantity of zero.
func Build(s *types.Snapshot) List {
	idx := s.Index()
	usedOwned := make(map[string]int)
	var items []Item

	for _, room := range s.Rooms {
		for _, inst := range room.Devices {
			d := idx.Lookup(inst.DeviceID)
			if d == nil {
				continue
			}
			if inst.IsOwned {
				usedOwned[d.ID]++
				continue
			}
			items = append(items, Item{
				DeviceID:   d.ID,
				RoomID:     room.ID,
				Brand:      d.Brand,
				BaseName:   d.Name,
				CustomName: idx.DisplayName(inst),
				Price:      d.Price,
				Type:       d.Category,
				Link:       d.Link,
			})
		}
	}

	for _, id := range lo.Uniq(s.House.GatewayIDs) {
		d := idx.Lookup(id)
		if d == nil || d.Category != types.CategoryGateway {
			continue
		}
		if d.Quantity <= usedOwned[d.ID] {
			items = append(items, Item{
				DeviceID:   d.ID,
				Brand:      d.Brand,
				BaseName:   d.Name,
				CustomName: d.Name,
				Price:      d.Price,
				Type:       d.Category,
				Link:       d.Link,
			})
		}
	}

	return List{
		Items:  lo.Ternary(items == nil, []Item{}, items),
		Groups: group(items),
		Total:  total(items),
	}
}

// GroupFor maps a device category to its display group
func GroupFor(c types.Category) string {
	switch c {
	case types.CategorySensor:
		return GroupSensors
	case types.CategorySwitch:
		return GroupSwitches
	case types.CategoryVoiceAssistant:
		return GroupAssistants
	case types.CategoryLighting:
		return GroupLighting
	case types.CategoryGateway:
		return GroupGateways
	}
	return GroupOther
}

func group(items []Item) []Group {
	byGroup := lo.GroupBy(items, func(it Item) string { return GroupFor(it.Type) })
	out := make([]Group, 0, len(byGroup))
	for _, name := range groupOrder {
		members, ok := byGroup[name]
		if !ok {
			continue
		}
		out = append(out, Group{Name: name, Items: members, Subtotal: total(members)})
	}
	return out
}

func total(items []Item) float64 {
	sum := lo.SumBy(items, func(it Item) float64 { return it.Price })
	// keep cents exact for display
	return math.Round(sum*100) / 100
}

// WriteCSV writes the list as CSV with a trailing total row
func WriteCSV(w io.Writer, l List) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"group", "type", "brand", "name", "custom_name", "price", "link"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, g := range l.Groups {
		for _, it := range g.Items {
			row := []string{g.Name, string(it.Type), it.Brand, it.BaseName, it.CustomName, formatPrice(it.Price), it.Link}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}
	}
	if err := cw.Write([]string{"total", "", "", "", "", formatPrice(l.Total), ""}); err != nil {
		return fmt.Errorf("failed to write csv total: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
