package compat

import (
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
)

// gatewayProtocols are the protocols that need a local gateway, in report order
var gatewayProtocols = []types.Connectivity{types.ConnectivityZigbee, types.ConnectivityMatter}

// MissingGateway lists the devices of a room whose protocol has no covering gateway
type MissingGateway struct {
	Protocol types.Connectivity `json:"protocol"`
	Devices  []string           `json:"devices"`
}

// RoomReport holds the warnings of one room
type RoomReport struct {
	RoomID   string           `json:"room_id"`
	RoomName string           `json:"room_name"`
	Missing  []MissingGateway `json:"missing"`
}

// Report is the house-wide compatibility result
type Report struct {
	Protocols []types.Connectivity `json:"protocols"`
	Gateways  []string             `json:"gateway_ids"`
	Rooms     []RoomReport         `json:"rooms"`
}

// Resolve computes covered protocols and per room missing-gateway warnings
func Resolve(s *types.Snapshot) Report {
	idx := s.Index()
	gateways := ActiveGateways(idx, s.Rooms, s.House)
	covered := HouseProtocols(gateways)

	report := Report{
		Protocols: sortedProtocols(covered),
		Gateways:  make([]string, 0, len(gateways)),
		Rooms:     make([]RoomReport, 0, len(s.Rooms)),
	}
	for _, g := range gateways {
		report.Gateways = append(report.Gateways, g.ID())
	}
	for _, room := range s.Rooms {
		report.Rooms = append(report.Rooms, RoomReport{
			RoomID:   room.ID,
			RoomName: room.Name,
			Missing:  MissingForRoom(idx, room, covered),
		})
	}
	return report
}

// MissingForRoom groups the room devices whose zigbee or matter protocol is not covered
func MissingForRoom(idx types.DeviceIndex, room types.Room, covered map[types.Connectivity]bool) []MissingGateway {
	byProtocol := make(map[types.Connectivity][]string)
	for _, inst := range room.Devices {
		d := idx.Lookup(inst.DeviceID)
		if d == nil || !d.Category.HasSingleConnectivity() {
			continue
		}
		if !d.Connectivity.NeedsLocalGateway() || covered[d.Connectivity] {
			continue
		}
		byProtocol[d.Connectivity] = append(byProtocol[d.Connectivity], idx.DisplayName(inst))
	}

	out := make([]MissingGateway, 0, len(byProtocol))
	for _, p := range gatewayProtocols {
		if names, ok := byProtocol[p]; ok {
			out = append(out, MissingGateway{Protocol: p, Devices: names})
		}
	}
	return out
}

var protocolOrder = []types.Connectivity{
	types.ConnectivityMatter,
	types.ConnectivityZigbee,
	types.ConnectivityBluetooth,
	types.ConnectivityTuya,
	types.ConnectivityOtherApp,
}

func sortedProtocols(set map[types.Connectivity]bool) []types.Connectivity {
	out := make([]types.Connectivity, 0, len(set))
	for _, p := range protocolOrder {
		if set[p] {
			out = append(out, p)
		}
	}
	return out
}
