// Package topology builds the hub / protocol hub / room graph of the house.
package topology

import (
	"github.com/frostdev-ops/home-planner-go/internal/core/compat"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/samber/lo"
)

// RootID is the id of the single root hub node
const RootID = "hub"

// Synthetic protocol hub ids
const (
	NodeCloudTuya     = "cloud_tuya"
	NodeLocalOtherApp = "local_other_app"
	NodeLocalBT       = "local_bluetooth"
)

// NodeKind distinguishes the layers of the graph
type NodeKind string

const (
	KindRoot      NodeKind = "root"
	KindGateway   NodeKind = "gateway"
	KindSynthetic NodeKind = "synthetic"
	KindRoom      NodeKind = "room"
)

// HiddenOpacity is the opacity hidden rooms render at
const HiddenOpacity = 0.4

// Palette is the fixed edge colour per protocol
var Palette = map[types.Connectivity]string{
	types.ConnectivityMatter:    "#7e57c2",
	types.ConnectivityZigbee:    "#ffa726",
	types.ConnectivityTuya:      "#42a5f5",
	types.ConnectivityOtherApp:  "#8d6e63",
	types.ConnectivityBluetooth: "#26c6da",
}

// RootEdgeColor is used for edges between protocol hubs and the root
const RootEdgeColor = "#9e9e9e"

var syntheticNodes = map[types.Connectivity]string{
	types.ConnectivityTuya:      NodeCloudTuya,
	types.ConnectivityOtherApp:  NodeLocalOtherApp,
	types.ConnectivityBluetooth: NodeLocalBT,
}

var syntheticOrder = []types.Connectivity{
	types.ConnectivityTuya,
	types.ConnectivityOtherApp,
	types.ConnectivityBluetooth,
}

// Node is a vertex of the topology graph
type Node struct {
	ID        string               `json:"id"`
	Kind      NodeKind             `json:"kind"`
	Label     string               `json:"label"`
	Protocols []types.Connectivity `json:"protocols,omitempty"`
	Hidden    bool                 `json:"hidden,omitempty"`
	Opacity   float64              `json:"opacity"`
	Devices   []string             `json:"devices,omitempty"`
	Collapsed bool                 `json:"collapsed,omitempty"`
}

// Edge connects two nodes, coloured by protocol
type Edge struct {
	From     string             `json:"from"`
	To       string             `json:"to"`
	Protocol types.Connectivity `json:"protocol,omitempty"`
	Color    string             `json:"color"`
}

// Graph is the renderable topology
type Graph struct {
	Root   Node   `json:"root"`
	Middle []Node `json:"middle"`
	Rooms  []Node `json:"rooms"`
	Edges  []Edge `json:"edges"`
}

// Build computes the topology of a snapshot. Rooms listed in hidden keep
// their node but contribute no edges and have their device list collapsed.
func Build(s *types.Snapshot, hidden map[string]bool) Graph {
	idx := s.Index()
	gateways := compat.ActiveGateways(idx, s.Rooms, s.House)

	g := Graph{
		Root:   Node{ID: RootID, Kind: KindRoot, Label: "Home", Opacity: 1},
		Middle: make([]Node, 0, len(gateways)+len(syntheticOrder)),
		Rooms:  make([]Node, 0, len(s.Rooms)),
		Edges:  []Edge{},
	}

	for _, gw := range gateways {
		g.Middle = append(g.Middle, Node{
			ID:        gw.ID(),
			Kind:      KindGateway,
			Label:     gw.Device.Name,
			Protocols: gw.Protocols(),
			Opacity:   1,
		})
	}

	used := usedProtocols(idx, s.Rooms)
	for _, p := range syntheticOrder {
		if !used[p] {
			continue
		}
		g.Middle = append(g.Middle, Node{
			ID:        syntheticNodes[p],
			Kind:      KindSynthetic,
			Label:     string(p),
			Protocols: []types.Connectivity{p},
			Opacity:   1,
		})
	}

	for _, m := range g.Middle {
		g.Edges = append(g.Edges, Edge{From: m.ID, To: RootID, Color: RootEdgeColor})
	}

	for _, room := range s.Rooms {
		node := Node{ID: room.ID, Kind: KindRoom, Label: room.Name, Opacity: 1}
		if hidden[room.ID] {
			node.Hidden = true
			node.Collapsed = true
			node.Opacity = HiddenOpacity
			g.Rooms = append(g.Rooms, node)
			continue
		}
		node.Devices = lo.FilterMap(room.Devices, func(inst types.RoomDeviceInstance, _ int) (string, bool) {
			return idx.DisplayName(inst), idx.Lookup(inst.DeviceID) != nil
		})
		g.Rooms = append(g.Rooms, node)

		for _, p := range roomProtocols(idx, room) {
			target, ok := route(g.Middle, p)
			if !ok {
				continue
			}
			g.Edges = append(g.Edges, Edge{From: room.ID, To: target, Protocol: p, Color: Palette[p]})
		}
	}
	return g
}

// route finds the middle node a protocol is routed through
func route(middle []Node, p types.Connectivity) (string, bool) {
	if id, ok := syntheticNodes[p]; ok {
		return id, true
	}
	for _, m := range middle {
		if m.Kind == KindGateway && lo.Contains(m.Protocols, p) {
			return m.ID, true
		}
	}
	return "", false
}

// roomProtocols lists the distinct protocols of a room in first-seen order
func roomProtocols(idx types.DeviceIndex, room types.Room) []types.Connectivity {
	var out []types.Connectivity
	for _, inst := range room.Devices {
		d := idx.Lookup(inst.DeviceID)
		if d == nil || !d.Category.HasSingleConnectivity() || !d.Connectivity.Valid() {
			continue
		}
		if !lo.Contains(out, d.Connectivity) {
			out = append(out, d.Connectivity)
		}
	}
	return out
}

func usedProtocols(idx types.DeviceIndex, rooms []types.Room) map[types.Connectivity]bool {
	out := make(map[types.Connectivity]bool)
	for _, room := range rooms {
		for _, p := range roomProtocols(idx, room) {
			out[p] = true
		}
	}
	return out
}
