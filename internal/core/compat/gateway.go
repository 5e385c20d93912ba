// Package compat resolves which protocols the house gateways cover and which
// room devices are left without a gateway.
package compat

import (
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/samber/lo"
)

// GatewayKind tags the GatewayLike variant
type GatewayKind string

const (
	KindDedicated        GatewayKind = "gateway"
	KindAssistantGateway GatewayKind = "voice_assistant"
)

// GatewayLike is either a dedicated gateway or a voice assistant acting as one
type GatewayLike struct {
	Kind   GatewayKind
	Device *types.Device
}

// Dedicated wraps a gateway device
func Dedicated(d *types.Device) GatewayLike {
	return GatewayLike{Kind: KindDedicated, Device: d}
}

// AssistantGateway wraps a gateway-capable voice assistant
func AssistantGateway(d *types.Device) GatewayLike {
	return GatewayLike{Kind: KindAssistantGateway, Device: d}
}

// ID returns the underlying device id
func (g GatewayLike) ID() string {
	return g.Device.ID
}

// Protocols returns the protocols bridged by the gateway
func (g GatewayLike) Protocols() []types.Connectivity {
	return g.Device.GatewayProtocols
}

// Supports reports whether the gateway bridges p
func (g GatewayLike) Supports(p types.Connectivity) bool {
	return lo.Contains(g.Protocols(), p)
}

// ActiveGateways lists the gateways serving the house: house-level gateways in
// configuration order, then gateway-capable assistants in the order they are
// first found in rooms. Dangling references are skipped.
func ActiveGateways(idx types.DeviceIndex, rooms []types.Room, house types.HouseConfig) []GatewayLike {
	var out []GatewayLike
	seen := make(map[string]bool)

	for _, id := range house.GatewayIDs {
		d := idx.Lookup(id)
		if d == nil || d.Category != types.CategoryGateway || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Dedicated(d))
	}

	for _, room := range rooms {
		for _, inst := range room.Devices {
			d := idx.Lookup(inst.DeviceID)
			if d == nil || d.Category != types.CategoryVoiceAssistant || !d.IsGateway || seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			out = append(out, AssistantGateway(d))
		}
	}
	return out
}

// HouseProtocols is the union of the protocols of all active gateways
func HouseProtocols(gateways []GatewayLike) map[types.Connectivity]bool {
	out := make(map[types.Connectivity]bool)
	for _, g := range gateways {
		for _, p := range g.Protocols() {
			out[p] = true
		}
	}
	return out
}
