package compat

import (
	"testing"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func houseSnapshot() *types.Snapshot {
	return &types.Snapshot{
		Devices: []types.Device{
			{ID: "gw", Name: "Zigbee Bridge", Category: types.CategoryGateway, Quantity: 1,
				GatewayProtocols: []types.Connectivity{types.ConnectivityZigbee}},
			{ID: "motion", Name: "Motion Sensor", Category: types.CategorySensor, Connectivity: types.ConnectivityZigbee, Price: 50},
			{ID: "plug", Name: "Wifi Plug", Category: types.CategorySwitch, Connectivity: types.ConnectivityTuya, Price: 30},
		},
		Rooms: []types.Room{
			{ID: "living", Name: "Living room", Devices: []types.RoomDeviceInstance{
				{InstanceID: "i1", DeviceID: "motion"},
				{InstanceID: "i2", DeviceID: "plug"},
			}},
		},
		House: types.HouseConfig{GatewayIDs: []string{"gw"}},
	}
}

func TestResolveCoveredHouse(t *testing.T) {
	report := Resolve(houseSnapshot())

	assert.Equal(t, []types.Connectivity{types.ConnectivityZigbee}, report.Protocols)
	assert.Equal(t, []string{"gw"}, report.Gateways)
	require.Len(t, report.Rooms, 1)
	assert.Empty(t, report.Rooms[0].Missing)
}

func TestResolveMissingGateway(t *testing.T) {
	s := houseSnapshot()
	s.House.GatewayIDs = nil
	s.Devices = append(s.Devices, types.Device{
		ID: "lamp", Name: "Matter Lamp", Category: types.CategoryLighting, Connectivity: types.ConnectivityMatter,
	})
	s.Rooms[0].Devices = append(s.Rooms[0].Devices,
		types.RoomDeviceInstance{InstanceID: "i3", DeviceID: "lamp", CustomName: "Reading lamp"},
		types.RoomDeviceInstance{InstanceID: "i4", DeviceID: "motion"},
	)

	report := Resolve(s)
	assert.Empty(t, report.Protocols)

	missing := report.Rooms[0].Missing
	require.Len(t, missing, 2)
	assert.Equal(t, MissingGateway{Protocol: types.ConnectivityZigbee, Devices: []string{"Motion Sensor", "Motion Sensor"}}, missing[0])
	assert.Equal(t, MissingGateway{Protocol: types.ConnectivityMatter, Devices: []string{"Reading lamp"}}, missing[1])
}

func TestAssistantGatewayCoversRoomsOnlyWhenPlaced(t *testing.T) {
	s := houseSnapshot()
	s.House.GatewayIDs = nil
	s.Devices = append(s.Devices, types.Device{
		ID: "speaker", Name: "Smart Speaker", Category: types.CategoryVoiceAssistant,
		IsGateway: true, GatewayProtocols: []types.Connectivity{types.ConnectivityZigbee, types.ConnectivityMatter},
	})

	// not placed in any room: not active
	assert.Empty(t, ActiveGateways(s.Index(), s.Rooms, s.House))
	assert.NotEmpty(t, Resolve(s).Rooms[0].Missing)

	s.Rooms = append(s.Rooms, types.Room{ID: "bedroom", Devices: []types.RoomDeviceInstance{
		{InstanceID: "s1", DeviceID: "speaker"},
		{InstanceID: "s2", DeviceID: "speaker"},
	}})
	gws := ActiveGateways(s.Index(), s.Rooms, s.House)
	require.Len(t, gws, 1)
	assert.Equal(t, KindAssistantGateway, gws[0].Kind)
	assert.True(t, gws[0].Supports(types.ConnectivityMatter))

	report := Resolve(s)
	assert.Equal(t, []types.Connectivity{types.ConnectivityMatter, types.ConnectivityZigbee}, report.Protocols)
	for _, room := range report.Rooms {
		assert.Empty(t, room.Missing)
	}
}

func TestActiveGatewaysOrderAndDanglingReferences(t *testing.T) {
	s := houseSnapshot()
	s.Devices = append(s.Devices, types.Device{
		ID: "gw2", Name: "Matter Bridge", Category: types.CategoryGateway,
		GatewayProtocols: []types.Connectivity{types.ConnectivityMatter},
	})
	s.House.GatewayIDs = []string{"gw2", "deleted", "gw", "gw2", "motion"}
	s.Rooms[0].Devices = append(s.Rooms[0].Devices, types.RoomDeviceInstance{InstanceID: "x", DeviceID: "gone"})

	gws := ActiveGateways(s.Index(), s.Rooms, s.House)
	require.Len(t, gws, 2)
	assert.Equal(t, "gw2", gws[0].ID())
	assert.Equal(t, "gw", gws[1].ID())
	assert.Equal(t, KindDedicated, gws[0].Kind)

	protocols := HouseProtocols(gws)
	assert.True(t, protocols[types.ConnectivityZigbee])
	assert.True(t, protocols[types.ConnectivityMatter])
	assert.False(t, protocols[types.ConnectivityTuya])
}
