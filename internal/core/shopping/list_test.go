package shopping

import (
	"bytes"
	"strings"
	"testing"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() *types.Snapshot {
	return &types.Snapshot{
		Devices: []types.Device{
			{ID: "gw", Name: "Zigbee Bridge", Brand: "Acme", Category: types.CategoryGateway, Quantity: 1, Price: 40,
				GatewayProtocols: []types.Connectivity{types.ConnectivityZigbee}},
			{ID: "motion", Name: "Motion Sensor", Brand: "Acme", Category: types.CategorySensor, Connectivity: types.ConnectivityZigbee, Price: 50},
			{ID: "plug", Name: "Wifi Plug", Brand: "Plugco", Category: types.CategorySwitch, Connectivity: types.ConnectivityTuya, Price: 30, Link: "https://shop.example/plug"},
		},
		Rooms: []types.Room{
			{ID: "living", Name: "Living room", Devices: []types.RoomDeviceInstance{
				{InstanceID: "i1", DeviceID: "motion", CustomName: "Hall motion"},
				{InstanceID: "i2", DeviceID: "plug"},
			}},
		},
		House: types.HouseConfig{GatewayIDs: []string{"gw"}},
	}
}

func TestBuildHouseExample(t *testing.T) {
	l := Build(snapshot())

	require.Len(t, l.Items, 2)
	assert.Equal(t, 80.0, l.Total)

	assert.Equal(t, Item{
		DeviceID: "motion", RoomID: "living", Brand: "Acme", BaseName: "Motion Sensor",
		CustomName: "Hall motion", Price: 50, Type: types.CategorySensor,
	}, l.Items[0])
	assert.Equal(t, "Wifi Plug", l.Items[1].CustomName)
	assert.Equal(t, "https://shop.example/plug", l.Items[1].Link)

	require.Len(t, l.Groups, 2)
	assert.Equal(t, GroupSensors, l.Groups[0].Name)
	assert.Equal(t, 50.0, l.Groups[0].Subtotal)
	assert.Equal(t, GroupSwitches, l.Groups[1].Name)
	assert.Equal(t, 30.0, l.Groups[1].Subtotal)
}

func TestBuildIsIdempotent(t *testing.T) {
	s := snapshot()
	first := Build(s)
	second := Build(s)
	assert.Equal(t, first, second)
}

func TestOwnedInstancesAreNotListed(t *testing.T) {
	s := snapshot()
	s.Rooms[0].Devices[0].IsOwned = true

	l := Build(s)
	require.Len(t, l.Items, 1)
	assert.Equal(t, "plug", l.Items[0].DeviceID)
	assert.Equal(t, 30.0, l.Total)
}

func TestHouseGatewayRule(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		owned    int
		listed   bool
	}{
		{"stock left", 1, 0, false},
		{"stock consumed by rooms", 1, 1, true},
		{"never owned", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := snapshot()
			s.Devices[0].Quantity = tt.quantity
			for i := 0; i < tt.owned; i++ {
				s.Rooms[0].Devices = append(s.Rooms[0].Devices, types.RoomDeviceInstance{
					InstanceID: "g" + string(rune('0'+i)), DeviceID: "gw", IsOwned: true,
				})
			}

			l := Build(s)
			gateways := 0
			for _, it := range l.Items {
				if it.Type == types.CategoryGateway {
					gateways++
				}
			}
			if tt.listed {
				assert.Equal(t, 1, gateways)
				assert.Equal(t, 120.0, l.Total)
				assert.Equal(t, GroupGateways, l.Groups[len(l.Groups)-1].Name)
			} else {
				assert.Zero(t, gateways)
				assert.Equal(t, 80.0, l.Total)
			}
		})
	}
}

func TestDanglingReferencesAreSkipped(t *testing.T) {
	s := snapshot()
	s.Rooms[0].Devices = append(s.Rooms[0].Devices, types.RoomDeviceInstance{InstanceID: "x", DeviceID: "deleted"})
	s.House.GatewayIDs = append(s.House.GatewayIDs, "deleted-gateway", "gw")

	l := Build(s)
	assert.Len(t, l.Items, 2)
	assert.Equal(t, 80.0, l.Total)
}

func TestEmptyHouse(t *testing.T) {
	l := Build(&types.Snapshot{})
	assert.NotNil(t, l.Items)
	assert.Empty(t, l.Groups)
	assert.Zero(t, l.Total)
}

func TestTotalEqualsSumOfItems(t *testing.T) {
	s := snapshot()
	s.Devices[1].Price = 19.99
	s.Devices[2].Price = 0.01
	l := Build(s)

	sum := 0.0
	for _, it := range l.Items {
		sum += it.Price
	}
	assert.InDelta(t, sum, l.Total, 1e-9)
	assert.Equal(t, 20.0, l.Total)
}

func TestGroupFor(t *testing.T) {
	assert.Equal(t, GroupAssistants, GroupFor(types.CategoryVoiceAssistant))
	assert.Equal(t, GroupOther, GroupFor(types.CategoryOtherDevice))
	assert.Equal(t, GroupLighting, GroupFor(types.CategoryLighting))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Build(snapshot())))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "group,type,brand,name,custom_name,price,link", lines[0])
	assert.Equal(t, "sensors,sensor,Acme,Motion Sensor,Hall motion,50.00,", lines[1])
	assert.Equal(t, "total,,,,,80.00,", lines[3])
}
