package types

import "time"

// Collection names exposed to clients
const (
	CollectionSensors         = "sensors"
	CollectionSwitches        = "switches"
	CollectionLighting        = "lighting"
	CollectionOtherDevices    = "other_devices"
	CollectionVoiceAssistants = "voice_assistants"
	CollectionGateways        = "gateways"
	CollectionFloors          = "floors"
	CollectionRooms           = "rooms"
	CollectionRoomTemplates   = "room_templates"
	CollectionHouseConfig     = "house_config"
)

// Collections lists every persisted collection
var Collections = []string{
	CollectionSensors,
	CollectionSwitches,
	CollectionLighting,
	CollectionOtherDevices,
	CollectionVoiceAssistants,
	CollectionGateways,
	CollectionFloors,
	CollectionRooms,
	CollectionRoomTemplates,
	CollectionHouseConfig,
}

// Point is a coordinate on a floor plan
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Wall is a line segment drawn on a floor plan
type Wall struct {
	ID    string `json:"id"`
	Start Point  `json:"start"`
	End   Point  `json:"end"`
}

// PlacedDevice is a device pin on a floor plan, independent of room assignment
type PlacedDevice struct {
	InstanceID string  `json:"instance_id"`
	DeviceID   string  `json:"device_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// FloorLayout is the drawn plan of a floor
type FloorLayout struct {
	Walls         []Wall         `json:"walls"`
	PlacedDevices []PlacedDevice `json:"placed_devices"`
}

// Floor groups rooms on one level of the house
type Floor struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Layout        FloorLayout `json:"layout"`
	HasBackground bool        `json:"has_background"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// RoomDeviceInstance is a placement of a base device in a room
type RoomDeviceInstance struct {
	InstanceID string `json:"instance_id"`
	DeviceID   string `json:"device_id"`
	CustomName string `json:"custom_name"`
	IsOwned    bool   `json:"is_owned"`
}

// Room holds an ordered list of device instances and belongs to a floor
type Room struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	FloorID   string               `json:"floor_id"`
	Devices   []RoomDeviceInstance `json:"devices"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// RoomTemplate is a reusable preset of device entries copied into new rooms
type RoomTemplate struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Devices   []RoomDeviceInstance `json:"devices"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// HouseConfig is the singleton house-level configuration
type HouseConfig struct {
	GatewayIDs []string  `json:"gateway_ids"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasGateway reports whether the gateway is assigned at house level
func (h HouseConfig) HasGateway(id string) bool {
	for _, gid := range h.GatewayIDs {
		if gid == id {
			return true
		}
	}
	return false
}
