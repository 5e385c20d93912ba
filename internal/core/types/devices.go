package types

import (
	"slices"
	"time"
)

// Category identifies which catalog collection a base device belongs to
type Category string

const (
	CategorySensor         Category = "sensor"
	CategorySwitch         Category = "switch"
	CategoryLighting       Category = "lighting"
	CategoryOtherDevice    Category = "other_device"
	CategoryVoiceAssistant Category = "voice_assistant"
	CategoryGateway        Category = "gateway"
)

// Categories lists every device category in display order
var Categories = []Category{
	CategorySensor,
	CategorySwitch,
	CategoryLighting,
	CategoryOtherDevice,
	CategoryVoiceAssistant,
	CategoryGateway,
}

// Collection returns the collection name clients subscribe to for this category
func (c Category) Collection() string {
	switch c {
	case CategorySensor:
		return CollectionSensors
	case CategorySwitch:
		return CollectionSwitches
	case CategoryLighting:
		return CollectionLighting
	case CategoryOtherDevice:
		return CollectionOtherDevices
	case CategoryVoiceAssistant:
		return CollectionVoiceAssistants
	case CategoryGateway:
		return CollectionGateways
	}
	return ""
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// HasSingleConnectivity reports whether devices of this category talk exactly one protocol
func (c Category) HasSingleConnectivity() bool {
	switch c {
	case CategorySensor, CategorySwitch, CategoryLighting, CategoryOtherDevice:
		return true
	}
	return false
}

// CategoryForCollection maps a collection name back to its device category
func CategoryForCollection(collection string) (Category, bool) {
	for _, c := range Categories {
		if c.Collection() == collection {
			return c, true
		}
	}
	return "", false
}

// Evaluation is the good/medium/bad rating used for prices and specifications
type Evaluation string

const (
	EvaluationGood   Evaluation = "good"
	EvaluationMedium Evaluation = "medium"
	EvaluationBad    Evaluation = "bad"
)

// Valid reports whether e is a known evaluation
func (e Evaluation) Valid() bool {
	switch e {
	case EvaluationGood, EvaluationMedium, EvaluationBad:
		return true
	}
	return false
}

// Connectivity is the communication protocol a device uses
type Connectivity string

const (
	ConnectivityMatter    Connectivity = "matter"
	ConnectivityZigbee    Connectivity = "zigbee"
	ConnectivityTuya      Connectivity = "tuya"
	ConnectivityOtherApp  Connectivity = "other_app"
	ConnectivityBluetooth Connectivity = "bluetooth"
)

// Valid reports whether c is a known device connectivity
func (c Connectivity) Valid() bool {
	switch c {
	case ConnectivityMatter, ConnectivityZigbee, ConnectivityTuya, ConnectivityOtherApp, ConnectivityBluetooth:
		return true
	}
	return false
}

// NeedsLocalGateway reports whether the protocol only works through a local hub
func (c Connectivity) NeedsLocalGateway() bool {
	return c == ConnectivityZigbee || c == ConnectivityMatter
}

// ValidGatewayProtocol reports whether c can be bridged by a gateway
func (c Connectivity) ValidGatewayProtocol() bool {
	switch c {
	case ConnectivityMatter, ConnectivityZigbee, ConnectivityBluetooth, ConnectivityTuya:
		return true
	}
	return false
}

// Specification is a single named, rated property of a device
type Specification struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Value      string     `json:"value"`
	Evaluation Evaluation `json:"evaluation"`
}

// Device is a catalog entry for a physical product.
//
// Connectivity is only set for sensors, switches, lighting and other devices.
// GatewayProtocols holds the bridged protocol set of gateways and of voice
// assistants that have IsGateway set.
type Device struct {
	ID                         string          `json:"id"`
	Category                   Category        `json:"category"`
	Name                       string          `json:"name"`
	Brand                      string          `json:"brand"`
	Price                      float64         `json:"price"`
	PriceEvaluation            Evaluation      `json:"price_evaluation"`
	HomeAssistantCompatibility int             `json:"home_assistant_compatibility"`
	Tags                       []string        `json:"tags"`
	Specs                      []Specification `json:"specs"`
	Quantity                   int             `json:"quantity"`
	Score                      float64         `json:"score"`
	Connectivity               Connectivity    `json:"connectivity,omitempty"`
	IsGateway                  bool            `json:"is_gateway,omitempty"`
	GatewayProtocols           []Connectivity  `json:"gateway_protocols,omitempty"`
	Link                       string          `json:"link,omitempty"`
	Notes                      string          `json:"notes,omitempty"`
	CreatedAt                  time.Time       `json:"created_at"`
	UpdatedAt                  time.Time       `json:"updated_at"`
}

// ActsAsGateway reports whether the device bridges protocols for the house
func (d *Device) ActsAsGateway() bool {
	switch d.Category {
	case CategoryGateway:
		return true
	case CategoryVoiceAssistant:
		return d.IsGateway
	}
	return false
}
