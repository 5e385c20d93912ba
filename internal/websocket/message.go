package websocket

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
)

// Message types for WebSocket communication
const (
	// Client requests
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypePing        = "ping"

	// Server messages
	MessageTypeConnection   = "connection"
	MessageTypeSnapshot     = "snapshot"
	MessageTypeUnsubscribed = "unsubscribed"
	MessageTypeError        = "error"
	MessageTypePong         = "pong"
)

// ViewPrefix marks subscriptions to derived views rather than collections
const ViewPrefix = "view:"

// Request is a message sent by a client
type Request struct {
	Type           string                 `json:"type"`
	SubscriptionID string                 `json:"subscription_id"`
	Collection     string                 `json:"collection"`
	OrderBy        string                 `json:"order_by,omitempty"`
	Direction      repositories.Direction `json:"direction,omitempty"`
	Where          *repositories.Filter   `json:"where,omitempty"`
}

// Query returns the store query carried by a subscribe request
func (r Request) Query() repositories.Query {
	return repositories.Query{OrderBy: r.OrderBy, Direction: r.Direction, Where: r.Where}
}

// View returns the derived view name when the request targets one
func (r Request) View() (string, bool) {
	if !strings.HasPrefix(r.Collection, ViewPrefix) {
		return "", false
	}
	return strings.TrimPrefix(r.Collection, ViewPrefix), true
}

// Message is sent by the server. Snapshots always carry the full result set.
type Message struct {
	Type           string      `json:"type"`
	SubscriptionID string      `json:"subscription_id,omitempty"`
	Collection     string      `json:"collection,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Error          string      `json:"error,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m Message) ToJSON() []byte {
	m.Timestamp = time.Now().UTC()
	data, err := json.Marshal(m)
	if err != nil {
		fallback, _ := json.Marshal(Message{
			Type:           MessageTypeError,
			SubscriptionID: m.SubscriptionID,
			Error:          "failed to encode message",
			Timestamp:      m.Timestamp,
		})
		return fallback
	}
	return data
}

func errorMessage(subscriptionID string, err error) Message {
	return Message{Type: MessageTypeError, SubscriptionID: subscriptionID, Error: err.Error()}
}
