// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Vehicle events (server -> client)
	EventTypeVehicleUpdated EventType = "vehicle:updated"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// ChangeKind tags which part of a vehicle record changed, so observers can
// avoid re-reading state they do not care about.
type ChangeKind string

const (
	ChangeFuel        ChangeKind = "fuel"
	ChangeMaintenance ChangeKind = "maintenance"
	ChangeMeta        ChangeKind = "meta"
	ChangeUI          ChangeKind = "ui"
	ChangeStatus      ChangeKind = "status"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	ID        string      `json:"id,omitempty"`
}

// VehicleEventData is the payload of every vehicle update broadcast.
type VehicleEventData struct {
	VehicleID string     `json:"vehicle_id"`
	Kind      ChangeKind `json:"kind"`
}

// SubscribeRequest sent by client to follow specific vehicles. An empty list
// means all vehicles.
type SubscribeRequest struct {
	VehicleIDs []string `json:"vehicle_ids"`
}

// UnsubscribeRequest sent by client to stop following vehicles.
type UnsubscribeRequest struct {
	VehicleIDs []string `json:"vehicle_ids"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Helper to create messages
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
