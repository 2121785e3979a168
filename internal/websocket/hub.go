// internal/websocket/hub.go
package websocket

import (
	"context"
	"log"
	"sync"

	wstypes "carlog-service/internal/domain/websocket"
)

type Hub struct {
	// Registered clients
	clients map[*Client]bool
	mu      sync.RWMutex

	// Registration/unregistration
	Register   chan *Client
	unregister chan *Client

	// Broadcasting
	broadcast chan *BroadcastMessage
}

type BroadcastMessage struct {
	// VehicleID filters delivery to clients following that vehicle; empty
	// means every client.
	VehicleID string
	Message   *wstypes.WSMessage
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	log.Printf("Client connected: remote=%s, total=%d", client.remoteAddr, len(h.clients))

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"remote": client.remoteAddr,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client]; exists {
		delete(h.clients, client)
		client.Close()
		log.Printf("Client disconnected: remote=%s, total=%d", client.remoteAddr, len(h.clients))
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if msg.VehicleID == "" || client.IsFollowing(msg.VehicleID) {
			client.SendMessage(msg.Message)
		}
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishVehicleUpdate broadcasts a typed change event for one vehicle.
// Fire-and-forget: slow consumers are dropped by their client send buffer,
// never blocking the command path.
func (h *Hub) PublishVehicleUpdate(vehicleID string, kind wstypes.ChangeKind) {
	msg := wstypes.NewMessage(wstypes.EventTypeVehicleUpdated, wstypes.VehicleEventData{
		VehicleID: vehicleID,
		Kind:      kind,
	})
	select {
	case h.broadcast <- &BroadcastMessage{VehicleID: vehicleID, Message: msg}:
	default:
		log.Printf("broadcast buffer full, dropping update for vehicle=%s", vehicleID)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
	}
}
