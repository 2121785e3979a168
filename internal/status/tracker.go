// internal/status/tracker.go
package status

import (
	"sync"
	"time"

	wstypes "carlog-service/internal/domain/websocket"
)

// State is the runtime save-status of one vehicle.
type State string

const (
	StateIdle   State = "idle"
	StateSaving State = "saving"
	StateSaved  State = "saved"
	StateError  State = "error"
)

// Status is ephemeral per-vehicle feedback for observers. Never persisted;
// every process start begins from idle defaults.
type Status struct {
	Saving    bool       `json:"saving"`
	State     State      `json:"state"`
	Message   string     `json:"message"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Publisher broadcasts vehicle change events to observers.
type Publisher interface {
	PublishVehicleUpdate(vehicleID string, kind wstypes.ChangeKind)
}

// Tracker keeps the runtime status per vehicle. Every write emits the same
// update event used by data mutations, so observers re-read whatever they
// care about.
type Tracker struct {
	mu     sync.RWMutex
	byCar  map[string]Status
	events Publisher
}

func NewTracker(events Publisher) *Tracker {
	return &Tracker{
		byCar:  make(map[string]Status),
		events: events,
	}
}

// Set replaces the status for a vehicle and notifies observers.
func (t *Tracker) Set(carID string, state State, message string) {
	now := time.Now().UTC()
	t.mu.Lock()
	t.byCar[carID] = Status{
		Saving:    state == StateSaving,
		State:     state,
		Message:   message,
		UpdatedAt: &now,
	}
	t.mu.Unlock()

	if t.events != nil {
		t.events.PublishVehicleUpdate(carID, wstypes.ChangeStatus)
	}
}

// Reset puts a vehicle back to idle defaults without a timestamp.
func (t *Tracker) Reset(carID string) {
	t.mu.Lock()
	t.byCar[carID] = Status{State: StateIdle}
	t.mu.Unlock()

	if t.events != nil {
		t.events.PublishVehicleUpdate(carID, wstypes.ChangeStatus)
	}
}

// Get returns the current status, idle defaults for unknown vehicles.
func (t *Tracker) Get(carID string) Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if st, ok := t.byCar[carID]; ok {
		return st
	}
	return Status{State: StateIdle}
}
