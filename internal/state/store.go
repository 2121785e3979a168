// internal/state/store.go
package state

import (
	"sync"

	"carlog-service/internal/domain/vehicle"
)

// Store owns the process-wide snapshot. Every mutating command runs its whole
// read-mutate-persist sequence inside Update, so one logical mutation is
// observed atomically even with concurrent HTTP handlers.
type Store struct {
	mu   sync.Mutex
	snap *vehicle.Snapshot
}

func NewStore(snap *vehicle.Snapshot) *Store {
	if snap == nil {
		snap = vehicle.NewSnapshot()
	}
	if snap.Cars == nil {
		snap.Cars = make(map[string]*vehicle.Record)
	}
	return &Store{snap: snap}
}

// Update runs fn with exclusive access to the snapshot. An error from fn is
// returned as-is; in-memory changes made before the error are kept (a failed
// persist does not roll back the mutation).
func (s *Store) Update(fn func(snap *vehicle.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.snap)
}

// Car returns a deep copy of one record, or nil if the vehicle is unknown.
func (s *Store) Car(carID string) *vehicle.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.snap.Cars[carID]
	if !ok {
		return nil
	}
	return rec.Clone()
}

// CarIDs returns the known vehicle identifiers.
func (s *Store) CarIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.snap.Cars))
	for id := range s.snap.Cars {
		ids = append(ids, id)
	}
	return ids
}
