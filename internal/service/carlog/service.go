// internal/service/carlog/service.go
package carlog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"carlog-service/internal/domain/vehicle"
	wstypes "carlog-service/internal/domain/websocket"
	xerrors "carlog-service/internal/pkg/errors"
	"carlog-service/internal/service/stats"
	"carlog-service/internal/state"
	"carlog-service/internal/store"

	"go.uber.org/zap"
)

// Publisher broadcasts vehicle change events to observers.
type Publisher interface {
	PublishVehicleUpdate(vehicleID string, kind wstypes.ChangeKind)
}

// Service is the command layer over the snapshot: the six mutating log
// operations plus registration and UI staging. Each command mutates under
// the state lock, persists the whole snapshot and then notifies observers.
// A failed persist surfaces as an error without rolling the in-memory
// mutation back.
type Service struct {
	state  *state.Store
	store  store.Store
	events Publisher
	logger *zap.Logger

	// Injectable clock and local timezone, fixed in tests.
	now   func() time.Time
	local *time.Location
}

func NewService(st *state.Store, persist store.Store, events Publisher, logger *zap.Logger) *Service {
	return &Service{
		state:  st,
		store:  persist,
		events: events,
		logger: logger,
		now:    time.Now,
		local:  time.Local,
	}
}

func (s *Service) notify(carID string, kind wstypes.ChangeKind) {
	if s.events != nil {
		s.events.PublishVehicleUpdate(carID, kind)
	}
}

// RegisterVehicle creates or refreshes a vehicle's configuration. Name and
// plate always follow the request; tank capacity is only adopted when none
// is configured yet, so re-registration never clobbers a tuned value.
func (s *Service) RegisterVehicle(ctx context.Context, req vehicle.RegisterRequest) error {
	err := s.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(req.CarID)
		car.Meta.Name = req.Name
		car.Meta.LicensePlate = vehicle.NormalizeLicensePlate(req.LicensePlate)
		if car.Meta.TankCapacityL == nil && req.TankCapacityL != nil {
			capacity := *req.TankCapacityL
			car.Meta.TankCapacityL = &capacity
		}
		return s.store.Save(ctx, snap)
	})
	if err != nil {
		s.logger.Error("failed to register vehicle", zap.String("car_id", req.CarID), zap.Error(err))
		return err
	}

	s.logger.Info("vehicle registered", zap.String("car_id", req.CarID), zap.String("name", req.Name))
	s.notify(req.CarID, wstypes.ChangeMeta)
	return nil
}

// LogFuel appends a fill-up stamped now. The odometer metadata and the
// staged UI odometer always follow a fill-up, a fill is the latest truth.
func (s *Service) LogFuel(ctx context.Context, carID string, req vehicle.LogFuelRequest) error {
	ts := vehicle.NewTimestamp(s.now())

	err := s.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(carID)
		entry := vehicle.FuelEntry{
			ID:         vehicle.NewEntryID(),
			TS:         ts,
			OdometerKM: *req.OdometerKM,
			Liters:     *req.Liters,
		}
		if req.PriceTotal != nil {
			price := *req.PriceTotal
			entry.PriceTotal = &price
		}
		car.Fuel.Append(entry)
		car.SetOdometer(*req.OdometerKM)
		return s.store.Save(ctx, snap)
	})
	if err != nil {
		s.logger.Error("failed to log fuel", zap.String("car_id", carID), zap.Error(err))
		return err
	}

	s.logger.Info("fuel logged",
		zap.String("car_id", carID),
		zap.Float64("odometer_km", *req.OdometerKM),
		zap.Float64("liters", *req.Liters),
	)
	s.notify(carID, wstypes.ChangeFuel)
	return nil
}

// maintenanceTimestamp turns an optional "YYYY-MM-DD" civil date into the
// stored timestamp and decides whether the entry's odometer becomes the
// current-known value. A dated entry is fixed at local noon of that day; a
// strictly past date is historical and leaves the odometer untouched, while
// today-or-future dates are treated as the newest known state. No date means
// now, which always updates.
func (s *Service) maintenanceTimestamp(date *string) (string, bool, error) {
	nowUTC := s.now().UTC()
	if date == nil || *date == "" {
		return vehicle.NewTimestamp(nowUTC), true, nil
	}

	day, err := time.ParseInLocation("2006-01-02", *date, s.local)
	if err != nil {
		return "", false, fmt.Errorf("%w: bad date %q", xerrors.ErrInvalidInput, *date)
	}
	noonUTC := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, s.local).UTC()
	return vehicle.NewTimestamp(noonUTC), !noonUTC.Before(nowUTC), nil
}

// LogMaintenance appends a service event under the given type.
func (s *Service) LogMaintenance(ctx context.Context, carID string, req vehicle.LogMaintenanceRequest) error {
	ts, updateOdometer, err := s.maintenanceTimestamp(req.Date)
	if err != nil {
		return err
	}

	err = s.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(carID)
		log := car.Maintenance[req.Type]
		log.Append(vehicle.MaintenanceEntry{
			ID:         vehicle.NewEntryID(),
			TS:         ts,
			OdometerKM: *req.OdometerKM,
			Note:       req.Note,
		})
		car.Maintenance[req.Type] = log

		if updateOdometer {
			car.SetOdometer(*req.OdometerKM)
		}
		return s.store.Save(ctx, snap)
	})
	if err != nil {
		s.logger.Error("failed to log maintenance", zap.String("car_id", carID), zap.Error(err))
		return err
	}

	s.logger.Info("maintenance logged",
		zap.String("car_id", carID),
		zap.String("type", req.Type),
		zap.Bool("odometer_updated", updateOdometer),
	)
	s.notify(carID, wstypes.ChangeMaintenance)
	return nil
}

// DeleteFuelEntry removes the entry with the given timestamp, or the
// chronologically latest one when ts is nil. A miss or an empty log is a
// silent no-op: nothing is saved, nothing is broadcast. The odometer
// metadata is not recomputed from the surviving entries.
func (s *Service) DeleteFuelEntry(ctx context.Context, carID string, ts *string) error {
	var removed bool
	err := s.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(carID)
		if ts != nil && *ts != "" {
			removed = car.Fuel.DeleteByTimestamp(*ts)
		} else {
			removed = car.Fuel.DeleteLatest()
		}
		if !removed {
			return nil
		}
		return s.store.Save(ctx, snap)
	})
	if err != nil {
		s.logger.Error("failed to delete fuel entry", zap.String("car_id", carID), zap.Error(err))
		return err
	}
	if removed {
		s.notify(carID, wstypes.ChangeFuel)
	}
	return nil
}

// UpdateFuelEntry patches the entry identified by request timestamp. Omitted
// fields stay as-is; an explicit null price clears it. An odometer change
// always refreshes the current-known odometer. A miss is a silent no-op.
func (s *Service) UpdateFuelEntry(ctx context.Context, carID string, req vehicle.UpdateFuelRequest) error {
	var applied bool
	err := s.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(carID)
		applied = car.Fuel.UpdateByTimestamp(req.TS, vehicle.FuelPatch{
			OdometerKM: req.OdometerKM,
			Liters:     req.Liters,
			PriceTotal: req.PriceTotal,
		})
		if !applied {
			return nil
		}
		if req.OdometerKM != nil {
			car.SetOdometer(*req.OdometerKM)
		}
		return s.store.Save(ctx, snap)
	})
	if err != nil {
		s.logger.Error("failed to update fuel entry", zap.String("car_id", carID), zap.Error(err))
		return err
	}
	if applied {
		s.notify(carID, wstypes.ChangeFuel)
	}
	return nil
}

// DeleteMaintenanceEntry mirrors DeleteFuelEntry for one maintenance type.
func (s *Service) DeleteMaintenanceEntry(ctx context.Context, carID, maintType string, ts *string) error {
	var removed bool
	err := s.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(carID)
		log := car.Maintenance[maintType]
		if ts != nil && *ts != "" {
			removed = log.DeleteByTimestamp(*ts)
		} else {
			removed = log.DeleteLatest()
		}
		if !removed {
			return nil
		}
		car.Maintenance[maintType] = log
		return s.store.Save(ctx, snap)
	})
	if err != nil {
		s.logger.Error("failed to delete maintenance entry", zap.String("car_id", carID), zap.Error(err))
		return err
	}
	if removed {
		s.notify(carID, wstypes.ChangeMaintenance)
	}
	return nil
}

// UpdateMaintenanceEntry patches the entry identified by type + timestamp.
// A date change rewrites the entry timestamp via the same local-noon rule as
// logging, and the odometer metadata only follows when that rule says the
// entry is the newest known state.
func (s *Service) UpdateMaintenanceEntry(ctx context.Context, carID string, req vehicle.UpdateMaintenanceRequest) error {
	updateOdometer := true
	var newTS *string
	if req.Date != nil && *req.Date != "" {
		ts, update, err := s.maintenanceTimestamp(req.Date)
		if err != nil {
			return err
		}
		newTS = &ts
		updateOdometer = update
	}

	var applied bool
	err := s.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(carID)
		log := car.Maintenance[req.Type]
		applied = log.UpdateByTimestamp(req.TS, vehicle.MaintPatch{
			TS:         newTS,
			OdometerKM: req.OdometerKM,
			Note:       req.Note,
		})
		if !applied {
			return nil
		}
		if req.OdometerKM != nil && updateOdometer {
			car.SetOdometer(*req.OdometerKM)
		}
		return s.store.Save(ctx, snap)
	})
	if err != nil {
		s.logger.Error("failed to update maintenance entry", zap.String("car_id", carID), zap.Error(err))
		return err
	}
	if applied {
		s.notify(carID, wstypes.ChangeMaintenance)
	}
	return nil
}

// SetTankCapacity updates the configured tank capacity.
func (s *Service) SetTankCapacity(ctx context.Context, carID string, capacityL float64) error {
	err := s.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(carID)
		capacity := capacityL
		car.Meta.TankCapacityL = &capacity
		return s.store.Save(ctx, snap)
	})
	if err != nil {
		return err
	}
	s.notify(carID, wstypes.ChangeMeta)
	return nil
}

// Stage patches the UI staging fields used to prefill a pending entry.
// An empty maint_date clears the staged date.
func (s *Service) Stage(ctx context.Context, carID string, req vehicle.StageRequest) error {
	err := s.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(carID)
		if req.OdometerKM != nil {
			km := *req.OdometerKM
			car.UI.OdometerKM = &km
		}
		if req.Liters != nil {
			car.UI.Liters = *req.Liters
		}
		if req.PriceTotal != nil {
			car.UI.PriceTotal = *req.PriceTotal
		}
		if req.Note != nil {
			car.UI.Note = *req.Note
		}
		if req.MaintType != nil {
			car.UI.MaintType = *req.MaintType
		}
		if req.MaintDate != nil {
			if *req.MaintDate == "" {
				car.UI.MaintDate = nil
			} else {
				d := *req.MaintDate
				car.UI.MaintDate = &d
			}
		}
		return s.store.Save(ctx, snap)
	})
	if err != nil {
		return err
	}
	s.notify(carID, wstypes.ChangeUI)
	return nil
}

// --- Read path ---

// Vehicle returns a deep copy of one record.
func (s *Service) Vehicle(carID string) (*vehicle.Record, error) {
	rec := s.state.Car(carID)
	if rec == nil {
		return nil, fmt.Errorf("%w: vehicle %q", xerrors.ErrNotFound, carID)
	}
	return rec, nil
}

// List returns a summary per known vehicle, ordered by identifier.
func (s *Service) List() []vehicle.Summary {
	ids := s.state.CarIDs()
	sort.Strings(ids)

	summaries := make([]vehicle.Summary, 0, len(ids))
	for _, id := range ids {
		rec := s.state.Car(id)
		if rec == nil {
			continue
		}
		summaries = append(summaries, vehicle.Summary{
			CarID:            id,
			Name:             rec.Meta.Name,
			LicensePlate:     rec.Meta.LicensePlate,
			OdometerKM:       rec.Meta.OdometerKM,
			FuelEntries:      len(rec.Fuel),
			MaintenanceTypes: len(rec.Maintenance),
		})
	}
	return summaries
}

// VehicleStats is the derived read view over one vehicle.
type VehicleStats struct {
	AvgLPer100KM     *float64           `json:"avg_l_per_100km"`
	LastFill         *vehicle.FuelEntry `json:"last_fill"`
	FillCount        int                `json:"fill_count"`
	TankCapacityL    *float64           `json:"tank_capacity_l"`
	EstimatedRangeKM *float64           `json:"estimated_range_km"`
	OdometerKM       *float64           `json:"odometer_km"`
}

// Stats computes consumption, last fill and estimated range for one vehicle.
func (s *Service) Stats(carID string) (*VehicleStats, error) {
	rec, err := s.Vehicle(carID)
	if err != nil {
		return nil, err
	}

	summary := stats.Fuel(rec.Fuel)
	return &VehicleStats{
		AvgLPer100KM:     summary.AvgLPer100KM,
		LastFill:         summary.Last,
		FillCount:        summary.FillCount,
		TankCapacityL:    rec.Meta.TankCapacityL,
		EstimatedRangeKM: stats.EstimatedRange(rec.Meta.TankCapacityL, summary.AvgLPer100KM),
		OdometerKM:       rec.Meta.OdometerKM,
	}, nil
}

// MaintenanceDue evaluates the due rule for every type that has either a
// configured rule or logged history.
func (s *Service) MaintenanceDue(carID string) (map[string]stats.DueStatus, error) {
	rec, err := s.Vehicle(carID)
	if err != nil {
		return nil, err
	}

	types := make(map[string]struct{})
	for typ := range rec.Meta.MaintenanceDefaults {
		types[typ] = struct{}{}
	}
	for typ := range rec.Maintenance {
		types[typ] = struct{}{}
	}

	now := s.now()
	due := make(map[string]stats.DueStatus, len(types))
	for typ := range types {
		due[typ] = stats.MaintenanceDue(rec.Meta, typ, rec.Maintenance[typ], rec.Meta.OdometerKM, now)
	}
	return due, nil
}
