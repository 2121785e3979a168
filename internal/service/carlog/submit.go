// internal/service/carlog/submit.go
package carlog

import (
	"context"
	"fmt"
	"math"

	"carlog-service/internal/domain/vehicle"
	xerrors "carlog-service/internal/pkg/errors"
	"carlog-service/internal/status"

	"go.uber.org/zap"
)

// Duplicate-fill tolerance: odometer and liters both within this of the
// previous fill means the submit is a double click, not a new fill.
const duplicateEpsilon = 1e-4

// Submitter turns the staged UI fields into real log entries. It owns the
// per-vehicle runtime status: every submit walks saving -> saved, or lands
// on an error status describing what was rejected. Validation failures are
// reported through the status channel and as ErrInvalidInput.
type Submitter struct {
	svc    *Service
	status *status.Tracker
	logger *zap.Logger
}

func NewSubmitter(svc *Service, tracker *status.Tracker, logger *zap.Logger) *Submitter {
	return &Submitter{svc: svc, status: tracker, logger: logger}
}

func (s *Submitter) reject(carID, message string) error {
	s.status.Set(carID, status.StateError, message)
	s.logger.Warn("submit rejected", zap.String("car_id", carID), zap.String("reason", message))
	return fmt.Errorf("%w: %s", xerrors.ErrInvalidInput, message)
}

// SubmitFuel validates the staged fuel fields and logs a fill-up.
func (s *Submitter) SubmitFuel(ctx context.Context, carID string) error {
	rec := s.svc.state.Car(carID)
	if rec == nil {
		rec = vehicle.NewRecord()
	}

	if rec.UI.OdometerKM == nil {
		return s.reject(carID, "odometer reading missing")
	}
	km := *rec.UI.OdometerKM
	liters := rec.UI.Liters
	if liters <= 0 {
		return s.reject(carID, "liters must be greater than zero")
	}
	if last := rec.Fuel.Latest(); last != nil {
		if math.Abs(km-last.OdometerKM) < duplicateEpsilon || math.Abs(liters-last.Liters) < duplicateEpsilon {
			return s.reject(carID, "not saved: odometer and liters must both differ from the previous fill")
		}
	}

	s.status.Set(carID, status.StateSaving, "saving fuel entry")

	req := vehicle.LogFuelRequest{OdometerKM: &km, Liters: &liters}
	if rec.UI.PriceTotal > 0 {
		price := rec.UI.PriceTotal
		req.PriceTotal = &price
	}
	if err := s.svc.LogFuel(ctx, carID, req); err != nil {
		s.status.Set(carID, status.StateError, "save failed: "+err.Error())
		return err
	}

	// Odometer stays staged for the next entry; the per-fill fields reset.
	if err := s.clearStaged(ctx, carID, func(ui *vehicle.UI) {
		ui.Liters = 0
		ui.PriceTotal = 0
	}); err != nil {
		s.logger.Warn("failed to reset staged fuel fields", zap.String("car_id", carID), zap.Error(err))
	}

	s.status.Set(carID, status.StateSaved, "fuel entry saved")
	return nil
}

// SubmitMaintenance validates the staged maintenance fields and logs a
// service event of the staged type.
func (s *Submitter) SubmitMaintenance(ctx context.Context, carID string) error {
	rec := s.svc.state.Car(carID)
	if rec == nil {
		rec = vehicle.NewRecord()
	}

	if rec.UI.OdometerKM == nil {
		return s.reject(carID, "odometer reading missing")
	}
	km := *rec.UI.OdometerKM

	maintType := rec.UI.MaintType
	if maintType == "" {
		maintType = vehicle.MaintTypeOil
	}

	s.status.Set(carID, status.StateSaving, "saving maintenance entry")

	req := vehicle.LogMaintenanceRequest{
		Type:       maintType,
		OdometerKM: &km,
		Note:       rec.UI.Note,
		Date:       rec.UI.MaintDate,
	}
	if err := s.svc.LogMaintenance(ctx, carID, req); err != nil {
		s.status.Set(carID, status.StateError, "save failed: "+err.Error())
		return err
	}

	if err := s.clearStaged(ctx, carID, func(ui *vehicle.UI) {
		ui.Note = ""
		ui.MaintDate = nil
	}); err != nil {
		s.logger.Warn("failed to reset staged maintenance fields", zap.String("car_id", carID), zap.Error(err))
	}

	s.status.Set(carID, status.StateSaved, "maintenance entry saved")
	return nil
}

// clearStaged rewrites UI staging fields and persists without broadcasting
// a ui change; the saved status update that follows already wakes clients.
func (s *Submitter) clearStaged(ctx context.Context, carID string, apply func(*vehicle.UI)) error {
	return s.svc.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(carID)
		apply(&car.UI)
		return s.svc.store.Save(ctx, snap)
	})
}
