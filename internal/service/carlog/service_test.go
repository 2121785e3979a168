package carlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"carlog-service/internal/domain/vehicle"
	wstypes "carlog-service/internal/domain/websocket"
	xerrors "carlog-service/internal/pkg/errors"
	"carlog-service/internal/state"

	"go.uber.org/zap"
)

type fakeStore struct {
	saves   int
	saveErr error
}

func (f *fakeStore) Load(ctx context.Context) (*vehicle.Snapshot, error) {
	return vehicle.NewSnapshot(), nil
}

func (f *fakeStore) Save(ctx context.Context, snap *vehicle.Snapshot) error {
	f.saves++
	return f.saveErr
}

type fakePublisher struct {
	events []wstypes.ChangeKind
}

func (f *fakePublisher) PublishVehicleUpdate(vehicleID string, kind wstypes.ChangeKind) {
	f.events = append(f.events, kind)
}

type fixture struct {
	svc    *Service
	state  *state.Store
	store  *fakeStore
	events *fakePublisher
}

// newFixture wires a service against in-memory fakes with a frozen clock:
// 2025-06-15 10:00 UTC, local timezone UTC+2.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := state.NewStore(nil)
	fs := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewService(st, fs, pub, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	}
	svc.local = time.FixedZone("UTC+2", 2*3600)
	return &fixture{svc: svc, state: st, store: fs, events: pub}
}

func (f *fixture) lastEvent(t *testing.T) wstypes.ChangeKind {
	t.Helper()
	if len(f.events.events) == 0 {
		t.Fatal("no events published")
	}
	return f.events.events[len(f.events.events)-1]
}

func ptr[T any](v T) *T { return &v }

func TestLogFuelAppendsAndUpdatesOdometer(t *testing.T) {
	f := newFixture(t)

	err := f.svc.LogFuel(context.Background(), "car1", vehicle.LogFuelRequest{
		OdometerKM: ptr(12345.0),
		Liters:     ptr(41.5),
		PriceTotal: ptr(80.25),
	})
	if err != nil {
		t.Fatalf("LogFuel: %v", err)
	}

	rec := f.state.Car("car1")
	if rec == nil || len(rec.Fuel) != 1 {
		t.Fatalf("expected one fuel entry, got %+v", rec)
	}
	entry := rec.Fuel[0]
	if entry.ID == "" {
		t.Fatal("expected a generated entry id")
	}
	if entry.TS != "2025-06-15T10:00:00Z" {
		t.Fatalf("ts = %q", entry.TS)
	}
	if entry.PriceTotal == nil || *entry.PriceTotal != 80.25 {
		t.Fatalf("price = %v", entry.PriceTotal)
	}
	if rec.Meta.OdometerKM == nil || *rec.Meta.OdometerKM != 12345 {
		t.Fatalf("meta odometer = %v", rec.Meta.OdometerKM)
	}
	if rec.UI.OdometerKM == nil || *rec.UI.OdometerKM != 12345 {
		t.Fatalf("ui odometer = %v", rec.UI.OdometerKM)
	}
	if f.store.saves != 1 {
		t.Fatalf("saves = %d, want 1", f.store.saves)
	}
	if f.lastEvent(t) != wstypes.ChangeFuel {
		t.Fatalf("event = %v", f.lastEvent(t))
	}
}

func TestLogFuelOdometerFollowsEvenBackwards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.LogFuel(ctx, "car1", vehicle.LogFuelRequest{OdometerKM: ptr(1000.0), Liters: ptr(40.0)}))
	must(t, f.svc.LogFuel(ctx, "car1", vehicle.LogFuelRequest{OdometerKM: ptr(500.0), Liters: ptr(30.0)}))

	rec := f.state.Car("car1")
	if *rec.Meta.OdometerKM != 500 {
		t.Fatalf("odometer = %v, want the latest fill value regardless of direction", *rec.Meta.OdometerKM)
	}
}

func TestLogMaintenanceFutureDateUpdatesOdometer(t *testing.T) {
	f := newFixture(t)

	err := f.svc.LogMaintenance(context.Background(), "car1", vehicle.LogMaintenanceRequest{
		Type:       vehicle.MaintTypeOil,
		OdometerKM: ptr(20000.0),
		Note:       "scheduled",
		Date:       ptr("2025-06-20"),
	})
	if err != nil {
		t.Fatalf("LogMaintenance: %v", err)
	}

	rec := f.state.Car("car1")
	log := rec.Maintenance[vehicle.MaintTypeOil]
	if len(log) != 1 {
		t.Fatalf("expected one entry, got %d", len(log))
	}
	// Local noon in UTC+2 is 10:00 UTC.
	if log[0].TS != "2025-06-20T10:00:00Z" {
		t.Fatalf("ts = %q, want local-noon UTC", log[0].TS)
	}
	if rec.Meta.OdometerKM == nil || *rec.Meta.OdometerKM != 20000 {
		t.Fatalf("odometer = %v, want updated for a non-past date", rec.Meta.OdometerKM)
	}
}

func TestLogMaintenancePastDateKeepsOdometer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.LogFuel(ctx, "car1", vehicle.LogFuelRequest{OdometerKM: ptr(21000.0), Liters: ptr(40.0)}))
	must(t, f.svc.LogMaintenance(ctx, "car1", vehicle.LogMaintenanceRequest{
		Type:       vehicle.MaintTypeTires,
		OdometerKM: ptr(18000.0),
		Date:       ptr("2025-06-10"),
	}))

	rec := f.state.Car("car1")
	log := rec.Maintenance[vehicle.MaintTypeTires]
	if log[0].TS != "2025-06-10T10:00:00Z" {
		t.Fatalf("ts = %q", log[0].TS)
	}
	if *rec.Meta.OdometerKM != 21000 {
		t.Fatalf("odometer = %v, a historical entry must not move it", *rec.Meta.OdometerKM)
	}
}

func TestLogMaintenanceBadDate(t *testing.T) {
	f := newFixture(t)

	err := f.svc.LogMaintenance(context.Background(), "car1", vehicle.LogMaintenanceRequest{
		Type:       vehicle.MaintTypeOil,
		OdometerKM: ptr(1000.0),
		Date:       ptr("20-06-2025"),
	})
	if !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if f.store.saves != 0 {
		t.Fatal("nothing may be saved on a rejected date")
	}
}

func TestDeleteFuelLatestPicksNewestTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedFuel("car1",
		vehicle.FuelEntry{TS: "2025-01-02T10:00:00Z", OdometerKM: 200},
		vehicle.FuelEntry{TS: "2025-01-03T10:00:00Z", OdometerKM: 300},
		vehicle.FuelEntry{TS: "2025-01-01T10:00:00Z", OdometerKM: 100},
	)

	must(t, f.svc.DeleteFuelEntry(ctx, "car1", nil))

	rec := f.state.Car("car1")
	if len(rec.Fuel) != 2 {
		t.Fatalf("entries = %d, want 2", len(rec.Fuel))
	}
	for _, e := range rec.Fuel {
		if e.TS == "2025-01-03T10:00:00Z" {
			t.Fatal("latest entry should be gone")
		}
	}
}

func TestDeleteFuelMissIsSilentNoop(t *testing.T) {
	f := newFixture(t)

	must(t, f.svc.DeleteFuelEntry(context.Background(), "car1", ptr("2025-01-01T00:00:00Z")))

	if f.store.saves != 0 {
		t.Fatalf("saves = %d, a miss must not persist", f.store.saves)
	}
	if len(f.events.events) != 0 {
		t.Fatal("a miss must not broadcast")
	}
}

func TestDeleteFuelDoesNotRecomputeOdometer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.LogFuel(ctx, "car1", vehicle.LogFuelRequest{OdometerKM: ptr(1000.0), Liters: ptr(40.0)}))
	must(t, f.svc.DeleteFuelEntry(ctx, "car1", nil))

	rec := f.state.Car("car1")
	if len(rec.Fuel) != 0 {
		t.Fatal("entry should be deleted")
	}
	if rec.Meta.OdometerKM == nil || *rec.Meta.OdometerKM != 1000 {
		t.Fatalf("odometer = %v, deletion must not recompute it", rec.Meta.OdometerKM)
	}
}

func TestUpdateFuelExplicitNullClearsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.LogFuel(ctx, "car1", vehicle.LogFuelRequest{
		OdometerKM: ptr(1000.0), Liters: ptr(40.0), PriceTotal: ptr(75.0),
	}))
	ts := f.state.Car("car1").Fuel[0].TS

	must(t, f.svc.UpdateFuelEntry(ctx, "car1", vehicle.UpdateFuelRequest{
		TS:         ts,
		Liters:     ptr(42.0),
		PriceTotal: vehicle.OptionalFloat{Set: true, Value: nil},
	}))

	entry := f.state.Car("car1").Fuel[0]
	if entry.Liters != 42 {
		t.Fatalf("liters = %v", entry.Liters)
	}
	if entry.PriceTotal != nil {
		t.Fatalf("price = %v, explicit null must clear it", *entry.PriceTotal)
	}
	if entry.OdometerKM != 1000 {
		t.Fatalf("odometer = %v, omitted field must stay", entry.OdometerKM)
	}
}

func TestUpdateFuelOdometerRefreshesMeta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.LogFuel(ctx, "car1", vehicle.LogFuelRequest{OdometerKM: ptr(1000.0), Liters: ptr(40.0)}))
	ts := f.state.Car("car1").Fuel[0].TS

	must(t, f.svc.UpdateFuelEntry(ctx, "car1", vehicle.UpdateFuelRequest{
		TS:         ts,
		OdometerKM: ptr(1010.0),
	}))

	rec := f.state.Car("car1")
	if *rec.Meta.OdometerKM != 1010 {
		t.Fatalf("meta odometer = %v, want 1010", *rec.Meta.OdometerKM)
	}
}

func TestUpdateFuelMissIsSilentNoop(t *testing.T) {
	f := newFixture(t)

	must(t, f.svc.UpdateFuelEntry(context.Background(), "car1", vehicle.UpdateFuelRequest{
		TS:     "2025-01-01T00:00:00Z",
		Liters: ptr(10.0),
	}))
	if f.store.saves != 0 || len(f.events.events) != 0 {
		t.Fatal("a miss must neither persist nor broadcast")
	}
}

func TestUpdateMaintenanceDateRewritesTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.LogMaintenance(ctx, "car1", vehicle.LogMaintenanceRequest{
		Type:       vehicle.MaintTypeOil,
		OdometerKM: ptr(15000.0),
	}))
	ts := f.state.Car("car1").Maintenance[vehicle.MaintTypeOil][0].TS

	must(t, f.svc.UpdateMaintenanceEntry(ctx, "car1", vehicle.UpdateMaintenanceRequest{
		Type: vehicle.MaintTypeOil,
		TS:   ts,
		Note: ptr("corrected"),
		Date: ptr("2025-06-01"),
	}))

	log := f.state.Car("car1").Maintenance[vehicle.MaintTypeOil]
	if log[0].TS != "2025-06-01T10:00:00Z" {
		t.Fatalf("ts = %q, want rewritten to local noon of the new date", log[0].TS)
	}
	if log[0].Note != "corrected" {
		t.Fatalf("note = %q", log[0].Note)
	}
}

func TestUpdateMaintenancePastDateSkipsOdometer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.LogFuel(ctx, "car1", vehicle.LogFuelRequest{OdometerKM: ptr(30000.0), Liters: ptr(40.0)}))
	must(t, f.svc.LogMaintenance(ctx, "car1", vehicle.LogMaintenanceRequest{
		Type:       vehicle.MaintTypeOil,
		OdometerKM: ptr(29000.0),
		Date:       ptr("2025-06-01"),
	}))
	ts := f.state.Car("car1").Maintenance[vehicle.MaintTypeOil][0].TS

	must(t, f.svc.UpdateMaintenanceEntry(ctx, "car1", vehicle.UpdateMaintenanceRequest{
		Type:       vehicle.MaintTypeOil,
		TS:         ts,
		OdometerKM: ptr(29500.0),
		Date:       ptr("2025-06-02"),
	}))

	rec := f.state.Car("car1")
	if rec.Maintenance[vehicle.MaintTypeOil][0].OdometerKM != 29500 {
		t.Fatal("entry odometer should be patched")
	}
	if *rec.Meta.OdometerKM != 30000 {
		t.Fatalf("meta odometer = %v, a past-dated correction must not move it", *rec.Meta.OdometerKM)
	}
}

func TestPersistFailureSurfacesWithoutRollback(t *testing.T) {
	f := newFixture(t)
	f.store.saveErr = errors.New("disk full")

	err := f.svc.LogFuel(context.Background(), "car1", vehicle.LogFuelRequest{
		OdometerKM: ptr(1000.0), Liters: ptr(40.0),
	})
	if err == nil {
		t.Fatal("expected the persist error")
	}

	rec := f.state.Car("car1")
	if rec == nil || len(rec.Fuel) != 1 {
		t.Fatal("in-memory mutation must survive a failed persist")
	}
	if len(f.events.events) != 0 {
		t.Fatal("a failed persist must not broadcast")
	}
}

func TestRegisterVehicle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.RegisterVehicle(ctx, vehicle.RegisterRequest{
		CarID:         "car1",
		Name:          "Family car",
		LicensePlate:  " ab-12-cd ",
		TankCapacityL: ptr(50.0),
	}))

	rec := f.state.Car("car1")
	if rec.Meta.Name != "Family car" {
		t.Fatalf("name = %q", rec.Meta.Name)
	}
	if rec.Meta.LicensePlate == nil || *rec.Meta.LicensePlate != "AB12CD" {
		t.Fatalf("plate = %v, want normalized", rec.Meta.LicensePlate)
	}
	if rec.Meta.TankCapacityL == nil || *rec.Meta.TankCapacityL != 50 {
		t.Fatalf("capacity = %v", rec.Meta.TankCapacityL)
	}
	if len(rec.Meta.MaintenanceDefaults) != 3 {
		t.Fatalf("defaults = %d, want the three built-in rules", len(rec.Meta.MaintenanceDefaults))
	}

	// Re-registration updates name and plate but keeps the tuned capacity.
	must(t, f.svc.RegisterVehicle(ctx, vehicle.RegisterRequest{
		CarID:         "car1",
		Name:          "Renamed",
		TankCapacityL: ptr(60.0),
	}))
	rec = f.state.Car("car1")
	if rec.Meta.Name != "Renamed" {
		t.Fatalf("name = %q", rec.Meta.Name)
	}
	if rec.Meta.LicensePlate != nil {
		t.Fatalf("plate = %v, want cleared", rec.Meta.LicensePlate)
	}
	if *rec.Meta.TankCapacityL != 50 {
		t.Fatalf("capacity = %v, want 50 kept", *rec.Meta.TankCapacityL)
	}
}

func TestStageClearsDateOnEmptyString(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.Stage(ctx, "car1", vehicle.StageRequest{
		OdometerKM: ptr(1000.0),
		MaintDate:  ptr("2025-06-20"),
	}))
	rec := f.state.Car("car1")
	if rec.UI.MaintDate == nil || *rec.UI.MaintDate != "2025-06-20" {
		t.Fatalf("maint_date = %v", rec.UI.MaintDate)
	}

	must(t, f.svc.Stage(ctx, "car1", vehicle.StageRequest{MaintDate: ptr("")}))
	rec = f.state.Car("car1")
	if rec.UI.MaintDate != nil {
		t.Fatalf("maint_date = %v, empty string must clear it", *rec.UI.MaintDate)
	}
	if rec.UI.OdometerKM == nil || *rec.UI.OdometerKM != 1000 {
		t.Fatal("unrelated staged fields must stay")
	}
}

func TestVehicleUnknown(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Vehicle("ghost"); !errors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStatsAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.RegisterVehicle(ctx, vehicle.RegisterRequest{
		CarID: "car1", Name: "Family car", TankCapacityL: ptr(50.0),
	}))
	must(t, f.svc.LogFuel(ctx, "car1", vehicle.LogFuelRequest{OdometerKM: ptr(1000.0), Liters: ptr(40.0)}))

	// Second fill 400km later on 32L: 8 L/100km, range 625.
	f.seedFuel("car1", vehicle.FuelEntry{TS: "2025-06-16T10:00:00Z", OdometerKM: 1400, Liters: 32})

	got, err := f.svc.Stats("car1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got.AvgLPer100KM == nil || *got.AvgLPer100KM != 8 {
		t.Fatalf("avg = %v", got.AvgLPer100KM)
	}
	if got.EstimatedRangeKM == nil || *got.EstimatedRangeKM != 625 {
		t.Fatalf("range = %v", got.EstimatedRangeKM)
	}
	if got.FillCount != 2 {
		t.Fatalf("fills = %d", got.FillCount)
	}

	list := f.svc.List()
	if len(list) != 1 || list[0].CarID != "car1" || list[0].FuelEntries != 2 {
		t.Fatalf("list = %+v", list)
	}
}

func TestMaintenanceDueCoversConfiguredAndLoggedTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	must(t, f.svc.LogMaintenance(ctx, "car1", vehicle.LogMaintenanceRequest{
		Type:       "timing-belt",
		OdometerKM: ptr(90000.0),
	}))

	due, err := f.svc.MaintenanceDue("car1")
	if err != nil {
		t.Fatalf("MaintenanceDue: %v", err)
	}
	for _, typ := range []string{vehicle.MaintTypeOil, vehicle.MaintTypeTires, vehicle.MaintTypeBrakes, "timing-belt"} {
		if _, ok := due[typ]; !ok {
			t.Fatalf("missing due status for %q", typ)
		}
	}
	if due["timing-belt"].IsDue {
		t.Fatal("a type without intervals must not be due")
	}
}

// seedFuel injects entries directly, bypassing command timestamps.
func (f *fixture) seedFuel(carID string, entries ...vehicle.FuelEntry) {
	_ = f.state.Update(func(snap *vehicle.Snapshot) error {
		car := snap.Ensure(carID)
		for _, e := range entries {
			car.Fuel.Append(e)
		}
		return nil
	})
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
