// internal/domain/vehicle/entity.go
package vehicle

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Default maintenance types seeded into every new vehicle record. The key is
// the maintenance-type identifier used throughout the logs; the set is
// open-ended, callers may log under any type string.
const (
	MaintTypeOil    = "oil"
	MaintTypeTires  = "tires"
	MaintTypeBrakes = "brakes"
)

// Rule is the maintenance-due interval configuration for one maintenance type.
// Either interval may be absent; an absent interval disables that check.
type Rule struct {
	Label        string   `json:"label"`
	IntervalKM   *float64 `json:"interval_km,omitempty"`
	IntervalDays *int     `json:"interval_days,omitempty"`
}

// FuelEntry is a single fill-up. The timestamp is the identity key for
// update/delete lookups; ID is a ULID added on append so callers have a stable
// identifier even when two entries collide on timestamp.
type FuelEntry struct {
	ID         string   `json:"id,omitempty"`
	TS         string   `json:"ts"`
	OdometerKM float64  `json:"odometer_km"`
	Liters     float64  `json:"liters"`
	PriceTotal *float64 `json:"price_total"`
}

// MaintenanceEntry is a single service event under one maintenance type.
type MaintenanceEntry struct {
	ID         string  `json:"id,omitempty"`
	TS         string  `json:"ts"`
	OdometerKM float64 `json:"odometer_km"`
	Note       string  `json:"note"`
}

// Meta holds per-vehicle configuration and the current-known odometer value.
// OdometerKM tracks the most recent effective entry; it is never recomputed
// after a deletion.
type Meta struct {
	Name                string          `json:"name,omitempty"`
	LicensePlate        *string         `json:"license_plate,omitempty"`
	TankCapacityL       *float64        `json:"tank_capacity_l"`
	OdometerKM          *float64        `json:"odometer_km,omitempty"`
	MaintenanceDefaults map[string]Rule `json:"maintenance_defaults,omitempty"`
}

// UI holds staging values used to prefill a pending entry before submit.
// Persisted alongside the record but carries no engine semantics.
type UI struct {
	OdometerKM *float64 `json:"odometer_km"`
	Liters     float64  `json:"liters"`
	PriceTotal float64  `json:"price_total"`
	Note       string   `json:"note"`
	MaintType  string   `json:"maint_type"`
	MaintDate  *string  `json:"maint_date"`
}

// Record is the full persisted state for one tracked vehicle. Fuel and each
// maintenance log are not kept sorted at rest; consumers sort by timestamp.
type Record struct {
	Fuel        FuelLog             `json:"fuel"`
	Maintenance map[string]MaintLog `json:"maintenance"`
	Meta        Meta                `json:"meta"`
	UI          UI                  `json:"ui"`
}

// Snapshot is the entire state tree across all vehicles, persisted whole.
type Snapshot struct {
	Cars map[string]*Record `json:"cars"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{Cars: make(map[string]*Record)}
}

// Ensure returns the record for carID, creating a fully-defaulted one the
// first time the identifier is seen.
func (s *Snapshot) Ensure(carID string) *Record {
	if s.Cars == nil {
		s.Cars = make(map[string]*Record)
	}
	rec, ok := s.Cars[carID]
	if !ok {
		rec = NewRecord()
		s.Cars[carID] = rec
	}
	rec.EnsureDefaults()
	return rec
}

// NewRecord builds an empty vehicle record with all defaults applied.
func NewRecord() *Record {
	rec := &Record{
		Fuel:        FuelLog{},
		Maintenance: make(map[string]MaintLog),
	}
	rec.EnsureDefaults()
	return rec
}

// EnsureDefaults fills zero-valued fields on records loaded from older
// snapshots: the maintenance map, default interval rules and UI staging
// values. Existing values are never overwritten.
func (r *Record) EnsureDefaults() {
	if r.Fuel == nil {
		r.Fuel = FuelLog{}
	}
	if r.Maintenance == nil {
		r.Maintenance = make(map[string]MaintLog)
	}
	if r.Meta.MaintenanceDefaults == nil {
		r.Meta.MaintenanceDefaults = DefaultMaintenanceRules()
	}
	if r.UI.OdometerKM == nil && r.Meta.OdometerKM != nil {
		km := *r.Meta.OdometerKM
		r.UI.OdometerKM = &km
	}
	if r.UI.MaintType == "" {
		r.UI.MaintType = MaintTypeOil
	}
}

// DefaultMaintenanceRules returns a fresh copy of the built-in interval rules.
func DefaultMaintenanceRules() map[string]Rule {
	oilKM, tiresKM, brakesKM := 15000.0, 30000.0, 60000.0
	year, twoYears := 365, 730
	return map[string]Rule{
		MaintTypeOil:    {Label: "Olie", IntervalKM: &oilKM, IntervalDays: &year},
		MaintTypeTires:  {Label: "Banden wissel", IntervalKM: &tiresKM, IntervalDays: &year},
		MaintTypeBrakes: {Label: "Remmen", IntervalKM: &brakesKM, IntervalDays: &twoYears},
	}
}

// SetOdometer updates the current-known odometer and the staged UI value.
func (r *Record) SetOdometer(km float64) {
	v := km
	r.Meta.OdometerKM = &v
	ui := km
	r.UI.OdometerKM = &ui
}

// Clone returns a deep copy, safe to hand to readers outside the store lock.
func (r *Record) Clone() *Record {
	cp := &Record{
		Fuel:        append(FuelLog(nil), r.Fuel...),
		Maintenance: make(map[string]MaintLog, len(r.Maintenance)),
		Meta:        r.Meta,
		UI:          r.UI,
	}
	for typ, log := range r.Maintenance {
		cp.Maintenance[typ] = append(MaintLog(nil), log...)
	}
	cp.Meta.LicensePlate = clonePtr(r.Meta.LicensePlate)
	cp.Meta.TankCapacityL = clonePtr(r.Meta.TankCapacityL)
	cp.Meta.OdometerKM = clonePtr(r.Meta.OdometerKM)
	if r.Meta.MaintenanceDefaults != nil {
		cp.Meta.MaintenanceDefaults = make(map[string]Rule, len(r.Meta.MaintenanceDefaults))
		for typ, rule := range r.Meta.MaintenanceDefaults {
			rule.IntervalKM = clonePtr(rule.IntervalKM)
			rule.IntervalDays = clonePtr(rule.IntervalDays)
			cp.Meta.MaintenanceDefaults[typ] = rule
		}
	}
	cp.UI.OdometerKM = clonePtr(r.UI.OdometerKM)
	cp.UI.MaintDate = clonePtr(r.UI.MaintDate)
	for i := range cp.Fuel {
		cp.Fuel[i].PriceTotal = clonePtr(cp.Fuel[i].PriceTotal)
	}
	return cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// NormalizeLicensePlate strips hyphens, uppercases and trims. Empty input
// normalizes to nil.
func NormalizeLicensePlate(value string) *string {
	v := strings.TrimSpace(strings.ToUpper(strings.ReplaceAll(value, "-", "")))
	if v == "" {
		return nil
	}
	return &v
}

// NewTimestamp formats t as the canonical stored timestamp: RFC 3339 with
// nanoseconds, UTC. Lexical order of stamps produced here matches
// chronological order.
func NewTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp accepts stored stamps in either Z or numeric-offset form.
func ParseTimestamp(ts string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, ts)
}

// NewEntryID returns a fresh ULID for a log entry.
func NewEntryID() string {
	return ulid.Make().String()
}
