// internal/domain/vehicle/dto.go
package vehicle

import "encoding/json"

// OptionalFloat distinguishes an omitted JSON field from an explicit null.
// Omitted leaves Set false; "price_total": null arrives with Set true and a
// nil Value, which clears the stored price.
type OptionalFloat struct {
	Set   bool
	Value *float64
}

func (o *OptionalFloat) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	o.Value = &f
	return nil
}

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// RegisterRequest captures the configuration-time vehicle registration.
type RegisterRequest struct {
	CarID         string   `json:"car_id" binding:"required"`
	Name          string   `json:"name" binding:"required"`
	LicensePlate  string   `json:"license_plate"`
	TankCapacityL *float64 `json:"tank_capacity_l"`
}

// LogFuelRequest is the payload for the log-fuel command.
type LogFuelRequest struct {
	OdometerKM *float64 `json:"odometer_km" binding:"required"`
	Liters     *float64 `json:"liters" binding:"required"`
	PriceTotal *float64 `json:"price_total"`
}

// LogMaintenanceRequest is the payload for the log-maintenance command.
// Date is an optional "YYYY-MM-DD" civil date on the local calendar.
type LogMaintenanceRequest struct {
	Type       string   `json:"type" binding:"required"`
	OdometerKM *float64 `json:"odometer_km" binding:"required"`
	Note       string   `json:"note"`
	Date       *string  `json:"date"`
}

// UpdateFuelRequest patches the fuel entry identified by TS. Omitted fields
// are left as-is.
type UpdateFuelRequest struct {
	TS         string        `json:"ts" binding:"required"`
	OdometerKM *float64      `json:"odometer_km"`
	Liters     *float64      `json:"liters"`
	PriceTotal OptionalFloat `json:"price_total"`
}

// UpdateMaintenanceRequest patches the maintenance entry identified by
// Type + TS. A Date change rewrites the entry timestamp.
type UpdateMaintenanceRequest struct {
	Type       string   `json:"type" binding:"required"`
	TS         string   `json:"ts" binding:"required"`
	OdometerKM *float64 `json:"odometer_km"`
	Note       *string  `json:"note"`
	Date       *string  `json:"date"`
}

// StageRequest patches the UI staging fields of a record. Nil fields are
// left untouched; MaintDate supports clearing via empty string.
type StageRequest struct {
	OdometerKM *float64 `json:"odometer_km"`
	Liters     *float64 `json:"liters"`
	PriceTotal *float64 `json:"price_total"`
	Note       *string  `json:"note"`
	MaintType  *string  `json:"maint_type"`
	MaintDate  *string  `json:"maint_date"`
}

// TankCapacityRequest updates the configured tank capacity.
type TankCapacityRequest struct {
	TankCapacityL *float64 `json:"tank_capacity_l" binding:"required"`
}

// Summary is the list-view projection of one vehicle.
type Summary struct {
	CarID            string   `json:"car_id"`
	Name             string   `json:"name"`
	LicensePlate     *string  `json:"license_plate"`
	OdometerKM       *float64 `json:"odometer_km"`
	FuelEntries      int      `json:"fuel_entries"`
	MaintenanceTypes int      `json:"maintenance_types"`
}
