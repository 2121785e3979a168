// internal/service/stats/stats.go
package stats

import (
	"math"
	"time"

	"carlog-service/internal/domain/vehicle"
)

// FuelSummary is the derived consumption view over one fuel log.
type FuelSummary struct {
	AvgLPer100KM *float64           `json:"avg_l_per_100km"`
	Last         *vehicle.FuelEntry `json:"last"`
	FillCount    int                `json:"fill_count"`
}

// Fuel computes the consumption average and last-fill summary. The average
// needs at least two entries; pairs with a non-positive odometer delta are
// data-entry errors or resets and contribute nothing to either total. The
// last fill is reported independently of the two-entry minimum.
func Fuel(log vehicle.FuelLog) FuelSummary {
	summary := FuelSummary{FillCount: len(log), Last: log.Latest()}
	if len(log) < 2 {
		return summary
	}

	sorted := log.SortedByTimestamp()
	var totalL, totalKM float64
	for i := 1; i < len(sorted); i++ {
		dk := sorted[i].OdometerKM - sorted[i-1].OdometerKM
		if dk <= 0 {
			continue
		}
		totalKM += dk
		totalL += sorted[i].Liters
	}

	if totalKM > 0 {
		avg := totalL / totalKM * 100.0
		summary.AvgLPer100KM = &avg
	}
	return summary
}

// EstimatedRange returns the full-tank range in whole kilometers, or nil when
// either input is unknown or the average is non-positive.
func EstimatedRange(tankCapacityL, avgLPer100KM *float64) *float64 {
	if tankCapacityL == nil || avgLPer100KM == nil || *avgLPer100KM <= 0 {
		return nil
	}
	rng := math.Round(*tankCapacityL * 100.0 / *avgLPer100KM)
	return &rng
}

// DueStatus is the maintenance-due view for one maintenance type.
type DueStatus struct {
	IsDue        bool     `json:"is_due"`
	KMRemaining  *float64 `json:"km_remaining"`
	DueDate      *string  `json:"due_date"`
	LastDoneKM   *float64 `json:"last_done_km"`
	LastDoneTS   *string  `json:"last_done_ts"`
	Label        string   `json:"label"`
	IntervalKM   *float64 `json:"interval_km"`
	IntervalDays *int     `json:"interval_days"`
}

// MaintenanceDue evaluates the due rule for one type: distance-based when a
// distance interval and the current odometer are known, time-based when a day
// interval is configured. Either check alone marks the type due. A type with
// no logged history is reported as not due.
func MaintenanceDue(meta vehicle.Meta, maintType string, log vehicle.MaintLog, odometerKM *float64, now time.Time) DueStatus {
	rule := meta.MaintenanceDefaults[maintType]
	due := DueStatus{
		Label:        rule.Label,
		IntervalKM:   rule.IntervalKM,
		IntervalDays: rule.IntervalDays,
	}
	if due.Label == "" {
		due.Label = maintType
	}

	last := log.Latest()
	if last == nil {
		return due
	}
	due.LastDoneKM = &last.OdometerKM
	due.LastDoneTS = &last.TS

	if rule.IntervalKM != nil && odometerKM != nil {
		dueAtKM := last.OdometerKM + *rule.IntervalKM
		remaining := math.Max(0, dueAtKM-*odometerKM)
		due.KMRemaining = &remaining
		if *odometerKM >= dueAtKM {
			due.IsDue = true
		}
	}

	if rule.IntervalDays != nil {
		if lastAt, err := vehicle.ParseTimestamp(last.TS); err == nil {
			dueAt := lastAt.Add(time.Duration(*rule.IntervalDays) * 24 * time.Hour)
			dueDate := dueAt.UTC().Format("2006-01-02")
			due.DueDate = &dueDate
			if !now.Before(dueAt) {
				due.IsDue = true
			}
		}
	}

	return due
}
