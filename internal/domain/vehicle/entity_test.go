package vehicle

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeLicensePlate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ab-12-cd", "AB12CD"},
		{" AB-12-CD ", "AB12CD"},
		{"ab12cd", "AB12CD"},
		{"", ""},
		{"  -- ", ""},
	}

	for _, tc := range tests {
		got := NormalizeLicensePlate(tc.in)
		if tc.want == "" {
			if got != nil {
				t.Errorf("NormalizeLicensePlate(%q) = %q, want nil", tc.in, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Errorf("NormalizeLicensePlate(%q) = %v, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEnsureDefaultsFillsMissingPieces(t *testing.T) {
	km := 12000.0
	rec := &Record{Meta: Meta{OdometerKM: &km}}
	rec.EnsureDefaults()

	if rec.Maintenance == nil {
		t.Fatal("maintenance map must be created")
	}
	if len(rec.Meta.MaintenanceDefaults) != 3 {
		t.Fatalf("defaults = %d, want 3", len(rec.Meta.MaintenanceDefaults))
	}
	if rec.UI.OdometerKM == nil || *rec.UI.OdometerKM != 12000 {
		t.Fatal("ui odometer must be seeded from meta")
	}
	if rec.UI.MaintType != MaintTypeOil {
		t.Fatalf("ui maint type = %q", rec.UI.MaintType)
	}
}

func TestEnsureDefaultsKeepsExistingRules(t *testing.T) {
	custom := map[string]Rule{"oil": {Label: "Custom"}}
	rec := &Record{Meta: Meta{MaintenanceDefaults: custom}}
	rec.EnsureDefaults()

	if rec.Meta.MaintenanceDefaults["oil"].Label != "Custom" {
		t.Fatal("existing rules must not be overwritten")
	}
}

func TestCloneIsDeep(t *testing.T) {
	price := 80.0
	rec := NewRecord()
	rec.Fuel.Append(FuelEntry{TS: "2025-01-01T10:00:00Z", PriceTotal: &price})
	rec.SetOdometer(1000)

	cp := rec.Clone()
	*cp.Fuel[0].PriceTotal = 1
	*cp.Meta.OdometerKM = 1
	cp.Maintenance["oil"] = MaintLog{{TS: "x"}}

	if *rec.Fuel[0].PriceTotal != 80 {
		t.Fatal("clone shares fuel price pointer")
	}
	if *rec.Meta.OdometerKM != 1000 {
		t.Fatal("clone shares odometer pointer")
	}
	if len(rec.Maintenance["oil"]) != 0 {
		t.Fatal("clone shares maintenance map")
	}
}

func TestTimestampRoundTripAndOrder(t *testing.T) {
	earlier := NewTimestamp(time.Date(2025, 1, 1, 9, 59, 59, 999999999, time.UTC))
	later := NewTimestamp(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))

	if !(earlier < later) {
		t.Fatalf("lexical order broken: %q vs %q", earlier, later)
	}

	parsed, err := ParseTimestamp(later)
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if !parsed.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("parsed = %v", parsed)
	}
}

func TestOptionalFloatUnmarshal(t *testing.T) {
	var req UpdateFuelRequest
	if err := json.Unmarshal([]byte(`{"ts":"x"}`), &req); err != nil {
		t.Fatal(err)
	}
	if req.PriceTotal.Set {
		t.Fatal("omitted field must not be marked set")
	}

	if err := json.Unmarshal([]byte(`{"ts":"x","price_total":null}`), &req); err != nil {
		t.Fatal(err)
	}
	if !req.PriceTotal.Set || req.PriceTotal.Value != nil {
		t.Fatal("explicit null must be set with nil value")
	}

	if err := json.Unmarshal([]byte(`{"ts":"x","price_total":12.5}`), &req); err != nil {
		t.Fatal(err)
	}
	if !req.PriceTotal.Set || req.PriceTotal.Value == nil || *req.PriceTotal.Value != 12.5 {
		t.Fatalf("price = %+v", req.PriceTotal)
	}
}
