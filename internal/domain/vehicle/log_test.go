package vehicle

import "testing"

func TestFuelLogDeleteLatestPreservesOrder(t *testing.T) {
	log := FuelLog{
		{TS: "2025-01-02T10:00:00Z", OdometerKM: 200},
		{TS: "2025-01-03T10:00:00Z", OdometerKM: 300},
		{TS: "2025-01-01T10:00:00Z", OdometerKM: 100},
	}

	if !log.DeleteLatest() {
		t.Fatal("expected a deletion")
	}
	if len(log) != 2 {
		t.Fatalf("len = %d, want 2", len(log))
	}
	// The survivors keep their physical (insertion) order.
	if log[0].TS != "2025-01-02T10:00:00Z" || log[1].TS != "2025-01-01T10:00:00Z" {
		t.Fatalf("order disturbed: %v, %v", log[0].TS, log[1].TS)
	}
}

func TestFuelLogDeleteLatestTieRemovesLastInserted(t *testing.T) {
	log := FuelLog{
		{TS: "2025-01-01T10:00:00Z", OdometerKM: 100},
		{TS: "2025-01-01T10:00:00Z", OdometerKM: 200},
	}

	log.DeleteLatest()
	if len(log) != 1 || log[0].OdometerKM != 100 {
		t.Fatalf("tie-break should drop the later insertion, got %+v", log)
	}
}

func TestFuelLogDeleteEmpty(t *testing.T) {
	var log FuelLog
	if log.DeleteLatest() {
		t.Fatal("empty log must report no deletion")
	}
	if log.DeleteByTimestamp("2025-01-01T10:00:00Z") {
		t.Fatal("miss must report no deletion")
	}
}

func TestFuelLogUpdateByTimestampPatchesFirstMatch(t *testing.T) {
	log := FuelLog{
		{TS: "2025-01-01T10:00:00Z", OdometerKM: 100, Liters: 40},
		{TS: "2025-01-01T10:00:00Z", OdometerKM: 999, Liters: 50},
	}

	km := 150.0
	if !log.UpdateByTimestamp("2025-01-01T10:00:00Z", FuelPatch{OdometerKM: &km}) {
		t.Fatal("expected a patch")
	}
	if log[0].OdometerKM != 150 || log[1].OdometerKM != 999 {
		t.Fatalf("only the first match may change: %+v", log)
	}
	if log[0].Liters != 40 {
		t.Fatal("unpatched fields must stay")
	}
}

func TestFuelLogUpdatePriceSemantics(t *testing.T) {
	price := 75.0
	log := FuelLog{{TS: "2025-01-01T10:00:00Z", PriceTotal: &price}}

	// Absent leaves the price alone.
	log.UpdateByTimestamp("2025-01-01T10:00:00Z", FuelPatch{})
	if log[0].PriceTotal == nil || *log[0].PriceTotal != 75 {
		t.Fatalf("price = %v, want untouched", log[0].PriceTotal)
	}

	// Explicit null clears it.
	log.UpdateByTimestamp("2025-01-01T10:00:00Z", FuelPatch{PriceTotal: OptionalFloat{Set: true}})
	if log[0].PriceTotal != nil {
		t.Fatalf("price = %v, want cleared", *log[0].PriceTotal)
	}
}

func TestFuelLogLatestByTimestampNotPosition(t *testing.T) {
	log := FuelLog{
		{TS: "2025-03-01T10:00:00Z", OdometerKM: 300},
		{TS: "2025-01-01T10:00:00Z", OdometerKM: 100},
	}

	latest := log.Latest()
	if latest == nil || latest.OdometerKM != 300 {
		t.Fatalf("latest = %+v, want the March entry", latest)
	}

	// The copy must not alias the log.
	latest.OdometerKM = 1
	if log[0].OdometerKM != 300 {
		t.Fatal("Latest must return a copy")
	}
}

func TestMaintLogDeleteByTimestamp(t *testing.T) {
	log := MaintLog{
		{TS: "2025-01-01T12:00:00Z", OdometerKM: 100},
		{TS: "2025-02-01T12:00:00Z", OdometerKM: 200},
	}

	if !log.DeleteByTimestamp("2025-01-01T12:00:00Z") {
		t.Fatal("expected a deletion")
	}
	if len(log) != 1 || log[0].OdometerKM != 200 {
		t.Fatalf("log = %+v", log)
	}
}

func TestMaintLogUpdateRewritesTimestamp(t *testing.T) {
	log := MaintLog{{TS: "2025-01-01T12:00:00Z", Note: "old"}}

	ts := "2025-02-01T12:00:00Z"
	note := "new"
	if !log.UpdateByTimestamp("2025-01-01T12:00:00Z", MaintPatch{TS: &ts, Note: &note}) {
		t.Fatal("expected a patch")
	}
	if log[0].TS != ts || log[0].Note != "new" {
		t.Fatalf("entry = %+v", log[0])
	}
}

func TestSortedByTimestampLeavesOriginal(t *testing.T) {
	log := FuelLog{
		{TS: "2025-02-01T10:00:00Z"},
		{TS: "2025-01-01T10:00:00Z"},
	}

	sorted := log.SortedByTimestamp()
	if sorted[0].TS != "2025-01-01T10:00:00Z" {
		t.Fatalf("sorted = %+v", sorted)
	}
	if log[0].TS != "2025-02-01T10:00:00Z" {
		t.Fatal("original order must be preserved")
	}
}
