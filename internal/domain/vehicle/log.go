// internal/domain/vehicle/log.go
package vehicle

import "sort"

// FuelLog is an append-ordered fill-up log. Physical order is insertion
// order; chronological consumers sort a copy by timestamp.
type FuelLog []FuelEntry

// FuelPatch is a field-level update. Nil pointer fields are left untouched;
// PriceTotal distinguishes absent from an explicit null via OptionalFloat.
type FuelPatch struct {
	OdometerKM *float64
	Liters     *float64
	PriceTotal OptionalFloat
}

// FindByTimestamp returns the index of the first entry with the given
// timestamp in current physical order.
func (l FuelLog) FindByTimestamp(ts string) (int, bool) {
	for i := range l {
		if l[i].TS == ts {
			return i, true
		}
	}
	return 0, false
}

func (l *FuelLog) Append(e FuelEntry) {
	*l = append(*l, e)
}

// DeleteByTimestamp removes the first entry matching ts. Returns false on a
// miss, leaving the log untouched.
func (l *FuelLog) DeleteByTimestamp(ts string) bool {
	i, ok := l.FindByTimestamp(ts)
	if !ok {
		return false
	}
	*l = append((*l)[:i], (*l)[i+1:]...)
	return true
}

// DeleteLatest removes the chronologically latest entry. The physical order
// of the remaining entries is preserved.
func (l *FuelLog) DeleteLatest() bool {
	if len(*l) == 0 {
		return false
	}
	latest := 0
	for i := range *l {
		if (*l)[i].TS >= (*l)[latest].TS {
			latest = i
		}
	}
	*l = append((*l)[:latest], (*l)[latest+1:]...)
	return true
}

// UpdateByTimestamp applies a patch to the first entry matching ts.
// Returns false on a miss.
func (l FuelLog) UpdateByTimestamp(ts string, p FuelPatch) bool {
	i, ok := l.FindByTimestamp(ts)
	if !ok {
		return false
	}
	if p.OdometerKM != nil {
		l[i].OdometerKM = *p.OdometerKM
	}
	if p.Liters != nil {
		l[i].Liters = *p.Liters
	}
	if p.PriceTotal.Set {
		l[i].PriceTotal = clonePtr(p.PriceTotal.Value)
	}
	return true
}

// SortedByTimestamp returns a copy sorted ascending. Ties keep physical order.
func (l FuelLog) SortedByTimestamp() FuelLog {
	cp := append(FuelLog(nil), l...)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].TS < cp[j].TS })
	return cp
}

// Latest returns a copy of the chronologically latest entry, or nil.
func (l FuelLog) Latest() *FuelEntry {
	if len(l) == 0 {
		return nil
	}
	sorted := l.SortedByTimestamp()
	e := sorted[len(sorted)-1]
	e.PriceTotal = clonePtr(e.PriceTotal)
	return &e
}

// MaintLog is the append-ordered service log for one maintenance type.
type MaintLog []MaintenanceEntry

// MaintPatch is a field-level update for a maintenance entry. TS rewrites the
// entry's timestamp (used when the civil date of a service is corrected).
type MaintPatch struct {
	TS         *string
	OdometerKM *float64
	Note       *string
}

func (l MaintLog) FindByTimestamp(ts string) (int, bool) {
	for i := range l {
		if l[i].TS == ts {
			return i, true
		}
	}
	return 0, false
}

func (l *MaintLog) Append(e MaintenanceEntry) {
	*l = append(*l, e)
}

func (l *MaintLog) DeleteByTimestamp(ts string) bool {
	i, ok := l.FindByTimestamp(ts)
	if !ok {
		return false
	}
	*l = append((*l)[:i], (*l)[i+1:]...)
	return true
}

func (l *MaintLog) DeleteLatest() bool {
	if len(*l) == 0 {
		return false
	}
	latest := 0
	for i := range *l {
		if (*l)[i].TS >= (*l)[latest].TS {
			latest = i
		}
	}
	*l = append((*l)[:latest], (*l)[latest+1:]...)
	return true
}

func (l MaintLog) UpdateByTimestamp(ts string, p MaintPatch) bool {
	i, ok := l.FindByTimestamp(ts)
	if !ok {
		return false
	}
	if p.TS != nil {
		l[i].TS = *p.TS
	}
	if p.OdometerKM != nil {
		l[i].OdometerKM = *p.OdometerKM
	}
	if p.Note != nil {
		l[i].Note = *p.Note
	}
	return true
}

func (l MaintLog) SortedByTimestamp() MaintLog {
	cp := append(MaintLog(nil), l...)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].TS < cp[j].TS })
	return cp
}

func (l MaintLog) Latest() *MaintenanceEntry {
	if len(l) == 0 {
		return nil
	}
	sorted := l.SortedByTimestamp()
	e := sorted[len(sorted)-1]
	return &e
}
