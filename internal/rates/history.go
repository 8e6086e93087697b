package rates

import (
	"cmp"
	"slices"
)

// History is the per-date deduplicated sequence of past snapshots.
type History []Snapshot

// Merge drops every entry dated like snap, appends snap and re-sorts by date.
// Entries without a date compare equal to each other, so they share one slot.
// The receiver is not modified.
func (h History) Merge(snap Snapshot) History {
	return MergeByDate(h, snap, func(s Snapshot) *string { return s.Date })
}

// MergeByDate returns the entries not dated like add, followed by add, stable
// sorted by date with a missing date ordering as "". Entries are copied as
// they are; entries is not modified.
func MergeByDate[E any](entries []E, add E, date func(E) *string) []E {
	addDate := date(add)
	out := make([]E, 0, len(entries)+1)
	for _, entry := range entries {
		if sameDate(date(entry), addDate) {
			continue
		}
		out = append(out, entry)
	}
	out = append(out, add)
	slices.SortStableFunc(out, func(a, b E) int {
		return cmp.Compare(dateKey(date(a)), dateKey(date(b)))
	})
	return out
}

// Codes returns every currency code seen across the history, sorted.
func (h History) Codes() []string {
	seen := make(map[string]struct{})
	for _, snap := range h {
		for _, r := range snap.Rates {
			seen[r.Code] = struct{}{}
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Point is one day of a single currency's series.
type Point struct {
	Date       string
	AUDPerUnit float64
	PerAUD     float64
	Decimals   *int
}

// Series extracts code's AUD-per-unit values in history order, skipping days
// where the currency is absent or has no derived value.
func (h History) Series(code string) []Point {
	points := make([]Point, 0, len(h))
	for _, snap := range h {
		rec, ok := snap.Find(code)
		if !ok || rec.AUDPerUnit == nil {
			continue
		}
		points = append(points, Point{
			Date:       snap.DateKey(),
			AUDPerUnit: *rec.AUDPerUnit,
			PerAUD:     rec.PerAUD,
			Decimals:   rec.Decimals,
		})
	}
	return points
}
