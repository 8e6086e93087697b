package storage

import (
	"github.com/taylorsudo/rba-aud-rates/internal/rates"
)

// ObservationRow is one currency's rate as mirrored into rate_observations.
type ObservationRow struct {
	ObservationDate string
	Code            string
	PerAUD          float64
	AUDPerUnit      *float64
	Decimals        *int
	Title           string
}

// observationRows flattens a snapshot. Undated snapshots share the '' key,
// matching how the history file collapses them.
func observationRows(snap rates.Snapshot) []ObservationRow {
	rows := make([]ObservationRow, 0, len(snap.Rates))
	for _, r := range snap.Rates {
		rows = append(rows, ObservationRow{
			ObservationDate: snap.DateKey(),
			Code:            r.Code,
			PerAUD:          r.PerAUD,
			AUDPerUnit:      r.AUDPerUnit,
			Decimals:        r.Decimals,
			Title:           r.Title,
		})
	}
	return rows
}
