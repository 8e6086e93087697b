package rates

import "errors"

const (
	// BaseCurrency is the reference currency every rate is quoted against.
	BaseCurrency = "AUD"
	// TradeWeightedIndexCode marks the TWI pseudo currency published alongside real rates.
	TradeWeightedIndexCode = "XXX"
)

// ErrEmptyResult signals a feed that parsed cleanly but produced no rates.
var ErrEmptyResult = errors.New("no rates parsed; abort")

// RateRecord is one currency's conversion data for the observation date.
type RateRecord struct {
	Code       string   `json:"code"`
	PerAUD     float64  `json:"per_aud"`
	AUDPerUnit *float64 `json:"aud_per_unit"`
	Decimals   *int     `json:"decimals"`
	Title      string   `json:"title"`
}

// NewRateRecord derives AUDPerUnit from perAUD. A zero rate leaves it unset.
func NewRateRecord(code string, perAUD float64, decimals *int, title string) RateRecord {
	rec := RateRecord{
		Code:     code,
		PerAUD:   perAUD,
		Decimals: decimals,
		Title:    title,
	}
	if perAUD != 0 {
		inv := 1.0 / perAUD
		rec.AUDPerUnit = &inv
	}
	return rec
}

// Snapshot is the full result of one fetch.
type Snapshot struct {
	Source    string       `json:"source"`
	SourceURL string       `json:"source_url"`
	AsAtAEST  *string      `json:"as_at_aest"`
	Date      *string      `json:"date"`
	Base      string       `json:"base"`
	Rates     []RateRecord `json:"rates"`
}

// DateKey is the ordering key for a snapshot; a missing date sorts as "".
func (s Snapshot) DateKey() string {
	return dateKey(s.Date)
}

// DateLabel renders the observation date for humans.
func (s Snapshot) DateLabel() string {
	if s.Date == nil {
		return "unknown"
	}
	return *s.Date
}

// Find returns the record for code, if present.
func (s Snapshot) Find(code string) (RateRecord, bool) {
	for _, r := range s.Rates {
		if r.Code == code {
			return r, true
		}
	}
	return RateRecord{}, false
}

// Codes lists the currency codes in the snapshot in stored order.
func (s Snapshot) Codes() []string {
	codes := make([]string, 0, len(s.Rates))
	for _, r := range s.Rates {
		codes = append(codes, r.Code)
	}
	return codes
}

func sameDate(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func dateKey(date *string) string {
	if date == nil {
		return ""
	}
	return *date
}
