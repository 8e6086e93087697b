package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/taylorsudo/rba-aud-rates/internal/rates"
)

// HistoryEntry is one stored snapshot. Only its "date" member is decoded; the
// entry is written back exactly as it was read.
type HistoryEntry struct {
	Date *string
	raw  json.RawMessage
}

// NewHistoryEntry encodes snap for the history file.
func NewHistoryEntry(snap rates.Snapshot) (HistoryEntry, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return HistoryEntry{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return HistoryEntry{Date: snap.Date, raw: bytes.TrimSpace(buf.Bytes())}, nil
}

// MarshalJSON returns the entry's original encoding.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	if len(e.raw) == 0 {
		return []byte("null"), nil
	}
	return e.raw, nil
}

// UnmarshalJSON keeps data verbatim and extracts the exact "date" member,
// which must be a string or null when present.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	if members == nil {
		return errors.New("history entry is not an object")
	}

	var date *string
	if raw, ok := members["date"]; ok {
		if err := json.Unmarshal(raw, &date); err != nil {
			return fmt.Errorf("history entry date: %w", err)
		}
	}

	e.Date = date
	e.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}

// HistoryFile is the history as stored on disk, one raw entry per snapshot.
type HistoryFile []HistoryEntry

// Merge replaces the entry dated like snap and keeps the file sorted by date.
// Other entries pass through untouched. The receiver is not modified.
func (h HistoryFile) Merge(snap rates.Snapshot) (HistoryFile, error) {
	entry, err := NewHistoryEntry(snap)
	if err != nil {
		return nil, err
	}
	return rates.MergeByDate(h, entry, func(e HistoryEntry) *string { return e.Date }), nil
}

// LoadHistory reads the history for merging. Absent, unreadable or corrupt
// files all yield an empty history; corruption is only visible at debug level.
func LoadHistory(path string, logger zerolog.Logger) HistoryFile {
	hist, err := readHistoryFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Debug().Err(err).Str("path", path).Msg("discarding unreadable history")
		}
		return HistoryFile{}
	}
	if hist == nil {
		return HistoryFile{}
	}
	return hist
}

func readHistoryFile(path string) (HistoryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var hist HistoryFile
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptHistory, path, err)
	}
	return hist, nil
}
