package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/taylorsudo/rba-aud-rates/internal/rates"
)

// ErrCorruptHistory marks a history file that exists but does not decode.
var ErrCorruptHistory = errors.New("storage: history file is not a valid snapshot list")

// WriteJSON writes v as indented JSON, creating parent directories first.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := writeFileAtomically(path, &buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeFileAtomically(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadHistory strictly decodes a history file. A missing file surfaces as an
// error satisfying errors.Is(err, os.ErrNotExist).
func ReadHistory(path string) (rates.History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var hist rates.History
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptHistory, path, err)
	}
	return hist, nil
}

// ReadSnapshot decodes a latest-snapshot file.
func ReadSnapshot(path string) (rates.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rates.Snapshot{}, err
	}
	var snap rates.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return rates.Snapshot{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return snap, nil
}
