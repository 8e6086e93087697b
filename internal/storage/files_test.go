package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taylorsudo/rba-aud-rates/internal/rates"
)

func sampleSnapshot(date string) rates.Snapshot {
	d := date
	asAt := date + "T16:00:00+11:00"
	dec := 4
	return rates.Snapshot{
		Source:    "RBA 4pm",
		SourceURL: "https://example.test/rss.xml",
		AsAtAEST:  &asAt,
		Date:      &d,
		Base:      rates.BaseCurrency,
		Rates: []rates.RateRecord{
			rates.NewRateRecord("EUR", 0.6121, &dec, "EUR & friends <4pm>"),
			rates.NewRateRecord("USD", 0.6698, &dec, "USD"),
		},
	}
}

func TestWriteJSONCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "nested", "rates-latest.json")
	snap := sampleSnapshot("2024-01-05")

	require.NoError(t, WriteJSON(path, snap))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "{\n  \"source\": \"RBA 4pm\""), text)
	assert.Contains(t, text, "EUR & friends <4pm>", "html characters are not escaped")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	got, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestWriteJSONNullFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.json")
	snap := rates.Snapshot{
		Source: "RBA 4pm",
		Base:   rates.BaseCurrency,
		Rates:  []rates.RateRecord{rates.NewRateRecord("ZZZ", 0, nil, "")},
	}
	require.NoError(t, WriteJSON(path, snap))

	var generic map[string]any
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &generic))

	assert.Contains(t, generic, "date")
	assert.Nil(t, generic["date"])
	assert.Nil(t, generic["as_at_aest"])
	rec := generic["rates"].([]any)[0].(map[string]any)
	assert.Nil(t, rec["aud_per_unit"])
	assert.Nil(t, rec["decimals"])
}

func TestHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	snap := sampleSnapshot("2024-01-05")

	require.NoError(t, WriteJSON(path, rates.History{snap}))

	hist := LoadHistory(path, zerolog.Nop())
	require.Len(t, hist, 1)
	require.NotNil(t, hist[0].Date)
	assert.Equal(t, "2024-01-05", *hist[0].Date)

	typed, err := ReadHistory(path)
	require.NoError(t, err)
	require.Len(t, typed, 1)
	assert.Equal(t, snap, typed[0])
}

func TestLoadHistoryRecovers(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"garbage": "not json at all",
		"object":  `{"date": "2024-01-01"}`,
		"null":    `null`,
		"bad row": `[{"date": 42}]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			hist := LoadHistory(path, zerolog.Nop())
			assert.NotNil(t, hist)
			assert.Empty(t, hist)
		})
	}

	missing := LoadHistory(filepath.Join(dir, "absent.json"), zerolog.Nop())
	assert.Empty(t, missing)
}

func TestReadHistoryErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadHistory(filepath.Join(dir, "absent.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("[{"), 0o644))
	_, err = ReadHistory(path)
	assert.ErrorIs(t, err, ErrCorruptHistory)
}
