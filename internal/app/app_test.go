package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taylorsudo/rba-aud-rates/internal/config"
	"github.com/taylorsudo/rba-aud-rates/internal/rates"
	"github.com/taylorsudo/rba-aud-rates/internal/storage"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:cb="http://www.cbwiki.net/wiki/index.php/Specification_1.2/" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns="http://purl.org/rss/1.0/">
  <channel><dc:date>2024-01-05T16:00:00+11:00</dc:date></channel>
  <item>
    <title>AU: 1.5 USD = 1 AUD</title>
    <cb:statistics><cb:exchangeRate>
      <cb:observation><cb:value>1.5</cb:value><cb:decimals>4</cb:decimals></cb:observation>
      <cb:targetCurrency>USD</cb:targetCurrency>
      <cb:observationPeriod><cb:period>2024-01-05</cb:period></cb:observationPeriod>
    </cb:exchangeRate></cb:statistics>
  </item>
  <item>
    <title>TWI</title>
    <cb:statistics><cb:exchangeRate>
      <cb:observation><cb:value>60.1</cb:value><cb:decimals>2</cb:decimals></cb:observation>
      <cb:targetCurrency>XXX</cb:targetCurrency>
    </cb:exchangeRate></cb:statistics>
  </item>
</rdf:RDF>`

func testApp(t *testing.T, feedURL string) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Feed: config.FeedConfig{
			URL:         feedURL,
			Timeout:     2 * time.Second,
			SourceLabel: "RBA 4pm",
		},
		Output: config.OutputConfig{
			Latest:  filepath.Join(dir, "public", "rates-latest.json"),
			History: filepath.Join(dir, "public", "history.json"),
		},
		Export: config.ExportConfig{MaxDataPoints: 100},
	}
	return NewApp(cfg, zerolog.Nop())
}

func seedHistory(t *testing.T, a *App, days map[string]float64) {
	t.Helper()
	var hist rates.History
	for date, perAUD := range days {
		d := date
		dec := 4
		hist = hist.Merge(rates.Snapshot{
			Source: "RBA 4pm",
			Date:   &d,
			Base:   rates.BaseCurrency,
			Rates: []rates.RateRecord{
				rates.NewRateRecord("EUR", perAUD*0.9, &dec, "EUR"),
				rates.NewRateRecord("USD", perAUD, &dec, "USD"),
			},
		})
	}
	require.NoError(t, storage.WriteJSON(a.Config.Output.History, hist))
	require.NoError(t, storage.WriteJSON(a.Config.Output.Latest, hist[len(hist)-1]))
}

func TestUpdateEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	a := testApp(t, srv.URL)
	var out bytes.Buffer
	require.NoError(t, a.Update(context.Background(), &out))

	assert.Equal(t, "Wrote "+a.Config.Output.Latest+" and "+a.Config.Output.History+" for date 2024-01-05 with 1 currencies.\n", out.String())

	latest, err := storage.ReadSnapshot(a.Config.Output.Latest)
	require.NoError(t, err)
	require.Len(t, latest.Rates, 1)
	usd := latest.Rates[0]
	assert.Equal(t, "USD", usd.Code)
	assert.Equal(t, 1.5, usd.PerAUD)
	require.NotNil(t, usd.AUDPerUnit)
	assert.InDelta(t, 0.6667, *usd.AUDPerUnit, 0.00005)
	assert.Equal(t, srv.URL, latest.SourceURL)
}

func TestUpdateEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"/>`))
	}))
	defer srv.Close()

	a := testApp(t, srv.URL)
	var out bytes.Buffer
	err := a.Update(context.Background(), &out)
	require.ErrorIs(t, err, rates.ErrEmptyResult)
	assert.Empty(t, out.String())

	_, statErr := os.Stat(a.Config.Output.Latest)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestUpdateBadDSNStillWritesFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	a := testApp(t, srv.URL)
	a.Config.Database.DSN = "postgres://localhost:notaport/rates"
	require.NoError(t, a.Update(context.Background(), &bytes.Buffer{}))

	_, err := os.Stat(a.Config.Output.History)
	require.NoError(t, err)
}

func TestShowLatest(t *testing.T) {
	a := testApp(t, "http://unused")
	seedHistory(t, a, map[string]float64{"2024-01-04": 0.66, "2024-01-05": 0.67})

	var out bytes.Buffer
	require.NoError(t, a.Show(context.Background(), ShowOptions{}, &out))

	text := out.String()
	assert.Contains(t, text, "Date: 2024-01-05")
	assert.Contains(t, text, "USD")
	assert.Contains(t, text, "0.6700")
	assert.Contains(t, text, "1.492537")
}

func TestShowSeriesAndCodes(t *testing.T) {
	a := testApp(t, "http://unused")
	seedHistory(t, a, map[string]float64{"2024-01-03": 0.65, "2024-01-04": 0.66, "2024-01-05": 0.67})

	var out bytes.Buffer
	require.NoError(t, a.Show(context.Background(), ShowOptions{Code: "usd", Limit: 2}, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "2024-01-04"))
	assert.True(t, strings.HasPrefix(lines[2], "2024-01-05"))

	out.Reset()
	require.NoError(t, a.Show(context.Background(), ShowOptions{Codes: true}, &out))
	assert.Equal(t, "EUR\nUSD\n", out.String())

	out.Reset()
	require.NoError(t, a.Show(context.Background(), ShowOptions{Code: "NZD"}, &out))
	assert.Equal(t, "no history for NZD\n", out.String())
}

func TestShowWithoutFiles(t *testing.T) {
	a := testApp(t, "http://unused")
	assert.Error(t, a.Show(context.Background(), ShowOptions{}, &bytes.Buffer{}))
	assert.Error(t, a.Show(context.Background(), ShowOptions{Codes: true}, &bytes.Buffer{}))
}

func TestExportCSVAndPNG(t *testing.T) {
	a := testApp(t, "http://unused")
	seedHistory(t, a, map[string]float64{"2024-01-03": 0.65, "2024-01-04": 0.66, "2024-01-05": 0.67})

	dir := t.TempDir()
	from := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	opts := ExportOptions{
		Code:    "USD",
		From:    &from,
		CSVPath: filepath.Join(dir, "out", "usd.csv"),
		PNGPath: filepath.Join(dir, "out", "usd.png"),
	}
	require.NoError(t, a.Export(context.Background(), opts))

	f, err := os.Open(opts.CSVPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"date", "code", "per_aud", "aud_per_unit", "decimals"}, records[0])
	assert.Equal(t, "2024-01-04", records[1][0])
	assert.Equal(t, "0.66", records[1][2])

	png, err := os.ReadFile(opts.PNGPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestExportValidation(t *testing.T) {
	a := testApp(t, "http://unused")
	assert.Error(t, a.Export(context.Background(), ExportOptions{Code: "USD"}))
	assert.Error(t, a.Export(context.Background(), ExportOptions{CSVPath: "x.csv"}))

	from := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	to := from.Add(-24 * time.Hour)
	assert.Error(t, a.Export(context.Background(), ExportOptions{Code: "USD", CSVPath: "x.csv", From: &from, To: &to}))
}

func TestSelectAndDownsample(t *testing.T) {
	series := []rates.Point{
		{Date: "2024-01-01", AUDPerUnit: 1},
		{Date: "", AUDPerUnit: 2},
		{Date: "2024-01-03", AUDPerUnit: 3},
		{Date: "2024-01-04", AUDPerUnit: 4},
		{Date: "2024-01-05", AUDPerUnit: 5},
	}
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	points, skipped := selectPoints(series, nil, &to)
	assert.Equal(t, 1, skipped)
	require.Len(t, points, 3)

	down := downsamplePoints(points, 2)
	require.Len(t, down, 2)
	assert.Equal(t, "2024-01-01", down[0].Date)
	assert.Equal(t, "2024-01-04", down[1].Date)
}
