package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/taylorsudo/rba-aud-rates/internal/rates"
)

// DateLayout is the observation-period format used by the feed.
const DateLayout = "2006-01-02"

type seriesPoint struct {
	rates.Point
	Time time.Time
}

// Export renders one currency's AUD-per-unit history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	code := strings.ToUpper(strings.TrimSpace(opts.Code))
	if code == "" {
		return errors.New("--code must not be empty")
	}
	if opts.From != nil && opts.To != nil && !opts.From.Before(*opts.To) {
		return errors.New("from must be before to")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	hist, err := a.readHistory()
	if err != nil {
		return err
	}

	points, skipped := selectPoints(hist.Series(code), opts.From, opts.To)
	if skipped > 0 {
		a.Logger.Warn().Int("skipped", skipped).Msg("history entries without a usable date were left out")
	}
	if len(points) == 0 {
		a.Logger.Info().Str("code", code).Msg("no history found for export window")
		return nil
	}

	downsampled := downsamplePoints(points, opts.MaxPoints)
	a.Logger.Info().Str("code", code).Int("total", len(points)).Int("exported", len(downsampled)).Msg("exporting history")

	if opts.CSVPath != "" {
		if err := writePointsCSV(opts.CSVPath, code, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writePointsPNG(opts.PNGPath, code, downsampled); err != nil {
			return err
		}
	}

	return nil
}

// selectPoints keeps points whose date parses and falls in [from, to).
func selectPoints(series []rates.Point, from, to *time.Time) ([]seriesPoint, int) {
	out := make([]seriesPoint, 0, len(series))
	skipped := 0
	for _, p := range series {
		ts, err := time.Parse(DateLayout, p.Date)
		if err != nil {
			skipped++
			continue
		}
		if from != nil && ts.Before(*from) {
			continue
		}
		if to != nil && !ts.Before(*to) {
			continue
		}
		out = append(out, seriesPoint{Point: p, Time: ts})
	}
	return out, skipped
}

func downsamplePoints(points []seriesPoint, max int) []seriesPoint {
	if max <= 1 || len(points) <= max {
		return points
	}

	result := make([]seriesPoint, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func writePointsCSV(path, code string, points []seriesPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"date", "code", "per_aud", "aud_per_unit", "decimals"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, p := range points {
		decimals := ""
		if p.Decimals != nil {
			decimals = strconv.Itoa(*p.Decimals)
		}
		record := []string{
			p.Date,
			code,
			strconv.FormatFloat(p.PerAUD, 'f', -1, 64),
			strconv.FormatFloat(p.AUDPerUnit, 'f', -1, 64),
			decimals,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writePointsPNG(path, code string, points []seriesPoint) error {
	if len(points) < 2 {
		return fmt.Errorf("need at least two points to chart %s, have %d", code, len(points))
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.Time
		y[i] = p.AUDPerUnit
	}

	rateFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.4f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s to AUD Exchange Rate", code),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           fmt.Sprintf("AUD per 1 %s", code),
			ValueFormatter: rateFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    code,
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
