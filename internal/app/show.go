package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/taylorsudo/rba-aud-rates/internal/rates"
	"github.com/taylorsudo/rba-aud-rates/internal/storage"
)

// Show prints the latest snapshot, one currency's recent history, or the
// list of known currency codes.
func (a *App) Show(ctx context.Context, opts ShowOptions, out io.Writer) error {
	switch {
	case opts.Codes:
		return a.showCodes(out)
	case opts.Code != "":
		return a.showSeries(strings.ToUpper(opts.Code), opts.Limit, out)
	default:
		return a.showLatest(out)
	}
}

func (a *App) readHistory() (rates.History, error) {
	hist, err := storage.ReadHistory(a.Config.Output.History)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no history at %s; run update first", a.Config.Output.History)
	}
	return hist, err
}

func (a *App) showLatest(out io.Writer) error {
	snap, err := storage.ReadSnapshot(a.Config.Output.Latest)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no snapshot at %s; run update first", a.Config.Output.Latest)
	}
	if err != nil {
		return err
	}

	asAt := "-"
	if snap.AsAtAEST != nil {
		asAt = *snap.AsAtAEST
	}
	fmt.Fprintf(out, "Source: %s (%s)\nDate: %s\nAs at: %s\n\n", snap.Source, snap.SourceURL, snap.DateLabel(), asAt)

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Code\tPer %s\t%s per unit\tTitle\n", snap.Base, snap.Base)
	for _, r := range snap.Rates {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			r.Code,
			rates.FormatValue(r.PerAUD, r.Decimals),
			rates.FormatInverse(r.AUDPerUnit),
			sanitizeInline(r.Title),
		)
	}
	return writer.Flush()
}

func (a *App) showSeries(code string, limit int, out io.Writer) error {
	hist, err := a.readHistory()
	if err != nil {
		return err
	}

	series := hist.Series(code)
	if len(series) == 0 {
		fmt.Fprintf(out, "no history for %s\n", code)
		return nil
	}
	if limit > 0 && len(series) > limit {
		series = series[len(series)-limit:]
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Date\t%s per AUD\tAUD per %s\n", code, code)
	for _, p := range series {
		aud := p.AUDPerUnit
		fmt.Fprintf(writer, "%s\t%s\t%s\n", p.Date, rates.FormatValue(p.PerAUD, p.Decimals), rates.FormatInverse(&aud))
	}
	return writer.Flush()
}

func (a *App) showCodes(out io.Writer) error {
	hist, err := a.readHistory()
	if err != nil {
		return err
	}
	for _, code := range hist.Codes() {
		fmt.Fprintln(out, code)
	}
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	return strings.TrimSpace(cleaned)
}
