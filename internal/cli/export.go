package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taylorsudo/rba-aud-rates/internal/app"
)

func newExportCmd() *cobra.Command {
	var (
		code      string
		from      string
		to        string
		pngPath   string
		csvPath   string
		maxPoints int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one currency's history as CSV and/or PNG chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.ExportOptions{
				Code:      code,
				PNGPath:   pngPath,
				CSVPath:   csvPath,
				MaxPoints: maxPoints,
			}

			if from != "" {
				ts, err := time.Parse(app.DateLayout, from)
				if err != nil {
					return fmt.Errorf("invalid --from value: %w", err)
				}
				opts.From = &ts
			}

			if to != "" {
				ts, err := time.Parse(app.DateLayout, to)
				if err != nil {
					return fmt.Errorf("invalid --to value: %w", err)
				}
				opts.To = &ts
			}

			return getApp().Export(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&code, "code", "USD", "Currency code to export")
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD, exclusive)")
	cmd.Flags().StringVar(&pngPath, "png", "", "Path to write PNG chart")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to write CSV data")
	cmd.Flags().IntVar(&maxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
	return cmd
}
