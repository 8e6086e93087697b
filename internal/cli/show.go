package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taylorsudo/rba-aud-rates/internal/app"
)

func newShowCmd() *cobra.Command {
	var opts app.ShowOptions

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the latest rates or one currency's recent history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Limit <= 0 {
				return fmt.Errorf("--limit must be greater than zero")
			}
			return getApp().Show(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Code, "code", "", "Currency code to list history for (e.g. USD)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Number of days to display with --code")
	cmd.Flags().BoolVar(&opts.Codes, "codes", false, "List every currency code seen in history")
	return cmd
}
