package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taylorsudo/rba-aud-rates/internal/app"
	"github.com/taylorsudo/rba-aud-rates/internal/config"
	"github.com/taylorsudo/rba-aud-rates/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	appHandle *app.App
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rba-aud-rates",
		Short:         "Fetch RBA 4pm AUD exchange rates and keep a daily history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if appHandle != nil {
				return nil
			}

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			logger := logging.NewLogger(cfg.Logging)
			appHandle = app.NewApp(cfg, logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return getApp().Update(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(versionCmd)
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
