package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/tesouro-gerencial/internal"
	"github.com/spf13/cobra"
)

var (
	verbose         bool
	configPath      string
	credentialsPath string
	version         string = "dev"
	commit          string = "unknown"
	date            string = "unknown"

	// cfg is loaded before any subcommand runs
	cfg *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tesouro-gerencial",
	Short: "Download and load reports from the Tesouro Gerencial portal",
	Long: `A CLI for the Tesouro Gerencial reporting portal.

It logs in with a CPF and password, requests a report export (CSV, Excel or
PDF), logs out again, and either saves the file or normalizes the tabular
export into one document per data row.

Quick Start:
  tesouro-gerencial check --account siafi
  tesouro-gerencial fetch --account siafi --report 0A1B2C --out despesas.xlsx
  tesouro-gerencial load --account siafi --report 0A1B2C --collection despesas --truncate
  tesouro-gerencial normalize despesas.xlsx --format md

Settings come from --config (YAML) and TG_* environment variables, e.g.
TG_BASE_URL, TG_TIMEOUT, TG_VERIFY_TLS, TG_DOCSTORE_URI.`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func loadSettings(cmd *cobra.Command, args []string) error {
	loaded, err := internal.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if credentialsPath != "" {
		loaded.CredentialsFile = credentialsPath
	}

	level, err := internal.ParseLogLevel(loaded.LogLevel)
	if err != nil {
		return err
	}
	internal.SetLogLevel(level)
	if verbose {
		internal.SetVerbose(true)
	}

	cfg = loaded
	internal.LogDebug("Using portal %s (timeout %s, verify TLS %t)", cfg.BaseURL, cfg.Timeout, cfg.VerifyTLS)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&credentialsPath, "credentials", "", "Path to the accounts file (overrides credentials_file)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
