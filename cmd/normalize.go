package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/iksnae/tesouro-gerencial/internal"
	"github.com/iksnae/tesouro-gerencial/internal/export"
	"github.com/spf13/cobra"
)

var (
	normalizeFormat string
	normalizeInput  string
	normalizeOut    string
)

// normalizeCmd represents the normalize command
var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Normalize a downloaded CSV or spreadsheet export",
	Long: `Turn a report export saved by "fetch" into a clean table and write it in
another format (jsonl, md, yaml, json, csv).

The input format comes from the file extension unless --input is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(normalizeFormat)
		if err != nil {
			return err
		}

		path := args[0]
		var format internal.Format
		if normalizeInput != "" {
			format, err = internal.ParseFormat(normalizeInput)
		} else {
			format, err = internal.FormatFromExtension(path)
		}
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		table, err := internal.Normalize(&internal.ReportPayload{Bytes: data, Format: format})
		if err != nil {
			return err
		}
		internal.LogInfo("Normalized %s: %d column(s), %d row(s)", path, len(table.Headers), len(table.Rows))

		var w io.Writer = cmd.OutOrStdout()
		if normalizeOut != "" {
			file, err := os.Create(normalizeOut)
			if err != nil {
				return &internal.ExportError{Format: normalizeFormat, Path: normalizeOut, Err: err}
			}
			defer file.Close()
			w = file
		}

		if err := exporter.Export(table, w); err != nil {
			return &internal.ExportError{Format: normalizeFormat, Path: normalizeOut, Err: err}
		}
		if normalizeOut != "" {
			internal.PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Wrote %d row(s) to %s", len(table.Rows), normalizeOut))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().StringVarP(&normalizeFormat, "format", "f", "jsonl", "Output format (jsonl, md, yaml, json, csv)")
	normalizeCmd.Flags().StringVar(&normalizeInput, "input", "", "Input format (csv or excel), overriding the file extension")
	normalizeCmd.Flags().StringVarP(&normalizeOut, "out", "o", "", "Output file (default stdout)")
}
