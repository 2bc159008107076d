package cmd

import (
	"fmt"

	"github.com/iksnae/tesouro-gerencial/internal"
	"github.com/spf13/cobra"
)

var (
	fetchFlags reportFlags
	fetchOut   string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a report into a local file",
	Long: `Download a report export into a local file.

The extension of --out picks the export format: .csv, .xlsx/.xls or .pdf.
Any other extension is exported as CSV and saved under the given name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := fetchFlags.answers()
		if err != nil {
			return err
		}
		runner, err := newRunner(nil)
		if err != nil {
			return err
		}

		transfer := &internal.ReportToFile{
			Account:  fetchFlags.account,
			ReportID: fetchFlags.reportID,
			Path:     fetchOut,
			Answers:  answers,
		}

		var result *internal.FileResult
		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Fetching report %s", fetchFlags.reportID), func() error {
			var err error
			result, err = transfer.Execute(cmd.Context(), runner)
			return err
		})
		if err != nil {
			return err
		}

		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Saved %s report to %s (%s)", result.Format, result.Path, result.HumanSize))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addReportFlags(fetchCmd, &fetchFlags)
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "Destination file")
	_ = fetchCmd.MarkFlagRequired("out")
}
