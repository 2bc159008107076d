package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/tesouro-gerencial/internal"
	"github.com/spf13/cobra"
)

var (
	loadFlags      reportFlags
	loadCollection string
	loadTruncate   bool
	loadDocstore   string
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a report's rows into a document store",
	Long: `Export a report as a spreadsheet, normalize it and insert one document per
data row. Every document carries the report metadata under "Metadado" and
the load time under "Timestamp".

The store is picked by URI: mongodb://, mongodb+srv:// or sqlite://<path>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := loadFlags.answers()
		if err != nil {
			return err
		}

		uri := loadDocstore
		if uri == "" {
			uri = cfg.DocstoreURI
		}
		ctx := cmd.Context()
		store, err := internal.OpenDocumentStore(ctx, uri, cfg.DocstoreDatabase)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(context.WithoutCancel(ctx)); err != nil {
				internal.LogWarn("Failed to close document store: %v", err)
			}
		}()

		runner, err := newRunner(store)
		if err != nil {
			return err
		}

		transfer := &internal.ReportToDocumentStore{
			Account:    loadFlags.account,
			ReportID:   loadFlags.reportID,
			Collection: loadCollection,
			Truncate:   loadTruncate,
			Answers:    answers,
		}

		var result *internal.LoadResult
		err = internal.ShowProgress(ctx, fmt.Sprintf("Loading report %s into %s", loadFlags.reportID, loadCollection), func() error {
			var err error
			result, err = transfer.Execute(ctx, runner)
			return err
		})
		if err != nil {
			return err
		}

		if result.Inserted == 0 {
			internal.PrintWarning(cmd.OutOrStdout(), fmt.Sprintf("Report %s had no data rows", loadFlags.reportID))
			return nil
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Inserted %d document(s) into %s", result.Inserted, result.Collection))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	addReportFlags(loadCmd, &loadFlags)
	loadCmd.Flags().StringVarP(&loadCollection, "collection", "c", "", "Target collection")
	loadCmd.Flags().BoolVar(&loadTruncate, "truncate", false, "Delete the collection's documents before inserting")
	loadCmd.Flags().StringVar(&loadDocstore, "docstore", "", "Document store URI (overrides docstore_uri)")
	_ = loadCmd.MarkFlagRequired("collection")
}
