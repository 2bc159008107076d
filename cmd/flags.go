package cmd

import (
	"fmt"

	"github.com/iksnae/tesouro-gerencial/internal"
	"github.com/spf13/cobra"
)

// reportFlags are shared by the commands that export a report
type reportFlags struct {
	account    string
	reportID   string
	prompts    []string
	promptJSON string
	selections map[string]string
}

func addReportFlags(cmd *cobra.Command, f *reportFlags) {
	cmd.Flags().StringVarP(&f.account, "account", "a", "", "Account name in the credentials file")
	cmd.Flags().StringVarP(&f.reportID, "report", "r", "", "Report id")
	cmd.Flags().StringArrayVarP(&f.prompts, "prompt", "p", nil, "Value prompt answer, repeat in prompt order")
	cmd.Flags().StringVar(&f.promptJSON, "prompts-json", "", `Value prompt answers as a JSON list, e.g. '["2024", 12]'`)
	cmd.Flags().StringToStringVar(&f.selections, "select", nil, "Element prompt answers as key=value pairs")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("report")
}

func (f *reportFlags) answers() (internal.PromptAnswers, error) {
	if len(f.prompts) > 0 && f.promptJSON != "" {
		return internal.PromptAnswers{}, fmt.Errorf("use either --prompt or --prompts-json, not both")
	}

	values := f.prompts
	if f.promptJSON != "" {
		parsed, err := internal.ParseValueAnswers(f.promptJSON)
		if err != nil {
			return internal.PromptAnswers{}, err
		}
		values = parsed
	}
	return internal.PromptAnswers{Values: values, Selections: f.selections}, nil
}

// newRunner builds a Runner from the loaded settings. store may be nil.
func newRunner(store internal.DocumentStore) (*internal.Runner, error) {
	client, err := internal.NewClient(*cfg)
	if err != nil {
		return nil, err
	}
	creds := internal.NewFileCredentialStore(cfg.CredentialsFile)
	return internal.NewRunner(client, creds, store), nil
}
