package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/tesouro-gerencial/internal"
	"github.com/spf13/cobra"
)

var checkAccount string

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that an account can log in to the portal",
	Long: `Check the portal setup by verifying:
  • The configuration loads
  • The account resolves from the credentials file
  • A session can be opened and closed again

Nothing is exported. Useful before scheduling fetch or load jobs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("Tesouro Gerencial Check"))
		fmt.Fprintln(out)

		ctx := cmd.Context()
		var (
			client  *internal.Client
			creds   internal.Credentials
			session *internal.Session
		)
		steps := []internal.ProgressStep{
			{
				Message: "Loading configuration",
				Fn: func() error {
					var err error
					client, err = internal.NewClient(*cfg)
					return err
				},
			},
			{
				Message: fmt.Sprintf("Resolving account %q", checkAccount),
				Fn: func() error {
					var err error
					creds, err = internal.NewFileCredentialStore(cfg.CredentialsFile).Resolve(checkAccount)
					return err
				},
			},
			{
				Message: "Opening a session",
				Fn: func() error {
					var err error
					session, err = client.Sessions.Login(ctx, creds)
					return err
				},
			},
			{
				Message: "Closing the session",
				Fn: func() error {
					client.Sessions.Logout(context.WithoutCancel(ctx), session)
					return nil
				},
			},
		}

		if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Check failed:"), err)
			return fmt.Errorf("check failed: %w", err)
		}

		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("   Portal: %s", cfg.BaseURL)))
		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("   Timeout: %s", cfg.Timeout)))
		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("   Account: %s", checkAccount)))
		fmt.Fprintln(out)
		fmt.Fprintln(out, successStyle.Render("✅ Check passed!"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVarP(&checkAccount, "account", "a", "", "Account name in the credentials file")
	_ = checkCmd.MarkFlagRequired("account")
}
