package cli

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s3grab/pkg/settings"
)

func newSettingsCmd(e *env) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the stored credentials",
	}
	settingsCmd.AddCommand(newSettingsShowCmd(e))
	settingsCmd.AddCommand(newSettingsSetCmd(e))
	return settingsCmd
}

func newSettingsShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored credentials, secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := e.settingsStore().Load()
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), st.Masked())
			if err := st.Merge(settings.EnvSettings()).Validate(); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "warning:", err)
			}
			return nil
		},
	}
}

func newSettingsSetCmd(e *env) *cobra.Command {
	var update settings.Settings

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the stored credentials",
		Long: `Change the stored credentials. Only the given flags are changed.

Example:
  s3grab settings set --region eu-west-3 --session-token "$TOKEN"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := e.settingsStore()
			st, err := store.Load()
			if err != nil {
				return err
			}
			st = st.Merge(update)
			if err := store.Save(st); err != nil {
				return err
			}
			e.log.Info("Settings saved", slog.String("file", e.cfg.SettingsFile))
			printSettings(cmd.OutOrStdout(), st.Masked())
			return nil
		},
	}
	cmd.Flags().StringVar(&update.AccessKeyID, "access-key-id", "", "AWS access key id")
	cmd.Flags().StringVar(&update.SecretAccessKey, "secret-access-key", "", "AWS secret access key")
	cmd.Flags().StringVar(&update.SessionToken, "session-token", "", "AWS session token")
	cmd.Flags().StringVar(&update.Region, "region", "", "AWS region")
	return cmd
}

func printSettings(w io.Writer, st settings.Settings) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "access key id\t%s\n", st.AccessKeyID)
	fmt.Fprintf(tw, "secret access key\t%s\n", st.SecretAccessKey)
	fmt.Fprintf(tw, "session token\t%s\n", st.SessionToken)
	fmt.Fprintf(tw, "region\t%s\n", st.Region)
	_ = tw.Flush()
}
