package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/studio/internal/release"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a newer release is published",
	Long: `Fetches the release manifest and compares it against the installed
version. Nothing is modified. Exit 0 whether or not an update exists;
a non-zero exit means the check itself failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := locateServer()
		if err != nil {
			return err
		}
		st, err := loadState(srv.root)
		if err != nil {
			return err
		}

		fetcher := &release.Fetcher{URL: srv.cfg.ReleaseManifest}
		update, err := fetcher.Check(cmd.Context(), st.AuthoringTool.Version)
		if err != nil {
			return err
		}

		if update == nil {
			info("Already up to date.")
			return nil
		}

		installed := st.AuthoringTool.Version
		if installed == "" {
			installed = "unknown"
		}
		info("Studio %s is available (installed: %s).", update.Version, installed)
		detail("authoring tool: %s", update.AuthoringToolRevision)
		detail("framework:      %s", update.FrameworkRevision)
		if update.Notes != "" {
			detail("notes: %s", update.Notes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
