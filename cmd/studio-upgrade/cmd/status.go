package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bianoble/studio/internal/config"
	"github.com/bianoble/studio/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the installed versions and revisions",
	Long: `Shows what the last upgrade recorded for the authoring tool and the
courseware framework, whether the repositories are stock or custom, and
how many data migrations are waiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := locateServer()
		if err != nil {
			return err
		}
		st, err := loadState(srv.root)
		if err != nil {
			return err
		}

		if !st.Installed() {
			info("No upgrade has been recorded for this server yet.")
		} else {
			info("%-16s %-10s %-14s %s", "COMPONENT", "VERSION", "REVISION", "UPDATED")
			info("%s", statusLine("authoring tool", st.AuthoringTool))
			info("%s", statusLine("framework", st.Framework))
		}

		repos := "default"
		if custom := config.CustomRepositories(srv.cfg); len(custom) > 0 {
			repos = "custom (" + strings.Join(custom, ", ") + ")"
		}
		info("")
		info("Repositories:       %s", repos)
		info("Pending migrations: %s", pendingSummary(cmd, srv.cfg))
		return nil
	},
}

// pendingSummary counts waiting migrations, degrading to a note when the
// database cannot be reached. Status must stay usable on a broken server.
func pendingSummary(cmd *cobra.Command, cfg *config.Config) string {
	session, db, err := dialDatabase(cfg)
	if err != nil {
		return "unavailable (database unreachable)"
	}
	defer session.Close()

	pending, err := newRunner(db).Pending(cmd.Context())
	if err != nil {
		return "unavailable (database unreachable)"
	}
	return fmt.Sprintf("%d", len(pending))
}

func statusLine(name string, cs state.ComponentState) string {
	version := cs.Version
	if version == "" {
		version = "-"
	}
	revision := cs.Revision
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if revision == "" {
		revision = "-"
	}
	updated := "-"
	if !cs.UpdatedAt.IsZero() {
		updated = cs.UpdatedAt.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%-16s %-10s %-14s %s", name, version, revision, updated)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
