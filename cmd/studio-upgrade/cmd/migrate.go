package cmd

import (
	"github.com/spf13/cobra"
)

var migrateList bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending data migrations",
	Long: `Applies the data migrations a full upgrade would run, without touching
any repository. Useful after restoring a database dump from an older
server. Already-applied migrations are skipped.

With --list, prints every migration and its changelog state instead,
including changelog entries this build does not know about.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := locateServer()
		if err != nil {
			return err
		}

		session, db, err := dialDatabase(srv.cfg)
		if err != nil {
			return err
		}
		defer session.Close()

		runner := newRunner(db)

		if migrateList {
			entries, err := runner.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				note := ""
				if !e.Known {
					note = "  (not in this build)"
				}
				info("  %-40s %s%s", e.Name, e.State, note)
			}
			return nil
		}

		applied, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		if applied == 0 {
			info("No migrations to run")
		} else {
			info("%d migrations ran successfully", applied)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateList, "list", false, "list migrations and their states without applying anything")
	rootCmd.AddCommand(migrateCmd)
}
