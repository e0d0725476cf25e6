package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/studio/internal/repo"
)

var cleanYes bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the upgrade working directory",
	Long: `Removes the master tenant's working checkouts under the temp
directory. The next upgrade clones them fresh. Useful when a checkout
is wedged or the disk needs reclaiming.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := locateServer()
		if err != nil {
			return err
		}

		w := repo.For(srv.root, srv.cfg.TempDir, srv.cfg.MasterTenant)

		if !cleanYes && !confirm(fmt.Sprintf("Remove %s? [y/N] ", w.TenantDir())) {
			info("Aborted.")
			return nil
		}

		if err := w.Clean(); err != nil {
			return err
		}
		info("Removed %s.", w.TenantDir())
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanYes, "yes", false, "skip interactive confirmation")
	rootCmd.AddCommand(cleanCmd)
}
