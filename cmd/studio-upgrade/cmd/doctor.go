package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/studio/internal/doctor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the environment can run an upgrade",
	Long: `Probes everything an upgrade depends on: the git installation, the
working directory, and the database connection. All probes run even
when an early one fails, so one pass reports every problem.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := locateServer()
		if err != nil {
			return err
		}

		checker := &doctor.Checker{}
		results := checker.Check(cmd.Context(), srv.cfg, srv.root)

		failed := 0
		for _, r := range results {
			if r.OK() {
				line := "ok"
				if r.Detail != "" {
					line += "  (" + r.Detail + ")"
				}
				info("  %-10s %s", r.Name, line)
			} else {
				failed++
				info("  %-10s FAIL  %v", r.Name, r.Err)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		info("Everything looks good.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
