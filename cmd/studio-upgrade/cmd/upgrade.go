package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/studio/internal/config"
	"github.com/bianoble/studio/internal/migration"
	"github.com/bianoble/studio/internal/release"
	"github.com/bianoble/studio/internal/repo"
	"github.com/bianoble/studio/internal/upgrade"
)

var (
	upgradeAuto         bool
	upgradeAuthoringRev string
	upgradeFrameworkRev string
	upgradeDryRun       bool
	upgradeYes          bool
)

func runUpgrade(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := checkGitPresent(ctx); err != nil {
		return err
	}

	srv, err := locateServer()
	if err != nil {
		return err
	}

	req := upgrade.Request{
		Auto:                  upgradeAuto,
		AuthoringToolRevision: upgradeAuthoringRev,
		FrameworkRevision:     upgradeFrameworkRev,
		DryRun:                upgradeDryRun,
	}

	modeChosen := req.Auto || req.AuthoringToolRevision != "" || req.FrameworkRevision != ""
	if !modeChosen {
		if !isInteractive() {
			return &upgrade.InvalidInputError{Reason: "no mode given; pass --auto or explicit revisions when not at a terminal"}
		}
		proceed, err := interactiveRequest(&req)
		if err != nil || !proceed {
			return err
		}
	}

	// First run fills in stock repository URLs so later runs can tell
	// forks apart from defaults.
	if config.EnsureRepositoryDefaults(srv.cfg) {
		if err := config.Save(srv.path, srv.cfg); err != nil {
			return fmt.Errorf("recording default repositories: %w", err)
		}
	}

	st, err := loadState(srv.root)
	if err != nil {
		return err
	}

	up := &upgrade.Upgrader{
		Config:     srv.cfg,
		ServerRoot: srv.root,
		Releases:   &release.Fetcher{URL: srv.cfg.ReleaseManifest},
		Repos:      &repo.Updater{},
		Log:        info,
	}

	if err := up.Validate(req); err != nil {
		return err
	}

	// The migration step dials on first use, so runs that end before it
	// never need the database.
	up.Migrations = &migration.DialRunner{Database: srv.cfg.Database, Timeout: dbTimeout, Log: detail}

	result, runErr := up.Run(ctx, st, req)

	// Components that really updated are recorded even when a later step
	// failed, so a rerun picks up from there.
	if result != nil && result.State != nil {
		if err := saveState(srv.root, result.State); err != nil {
			errorf("recording version state: %v", err)
			if runErr == nil {
				runErr = err
			}
		}
	}

	if runErr != nil {
		errorf("%v", runErr)
		return fmt.Errorf("upgrade was unsuccessful, check console output")
	}

	printResult(result, req)
	return nil
}

// interactiveRequest fills req by prompting. Returns false when the user
// declines or selects nothing, which is not an error.
func interactiveRequest(req *upgrade.Request) (bool, error) {
	if !upgradeYes && !confirm("This will update the Studio server and its courseware framework. Continue? [y/N] ") {
		info("Aborted.")
		return false, nil
	}

	if confirmDefaultYes("Determine the latest release automatically? [Y/n] ") {
		req.Auto = true
		return true, nil
	}

	req.AuthoringToolRevision = prompt("Authoring tool revision (blank to skip): ")
	req.FrameworkRevision = prompt("Framework revision (blank to skip): ")
	if req.AuthoringToolRevision == "" && req.FrameworkRevision == "" {
		info("Nothing to upgrade.")
		return false, nil
	}
	return true, nil
}

func printResult(result *upgrade.Result, req upgrade.Request) {
	if result.UpToDate {
		info("Already up to date.")
		return
	}

	if req.DryRun {
		info("Dry run. Nothing was changed. Would update:")
		for _, u := range result.Updated {
			info("  %-15s %s", u.Component, u.Revision)
		}
		return
	}

	for _, u := range result.Updated {
		detail("%s now at %s", u.Component, u.Revision)
	}

	if result.MigrationsApplied == 0 {
		info("No migrations to run")
	} else {
		info("%d migrations ran successfully", result.MigrationsApplied)
	}

	if result.Version != "" {
		info("Upgrade to %s complete. Your installation is now up to date.", result.Version)
	} else {
		info("Upgrade complete.")
	}
}

func init() {
	rootCmd.Flags().BoolVar(&upgradeAuto, "auto", false, "upgrade to the latest published release")
	rootCmd.Flags().StringVar(&upgradeAuthoringRev, "authoring-tool", "", "git revision to update the authoring tool to")
	rootCmd.Flags().StringVar(&upgradeFrameworkRev, "framework", "", "git revision to update the framework to")
	rootCmd.Flags().BoolVar(&upgradeDryRun, "dry-run", false, "show what would be updated without touching anything")
	rootCmd.Flags().BoolVar(&upgradeYes, "yes", false, "skip interactive confirmation")
}
