// Package upgrade orchestrates moving a server to new component revisions.
package upgrade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bianoble/studio/internal/config"
	"github.com/bianoble/studio/internal/release"
	"github.com/bianoble/studio/internal/repo"
	"github.com/bianoble/studio/internal/state"
)

// Component display names, also used in state reporting.
const (
	ComponentAuthoringTool = "authoring tool"
	ComponentFramework     = "framework"
)

// ReleaseSource reports whether an installed version has an update.
type ReleaseSource interface {
	Check(ctx context.Context, installed string) (*release.UpdateInfo, error)
}

// RepoUpdater moves component checkouts to revisions.
type RepoUpdater interface {
	Update(ctx context.Context, t repo.Target) error
	Revision(ctx context.Context, dir string) (string, error)
}

// MigrationRunner applies pending data migrations.
type MigrationRunner interface {
	Run(ctx context.Context) (int, error)
}

// Request describes one upgrade. Auto asks the release manifest for the
// revisions; otherwise the explicit revisions are used and components with
// an empty revision are left alone.
type Request struct {
	Auto                  bool
	AuthoringToolRevision string
	FrameworkRevision     string
	DryRun                bool
}

// ComponentUpdate records one component the upgrade moved.
type ComponentUpdate struct {
	Component string
	Revision  string
	Directory string
}

// Result is the outcome of an upgrade run.
type Result struct {
	// UpToDate is set when an automatic run found nothing to do. Nothing
	// was touched.
	UpToDate bool

	// Version is the release moved to, when the manifest chose it.
	Version string

	// Updated lists components in the order they were updated.
	Updated []ComponentUpdate

	// MigrationsApplied counts migrations that completed, even when a
	// later one failed.
	MigrationsApplied int

	// State is what the caller should persist as the installed state. It
	// reflects components that really updated, so it is worth saving even
	// when the run as a whole failed. Nil when nothing changed.
	State *state.State
}

// Upgrader runs the upgrade pipeline: authoring tool checkout, framework
// checkout, then data migrations, stopping at the first failure. Migrations
// may be nil for dry runs, which never reach them.
type Upgrader struct {
	Config     *config.Config
	ServerRoot string
	Releases   ReleaseSource
	Repos      RepoUpdater
	Migrations MigrationRunner
	Log        func(format string, args ...any)
}

// Run executes one upgrade against the given installed state.
func (u *Upgrader) Run(ctx context.Context, current *state.State, req Request) (*Result, error) {
	if err := u.Validate(req); err != nil {
		return nil, err
	}

	result := &Result{}

	authoringRev := req.AuthoringToolRevision
	frameworkRev := req.FrameworkRevision

	if req.Auto {
		info, err := u.Releases.Check(ctx, current.AuthoringTool.Version)
		if err != nil {
			return nil, fmt.Errorf("checking for updates: %w", err)
		}
		if info == nil {
			result.UpToDate = true
			return result, nil
		}
		result.Version = info.Version
		authoringRev = info.AuthoringToolRevision
		frameworkRev = info.FrameworkRevision
	}

	workdir := repo.For(u.ServerRoot, u.Config.TempDir, u.Config.MasterTenant)

	targets := []repo.Target{}
	if authoringRev != "" {
		targets = append(targets, repo.Target{
			Component:  ComponentAuthoringTool,
			Repository: u.Config.AuthoringToolRepository,
			Revision:   authoringRev,
			Directory:  u.ServerRoot,
		})
	}
	if frameworkRev != "" {
		targets = append(targets, repo.Target{
			Component:  ComponentFramework,
			Repository: u.Config.FrameworkRepository,
			Revision:   frameworkRev,
			Directory:  workdir.FrameworkDir(),
		})
	}

	if req.DryRun {
		for _, t := range targets {
			result.Updated = append(result.Updated, ComponentUpdate{
				Component: t.Component,
				Revision:  t.Revision,
				Directory: t.Directory,
			})
		}
		return result, nil
	}

	newState := *current
	result.State = &newState

	for _, t := range targets {
		if t.Component == ComponentFramework {
			if err := workdir.Ensure(); err != nil {
				return result, err
			}
		}

		u.logf("updating %s to %s", t.Component, t.Revision)
		if err := u.Repos.Update(ctx, t); err != nil {
			return result, err
		}

		resolved, err := u.Repos.Revision(ctx, t.Directory)
		if err != nil {
			return result, fmt.Errorf("%s updated but its checkout is unreadable: %w", t.Component, err)
		}

		recorded := state.ComponentState{
			Version:   result.Version,
			Revision:  resolved,
			UpdatedAt: time.Now().UTC(),
		}
		switch t.Component {
		case ComponentAuthoringTool:
			newState.AuthoringTool = recorded
		case ComponentFramework:
			newState.Framework = recorded
		}

		result.Updated = append(result.Updated, ComponentUpdate{
			Component: t.Component,
			Revision:  t.Revision,
			Directory: t.Directory,
		})
	}

	if u.Migrations != nil {
		u.logf("running data migrations")
		applied, err := u.Migrations.Run(ctx)
		result.MigrationsApplied = applied
		if err != nil {
			return result, fmt.Errorf("running migrations: %w", err)
		}
	}

	return result, nil
}

// Validate rejects malformed or unsupported requests. Run performs the
// same checks; callers with expensive collaborators to set up can call
// this first and fail before connecting anything.
func (u *Upgrader) Validate(req Request) error {
	if req.Auto {
		if req.AuthoringToolRevision != "" || req.FrameworkRevision != "" {
			return &InvalidInputError{Reason: "explicit revisions cannot be combined with automatic mode"}
		}
		if custom := config.CustomRepositories(u.Config); len(custom) > 0 {
			return &UnsupportedConfigurationError{Repositories: custom}
		}
		return nil
	}

	if req.AuthoringToolRevision == "" && req.FrameworkRevision == "" {
		return &InvalidInputError{Reason: "no revisions given; nothing to upgrade"}
	}
	for _, rev := range []string{req.AuthoringToolRevision, req.FrameworkRevision} {
		if rev == "" {
			continue
		}
		if strings.HasPrefix(rev, "-") || strings.ContainsAny(rev, " \t\n") {
			return &InvalidInputError{Reason: fmt.Sprintf("revision %q is not a valid git ref", rev)}
		}
	}
	return nil
}

func (u *Upgrader) logf(format string, args ...any) {
	if u.Log != nil {
		u.Log(format, args...)
	}
}
