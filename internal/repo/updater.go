// Package repo moves component git checkouts to requested revisions.
package repo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Target names one checkout to update: which component it is, where its
// repository lives, the revision to end up on, and the directory holding
// the working tree.
type Target struct {
	Component  string
	Repository string
	Revision   string
	Directory  string
}

// UpdateError represents a failed checkout update for one component.
type UpdateError struct {
	Component string
	Directory string
	Revision  string
	Err       error
	Hint      string
}

func (e *UpdateError) Error() string {
	msg := fmt.Sprintf("updating %s in %s to %s: %s", e.Component, e.Directory, e.Revision, e.Err)
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// RunFunc executes git with the given arguments in dir and returns its
// combined output. dir may be empty for commands that name their own paths.
type RunFunc func(ctx context.Context, dir string, args ...string) (string, error)

// Updater clones or fast-forwards component checkouts. A nil Run uses the
// real git binary.
type Updater struct {
	Run RunFunc
}

// Update brings t.Directory to t.Revision. A missing or empty directory is
// cloned first; an existing checkout is fetched and force-checked-out so
// local edits never block an upgrade. The working tree is left detached at
// the revision.
func (u *Updater) Update(ctx context.Context, t Target) error {
	if t.Repository == "" {
		return &UpdateError{Component: t.Component, Directory: t.Directory, Revision: t.Revision,
			Err: fmt.Errorf("repository is required")}
	}
	if t.Revision == "" {
		return &UpdateError{Component: t.Component, Directory: t.Directory, Revision: t.Revision,
			Err: fmt.Errorf("revision is required")}
	}
	if t.Directory == "" {
		return &UpdateError{Component: t.Component, Revision: t.Revision,
			Err: fmt.Errorf("directory is required")}
	}

	run := u.Run
	if run == nil {
		run = gitRun
	}

	cloned, err := u.ensureCheckout(ctx, run, t)
	if err != nil {
		return err
	}

	if !cloned {
		if out, err := run(ctx, t.Directory, "fetch", "--tags", "--force", "origin"); err != nil {
			return &UpdateError{Component: t.Component, Directory: t.Directory, Revision: t.Revision,
				Err:  fmt.Errorf("git fetch failed: %s: %w", out, err),
				Hint: "check network connectivity and repository access"}
		}
	}

	// Branch names must follow origin, not a stale local branch left by an
	// earlier checkout. Tags and commit SHAs fall through to the plain name.
	rev := t.Revision
	if _, err := run(ctx, t.Directory, "rev-parse", "--verify", "--quiet", "origin/"+t.Revision); err == nil {
		rev = "origin/" + t.Revision
	}

	if out, err := run(ctx, t.Directory, "checkout", "--force", "--detach", rev); err != nil {
		return &UpdateError{Component: t.Component, Directory: t.Directory, Revision: t.Revision,
			Err:  fmt.Errorf("git checkout failed: %s: %w", out, err),
			Hint: "check that the revision exists in " + t.Repository}
	}

	return nil
}

// ensureCheckout makes t.Directory a clone of t.Repository. It reports
// whether a fresh clone happened, in which case no fetch is needed.
func (u *Updater) ensureCheckout(ctx context.Context, run RunFunc, t Target) (bool, error) {
	if _, err := os.Stat(filepath.Join(t.Directory, ".git")); err == nil {
		return false, nil
	}

	entries, err := os.ReadDir(t.Directory)
	if err == nil && len(entries) > 0 {
		return false, &UpdateError{Component: t.Component, Directory: t.Directory, Revision: t.Revision,
			Err:  fmt.Errorf("directory exists but is not a git checkout"),
			Hint: "move it aside or delete it, then run the upgrade again"}
	}

	if err := os.MkdirAll(filepath.Dir(t.Directory), 0755); err != nil {
		return false, &UpdateError{Component: t.Component, Directory: t.Directory, Revision: t.Revision,
			Err: fmt.Errorf("creating parent directory: %w", err)}
	}

	if out, err := run(ctx, "", "clone", "--no-checkout", t.Repository, t.Directory); err != nil {
		return false, &UpdateError{Component: t.Component, Directory: t.Directory, Revision: t.Revision,
			Err:  fmt.Errorf("git clone failed: %s: %w", out, err),
			Hint: "check the repository URL and authentication"}
	}

	return true, nil
}

// Revision returns the commit SHA the checkout is currently on.
func (u *Updater) Revision(ctx context.Context, dir string) (string, error) {
	run := u.Run
	if run == nil {
		run = gitRun
	}
	out, err := run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolving HEAD in %s: %w", dir, err)
	}
	return strings.TrimSpace(out), nil
}

func gitRun(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}
