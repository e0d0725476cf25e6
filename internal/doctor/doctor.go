// Package doctor verifies that a server has everything an upgrade needs
// before anything is touched.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/juju/version/v2"

	"github.com/bianoble/studio/internal/config"
	"github.com/bianoble/studio/internal/mongo"
	"github.com/bianoble/studio/internal/repo"
)

// MinGitVersion is the oldest git the updater is tested against. Older
// versions lack flags the checkout sequence uses.
var MinGitVersion = version.MustParse("2.0.0")

// MissingDependencyError reports a required external tool that is absent.
type MissingDependencyError struct {
	Name string
	Hint string
}

func (e *MissingDependencyError) Error() string {
	msg := fmt.Sprintf("required dependency %s not found", e.Name)
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Name   string
	Detail string
	Err    error
}

// OK reports whether the probe passed.
func (r CheckResult) OK() bool { return r.Err == nil }

// Healthy reports whether every probe passed.
func Healthy(results []CheckResult) bool {
	for _, r := range results {
		if !r.OK() {
			return false
		}
	}
	return true
}

// Checker probes the upgrade environment. The function fields exist for
// tests; nil fields use the real implementations.
type Checker struct {
	LookPath  func(file string) (string, error)
	Run       func(ctx context.Context, name string, args ...string) (string, error)
	PingDB    func(cfg config.Database, timeout time.Duration) error
	DBTimeout time.Duration
}

// Check runs every probe and returns their results in a fixed order. It
// never stops early: a report with every failure beats one failure at a
// time.
func (c *Checker) Check(ctx context.Context, cfg *config.Config, serverRoot string) []CheckResult {
	return []CheckResult{
		c.checkGit(ctx),
		c.checkWorkdir(cfg, serverRoot),
		c.checkDatabase(cfg),
	}
}

// CheckGit probes only the git installation. The upgrade command runs
// this before anything else so a missing tool fails fast.
func (c *Checker) CheckGit(ctx context.Context) CheckResult {
	return c.checkGit(ctx)
}

func (c *Checker) checkGit(ctx context.Context) CheckResult {
	result := CheckResult{Name: "git"}

	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath("git"); err != nil {
		result.Err = &MissingDependencyError{Name: "git", Hint: "install git 2.0 or newer and ensure it is on PATH"}
		return result
	}

	run := c.Run
	if run == nil {
		run = runCommand
	}
	out, err := run(ctx, "git", "version")
	if err != nil {
		result.Err = fmt.Errorf("running git version: %w", err)
		return result
	}

	ver, err := parseGitVersion(out)
	if err != nil {
		result.Err = err
		return result
	}
	result.Detail = ver.String()

	if ver.Compare(MinGitVersion) < 0 {
		result.Err = fmt.Errorf("git %s is older than the minimum supported %s", ver, MinGitVersion)
	}
	return result
}

func (c *Checker) checkWorkdir(cfg *config.Config, serverRoot string) CheckResult {
	w := repo.For(serverRoot, cfg.TempDir, cfg.MasterTenant)
	result := CheckResult{Name: "workdir", Detail: w.TenantDir()}

	// A diagnostic must not provision anything; Probe leaves the tree as
	// it found it.
	if err := w.Probe(); err != nil {
		result.Err = err
	}
	return result
}

func (c *Checker) checkDatabase(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "database", Detail: cfg.Database.URI}

	ping := c.PingDB
	if ping == nil {
		ping = mongo.Ping
	}
	timeout := c.DBTimeout
	if timeout <= 0 {
		timeout = mongo.DefaultTimeout
	}

	if err := ping(cfg.Database, timeout); err != nil {
		result.Err = err
	}
	return result
}

// parseGitVersion extracts the version number from "git version 2.43.0"
// style output. Build suffixes like 2.43.0.windows.1 are dropped.
func parseGitVersion(out string) (version.Number, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) < 3 || fields[0] != "git" || fields[1] != "version" {
		return version.Zero, fmt.Errorf("unrecognized git version output %q", strings.TrimSpace(out))
	}

	parts := strings.Split(fields[2], ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	ver, err := version.Parse(strings.Join(parts, "."))
	if err != nil {
		return version.Zero, fmt.Errorf("unrecognized git version %q", fields[2])
	}
	return ver, nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}
