package upgrade

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bianoble/studio/internal/config"
	"github.com/bianoble/studio/internal/release"
	"github.com/bianoble/studio/internal/repo"
	"github.com/bianoble/studio/internal/state"
)

type fakeReleases struct {
	info      *release.UpdateInfo
	err       error
	calls     int
	installed string
}

func (f *fakeReleases) Check(ctx context.Context, installed string) (*release.UpdateInfo, error) {
	f.calls++
	f.installed = installed
	return f.info, f.err
}

type fakeRepos struct {
	updated []repo.Target
	failOn  string
}

func (f *fakeRepos) Update(ctx context.Context, t repo.Target) error {
	if t.Component == f.failOn {
		return &repo.UpdateError{Component: t.Component, Directory: t.Directory, Revision: t.Revision,
			Err: errors.New("checkout failed")}
	}
	f.updated = append(f.updated, t)
	return nil
}

func (f *fakeRepos) Revision(ctx context.Context, dir string) (string, error) {
	return "sha-" + strings.ReplaceAll(dir, "/", "_"), nil
}

type fakeMigrations struct {
	applied int
	err     error
	calls   int
}

func (f *fakeMigrations) Run(ctx context.Context) (int, error) {
	f.calls++
	return f.applied, f.err
}

func defaultConfig() *config.Config {
	cfg := &config.Config{
		MasterTenant: "tenant-a",
		TempDir:      "temp",
		Database:     config.Database{URI: "mongodb://localhost:27017/studio", Name: "studio"},
	}
	config.EnsureRepositoryDefaults(cfg)
	return cfg
}

func newUpgrader(t *testing.T, cfg *config.Config) (*Upgrader, *fakeReleases, *fakeRepos, *fakeMigrations) {
	t.Helper()
	releases := &fakeReleases{}
	repos := &fakeRepos{}
	migrations := &fakeMigrations{}
	u := &Upgrader{
		Config:     cfg,
		ServerRoot: t.TempDir(),
		Releases:   releases,
		Repos:      repos,
		Migrations: migrations,
	}
	return u, releases, repos, migrations
}

func TestAutoRejectsCustomRepositories(t *testing.T) {
	cfg := defaultConfig()
	cfg.FrameworkRepository = "https://git.example.com/fork.git"

	u, releases, repos, migrations := newUpgrader(t, cfg)
	_, err := u.Run(context.Background(), &state.State{}, Request{Auto: true})
	if err == nil {
		t.Fatal("expected error")
	}

	var uce *UnsupportedConfigurationError
	if !errors.As(err, &uce) {
		t.Fatalf("error type = %T, want *UnsupportedConfigurationError", err)
	}
	if len(uce.Repositories) != 1 || uce.Repositories[0] != "frameworkRepository" {
		t.Errorf("repositories = %v", uce.Repositories)
	}

	if releases.calls != 0 || len(repos.updated) != 0 || migrations.calls != 0 {
		t.Error("nothing should run after a rejected request")
	}
}

func TestManualRequiresARevision(t *testing.T) {
	u, _, repos, _ := newUpgrader(t, defaultConfig())

	_, err := u.Run(context.Background(), &state.State{}, Request{})
	if err == nil {
		t.Fatal("expected error")
	}

	var iie *InvalidInputError
	if !errors.As(err, &iie) {
		t.Fatalf("error type = %T, want *InvalidInputError", err)
	}
	if len(repos.updated) != 0 {
		t.Error("nothing should update")
	}
}

func TestAutoRejectsExplicitRevisions(t *testing.T) {
	u, releases, _, _ := newUpgrader(t, defaultConfig())

	_, err := u.Run(context.Background(), &state.State{}, Request{Auto: true, FrameworkRevision: "v5.45.1"})
	var iie *InvalidInputError
	if !errors.As(err, &iie) {
		t.Fatalf("error = %v, want *InvalidInputError", err)
	}
	if releases.calls != 0 {
		t.Error("manifest should not be consulted")
	}
}

func TestManualRejectsMalformedRevisions(t *testing.T) {
	tests := []struct {
		name string
		rev  string
	}{
		{"leading_dash", "--force"},
		{"embedded_space", "v1.9.0 extra"},
		{"newline", "v1.9.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, _, repos, _ := newUpgrader(t, defaultConfig())
			_, err := u.Run(context.Background(), &state.State{}, Request{FrameworkRevision: tt.rev})

			var iie *InvalidInputError
			if !errors.As(err, &iie) {
				t.Fatalf("error = %v, want *InvalidInputError", err)
			}
			if len(repos.updated) != 0 {
				t.Error("nothing should update")
			}
		})
	}
}

func TestAutoUpToDate(t *testing.T) {
	u, releases, repos, migrations := newUpgrader(t, defaultConfig())
	current := &state.State{AuthoringTool: state.ComponentState{Version: "1.9.0"}}

	result, err := u.Run(context.Background(), current, Request{Auto: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.UpToDate {
		t.Error("expected UpToDate")
	}
	if result.State != nil {
		t.Error("no state change expected")
	}
	if releases.installed != "1.9.0" {
		t.Errorf("installed version passed to check = %q", releases.installed)
	}
	if len(repos.updated) != 0 || migrations.calls != 0 {
		t.Error("nothing should run when up to date")
	}
}

func TestAutoUpgradeRunsFullPipeline(t *testing.T) {
	u, releases, repos, migrations := newUpgrader(t, defaultConfig())
	releases.info = &release.UpdateInfo{
		Version:               "1.9.0",
		AuthoringToolRevision: "v1.9.0",
		FrameworkRevision:     "v5.45.1",
	}
	migrations.applied = 3

	current := &state.State{AuthoringTool: state.ComponentState{Version: "1.8.2"}}
	result, err := u.Run(context.Background(), current, Request{Auto: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.UpToDate {
		t.Error("should not report up to date")
	}
	if result.Version != "1.9.0" {
		t.Errorf("version = %q", result.Version)
	}
	if len(repos.updated) != 2 {
		t.Fatalf("updated components = %d, want 2", len(repos.updated))
	}
	if repos.updated[0].Component != ComponentAuthoringTool {
		t.Errorf("first component = %q, want authoring tool", repos.updated[0].Component)
	}
	if repos.updated[0].Directory != u.ServerRoot {
		t.Errorf("authoring tool directory = %q, want server root", repos.updated[0].Directory)
	}
	if repos.updated[1].Component != ComponentFramework {
		t.Errorf("second component = %q, want framework", repos.updated[1].Component)
	}
	if !strings.HasSuffix(repos.updated[1].Directory, "courseware") {
		t.Errorf("framework directory = %q", repos.updated[1].Directory)
	}
	if migrations.calls != 1 {
		t.Errorf("migration runs = %d, want 1", migrations.calls)
	}
	if result.MigrationsApplied != 3 {
		t.Errorf("migrations applied = %d, want 3", result.MigrationsApplied)
	}

	if result.State == nil {
		t.Fatal("state should be recorded")
	}
	if result.State.AuthoringTool.Version != "1.9.0" {
		t.Errorf("recorded authoring tool version = %q", result.State.AuthoringTool.Version)
	}
	if result.State.Framework.Revision == "" {
		t.Error("framework revision should be recorded")
	}
	if result.State.AuthoringTool.UpdatedAt.IsZero() {
		t.Error("updatedAt should be set")
	}
}

func TestManualSingleComponent(t *testing.T) {
	u, releases, repos, _ := newUpgrader(t, defaultConfig())
	current := &state.State{
		AuthoringTool: state.ComponentState{Version: "1.8.2", Revision: "oldsha"},
	}

	result, err := u.Run(context.Background(), current, Request{FrameworkRevision: "v5.45.1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if releases.calls != 0 {
		t.Error("manifest should not be consulted in manual mode")
	}
	if len(repos.updated) != 1 || repos.updated[0].Component != ComponentFramework {
		t.Fatalf("updated = %+v, want framework only", repos.updated)
	}

	// The untouched component keeps its recorded state.
	if result.State.AuthoringTool.Revision != "oldsha" {
		t.Errorf("authoring tool state = %+v, should be untouched", result.State.AuthoringTool)
	}
	// A manual move has no release version to record.
	if result.State.Framework.Version != "" {
		t.Errorf("framework version = %q, want empty for manual revision", result.State.Framework.Version)
	}
}

func TestAuthoringToolFailureStopsPipeline(t *testing.T) {
	u, _, repos, migrations := newUpgrader(t, defaultConfig())
	repos.failOn = ComponentAuthoringTool

	result, err := u.Run(context.Background(), &state.State{}, Request{
		AuthoringToolRevision: "v1.9.0",
		FrameworkRevision:     "v5.45.1",
	})
	if err == nil {
		t.Fatal("expected failure")
	}

	var ue *repo.UpdateError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T, want *repo.UpdateError", err)
	}
	if len(repos.updated) != 0 {
		t.Errorf("framework must not update after the authoring tool fails, got %+v", repos.updated)
	}
	if migrations.calls != 0 {
		t.Error("migrations must not run")
	}
	if len(result.Updated) != 0 {
		t.Errorf("result.Updated = %+v, want empty", result.Updated)
	}
}

func TestFrameworkFailureKeepsAuthoringToolState(t *testing.T) {
	u, _, repos, migrations := newUpgrader(t, defaultConfig())
	repos.failOn = ComponentFramework

	result, err := u.Run(context.Background(), &state.State{}, Request{
		AuthoringToolRevision: "v1.9.0",
		FrameworkRevision:     "v5.45.1",
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if migrations.calls != 0 {
		t.Error("migrations must not run")
	}

	// The authoring tool really moved, and the returned state says so.
	if len(result.Updated) != 1 || result.Updated[0].Component != ComponentAuthoringTool {
		t.Fatalf("result.Updated = %+v", result.Updated)
	}
	if result.State == nil || result.State.AuthoringTool.Revision == "" {
		t.Error("authoring tool update should be recorded despite the failure")
	}
	if result.State.Framework.Revision != "" {
		t.Error("framework state must stay untouched")
	}
}

func TestMigrationFailureReportsPartialCount(t *testing.T) {
	u, _, _, migrations := newUpgrader(t, defaultConfig())
	migrations.applied = 2
	migrations.err = errors.New("index build failed")

	result, err := u.Run(context.Background(), &state.State{}, Request{FrameworkRevision: "v5.45.1"})
	if err == nil {
		t.Fatal("expected failure")
	}
	if result.MigrationsApplied != 2 {
		t.Errorf("migrations applied = %d, want 2", result.MigrationsApplied)
	}
	if !strings.Contains(err.Error(), "index build failed") {
		t.Errorf("error should carry the cause: %v", err)
	}
}

func TestDryRunTouchesNothing(t *testing.T) {
	u, releases, repos, migrations := newUpgrader(t, defaultConfig())
	releases.info = &release.UpdateInfo{
		Version:               "1.9.0",
		AuthoringToolRevision: "v1.9.0",
		FrameworkRevision:     "v5.45.1",
	}

	result, err := u.Run(context.Background(), &state.State{}, Request{Auto: true, DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Updated) != 2 {
		t.Fatalf("planned updates = %d, want 2", len(result.Updated))
	}
	if len(repos.updated) != 0 || migrations.calls != 0 {
		t.Error("dry run must not touch anything")
	}
	if result.State != nil {
		t.Error("dry run must not produce state")
	}
}

func TestReleaseCheckFailure(t *testing.T) {
	u, releases, repos, _ := newUpgrader(t, defaultConfig())
	releases.err = errors.New("manifest unreachable")

	_, err := u.Run(context.Background(), &state.State{}, Request{Auto: true})
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "manifest unreachable") {
		t.Errorf("error should carry the cause: %v", err)
	}
	if len(repos.updated) != 0 {
		t.Error("nothing should update")
	}
}
