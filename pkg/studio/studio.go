// Package studio provides the public Go library API for the Bianoble
// Studio upgrade machinery.
//
// studio-upgrade keeps an authoring server and its courseware framework
// in step with published releases. This package exposes the same
// pipeline for embedding in other Go programs.
//
// # Basic Usage
//
//	client, err := studio.New(studio.Options{
//	    ServerRoot: "/srv/studio",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// See whether a newer release is published.
//	info, err := client.CheckForUpdates(ctx)
//
//	// Bring the install up to the latest release.
//	result, err := client.Upgrade(ctx, studio.UpgradeOptions{Auto: true})
package studio

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bianoble/studio/internal/config"
	"github.com/bianoble/studio/internal/doctor"
	"github.com/bianoble/studio/internal/editor"
	"github.com/bianoble/studio/internal/migration"
	"github.com/bianoble/studio/internal/mongo"
	"github.com/bianoble/studio/internal/release"
	"github.com/bianoble/studio/internal/repo"
	"github.com/bianoble/studio/internal/state"
	"github.com/bianoble/studio/internal/upgrade"
)

// UpgradeOptions configures an upgrade operation.
type UpgradeOptions struct {
	// Auto resolves the latest published release and upgrades to it.
	Auto bool

	// AuthoringToolRevision and FrameworkRevision pin components to
	// explicit git revisions instead. Leave one empty to skip it.
	AuthoringToolRevision string
	FrameworkRevision     string

	// DryRun reports what would be updated without touching anything.
	DryRun bool
}

// Options configures a studio client.
type Options struct {
	// ServerRoot is the Studio server checkout. If empty, it is derived
	// from the directory containing ConfigPath.
	ServerRoot string

	// ConfigPath is the path to the settings file.
	// Default: "conf/studio.yaml" under ServerRoot.
	ConfigPath string

	// DBTimeout bounds MongoDB dialing and pings.
	// Default: mongo.DefaultTimeout.
	DBTimeout time.Duration
}

// Client is the main entry point for the studio upgrade library.
type Client struct {
	serverRoot string
	configPath string
	dbTimeout  time.Duration
}

// New creates a new studio Client.
func New(opts Options) (*Client, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = filepath.Join(opts.ServerRoot, config.DefaultRelPath)
	}

	root := opts.ServerRoot
	if root == "" {
		derived, err := config.ServerRootFor(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("resolving settings path: %w", err)
		}
		root = derived
	}

	timeout := opts.DBTimeout
	if timeout == 0 {
		timeout = mongo.DefaultTimeout
	}

	return &Client{
		serverRoot: root,
		configPath: cfgPath,
		dbTimeout:  timeout,
	}, nil
}

func (c *Client) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	config.EnsureRepositoryDefaults(cfg)
	return cfg, nil
}

func (c *Client) statePath() string {
	return state.PathFor(c.serverRoot)
}

// State returns the recorded install state. A server that has never been
// upgraded through this tool yields a zero state.
func (c *Client) State() (*State, error) {
	return state.Load(c.statePath())
}

func (c *Client) fetcher(cfg *config.Config) *release.Fetcher {
	return &release.Fetcher{URL: cfg.ReleaseManifest}
}

// CheckForUpdates compares the installed release against the published
// manifest. A nil UpdateInfo means the install is current.
func (c *Client) CheckForUpdates(ctx context.Context) (*UpdateInfo, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := c.State()
	if err != nil {
		return nil, err
	}
	return c.fetcher(cfg).Check(ctx, st.AuthoringTool.Version)
}

// Upgrade runs the upgrade pipeline and persists the resulting install
// state. Components that updated are recorded even when a later step
// fails, so a rerun picks up where this one stopped.
func (c *Client) Upgrade(ctx context.Context, opts UpgradeOptions) (*Result, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := c.State()
	if err != nil {
		return nil, err
	}

	up := &upgrade.Upgrader{
		Config:     cfg,
		ServerRoot: c.serverRoot,
		Releases:   c.fetcher(cfg),
		Repos:      &repo.Updater{},
	}

	req := upgrade.Request{
		Auto:                  opts.Auto,
		AuthoringToolRevision: opts.AuthoringToolRevision,
		FrameworkRevision:     opts.FrameworkRevision,
		DryRun:                opts.DryRun,
	}
	if err := up.Validate(req); err != nil {
		return nil, err
	}

	// The migration step dials on first use, so runs that end before it
	// never need the database.
	up.Migrations = &migration.DialRunner{Database: cfg.Database, Timeout: c.dbTimeout}

	result, runErr := up.Run(ctx, st, req)

	if result != nil && result.State != nil {
		if err := state.Save(c.statePath(), result.State); err != nil {
			if runErr != nil {
				return result, fmt.Errorf("%w (version state not saved: %v)", runErr, err)
			}
			return result, fmt.Errorf("saving version state: %w", err)
		}
	}

	return result, runErr
}

// PendingMigrations lists the data migrations an upgrade would apply, in
// run order.
func (c *Client) PendingMigrations(ctx context.Context) ([]string, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	session, db, err := mongo.Dial(cfg.Database, c.dbTimeout)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	runner := &migration.Runner{
		DB:         db,
		Store:      migration.NewChangelogStore(db),
		Migrations: migration.All(),
	}
	return runner.Pending(ctx)
}

// Migrate applies pending data migrations without updating any
// repositories. Returns the number applied.
func (c *Client) Migrate(ctx context.Context) (int, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return 0, err
	}
	session, db, err := mongo.Dial(cfg.Database, c.dbTimeout)
	if err != nil {
		return 0, err
	}
	defer session.Close()

	runner := &migration.Runner{
		DB:         db,
		Store:      migration.NewChangelogStore(db),
		Migrations: migration.All(),
	}
	return runner.Run(ctx)
}

// Doctor checks the environment an upgrade depends on: git, the working
// directory, and the database. It reports every failure rather than
// stopping at the first.
func (c *Client) Doctor(ctx context.Context) ([]CheckResult, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	checker := &doctor.Checker{DBTimeout: c.dbTimeout}
	return checker.Check(ctx, cfg, c.serverRoot), nil
}

// OpenEditor wires a component editor to the server's database and a
// fresh event bus. The outline resolves ancestor entities for the parent
// chooser and may be nil. The returned close function releases the
// database session and must be called when the editor is done.
func (c *Client) OpenEditor(outline Outline) (*Editor, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	session, db, err := mongo.Dial(cfg.Database, c.dbTimeout)
	if err != nil {
		return nil, nil, err
	}

	ed := &Editor{
		Bus:     editor.NewBus(),
		Store:   editor.NewComponentStore(db),
		Outline: outline,
	}
	closeFn := func() {
		ed.Close()
		session.Close()
	}
	return ed, closeFn, nil
}
