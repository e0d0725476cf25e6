package migration

import (
	"context"
	"fmt"
	"sort"

	"github.com/juju/mgo/v3"
)

// ApplyError identifies the migration whose apply function failed.
type ApplyError struct {
	Name string
	Err  error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("migration %s: %v", e.Name, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Runner applies the configured migrations in order, skipping those already
// recorded as up.
type Runner struct {
	DB         *mgo.Database
	Store      Store
	Migrations []Migration
	Log        func(format string, args ...any)
}

// Run applies every pending migration in list order and returns how many
// applied. The first failure aborts the run; migrations applied before the
// failure keep their up records, so a rerun resumes where this one stopped.
func (r *Runner) Run(ctx context.Context) (int, error) {
	states, err := r.sync()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range r.Migrations {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if states[m.Name] == StateUp {
			continue
		}

		r.logf("applying migration %s", m.Name)
		if err := m.Apply(r.DB); err != nil {
			return applied, &ApplyError{Name: m.Name, Err: err}
		}
		if err := r.Store.SetState(m.Name, StateUp); err != nil {
			return applied, fmt.Errorf("recording migration %s: %w", m.Name, err)
		}
		applied++
	}

	return applied, nil
}

// Pending returns the names of migrations that would apply, in run order.
func (r *Runner) Pending(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	states, err := r.sync()
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, m := range r.Migrations {
		if states[m.Name] != StateUp {
			pending = append(pending, m.Name)
		}
	}
	return pending, nil
}

// Entry describes one migration's standing for status displays.
type Entry struct {
	Name  string
	State string

	// Known is false for changelog records no migration in this binary
	// matches, usually ones written by a newer build.
	Known bool
}

// List reports every migration in run order with its recorded state,
// followed by unmatched changelog records sorted by name.
func (r *Runner) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	states, err := r.sync()
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(r.Migrations))
	entries := make([]Entry, 0, len(states))
	for _, m := range r.Migrations {
		known[m.Name] = true
		state := states[m.Name]
		if state == "" {
			state = StateDown
		}
		entries = append(entries, Entry{Name: m.Name, State: state, Known: true})
	}

	var unknown []Entry
	for name, state := range states {
		if !known[name] {
			unknown = append(unknown, Entry{Name: name, State: state})
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i].Name < unknown[j].Name })

	return append(entries, unknown...), nil
}

// sync validates the list, seeds missing changelog records, and returns the
// recorded state per name. Changelog records with no matching migration are
// left untouched; they belong to a newer binary than this one.
func (r *Runner) sync() (map[string]string, error) {
	if err := validate(r.Migrations); err != nil {
		return nil, err
	}

	names := make([]string, len(r.Migrations))
	for i, m := range r.Migrations {
		names[i] = m.Name
	}
	if err := r.Store.Sync(names); err != nil {
		return nil, err
	}

	records, err := r.Store.Records()
	if err != nil {
		return nil, err
	}
	states := make(map[string]string, len(records))
	for _, rec := range records {
		states[rec.Name] = rec.State
	}
	return states, nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.Log != nil {
		r.Log(format, args...)
	}
}
