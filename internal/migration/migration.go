// Package migration applies ordered data migrations to the studio database.
//
// Every migration that has ever shipped stays in the list returned by All,
// in the order it shipped. The changelog collection records which ones a
// deployment has applied, so the same binary can bring any older database
// forward.
package migration

import (
	"fmt"

	"github.com/juju/mgo/v3"
)

// A Migration changes stored data in place. Apply must be idempotent:
// an interrupted upgrade reruns the whole list and relies on reapplication
// being safe.
type Migration struct {
	Name  string
	Apply func(db *mgo.Database) error
}

func validate(migrations []Migration) error {
	seen := make(map[string]bool, len(migrations))
	for i, m := range migrations {
		if m.Name == "" {
			return fmt.Errorf("migration %d has no name", i)
		}
		if m.Apply == nil {
			return fmt.Errorf("migration %s has no apply function", m.Name)
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate migration name %s", m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}
