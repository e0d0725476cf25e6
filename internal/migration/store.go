package migration

import (
	"fmt"
	"time"

	"github.com/juju/mgo/v3"
	"github.com/juju/mgo/v3/bson"
)

// Changelog states. A record starts down and moves to up exactly once, when
// its migration has applied successfully.
const (
	StateUp   = "up"
	StateDown = "down"
)

// changelogCollection is where applied-migration records live, next to the
// content collections they describe.
const changelogCollection = "migrations"

// Record is one changelog row.
type Record struct {
	Name      string    `bson:"name"`
	State     string    `bson:"state"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Store tracks which migrations a database has applied.
type Store interface {
	// Sync inserts a down record for every name that has none, leaving
	// existing records alone.
	Sync(names []string) error

	// Records returns every changelog row.
	Records() ([]Record, error)

	// SetState moves one record to the given state.
	SetState(name, state string) error
}

// NewChangelogStore returns a Store backed by the migrations collection.
func NewChangelogStore(db *mgo.Database) Store {
	return &changelogStore{db: db}
}

type changelogStore struct {
	db *mgo.Database
}

func (s *changelogStore) Sync(names []string) error {
	coll := s.db.C(changelogCollection)
	for _, name := range names {
		_, err := coll.Upsert(
			bson.M{"name": name},
			bson.M{"$setOnInsert": bson.M{
				"name":      name,
				"state":     StateDown,
				"updatedAt": time.Now().UTC(),
			}},
		)
		if err != nil {
			return fmt.Errorf("syncing changelog record %s: %w", name, err)
		}
	}
	return nil
}

func (s *changelogStore) Records() ([]Record, error) {
	var records []Record
	if err := s.db.C(changelogCollection).Find(nil).All(&records); err != nil {
		return nil, fmt.Errorf("reading changelog: %w", err)
	}
	return records, nil
}

func (s *changelogStore) SetState(name, state string) error {
	_, err := s.db.C(changelogCollection).Upsert(
		bson.M{"name": name},
		bson.M{"$set": bson.M{"state": state, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("recording changelog state for %s: %w", name, err)
	}
	return nil
}
