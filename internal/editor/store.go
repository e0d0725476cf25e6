package editor

import (
	"fmt"
	"time"

	"github.com/juju/mgo/v3"
	"github.com/juju/mgo/v3/bson"
)

// Component is one editable content block of a course.
type Component struct {
	ID        bson.ObjectId `bson:"_id,omitempty"`
	CourseID  bson.ObjectId `bson:"_courseId,omitempty"`
	ParentID  bson.ObjectId `bson:"_parentId,omitempty"`
	Title     string        `bson:"title"`
	Layout    string        `bson:"layout,omitempty"`
	Body      string        `bson:"body,omitempty"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

// Store persists edited components.
type Store interface {
	Save(c *Component) error
}

// NewComponentStore returns a Store writing to the components collection.
func NewComponentStore(db *mgo.Database) Store {
	return &componentStore{db: db}
}

type componentStore struct {
	db *mgo.Database
}

func (s *componentStore) Save(c *Component) error {
	if !c.ID.Valid() {
		c.ID = bson.NewObjectId()
	}
	if _, err := s.db.C("components").UpsertId(c.ID, c); err != nil {
		return fmt.Errorf("saving component %s: %w", c.ID.Hex(), err)
	}
	return nil
}
