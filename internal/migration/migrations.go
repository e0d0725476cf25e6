package migration

import (
	"fmt"
	"time"

	"github.com/juju/mgo/v3"
	"github.com/juju/mgo/v3/bson"
)

// All returns every migration that has shipped, oldest first. Append only:
// renaming or reordering entries would desync existing changelogs.
func All() []Migration {
	return []Migration{
		{Name: "0001-component-course-index", Apply: addComponentCourseIndex},
		{Name: "0002-course-updated-at", Apply: backfillCourseUpdatedAt},
		{Name: "0003-prune-orphan-components", Apply: pruneOrphanComponents},
		{Name: "0004-drop-legacy-sessions", Apply: dropLegacySessions},
	}
}

// The editor loads all components of a course on every open. Older
// deployments predate the index that query relies on.
func addComponentCourseIndex(db *mgo.Database) error {
	return db.C("components").EnsureIndex(mgo.Index{
		Key:        []string{"_courseId"},
		Background: true,
	})
}

// Courses created before sorting by recency existed have no updatedAt.
// Seed it from createdAt so list views never special-case missing values.
func backfillCourseUpdatedAt(db *mgo.Database) error {
	coll := db.C("courses")
	iter := coll.Find(bson.M{"updatedAt": bson.M{"$exists": false}}).
		Select(bson.M{"_id": 1, "createdAt": 1}).Iter()

	var doc struct {
		ID        bson.ObjectId `bson:"_id"`
		CreatedAt time.Time     `bson:"createdAt"`
	}
	for iter.Next(&doc) {
		at := doc.CreatedAt
		if at.IsZero() {
			at = time.Now().UTC()
		}
		if err := coll.UpdateId(doc.ID, bson.M{"$set": bson.M{"updatedAt": at}}); err != nil {
			return fmt.Errorf("course %s: %w", doc.ID.Hex(), err)
		}
	}
	return iter.Close()
}

// Course deletion used to leave the course's components behind.
func pruneOrphanComponents(db *mgo.Database) error {
	var courses []struct {
		ID bson.ObjectId `bson:"_id"`
	}
	if err := db.C("courses").Find(nil).Select(bson.M{"_id": 1}).All(&courses); err != nil {
		return fmt.Errorf("listing courses: %w", err)
	}

	ids := make([]bson.ObjectId, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}

	_, err := db.C("components").RemoveAll(bson.M{"_courseId": bson.M{"$nin": ids}})
	return err
}

// Sessions moved into the application store; the old collection is dead
// weight on backups.
func dropLegacySessions(db *mgo.Database) error {
	names, err := db.CollectionNames()
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	for _, name := range names {
		if name == "sessions_legacy" {
			return db.C(name).DropCollection()
		}
	}
	return nil
}
