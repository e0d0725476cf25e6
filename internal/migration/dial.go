package migration

import (
	"context"
	"time"

	"github.com/bianoble/studio/internal/config"
	"github.com/bianoble/studio/internal/mongo"
)

// DialRunner applies the shipped migrations over a database connection it
// opens on first use. Upgrade runs that end before the migration step —
// already up to date, a failed checkout — never touch the database.
type DialRunner struct {
	Database config.Database
	Timeout  time.Duration
	Log      func(format string, args ...any)
}

// Run dials the configured database, applies pending migrations, and
// closes the session.
func (d *DialRunner) Run(ctx context.Context) (int, error) {
	session, db, err := mongo.Dial(d.Database, d.Timeout)
	if err != nil {
		return 0, err
	}
	defer session.Close()

	r := &Runner{
		DB:         db,
		Store:      NewChangelogStore(db),
		Migrations: All(),
		Log:        d.Log,
	}
	return r.Run(ctx)
}
