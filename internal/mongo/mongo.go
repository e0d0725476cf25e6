// Package mongo dials the studio database.
package mongo

import (
	"fmt"
	"time"

	"github.com/juju/mgo/v3"

	"github.com/bianoble/studio/internal/config"
)

// DefaultTimeout bounds the initial dial. Upgrades run unattended from
// deployment scripts, so a dead database should fail fast instead of
// hanging the pipeline.
const DefaultTimeout = 10 * time.Second

// Dial connects to the configured database and returns the session and the
// database handle. The caller owns the session and must Close it.
func Dial(cfg config.Database, timeout time.Duration) (*mgo.Session, *mgo.Database, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	session, err := mgo.DialWithTimeout(cfg.URI, timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", cfg.URI, err)
	}
	session.SetSocketTimeout(timeout)

	return session, session.DB(cfg.Name), nil
}

// Ping verifies the configured database answers within the timeout.
func Ping(cfg config.Database, timeout time.Duration) error {
	session, _, err := Dial(cfg, timeout)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Ping(); err != nil {
		return fmt.Errorf("pinging %s: %w", cfg.URI, err)
	}
	return nil
}
