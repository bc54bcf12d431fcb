package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/globalsign/mgo"
)

var (
	// ErrNilConfig is returned when a connection is created without configuration.
	ErrNilConfig = errors.New("storage config cannot be nil")

	// ErrNoConnection is returned when a store is created without a database connection.
	ErrNoConnection = errors.New("database connection cannot be nil")
)

// Connection wraps an mgo session with the configured database and
// collection names.
//
// The root session is dialed once; stores copy it per operation so a broken
// socket on one operation does not poison the others. Close shuts the root
// session down and invalidates all copies.
type Connection struct {
	session   *mgo.Session
	cfg       *Config
	closeOnce sync.Once
}

// NewConnection dials MongoDB and verifies the server is reachable.
// Returns error if cfg is nil or invalid, or the server cannot be reached
// within the dial timeout.
func NewConnection(cfg *Config) (*Connection, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	session, err := mgo.DialWithTimeout(cfg.mongoURL, cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dialing MongoDB: %w", err)
	}

	session.SetSocketTimeout(cfg.SocketTimeout)
	session.SetSafe(&mgo.Safe{}) // acknowledged writes

	if err := session.Ping(); err != nil {
		session.Close()

		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	return &Connection{session: session, cfg: cfg}, nil
}

// Close shuts down the root session. Safe to call more than once.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.session.Close()
	})

	return nil
}

// HealthCheck verifies database connectivity within the context deadline.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if c == nil || c.session == nil {
		return ErrNoConnection
	}

	done := make(chan error, 1)

	go func() {
		session := c.session.Copy()
		defer session.Close()

		done <- session.Ping()
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("health check cancelled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		return nil
	}
}

// copySession returns a fresh session copy for a single operation. The
// caller owns the copy and must Close it.
func (c *Connection) copySession() *mgo.Session {
	return c.session.Copy()
}

// uplinks returns the uplink record collection bound to session.
func (c *Connection) uplinks(session *mgo.Session) *mgo.Collection {
	return session.DB(c.cfg.Database).C(c.cfg.Collection)
}

// analytics returns the report snapshot collection bound to session.
func (c *Connection) analytics(session *mgo.Session) *mgo.Collection {
	return session.DB(c.cfg.Database).C(c.cfg.AnalyticsCollection)
}
