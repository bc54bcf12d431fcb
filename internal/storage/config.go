// Package storage provides the MongoDB-backed record and report stores.
package storage

import (
	"errors"
	"strings"
	"time"

	"github.com/uplink-io/uplink/internal/config"
)

const (
	defaultDatabase            = "lorawan"
	defaultCollection          = "uplinks"
	defaultAnalyticsCollection = "analytics"
	defaultDialTimeout         = 10 * time.Second
	defaultSocketTimeout       = 30 * time.Second
)

var (
	// ErrMongoURLEmpty is returned when the MongoDB url is an empty string.
	ErrMongoURLEmpty = errors.New("MongoDB URL cannot be empty")

	// ErrDatabaseNameEmpty is returned when the database name is an empty string.
	ErrDatabaseNameEmpty = errors.New("database name cannot be empty")

	// ErrCollectionNameEmpty is returned when a collection name is an empty string.
	ErrCollectionNameEmpty = errors.New("collection name cannot be empty")
)

// Config holds MongoDB connection configuration with production-ready defaults.
type Config struct {
	mongoURL            string
	Database            string        // Database holding both collections
	Collection          string        // Uplink record collection
	AnalyticsCollection string        // Report snapshot collection
	DialTimeout         time.Duration // Maximum time to establish the initial connection
	SocketTimeout       time.Duration // Maximum time for a single server round trip
}

// LoadConfig loads MongoDB configuration from environment variables with
// fallback to defaults.
func LoadConfig() *Config {
	return &Config{
		mongoURL:            config.GetEnvStr("MONGO_URL", ""), // mongoURL is private for obvious reasons.
		Database:            config.GetEnvStr("MONGO_DATABASE", defaultDatabase),
		Collection:          config.GetEnvStr("MONGO_COLLECTION", defaultCollection),
		AnalyticsCollection: config.GetEnvStr("MONGO_ANALYTICS_COLLECTION", defaultAnalyticsCollection),
		DialTimeout:         config.GetEnvDuration("MONGO_DIAL_TIMEOUT", defaultDialTimeout),
		SocketTimeout:       config.GetEnvDuration("MONGO_SOCKET_TIMEOUT", defaultSocketTimeout),
	}
}

// Validate checks if the MongoDB configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.mongoURL) == "" {
		return ErrMongoURLEmpty
	}

	if strings.TrimSpace(c.Database) == "" {
		return ErrDatabaseNameEmpty
	}

	if strings.TrimSpace(c.Collection) == "" || strings.TrimSpace(c.AnalyticsCollection) == "" {
		return ErrCollectionNameEmpty
	}

	return nil
}

// MaskMongoURL returns a masked mongoURL safe for logging.
func (c *Config) MaskMongoURL() string {
	if c.mongoURL == "" {
		return ""
	}

	// Find the scheme separator
	schemeEnd := strings.Index(c.mongoURL, "://")
	if schemeEnd == -1 {
		return c.mongoURL
	}

	// Find the last @ which separates userinfo from host
	afterScheme := c.mongoURL[schemeEnd+3:]

	lastAtIndex := strings.LastIndex(afterScheme, "@")
	if lastAtIndex == -1 {
		// No @ found, no userinfo
		return c.mongoURL
	}

	// Extract userinfo
	userInfo := afterScheme[:lastAtIndex]

	colonIndex := strings.Index(userInfo, ":")
	if colonIndex == -1 {
		// No password
		return c.mongoURL
	}

	// Found username:password
	username := userInfo[:colonIndex]
	password := userInfo[colonIndex+1:]

	if password == "" {
		// Empty password, don't mask
		return c.mongoURL
	}

	// Build masked URL
	scheme := c.mongoURL[:schemeEnd]
	hostAndRest := afterScheme[lastAtIndex:]

	return scheme + "://" + username + ":***" + hostAndRest
}
