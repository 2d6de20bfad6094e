package sqlctl

import (
	"errors"
	"time"
)

// DefaultConnectTimeout is the retry budget used when none is configured.
const DefaultConnectTimeout = 10 * time.Second

// ErrMissingDatabaseURL is returned when no source yields a connection string.
var ErrMissingDatabaseURL = errors.New("the DATABASE_URL environment variable or the --database-url argument must be set")

// ConnectOpts holds the settings needed to reach the target database.
type ConnectOpts struct {
	// DatabaseURL is the connection string given on the command line.
	DatabaseURL string

	// ConnectTimeout bounds the total time spent retrying transient
	// connection failures. Zero means a single attempt.
	ConnectTimeout time.Duration

	// SqliteCreateDBWAL creates new SQLite databases in WAL journal mode.
	SqliteCreateDBWAL bool
}

// DefaultConnectOpts returns the options used when no flags are given.
func DefaultConnectOpts() ConnectOpts {
	return ConnectOpts{
		ConnectTimeout:    DefaultConnectTimeout,
		SqliteCreateDBWAL: true,
	}
}

// RequiredDatabaseURL returns the connection string or ErrMissingDatabaseURL.
func (o ConnectOpts) RequiredDatabaseURL() (string, error) {
	if o.DatabaseURL == "" {
		return "", ErrMissingDatabaseURL
	}
	return o.DatabaseURL, nil
}

// WithDatabaseURL returns a copy of o targeting url.
func (o ConnectOpts) WithDatabaseURL(url string) ConnectOpts {
	o.DatabaseURL = url
	return o
}
