package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrUnsupportedScheme is returned for a URL no registered driver handles.
	ErrUnsupportedScheme = errors.New("unsupported database URL scheme")

	// ErrForceDropUnsupported is returned by drivers that cannot drop a
	// database with open connections.
	ErrForceDropUnsupported = errors.New("force drop is not supported by this driver")

	// ErrMissingDatabaseName is returned for a URL without a database name.
	ErrMissingDatabaseName = errors.New("database URL does not name a database")
)

// CreateOptions tune database creation. Drivers ignore options they do not
// understand.
type CreateOptions struct {
	// WAL creates SQLite databases in write-ahead-log journal mode.
	WAL bool
}

// Driver manages databases on one kind of server.
type Driver interface {
	// Name is a human readable driver name.
	Name() string

	// Schemes lists the URL schemes the driver handles.
	Schemes() []string

	// Dialect is the migration engine dialect of the driver.
	Dialect() string

	Exists(ctx context.Context, url string) (bool, error)
	Create(ctx context.Context, url string, opts CreateOptions) error
	Drop(ctx context.Context, url string) error

	// ForceDrop drops the database even while other sessions are connected.
	ForceDrop(ctx context.Context, url string) error

	// Open returns a handle to the database named by url.
	Open(ctx context.Context, url string) (*sql.DB, error)
}

// Registry maps URL schemes to drivers.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

// Register adds d under each of its schemes, replacing earlier entries.
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range d.Schemes() {
		r.drivers[strings.ToLower(s)] = d
	}
}

// Lookup returns the driver for url.
func (r *Registry) Lookup(url string) (Driver, error) {
	scheme, _, ok := strings.Cut(url, ":")
	if !ok || scheme == "" {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrUnsupportedScheme, redact(url))
	}
	r.mu.RLock()
	d, found := r.drivers[strings.ToLower(scheme)]
	r.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
	return d, nil
}

// Exists reports whether the database named by url exists.
func (r *Registry) Exists(ctx context.Context, url string) (bool, error) {
	d, err := r.Lookup(url)
	if err != nil {
		return false, err
	}
	return d.Exists(ctx, url)
}

// Create creates the database named by url.
func (r *Registry) Create(ctx context.Context, url string, opts CreateOptions) error {
	d, err := r.Lookup(url)
	if err != nil {
		return err
	}
	return d.Create(ctx, url, opts)
}

// Drop drops the database named by url.
func (r *Registry) Drop(ctx context.Context, url string) error {
	d, err := r.Lookup(url)
	if err != nil {
		return err
	}
	return d.Drop(ctx, url)
}

// ForceDrop drops the database named by url regardless of open sessions.
func (r *Registry) ForceDrop(ctx context.Context, url string) error {
	d, err := r.Lookup(url)
	if err != nil {
		return err
	}
	return d.ForceDrop(ctx, url)
}

// Open opens the database named by url.
func (r *Registry) Open(ctx context.Context, url string) (*sql.DB, error) {
	d, err := r.Lookup(url)
	if err != nil {
		return nil, err
	}
	return d.Open(ctx, url)
}

var (
	defaultRegistry = NewRegistry()
	installOnce     sync.Once

	// builtin holds constructors for the drivers compiled into this binary.
	builtin = []func() Driver{
		func() Driver { return Postgres{} },
		func() Driver { return MySQL{} },
	}
)

// InstallDefaultDrivers registers the built-in drivers with the default
// registry. Only the first call has an effect.
func InstallDefaultDrivers() {
	installOnce.Do(func() {
		for _, newDriver := range builtin {
			defaultRegistry.Register(newDriver())
		}
	})
}

// Default returns the default registry with the built-in drivers installed.
func Default() *Registry {
	InstallDefaultDrivers()
	return defaultRegistry
}

// redact hides the password of a URL-shaped string for error messages.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return url
	}
	return scheme + "://" + user + ":xxxxx@" + host
}
