package connect

import (
	"context"
	"database/sql"
	"errors"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bcomnes/sqlctl"
	"github.com/bcomnes/sqlctl/driver"
	"github.com/bcomnes/sqlctl/logging"
)

// Decision says whether a failed attempt is worth repeating.
type Decision int

const (
	Permanent Decision = iota
	Transient
)

func (d Decision) String() string {
	if d == Transient {
		return "transient"
	}
	return "permanent"
}

// Classify maps an attempt's error to a retry decision. Only network
// failures that a server coming up or restarting produces are transient.
func Classify(err error) Decision {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED):
		return Transient
	default:
		return Permanent
	}
}

// newBackOff builds the schedule for one Retry call.
var newBackOff = func(maxElapsed time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed
	return b
}

// Retry calls op with the connection string from opts until it succeeds, it
// fails permanently, or opts.ConnectTimeout has elapsed. On timeout the last
// error is returned.
//
// op must be idempotent: an existence check or a fresh connection attempt,
// never a statement that changes the server.
func Retry[T any](ctx context.Context, opts sqlctl.ConnectOpts, op func(ctx context.Context, url string) (T, error)) (T, error) {
	driver.InstallDefaultDrivers()

	var result T
	url, err := opts.RequiredDatabaseURL()
	if err != nil {
		return result, err
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if opts.ConnectTimeout > 0 {
		b = newBackOff(opts.ConnectTimeout)
	}

	log := logging.FromContext(ctx)
	attempt := 0
	err = backoff.RetryNotify(func() error {
		attempt++
		v, err := op(ctx, url)
		if err == nil {
			result = v
			return nil
		}
		if Classify(err) == Transient {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		log.Debug("database not reachable, retrying",
			"attempt", attempt,
			"retry_in", next,
			"error", err,
		)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Open connects to the database named by opts through drivers, retrying
// transient failures.
func Open(ctx context.Context, drivers *driver.Registry, opts sqlctl.ConnectOpts) (*sql.DB, error) {
	return Retry(ctx, opts, func(ctx context.Context, url string) (*sql.DB, error) {
		db, err := drivers.Open(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	})
}
