package service

import (
	"log/slog"
	"time"

	"github.com/finecision/finecision/internal/logging"
	"github.com/finecision/finecision/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a crashed replica can block an application.
const DefaultLockTTL = 30 * time.Second

type options struct {
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
	locker  ports.DistributedLocker
	lockTTL time.Duration
}

// Option configures a service.
type Option func(*options)

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
}

// WithLocker serializes application processing through a distributed lock.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *options) {
		o.locker = locker
	}
}

// WithLockTTL sets the expiration of the processing lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.lockTTL = ttl
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:  logging.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
