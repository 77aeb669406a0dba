package payouts

import (
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/inkhub-io/inkhub/internal/pkg/cache"
)

const (
	lockExpiry  = 30 * time.Second
	lockRetries = 8
)

type redsyncLocker struct {
	rs *redsync.Redsync
}

// NewRedsyncLocker returns a Locker backed by the shared Redis connection.
func NewRedsyncLocker() Locker {
	return &redsyncLocker{rs: cache.GetRedsync()}
}

func (l *redsyncLocker) WithLock(name string, fn func() error) error {
	mutex := l.rs.NewMutex(name,
		redsync.WithExpiry(lockExpiry),
		redsync.WithTries(lockRetries),
	)
	if err := mutex.Lock(); err != nil {
		return err
	}
	defer func() {
		_, _ = mutex.Unlock()
	}()
	return fn()
}
