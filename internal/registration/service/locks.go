package service

import (
	"context"
	"sync"

	dErrors "regdesk/pkg/domain-errors"
)

// deviceLocks serializes the operations of one device, like handlers on a
// browser event loop. Each device gets its own lock, created on first use and
// dropped when no caller holds or waits for it, so a slow operation on one
// device never delays another.
type deviceLocks struct {
	mu    sync.Mutex
	locks map[string]*deviceLock
}

type deviceLock struct {
	sem  chan struct{}
	refs int
}

// run executes fn while holding the lock for deviceID. Waiting for the lock
// gives up when ctx is done.
func (l *deviceLocks) run(ctx context.Context, deviceID string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request aborted: context cancelled")
	}

	lock := l.acquireRef(deviceID)
	defer l.releaseRef(deviceID, lock)

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "request aborted while waiting for device")
	}
	defer func() { <-lock.sem }()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request aborted: context cancelled")
	}
	return fn()
}

func (l *deviceLocks) acquireRef(deviceID string) *deviceLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*deviceLock)
	}
	lock, ok := l.locks[deviceID]
	if !ok {
		lock = &deviceLock{sem: make(chan struct{}, 1)}
		l.locks[deviceID] = lock
	}
	lock.refs++
	return lock
}

func (l *deviceLocks) releaseRef(deviceID string, lock *deviceLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, deviceID)
	}
}

