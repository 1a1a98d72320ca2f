// Package notifier forwards accepted submissions to remote sinks. Delivery is
// best effort: callers log failures and never roll back local state.
package notifier

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"regdesk/internal/registration/models"
)

// ErrNetwork marks a failed delivery attempt.
var ErrNetwork = errors.New("notify: network error")

// Sender delivers one submission.
type Sender interface {
	Send(ctx context.Context, submission models.Submission) error
}

// Multi sends to every sink concurrently and joins their errors. One sink
// failing does not cancel the others.
type Multi struct {
	sinks []Sender
}

func NewMulti(sinks ...Sender) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Send(ctx context.Context, submission models.Submission) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, sink := range m.sinks {
		g.Go(func() error {
			if err := sink.Send(ctx, submission); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
