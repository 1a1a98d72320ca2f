package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdesk/internal/registration/metrics"
	"regdesk/internal/registration/models"
	"regdesk/internal/registration/store/draft"
	"regdesk/internal/registration/store/ledger"
	dErrors "regdesk/pkg/domain-errors"
)

// size reports how many devices currently hold or wait for a lock.
func (l *deviceLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// hangingNotifier models a remote endpoint that never answers until released.
type hangingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func newHangingNotifier() *hangingNotifier {
	return &hangingNotifier{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (n *hangingNotifier) Send(context.Context, models.Submission) error {
	n.entered <- struct{}{}
	<-n.release
	return nil
}

func TestHangingDispatchOnlyHoldsItsOwnDevice(t *testing.T) {
	hanging := newHangingNotifier()
	svc := New(draft.NewInMemory(), ledger.NewInMemory(), hanging, WithMetrics(metrics.New(prometheus.NewRegistry())))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), "device-a", validRequest())
		done <- err
	}()
	<-hanging.entered

	t.Run("other devices are not blocked", func(t *testing.T) {
		// Enough distinct IDs that any fixed sharding would collide with device-a.
		for i := range 256 {
			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
			err := svc.SaveInput(ctx, fmt.Sprintf("device-%d", i), map[string]any{"name": "Asha"})
			cancel()
			require.NoError(t, err, "device-%d", i)
		}
	})

	t.Run("the same device gives up at its deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := svc.SaveInput(ctx, "device-a", map[string]any{"name": "Asha"})

		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.Less(t, time.Since(start), time.Second)
	})

	close(hanging.release)
	require.NoError(t, <-done)
	assert.Zero(t, svc.locks.size())
}

func TestNoStateRetainedPerDevice(t *testing.T) {
	svc := New(draft.NewInMemory(), ledger.NewInMemory(), newHangingNotifier())
	req := validRequest()
	req.Name = "Al"

	for i := range 1000 {
		result, err := svc.Submit(context.Background(), fmt.Sprintf("device-%d", i), req)
		require.NoError(t, err)
		require.Equal(t, models.StateRejected, result.State)
	}

	assert.Zero(t, svc.locks.size())
}
