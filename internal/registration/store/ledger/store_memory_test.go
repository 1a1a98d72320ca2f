package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdesk/internal/registration/models"
)

func submission(n int) models.Submission {
	return models.Submission{
		Name:   fmt.Sprintf("Student %02d", n),
		Email:  fmt.Sprintf("f2021%04d@goa.bits-pilani.ac.in", n),
		BitsID: fmt.Sprintf("2021A7PS%04d", n),
		Terms:  true,
	}
}

func TestInMemoryLedger(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	t.Run("empty ledger for unknown device", func(t *testing.T) {
		entries, err := store.Load(ctx, "missing")
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("append preserves order", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			require.NoError(t, store.Append(ctx, "dev-1", submission(i)))
		}
		entries, err := store.Load(ctx, "dev-1")
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, submission(1), entries[0])
		assert.Equal(t, submission(3), entries[2])
	})

	t.Run("loaded ledger is a copy", func(t *testing.T) {
		entries, err := store.Load(ctx, "dev-1")
		require.NoError(t, err)
		entries[0].Email = "mutated"

		again, err := store.Load(ctx, "dev-1")
		require.NoError(t, err)
		assert.Equal(t, submission(1).Email, again[0].Email)
	})
}

func TestInMemoryLedger_Concurrent(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, "dev-1", submission(n)))
		}(i)
	}
	wg.Wait()

	entries, err := store.Load(ctx, "dev-1")
	require.NoError(t, err)
	assert.Len(t, entries, goroutines)
}
