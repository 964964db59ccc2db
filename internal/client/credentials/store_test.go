package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// storeContract is the behaviour every Store implementation must have.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, got, "fresh store must be empty")

	require.NoError(t, s.Set(ctx, "T1"))
	got, err = s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "T1", got)

	require.NoError(t, s.Set(ctx, "T2"))
	got, err = s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "T2", got, "set overwrites the single slot")

	require.NoError(t, s.Clear(ctx))
	got, err = s.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, s.Clear(ctx), "clearing an empty store is fine")
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = s.Set(ctx, "T")
			_ = s.Clear(ctx)
		}
	}()
	for i := 0; i < 100; i++ {
		_, _ = s.Get(ctx)
	}
	<-done
}
