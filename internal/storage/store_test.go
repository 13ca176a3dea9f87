package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behavior every backend shares.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing", func(t *testing.T) {
		blob, err := s.Load(ctx, CartKey("nobody"))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, blob)
	})

	t.Run("save then load", func(t *testing.T) {
		key := CartKey("s1")
		require.NoError(t, s.Save(ctx, key, []byte(`{"lines":[]}`)))

		blob, err := s.Load(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"lines":[]}`, string(blob))
	})

	t.Run("save overwrites", func(t *testing.T) {
		key := ResolutionKey("s1")
		require.NoError(t, s.Save(ctx, key, []byte(`{"mode":"PICKUP"}`)))
		require.NoError(t, s.Save(ctx, key, []byte(`{"mode":"DELIVERY"}`)))

		blob, err := s.Load(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"mode":"DELIVERY"}`, string(blob))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, OrdersKey("s2"), []byte(`[]`)))
		_, err := s.Load(ctx, OrdersKey("s3"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		key := OrdersKey("s4")
		require.NoError(t, s.Save(ctx, key, []byte(`[]`)))
		require.NoError(t, s.Delete(ctx, key))
		require.NoError(t, s.Delete(ctx, key))

		_, err := s.Load(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "session:abc:cart", CartKey("abc"))
	assert.Equal(t, "session:abc:resolution", ResolutionKey("abc"))
	assert.Equal(t, "session:abc:orders", OrdersKey("abc"))
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_CopiesBlobs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	blob := []byte("abc")
	require.NoError(t, s.Save(ctx, "k", blob))
	blob[0] = 'x'

	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, _ := s.Load(ctx, "k")
	assert.Equal(t, "abc", string(again))
}
