package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) Store {
	t.Helper()

	st, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func openRedis(t *testing.T) Store {
	t.Helper()

	mr := miniredis.RunT(t)
	st, err := Open(context.Background(), DriverRedis, mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStores_Contract(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{name: "sqlite", open: openSQLite},
		{name: "redis", open: openRedis},
	}

	for _, b := range backends {
		b := b
		t.Run(b.name, func(t *testing.T) {
			st := b.open(t)
			ctx := context.Background()

			_, err := st.Get(ctx, "products")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.Set(ctx, "products", []byte(`[{"id":1}]`)))
			got, err := st.Get(ctx, "products")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":1}]`, string(got))

			require.NoError(t, st.Set(ctx, "products", []byte(`[]`)))
			got, err = st.Get(ctx, "products")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got), "set must overwrite")

			require.NoError(t, st.Delete(ctx, "products"))
			_, err = st.Get(ctx, "products")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.Delete(ctx, "missing"), "deleting an absent key is not an error")
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "etcd", "whatever")
	require.Error(t, err)
}
