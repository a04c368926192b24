package sqlite

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/foodrhapsody/internal/db"
	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
	"github.com/nkiryanov/foodrhapsody/internal/kvstore/kvstoretest"
)

var dbCounter atomic.Int64

func newBackend(t *testing.T) kvstore.Backend {
	t.Helper()

	dsn := fmt.Sprintf("sqlite://file:kv-backend-%d?mode=memory&cache=shared", dbCounter.Add(1))
	conn, err := db.OpenSQLite(t.Context(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return New(conn)
}

func TestBackend(t *testing.T) {
	kvstoretest.RunBackendTests(t, newBackend)

	t.Run("many keys", func(t *testing.T) {
		b := newBackend(t)
		keys := make([]string, 0, 200)
		for i := range 200 {
			key := fmt.Sprintf("id_%03d", i)
			keys = append(keys, key)
			require.NoError(t, b.Put(t.Context(), "foodnotes", key, []byte(key)))
		}

		entries, err := b.GetMany(t.Context(), "foodnotes", keys)

		require.NoError(t, err)
		require.Len(t, entries, 200)
	})
}
