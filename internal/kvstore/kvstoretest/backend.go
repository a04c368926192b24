// Package kvstoretest holds behaviour checks every kvstore.Backend must pass
package kvstoretest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
)

// RunBackendTests runs the checks against fresh backends built by newBackend
func RunBackendTests(t *testing.T, newBackend func(t *testing.T) kvstore.Backend) {
	t.Run("get absent", func(t *testing.T) {
		b := newBackend(t)

		v, found, err := b.Get(t.Context(), "users", "id_1")

		require.NoError(t, err)
		require.False(t, found)
		require.Nil(t, v)
	})

	t.Run("put and get", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Put(t.Context(), "users", "id_1", []byte("one")))
		v, found, err := b.Get(t.Context(), "users", "id_1")

		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, []byte("one"), v)
	})

	t.Run("put overwrites", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Put(t.Context(), "users", "id_1", []byte("one")))
		require.NoError(t, b.Put(t.Context(), "users", "id_1", []byte("two")))
		v, _, err := b.Get(t.Context(), "users", "id_1")

		require.NoError(t, err)
		require.Equal(t, []byte("two"), v)
	})

	t.Run("namespaces isolated", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Put(t.Context(), "users", "id_1", []byte("user")))
		require.NoError(t, b.Put(t.Context(), "challenges", "id_1", []byte("challenge")))

		v, _, err := b.Get(t.Context(), "users", "id_1")
		require.NoError(t, err)
		require.Equal(t, []byte("user"), v)

		entries, err := b.List(t.Context(), "foodnotes", "id_")
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("list by prefix in byte order", func(t *testing.T) {
		b := newBackend(t)
		for _, key := range []string{"id_b", "id_a", "id_B", "email_x", "idx", "id"} {
			require.NoError(t, b.Put(t.Context(), "challenges", key, []byte(key)))
		}

		entries, err := b.List(t.Context(), "challenges", "id_")

		require.NoError(t, err)
		require.Equal(t, []kvstore.Entry{
			{Key: "id_B", Value: []byte("id_B")},
			{Key: "id_a", Value: []byte("id_a")},
			{Key: "id_b", Value: []byte("id_b")},
		}, entries)
	})

	t.Run("list prefix is literal", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Put(t.Context(), "challenges", "a%b", []byte("1")))
		require.NoError(t, b.Put(t.Context(), "challenges", "axb", []byte("2")))
		require.NoError(t, b.Put(t.Context(), "challenges", "a_c", []byte("3")))

		entries, err := b.List(t.Context(), "challenges", "a%")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "a%b", entries[0].Key)

		entries, err = b.List(t.Context(), "challenges", "a_")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "a_c", entries[0].Key)
	})

	t.Run("list empty prefix returns namespace", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Put(t.Context(), "challenges", "id_1", []byte("1")))
		require.NoError(t, b.Put(t.Context(), "challenges", "other", []byte("2")))

		entries, err := b.List(t.Context(), "challenges", "")

		require.NoError(t, err)
		require.Len(t, entries, 2)
	})

	t.Run("get many", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Put(t.Context(), "foodnotes", "id_1", []byte("1")))
		require.NoError(t, b.Put(t.Context(), "foodnotes", "id_2", []byte("2")))
		require.NoError(t, b.Put(t.Context(), "foodnotes", "id_3", []byte("3")))

		entries, err := b.GetMany(t.Context(), "foodnotes", []string{"id_3", "id_1", "id_404"})

		require.NoError(t, err)
		require.ElementsMatch(t, []kvstore.Entry{
			{Key: "id_1", Value: []byte("1")},
			{Key: "id_3", Value: []byte("3")},
		}, entries)
	})

	t.Run("get many without keys", func(t *testing.T) {
		b := newBackend(t)

		entries, err := b.GetMany(t.Context(), "foodnotes", nil)

		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("insert", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Insert(t.Context(), "users", "email_a@b.com", []byte("first")))
		err := b.Insert(t.Context(), "users", "email_a@b.com", []byte("second"))
		require.ErrorIs(t, err, kvstore.ErrKeyExists)

		v, _, err := b.Get(t.Context(), "users", "email_a@b.com")
		require.NoError(t, err)
		require.Equal(t, []byte("first"), v)

		require.NoError(t, b.Insert(t.Context(), "foodnotes", "email_a@b.com", []byte("other namespace")))
	})
}
