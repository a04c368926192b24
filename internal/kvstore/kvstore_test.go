package kvstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// mapBackend keeps entries in memory, enough to test typed helpers
type mapBackend struct {
	data map[string][]byte
	err  error
}

func newMapBackend() *mapBackend {
	return &mapBackend{data: make(map[string][]byte)}
}

func (b *mapBackend) Get(_ context.Context, ns string, key string) ([]byte, bool, error) {
	if b.err != nil {
		return nil, false, b.err
	}
	v, ok := b.data[ns+"/"+key]
	return v, ok, nil
}

func (b *mapBackend) List(_ context.Context, ns string, prefix string) ([]Entry, error) {
	if b.err != nil {
		return nil, b.err
	}
	var entries []Entry
	for k, v := range b.data {
		key, ok := strings.CutPrefix(k, ns+"/")
		if ok && strings.HasPrefix(key, prefix) {
			entries = append(entries, Entry{Key: key, Value: v})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func (b *mapBackend) GetMany(_ context.Context, ns string, keys []string) ([]Entry, error) {
	if b.err != nil {
		return nil, b.err
	}
	var entries []Entry
	for _, key := range keys {
		if v, ok := b.data[ns+"/"+key]; ok {
			entries = append(entries, Entry{Key: key, Value: v})
		}
	}
	// backends may return entries in any order
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key > entries[j].Key })
	return entries, nil
}

func (b *mapBackend) Put(_ context.Context, ns string, key string, value []byte) error {
	if b.err != nil {
		return b.err
	}
	b.data[ns+"/"+key] = value
	return nil
}

func (b *mapBackend) Insert(_ context.Context, ns string, key string, value []byte) error {
	if b.err != nil {
		return b.err
	}
	if _, ok := b.data[ns+"/"+key]; ok {
		return ErrKeyExists
	}
	b.data[ns+"/"+key] = value
	return nil
}

type item struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags"`
}

func TestNamespace(t *testing.T) {
	for _, codec := range []Codec{JSON, CBOR} {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Run("find absent", func(t *testing.T) {
				ns := NewNamespace("items", newMapBackend(), codec)

				v, found, err := Find[item](t.Context(), ns, "id_1")

				require.NoError(t, err, "absent key is not an error")
				require.False(t, found)
				require.Zero(t, v)
			})

			t.Run("put then find", func(t *testing.T) {
				ns := NewNamespace("items", newMapBackend(), codec)
				want := item{ID: "1", Tags: []string{"a", "b"}}

				require.NoError(t, Put(t.Context(), ns, "id_1", want))
				got, found, err := Find[item](t.Context(), ns, "id_1")

				require.NoError(t, err)
				require.True(t, found)
				require.Equal(t, want, got)
			})

			t.Run("put overwrites", func(t *testing.T) {
				ns := NewNamespace("items", newMapBackend(), codec)

				require.NoError(t, Put(t.Context(), ns, "id_1", item{ID: "1"}))
				require.NoError(t, Put(t.Context(), ns, "id_1", item{ID: "1", Tags: []string{"new"}}))
				got, _, err := Find[item](t.Context(), ns, "id_1")

				require.NoError(t, err)
				require.Equal(t, []string{"new"}, got.Tags)
			})

			t.Run("namespaces are isolated", func(t *testing.T) {
				backend := newMapBackend()
				users := NewNamespace("users", backend, codec)
				notes := NewNamespace("notes", backend, codec)

				require.NoError(t, Put(t.Context(), users, "id_1", item{ID: "user"}))
				_, found, err := Find[item](t.Context(), notes, "id_1")

				require.NoError(t, err)
				require.False(t, found)
			})

			t.Run("list by prefix", func(t *testing.T) {
				ns := NewNamespace("items", newMapBackend(), codec)
				require.NoError(t, Put(t.Context(), ns, "id_b", item{ID: "b"}))
				require.NoError(t, Put(t.Context(), ns, "id_a", item{ID: "a"}))
				require.NoError(t, Put(t.Context(), ns, "author_a", []string{"a"}))

				got, err := ListByPrefix[item](t.Context(), ns, "id_")

				require.NoError(t, err)
				require.Equal(t, []item{{ID: "a"}, {ID: "b"}}, got)
			})

			t.Run("get multiple keeps requested order", func(t *testing.T) {
				ns := NewNamespace("items", newMapBackend(), codec)
				for _, id := range []string{"1", "2", "3"} {
					require.NoError(t, Put(t.Context(), ns, "id_"+id, item{ID: id}))
				}

				got, err := GetMultiple[item](t.Context(), ns, []string{"id_3", "id_missing", "id_1", "id_2"})

				require.NoError(t, err)
				require.Equal(t, []item{{ID: "3"}, {ID: "1"}, {ID: "2"}}, got)
			})

			t.Run("get multiple without keys", func(t *testing.T) {
				ns := NewNamespace("items", newMapBackend(), codec)

				got, err := GetMultiple[item](t.Context(), ns, nil)

				require.NoError(t, err)
				require.NotNil(t, got)
				require.Empty(t, got)
			})

			t.Run("insert once", func(t *testing.T) {
				ns := NewNamespace("items", newMapBackend(), codec)

				require.NoError(t, Insert(t.Context(), ns, "email_a@b.com", "user-1"))
				err := Insert(t.Context(), ns, "email_a@b.com", "user-2")
				require.ErrorIs(t, err, ErrKeyExists)

				got, _, err := Find[string](t.Context(), ns, "email_a@b.com")
				require.NoError(t, err)
				require.Equal(t, "user-1", got, "failed insert must not overwrite")
			})
		})
	}

	t.Run("decode failure is error not absence", func(t *testing.T) {
		backend := newMapBackend()
		ns := NewNamespace("items", backend, JSON)
		backend.data["items/id_1"] = []byte("{broken")
		backend.data["items/id_2"] = []byte(`{"id": "2"}`)

		_, found, err := Find[item](t.Context(), ns, "id_1")
		require.Error(t, err)
		require.False(t, found)

		_, err = ListByPrefix[item](t.Context(), ns, "id_")
		require.Error(t, err)

		_, err = GetMultiple[item](t.Context(), ns, []string{"id_2", "id_1"})
		require.Error(t, err)
	})

	t.Run("storage failure", func(t *testing.T) {
		backend := newMapBackend()
		backend.err = errors.New("disk on fire")
		ns := NewNamespace("items", backend, JSON)

		_, found, err := Find[item](t.Context(), ns, "id_1")
		require.Error(t, err)
		require.False(t, found)

		require.Error(t, Put(t.Context(), ns, "id_1", item{}))
	})

	t.Run("nil codec is json", func(t *testing.T) {
		ns := NewNamespace("items", newMapBackend(), nil)

		require.Equal(t, "items", ns.Name())
		require.Equal(t, JSON, ns.codec)
	})
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("json")
	require.NoError(t, err)
	require.Equal(t, JSON, c)

	c, err = CodecByName("cbor")
	require.NoError(t, err)
	require.Equal(t, CBOR, c)

	_, err = CodecByName("gob")
	require.Error(t, err)
}
