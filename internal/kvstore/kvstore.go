// Package kvstore is a namespaced key-value store with typed access.
//
// Keys within a namespace are plain strings. Secondary indices (email to user id,
// author to foodnote ids) are ordinary entries distinguished by key prefix.
//
// The store does no locking of its own: read-modify-write sequences are safe only
// when all operations on a namespace are serialized by the caller (see package serial).
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

var ErrKeyExists = errors.New("key already exists")

type Entry struct {
	Key   string
	Value []byte
}

// Backend persists raw values. Implementations: postgres, sqlite.
type Backend interface {
	// Get returns found=false if key is absent. Absence is not an error.
	Get(ctx context.Context, namespace string, key string) (value []byte, found bool, err error)

	// List returns entries whose key starts with prefix in bytewise key order
	List(ctx context.Context, namespace string, prefix string) ([]Entry, error)

	// GetMany returns entries for existing keys in any order
	GetMany(ctx context.Context, namespace string, keys []string) ([]Entry, error)

	// Put creates or overwrites (last write wins)
	Put(ctx context.Context, namespace string, key string, value []byte) error

	// Insert creates the entry or fails with ErrKeyExists
	Insert(ctx context.Context, namespace string, key string, value []byte) error
}

// Namespace binds a backend and codec to a namespace name
type Namespace struct {
	name    string
	backend Backend
	codec   Codec
}

func NewNamespace(name string, backend Backend, codec Codec) *Namespace {
	if codec == nil {
		codec = JSON
	}
	return &Namespace{name: name, backend: backend, codec: codec}
}

func (ns *Namespace) Name() string {
	return ns.name
}

// Find decodes value stored under key
// found=false with nil error means the key is absent, decode or storage failures are errors
func Find[T any](ctx context.Context, ns *Namespace, key string) (v T, found bool, err error) {
	raw, found, err := ns.backend.Get(ctx, ns.name, key)
	if err != nil || !found {
		return v, false, err
	}

	if err := ns.codec.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s/%s: %w", ns.name, key, err)
	}

	return v, true, nil
}

// ListByPrefix decodes all values with key prefix in key order
func ListByPrefix[T any](ctx context.Context, ns *Namespace, prefix string) ([]T, error) {
	entries, err := ns.backend.List(ctx, ns.name, prefix)
	if err != nil {
		return nil, err
	}

	values := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := ns.codec.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", ns.name, e.Key, err)
		}
		values = append(values, v)
	}

	return values, nil
}

// GetMultiple decodes values for keys in the order keys are given
// Absent keys are skipped, a single decode failure fails the whole call
func GetMultiple[T any](ctx context.Context, ns *Namespace, keys []string) ([]T, error) {
	if len(keys) == 0 {
		return []T{}, nil
	}

	entries, err := ns.backend.GetMany(ctx, ns.name, keys)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string][]byte, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Value
	}

	values := make([]T, 0, len(entries))
	for _, key := range keys {
		raw, ok := byKey[key]
		if !ok {
			continue
		}

		var v T
		if err := ns.codec.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", ns.name, key, err)
		}
		values = append(values, v)
	}

	return values, nil
}

// Put encodes and stores value, overwriting any previous one
func Put[T any](ctx context.Context, ns *Namespace, key string, v T) error {
	raw, err := ns.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", ns.name, key, err)
	}

	return ns.backend.Put(ctx, ns.name, key, raw)
}

// Insert encodes and stores value only if key is absent, otherwise ErrKeyExists
func Insert[T any](ctx context.Context, ns *Namespace, key string, v T) error {
	raw, err := ns.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", ns.name, key, err)
	}

	return ns.backend.Insert(ctx, ns.name, key, raw)
}
