package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// CorruptError reports a stored value that could not be decoded.
type CorruptError struct {
	Key string
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt value under %q: %v", e.Key, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// LoadCollection decodes the JSON array stored under key. A missing key
// yields an empty collection. A malformed value also yields an empty
// collection, together with a *CorruptError the caller may log and ignore.
func LoadCollection[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return []T{}, err
	}
	if !ok || raw == "" || raw == "null" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []T{}, &CorruptError{Key: key, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// SaveCollection overwrites key with the full collection.
func SaveCollection[T any](ctx context.Context, kv KV, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, string(data))
}
