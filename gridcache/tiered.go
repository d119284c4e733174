package gridcache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Tiered layers a fast local store in front of a slower remote one.
//
// Gets check the local store first and fall back to the remote, promoting
// hits into the local store; concurrent misses on the same key are collapsed
// into a single remote fetch. Sets write through to both stores.
type Tiered struct {
	local  Store
	remote Store
	sf     singleflight.Group
}

// NewTiered creates a tiered store.
func NewTiered(local, remote Store) *Tiered {
	return &Tiered{local: local, remote: remote}
}

type tieredFetch struct {
	data []byte
	ok   bool
}

// Get implements Store.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := t.local.Get(ctx, key)
	if err == nil && ok {
		return data, true, nil
	}

	v, err, _ := t.sf.Do(key, func() (any, error) {
		data, ok, err := t.remote.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			// Promote, best effort.
			_ = t.local.Set(ctx, key, data)
		}
		return tieredFetch{data: data, ok: ok}, nil
	})
	if err != nil {
		return nil, false, err
	}

	fetch := v.(tieredFetch)
	return fetch.data, fetch.ok, nil
}

// Set implements Store.
func (t *Tiered) Set(ctx context.Context, key string, data []byte) error {
	if err := t.remote.Set(ctx, key, data); err != nil {
		return err
	}
	return t.local.Set(ctx, key, data)
}

// Delete implements Store.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	if err := t.remote.Delete(ctx, key); err != nil {
		return err
	}
	return t.local.Delete(ctx, key)
}

// Close implements Store.
func (t *Tiered) Close() error {
	localErr := t.local.Close()
	if err := t.remote.Close(); err != nil {
		return err
	}
	return localErr
}
