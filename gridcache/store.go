// Package gridcache persists computed grid query results for reuse.
//
// A Store maps caller-chosen keys to opaque frames produced by EncodeFrame.
// Frames are self-describing: they record the codec name, the block
// compression, and a CRC32C of the payload, so any store can hold entries
// written with any codec/compression combination.
//
// Backends: Memory (tests, hot single-process reuse), Disk (LRU-bounded
// local files), the minio subpackage (S3-compatible remotes), and Tiered
// (a local store in front of a remote one).
package gridcache

import (
	"context"
	"errors"
)

// ErrClosed is returned when operating on a closed store.
var ErrClosed = errors.New("gridcache: store closed")

// Store is a key/value store for encoded result frames.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the frame stored under key, if any.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores a frame under key, replacing any previous entry.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes the entry under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources and flushes pending background writes.
	Close() error
}
