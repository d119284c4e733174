package gridcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const diskEntrySuffix = ".grc"

// DiskConfig holds configuration for the disk store.
type DiskConfig struct {
	// RootDir is the directory where entries are stored.
	RootDir string
	// MaxSizeBytes bounds the total size on disk; least-recently-used entries
	// are evicted past it. 0 means unbounded.
	MaxSizeBytes int64
	// MaxConcurrentWrites limits background disk writes to prevent unbounded
	// goroutines. Defaults to 16 if <= 0.
	MaxConcurrentWrites int64
	// WriteLimiter optionally throttles write throughput
	// (e.g. resource.Controller.WriteLimiter). May be nil.
	WriteLimiter *rate.Limiter
}

// Disk is a Store backed by the local filesystem with an in-memory LRU index.
//
// Writes are asynchronous and best effort: Set returns once the entry is
// scheduled, and a write slot being unavailable drops the entry rather than
// blocking the query path. Entries are written via temp file and rename, so a
// crash never leaves a torn frame behind.
type Disk struct {
	mu          sync.Mutex
	rootDir     string
	maxSize     int64
	currentSize int64

	writeSem *semaphore.Weighted
	limiter  *rate.Limiter

	// Index, keyed by entry file name.
	items   map[string]*lruEntry
	lruHead *lruEntry
	lruTail *lruEntry
	wg      sync.WaitGroup
	closed  atomic.Bool

	// Stats
	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry struct {
	name       string
	size       int64
	filePath   string
	next, prev *lruEntry
}

// NewDisk creates a disk store rooted at config.RootDir.
// Existing entries are scanned on startup to rebuild the index.
func NewDisk(config DiskConfig) (*Disk, error) {
	if err := os.MkdirAll(config.RootDir, 0755); err != nil {
		return nil, err
	}

	maxWrites := config.MaxConcurrentWrites
	if maxWrites <= 0 {
		maxWrites = 16
	}

	d := &Disk{
		rootDir:  config.RootDir,
		maxSize:  config.MaxSizeBytes,
		items:    make(map[string]*lruEntry),
		writeSem: semaphore.NewWeighted(maxWrites),
		limiter:  config.WriteLimiter,
	}
	d.scanExistingEntries()
	return d, nil
}

// entryName maps a cache key to its file name. Keys are arbitrary strings,
// so the name is a digest rather than an escaped key; lookups only ever go
// key -> name, never back.
func entryName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + diskEntrySuffix
}

func (d *Disk) scanExistingEntries() {
	entries, err := os.ReadDir(d.rootDir)
	if err != nil {
		return
	}
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), diskEntrySuffix) {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		d.addToLRU(ent.Name(), filepath.Join(d.rootDir, ent.Name()), info.Size())
	}
}

// Get implements Store.
func (d *Disk) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if d.closed.Load() {
		return nil, false, ErrClosed
	}

	name := entryName(key)

	d.mu.Lock()
	ent, ok := d.items[name]
	if ok {
		d.moveToFront(ent)
	}
	d.mu.Unlock()

	if !ok {
		d.misses.Add(1)
		return nil, false, nil
	}

	data, err := os.ReadFile(ent.filePath)
	if err != nil {
		// File vanished underneath the index; treat as a miss.
		d.mu.Lock()
		d.removeEntry(ent)
		d.mu.Unlock()
		d.misses.Add(1)
		return nil, false, nil
	}
	d.hits.Add(1)
	return data, true, nil
}

// Set implements Store.
func (d *Disk) Set(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.closed.Load() {
		return ErrClosed
	}

	name := entryName(key)

	d.mu.Lock()
	if ent, ok := d.items[name]; ok {
		// Frames are content-addressed by the caller's key; an existing entry
		// is assumed identical and not rewritten.
		d.moveToFront(ent)
		d.mu.Unlock()
		return nil
	}

	size := int64(len(data))
	absPath := filepath.Join(d.rootDir, name)
	for d.maxSize > 0 && d.currentSize+size > d.maxSize {
		if d.lruTail == nil {
			break
		}
		d.evictOne()
	}
	d.mu.Unlock()

	// A write slot being unavailable drops the entry; it's a cache, not
	// critical state.
	if !d.writeSem.TryAcquire(1) {
		return nil
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.writeSem.Release(1)

		if d.limiter != nil {
			if err := d.limiter.WaitN(context.Background(), len(data)); err != nil {
				return
			}
		}

		tmpFile, err := os.CreateTemp(d.rootDir, "tmp-grc-*")
		if err != nil {
			return
		}
		tmpName := tmpFile.Name()
		defer func() {
			if _, err := os.Stat(tmpName); err == nil {
				_ = os.Remove(tmpName)
			}
		}()

		if _, err := tmpFile.Write(data); err != nil {
			_ = tmpFile.Close()
			return
		}
		if err := tmpFile.Close(); err != nil {
			return
		}
		if err := os.Rename(tmpName, absPath); err != nil {
			return
		}

		d.mu.Lock()
		defer d.mu.Unlock()

		// Recheck capacity in case other writes landed meanwhile.
		for d.maxSize > 0 && d.currentSize+size > d.maxSize {
			if d.lruTail == nil {
				break
			}
			d.evictOne()
		}
		d.addToLRU(name, absPath, size)
	}()
	return nil
}

// Delete implements Store.
func (d *Disk) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.closed.Load() {
		return ErrClosed
	}

	name := entryName(key)

	d.mu.Lock()
	defer d.mu.Unlock()

	if ent, ok := d.items[name]; ok {
		_ = os.Remove(ent.filePath)
		d.removeEntry(ent)
	}
	return nil
}

// Close waits for all background writes to complete.
func (d *Disk) Close() error {
	d.closed.Store(true)
	d.wg.Wait()
	return nil
}

// Stats returns hit/miss counters.
func (d *Disk) Stats() (hits, misses int64) {
	return d.hits.Load(), d.misses.Load()
}

// Internal LRU helpers (must hold lock)

func (d *Disk) addToLRU(name, path string, size int64) {
	ent := &lruEntry{
		name:     name,
		filePath: path,
		size:     size,
	}
	d.items[name] = ent
	d.currentSize += size

	if d.lruHead == nil {
		d.lruHead = ent
		d.lruTail = ent
	} else {
		ent.next = d.lruHead
		d.lruHead.prev = ent
		d.lruHead = ent
	}
}

func (d *Disk) moveToFront(ent *lruEntry) {
	if d.lruHead == ent {
		return
	}

	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if d.lruTail == ent {
		d.lruTail = ent.prev
	}

	ent.next = d.lruHead
	ent.prev = nil
	if d.lruHead != nil {
		d.lruHead.prev = ent
	}
	d.lruHead = ent
	if d.lruTail == nil {
		d.lruTail = ent
	}
}

func (d *Disk) removeEntry(ent *lruEntry) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	} else {
		d.lruHead = ent.next
	}

	if ent.next != nil {
		ent.next.prev = ent.prev
	} else {
		d.lruTail = ent.prev
	}

	delete(d.items, ent.name)
	d.currentSize -= ent.size
}

func (d *Disk) evictOne() {
	if d.lruTail == nil {
		return
	}
	_ = os.Remove(d.lruTail.filePath)
	d.removeEntry(d.lruTail)
}
