// Package dedupe tracks settled game IDs so a game is settled at most once.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSize = 50000

// Deduper records seen game IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a rejected submission can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps up to maxSize IDs in an LRU cache, evicting the
// oldest first. With maxSize <= 0 it keeps every ID in a plain map.
type inMemoryDeduper struct {
	maxSize int

	mu   sync.Mutex
	seen map[string]struct{}
	lru  *lru.Cache[string, struct{}]
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize > 0 {
		c, err := lru.New[string, struct{}](d.maxSize)
		if err == nil {
			d.lru = c
			return d
		}
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if d.lru != nil {
		found, _ := d.lru.ContainsOrAdd(id, struct{}{})
		return found
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	if d.lru != nil {
		d.lru.Remove(id)
		return
	}
	d.mu.Lock()
	delete(d.seen, id)
	d.mu.Unlock()
}

func (d *inMemoryDeduper) Size() int64 {
	if d.lru != nil {
		return int64(d.lru.Len())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
