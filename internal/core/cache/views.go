// Package cache memoizes derived views between store changes.
package cache

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// computeTimeout bounds a shared view computation
const computeTimeout = 30 * time.Second

// Stats contains cache performance counters
type Stats struct {
	Size          int       `json:"size"`
	Generation    uint64    `json:"generation"`
	HitCount      uint64    `json:"hit_count"`
	MissCount     uint64    `json:"miss_count"`
	HitRate       float64   `json:"hit_rate"`
	Invalidations uint64    `json:"invalidations"`
	LastCleared   time.Time `json:"last_cleared"`
}

// Views caches computed views until the next Invalidate. Concurrent misses on
// the same key share one computation. A value computed across an
// invalidation is returned to its callers but not stored.
type Views struct {
	group singleflight.Group

	mu          sync.RWMutex
	generation  uint64
	entries     map[string]interface{}
	lastCleared time.Time

	hits          atomic.Uint64
	misses        atomic.Uint64
	invalidations atomic.Uint64
}

func NewViews() *Views {
	return &Views{entries: make(map[string]interface{}), lastCleared: time.Now()}
}

// Get returns the cached value for key or computes it
func (v *Views) Get(ctx context.Context, key string, compute func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	v.mu.RLock()
	value, ok := v.entries[key]
	generation := v.generation
	v.mu.RUnlock()
	if ok {
		v.hits.Add(1)
		return value, nil
	}
	v.misses.Add(1)

	flightKey := key + "@" + strconv.FormatUint(generation, 10)
	// shared computations run detached from the caller that started them
	ch := v.group.DoChan(flightKey, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		value, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		v.mu.Lock()
		if v.generation == generation {
			v.entries[key] = value
		}
		v.mu.Unlock()
		return value, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops every cached value
func (v *Views) Invalidate() {
	v.mu.Lock()
	v.generation++
	v.entries = make(map[string]interface{})
	v.lastCleared = time.Now()
	v.mu.Unlock()
	v.invalidations.Add(1)
}

// Stats returns a snapshot of the counters
func (v *Views) Stats() Stats {
	v.mu.RLock()
	s := Stats{
		Size:        len(v.entries),
		Generation:  v.generation,
		LastCleared: v.lastCleared,
	}
	v.mu.RUnlock()

	s.HitCount = v.hits.Load()
	s.MissCount = v.misses.Load()
	s.Invalidations = v.invalidations.Load()
	if total := s.HitCount + s.MissCount; total > 0 {
		s.HitRate = float64(s.HitCount) / float64(total)
	}
	return s
}
