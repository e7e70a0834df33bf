package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ferryhub/internal/domain/models"

	"golang.org/x/sync/singleflight"
)

type entry[T any] struct {
	value  T
	expiry time.Time
}

// Cache is an in-memory TTL store. Values are cloned on the way in and out
// so callers never share slices with the cache. Expired entries are
// dropped on read, never served.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	clone   func(T) T
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
}

type Option[T any] func(*Cache[T])

// WithClock replaces time.Now, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) { c.now = now }
}

func New[T any](ttl time.Duration, clone func(T) T, opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		entries: make(map[string]entry[T]),
		clone:   clone,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache[T]) TTL() time.Duration { return c.ttl }

func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !c.now().Before(e.expiry) {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur.expiry.Equal(e.expiry) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return c.cloneValue(e.value), true
}

// Set stores value under the default TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.SetTTL(key, value, c.ttl)
}

func (c *Cache[T]) SetTTL(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry[T]{value: c.cloneValue(value), expiry: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len counts live entries.
func (c *Cache[T]) Len() int {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if now.Before(e.expiry) {
			n++
		}
	}
	return n
}

// Purge removes expired entries and returns how many were dropped.
func (c *Cache[T]) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expiry) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// GetOrLoad returns the cached value or calls load once per key across
// concurrent callers. Errors are returned but never cached.
func (c *Cache[T]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (T, error)) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return c.cloneValue(res.(T)), false, nil
}

// Janitor purges expired entries every interval until ctx is done.
func (c *Cache[T]) Janitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Purge()
		}
	}
}

func (c *Cache[T]) cloneValue(v T) T {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

// SearchKey is the canonical key for one provider's results of a search.
func SearchKey(req models.SearchRequest, provider string) string {
	return fmt.Sprintf("ferry|%s|%s|%s|a%dc%di%d|%s",
		strings.ToLower(strings.TrimSpace(req.Origin)),
		strings.ToLower(strings.TrimSpace(req.Destination)),
		strings.TrimSpace(req.TravelDate),
		req.Adults, req.Children, req.Infants,
		strings.ToLower(provider),
	)
}

// TripKey indexes a single searched trip for the booking flow.
func TripKey(provider, tripID string) string {
	return "trip|" + strings.ToLower(provider) + "|" + tripID
}

// CloneResults deep-copies a result list.
func CloneResults(in []models.UnifiedFerryResult) []models.UnifiedFerryResult {
	if in == nil {
		return nil
	}
	out := make([]models.UnifiedFerryResult, len(in))
	for i := range in {
		out[i] = CloneResult(in[i])
	}
	return out
}

func CloneResult(r models.UnifiedFerryResult) models.UnifiedFerryResult {
	out := r
	out.Features.Amenities = append([]string(nil), r.Features.Amenities...)
	out.ProviderData.Raw = append([]byte(nil), r.ProviderData.Raw...)
	if r.Classes != nil {
		out.Classes = make([]models.FerryClass, len(r.Classes))
		for i, c := range r.Classes {
			cc := c
			cc.Amenities = append([]string(nil), c.Amenities...)
			if c.SeatLayout != nil {
				l := *c.SeatLayout
				l.Seats = append([]models.Seat(nil), c.SeatLayout.Seats...)
				cc.SeatLayout = &l
			}
			out.Classes[i] = cc
		}
	}
	return out
}
