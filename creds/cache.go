package creds

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// expirySkew is the "5 minutes" window named in the data model invariant:
// credentials with a non-nil expiration less than this far in the future
// are treated as expired and refreshed before use.
const expirySkew = 5 * time.Minute

// CachingProvider wraps another Provider, serving a cached Result until
// it is within expirySkew of expiring, then refreshing. Concurrent
// refreshes are deduplicated to exactly one in-flight call via
// singleflight; every other caller awaits that same call's result.
type CachingProvider struct {
	Provider Provider
	Now      func() time.Time // overridable for tests; defaults to time.Now

	mu     sync.Mutex
	cached Result
	have   bool
	group  singleflight.Group
}

func (c *CachingProvider) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// FetchAsync implements Provider.
func (c *CachingProvider) FetchAsync(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() { ch <- c.fetch(ctx) }()
	return ch
}

func (c *CachingProvider) fetch(ctx context.Context) Result {
	c.mu.Lock()
	if c.have && !c.cached.Credentials.Expired(c.now(), expirySkew) {
		cached := c.cached
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("refresh", func() (any, error) {
		r := Fetch(ctx, c.Provider)
		if r.OK() {
			c.mu.Lock()
			c.cached = r
			c.have = true
			c.mu.Unlock()
		}
		return r, nil
	})
	if err != nil {
		// singleflight.Group.Do's fn never returns a non-nil error here;
		// this branch exists only to satisfy the call signature.
		return Result{}
	}
	return v.(Result)
}
