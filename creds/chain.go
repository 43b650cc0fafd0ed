package creds

import (
	"context"

	"github.com/gurre/awsapi/anomaly"
)

// Chain queries its members in order and returns the first non-anomaly
// result. A member's failure to produce credentials is silent; only
// exhausting every member surfaces an anomaly.
type Chain struct {
	Providers []Provider
}

// NewChain builds a Chain that queries exactly the given providers, in
// the order given; it adds no providers of its own. DefaultChain builds
// the standard order (environment, system properties, shared-config
// profile, ECS container, EC2 instance metadata).
func NewChain(providers ...Provider) *Chain {
	return &Chain{Providers: providers}
}

// DefaultChain is the standard provider order with no explicit static
// credentials supplied.
func DefaultChain() *Chain {
	return NewChain(
		EnvProvider{},
		SystemPropertyProvider{},
		ProfileProvider{},
		ECSProvider{},
		IMDSProvider{},
	)
}

// FetchAsync implements Provider.
func (c *Chain) FetchAsync(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() { ch <- c.fetch(ctx) }()
	return ch
}

func (c *Chain) fetch(ctx context.Context) Result {
	for _, p := range c.Providers {
		r := Fetch(ctx, p)
		if r.OK() {
			return r
		}
		if ctx.Err() != nil {
			return Result{Anomaly: anomaly.Newf(anomaly.Interrupted, "credentials chain: %v", ctx.Err())}
		}
	}
	return Result{Anomaly: anomaly.Newf(anomaly.Fault, "no credentials found")}
}
