package region

import (
	"context"

	"github.com/gurre/awsapi/anomaly"
)

// Chain queries its members in order and returns the first non-anomaly
// result, surfacing "No region found" only once every member is
// exhausted.
type Chain struct {
	Providers []Provider
}

// NewChain builds a Chain from explicit providers.
func NewChain(providers ...Provider) *Chain {
	return &Chain{Providers: providers}
}

// DefaultChain is the standard resolution order with no explicit region
// supplied.
func DefaultChain() *Chain {
	return NewChain(
		EnvProvider{},
		SystemPropertyProvider{},
		ProfileProvider{},
		&IMDSProvider{},
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
			return Result{Anomaly: anomaly.Newf(anomaly.Interrupted, "region chain: %v", ctx.Err())}
		}
	}
	return Result{Anomaly: anomaly.Newf(anomaly.Fault, "No region found")}
}
