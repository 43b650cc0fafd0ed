// Package region implements the region provider chain: layered
// resolution of the AWS region to use, mirroring the shape of the creds
// package's provider/chain contract.
package region

import (
	"context"

	"github.com/gurre/awsapi/anomaly"
)

// Result is what a provider's async fetch resolves to.
type Result struct {
	Region  string
	Anomaly *anomaly.Anomaly
}

// OK reports whether Result carries a usable region.
func (r Result) OK() bool { return r.Anomaly == nil }

// Provider is the uniform region-resolution contract. FetchAsync must
// never block the calling goroutine.
type Provider interface {
	FetchAsync(ctx context.Context) <-chan Result
}

// Fetch is the synchronous convenience wrapper.
func Fetch(ctx context.Context, p Provider) Result {
	select {
	case r := <-p.FetchAsync(ctx):
		return r
	case <-ctx.Done():
		return Result{Anomaly: anomaly.Newf(anomaly.Interrupted, "fetch region: %v", ctx.Err())}
	}
}

func asyncResult(r Result) <-chan Result {
	ch := make(chan Result, 1)
	ch <- r
	return ch
}

// StaticProvider returns a fixed region (chain position 1).
type StaticProvider struct {
	Region string
}

// FetchAsync implements Provider.
func (p StaticProvider) FetchAsync(context.Context) <-chan Result {
	if p.Region == "" {
		return asyncResult(Result{Anomaly: anomaly.Newf(anomaly.NotFound, "no explicit region configured")})
	}
	return asyncResult(Result{Region: p.Region})
}
