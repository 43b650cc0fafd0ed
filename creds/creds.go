// Package creds implements the credentials provider chain: layered
// resolution of AWS access credentials with caching and expiry refresh.
// Every provider exposes the same asynchronous FetchAsync contract so the
// chain, the cache, and the invocation engine can compose them uniformly.
package creds

import (
	"context"
	"time"

	"github.com/gurre/awsapi/anomaly"
)

// parseExpiration parses an RFC 3339 expiration timestamp, the format
// every credential source in this chain (credential_process, ECS, IMDS)
// reports expirations in.
func parseExpiration(s string) (*time.Time, error) {
	if s == "" {
		return nil, errEmptyExpiration
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var errEmptyExpiration = anomaly.Newf(anomaly.Incorrect, "empty expiration")

// Credentials is the resolved access key material for one signing
// operation. A nil Expiration means non-expiring.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      *time.Time
}

// Expired reports whether the credentials are within skew of their
// expiration, or past it. Non-expiring credentials are never expired.
func (c Credentials) Expired(now time.Time, skew time.Duration) bool {
	if c.Expiration == nil {
		return false
	}
	return !now.Before(c.Expiration.Add(-skew))
}

// Result is what a provider's async fetch resolves to: either usable
// Credentials or an anomaly describing why none were produced.
type Result struct {
	Credentials Credentials
	Anomaly     *anomaly.Anomaly
}

// OK reports whether Result carries usable credentials.
func (r Result) OK() bool { return r.Anomaly == nil }

// Provider is the uniform credentials-resolution contract. FetchAsync must
// never block the calling goroutine; it returns a capacity-1 channel that
// receives exactly one Result.
type Provider interface {
	FetchAsync(ctx context.Context) <-chan Result
}

// Fetch is the synchronous convenience wrapper: it awaits the channel
// FetchAsync returns.
func Fetch(ctx context.Context, p Provider) Result {
	select {
	case r := <-p.FetchAsync(ctx):
		return r
	case <-ctx.Done():
		return Result{Anomaly: anomaly.Newf(anomaly.Interrupted, "fetch credentials: %v", ctx.Err())}
	}
}

func asyncResult(r Result) <-chan Result {
	ch := make(chan Result, 1)
	ch <- r
	return ch
}

// StaticProvider returns a fixed set of Credentials, for explicit
// constructor args (chain position 1).
type StaticProvider struct {
	Credentials Credentials
}

// FetchAsync implements Provider.
func (p StaticProvider) FetchAsync(context.Context) <-chan Result {
	return asyncResult(Result{Credentials: p.Credentials})
}
