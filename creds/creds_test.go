package creds

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gurre/awsapi/anomaly"
)

func TestStaticProviderFetch(t *testing.T) {
	p := StaticProvider{Credentials: Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}}
	r := Fetch(context.Background(), p)
	if !r.OK() || r.Credentials.AccessKeyID != "AKID" {
		t.Fatalf("Fetch = %+v", r)
	}
}

type failingProvider struct{}

func (failingProvider) FetchAsync(context.Context) <-chan Result {
	return asyncResult(Result{Anomaly: anomaly.Newf(anomaly.NotFound, "nope")})
}

func TestChainSkipsFailuresAndReturnsFirstSuccess(t *testing.T) {
	chain := NewChain(failingProvider{}, StaticProvider{Credentials: Credentials{AccessKeyID: "ID"}})
	r := Fetch(context.Background(), chain)
	if !r.OK() || r.Credentials.AccessKeyID != "ID" {
		t.Fatalf("chain result = %+v", r)
	}
}

func TestChainExhaustedYieldsFault(t *testing.T) {
	chain := NewChain(failingProvider{}, failingProvider{})
	r := Fetch(context.Background(), chain)
	if r.OK() || r.Anomaly.Category != anomaly.Fault {
		t.Fatalf("expected fault anomaly, got %+v", r)
	}
}

// countingProvider counts how many times the real upstream fetch happens,
// to verify CachingProvider deduplicates concurrent refreshes.
type countingProvider struct {
	calls atomic.Int32
	exp   time.Time
}

func (p *countingProvider) FetchAsync(context.Context) <-chan Result {
	p.calls.Add(1)
	exp := p.exp
	return asyncResult(Result{Credentials: Credentials{AccessKeyID: "ID", Expiration: &exp}})
}

func TestCachingProviderDedupesConcurrentRefresh(t *testing.T) {
	upstream := &countingProvider{exp: time.Now().Add(time.Hour)}
	cache := &CachingProvider{Provider: upstream}

	const n = 20
	var wg sync.WaitGroup
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Fetch(context.Background(), cache)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if !r.OK() || r.Credentials.AccessKeyID != "ID" {
			t.Errorf("result = %+v", r)
		}
	}
	if upstream.calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1", upstream.calls.Load())
	}
}

func TestCachingProviderRefreshesNearExpiry(t *testing.T) {
	upstream := &countingProvider{exp: time.Now().Add(time.Minute)} // inside the 5m skew
	cache := &CachingProvider{Provider: upstream}

	Fetch(context.Background(), cache)
	Fetch(context.Background(), cache)

	if upstream.calls.Load() < 2 {
		t.Errorf("expected a refresh on the second fetch, got %d calls", upstream.calls.Load())
	}
}

func TestCredentialsExpired(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute)
	c := Credentials{Expiration: &future}
	if c.Expired(now, 5*time.Minute) {
		t.Error("should not be expired 10m out with a 5m skew")
	}
	near := now.Add(2 * time.Minute)
	c2 := Credentials{Expiration: &near}
	if !c2.Expired(now, 5*time.Minute) {
		t.Error("should be expired 2m out with a 5m skew")
	}
	c3 := Credentials{}
	if c3.Expired(now, 5*time.Minute) {
		t.Error("non-expiring credentials should never be expired")
	}
}
