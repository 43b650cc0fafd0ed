package region

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gurre/awsapi/anomaly"
)

func TestStaticProvider(t *testing.T) {
	r := Fetch(context.Background(), StaticProvider{Region: "us-west-2"})
	if !r.OK() || r.Region != "us-west-2" {
		t.Fatalf("Fetch = %+v", r)
	}
	r2 := Fetch(context.Background(), StaticProvider{})
	if r2.OK() {
		t.Fatal("expected anomaly for empty static region")
	}
}

type failingProvider struct{}

func (failingProvider) FetchAsync(context.Context) <-chan Result {
	return asyncResult(Result{Anomaly: anomaly.Newf(anomaly.NotFound, "nope")})
}

func TestChainFallsThroughToFirstSuccess(t *testing.T) {
	chain := NewChain(failingProvider{}, StaticProvider{Region: "eu-west-1"})
	r := Fetch(context.Background(), chain)
	if !r.OK() || r.Region != "eu-west-1" {
		t.Fatalf("chain result = %+v", r)
	}
}

func TestChainExhaustedYieldsNoRegionFound(t *testing.T) {
	chain := NewChain(failingProvider{}, failingProvider{})
	r := Fetch(context.Background(), chain)
	if r.OK() {
		t.Fatal("expected anomaly")
	}
	if r.Anomaly.Message != "No region found" {
		t.Errorf("message = %q, want %q", r.Anomaly.Message, "No region found")
	}
}

// memoCountingProvider is a memoizing stand-in provider; the test below
// checks only that concurrent fetches all yield the same region. It does
// not exercise IMDSProvider and asserts no upstream call count.
type memoCountingProvider struct {
	calls atomic.Int32
	mu    sync.Mutex
	have  bool
	value string
	sf    sync.Once
}

func (p *memoCountingProvider) FetchAsync(context.Context) <-chan Result {
	ch := make(chan Result, 1)
	p.calls.Add(1)
	p.sf.Do(func() {
		p.mu.Lock()
		p.value = "us-east-1"
		p.have = true
		p.mu.Unlock()
	})
	p.mu.Lock()
	v := p.value
	p.mu.Unlock()
	ch <- Result{Region: v}
	return ch
}

func TestMemoizingProviderShapeUnderConcurrency(t *testing.T) {
	p := &memoCountingProvider{}
	const n = 10
	var wg sync.WaitGroup
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Fetch(context.Background(), p)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		if !r.OK() || r.Region != "us-east-1" {
			t.Errorf("result = %+v", r)
		}
	}
}
