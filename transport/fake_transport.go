package transport

import (
	"context"
	"sync"
)

// Fake is a test-double Transport that returns canned Responses in
// order, recording every Request it was handed. It exists for engine
// and protocol tests that must not make real network calls, in the
// spirit of the teacher's hand-rolled mock clients: a small struct
// guarded by a mutex with a constructor function, no interface-mocking
// framework.
type Fake struct {
	mu        sync.Mutex
	responses []*Response
	requests  []*Request
	stopped   bool
}

// NewFake returns a Fake that yields responses in order, one per Submit
// call; once exhausted, Submit repeats the last response.
func NewFake(responses ...*Response) *Fake {
	return &Fake{responses: responses}
}

// Submit implements Transport.
func (f *Fake) Submit(_ context.Context, req *Request) <-chan *Response {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	var resp *Response
	if idx >= 0 {
		resp = f.responses[idx]
	} else {
		resp = &Response{Status: 200, Header: Header{}}
	}
	f.mu.Unlock()

	ch := make(chan *Response, 1)
	ch <- resp
	return ch
}

// Stop implements Transport.
func (f *Fake) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

// Stopped reports whether Stop was called.
func (f *Fake) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// Requests returns every Request handed to Submit so far.
func (f *Fake) Requests() []*Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Request, len(f.requests))
	copy(out, f.requests)
	return out
}
