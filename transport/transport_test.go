package transport

import (
	"context"
	"testing"
)

func TestHeaderCaseInsensitive(t *testing.T) {
	h := Header{}
	h.Set("Content-Type", "application/json")
	if got := h.Get("content-type"); got != "application/json" {
		t.Errorf("Get(content-type) = %q, want application/json", got)
	}
	h.Add("X-Amz-Target", "Foo.Bar")
	if got := h.Get("x-amz-target"); got != "Foo.Bar" {
		t.Errorf("Get(x-amz-target) = %q, want Foo.Bar", got)
	}
}

func TestFakeTransportRecordsRequests(t *testing.T) {
	fake := NewFake(&Response{Status: 200, Header: Header{}, Body: []byte(`{}`)})
	req := NewRequest()
	req.Method = "POST"
	req.URI = "/"

	ch := fake.Submit(context.Background(), req)
	resp := <-ch
	if resp.Status != 200 {
		t.Errorf("Status = %d, want 200", resp.Status)
	}

	got := fake.Requests()
	if len(got) != 1 || got[0] != req {
		t.Errorf("Requests() = %v, want [%v]", got, req)
	}

	fake.Stop()
	if !fake.Stopped() {
		t.Error("Stopped() = false after Stop()")
	}
}

func TestSharedTransportIsSingleton(t *testing.T) {
	if Shared() != Shared() {
		t.Error("Shared() returned different instances")
	}
	if !IsShared(Shared()) {
		t.Error("IsShared(Shared()) = false")
	}
	if IsShared(NewHTTPTransport(nil)) {
		t.Error("IsShared should be false for a fresh transport")
	}
}
