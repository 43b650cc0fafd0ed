// Package client implements the immutable client handle §4.8 names: the
// entry point that binds a service descriptor to its engine.Handle and
// exposes the debugging/introspection shortcuts a caller reaches for
// instead of poking at the engine directly, echoing the teacher's single
// exported Coordinator facade over its collaborators.
package client

import (
	"context"
	"fmt"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/config"
	"github.com/gurre/awsapi/creds"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/endpoint"
	"github.com/gurre/awsapi/engine"
	"github.com/gurre/awsapi/region"
)

// Client is an immutable handle bound to one service descriptor. Every
// method is safe for concurrent use.
type Client struct {
	handle *engine.Handle
}

// New builds a Client from cfg: resolves the protocol dispatcher,
// defaults every unset collaborator, and returns an immutable handle.
// It never performs network I/O itself — region/credential/endpoint
// resolution happens lazily, once per Invoke.
func New(cfg *config.Config) (*Client, error) {
	h, a := engine.NewHandle(cfg)
	if a != nil {
		return nil, a
	}
	return &Client{handle: h}, nil
}

// Invoke runs one operation through the full pipeline and blocks for the
// result.
func (c *Client) Invoke(ctx context.Context, op string, input any) engine.Result {
	return engine.Invoke(ctx, c.handle, op, input)
}

// InvokeAsync runs one operation through the full pipeline and returns
// immediately with a capacity-1 channel carrying the eventual Result.
func (c *Client) InvokeAsync(ctx context.Context, op string, input any) <-chan engine.Result {
	return engine.InvokeAsync(ctx, c.handle, op, input)
}

// ValidateRequests reports whether this client validates required input
// members before encoding a request.
func (c *Client) ValidateRequests() bool {
	return c.handle.ValidateRequests()
}

// SetValidateRequests flips the validate-requests flag. It is the only
// mutable state a Client exposes beyond its caches, and is safe to call
// concurrently with Invoke/InvokeAsync.
func (c *Client) SetValidateRequests(v bool) {
	c.handle.SetValidateRequests(v)
}

// Ops returns the names of every operation the bound descriptor exposes.
func (c *Client) Ops() []string {
	svc := c.handle.Config.Service
	names := make([]string, 0, len(svc.Operations))
	for name := range svc.Operations {
		names = append(names, name)
	}
	return names
}

// Doc renders a short human-readable summary of op's documentation,
// method/path, and input/output shapes, for debugging/introspection
// rather than generated reference docs.
func (c *Client) Doc(op string) string {
	o, ok := c.handle.Config.Service.Operations[op]
	if !ok {
		return fmt.Sprintf("%s: no such operation", op)
	}
	doc := o.Documentation
	if doc == "" {
		doc = "(no documentation)"
	}
	return fmt.Sprintf("%s %s %s\n  input:  %s\n  output: %s\n\n%s",
		o.Name, o.HTTP.Method, o.HTTP.RequestURI, o.InputShape, o.OutputShape, doc)
}

// RequestSpecKey returns the shape name op's input is encoded against,
// or "" if op takes no input.
func (c *Client) RequestSpecKey(op string) string {
	o, ok := c.handle.Config.Service.Operations[op]
	if !ok {
		return ""
	}
	return o.InputShape
}

// ResponseSpecKey returns the shape name op's output is decoded against,
// or "" if op produces no output.
func (c *Client) ResponseSpecKey(op string) string {
	o, ok := c.handle.Config.Service.Operations[op]
	if !ok {
		return ""
	}
	return o.OutputShape
}

// Service returns the bound descriptor.
func (c *Client) Service() *descriptor.Service {
	return c.handle.Config.Service
}

// Region resolves the current region through the client's region
// provider.
func (c *Client) Region(ctx context.Context) (string, *anomaly.Anomaly) {
	r := region.Fetch(ctx, c.handle.Region)
	return r.Region, r.Anomaly
}

// Credentials resolves the current signing credentials through the
// client's credentials provider.
func (c *Client) Credentials(ctx context.Context) (creds.Credentials, *anomaly.Anomaly) {
	r := creds.Fetch(ctx, c.handle.Credentials)
	return r.Credentials, r.Anomaly
}

// Endpoint resolves the endpoint this client would target for the
// current region.
func (c *Client) Endpoint(ctx context.Context) (endpoint.Endpoint, *anomaly.Anomaly) {
	reg, a := c.Region(ctx)
	if a != nil {
		return endpoint.Endpoint{}, a
	}
	return c.handle.Endpoint.Resolve(c.handle.Config.Service, reg)
}

// Stop releases the underlying transport unless it is the process-wide
// shared instance.
func (c *Client) Stop() {
	c.handle.Stop()
}
