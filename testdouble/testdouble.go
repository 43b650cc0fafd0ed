// Package testdouble implements the hand-rolled fake client named as an
// out-of-scope collaborator: a Client whose Ops table returns canned
// values directly, with no descriptor, protocol, signer, or transport
// involved, in the spirit of the teacher's small struct-plus-constructor
// mocks (mock.S3Client, mock.DynamoDBClient) rather than a generated or
// reflection-based mocking framework.
package testdouble

import (
	"context"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/engine"
)

// Client is a fake client.Client: Invoke/InvokeAsync look opName up in
// Ops and return its value verbatim, or an unsupported anomaly when
// opName is absent.
type Client struct {
	// Ops maps operation name to the value Invoke returns for it.
	Ops map[string]any

	// Calls records every opName/input pair passed to Invoke/InvokeAsync,
	// in call order, for assertions in tests that exercise a collaborator
	// built against this fake.
	Calls []Call
}

// Call is one recorded invocation.
type Call struct {
	Op    string
	Input any
}

// New returns a Client whose Ops table is ops.
func New(ops map[string]any) *Client {
	return &Client{Ops: ops}
}

// Invoke implements the synchronous half of the client contract.
func (c *Client) Invoke(ctx context.Context, op string, input any) engine.Result {
	c.Calls = append(c.Calls, Call{Op: op, Input: input})
	value, ok := c.Ops[op]
	if !ok {
		return engine.Result{Anomaly: anomaly.Newf(anomaly.Unsupported, "Operation not supported")}
	}
	return engine.Result{Value: value}
}

// InvokeAsync implements the asynchronous half of the client contract,
// delivering the same outcome Invoke would on a capacity-1 channel.
func (c *Client) InvokeAsync(ctx context.Context, op string, input any) <-chan engine.Result {
	out := make(chan engine.Result, 1)
	out <- c.Invoke(ctx, op, input)
	return out
}
