// Package engine implements the invocation pipeline: given a bound
// Handle and an operation name plus input, it drives region and
// credential resolution, endpoint resolution, protocol encoding,
// signing, transport submission, response parsing, and retry — the same
// pipeline shape the teacher drove over its worker pool (load state,
// perform the operation, record progress, retry on transient failure),
// generalized here to one HTTP call instead of one file.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/config"
	"github.com/gurre/awsapi/creds"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/endpoint"
	"github.com/gurre/awsapi/protocol"
	"github.com/gurre/awsapi/region"
	"github.com/gurre/awsapi/retryctl"
	"github.com/gurre/awsapi/signer"
	"github.com/gurre/awsapi/trace"
	"github.com/gurre/awsapi/transport"
)

// Interceptor adjusts a built request before it is signed, for
// per-service quirks (S3 virtual-host routing, presigned content
// hashing) that the generic pipeline does not know about. It must be a
// pure function of its inputs.
type Interceptor func(svc *descriptor.Service, input any, req *transport.Request) *transport.Request

// Result is the outcome of one Invoke/InvokeAsync call: either Value is
// set and Anomaly is nil, or the reverse. Trace is attached regardless
// of outcome.
type Result struct {
	Value   any
	Anomaly *anomaly.Anomaly
	Trace   trace.Trace
}

// Handle binds a Config to the collaborators InvokeAsync drives: the
// protocol dispatcher selected by the descriptor's protocol family, the
// region/credentials providers, the endpoint resolver, the HTTP
// transport, the retry controller, and an optional interceptor.
type Handle struct {
	Config      *config.Config
	Dispatcher  protocol.Dispatcher
	Region      region.Provider
	Credentials creds.Provider
	Endpoint    endpoint.Resolver
	Transport   transport.Transport
	Retry       *retryctl.Controller
	Interceptor Interceptor

	stopOnce         sync.Once
	validateRequests atomic.Bool
}

// ValidateRequests reports whether required-member validation runs before
// an operation's input is encoded. Safe for concurrent use alongside
// Invoke/InvokeAsync and SetValidateRequests.
func (h *Handle) ValidateRequests() bool {
	return h.validateRequests.Load()
}

// SetValidateRequests flips the validate-requests flag. It is the only
// mutable state a bound Handle exposes; everything else is fixed at
// NewHandle time.
func (h *Handle) SetValidateRequests(v bool) {
	h.validateRequests.Store(v)
}

// NewHandle builds a Handle from cfg, filling in every collaborator
// Config left nil with the package defaults named in the design: a
// cached credentials chain, a region chain, the bundled endpoint
// resolver, a shared *http.Client-backed transport, and the default
// retry predicate/backoff.
func NewHandle(cfg *config.Config) (*Handle, *anomaly.Anomaly) {
	if a := cfg.Validate(); a != nil {
		return nil, a
	}
	d, ok := protocol.For(cfg.Service.Metadata.Protocol)
	if !ok {
		return nil, anomaly.Newf(anomaly.Incorrect, "engine: no protocol dispatcher registered for %q", cfg.Service.Metadata.Protocol)
	}

	h := &Handle{
		Config:     cfg,
		Dispatcher: d,
		Endpoint:   endpoint.DefaultResolver{Override: cfg.EndpointOverride},
		Retry:      retryctl.NewController(cfg.Retriable, cfg.Backoff),
	}
	if cfg.EndpointResolver != nil {
		h.Endpoint = cfg.EndpointResolver
	}
	if cfg.Region != "" {
		h.Region = region.StaticProvider{Region: cfg.Region}
	} else if cfg.RegionProvider != nil {
		h.Region = cfg.RegionProvider
	} else {
		h.Region = region.DefaultChain()
	}
	if cfg.CredentialsProvider != nil {
		h.Credentials = cfg.CredentialsProvider
	} else {
		h.Credentials = &creds.CachingProvider{Provider: creds.DefaultChain()}
	}
	h.validateRequests.Store(cfg.ValidateRequests)
	switch {
	case cfg.Transport != nil:
		h.Transport = cfg.Transport
	case cfg.HTTPClient != nil:
		h.Transport = transport.NewHTTPTransport(cfg.HTTPClient)
	default:
		h.Transport = transport.Shared()
	}
	return h, nil
}

// Stop releases the transport unless it is the process-wide shared
// instance, matching the "stopping a handle that shares the
// process-wide HTTP transport is a no-op" contract.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		if h.Transport != nil && !transport.IsShared(h.Transport) {
			h.Transport.Stop()
		}
	})
}

// Invoke is the synchronous convenience wrapper around InvokeAsync.
func Invoke(ctx context.Context, h *Handle, opName string, input any) Result {
	select {
	case r := <-InvokeAsync(ctx, h, opName, input):
		return r
	case <-ctx.Done():
		return Result{Anomaly: anomaly.Newf(anomaly.Interrupted, "invoke %s: %v", opName, ctx.Err())}
	}
}

// InvokeAsync runs one operation through the full pipeline and returns a
// capacity-1 channel that receives exactly one Result.
func InvokeAsync(ctx context.Context, h *Handle, opName string, input any) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				out <- Result{Anomaly: anomaly.Newf(anomaly.Fault, "invoke %s: panic: %v", opName, p)}
			}
		}()
		out <- invoke(ctx, h, opName, input)
	}()
	return out
}

func invoke(ctx context.Context, h *Handle, opName string, input any) Result {
	op, ok := h.Config.Service.Operations[opName]
	if !ok {
		return Result{Anomaly: anomaly.Newf(anomaly.Unsupported, "Operation not supported")}
	}
	if h.ValidateRequests() {
		if a := validateRequired(op, input); a != nil {
			return Result{Anomaly: a}
		}
	}

	start := time.Now()
	res := h.Retry.Run(ctx, func(ctx context.Context, attempt int) (any, *anomaly.Anomaly) {
		return attempt1(ctx, h, op, input)
	})

	result := Result{}.fold(res)
	result.Trace.Attempts = res.Attempts
	result.Trace.Duration = time.Since(start)
	return result
}

// fold exists only to give invoke a readable construction step without
// repeating the Result{...} literal twice for the success/failure split.
func (r Result) fold(res retryctl.Result) Result {
	if res.Anomaly != nil {
		r.Anomaly = res.Anomaly
		if attempt, ok := res.Value.(*attemptOutcome); ok && attempt != nil {
			r.Trace.Request = attempt.request
			r.Trace.Response = attempt.response
		}
		return r
	}
	attempt, _ := res.Value.(*attemptOutcome)
	if attempt != nil {
		r.Value = attempt.value
		r.Trace.Request = attempt.request
		r.Trace.Response = attempt.response
	}
	return r
}

// attemptOutcome carries the raw request/response alongside the
// decoded/anomaly outcome of one attempt, so the retry controller's
// generic Result (which only knows about "value" and "anomaly") can
// still surface debug metadata after the loop ends.
type attemptOutcome struct {
	value    any
	request  *transport.Request
	response *transport.Response
}

func attempt1(ctx context.Context, h *Handle, op descriptor.Operation, input any) (any, *anomaly.Anomaly) {
	regionCh := h.Region.FetchAsync(ctx)
	credsCh := h.Credentials.FetchAsync(ctx)

	var regionResult region.Result
	var credsResult creds.Result
	select {
	case regionResult = <-regionCh:
	case <-ctx.Done():
		return nil, anomaly.Newf(anomaly.Interrupted, "invoke: %v", ctx.Err())
	}
	select {
	case credsResult = <-credsCh:
	case <-ctx.Done():
		return nil, anomaly.Newf(anomaly.Interrupted, "invoke: %v", ctx.Err())
	}
	if !regionResult.OK() {
		return nil, regionResult.Anomaly
	}
	if !credsResult.OK() {
		return nil, credsResult.Anomaly
	}

	ep, a := h.Endpoint.Resolve(h.Config.Service, regionResult.Region)
	if a != nil {
		return nil, a
	}

	req, a := h.Dispatcher.BuildHTTPRequest(h.Config.Service, op, input)
	if a != nil {
		return &attemptOutcome{request: req}, a
	}
	for name, values := range h.Dispatcher.Headers(h.Config.Service, op) {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	overlayEndpoint(req, ep)

	if h.Interceptor != nil {
		req = h.Interceptor(h.Config.Service, input, req)
	}

	signingName := h.Config.Service.Metadata.SigningNameOrPrefix()
	if err := signer.Sign(req, credsResult.Credentials, signer.Params{
		Region:           regionResult.Region,
		SigningName:      signingName,
		SignatureVersion: h.Config.Service.Metadata.SignatureVersion,
	}); err != nil {
		return &attemptOutcome{request: req}, anomaly.Wrap(err)
	}

	var resp *transport.Response
	select {
	case resp = <-h.Transport.Submit(ctx, req):
	case <-ctx.Done():
		return &attemptOutcome{request: req}, anomaly.Newf(anomaly.Interrupted, "invoke: %v", ctx.Err())
	}
	if resp.Anomaly != nil {
		return &attemptOutcome{request: req, response: resp}, resp.Anomaly
	}

	value, a := h.Dispatcher.ParseHTTPResponse(h.Config.Service, op, resp)
	return &attemptOutcome{value: value, request: req, response: resp}, a
}

// overlayEndpoint applies the resolved endpoint to req: host header,
// scheme, port, and path prefix/replace, per the pipeline's overlay
// step.
func overlayEndpoint(req *transport.Request, ep endpoint.Endpoint) {
	if ep.Hostname != "" {
		req.ServerName = ep.Hostname
		req.Header.Set("host", ep.Hostname)
	}
	if ep.Protocol != "" {
		req.Scheme = ep.Protocol
	}
	if ep.Port != "" {
		req.ServerPort = ep.Port
	}
	if ep.Path != "" {
		req.URI = ep.Path + req.URI
	}
}

// validateRequired checks that every member op.RequiredInput names is
// present and non-nil in input, when input is a map[string]any. Inputs
// of any other shape are accepted unchecked: validation is an opt-in
// courtesy for the common map-keyed-by-member-name case, not a full
// schema walk.
func validateRequired(op descriptor.Operation, input any) *anomaly.Anomaly {
	if len(op.RequiredInput) == 0 {
		return nil
	}
	m, ok := input.(map[string]any)
	if !ok {
		return nil
	}
	var missing []string
	for _, name := range op.RequiredInput {
		if v, present := m[name]; !present || v == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return anomaly.Newf(anomaly.Incorrect, "missing required members: %v", missing).WithData("missing", missing)
}
