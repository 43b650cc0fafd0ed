// Package config implements the client's configuration surface: how a
// caller binds a service descriptor to region/credentials resolution, an
// endpoint override, a transport, and the retry policy — mirroring the
// teacher's Config struct and Validate() method in shape, rewritten
// around the engine's collaborators instead of a restore job's.
package config

import (
	"fmt"
	"net/http"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/creds"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/endpoint"
	"github.com/gurre/awsapi/region"
	"github.com/gurre/awsapi/retryctl"
	"github.com/gurre/awsapi/transport"
)

// Config holds everything a Client needs to invoke operations against
// one service descriptor.
type Config struct {
	// Service is the loaded, immutable descriptor the client invokes
	// operations against. Required.
	Service *descriptor.Service

	// Region, when non-empty, is used directly instead of consulting
	// RegionProvider.
	Region string
	// RegionProvider resolves the region when Region is empty. Defaults
	// to region.DefaultChain() when nil.
	RegionProvider region.Provider

	// CredentialsProvider resolves the signing credentials. Defaults to
	// creds.DefaultChain() wrapped in a creds.CachingProvider when nil.
	CredentialsProvider creds.Provider

	// EndpointOverride, when set, replaces any of the resolved
	// endpoint's fields.
	EndpointOverride *endpoint.Override
	// EndpointResolver resolves the service endpoint. Defaults to
	// endpoint.DefaultResolver{Override: EndpointOverride} when nil.
	EndpointResolver endpoint.Resolver

	// HTTPClient is the net/http client the default transport submits
	// requests through. Ignored when Transport is set. Defaults to
	// http.DefaultClient when nil.
	HTTPClient *http.Client

	// Transport, when set, is used as-is instead of constructing one
	// from HTTPClient; a handle treats it as caller-owned and releases
	// it on Stop. Leave nil to bind to the process-wide shared
	// transport, which Stop never releases.
	Transport transport.Transport

	// ValidateRequests is the initial value of the validate-requests
	// flag; the bound Handle/Client expose it as a mutable atomic cell
	// afterward (engine.Handle.SetValidateRequests, Client.SetValidateRequests).
	ValidateRequests bool

	// Retriable overrides the retry controller's predicate. Defaults to
	// retryctl.DefaultPredicate when nil.
	Retriable retryctl.Predicate
	// Backoff overrides the retry controller's backoff function.
	// Defaults to retryctl.DefaultBackoff when nil.
	Backoff retryctl.Backoff
}

// Validate reports a configuration error as an anomaly, the uniform
// failure value every other pipeline stage returns, since a Config is
// itself part of the invocation pipeline's input rather than a separate
// bootstrap concern.
func (c *Config) Validate() *anomaly.Anomaly {
	if c.Service == nil {
		return anomaly.Newf(anomaly.Incorrect, "config: service descriptor is required")
	}
	if c.Service.Metadata.Protocol == "" {
		return anomaly.Newf(anomaly.Incorrect, "config: service descriptor has no protocol")
	}
	if c.Service.Metadata.EndpointPrefix == "" {
		return anomaly.Newf(anomaly.Incorrect, "config: service descriptor has no endpointPrefix")
	}
	return nil
}

// String implements fmt.Stringer for debug logging, echoing the
// teacher's one-line config summaries.
func (c *Config) String() string {
	id := ""
	if c.Service != nil {
		id = c.Service.Metadata.ServiceID
	}
	return fmt.Sprintf("config{service=%s region=%s validateRequests=%v}", id, c.Region, c.ValidateRequests)
}
