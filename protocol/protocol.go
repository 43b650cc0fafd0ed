// Package protocol implements the pluggable wire-encoding layer: building
// an HTTP request from a shape-typed input value and parsing an HTTP
// response back into a value or anomaly, one implementation per AWS
// protocol family (json, query, rest-json, rest-xml, ec2).
package protocol

import (
	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/transport"
)

// Dispatcher is the per-protocol-family contract the invocation engine
// drives. Implementations are selected from a static registry keyed by
// service.metadata.protocol, never resolved dynamically by name lookup at
// request time.
type Dispatcher interface {
	// BuildHTTPRequest translates a Go-level input value (map[string]any
	// keyed by shape member name, per the shape package's convention)
	// into an engine-internal HTTP request.
	BuildHTTPRequest(svc *descriptor.Service, op descriptor.Operation, input any) (*transport.Request, *anomaly.Anomaly)
	// ParseHTTPResponse translates an HTTP response into a Go-level
	// output value, or the anomaly the service/transport reported.
	ParseHTTPResponse(svc *descriptor.Service, op descriptor.Operation, resp *transport.Response) (any, *anomaly.Anomaly)
	// Headers returns the base headers every request of this protocol
	// family carries before protocol-specific or member-routed headers
	// are added (content-type, x-amz-target for JSON RPC families).
	Headers(svc *descriptor.Service, op descriptor.Operation) transport.Header
}

var registry = map[string]Dispatcher{}

// Register adds a Dispatcher to the static registry under protocolName.
// Called from each family's init(); never called at request time.
func Register(protocolName string, d Dispatcher) {
	registry[protocolName] = d
}

// For looks up the Dispatcher bound to protocolName.
func For(protocolName string) (Dispatcher, bool) {
	d, ok := registry[protocolName]
	return d, ok
}
