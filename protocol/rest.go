package protocol

import (
	"net/url"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/transport"
)

// restPrepared is the location-routed decomposition of a rest-json/
// rest-xml operation's input shared by both protocol families: only the
// body encoding (JSON vs XML) differs between them.
type restPrepared struct {
	Method string
	Path   string
	Query  url.Values
	Header transport.Header

	InputShape descriptor.Shape
	InputMap   map[string]any

	// PayloadMember is "" when the structure has no dedicated payload
	// member, meaning every body-location (untagged) member is encoded
	// together as the whole body.
	PayloadMember string
	PayloadShape  descriptor.Shape
	PayloadValue  any
	RawPayload    bool // payload shape is blob/string: body is raw bytes
}

func prepareRestRequest(svc *descriptor.Service, op descriptor.Operation, input any) (*restPrepared, *anomaly.Anomaly) {
	inputMap, _ := input.(map[string]any)
	if inputMap == nil {
		inputMap = map[string]any{}
	}

	var sh descriptor.Shape
	if op.InputShape != "" {
		s, ok := svc.Shape(op.InputShape)
		if !ok {
			return nil, anomaly.Newf(anomaly.Fault, "unknown input shape %s", op.InputShape)
		}
		sh = s
	}

	path, anom := buildURIPath(svc, sh, inputMap, op.HTTP.RequestURI)
	if anom != nil {
		return nil, anom
	}
	query, anom := buildQueryValues(svc, sh, inputMap)
	if anom != nil {
		return nil, anom
	}
	header := transport.Header{}
	if _, anom := applyHeaderLocations(svc, sh, inputMap, header); anom != nil {
		return nil, anom
	}

	p := &restPrepared{
		Method:     op.HTTP.Method,
		Path:       path,
		Query:      query,
		Header:     header,
		InputShape: sh,
		InputMap:   inputMap,
	}

	if sh.Payload != "" {
		member, ok := sh.Members[sh.Payload]
		if !ok {
			return nil, anomaly.Newf(anomaly.Fault, "payload member %s not declared", sh.Payload)
		}
		payloadShape, ok := svc.Shape(member.ShapeName)
		if !ok {
			return nil, anomaly.Newf(anomaly.Fault, "unknown payload shape %s", member.ShapeName)
		}
		p.PayloadMember = sh.Payload
		p.PayloadShape = payloadShape
		p.PayloadValue = inputMap[sh.Payload]
		p.RawPayload = payloadShape.Type == descriptor.TypeBlob || payloadShape.Type == descriptor.TypeString
	}
	return p, nil
}

// restStatusMember reports the status-location member name of an
// output shape, if it declares one, so ParseHTTPResponse can thread the
// HTTP status code back into the parsed value.
func restStatusMember(sh descriptor.Shape) string {
	for name, m := range sh.Members {
		if m.Location == descriptor.LocationStatusCode {
			return name
		}
	}
	return ""
}
