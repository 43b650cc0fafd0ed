package protocol

import (
	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/shape"
	"github.com/gurre/awsapi/transport"
)

// applyHeaderLocations routes every header/headers-location member of sh
// into header, and reports which member names were consumed so callers
// can exclude them from the remaining-body encoding.
func applyHeaderLocations(svc *descriptor.Service, sh descriptor.Shape, input map[string]any, header transport.Header) (map[string]bool, *anomaly.Anomaly) {
	consumed := map[string]bool{}
	for name, m := range sh.Members {
		switch m.Location {
		case descriptor.LocationHeader:
			val, present := input[name]
			if !present || val == nil {
				continue
			}
			memberShape, ok := svc.Shape(m.ShapeName)
			if !ok {
				return nil, anomaly.Newf(anomaly.Fault, "unknown shape for header member %s", name)
			}
			s, err := shape.EncodeLeaf(memberShape, val, shape.ContextHeader)
			if err != nil {
				return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
			}
			key := name
			if m.LocationName != "" {
				key = m.LocationName
			}
			header.Set(key, s)
			consumed[name] = true
		case descriptor.LocationHeaders:
			val, present := input[name]
			if !present || val == nil {
				continue
			}
			entries, ok := val.(map[string]any)
			if !ok {
				return nil, anomaly.Newf(anomaly.Incorrect, "headers member %s: want map", name)
			}
			memberShape, ok := svc.Shape(m.ShapeName)
			if !ok {
				return nil, anomaly.Newf(anomaly.Fault, "unknown shape for headers member %s", name)
			}
			valShape, ok := svc.Shape(memberShape.Value.ShapeName)
			if !ok {
				return nil, anomaly.Newf(anomaly.Fault, "unknown value shape for headers member %s", name)
			}
			for k, v := range entries {
				s, err := shape.EncodeLeaf(valShape, v, shape.ContextHeader)
				if err != nil {
					return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
				}
				header.Set(m.LocationName+k, s)
			}
			consumed[name] = true
		case descriptor.LocationStatusCode:
			consumed[name] = true
		case descriptor.LocationURI, descriptor.LocationQuerystring:
			consumed[name] = true
		}
	}
	return consumed, nil
}

// headersToStructure reverses applyHeaderLocations when parsing a
// response: every header/headers-location output member is pulled back
// out of the HTTP response headers into the Go-level value map.
func headersToStructure(svc *descriptor.Service, sh descriptor.Shape, header transport.Header, out map[string]any) *anomaly.Anomaly {
	for name, m := range sh.Members {
		switch m.Location {
		case descriptor.LocationHeader:
			key := name
			if m.LocationName != "" {
				key = m.LocationName
			}
			if !header.Has(key) {
				continue
			}
			memberShape, ok := svc.Shape(m.ShapeName)
			if !ok {
				return anomaly.Newf(anomaly.Fault, "unknown shape for header member %s", name)
			}
			val, err := shape.DecodeLeaf(memberShape, header.Get(key), shape.ContextHeader)
			if err != nil {
				return anomaly.Newf(anomaly.Fault, "%v", err)
			}
			out[name] = val
		case descriptor.LocationHeaders:
			prefix := m.LocationName
			memberShape, ok := svc.Shape(m.ShapeName)
			if !ok {
				continue
			}
			valShape, ok := svc.Shape(memberShape.Value.ShapeName)
			if !ok {
				continue
			}
			entries := map[string]any{}
			for key := range header {
				if prefix != "" && len(key) > len(prefix) && key[:len(prefix)] == prefix {
					v, err := shape.DecodeLeaf(valShape, header.Get(key), shape.ContextHeader)
					if err == nil {
						entries[key[len(prefix):]] = v
					}
				}
			}
			if len(entries) > 0 {
				out[name] = entries
			}
		case descriptor.LocationStatusCode:
			// populated by the caller from the HTTP status, not here.
		}
	}
	return nil
}
