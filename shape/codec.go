// Package shape implements the shape codec: translating between
// Go-level values (maps, slices, and leaf types keyed by shape member
// name) and the wire-level trees the protocol dispatchers serialize to
// JSON or XML, or route individually to HTTP locations (uri, header,
// headers, querystring, payload, statusCode).
//
// Leaf primitives (string/int/bool/timestamp/blob stringification) are
// the mechanical collaborator named in the top-level design; the
// composite structure/list/map walk that calls into them is this
// package's core contribution.
package shape

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	smithytime "github.com/aws/smithy-go/time"

	"github.com/gurre/awsapi/descriptor"
)

// ErrCorrupt is returned when a wire value cannot be parsed against its
// declared shape.
var ErrCorrupt = fmt.Errorf("shape: corrupt value")

// Context distinguishes the wire location a leaf value is being
// serialized for, since the same logical value stringifies differently
// in a JSON/XML body than in a header, URI segment, or query parameter
// (blob base64-encodes only in JSON/XML; never in header/uri/query).
type Context int

const (
	ContextBody Context = iota
	ContextHeader
	ContextURI
	ContextQuery
)

// defaultTimestampFormat mirrors the AWS default: iso8601 in JSON/XML
// document bodies, unless the shape declares otherwise.
const defaultTimestampFormat = "iso8601"

// EncodeLeaf renders a Go-level leaf value as its wire string for the
// given shape and context. Structures, lists, and maps are not leaves;
// callers route those through ToWireTree instead.
func EncodeLeaf(sh descriptor.Shape, v any, ctx Context) (string, error) {
	if v == nil {
		return "", nil
	}
	switch sh.Type {
	case descriptor.TypeString:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%w: want string, got %T", ErrCorrupt, v)
		}
		return s, nil
	case descriptor.TypeInteger, descriptor.TypeLong:
		switch n := v.(type) {
		case int64:
			return strconv.FormatInt(n, 10), nil
		case int:
			return strconv.Itoa(n), nil
		default:
			return "", fmt.Errorf("%w: want integer, got %T", ErrCorrupt, v)
		}
	case descriptor.TypeDouble, descriptor.TypeFloat:
		f, ok := v.(float64)
		if !ok {
			return "", fmt.Errorf("%w: want float64, got %T", ErrCorrupt, v)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case descriptor.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return "", fmt.Errorf("%w: want bool, got %T", ErrCorrupt, v)
		}
		if b {
			return "true", nil
		}
		return "false", nil
	case descriptor.TypeTimestamp:
		t, ok := v.(time.Time)
		if !ok {
			return "", fmt.Errorf("%w: want time.Time, got %T", ErrCorrupt, v)
		}
		return encodeTimestamp(t, timestampFormat(sh))
	case descriptor.TypeBlob:
		b, ok := v.([]byte)
		if !ok {
			return "", fmt.Errorf("%w: want []byte, got %T", ErrCorrupt, v)
		}
		if ctx == ContextHeader || ctx == ContextURI || ctx == ContextQuery {
			// Never base64 a blob placed directly in a header, URI
			// segment, or query parameter.
			return string(b), nil
		}
		return base64.StdEncoding.EncodeToString(b), nil
	default:
		return "", fmt.Errorf("%w: %s is not a leaf shape", ErrCorrupt, sh.Type)
	}
}

// DecodeLeaf is EncodeLeaf's inverse: it parses a wire string into the
// Go-level value the shape describes.
func DecodeLeaf(sh descriptor.Shape, s string, ctx Context) (any, error) {
	switch sh.Type {
	case descriptor.TypeString:
		return s, nil
	case descriptor.TypeInteger, descriptor.TypeLong:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return n, nil
	case descriptor.TypeDouble, descriptor.TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return f, nil
	case descriptor.TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return b, nil
	case descriptor.TypeTimestamp:
		return decodeTimestamp(s, timestampFormat(sh))
	case descriptor.TypeBlob:
		if ctx == ContextHeader || ctx == ContextURI || ctx == ContextQuery {
			return []byte(s), nil
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %s is not a leaf shape", ErrCorrupt, sh.Type)
	}
}

func timestampFormat(sh descriptor.Shape) string {
	if sh.TimestampFormat != "" {
		return sh.TimestampFormat
	}
	return defaultTimestampFormat
}

func encodeTimestamp(t time.Time, format string) (string, error) {
	switch format {
	case "unixTimestamp":
		return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', -1, 64), nil
	case "rfc822":
		return smithytime.FormatHTTPDate(t), nil
	default: // iso8601
		return smithytime.FormatDateTime(t), nil
	}
}

func decodeTimestamp(s, format string) (time.Time, error) {
	switch format {
	case "unixTimestamp":
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return smithytime.ParseEpochSeconds(f), nil
	case "rfc822":
		t, err := smithytime.ParseHTTPDate(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return t, nil
	default: // iso8601
		t, err := smithytime.ParseDateTime(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return t, nil
	}
}

// isLeaf reports whether a shape type is encoded directly by
// EncodeLeaf/DecodeLeaf rather than walked as a composite.
func isLeaf(t descriptor.ShapeType) bool {
	switch t {
	case descriptor.TypeStructure, descriptor.TypeList, descriptor.TypeMap, descriptor.TypeNull:
		return false
	default:
		return true
	}
}

// wireKey returns the key a structure member is addressed by in a JSON
// or XML body: locationName when the descriptor sets one, else the
// member's own name.
func wireKey(name string, m descriptor.Member) string {
	if m.LocationName != "" {
		return m.LocationName
	}
	return name
}

// resolve looks up a member's shape, returning a corrupt-value error if
// the descriptor references a shape that does not exist — a descriptor
// bug, not a caller bug, but still reported as ErrCorrupt since this
// package has no anomaly-category context of its own.
func resolve(svc *descriptor.Service, shapeName string) (descriptor.Shape, error) {
	sh, ok := svc.Shape(shapeName)
	if !ok {
		return descriptor.Shape{}, fmt.Errorf("%w: unknown shape %q", ErrCorrupt, shapeName)
	}
	return sh, nil
}

// ToWireTree walks a Go-level structure/list/map value against its shape
// and returns a tree of map[string]any/[]any/leaf-strings keyed by wire
// name (locationName-aware), ready for a document encoder (JSON or XML)
// to render. Members with a non-body location (uri/header/headers/
// querystring/statusCode) are skipped — callers that need those route
// them separately via EncodeLeaf over the same input value.
func ToWireTree(svc *descriptor.Service, shapeName string, v any) (any, error) {
	sh, err := resolve(svc, shapeName)
	if err != nil {
		return nil, err
	}
	return toWireTree(svc, sh, v)
}

func toWireTree(svc *descriptor.Service, sh descriptor.Shape, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch sh.Type {
	case descriptor.TypeStructure:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: want map[string]any, got %T", ErrCorrupt, v)
		}
		out := make(map[string]any, len(m))
		for name, member := range sh.Members {
			if member.Location != "" && member.Location != descriptor.LocationPayload {
				continue
			}
			val, present := m[name]
			if !present {
				continue
			}
			memberShape, err := resolve(svc, member.ShapeName)
			if err != nil {
				return nil, err
			}
			encoded, err := encodeValue(svc, memberShape, val)
			if err != nil {
				return nil, fmt.Errorf("member %s: %w", name, err)
			}
			out[wireKey(name, member)] = encoded
		}
		return out, nil
	default:
		return encodeValue(svc, sh, v)
	}
}

func encodeValue(svc *descriptor.Service, sh descriptor.Shape, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch sh.Type {
	case descriptor.TypeStructure:
		return toWireTree(svc, sh, v)
	case descriptor.TypeList:
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: want []any, got %T", ErrCorrupt, v)
		}
		elemShape, err := resolve(svc, sh.Member.ShapeName)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(list))
		for i, elem := range list {
			encoded, err := encodeValue(svc, elemShape, elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = encoded
		}
		return out, nil
	case descriptor.TypeMap:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: want map[string]any, got %T", ErrCorrupt, v)
		}
		valShape, err := resolve(svc, sh.Value.ShapeName)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(m))
		for k, elem := range m {
			encoded, err := encodeValue(svc, valShape, elem)
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", k, err)
			}
			out[k] = encoded
		}
		return out, nil
	case descriptor.TypeBlob:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: want []byte, got %T", ErrCorrupt, v)
		}
		return base64.StdEncoding.EncodeToString(b), nil
	case descriptor.TypeTimestamp:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("%w: want time.Time, got %T", ErrCorrupt, v)
		}
		return encodeTimestamp(t, timestampFormat(sh))
	default:
		return v, nil
	}
}

// FromWireTree is ToWireTree's inverse: given the JSON-decoded (or
// XML-decoded) generic tree, it produces the Go-level value keyed by
// shape member name, reversing locationName mapping and parsing leaves.
func FromWireTree(svc *descriptor.Service, shapeName string, tree any) (any, error) {
	sh, err := resolve(svc, shapeName)
	if err != nil {
		return nil, err
	}
	return fromWireTree(svc, sh, tree)
}

func fromWireTree(svc *descriptor.Service, sh descriptor.Shape, tree any) (any, error) {
	if tree == nil {
		return nil, nil
	}
	switch sh.Type {
	case descriptor.TypeStructure:
		wire, ok := tree.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: want object, got %T", ErrCorrupt, tree)
		}
		byWireKey := make(map[string]string, len(sh.Members))
		for name, member := range sh.Members {
			byWireKey[wireKey(name, member)] = name
		}
		out := make(map[string]any, len(wire))
		for wk, raw := range wire {
			name, ok := byWireKey[wk]
			if !ok {
				continue // unknown field on the wire; ignore rather than fail
			}
			member := sh.Members[name]
			memberShape, err := resolve(svc, member.ShapeName)
			if err != nil {
				return nil, err
			}
			decoded, err := decodeValue(svc, memberShape, raw)
			if err != nil {
				return nil, fmt.Errorf("member %s: %w", name, err)
			}
			out[name] = decoded
		}
		return out, nil
	default:
		return decodeValue(svc, sh, tree)
	}
}

func decodeValue(svc *descriptor.Service, sh descriptor.Shape, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch sh.Type {
	case descriptor.TypeStructure:
		return fromWireTree(svc, sh, raw)
	case descriptor.TypeList:
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: want array, got %T", ErrCorrupt, raw)
		}
		elemShape, err := resolve(svc, sh.Member.ShapeName)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(list))
		for i, elem := range list {
			decoded, err := decodeValue(svc, elemShape, elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = decoded
		}
		return out, nil
	case descriptor.TypeMap:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: want object, got %T", ErrCorrupt, raw)
		}
		valShape, err := resolve(svc, sh.Value.ShapeName)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(m))
		for k, elem := range m {
			decoded, err := decodeValue(svc, valShape, elem)
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", k, err)
			}
			out[k] = decoded
		}
		return out, nil
	case descriptor.TypeBlob:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want base64 string, got %T", ErrCorrupt, raw)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return b, nil
	case descriptor.TypeTimestamp:
		switch t := raw.(type) {
		case string:
			return decodeTimestamp(t, timestampFormat(sh))
		case float64:
			return smithytime.ParseEpochSeconds(t), nil
		default:
			return nil, fmt.Errorf("%w: want timestamp, got %T", ErrCorrupt, raw)
		}
	case descriptor.TypeInteger, descriptor.TypeLong:
		switch n := raw.(type) {
		case float64:
			return int64(n), nil
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		default:
			return nil, fmt.Errorf("%w: want number, got %T", ErrCorrupt, raw)
		}
	default:
		return raw, nil
	}
}
