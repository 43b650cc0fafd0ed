package protocol

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/shape"
)

var uriTokenPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)(\+)?\}`)

func unreservedByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '.' || b == '_' || b == '~':
		return true
	}
	return false
}

// percentEncode escapes every byte outside the RFC 3986 unreserved set.
// When preserveSlash is true, "/" passes through unescaped — the "{X+}"
// placeholder behaviour; otherwise it becomes "%2F" — the "{X}" behaviour.
func percentEncode(s string, preserveSlash bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedByte(c) || (preserveSlash && c == '/') {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// buildURIPath substitutes every {Name}/{Name+} placeholder in template
// with the percent-encoded value of the uri-location structure member it
// names (matched by locationName, falling back to the member's own
// name), then collapses any accidental "//" the substitution produced.
func buildURIPath(svc *descriptor.Service, sh descriptor.Shape, input map[string]any, template string) (string, *anomaly.Anomaly) {
	byToken := map[string]string{}
	for name, m := range sh.Members {
		if m.Location != descriptor.LocationURI {
			continue
		}
		token := name
		if m.LocationName != "" {
			token = m.LocationName
		}
		byToken[token] = name
	}

	var firstErr *anomaly.Anomaly
	out := uriTokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := uriTokenPattern.FindStringSubmatch(match)
		token, plus := sub[1], sub[2] == "+"

		goName, ok := byToken[token]
		if !ok {
			firstErr = anomaly.Newf(anomaly.Incorrect, "missing")
			return match
		}
		val, present := input[goName]
		if !present || val == nil {
			firstErr = anomaly.Newf(anomaly.Incorrect, "missing")
			return match
		}
		member := sh.Members[goName]
		memberShape, ok := svc.Shape(member.ShapeName)
		if !ok {
			firstErr = anomaly.Newf(anomaly.Fault, "unknown shape for uri member %s", goName)
			return match
		}
		s, err := shape.EncodeLeaf(memberShape, val, shape.ContextURI)
		if err != nil {
			firstErr = anomaly.Newf(anomaly.Incorrect, "%v", err)
			return match
		}
		if plus {
			return percentEncode(strings.TrimPrefix(s, "/"), true)
		}
		return percentEncode(s, false)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return collapseDoubleSlashes(out), nil
}

var doubleSlash = regexp.MustCompile(`/{2,}`)

func collapseDoubleSlashes(path string) string {
	return doubleSlash.ReplaceAllString(path, "/")
}

// buildQueryValues collects every querystring-location member into a
// url.Values: lists produce repeated keys, maps serialize each entry as
// its own key/value pair, scalars set a single value.
func buildQueryValues(svc *descriptor.Service, sh descriptor.Shape, input map[string]any) (url.Values, *anomaly.Anomaly) {
	q := url.Values{}
	for name, m := range sh.Members {
		if m.Location != descriptor.LocationQuerystring {
			continue
		}
		val, present := input[name]
		if !present || val == nil {
			continue
		}
		key := name
		if m.LocationName != "" {
			key = m.LocationName
		}
		memberShape, ok := svc.Shape(m.ShapeName)
		if !ok {
			return nil, anomaly.Newf(anomaly.Fault, "unknown shape for query member %s", name)
		}
		switch memberShape.Type {
		case descriptor.TypeList:
			list, ok := val.([]any)
			if !ok {
				return nil, anomaly.Newf(anomaly.Incorrect, "query member %s: want list", name)
			}
			elemShape, ok := svc.Shape(memberShape.Member.ShapeName)
			if !ok {
				return nil, anomaly.Newf(anomaly.Fault, "unknown list element shape for %s", name)
			}
			for _, elem := range list {
				s, err := shape.EncodeLeaf(elemShape, elem, shape.ContextQuery)
				if err != nil {
					return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
				}
				q.Add(key, s)
			}
		case descriptor.TypeMap:
			entries, ok := val.(map[string]any)
			if !ok {
				return nil, anomaly.Newf(anomaly.Incorrect, "query member %s: want map", name)
			}
			valShape, ok := svc.Shape(memberShape.Value.ShapeName)
			if !ok {
				return nil, anomaly.Newf(anomaly.Fault, "unknown map value shape for %s", name)
			}
			for k, v := range entries {
				s, err := shape.EncodeLeaf(valShape, v, shape.ContextQuery)
				if err != nil {
					return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
				}
				q.Add(k, s)
			}
		default:
			s, err := shape.EncodeLeaf(memberShape, val, shape.ContextQuery)
			if err != nil {
				return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
			}
			q.Set(key, s)
		}
	}
	return q, nil
}
