package protocol

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/shape"
	"github.com/gurre/awsapi/transport"
)

func init() { Register("query", queryDispatcher{}) }

// queryDispatcher implements the classic AWS Query protocol: a single
// POST to "/" with the whole input flattened into an
// application/x-www-form-urlencoded body (Action, Version, then every
// member by dotted/indexed key), and an XML response document.
type queryDispatcher struct{}

// Headers implements Dispatcher.
func (queryDispatcher) Headers(svc *descriptor.Service, op descriptor.Operation) transport.Header {
	h := transport.Header{}
	h.Set("content-type", "application/x-www-form-urlencoded; charset=utf-8")
	return h
}

// BuildHTTPRequest implements Dispatcher.
func (d queryDispatcher) BuildHTTPRequest(svc *descriptor.Service, op descriptor.Operation, input any) (*transport.Request, *anomaly.Anomaly) {
	req := transport.NewRequest()
	req.Method = "POST"
	req.URI = "/"
	for name, vals := range d.Headers(svc, op) {
		req.Header[name] = vals
	}

	form := map[string]string{
		"Action":  op.Name,
		"Version": svc.Metadata.APIVersion,
	}
	if op.InputShape != "" {
		sh, ok := svc.Shape(op.InputShape)
		if !ok {
			return nil, anomaly.Newf(anomaly.Fault, "unknown input shape %s", op.InputShape)
		}
		inputMap, _ := input.(map[string]any)
		if inputMap == nil {
			inputMap = map[string]any{}
		}
		if anom := flattenQueryForm(svc, sh, inputMap, "", form); anom != nil {
			return nil, anom
		}
	}

	body := encodeQueryForm(form)
	req.Body = []byte(body)
	req.Header.Set("content-length", strconv.Itoa(len(body)))
	return req, nil
}

// flattenQueryForm renders a structure/list/map value into dotted,
// 1-indexed form keys the way the classic Query protocol expects
// (Member.1, Member.2, Nested.Field, MapEntry.1.key/value, ...), writing
// results into form under prefix.
func flattenQueryForm(svc *descriptor.Service, sh descriptor.Shape, value any, prefix string, form map[string]string) *anomaly.Anomaly {
	if value == nil {
		return nil
	}
	switch sh.Type {
	case descriptor.TypeStructure:
		m, ok := value.(map[string]any)
		if !ok {
			return anomaly.Newf(anomaly.Incorrect, "%s: want structure", prefix)
		}
		for name, member := range sh.Members {
			val, present := m[name]
			if !present || val == nil {
				continue
			}
			memberShape, ok := svc.Shape(member.ShapeName)
			if !ok {
				return anomaly.Newf(anomaly.Fault, "unknown shape for member %s", name)
			}
			key := name
			if member.LocationName != "" {
				key = member.LocationName
			}
			if anom := flattenQueryForm(svc, memberShape, val, joinQueryKey(prefix, key), form); anom != nil {
				return anom
			}
		}
		return nil

	case descriptor.TypeList:
		list, ok := value.([]any)
		if !ok {
			return anomaly.Newf(anomaly.Incorrect, "%s: want list", prefix)
		}
		var elemShape descriptor.Shape
		elemName := "member"
		if sh.Member != nil {
			elemShape, _ = svc.Shape(sh.Member.ShapeName)
			if sh.Member.LocationName != "" {
				elemName = sh.Member.LocationName
			}
		}
		for i, elem := range list {
			base := prefix
			if !sh.Flattened {
				base = joinQueryKey(prefix, elemName)
			}
			if anom := flattenQueryForm(svc, elemShape, elem, fmt.Sprintf("%s.%d", base, i+1), form); anom != nil {
				return anom
			}
		}
		return nil

	case descriptor.TypeMap:
		m, ok := value.(map[string]any)
		if !ok {
			return anomaly.Newf(anomaly.Incorrect, "%s: want map", prefix)
		}
		var valShape descriptor.Shape
		if sh.Value != nil {
			valShape, _ = svc.Shape(sh.Value.ShapeName)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			entryPrefix := fmt.Sprintf("%s.entry.%d", prefix, i+1)
			form[entryPrefix+".key"] = k
			if anom := flattenQueryForm(svc, valShape, m[k], entryPrefix+".value", form); anom != nil {
				return anom
			}
		}
		return nil

	default:
		s, err := shape.EncodeLeaf(sh, value, shape.ContextQuery)
		if err != nil {
			return anomaly.Newf(anomaly.Incorrect, "%v", err)
		}
		form[prefix] = s
		return nil
	}
}

func joinQueryKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func encodeQueryForm(form map[string]string) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(queryEscape(k))
		b.WriteByte('=')
		b.WriteString(queryEscape(form[k]))
	}
	return b.String()
}

func queryEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedByte(c) {
			b.WriteByte(c)
		} else if c == ' ' {
			b.WriteString("%20")
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// ParseHTTPResponse implements Dispatcher.
func (queryDispatcher) ParseHTTPResponse(svc *descriptor.Service, op descriptor.Operation, resp *transport.Response) (any, *anomaly.Anomaly) {
	return parseQueryStyleResponse(svc, op, resp)
}

// parseQueryStyleResponse is shared by the query and ec2 protocol
// families: both return XML documents wrapping the operation's output
// shape in a "<Operation>Result" element (ec2 additionally flattens list
// wrapping, handled by xmlNodeToValue's Flattened check already).
func parseQueryStyleResponse(svc *descriptor.Service, op descriptor.Operation, resp *transport.Response) (any, *anomaly.Anomaly) {
	if resp.Anomaly != nil {
		return nil, resp.Anomaly
	}
	if resp.Status >= 400 && resp.Status != 399 {
		return nil, parseQueryStyleError(resp)
	}
	if op.OutputShape == "" || len(resp.Body) == 0 {
		return map[string]any{}, nil
	}
	sh, ok := svc.Shape(op.OutputShape)
	if !ok {
		return nil, anomaly.Newf(anomaly.Fault, "unknown output shape %s", op.OutputShape)
	}
	_, root, err := parseXMLDocument(resp.Body)
	if err != nil {
		return nil, anomaly.Newf(anomaly.Fault, "parse xml body: %v", err)
	}
	resultNode := root
	if wrapped, ok := root.children[op.Name+"Result"]; ok && len(wrapped) > 0 {
		resultNode = wrapped[0]
	}
	val, err := xmlNodeToValue(svc, sh, resultNode)
	if err != nil {
		return nil, anomaly.Newf(anomaly.Fault, "%v", err)
	}
	if val == nil {
		return map[string]any{}, nil
	}
	return val, nil
}

func parseQueryStyleError(resp *transport.Response) *anomaly.Anomaly {
	code := "Unknown"
	msg := ""
	if len(resp.Body) > 0 {
		if _, root, err := parseXMLDocument(resp.Body); err == nil && root != nil {
			errNode := root
			if wrapped, ok := root.children["Error"]; ok && len(wrapped) > 0 {
				errNode = wrapped[0]
			} else if wrapped, ok := root.children["Errors"]; ok && len(wrapped) > 0 {
				if inner, ok := wrapped[0].children["Error"]; ok && len(inner) > 0 {
					errNode = inner[0]
				}
			}
			if children := errNode.children["Code"]; len(children) > 0 {
				code = children[0].text
			}
			if children := errNode.children["Message"]; len(children) > 0 {
				msg = children[0].text
			}
		}
	}
	return anomaly.Newf(classifyError(resp.Status, code), "%s: %s", code, msg).WithData("code", code)
}
