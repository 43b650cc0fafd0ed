package protocol

import (
	"strconv"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/shape"
	"github.com/gurre/awsapi/transport"
)

func init() { Register("rest-xml", restXMLDispatcher{}) }

// restXMLDispatcher implements the rest-xml protocol family (S3 and
// CloudFront): identical location routing to rest-json, an XML document
// body instead of a JSON one.
type restXMLDispatcher struct{}

// Headers implements Dispatcher.
func (restXMLDispatcher) Headers(svc *descriptor.Service, op descriptor.Operation) transport.Header {
	return transport.Header{}
}

// BuildHTTPRequest implements Dispatcher.
func (restXMLDispatcher) BuildHTTPRequest(svc *descriptor.Service, op descriptor.Operation, input any) (*transport.Request, *anomaly.Anomaly) {
	prepared, anom := prepareRestRequest(svc, op, input)
	if anom != nil {
		return nil, anom
	}

	req := transport.NewRequest()
	req.Method = prepared.Method
	req.URI = prepared.Path
	req.Query = prepared.Query
	for name, vals := range prepared.Header {
		req.Header[name] = vals
	}

	body, anom := encodeRestXMLBody(svc, op, prepared)
	if anom != nil {
		return nil, anom
	}
	if len(body) > 0 {
		req.Body = body
		req.Header.Set("content-type", "application/xml")
		req.Header.Set("content-length", strconv.Itoa(len(body)))
	}
	return req, nil
}

func encodeRestXMLBody(svc *descriptor.Service, op descriptor.Operation, prepared *restPrepared) ([]byte, *anomaly.Anomaly) {
	if prepared.PayloadMember != "" {
		if prepared.PayloadValue == nil {
			return nil, nil
		}
		if prepared.RawPayload {
			if prepared.PayloadShape.Type == descriptor.TypeBlob {
				b, ok := prepared.PayloadValue.([]byte)
				if !ok {
					return nil, anomaly.Newf(anomaly.Incorrect, "payload: want []byte")
				}
				return b, nil
			}
			s, err := shape.EncodeLeaf(prepared.PayloadShape, prepared.PayloadValue, shape.ContextBody)
			if err != nil {
				return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
			}
			return []byte(s), nil
		}
		memberShapeName := prepared.InputShape.Members[prepared.PayloadMember].ShapeName
		data, err := marshalXML(svc, memberShapeName, prepared.PayloadMember, prepared.PayloadValue)
		if err != nil {
			return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
		}
		return data, nil
	}

	if op.InputShape == "" || len(prepared.InputMap) == 0 {
		return nil, nil
	}
	data, err := marshalXML(svc, op.InputShape, rootElementName(op.InputShape), prepared.InputMap)
	if err != nil {
		return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
	}
	return data, nil
}

// rootElementName derives the outer XML element for a structure shape
// lacking an explicit wire name: AWS rest-xml descriptors name the root
// after the shape itself.
func rootElementName(shapeName string) string {
	return shapeName
}

// ParseHTTPResponse implements Dispatcher.
func (restXMLDispatcher) ParseHTTPResponse(svc *descriptor.Service, op descriptor.Operation, resp *transport.Response) (any, *anomaly.Anomaly) {
	if resp.Anomaly != nil {
		return nil, resp.Anomaly
	}
	if resp.Status >= 400 && resp.Status != 399 {
		return nil, parseRestXMLError(resp)
	}
	if op.OutputShape == "" {
		return map[string]any{}, nil
	}
	sh, ok := svc.Shape(op.OutputShape)
	if !ok {
		return nil, anomaly.Newf(anomaly.Fault, "unknown output shape %s", op.OutputShape)
	}

	out := map[string]any{}
	if anom := headersToStructure(svc, sh, resp.Header, out); anom != nil {
		return nil, anom
	}
	if statusMember := restStatusMember(sh); statusMember != "" {
		out[statusMember] = int64(resp.Status)
	}

	if sh.Payload != "" {
		member := sh.Members[sh.Payload]
		payloadShape, ok := svc.Shape(member.ShapeName)
		if !ok {
			return nil, anomaly.Newf(anomaly.Fault, "unknown payload shape %s", member.ShapeName)
		}
		switch payloadShape.Type {
		case descriptor.TypeBlob:
			out[sh.Payload] = append([]byte{}, resp.Body...)
		case descriptor.TypeString:
			out[sh.Payload] = string(resp.Body)
		default:
			if len(resp.Body) > 0 {
				_, node, err := parseXMLDocument(resp.Body)
				if err != nil {
					return nil, anomaly.Newf(anomaly.Fault, "parse xml body: %v", err)
				}
				val, err := xmlNodeToValue(svc, payloadShape, node)
				if err != nil {
					return nil, anomaly.Newf(anomaly.Fault, "%v", err)
				}
				out[sh.Payload] = val
			}
		}
		return out, nil
	}

	if len(resp.Body) > 0 {
		rootName, node, err := parseXMLDocument(resp.Body)
		if err != nil {
			return nil, anomaly.Newf(anomaly.Fault, "parse xml body: %v", err)
		}
		if _, isMember := sh.Members[rootName]; isMember && len(node.children) == 0 {
			node = &xmlNode{children: map[string][]*xmlNode{rootName: {node}}}
		}
		val, err := xmlNodeToValue(svc, sh, node)
		if err != nil {
			return nil, anomaly.Newf(anomaly.Fault, "%v", err)
		}
		if m, ok := val.(map[string]any); ok {
			for k, v := range m {
				out[k] = v
			}
		}
	}
	return out, nil
}

func parseRestXMLError(resp *transport.Response) *anomaly.Anomaly {
	code := "Unknown"
	msg := ""
	if len(resp.Body) > 0 {
		if _, node, err := parseXMLDocument(resp.Body); err == nil && node != nil {
			if children := node.children["Code"]; len(children) > 0 {
				code = children[0].text
			}
			if children := node.children["Message"]; len(children) > 0 {
				msg = children[0].text
			}
		}
	}
	if code == "Unknown" {
		if hc := resp.Header.Get("x-amzn-errortype"); hc != "" {
			code = errorCodeFromType(hc)
		}
	}
	return anomaly.Newf(classifyError(resp.Status, code), "%s: %s", code, msg).WithData("code", code)
}
