package protocol

import (
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/shape"
	"github.com/gurre/awsapi/transport"
)

func init() { Register("rest-json", restJSONDispatcher{}) }

// restJSONDispatcher implements the rest-json protocol family: operation
// shape and HTTP binding are carried in the descriptor's requestUri/http
// members (location-routed by prepareRestRequest); only the body, when
// present, is JSON.
type restJSONDispatcher struct{}

// Headers implements Dispatcher.
func (restJSONDispatcher) Headers(svc *descriptor.Service, op descriptor.Operation) transport.Header {
	h := transport.Header{}
	h.Set("content-type", "application/json")
	return h
}

// BuildHTTPRequest implements Dispatcher.
func (restJSONDispatcher) BuildHTTPRequest(svc *descriptor.Service, op descriptor.Operation, input any) (*transport.Request, *anomaly.Anomaly) {
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

	body, anom := encodeRestJSONBody(svc, op, prepared)
	if anom != nil {
		return nil, anom
	}
	if len(body) > 0 {
		req.Body = body
		req.Header.Set("content-type", "application/json")
		req.Header.Set("content-length", strconv.Itoa(len(body)))
	}
	return req, nil
}

func encodeRestJSONBody(svc *descriptor.Service, op descriptor.Operation, prepared *restPrepared) ([]byte, *anomaly.Anomaly) {
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
		tree, err := shape.ToWireTree(svc, memberShapeName, prepared.PayloadValue)
		if err != nil {
			return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
		}
		data, err := json.Marshal(tree)
		if err != nil {
			return nil, anomaly.Newf(anomaly.Fault, "marshal json body: %v", err)
		}
		return data, nil
	}

	if op.InputShape == "" {
		return nil, nil
	}
	tree, err := shape.ToWireTree(svc, op.InputShape, prepared.InputMap)
	if err != nil {
		return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
	}
	m, _ := tree.(map[string]any)
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, anomaly.Newf(anomaly.Fault, "marshal json body: %v", err)
	}
	return data, nil
}

// ParseHTTPResponse implements Dispatcher.
func (restJSONDispatcher) ParseHTTPResponse(svc *descriptor.Service, op descriptor.Operation, resp *transport.Response) (any, *anomaly.Anomaly) {
	if resp.Anomaly != nil {
		return nil, resp.Anomaly
	}
	if resp.Status >= 400 && resp.Status != 399 {
		return nil, parseRestJSONError(resp)
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
		if payloadShape.Type == descriptor.TypeBlob {
			out[sh.Payload] = append([]byte{}, resp.Body...)
		} else if payloadShape.Type == descriptor.TypeString {
			out[sh.Payload] = string(resp.Body)
		} else if len(resp.Body) > 0 {
			var tree map[string]any
			if err := json.Unmarshal(stripBOM(resp.Body), &tree); err != nil {
				return nil, anomaly.Newf(anomaly.Fault, "parse json body: %v", err)
			}
			val, err := shape.FromWireTree(svc, member.ShapeName, tree)
			if err != nil {
				return nil, anomaly.Newf(anomaly.Fault, "%v", err)
			}
			out[sh.Payload] = val
		}
		return out, nil
	}

	body := stripBOM(resp.Body)
	if len(body) > 0 {
		var tree map[string]any
		if err := json.Unmarshal(body, &tree); err != nil {
			return nil, anomaly.Newf(anomaly.Fault, "parse json body: %v", err)
		}
		val, err := shape.FromWireTree(svc, op.OutputShape, tree)
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

func parseRestJSONError(resp *transport.Response) *anomaly.Anomaly {
	body := stripBOM(resp.Body)
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	code, _ := raw["code"].(string)
	if code == "" {
		typ, _ := raw["__type"].(string)
		code = errorCodeFromType(typ)
	}
	if code == "" {
		code = resp.Header.Get("x-amzn-errortype")
	}
	msg, _ := raw["message"].(string)
	if msg == "" {
		msg, _ = raw["Message"].(string)
	}
	if code == "" {
		code = "Unknown"
	}
	return anomaly.Newf(classifyError(resp.Status, code), "%s: %s", code, msg).WithData("code", code)
}
