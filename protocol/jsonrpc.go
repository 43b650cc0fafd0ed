package protocol

import (
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/shape"
	"github.com/gurre/awsapi/transport"
)

func init() { Register("json", jsonRPCDispatcher{}) }

// jsonRPCDispatcher implements the AWS JSON RPC families (1.0/1.1): a
// single POST to "/" with the entire input structure as the JSON body
// and the operation named by an x-amz-target header.
type jsonRPCDispatcher struct{}

func jsonContentType(version string) string {
	if version == "" {
		version = "1.1"
	}
	return "application/x-amz-json-" + version
}

// Headers implements Dispatcher.
func (jsonRPCDispatcher) Headers(svc *descriptor.Service, op descriptor.Operation) transport.Header {
	h := transport.Header{}
	h.Set("content-type", jsonContentType(svc.Metadata.JSONVersion))
	h.Set("x-amz-target", svc.Metadata.TargetPrefix+"."+op.Name)
	return h
}

// BuildHTTPRequest implements Dispatcher.
func (d jsonRPCDispatcher) BuildHTTPRequest(svc *descriptor.Service, op descriptor.Operation, input any) (*transport.Request, *anomaly.Anomaly) {
	req := transport.NewRequest()
	req.Method = "POST"
	req.URI = "/"
	for name, vals := range d.Headers(svc, op) {
		req.Header[name] = vals
	}

	body := map[string]any{}
	if op.InputShape != "" && input != nil {
		tree, err := shape.ToWireTree(svc, op.InputShape, input)
		if err != nil {
			return nil, anomaly.Newf(anomaly.Incorrect, "%v", err)
		}
		if m, ok := tree.(map[string]any); ok {
			body = m
		}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, anomaly.Newf(anomaly.Fault, "marshal json body: %v", err)
	}
	req.Body = data
	req.Header.Set("content-length", strconv.Itoa(len(data)))
	return req, nil
}

// ParseHTTPResponse implements Dispatcher.
func (jsonRPCDispatcher) ParseHTTPResponse(svc *descriptor.Service, op descriptor.Operation, resp *transport.Response) (any, *anomaly.Anomaly) {
	if resp.Anomaly != nil {
		return nil, resp.Anomaly
	}
	if resp.Status >= 400 && resp.Status != 399 {
		return nil, parseJSONRPCError(resp)
	}

	body := stripBOM(resp.Body)
	if len(body) == 0 || op.OutputShape == "" {
		return map[string]any{}, nil
	}
	var tree map[string]any
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, anomaly.Newf(anomaly.Fault, "parse json body: %v", err)
	}
	val, err := shape.FromWireTree(svc, op.OutputShape, tree)
	if err != nil {
		return nil, anomaly.Newf(anomaly.Fault, "%v", err)
	}
	if val == nil {
		return map[string]any{}, nil
	}
	return val, nil
}

func parseJSONRPCError(resp *transport.Response) *anomaly.Anomaly {
	body := stripBOM(resp.Body)
	var raw map[string]any
	_ = json.Unmarshal(body, &raw) // best-effort; fall through to a fault on malformed bodies

	typ, _ := raw["__type"].(string)
	code := errorCodeFromType(typ)
	msg, _ := raw["message"].(string)
	if msg == "" {
		msg, _ = raw["Message"].(string)
	}
	if code == "" {
		code = "Unknown"
	}
	return anomaly.Newf(classifyError(resp.Status, code), "%s: %s", code, msg).WithData("code", code)
}
