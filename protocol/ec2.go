package protocol

import (
	"strconv"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/transport"
)

func init() { Register("ec2", ec2Dispatcher{}) }

// ec2Dispatcher implements the EC2 query-variant protocol: the same
// form-encoded Action/Version request body as the classic Query
// protocol, and the same XML response shape, differing only in that list
// members serialize without the nested "member" wrapper level (handled
// by descriptor shapes simply declaring flattened lists, which
// flattenQueryForm and xmlNodeToValue both already special-case).
type ec2Dispatcher struct{}

// Headers implements Dispatcher.
func (ec2Dispatcher) Headers(svc *descriptor.Service, op descriptor.Operation) transport.Header {
	h := transport.Header{}
	h.Set("content-type", "application/x-www-form-urlencoded; charset=utf-8")
	return h
}

// BuildHTTPRequest implements Dispatcher.
func (ec2Dispatcher) BuildHTTPRequest(svc *descriptor.Service, op descriptor.Operation, input any) (*transport.Request, *anomaly.Anomaly) {
	req := transport.NewRequest()
	req.Method = "POST"
	req.URI = "/"
	req.Header.Set("content-type", "application/x-www-form-urlencoded; charset=utf-8")

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

// ParseHTTPResponse implements Dispatcher.
func (ec2Dispatcher) ParseHTTPResponse(svc *descriptor.Service, op descriptor.Operation, resp *transport.Response) (any, *anomaly.Anomaly) {
	return parseQueryStyleResponse(svc, op, resp)
}
