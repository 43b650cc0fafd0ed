package protocol

import (
	"strings"
	"testing"

	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/transport"
)

func lambdaLikeService() *descriptor.Service {
	return &descriptor.Service{
		Metadata: descriptor.Metadata{Protocol: "rest-json", EndpointPrefix: "lambda"},
		Operations: map[string]descriptor.Operation{
			"Invoke": {
				Name:        "Invoke",
				HTTP:        descriptor.OperationHTTP{Method: "POST", RequestURI: "/2015-03-31/functions/{FunctionName}/invocations"},
				InputShape:  "InvokeInput",
				OutputShape: "InvokeOutput",
			},
			"GetFunction": {
				Name:        "GetFunction",
				HTTP:        descriptor.OperationHTTP{Method: "GET", RequestURI: "/2015-03-31/functions/{FunctionName}"},
				InputShape:  "GetFunctionInput",
				OutputShape: "GetFunctionOutput",
			},
		},
		Shapes: map[string]descriptor.Shape{
			"String":  {Type: descriptor.TypeString},
			"Blob":    {Type: descriptor.TypeBlob},
			"Integer": {Type: descriptor.TypeInteger},
			"InvokeInput": {
				Type: descriptor.TypeStructure,
				Members: map[string]descriptor.Member{
					"FunctionName":   {ShapeName: "String", Location: descriptor.LocationURI, LocationName: "FunctionName"},
					"InvocationType": {ShapeName: "String", Location: descriptor.LocationHeader, LocationName: "X-Amz-Invocation-Type"},
					"Payload":        {ShapeName: "Blob", Location: descriptor.LocationPayload},
				},
				Payload: "Payload",
			},
			"InvokeOutput": {
				Type: descriptor.TypeStructure,
				Members: map[string]descriptor.Member{
					"StatusCode": {ShapeName: "Integer", Location: descriptor.LocationStatusCode},
					"Payload":    {ShapeName: "Blob", Location: descriptor.LocationPayload},
				},
				Payload: "Payload",
			},
			"GetFunctionInput": {
				Type: descriptor.TypeStructure,
				Members: map[string]descriptor.Member{
					"FunctionName": {ShapeName: "String", Location: descriptor.LocationURI, LocationName: "FunctionName"},
				},
			},
			"GetFunctionOutput": {
				Type: descriptor.TypeStructure,
				Members: map[string]descriptor.Member{
					"Configuration": {ShapeName: "String"},
				},
			},
		},
	}
}

func TestRestJSONBuildHTTPRequestRawPayloadAndHeader(t *testing.T) {
	svc := lambdaLikeService()
	op := svc.Operations["Invoke"]
	d := restJSONDispatcher{}

	req, anom := d.BuildHTTPRequest(svc, op, map[string]any{
		"FunctionName":   "my-fn",
		"InvocationType": "Event",
		"Payload":        []byte(`{"k":"v"}`),
	})
	if anom != nil {
		t.Fatalf("BuildHTTPRequest: %v", anom)
	}
	if req.URI != "/2015-03-31/functions/my-fn/invocations" {
		t.Errorf("URI = %q", req.URI)
	}
	if req.Header.Get("x-amz-invocation-type") != "Event" {
		t.Errorf("header X-Amz-Invocation-Type missing, got %v", req.Header)
	}
	if string(req.Body) != `{"k":"v"}` {
		t.Errorf("Body = %q, want raw payload bytes", req.Body)
	}
}

func TestRestJSONParseHTTPResponseWithStatusCodeMember(t *testing.T) {
	svc := lambdaLikeService()
	op := svc.Operations["Invoke"]
	d := restJSONDispatcher{}

	resp := &transport.Response{
		Status: 200,
		Header: transport.Header{},
		Body:   []byte(`{"result":"ok"}`),
	}
	out, anom := d.ParseHTTPResponse(svc, op, resp)
	if anom != nil {
		t.Fatalf("ParseHTTPResponse: %v", anom)
	}
	m := out.(map[string]any)
	if m["StatusCode"] != int64(200) {
		t.Errorf("StatusCode = %v, want 200", m["StatusCode"])
	}
	payload, ok := m["Payload"].([]byte)
	if !ok || string(payload) != `{"result":"ok"}` {
		t.Errorf("Payload = %v, want raw body bytes", m["Payload"])
	}
}

func TestRestJSONParseHTTPResponseDocumentBody(t *testing.T) {
	svc := lambdaLikeService()
	op := svc.Operations["GetFunction"]
	d := restJSONDispatcher{}

	resp := &transport.Response{
		Status: 200,
		Header: transport.Header{},
		Body:   []byte(`{"Configuration":"cfg"}`),
	}
	out, anom := d.ParseHTTPResponse(svc, op, resp)
	if anom != nil {
		t.Fatalf("ParseHTTPResponse: %v", anom)
	}
	m := out.(map[string]any)
	if m["Configuration"] != "cfg" {
		t.Errorf("Configuration = %v, want cfg", m["Configuration"])
	}
}

func TestRestJSONEmptyBodyWithDeclaredOutputIsEmptyStructureNotAnomaly(t *testing.T) {
	svc := lambdaLikeService()
	op := svc.Operations["GetFunction"]
	d := restJSONDispatcher{}

	resp := &transport.Response{Status: 200, Header: transport.Header{}, Body: nil}
	out, anom := d.ParseHTTPResponse(svc, op, resp)
	if anom != nil {
		t.Fatalf("empty body with declared output shape must not be an anomaly, got %v", anom)
	}
	if _, ok := out.(map[string]any); !ok {
		t.Errorf("out = %T, want empty map[string]any", out)
	}
}

func TestRestJSONErrorResponseClassified(t *testing.T) {
	svc := lambdaLikeService()
	op := svc.Operations["GetFunction"]
	d := restJSONDispatcher{}

	resp := &transport.Response{
		Status: 429,
		Header: transport.Header{},
		Body:   []byte(`{"message":"slow down"}`),
	}
	resp.Header.Set("x-amzn-errortype", "TooManyRequestsException")
	_, anom := d.ParseHTTPResponse(svc, op, resp)
	if anom == nil {
		t.Fatal("expected anomaly for 429 response")
	}
	if !strings.Contains(anom.Error(), "busy") {
		t.Errorf("error = %v, want busy category for TooManyRequestsException", anom)
	}
}
