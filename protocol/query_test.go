package protocol

import (
	"strings"
	"testing"

	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/transport"
)

func sqsLikeService() *descriptor.Service {
	return &descriptor.Service{
		Metadata: descriptor.Metadata{Protocol: "query", EndpointPrefix: "sqs", APIVersion: "2012-11-05"},
		Operations: map[string]descriptor.Operation{
			"SendMessage": {
				Name:        "SendMessage",
				HTTP:        descriptor.OperationHTTP{Method: "POST", RequestURI: "/"},
				InputShape:  "SendMessageInput",
				OutputShape: "SendMessageOutput",
			},
		},
		Shapes: map[string]descriptor.Shape{
			"String": {Type: descriptor.TypeString},
			"Tags": {
				Type:  descriptor.TypeMap,
				Key:   &descriptor.Member{ShapeName: "String"},
				Value: &descriptor.Member{ShapeName: "String"},
			},
			"SendMessageInput": {
				Type: descriptor.TypeStructure,
				Members: map[string]descriptor.Member{
					"QueueUrl":    {ShapeName: "String"},
					"MessageBody": {ShapeName: "String"},
				},
			},
			"SendMessageOutput": {
				Type: descriptor.TypeStructure,
				Members: map[string]descriptor.Member{
					"MessageId": {ShapeName: "String"},
				},
			},
		},
	}
}

func TestQueryBuildHTTPRequestEncodesActionAndMembers(t *testing.T) {
	svc := sqsLikeService()
	op := svc.Operations["SendMessage"]
	d := queryDispatcher{}

	req, anom := d.BuildHTTPRequest(svc, op, map[string]any{
		"QueueUrl":    "https://sqs.example/q",
		"MessageBody": "hello world",
	})
	if anom != nil {
		t.Fatalf("BuildHTTPRequest: %v", anom)
	}
	body := string(req.Body)
	if !strings.Contains(body, "Action=SendMessage") {
		t.Errorf("body missing Action: %q", body)
	}
	if !strings.Contains(body, "Version=2012-11-05") {
		t.Errorf("body missing Version: %q", body)
	}
	if !strings.Contains(body, "MessageBody=hello%20world") {
		t.Errorf("body missing escaped MessageBody: %q", body)
	}
}

func TestQueryParseHTTPResponseResultWrapper(t *testing.T) {
	svc := sqsLikeService()
	op := svc.Operations["SendMessage"]
	d := queryDispatcher{}

	resp := &transport.Response{
		Status: 200,
		Header: transport.Header{},
		Body:   []byte(`<SendMessageResponse><SendMessageResult><MessageId>abc-123</MessageId></SendMessageResult></SendMessageResponse>`),
	}
	out, anom := d.ParseHTTPResponse(svc, op, resp)
	if anom != nil {
		t.Fatalf("ParseHTTPResponse: %v", anom)
	}
	m := out.(map[string]any)
	if m["MessageId"] != "abc-123" {
		t.Errorf("MessageId = %v, want abc-123", m["MessageId"])
	}
}

func TestQueryParseHTTPResponseError(t *testing.T) {
	svc := sqsLikeService()
	op := svc.Operations["SendMessage"]
	d := queryDispatcher{}

	resp := &transport.Response{
		Status: 400,
		Header: transport.Header{},
		Body:   []byte(`<ErrorResponse><Error><Code>InvalidParameterValue</Code><Message>bad</Message></Error></ErrorResponse>`),
	}
	_, anom := d.ParseHTTPResponse(svc, op, resp)
	if anom == nil {
		t.Fatal("expected anomaly for 400 response")
	}
	if !strings.Contains(anom.Error(), "InvalidParameterValue") {
		t.Errorf("error = %v, want it to mention InvalidParameterValue", anom)
	}
}

func TestFlattenQueryFormMapEntries(t *testing.T) {
	svc := sqsLikeService()
	form := map[string]string{}
	sh := descriptor.Shape{Type: descriptor.TypeMap, Key: &descriptor.Member{ShapeName: "String"}, Value: &descriptor.Member{ShapeName: "String"}}
	anom := flattenQueryForm(svc, sh, map[string]any{"env": "prod"}, "Attribute", form)
	if anom != nil {
		t.Fatalf("flattenQueryForm: %v", anom)
	}
	if form["Attribute.entry.1.key"] != "env" || form["Attribute.entry.1.value"] != "prod" {
		t.Errorf("form = %v, want Attribute.entry.1.key/value set", form)
	}
}
