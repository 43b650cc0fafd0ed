package protocol

import (
	"strings"
	"testing"

	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/transport"
)

func ec2LikeService() *descriptor.Service {
	return &descriptor.Service{
		Metadata: descriptor.Metadata{Protocol: "ec2", EndpointPrefix: "ec2", APIVersion: "2016-11-15"},
		Operations: map[string]descriptor.Operation{
			"DescribeInstances": {
				Name:        "DescribeInstances",
				HTTP:        descriptor.OperationHTTP{Method: "POST", RequestURI: "/"},
				InputShape:  "DescribeInstancesInput",
				OutputShape: "DescribeInstancesOutput",
			},
		},
		Shapes: map[string]descriptor.Shape{
			"String": {Type: descriptor.TypeString},
			"InstanceIdList": {
				Type:      descriptor.TypeList,
				Member:    &descriptor.Member{ShapeName: "String", LocationName: "InstanceId"},
				Flattened: true,
			},
			"InstanceList": {
				Type:      descriptor.TypeList,
				Member:    &descriptor.Member{ShapeName: "String", LocationName: "item"},
				Flattened: true,
			},
			"DescribeInstancesInput": {
				Type: descriptor.TypeStructure,
				Members: map[string]descriptor.Member{
					"InstanceIds": {ShapeName: "InstanceIdList"},
				},
			},
			"DescribeInstancesOutput": {
				Type: descriptor.TypeStructure,
				Members: map[string]descriptor.Member{
					"Instances": {ShapeName: "InstanceList"},
				},
			},
		},
	}
}

func TestEC2BuildHTTPRequestFlattenedList(t *testing.T) {
	svc := ec2LikeService()
	op := svc.Operations["DescribeInstances"]
	d := ec2Dispatcher{}

	req, anom := d.BuildHTTPRequest(svc, op, map[string]any{
		"InstanceIds": []any{"i-1", "i-2"},
	})
	if anom != nil {
		t.Fatalf("BuildHTTPRequest: %v", anom)
	}
	body := string(req.Body)
	if !strings.Contains(body, "InstanceIds.1=i-1") || !strings.Contains(body, "InstanceIds.2=i-2") {
		t.Errorf("body = %q, want flattened InstanceIds.N keys with no nested member level", body)
	}
}

func TestEC2ParseHTTPResponseFlattenedList(t *testing.T) {
	svc := ec2LikeService()
	op := svc.Operations["DescribeInstances"]
	d := ec2Dispatcher{}

	resp := &transport.Response{
		Status: 200,
		Header: transport.Header{},
		Body:   []byte(`<DescribeInstancesResponse><item>i-1</item><item>i-2</item></DescribeInstancesResponse>`),
	}
	out, anom := d.ParseHTTPResponse(svc, op, resp)
	if anom != nil {
		t.Fatalf("ParseHTTPResponse: %v", anom)
	}
	m := out.(map[string]any)
	list, ok := m["Instances"].([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("Instances = %v, want 2-element flattened list", m["Instances"])
	}
}
