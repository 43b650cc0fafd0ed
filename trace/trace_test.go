package trace

import (
	"strings"
	"testing"
	"time"

	"github.com/gurre/awsapi/transport"
)

func TestStringSummarizesRequestAndResponse(t *testing.T) {
	tr := Trace{
		Request:  &transport.Request{Method: "GET", URI: "/widgets/1"},
		Response: &transport.Response{Status: 200},
		Attempts: 2,
		Duration: 150 * time.Millisecond,
	}
	s := tr.String()
	if !strings.Contains(s, "GET /widgets/1") || !strings.Contains(s, "200") || !strings.Contains(s, "attempts=2") {
		t.Errorf("String() = %q, missing expected fields", s)
	}
}

func TestStringHandlesNilRequestAndResponse(t *testing.T) {
	tr := Trace{Attempts: 1, Duration: time.Second}
	s := tr.String()
	if !strings.Contains(s, "-") {
		t.Errorf("String() = %q, want a placeholder for missing status", s)
	}
}

func TestMarshalJSONOmitsRawBodiesKeepsLengths(t *testing.T) {
	tr := Trace{
		Request:  &transport.Request{Method: "POST", URI: "/", Body: []byte("abcdef")},
		Response: &transport.Response{Status: 201, Body: []byte("ok")},
		Attempts: 1,
		Duration: time.Millisecond,
	}
	data, err := tr.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	s := string(data)
	if strings.Contains(s, "abcdef") {
		t.Errorf("json = %s, should not contain raw request body", s)
	}
	if !strings.Contains(s, `"requestBodyBytes":6`) {
		t.Errorf("json = %s, want requestBodyBytes=6", s)
	}
	if !strings.Contains(s, `"status":201`) {
		t.Errorf("json = %s, want status=201", s)
	}
}
