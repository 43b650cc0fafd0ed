// Package trace implements the debug metadata the invocation engine
// attaches to every result, echoing the teacher's metrics.Report/String()
// pattern: a small plain struct carrying what happened during one call,
// with JSON and human-readable renderings for log/console output.
package trace

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/gurre/awsapi/transport"
)

// Trace carries the final attempt's raw request/response plus attempt
// bookkeeping, attached to every engine Result regardless of whether the
// call succeeded.
type Trace struct {
	Request  *transport.Request
	Response *transport.Response
	Attempts int
	Duration time.Duration
}

// MarshalJSON implements json.Marshaler, rendering Duration as its
// text form and the request/response bodies as their lengths rather than
// raw bytes, since traces are meant for logs, not replay.
func (t Trace) MarshalJSON() ([]byte, error) {
	out := struct {
		Method       string `json:"method,omitempty"`
		URI          string `json:"uri,omitempty"`
		Status       int    `json:"status,omitempty"`
		Attempts     int    `json:"attempts"`
		Duration     string `json:"duration"`
		RequestBody  int    `json:"requestBodyBytes"`
		ResponseBody int    `json:"responseBodyBytes"`
	}{
		Attempts: t.Attempts,
		Duration: t.Duration.String(),
	}
	if t.Request != nil {
		out.Method = t.Request.Method
		out.URI = t.Request.URI
		out.RequestBody = len(t.Request.Body)
	}
	if t.Response != nil {
		out.Status = t.Response.Status
		out.ResponseBody = len(t.Response.Body)
	}
	return json.Marshal(out)
}

// String returns a human-readable one-line summary for console output.
func (t Trace) String() string {
	method, uri := "", ""
	if t.Request != nil {
		method, uri = t.Request.Method, t.Request.URI
	}
	status := "-"
	if t.Response != nil {
		status = fmt.Sprintf("%d", t.Response.Status)
	}
	return fmt.Sprintf("%s %s -> %s (attempts=%d duration=%s)", method, uri, status, t.Attempts, t.Duration)
}
