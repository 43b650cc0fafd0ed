package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/gurre/awsapi/anomaly"
)

// HTTPTransport is the default Transport, backed by a *http.Client.
// Submit always runs the round trip on its own goroutine and never
// blocks the caller.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client (or http.DefaultClient if nil) as a
// Transport.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

// Submit implements Transport.
func (t *HTTPTransport) Submit(ctx context.Context, req *Request) <-chan *Response {
	ch := make(chan *Response, 1)
	go func() {
		ch <- t.do(ctx, req)
	}()
	return ch
}

func (t *HTTPTransport) do(ctx context.Context, req *Request) *Response {
	u := &url.URL{
		Scheme:   req.Scheme,
		Host:     req.ServerName,
		Path:     req.URI,
		RawQuery: EncodeQuery(req.Query),
	}
	if req.ServerPort != "" {
		u.Host = net.JoinHostPort(req.ServerName, req.ServerPort)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), newBodyReader(req.Body))
	if err != nil {
		return &Response{Anomaly: anomaly.Newf(anomaly.Incorrect, "build request: %v", err)}
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return &Response{Anomaly: classifyTransportError(ctx, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Response{Anomaly: anomaly.Newf(anomaly.Unavailable, "read response body: %v", err)}
	}

	header := Header{}
	for name, values := range resp.Header {
		header[strings.ToLower(name)] = values
	}

	return &Response{Status: resp.StatusCode, Header: header, Body: body}
}

func classifyTransportError(ctx context.Context, err error) *anomaly.Anomaly {
	if errors.Is(ctx.Err(), context.Canceled) {
		return anomaly.Newf(anomaly.Interrupted, "request cancelled: %v", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return anomaly.Newf(anomaly.Unavailable, "request timed out: %v", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return anomaly.Newf(anomaly.Unavailable, "network timeout: %v", err)
	}
	return anomaly.Newf(anomaly.Unavailable, "transport error: %v", err)
}

func newBodyReader(body []byte) io.Reader {
	if len(body) == 0 {
		return nil
	}
	return &byteReader{data: body}
}

// byteReader is a minimal io.Reader over a byte slice, avoiding the
// extra allocation bytes.NewReader's internal state would add for the
// common empty-body case handled above.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// EncodeQuery serializes q as a sorted, RFC 3986 percent-encoded query
// string — the same canonicalization signer.Sign signs over — instead of
// url.Values.Encode()'s application/x-www-form-urlencoded convention
// (space as "+"). Submitting a request built with url.Values.Encode()
// while signing it with the RFC 3986 form would send a URL that does not
// match what was signed, and AWS rejects that with SignatureDoesNotMatch.
func EncodeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	type pair struct{ k, v string }
	var pairs []pair
	for k, vals := range q {
		ek := rfc3986Encode(k)
		if len(vals) == 0 {
			pairs = append(pairs, pair{ek, ""})
			continue
		}
		for _, v := range vals {
			pairs = append(pairs, pair{ek, rfc3986Encode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + "=" + p.v
	}
	return strings.Join(parts, "&")
}

// rfc3986Unreserved reports whether b needs no percent-encoding under
// RFC 3986's unreserved set (ALPHA / DIGIT / "-" / "." / "_" / "~").
func rfc3986Unreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '.' || b == '_' || b == '~':
		return true
	}
	return false
}

func rfc3986Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if rfc3986Unreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// Stop closes idle connections held by the underlying *http.Client.
func (t *HTTPTransport) Stop() {
	if transport, ok := t.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

var (
	sharedOnce      sync.Once
	sharedTransport *HTTPTransport
)

// Shared returns the process-wide default transport, constructed once.
// Client handles that do not supply their own transport bind to this
// instance; Stop on such a handle is a no-op (§5: "stopping a handle
// that shares the process-wide HTTP transport is a no-op").
func Shared() *HTTPTransport {
	sharedOnce.Do(func() {
		sharedTransport = NewHTTPTransport(http.DefaultClient)
	})
	return sharedTransport
}

// IsShared reports whether t is the process-wide shared transport.
func IsShared(t Transport) bool {
	return t == Transport(Shared())
}
