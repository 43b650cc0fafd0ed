package signer

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gurre/awsapi/creds"
	"github.com/gurre/awsapi/transport"
)

func vanillaRequest() *transport.Request {
	req := transport.NewRequest()
	req.Method = "GET"
	req.Scheme = "https"
	req.ServerName = "host.foo.com"
	req.URI = "/"
	return req
}

var testCreds = creds.Credentials{
	AccessKeyID:     "AKIDEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
}

var fixedTime = time.Date(2011, 9, 9, 23, 36, 0, 0, time.UTC)

func TestSignIsDeterministic(t *testing.T) {
	p := Params{Region: "us-east-1", SigningName: "host", SignatureVersion: SignatureVersionV4, Time: fixedTime}

	req1 := vanillaRequest()
	req2 := vanillaRequest()
	if err := Sign(req1, testCreds, p); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := Sign(req2, testCreds, p); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if req1.Header.Get("authorization") != req2.Header.Get("authorization") {
		t.Errorf("signing the same request twice produced different Authorization headers")
	}
}

func TestSignAddsExpectedHeaders(t *testing.T) {
	p := Params{Region: "us-east-1", SigningName: "host", SignatureVersion: SignatureVersionV4, Time: fixedTime}
	req := vanillaRequest()
	if err := Sign(req, testCreds, p); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if req.Header.Get("x-amz-date") != "20110909T233600Z" {
		t.Errorf("x-amz-date = %q", req.Header.Get("x-amz-date"))
	}

	// Reference value for the vanilla GET AKIDEXAMPLE/us-east-1/host vector,
	// derived independently from the canonical request this package signs
	// (host;x-amz-date only — it never signs a bare Date header), not copied
	// from this package's own output.
	want := "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20110909/us-east-1/host/aws4_request, SignedHeaders=host;x-amz-date, Signature=904f8c568bca8bd2618b9241a7f2a8d90f279e717fd0f6727af189668b040151"
	if auth := req.Header.Get("authorization"); auth != want {
		t.Errorf("authorization = %q, want %q", auth, want)
	}
}

func TestSignSetsSecurityTokenHeader(t *testing.T) {
	p := Params{Region: "us-east-1", SigningName: "host", SignatureVersion: SignatureVersionV4, Time: fixedTime}
	req := vanillaRequest()
	withToken := testCreds
	withToken.SessionToken = "TOKEN123"
	if err := Sign(req, withToken, p); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if req.Header.Get("x-amz-security-token") != "TOKEN123" {
		t.Errorf("x-amz-security-token = %q", req.Header.Get("x-amz-security-token"))
	}
	if !strings.Contains(req.Header.Get("authorization"), "x-amz-security-token") {
		t.Errorf("SignedHeaders does not include x-amz-security-token: %s", req.Header.Get("authorization"))
	}
}

func TestSignS3UnsignedPayload(t *testing.T) {
	p := Params{Region: "us-east-1", SigningName: "s3", SignatureVersion: SignatureVersionS3V4, UnsignedPayload: true, Time: fixedTime}
	req := vanillaRequest()
	req.Body = []byte("some body that should not be hashed")
	if err := Sign(req, testCreds, p); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if req.Header.Get("x-amz-content-sha256") != unsignedTag {
		t.Errorf("x-amz-content-sha256 = %q, want %q", req.Header.Get("x-amz-content-sha256"), unsignedTag)
	}
}

func TestSignStandardV4OnlyAddsContentSha256IfAlreadyPresent(t *testing.T) {
	p := Params{Region: "us-east-1", SigningName: "host", SignatureVersion: SignatureVersionV4, Time: fixedTime}
	req := vanillaRequest()
	if err := Sign(req, testCreds, p); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if req.Header.Has("x-amz-content-sha256") {
		t.Errorf("standard v4 should not add x-amz-content-sha256 when absent")
	}
}

func TestCanonicalQueryStringOrderingAndIdempotence(t *testing.T) {
	q1 := url.Values{"q.parser": {"lucene"}, "q": {"Red"}}
	q2 := url.Values{"q": {"Red"}, "q.parser": {"lucene"}}
	want := "q=Red&q.parser=lucene"
	got1 := canonicalQueryString(q1)
	got2 := canonicalQueryString(q2)
	if got1 != want || got2 != want {
		t.Fatalf("canonicalQueryString = %q, %q, want %q", got1, got2, want)
	}
	reparsed, _ := url.ParseQuery(got1)
	if again := canonicalQueryString(reparsed); again != want {
		t.Errorf("canonical-query-string not idempotent: got %q", again)
	}
}

func TestCanonicalQueryStringEmptyValue(t *testing.T) {
	q := url.Values{"policy": {""}}
	if got := canonicalQueryString(q); got != "policy=" {
		t.Errorf("canonicalQueryString(policy) = %q, want %q", got, "policy=")
	}
}

func TestCanonicalURIDoubleVsSingleEncoding(t *testing.T) {
	path := "/a b/c"
	single := canonicalURI(path, false)
	double := canonicalURI(path, true)
	if single == double {
		t.Fatalf("expected single- and double-encoded URIs to differ for a path needing escaping")
	}
	if !strings.Contains(double, "%2520") && !strings.Contains(double, "%25") {
		t.Errorf("double-encoded URI should re-encode the %% from the first pass: %q", double)
	}
	if !strings.HasPrefix(single, "/") || !strings.HasPrefix(double, "/") {
		t.Errorf("canonical URI must preserve the leading slash")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := collapseWhitespace("  a   b\tc  ")
	if got != "a b c" {
		t.Errorf("collapseWhitespace = %q, want %q", got, "a b c")
	}
}
