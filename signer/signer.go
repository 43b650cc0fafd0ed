// Package signer implements AWS Signature Version 4, including the S3
// ("s3v4") variant, over the transport.Request type the protocol
// dispatchers build. It is a pure function of its inputs: given the same
// request, credentials, and clock, it always produces the same
// Authorization header.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gurre/awsapi/creds"
	"github.com/gurre/awsapi/transport"
)

const (
	algorithm   = "AWS4-HMAC-SHA256"
	amzDateFmt  = "20060102T150405Z"
	dateFmt     = "20060102"
	unsignedTag = "UNSIGNED-PAYLOAD"

	// SignatureVersionV4 is the standard AWS Signature Version 4.
	SignatureVersionV4 = "v4"
	// SignatureVersionS3V4 is the S3 variant: single-pass URI encoding
	// and support for an unsigned payload.
	SignatureVersionS3V4 = "s3v4"
)

// Params carries everything about the request's signing context beyond
// the request and credentials themselves.
type Params struct {
	Region           string
	SigningName      string
	SignatureVersion string // SignatureVersionV4 or SignatureVersionS3V4
	UnsignedPayload  bool   // S3: sign "UNSIGNED-PAYLOAD" instead of a body hash
	Time             time.Time
}

// Sign mutates req in place, adding x-amz-date, x-amz-security-token (if
// session credentials), x-amz-content-sha256 (policy below), and the
// Authorization header.
func Sign(req *transport.Request, cred creds.Credentials, p Params) error {
	if p.Time.IsZero() {
		p.Time = time.Now()
	}
	t := p.Time.UTC()
	amzDate := t.Format(amzDateFmt)
	dateStamp := t.Format(dateFmt)

	if req.Header.Get("x-amz-date") == "" {
		req.Header.Set("x-amz-date", amzDate)
	} else {
		amzDate = req.Header.Get("x-amz-date")
	}
	if req.Header.Get("host") == "" && req.ServerName != "" {
		host := req.ServerName
		if req.ServerPort != "" {
			host = host + ":" + req.ServerPort
		}
		req.Header.Set("host", host)
	}
	if cred.SessionToken != "" {
		req.Header.Set("x-amz-security-token", cred.SessionToken)
	}

	isS3 := p.SignatureVersion == SignatureVersionS3V4
	payloadHash := hashPayload(req.Body, p.UnsignedPayload && isS3)
	if isS3 {
		req.Header.Set("x-amz-content-sha256", payloadHash)
	} else if req.Header.Has("x-amz-content-sha256") {
		req.Header.Set("x-amz-content-sha256", payloadHash)
	}

	canonicalHeaders, signedHeaders := canonicalizeHeaders(req.Header)
	canonicalReq := strings.Join([]string{
		strings.ToUpper(req.Method),
		canonicalURI(req.URI, !isS3),
		canonicalQueryString(req.Query),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := strings.Join([]string{dateStamp, p.Region, p.SigningName, "aws4_request"}, "/")
	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		credentialScope,
		hexSHA256([]byte(canonicalReq)),
	}, "\n")

	signingKey := deriveSigningKey(cred.SecretAccessKey, dateStamp, p.Region, p.SigningName)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	auth := fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, cred.AccessKeyID, credentialScope, signedHeaders, signature)
	req.Header.Set("authorization", auth)
	return nil
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func deriveSigningKey(secret, dateStamp, region, signingName string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, signingName)
	return hmacSHA256(kService, "aws4_request")
}

func hashPayload(body []byte, unsigned bool) string {
	if unsigned {
		return unsignedTag
	}
	return hexSHA256(body)
}

// unreserved reports whether b needs no percent-encoding under RFC 3986's
// unreserved set (ALPHA / DIGIT / "-" / "." / "_" / "~").
func unreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '.' || b == '_' || b == '~':
		return true
	}
	return false
}

func uriEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// canonicalURI percent-encodes each path segment, preserving "/" as the
// separator in both passes. doubleEncode re-runs the encoding on each
// already-encoded segment (turning the "%" from the first pass into
// "%25"), the behaviour standard v4 requires and s3v4 does not.
func canonicalURI(path string, doubleEncode bool) string {
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		enc := uriEncode(seg)
		if doubleEncode {
			enc = uriEncode(enc)
		}
		segments[i] = enc
	}
	return strings.Join(segments, "/")
}

// canonicalQueryString delegates to transport.EncodeQuery, the same RFC
// 3986 percent-encoder the HTTP transport serializes req.Query with, so
// the string signed here is byte-identical to the query string actually
// sent on the wire.
func canonicalQueryString(q url.Values) string {
	return transport.EncodeQuery(q)
}

// canonicalizeHeaders returns the canonical-headers block and the
// semicolon-joined signed-headers list: host, x-amz-date, and every
// x-amz-* header except x-amz-client-context.
func canonicalizeHeaders(h transport.Header) (string, string) {
	included := map[string]string{}
	for name, vals := range h {
		lname := strings.ToLower(name)
		if !includedInSigning(lname) {
			continue
		}
		included[lname] = collapseWhitespace(strings.Join(vals, ","))
	}
	names := make([]string, 0, len(included))
	for name := range included {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(included[name])
		b.WriteByte('\n')
	}
	return b.String(), strings.Join(names, ";")
}

func includedInSigning(lowerName string) bool {
	if lowerName == "host" || lowerName == "x-amz-date" {
		return true
	}
	return strings.HasPrefix(lowerName, "x-amz-") && lowerName != "x-amz-client-context"
}

func collapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !prevSpace {
				b.WriteByte(' ')
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
