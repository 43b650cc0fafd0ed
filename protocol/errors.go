package protocol

import (
	"strings"

	"github.com/gurre/awsapi/anomaly"
)

// classifyError maps an HTTP status and a service-declared error code
// string to an anomaly category per the fixed table in the error
// handling design: 4xx -> incorrect/forbidden/not-found/conflict, 5xx ->
// fault/unavailable, 429/503 -> busy. Well-known AWS error code strings
// are consulted first since the same status (400, 500) is reused across
// very different failure categories.
func classifyError(status int, code string) anomaly.Category {
	switch code {
	case "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequestsException",
		"ProvisionedThroughputExceededException":
		return anomaly.Busy
	case "AccessDenied", "AccessDeniedException", "UnauthorizedException", "UnrecognizedClientException",
		"InvalidSignatureException", "SignatureDoesNotMatch":
		return anomaly.Forbidden
	case "ResourceNotFoundException", "NotFound", "NoSuchKey", "NoSuchBucket":
		return anomaly.NotFound
	case "ConditionalCheckFailedException", "ConflictException", "BucketAlreadyExists":
		return anomaly.Conflict
	}
	switch status {
	case 429, 503:
		return anomaly.Busy
	case 403:
		return anomaly.Forbidden
	case 404:
		return anomaly.NotFound
	case 409:
		return anomaly.Conflict
	}
	switch {
	case status >= 500:
		return anomaly.Fault
	case status >= 400:
		return anomaly.Incorrect
	default:
		return anomaly.Fault
	}
}

// errorCodeFromType extracts the trailing error-code segment from an AWS
// JSON RPC "__type" value, e.g. "com.amazonaws.dynamodb#ResourceNotFoundException".
func errorCodeFromType(typ string) string {
	if idx := strings.LastIndex(typ, "#"); idx >= 0 {
		return typ[idx+1:]
	}
	return typ
}

// stripBOM removes a leading UTF-8 byte-order mark, which AWS response
// bodies may or may not carry ahead of the JSON/XML payload.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
