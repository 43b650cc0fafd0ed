package creds

import (
	"context"
	"os"

	"github.com/gurre/awsapi/anomaly"
)

// EnvProvider reads AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY /
// AWS_SESSION_TOKEN (chain position 2).
type EnvProvider struct{}

// FetchAsync implements Provider.
func (EnvProvider) FetchAsync(context.Context) <-chan Result {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return asyncResult(Result{Anomaly: anomaly.Newf(anomaly.NotFound, "no credentials in environment")})
	}
	return asyncResult(Result{Credentials: Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}})
}

// properties models the JVM-style "system properties" the originating
// design calls out as a chain member; Go processes have no equivalent, so
// this is a small process-wide settable store instead of a no-op. Callers
// that want this chain link to participate set values explicitly (e.g.
// from a -D-style flag parser in cmd/).
var properties = map[string]string{}

// SetProperty sets a system property consulted by SystemPropertyProvider.
func SetProperty(key, value string) { properties[key] = value }

// Property returns a system property, or "" if unset.
func Property(key string) string { return properties[key] }

// SystemPropertyProvider reads aws.accessKeyId / aws.secretKey (chain
// position 3).
type SystemPropertyProvider struct{}

// FetchAsync implements Provider.
func (SystemPropertyProvider) FetchAsync(context.Context) <-chan Result {
	id := Property("aws.accessKeyId")
	secret := Property("aws.secretKey")
	if id == "" || secret == "" {
		return asyncResult(Result{Anomaly: anomaly.Newf(anomaly.NotFound, "no credentials in system properties")})
	}
	return asyncResult(Result{Credentials: Credentials{AccessKeyID: id, SecretAccessKey: secret}})
}
