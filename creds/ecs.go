package creds

import (
	"context"
	"io"
	"net/http"
	"os"

	json "github.com/goccy/go-json"

	"github.com/gurre/awsapi/anomaly"
)

const ecsCredentialsHost = "http://169.254.170.2"

// ECSProvider reads credentials from the ECS container credentials
// endpoint (chain position 5), honoring the relative or full URI
// environment variables.
type ECSProvider struct {
	HTTPClient *http.Client
}

// FetchAsync implements Provider.
func (p ECSProvider) FetchAsync(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() { ch <- p.fetch(ctx) }()
	return ch
}

func (p ECSProvider) fetch(ctx context.Context) Result {
	url := ecsURL()
	if url == "" {
		return Result{Anomaly: anomaly.Newf(anomaly.NotFound, "no ECS container credentials URI configured")}
	}

	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Anomaly: anomaly.Newf(anomaly.Fault, "build ECS credentials request: %v", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Anomaly: anomaly.Newf(anomaly.Unavailable, "fetch ECS credentials: %v", err)}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Anomaly: anomaly.Newf(anomaly.Unavailable, "read ECS credentials: %v", err)}
	}
	if resp.StatusCode >= 400 {
		return Result{Anomaly: anomaly.Newf(anomaly.Unavailable, "ECS credentials endpoint status %d", resp.StatusCode)}
	}

	var parsed struct {
		AccessKeyID     string `json:"AccessKeyId"`
		SecretAccessKey string `json:"SecretAccessKey"`
		Token           string `json:"Token"`
		Expiration      string `json:"Expiration"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{Anomaly: anomaly.Newf(anomaly.Fault, "parse ECS credentials: %v", err)}
	}

	creds := Credentials{
		AccessKeyID:     parsed.AccessKeyID,
		SecretAccessKey: parsed.SecretAccessKey,
		SessionToken:    parsed.Token,
	}
	if t, err := parseExpiration(parsed.Expiration); err == nil {
		creds.Expiration = t
	}
	return Result{Credentials: creds}
}

func ecsURL() string {
	if full := os.Getenv("AWS_CONTAINER_CREDENTIALS_FULL_URI"); full != "" {
		return full
	}
	if rel := os.Getenv("AWS_CONTAINER_CREDENTIALS_RELATIVE_URI"); rel != "" {
		return ecsCredentialsHost + rel
	}
	return ""
}
