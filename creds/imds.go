package creds

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	json "github.com/goccy/go-json"

	"github.com/gurre/awsapi/anomaly"
)

// IMDSProvider fetches role credentials from the EC2 instance metadata
// service, v2 (session-token-authenticated), via smithy's generated IMDS
// client (chain position 6).
type IMDSProvider struct {
	Client *imds.Client
}

func (p IMDSProvider) client() *imds.Client {
	if p.Client != nil {
		return p.Client
	}
	return imds.New(imds.Options{})
}

// FetchAsync implements Provider.
func (p IMDSProvider) FetchAsync(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() { ch <- p.fetch(ctx) }()
	return ch
}

func (p IMDSProvider) fetch(ctx context.Context) Result {
	if os.Getenv("AWS_EC2_METADATA_DISABLED") == "true" {
		return Result{Anomaly: anomaly.Newf(anomaly.NotFound, "EC2 metadata disabled")}
	}

	client := p.client()

	roleResp, err := client.GetMetadata(ctx, &imds.GetMetadataInput{Path: "iam/security-credentials/"})
	if err != nil {
		return Result{Anomaly: anomaly.Newf(anomaly.Unavailable, "IMDS role lookup: %v", err)}
	}
	role, err := firstLine(roleResp.Content)
	if err != nil || role == "" {
		return Result{Anomaly: anomaly.Newf(anomaly.NotFound, "no IAM role attached to instance")}
	}

	credResp, err := client.GetMetadata(ctx, &imds.GetMetadataInput{Path: "iam/security-credentials/" + role})
	if err != nil {
		return Result{Anomaly: anomaly.Newf(anomaly.Unavailable, "IMDS credentials fetch: %v", err)}
	}
	body, err := io.ReadAll(credResp.Content)
	if err != nil {
		return Result{Anomaly: anomaly.Newf(anomaly.Unavailable, "IMDS credentials read: %v", err)}
	}

	var parsed struct {
		Code            string `json:"Code"`
		AccessKeyID     string `json:"AccessKeyId"`
		SecretAccessKey string `json:"SecretAccessKey"`
		Token           string `json:"Token"`
		Expiration      string `json:"Expiration"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{Anomaly: anomaly.Newf(anomaly.Fault, "parse IMDS credentials: %v", err)}
	}
	if parsed.Code != "" && parsed.Code != "Success" {
		return Result{Anomaly: anomaly.Newf(anomaly.Unavailable, "IMDS credentials code %s", parsed.Code)}
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

func firstLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", scanner.Err()
}
