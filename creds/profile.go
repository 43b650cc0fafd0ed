package creds

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/iniconfig"
)

// ProfileProvider reads credentials from the shared config/credentials
// files (chain position 4). It honors AWS_PROFILE, AWS_CONFIG_FILE, and
// AWS_SHARED_CREDENTIALS_FILE. credential_process is executed and its
// JSON stdout parsed; source_profile/role_arn and sso_* fields are parsed
// onto the profile but not resolved into an assumed-role or SSO fetch —
// federation is out of scope for this chain (see Open Question decision
// in the design notes).
type ProfileProvider struct {
	// Name overrides AWS_PROFILE / "default" when non-empty.
	Name string
}

// ResolvedProfile is the parsed (not resolved) shared-config profile a
// credential fetch consulted, exposed for callers that need
// source_profile/role_arn/sso_* without this provider attempting
// federation itself.
type ResolvedProfile struct {
	iniconfig.Profile
}

func (p ProfileProvider) profileName() string {
	if p.Name != "" {
		return p.Name
	}
	if env := os.Getenv("AWS_PROFILE"); env != "" {
		return env
	}
	if prop := Property("aws.profile"); prop != "" {
		return prop
	}
	return "default"
}

// FetchAsync implements Provider.
func (p ProfileProvider) FetchAsync(ctx context.Context) <-chan Result {
	name := p.profileName()

	if prof, ok := loadProfile(credentialsFilePath(), name); ok {
		if r, ok := fromProfile(ctx, prof); ok {
			return asyncResult(r)
		}
	}
	if prof, ok := loadProfile(configFilePath(), name); ok {
		if r, ok := fromProfile(ctx, prof); ok {
			return asyncResult(r)
		}
	}
	return asyncResult(Result{Anomaly: anomaly.Newf(anomaly.NotFound, "no credentials in profile %s", name)})
}

func credentialsFilePath() string {
	if p := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".aws", "credentials")
}

func configFilePath() string {
	if p := os.Getenv("AWS_CONFIG_FILE"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".aws", "config")
}

func loadProfile(path, name string) (iniconfig.Profile, bool) {
	file, err := iniconfig.Load(path)
	if err != nil {
		return nil, false
	}
	return file.Profile(name)
}

// fromProfile extracts Credentials from a parsed profile, either directly
// (aws_access_key_id/aws_secret_access_key/aws_session_token) or by
// running credential_process. source_profile/role_arn/sso_* are left on
// ResolvedProfile for introspection only.
func fromProfile(ctx context.Context, prof iniconfig.Profile) (Result, bool) {
	if process := prof["credential_process"]; process != "" {
		return runCredentialProcess(ctx, process)
	}
	id := prof["aws_access_key_id"]
	secret := prof["aws_secret_access_key"]
	if id == "" || secret == "" {
		return Result{}, false
	}
	return Result{Credentials: Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    prof["aws_session_token"],
	}}, true
}

type credentialProcessOutput struct {
	Version         int    `json:"Version"`
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	SessionToken    string `json:"SessionToken"`
	Expiration      string `json:"Expiration"`
}

func runCredentialProcess(ctx context.Context, command string) (Result, bool) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Result{}, false
	}
	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return Result{Anomaly: anomaly.Newf(anomaly.Fault, "credential_process: %v", err)}, true
	}
	var parsed credentialProcessOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Result{Anomaly: anomaly.Newf(anomaly.Fault, "credential_process output: %v", err)}, true
	}
	creds := Credentials{
		AccessKeyID:     parsed.AccessKeyID,
		SecretAccessKey: parsed.SecretAccessKey,
		SessionToken:    parsed.SessionToken,
	}
	if t, err := parseExpiration(parsed.Expiration); err == nil {
		creds.Expiration = t
	}
	return Result{Credentials: creds}, true
}
