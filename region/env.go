package region

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/creds"
	"github.com/gurre/awsapi/iniconfig"
)

// EnvProvider reads AWS_REGION, falling back to AWS_DEFAULT_REGION (chain
// position 2).
type EnvProvider struct{}

// FetchAsync implements Provider.
func (EnvProvider) FetchAsync(context.Context) <-chan Result {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return asyncResult(Result{Region: r})
	}
	if r := os.Getenv("AWS_DEFAULT_REGION"); r != "" {
		return asyncResult(Result{Region: r})
	}
	return asyncResult(Result{Anomaly: anomaly.Newf(anomaly.NotFound, "no region in environment")})
}

// SystemPropertyProvider reads aws.region (chain position 3), sharing the
// creds package's process-wide property store since both chains model the
// same originating "system property" concept.
type SystemPropertyProvider struct{}

// FetchAsync implements Provider.
func (SystemPropertyProvider) FetchAsync(context.Context) <-chan Result {
	if r := creds.Property("aws.region"); r != "" {
		return asyncResult(Result{Region: r})
	}
	return asyncResult(Result{Anomaly: anomaly.Newf(anomaly.NotFound, "no region in system properties")})
}

// ProfileProvider reads the region key from the shared config file (chain
// position 4).
type ProfileProvider struct {
	Name string
}

func (p ProfileProvider) profileName() string {
	if p.Name != "" {
		return p.Name
	}
	if env := os.Getenv("AWS_PROFILE"); env != "" {
		return env
	}
	if prop := creds.Property("aws.profile"); prop != "" {
		return prop
	}
	return "default"
}

// FetchAsync implements Provider.
func (p ProfileProvider) FetchAsync(context.Context) <-chan Result {
	path := os.Getenv("AWS_CONFIG_FILE")
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".aws", "config")
	}
	file, err := iniconfig.Load(path)
	if err != nil {
		return asyncResult(Result{Anomaly: anomaly.Newf(anomaly.NotFound, "no config file for region lookup")})
	}
	prof, ok := file.Profile(p.profileName())
	if !ok || prof["region"] == "" {
		return asyncResult(Result{Anomaly: anomaly.Newf(anomaly.NotFound, "no region in profile")})
	}
	return asyncResult(Result{Region: prof["region"]})
}
