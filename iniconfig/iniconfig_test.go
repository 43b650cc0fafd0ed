package iniconfig

import (
	"strings"
	"testing"
)

const sample = `
[default]
region = us-east-1
output = json

[profile dev]
region = us-west-2
role_arn = arn:aws:iam::123456789012:role/dev
source_profile = default
s3 =
  addressing_style = virtual
  signature_version = s3v4
`

func TestParseProfiles(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	def, ok := f.Profile("default")
	if !ok || def["region"] != "us-east-1" {
		t.Fatalf("default profile = %v", def)
	}
	dev, ok := f.Profile("dev")
	if !ok {
		t.Fatal("dev profile missing")
	}
	if dev["role_arn"] != "arn:aws:iam::123456789012:role/dev" {
		t.Errorf("role_arn = %q", dev["role_arn"])
	}
	if dev["s3.addressing_style"] != "virtual" {
		t.Errorf("s3.addressing_style = %q, want virtual", dev["s3.addressing_style"])
	}
	if dev["s3.signature_version"] != "s3v4" {
		t.Errorf("s3.signature_version = %q, want s3v4", dev["s3.signature_version"])
	}
}

func TestParseIgnoresComments(t *testing.T) {
	f, err := Parse(strings.NewReader("[default]\n# comment\nregion = us-east-1 ; inline\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Profiles["default"]["region"] != "us-east-1" {
		t.Errorf("region = %q", f.Profiles["default"]["region"])
	}
}
