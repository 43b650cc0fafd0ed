// Package endpoint resolves the host/scheme/port/path an operation's
// HTTP request targets for a given service and region, with a small
// bundled partitions table and caller overrides.
package endpoint

import (
	"strings"

	"github.com/gurre/awsapi/anomaly"
	"github.com/gurre/awsapi/descriptor"
)

// Endpoint is the resolved connection target for one service + region.
type Endpoint struct {
	Protocol          string
	Hostname          string
	Port              string
	Path              string
	SignatureVersions []string
	CredentialScope   string
}

// Override replaces any non-empty field of a resolved Endpoint. It is the
// structured form required by the client config surface — the deprecated
// bare-hostname-string form from historical usage is not supported here
// (see the design notes' Open Question decision).
type Override struct {
	Protocol string
	Hostname string
	Port     string
	Path     string
}

func (o Override) apply(ep Endpoint) Endpoint {
	if o.Protocol != "" {
		ep.Protocol = o.Protocol
	}
	if o.Hostname != "" {
		ep.Hostname = o.Hostname
	}
	if o.Port != "" {
		ep.Port = o.Port
	}
	if o.Path != "" {
		ep.Path = o.Path
	}
	return ep
}

// Resolver computes the Endpoint to use for a service's operations in a
// region.
type Resolver interface {
	Resolve(svc *descriptor.Service, region string) (Endpoint, *anomaly.Anomaly)
}

// partition is one bundled entry in the default partitions table.
type partition struct {
	name                    string
	dnsSuffix               string
	regions                 map[string]struct{}
	defaultHostnameTemplate string // "{service}.{region}.{dnsSuffix}"
}

// partitions is a small bundled table, not the full AWS endpoints.json —
// enough to resolve the common partitions plus a generic fallback
// template for anything unrecognized, per §4.7's "computed hostname using
// the partition's generic template" contract.
var partitions = []partition{
	{
		name:      "aws",
		dnsSuffix: "amazonaws.com",
		regions: regionSet(
			"us-east-1", "us-east-2", "us-west-1", "us-west-2",
			"eu-west-1", "eu-west-2", "eu-west-3", "eu-central-1", "eu-north-1",
			"ap-northeast-1", "ap-northeast-2", "ap-northeast-3",
			"ap-southeast-1", "ap-southeast-2", "ap-south-1",
			"sa-east-1", "ca-central-1",
		),
		defaultHostnameTemplate: "{service}.{region}.{dnsSuffix}",
	},
	{
		name:                    "aws-cn",
		dnsSuffix:               "amazonaws.com.cn",
		regions:                 regionSet("cn-north-1", "cn-northwest-1"),
		defaultHostnameTemplate: "{service}.{region}.{dnsSuffix}",
	},
	{
		name:                    "aws-us-gov",
		dnsSuffix:               "amazonaws.com",
		regions:                 regionSet("us-gov-east-1", "us-gov-west-1"),
		defaultHostnameTemplate: "{service}.{region}.{dnsSuffix}",
	},
}

func regionSet(names ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// partitionFor returns the partition a region belongs to, defaulting to
// the standard "aws" partition's generic template for any region not
// found in the bundled table (a region release the table predates).
func partitionFor(region string) partition {
	for _, p := range partitions {
		if _, ok := p.regions[region]; ok {
			return p
		}
	}
	for _, p := range partitions {
		if p.name == "aws" {
			return p
		}
	}
	return partitions[0]
}

// DefaultResolver computes an Endpoint from the bundled partitions table,
// then applies an optional Override.
type DefaultResolver struct {
	Override *Override
}

// Resolve implements Resolver.
func (r DefaultResolver) Resolve(svc *descriptor.Service, region string) (Endpoint, *anomaly.Anomaly) {
	if svc == nil {
		return Endpoint{}, anomaly.Newf(anomaly.Incorrect, "endpoint: nil service descriptor")
	}
	p := partitionFor(region)
	hostname := strings.NewReplacer(
		"{service}", svc.Metadata.EndpointPrefix,
		"{region}", region,
		"{dnsSuffix}", p.dnsSuffix,
	).Replace(p.defaultHostnameTemplate)

	ep := Endpoint{
		Protocol:          "https",
		Hostname:          hostname,
		SignatureVersions: []string{svc.Metadata.SignatureVersion},
	}
	if r.Override != nil {
		ep = r.Override.apply(ep)
	}
	return ep, nil
}
