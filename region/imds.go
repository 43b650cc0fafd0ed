package region

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"golang.org/x/sync/singleflight"

	"github.com/gurre/awsapi/anomaly"
)

// IMDSProvider fetches the region from EC2 instance metadata (chain
// position 5). It memoizes: any number of concurrent FetchAsync calls
// collapse to exactly one upstream IMDS request via singleflight, and a
// successful result is cached permanently (a running instance's region
// never changes).
type IMDSProvider struct {
	Client *imds.Client

	mu     sync.Mutex
	cached string
	have   bool
	group  singleflight.Group
}

func (p *IMDSProvider) client() *imds.Client {
	if p.Client != nil {
		return p.Client
	}
	return imds.New(imds.Options{})
}

// FetchAsync implements Provider.
func (p *IMDSProvider) FetchAsync(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() { ch <- p.fetch(ctx) }()
	return ch
}

func (p *IMDSProvider) fetch(ctx context.Context) Result {
	p.mu.Lock()
	if p.have {
		r := Result{Region: p.cached}
		p.mu.Unlock()
		return r
	}
	p.mu.Unlock()

	v, _, _ := p.group.Do("region", func() (any, error) {
		resp, err := p.client().GetRegion(ctx, &imds.GetRegionInput{})
		if err != nil {
			return Result{Anomaly: anomaly.Newf(anomaly.Unavailable, "IMDS region fetch: %v", err)}, nil
		}
		r := strings.TrimSpace(resp.Region)
		if r == "" {
			return Result{Anomaly: anomaly.Newf(anomaly.NotFound, "IMDS returned empty region")}, nil
		}
		p.mu.Lock()
		p.cached = r
		p.have = true
		p.mu.Unlock()
		return Result{Region: r}, nil
	})
	return v.(Result)
}
