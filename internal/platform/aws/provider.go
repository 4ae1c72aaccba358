package aws

import (
	"context"
	"fmt"

	"github.com/avelis/cloudlab/internal/workflow"
)

// Provider adapts the Client to the workflow's provider interface,
// dispatching each operation on the spec's resource kind.
type Provider struct {
	client *Client
}

// NewProvider wraps client in a workflow provider.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

var _ workflow.Provider = (*Provider)(nil)

func (p *Provider) Lookup(ctx context.Context, spec workflow.Spec) (*workflow.Handle, error) {
	switch spec.Kind {
	case workflow.KindNetwork:
		return p.client.LookupNetwork(ctx, spec)
	case workflow.KindStorage:
		return p.client.LookupBucket(ctx, spec)
	case workflow.KindCompute:
		return p.client.LookupInstance(ctx, spec)
	default:
		return nil, fmt.Errorf("unknown resource kind %q", spec.Kind)
	}
}

func (p *Provider) Create(ctx context.Context, spec workflow.Spec) (*workflow.Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, p.client.timeouts.Create)
	defer cancel()

	switch spec.Kind {
	case workflow.KindNetwork:
		return p.client.CreateNetwork(ctx, spec)
	case workflow.KindStorage:
		return p.client.CreateBucket(ctx, spec)
	case workflow.KindCompute:
		return p.client.CreateInstance(ctx, spec)
	default:
		return nil, fmt.Errorf("unknown resource kind %q", spec.Kind)
	}
}

func (p *Provider) Status(ctx context.Context, handle *workflow.Handle) (workflow.Status, error) {
	switch handle.Kind {
	case workflow.KindNetwork:
		return p.client.NetworkStatus(ctx, handle.ID)
	case workflow.KindStorage:
		return p.client.BucketStatus(ctx, handle.ID)
	case workflow.KindCompute:
		return p.client.InstanceStatus(ctx, handle.ID)
	default:
		return "", fmt.Errorf("unknown resource kind %q", handle.Kind)
	}
}

func (p *Provider) Delete(ctx context.Context, handle *workflow.Handle) error {
	switch handle.Kind {
	case workflow.KindNetwork:
		return p.client.DeleteNetwork(ctx, handle.ID)
	case workflow.KindStorage:
		return p.client.DeleteBucket(ctx, handle.ID)
	case workflow.KindCompute:
		return p.client.DeleteInstance(ctx, handle)
	default:
		return fmt.Errorf("unknown resource kind %q", handle.Kind)
	}
}
