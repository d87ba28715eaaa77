package testutil

import (
	"context"

	"github.com/quickops/quicksuite-admin/internal/domain"
)

// FakeResolver is an in-memory implementation of domain.InstanceResolver.
type FakeResolver struct {
	Instance *domain.IdentityInstance
	Err      error
}

// NewFakeResolver creates a resolver answering with one fixed instance.
func NewFakeResolver() *FakeResolver {
	return &FakeResolver{
		Instance: &domain.IdentityInstance{
			ARN:             "arn:aws:sso:::instance/ssoins-0123456789abcdef",
			IdentityStoreID: "d-0123456789",
		},
	}
}

// ResolveInstance returns the fixed instance unless Err is set. A non-empty
// instanceARN must match the fixed instance's ARN.
func (f *FakeResolver) ResolveInstance(_ context.Context, instanceARN string) (*domain.IdentityInstance, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Instance == nil {
		return nil, domain.ErrNoInstance
	}
	if instanceARN != "" && instanceARN != f.Instance.ARN {
		return nil, domain.ErrNoInstance
	}
	copied := *f.Instance
	return &copied, nil
}
