package identitycenter

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	"github.com/quickops/quicksuite-admin/internal/domain"
	"github.com/quickops/quicksuite-admin/internal/repository/awsconn"
)

// InstanceResolver discovers the identity center instance for the account.
type InstanceResolver struct {
	client *ssoadmin.Client
}

// NewInstanceResolver creates a resolver from the shared AWS config.
func NewInstanceResolver(awsCfg aws.Config) *InstanceResolver {
	return &InstanceResolver{client: ssoadmin.NewFromConfig(awsCfg)}
}

// ResolveInstance returns the instance matching instanceARN, or the
// account's first instance when instanceARN is empty.
func (r *InstanceResolver) ResolveInstance(ctx context.Context, instanceARN string) (*domain.IdentityInstance, error) {
	paginator := ssoadmin.NewListInstancesPaginator(r.client, &ssoadmin.ListInstancesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsconn.Classify("ssoadmin.ListInstances", instanceARN, err)
		}
		for _, inst := range page.Instances {
			arn := aws.ToString(inst.InstanceArn)
			if instanceARN != "" && arn != instanceARN {
				continue
			}
			return &domain.IdentityInstance{
				ARN:             arn,
				IdentityStoreID: aws.ToString(inst.IdentityStoreId),
			}, nil
		}
	}

	if instanceARN != "" {
		return nil, fmt.Errorf("%w: instance %s", domain.ErrNoInstance, instanceARN)
	}
	return nil, domain.ErrNoInstance
}
