// Package quicksuite implements the workspace control-plane client over the
// QuickSight account subscription API and identity center applications.
package quicksuite

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/quicksight"
	qstypes "github.com/aws/aws-sdk-go-v2/service/quicksight/types"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	"github.com/quickops/quicksuite-admin/internal/domain"
	"github.com/quickops/quicksuite-admin/internal/repository/awsconn"
)

// customProviderARN is the identity center application provider for
// custom applications.
const customProviderARN = "arn:aws:sso::aws:applicationProvider/custom"

// ControlPlane implements domain.ControlPlaneClient for one AWS account.
type ControlPlane struct {
	quicksight *quicksight.Client
	ssoadmin   *ssoadmin.Client
	accountID  string
}

// NewControlPlane creates a control-plane client bound to one account.
func NewControlPlane(awsCfg aws.Config, accountID string) *ControlPlane {
	return &ControlPlane{
		quicksight: quicksight.NewFromConfig(awsCfg),
		ssoadmin:   ssoadmin.NewFromConfig(awsCfg),
		accountID:  accountID,
	}
}

// AccountID returns the bound AWS account.
func (c *ControlPlane) AccountID() string { return c.accountID }

// CreateSubscription starts the account subscription. The operation is
// long-running; callers poll DescribeSubscription for completion.
func (c *ControlPlane) CreateSubscription(ctx context.Context, cfg domain.DesiredWorkspaceConfig, instanceARN string) error {
	_, err := c.quicksight.CreateAccountSubscription(ctx, &quicksight.CreateAccountSubscriptionInput{
		AwsAccountId:                 aws.String(c.accountID),
		AccountName:                  aws.String(cfg.AccountDisplayName),
		NotificationEmail:            aws.String(cfg.AdminEmail),
		Edition:                      qstypes.EditionEnterprise,
		AuthenticationMethod:         qstypes.AuthenticationMethodOptionIamIdentityCenter,
		IAMIdentityCenterInstanceArn: aws.String(instanceARN),
		AdminProGroup:                []string{cfg.AdminGroupName},
	})
	if err != nil {
		return awsconn.Classify("quicksight.CreateAccountSubscription", cfg.AccountDisplayName, err)
	}
	return nil
}

// DescribeSubscription reads the current subscription state. A missing
// subscription is reported as SubscriptionAbsent, not as an error.
func (c *ControlPlane) DescribeSubscription(ctx context.Context) (*domain.WorkspaceState, error) {
	out, err := c.quicksight.DescribeAccountSubscription(ctx, &quicksight.DescribeAccountSubscriptionInput{
		AwsAccountId: aws.String(c.accountID),
	})
	if err != nil {
		err = awsconn.Classify("quicksight.DescribeAccountSubscription", c.accountID, err)
		if domain.IsNotFound(err) {
			return &domain.WorkspaceState{SubscriptionStatus: domain.SubscriptionAbsent}, nil
		}
		return nil, err
	}

	state := &domain.WorkspaceState{SubscriptionStatus: domain.SubscriptionAbsent}
	if out.AccountInfo != nil {
		state.AccountName = aws.ToString(out.AccountInfo.AccountName)
		state.SubscriptionStatus = statusFromAPI(aws.ToString(out.AccountInfo.AccountSubscriptionStatus))
	}
	return state, nil
}

// statusFromAPI maps the remote subscription status string onto the
// lifecycle states the handler reasons about.
func statusFromAPI(status string) domain.SubscriptionStatus {
	switch {
	case status == "" || status == "UNSUBSCRIBED":
		return domain.SubscriptionAbsent
	case status == "UNSUBSCRIBE_IN_PROGRESS":
		return domain.SubscriptionDeleting
	case strings.Contains(status, "FAILED"):
		return domain.SubscriptionFailed
	case strings.Contains(status, "IN_PROGRESS") || strings.Contains(status, "PENDING"):
		return domain.SubscriptionCreating
	default:
		return domain.SubscriptionActive
	}
}

// DeleteSubscription tears down the account subscription. The provisioning
// handler never calls this; it exists for explicit operator teardown.
func (c *ControlPlane) DeleteSubscription(ctx context.Context) error {
	_, err := c.quicksight.DeleteAccountSubscription(ctx, &quicksight.DeleteAccountSubscriptionInput{
		AwsAccountId: aws.String(c.accountID),
	})
	if err != nil {
		return awsconn.Classify("quicksight.DeleteAccountSubscription", c.accountID, err)
	}
	return nil
}

// CreateNamespace creates a workspace namespace backed by the directory.
func (c *ControlPlane) CreateNamespace(ctx context.Context, name string) error {
	_, err := c.quicksight.CreateNamespace(ctx, &quicksight.CreateNamespaceInput{
		AwsAccountId:  aws.String(c.accountID),
		Namespace:     aws.String(name),
		IdentityStore: qstypes.IdentityStoreQuicksight,
	})
	if err != nil {
		return awsconn.Classify("quicksight.CreateNamespace", name, err)
	}
	return nil
}

// DeleteNamespace removes a workspace namespace.
func (c *ControlPlane) DeleteNamespace(ctx context.Context, name string) error {
	_, err := c.quicksight.DeleteNamespace(ctx, &quicksight.DeleteNamespaceInput{
		AwsAccountId: aws.String(c.accountID),
		Namespace:    aws.String(name),
	})
	if err != nil {
		return awsconn.Classify("quicksight.DeleteNamespace", name, err)
	}
	return nil
}

// CreateApplication registers the SSO application linking the directory
// instance to the workspace.
func (c *ControlPlane) CreateApplication(ctx context.Context, instanceARN, name string) (string, error) {
	out, err := c.ssoadmin.CreateApplication(ctx, &ssoadmin.CreateApplicationInput{
		InstanceArn:            aws.String(instanceARN),
		Name:                   aws.String(name),
		ApplicationProviderArn: aws.String(customProviderARN),
	})
	if err != nil {
		return "", awsconn.Classify("ssoadmin.CreateApplication", name, err)
	}
	return aws.ToString(out.ApplicationArn), nil
}

// FindApplicationByName resolves an application ARN by its deterministic
// name. No match returns ("", nil).
func (c *ControlPlane) FindApplicationByName(ctx context.Context, instanceARN, name string) (string, error) {
	paginator := ssoadmin.NewListApplicationsPaginator(c.ssoadmin, &ssoadmin.ListApplicationsInput{
		InstanceArn: aws.String(instanceARN),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", awsconn.Classify("ssoadmin.ListApplications", name, err)
		}
		for _, app := range page.Applications {
			if aws.ToString(app.Name) == name {
				return aws.ToString(app.ApplicationArn), nil
			}
		}
	}

	return "", nil
}

// DeleteApplication removes an SSO application by ARN.
func (c *ControlPlane) DeleteApplication(ctx context.Context, applicationARN string) error {
	_, err := c.ssoadmin.DeleteApplication(ctx, &ssoadmin.DeleteApplicationInput{
		ApplicationArn: aws.String(applicationARN),
	})
	if err != nil {
		return awsconn.Classify("ssoadmin.DeleteApplication", applicationARN, err)
	}
	return nil
}

// AssignRoleMembership grants a directory group a workspace role in a
// namespace.
func (c *ControlPlane) AssignRoleMembership(ctx context.Context, namespace, groupName string, role domain.WorkspaceRole) error {
	_, err := c.quicksight.CreateRoleMembership(ctx, &quicksight.CreateRoleMembershipInput{
		AwsAccountId: aws.String(c.accountID),
		Namespace:    aws.String(namespace),
		MemberName:   aws.String(groupName),
		Role:         qstypes.Role(role),
	})
	if err != nil {
		return awsconn.Classify("quicksight.CreateRoleMembership", groupName, err)
	}
	return nil
}

// ListWorkspaceUsers returns the workspace users of a namespace with their
// effective roles.
func (c *ControlPlane) ListWorkspaceUsers(ctx context.Context, namespace string) ([]domain.WorkspaceUser, error) {
	var users []domain.WorkspaceUser
	var nextToken *string
	for {
		out, err := c.quicksight.ListUsers(ctx, &quicksight.ListUsersInput{
			AwsAccountId: aws.String(c.accountID),
			Namespace:    aws.String(namespace),
			NextToken:    nextToken,
		})
		if err != nil {
			return nil, awsconn.Classify("quicksight.ListUsers", namespace, err)
		}
		for _, u := range out.UserList {
			users = append(users, domain.WorkspaceUser{
				Username: aws.ToString(u.UserName),
				Email:    aws.ToString(u.Email),
				Role:     domain.WorkspaceRole(u.Role),
				Active:   u.Active,
			})
		}
		nextToken = out.NextToken
		if nextToken == nil {
			return users, nil
		}
	}
}

// ListWorkspaceGroups returns the workspace groups of a namespace.
func (c *ControlPlane) ListWorkspaceGroups(ctx context.Context, namespace string) ([]domain.WorkspaceGroup, error) {
	var groups []domain.WorkspaceGroup
	var nextToken *string
	for {
		out, err := c.quicksight.ListGroups(ctx, &quicksight.ListGroupsInput{
			AwsAccountId: aws.String(c.accountID),
			Namespace:    aws.String(namespace),
			NextToken:    nextToken,
		})
		if err != nil {
			return nil, awsconn.Classify("quicksight.ListGroups", namespace, err)
		}
		for _, g := range out.GroupList {
			groups = append(groups, domain.WorkspaceGroup{
				Name:        aws.ToString(g.GroupName),
				Description: aws.ToString(g.Description),
			})
		}
		nextToken = out.NextToken
		if nextToken == nil {
			return groups, nil
		}
	}
}
