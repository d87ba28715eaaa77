// Package identitycenter implements the directory client over AWS IAM
// Identity Center's identity store.
package identitycenter

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	"github.com/aws/aws-sdk-go-v2/service/identitystore/types"
	"github.com/quickops/quicksuite-admin/internal/domain"
	"github.com/quickops/quicksuite-admin/internal/repository/awsconn"
)

// Directory implements domain.DirectoryClient against the identity store.
// It carries no business logic; every method is one remote operation.
type Directory struct {
	client          *identitystore.Client
	identityStoreID string
}

// NewDirectory creates a directory client bound to one identity store.
func NewDirectory(awsCfg aws.Config, identityStoreID string) *Directory {
	return &Directory{
		client:          identitystore.NewFromConfig(awsCfg),
		identityStoreID: identityStoreID,
	}
}

// IdentityStoreID returns the bound identity store.
func (d *Directory) IdentityStoreID() string { return d.identityStoreID }

// CreateUser creates a user from a spec and returns it with the
// directory-assigned ID.
func (d *Directory) CreateUser(ctx context.Context, spec domain.UserSpec) (*domain.User, error) {
	out, err := d.client.CreateUser(ctx, &identitystore.CreateUserInput{
		IdentityStoreId: aws.String(d.identityStoreID),
		UserName:        aws.String(spec.Username),
		DisplayName:     aws.String(spec.DisplayName()),
		Name: &types.Name{
			GivenName:  aws.String(spec.GivenName),
			FamilyName: aws.String(spec.FamilyName),
		},
		Emails: []types.Email{
			{Value: aws.String(spec.Email), Type: aws.String("Work"), Primary: true},
		},
	})
	if err != nil {
		return nil, awsconn.Classify("identitystore.CreateUser", spec.Username, err)
	}

	return &domain.User{
		ID:          aws.ToString(out.UserId),
		Username:    spec.Username,
		Email:       spec.Email,
		GivenName:   spec.GivenName,
		FamilyName:  spec.FamilyName,
		DisplayName: spec.DisplayName(),
	}, nil
}

// FindUserByUsername looks a user up with a server-side attribute filter.
// No match returns (nil, nil).
func (d *Directory) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	paginator := identitystore.NewListUsersPaginator(d.client, &identitystore.ListUsersInput{
		IdentityStoreId: aws.String(d.identityStoreID),
		Filters: []types.Filter{
			{AttributePath: aws.String("UserName"), AttributeValue: aws.String(username)},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsconn.Classify("identitystore.ListUsers", username, err)
		}
		if len(page.Users) > 0 {
			return userFromAPI(page.Users[0]), nil
		}
	}

	return nil, nil
}

// GetUser fetches a user by directory-assigned ID.
func (d *Directory) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	out, err := d.client.DescribeUser(ctx, &identitystore.DescribeUserInput{
		IdentityStoreId: aws.String(d.identityStoreID),
		UserId:          aws.String(userID),
	})
	if err != nil {
		return nil, awsconn.Classify("identitystore.DescribeUser", userID, err)
	}

	user := &domain.User{
		ID:          aws.ToString(out.UserId),
		Username:    aws.ToString(out.UserName),
		DisplayName: aws.ToString(out.DisplayName),
	}
	if out.Name != nil {
		user.GivenName = aws.ToString(out.Name.GivenName)
		user.FamilyName = aws.ToString(out.Name.FamilyName)
	}
	if len(out.Emails) > 0 {
		user.Email = aws.ToString(out.Emails[0].Value)
	}
	return user, nil
}

// ListUsers returns every user in the identity store.
func (d *Directory) ListUsers(ctx context.Context) ([]domain.User, error) {
	paginator := identitystore.NewListUsersPaginator(d.client, &identitystore.ListUsersInput{
		IdentityStoreId: aws.String(d.identityStoreID),
	})

	var users []domain.User
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsconn.Classify("identitystore.ListUsers", "", err)
		}
		for _, u := range page.Users {
			users = append(users, *userFromAPI(u))
		}
	}
	return users, nil
}

// DeleteUser removes a user by ID.
func (d *Directory) DeleteUser(ctx context.Context, userID string) error {
	_, err := d.client.DeleteUser(ctx, &identitystore.DeleteUserInput{
		IdentityStoreId: aws.String(d.identityStoreID),
		UserId:          aws.String(userID),
	})
	if err != nil {
		return awsconn.Classify("identitystore.DeleteUser", userID, err)
	}
	return nil
}

// CreateGroup creates a group and returns it with the directory-assigned ID.
func (d *Directory) CreateGroup(ctx context.Context, name, description string) (*domain.Group, error) {
	out, err := d.client.CreateGroup(ctx, &identitystore.CreateGroupInput{
		IdentityStoreId: aws.String(d.identityStoreID),
		DisplayName:     aws.String(name),
		Description:     aws.String(description),
	})
	if err != nil {
		return nil, awsconn.Classify("identitystore.CreateGroup", name, err)
	}

	return &domain.Group{
		ID:          aws.ToString(out.GroupId),
		Name:        name,
		Description: description,
	}, nil
}

// FindGroupByName looks a group up with a server-side attribute filter.
// No match returns (nil, nil).
func (d *Directory) FindGroupByName(ctx context.Context, name string) (*domain.Group, error) {
	paginator := identitystore.NewListGroupsPaginator(d.client, &identitystore.ListGroupsInput{
		IdentityStoreId: aws.String(d.identityStoreID),
		Filters: []types.Filter{
			{AttributePath: aws.String("DisplayName"), AttributeValue: aws.String(name)},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsconn.Classify("identitystore.ListGroups", name, err)
		}
		if len(page.Groups) > 0 {
			return groupFromAPI(page.Groups[0]), nil
		}
	}

	return nil, nil
}

// ListGroups returns every group in the identity store.
func (d *Directory) ListGroups(ctx context.Context) ([]domain.Group, error) {
	paginator := identitystore.NewListGroupsPaginator(d.client, &identitystore.ListGroupsInput{
		IdentityStoreId: aws.String(d.identityStoreID),
	})

	var groups []domain.Group
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsconn.Classify("identitystore.ListGroups", "", err)
		}
		for _, g := range page.Groups {
			groups = append(groups, *groupFromAPI(g))
		}
	}
	return groups, nil
}

// DeleteGroup removes a group by ID.
func (d *Directory) DeleteGroup(ctx context.Context, groupID string) error {
	_, err := d.client.DeleteGroup(ctx, &identitystore.DeleteGroupInput{
		IdentityStoreId: aws.String(d.identityStoreID),
		GroupId:         aws.String(groupID),
	})
	if err != nil {
		return awsconn.Classify("identitystore.DeleteGroup", groupID, err)
	}
	return nil
}

// AddMembership adds a user to a group.
func (d *Directory) AddMembership(ctx context.Context, groupID, userID string) (*domain.Membership, error) {
	out, err := d.client.CreateGroupMembership(ctx, &identitystore.CreateGroupMembershipInput{
		IdentityStoreId: aws.String(d.identityStoreID),
		GroupId:         aws.String(groupID),
		MemberId:        &types.MemberIdMemberUserId{Value: userID},
	})
	if err != nil {
		return nil, awsconn.Classify("identitystore.CreateGroupMembership", fmt.Sprintf("%s->%s", userID, groupID), err)
	}

	return &domain.Membership{
		ID:      aws.ToString(out.MembershipId),
		UserID:  userID,
		GroupID: groupID,
	}, nil
}

// RemoveMembership deletes a membership edge by its directory-assigned ID.
func (d *Directory) RemoveMembership(ctx context.Context, membershipID string) error {
	_, err := d.client.DeleteGroupMembership(ctx, &identitystore.DeleteGroupMembershipInput{
		IdentityStoreId: aws.String(d.identityStoreID),
		MembershipId:    aws.String(membershipID),
	})
	if err != nil {
		return awsconn.Classify("identitystore.DeleteGroupMembership", membershipID, err)
	}
	return nil
}

// ListMembershipsForUser returns all group memberships held by a user.
func (d *Directory) ListMembershipsForUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	paginator := identitystore.NewListGroupMembershipsForMemberPaginator(d.client,
		&identitystore.ListGroupMembershipsForMemberInput{
			IdentityStoreId: aws.String(d.identityStoreID),
			MemberId:        &types.MemberIdMemberUserId{Value: userID},
		})

	var memberships []domain.Membership
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsconn.Classify("identitystore.ListGroupMembershipsForMember", userID, err)
		}
		for _, m := range page.GroupMemberships {
			memberships = append(memberships, domain.Membership{
				ID:      aws.ToString(m.MembershipId),
				UserID:  userID,
				GroupID: aws.ToString(m.GroupId),
			})
		}
	}
	return memberships, nil
}

func userFromAPI(u types.User) *domain.User {
	user := &domain.User{
		ID:          aws.ToString(u.UserId),
		Username:    aws.ToString(u.UserName),
		DisplayName: aws.ToString(u.DisplayName),
	}
	if u.Name != nil {
		user.GivenName = aws.ToString(u.Name.GivenName)
		user.FamilyName = aws.ToString(u.Name.FamilyName)
	}
	if len(u.Emails) > 0 {
		user.Email = aws.ToString(u.Emails[0].Value)
	}
	return user
}

func groupFromAPI(g types.Group) *domain.Group {
	return &domain.Group{
		ID:          aws.ToString(g.GroupId),
		Name:        aws.ToString(g.DisplayName),
		Description: aws.ToString(g.Description),
	}
}
