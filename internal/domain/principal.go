package domain

import (
	"fmt"
	"net/mail"
)

// Validation constants
const (
	MaxUsernameLength = 128
	MaxNameLength     = 100
)

// PrincipalKind distinguishes directory principals.
type PrincipalKind string

const (
	KindUser  PrincipalKind = "User"
	KindGroup PrincipalKind = "Group"
)

// User is a directory user. The directory owns ID; everything else is
// caller-supplied.
type User struct {
	ID          string
	Username    string
	Email       string
	GivenName   string
	FamilyName  string
	DisplayName string
}

// Group is a directory group.
type Group struct {
	ID          string
	Name        string
	Description string
}

// Membership is a user-to-group edge. The directory owns ID.
type Membership struct {
	ID      string
	UserID  string
	GroupID string
}

// UserSpec is one manifest entry: a desired user and, optionally, the single
// role group it should end up in.
type UserSpec struct {
	Username   string `json:"username" yaml:"username"`
	Email      string `json:"email" yaml:"email"`
	GivenName  string `json:"given_name" yaml:"given_name"`
	FamilyName string `json:"family_name" yaml:"family_name"`
	Group      string `json:"group,omitempty" yaml:"group,omitempty"`
}

// DisplayName is the directory display name derived from the entry's names.
func (u UserSpec) DisplayName() string {
	return u.GivenName + " " + u.FamilyName
}

// Validate checks the entry against the role mapping before any remote call.
func (u UserSpec) Validate(roles RoleMapping) error {
	if u.Username == "" || len(u.Username) > MaxUsernameLength {
		return fmt.Errorf("%w: username must be 1-%d characters", ErrInvalidInput, MaxUsernameLength)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidInput, u.Email)
	}
	if u.GivenName == "" || len(u.GivenName) > MaxNameLength {
		return fmt.Errorf("%w: given name must be 1-%d characters", ErrInvalidInput, MaxNameLength)
	}
	if u.FamilyName == "" || len(u.FamilyName) > MaxNameLength {
		return fmt.Errorf("%w: family name must be 1-%d characters", ErrInvalidInput, MaxNameLength)
	}
	if u.Group != "" {
		if _, ok := roles.RoleFor(u.Group); !ok {
			return fmt.Errorf("%w: group %q is not a role group (valid: %v)", ErrInvalidInput, u.Group, roles.Groups())
		}
	}
	return nil
}

// Manifest is the desired principal list consumed by the reconciliation
// engine. Sync is additive and corrective; omission never deletes.
type Manifest struct {
	Users []UserSpec `json:"users" yaml:"users"`
}

// Validate is the fail-fast, all-or-nothing validation pass that precedes
// the diff phase.
func (m Manifest) Validate(roles RoleMapping) error {
	if len(m.Users) == 0 {
		return fmt.Errorf("%w: manifest contains no users", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(m.Users))
	for i, u := range m.Users {
		if err := u.Validate(roles); err != nil {
			return fmt.Errorf("user %d (%s): %w", i, u.Username, err)
		}
		if _, dup := seen[u.Username]; dup {
			return fmt.Errorf("%w: duplicate username %q", ErrInvalidInput, u.Username)
		}
		seen[u.Username] = struct{}{}
	}
	return nil
}
