package domain

// DirectorySnapshot is the live directory state fetched at the start of a
// reconciliation run: all users, all role groups, and every role-group
// membership. It is discarded when the run ends.
type DirectorySnapshot struct {
	Users  []User
	Groups []Group

	// RoleMemberships maps user ID to that user's memberships in role
	// groups only. Legacy state may hold more than one entry per user.
	RoleMemberships map[string][]Membership
}

// UserByUsername resolves a snapshot user by external key.
func (s *DirectorySnapshot) UserByUsername(username string) *User {
	for i := range s.Users {
		if s.Users[i].Username == username {
			return &s.Users[i]
		}
	}
	return nil
}

// GroupByName resolves a snapshot group by external key.
func (s *DirectorySnapshot) GroupByName(name string) *Group {
	for i := range s.Groups {
		if s.Groups[i].Name == name {
			return &s.Groups[i]
		}
	}
	return nil
}

// GroupByID resolves a snapshot group by directory-assigned ID.
func (s *DirectorySnapshot) GroupByID(id string) *Group {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return &s.Groups[i]
		}
	}
	return nil
}

// RoleGroupNamesOf returns the role-group names a user currently belongs
// to, in membership order.
func (s *DirectorySnapshot) RoleGroupNamesOf(userID string) []string {
	var names []string
	for _, m := range s.RoleMemberships[userID] {
		if g := s.GroupByID(m.GroupID); g != nil {
			names = append(names, g.Name)
		}
	}
	return names
}
