package domain

// WorkspaceRole is a workspace-level role granted through a role group.
type WorkspaceRole string

const (
	RoleAdmin  WorkspaceRole = "ADMIN"
	RoleAuthor WorkspaceRole = "AUTHOR"
	RoleReader WorkspaceRole = "READER"
)

// Pricing tier group names. Each maps to exactly one workspace role.
const (
	GroupAdmin        = "QUICK_SUITE_ADMIN"
	GroupEnterprise   = "QUICK_SUITE_ENTERPRISE"
	GroupProfessional = "QUICK_SUITE_PRO"
)

// RoleMapEntry binds one directory group name to one workspace role.
type RoleMapEntry struct {
	Group       string
	Role        WorkspaceRole
	Description string
}

// RoleMapping is the ordered, immutable group-to-role table. It is built
// once at process start and passed explicitly into the handler and the
// engine; there is no ambient global.
type RoleMapping struct {
	entries []RoleMapEntry
	byGroup map[string]WorkspaceRole
}

// NewRoleMapping builds a mapping from entries, preserving order.
func NewRoleMapping(entries ...RoleMapEntry) RoleMapping {
	byGroup := make(map[string]WorkspaceRole, len(entries))
	for _, e := range entries {
		byGroup[e.Group] = e.Role
	}
	return RoleMapping{entries: entries, byGroup: byGroup}
}

// DefaultRoleMapping returns the standard pricing tier table.
func DefaultRoleMapping() RoleMapping {
	return NewRoleMapping(
		RoleMapEntry{Group: GroupAdmin, Role: RoleAdmin, Description: "Quick Suite ADMIN tier users"},
		RoleMapEntry{Group: GroupEnterprise, Role: RoleAuthor, Description: "Quick Suite ENTERPRISE tier users"},
		RoleMapEntry{Group: GroupProfessional, Role: RoleReader, Description: "Quick Suite PROFESSIONAL tier users"},
	)
}

// RoleFor looks up the workspace role for a group name. A false result means
// the group is intentionally unmapped; callers must not treat it as an error.
func (m RoleMapping) RoleFor(group string) (WorkspaceRole, bool) {
	role, ok := m.byGroup[group]
	return role, ok
}

// IsRoleGroup reports whether name is one of the mapped role groups.
func (m RoleMapping) IsRoleGroup(name string) bool {
	_, ok := m.byGroup[name]
	return ok
}

// Entries returns the mapping in declaration order.
func (m RoleMapping) Entries() []RoleMapEntry {
	out := make([]RoleMapEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Groups returns the mapped group names in declaration order.
func (m RoleMapping) Groups() []string {
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Group)
	}
	return out
}

// Description returns the configured description for a role group, or the
// empty string for unmapped groups.
func (m RoleMapping) Description(group string) string {
	for _, e := range m.entries {
		if e.Group == group {
			return e.Description
		}
	}
	return ""
}
