package domain

import "testing"

func TestDefaultRoleMapping(t *testing.T) {
	roles := DefaultRoleMapping()

	tests := []struct {
		group string
		want  WorkspaceRole
	}{
		{GroupAdmin, RoleAdmin},
		{GroupEnterprise, RoleAuthor},
		{GroupProfessional, RoleReader},
	}

	for _, tt := range tests {
		got, ok := roles.RoleFor(tt.group)
		if !ok {
			t.Errorf("RoleFor(%q): expected mapping, got none", tt.group)
			continue
		}
		if got != tt.want {
			t.Errorf("RoleFor(%q) = %q, want %q", tt.group, got, tt.want)
		}
	}
}

func TestRoleMapping_UnmappedGroup(t *testing.T) {
	roles := DefaultRoleMapping()

	if _, ok := roles.RoleFor("ENGINEERING"); ok {
		t.Error("Expected no role for unmapped group")
	}
	if roles.IsRoleGroup("ENGINEERING") {
		t.Error("Expected ENGINEERING not to be a role group")
	}
}

func TestRoleMapping_EntriesPreserveOrder(t *testing.T) {
	roles := NewRoleMapping(
		RoleMapEntry{Group: "B", Role: RoleReader},
		RoleMapEntry{Group: "A", Role: RoleAdmin},
	)

	entries := roles.Entries()
	if len(entries) != 2 || entries[0].Group != "B" || entries[1].Group != "A" {
		t.Errorf("Entries() = %v, want declaration order preserved", entries)
	}
}

func TestRoleMapping_EntriesCopyIsIsolated(t *testing.T) {
	roles := DefaultRoleMapping()

	entries := roles.Entries()
	entries[0].Group = "TAMPERED"

	if roles.Entries()[0].Group == "TAMPERED" {
		t.Error("Mutating the returned slice must not change the mapping")
	}
}
