package domain

import "testing"

func TestPlan_Operations_FlattensInPhaseOrder(t *testing.T) {
	plan := Plan{
		CreateGroups: []RoleMapEntry{{Group: GroupAdmin, Role: RoleAdmin}},
		CreateUsers:  []UserSpec{{Username: "alice"}},
		Moves: []MembershipChange{{
			Username:     "bob",
			RemoveGroups: []string{GroupProfessional},
			AddGroup:     GroupAdmin,
		}},
		DeleteUsers: []string{"carol"},
	}

	ops := plan.Operations()

	want := []Operation{
		{Kind: OpCreateGroup, Group: GroupAdmin},
		{Kind: OpCreateUser, Username: "alice"},
		{Kind: OpRemoveMembership, Username: "bob", Group: GroupProfessional},
		{Kind: OpAddMembership, Username: "bob", Group: GroupAdmin},
		{Kind: OpDeleteUser, Username: "carol"},
	}
	if len(ops) != len(want) {
		t.Fatalf("Operations() returned %d ops, want %d", len(ops), len(want))
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %v, want %v", i, ops[i], want[i])
		}
	}
}

func TestPlan_IsEmpty(t *testing.T) {
	if !(Plan{}).IsEmpty() {
		t.Error("Expected zero plan to be empty")
	}
	if (Plan{DeleteUsers: []string{"x"}}).IsEmpty() {
		t.Error("Expected plan with deletes to be non-empty")
	}
}

func TestOutcomes_Counters(t *testing.T) {
	outcomes := Outcomes{
		{Status: OutcomeSucceeded},
		{Status: OutcomeSucceeded},
		{Status: OutcomeSkipped},
		{Status: OutcomeFailed},
	}

	if got := outcomes.Succeeded(); got != 2 {
		t.Errorf("Succeeded() = %d, want 2", got)
	}
	if got := outcomes.Skipped(); got != 1 {
		t.Errorf("Skipped() = %d, want 1", got)
	}
	if got := outcomes.Failed(); got != 1 {
		t.Errorf("Failed() = %d, want 1", got)
	}
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{Operation{Kind: OpCreateGroup, Group: GroupAdmin}, "CreateGroup(QUICK_SUITE_ADMIN)"},
		{Operation{Kind: OpCreateUser, Username: "alice"}, "CreateUser(alice)"},
		{Operation{Kind: OpAddMembership, Username: "alice", Group: GroupAdmin}, "AddMembership(alice, QUICK_SUITE_ADMIN)"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
