package domain

import "fmt"

// OperationKind is one reconciliation operation type.
type OperationKind string

const (
	OpCreateGroup      OperationKind = "CreateGroup"
	OpCreateUser       OperationKind = "CreateUser"
	OpRemoveMembership OperationKind = "RemoveMembership"
	OpAddMembership    OperationKind = "AddMembership"
	OpDeleteUser       OperationKind = "DeleteUser"
	OpAssignRole       OperationKind = "AssignRole"
)

// Operation is one idempotent step of a reconciliation plan.
type Operation struct {
	Kind     OperationKind
	Username string
	Group    string
}

func (o Operation) String() string {
	switch o.Kind {
	case OpCreateGroup, OpAssignRole:
		return fmt.Sprintf("%s(%s)", o.Kind, o.Group)
	case OpCreateUser, OpDeleteUser:
		return fmt.Sprintf("%s(%s)", o.Kind, o.Username)
	default:
		return fmt.Sprintf("%s(%s, %s)", o.Kind, o.Username, o.Group)
	}
}

// MembershipChange is the per-user role-group move: every stale role-group
// membership is removed before the single desired membership is added, so a
// user is never left in two role groups at once.
type MembershipChange struct {
	Username     string
	RemoveGroups []string
	AddGroup     string
}

// Plan is the ordered operation set produced by the diff phase. Execution
// runs the phases strictly in struct order; operations within a phase are
// independent of each other.
type Plan struct {
	CreateGroups []RoleMapEntry
	CreateUsers  []UserSpec
	Moves        []MembershipChange
	DeleteUsers  []string
}

// IsEmpty reports whether the plan contains no operations.
func (p Plan) IsEmpty() bool {
	return len(p.CreateGroups) == 0 && len(p.CreateUsers) == 0 &&
		len(p.Moves) == 0 && len(p.DeleteUsers) == 0
}

// Operations flattens the plan into execution order, for reporting.
func (p Plan) Operations() []Operation {
	var ops []Operation
	for _, g := range p.CreateGroups {
		ops = append(ops, Operation{Kind: OpCreateGroup, Group: g.Group})
	}
	for _, u := range p.CreateUsers {
		ops = append(ops, Operation{Kind: OpCreateUser, Username: u.Username})
	}
	for _, m := range p.Moves {
		for _, g := range m.RemoveGroups {
			ops = append(ops, Operation{Kind: OpRemoveMembership, Username: m.Username, Group: g})
		}
		if m.AddGroup != "" {
			ops = append(ops, Operation{Kind: OpAddMembership, Username: m.Username, Group: m.AddGroup})
		}
	}
	for _, u := range p.DeleteUsers {
		ops = append(ops, Operation{Kind: OpDeleteUser, Username: u})
	}
	return ops
}

// OutcomeStatus is the per-item execution result.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "Succeeded"
	OutcomeSkipped   OutcomeStatus = "Skipped"
	OutcomeFailed    OutcomeStatus = "Failed"
)

// Outcome records what happened to one plan operation. One item failing
// never aborts the rest of the batch; callers decide whether partial failure
// is acceptable.
type Outcome struct {
	Operation Operation
	Status    OutcomeStatus
	Reason    string
}

// Outcomes is the full per-item result list of one execution run.
type Outcomes []Outcome

// Failed counts failed items.
func (o Outcomes) Failed() int {
	n := 0
	for _, item := range o {
		if item.Status == OutcomeFailed {
			n++
		}
	}
	return n
}

// Succeeded counts applied items.
func (o Outcomes) Succeeded() int {
	n := 0
	for _, item := range o {
		if item.Status == OutcomeSucceeded {
			n++
		}
	}
	return n
}

// Skipped counts items already in the desired state.
func (o Outcomes) Skipped() int {
	n := 0
	for _, item := range o {
		if item.Status == OutcomeSkipped {
			n++
		}
	}
	return n
}
