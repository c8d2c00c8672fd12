package domain

type Role string

const (
	RoleManager Role = "manager"
	RoleAgent   Role = "agent"
)

// Decide is the pure authorization function for state transitions. The edge
// must exist in the transition table; a role overlay is then applied:
//
//   - manager: may only cancel.
//   - agent: may only drive new->in_progress and in_progress->done, and only
//     on a task assigned to them.
//
// Any other role is rejected. Decide performs no I/O and consults no stored
// state beyond its arguments.
func Decide(current, target TaskState, role Role, assigneeID *string, actorID string) bool {
	if !current.ValidTransition(target) {
		return false
	}

	switch role {
	case RoleManager:
		return target == TaskStateCancelled
	case RoleAgent:
		if assigneeID == nil || *assigneeID != actorID {
			return false
		}
		return (current == TaskStateNew && target == TaskStateInProgress) ||
			(current == TaskStateInProgress && target == TaskStateDone)
	default:
		return false
	}
}

// CanAssign reports whether role may set the assignee of a task in the given
// state. Assignment is not a transition: it bumps the version without
// changing the state, and is a manager-only operation on non-terminal tasks.
func CanAssign(state TaskState, role Role) bool {
	return role == RoleManager && !state.Terminal()
}
