package task

import "github.com/example/task-marketplace/domain/identity"

// Caller is the verified identity acting on a task.
type Caller struct {
	SubjectID string        `json:"subject_id"`
	Role      identity.Role `json:"role"`
}

// CanCreate reports whether role may post tasks.
func CanCreate(role identity.Role) bool {
	switch role {
	case identity.RoleClient:
		return true
	case identity.RoleTasker, identity.RoleAdmin:
		return false
	default:
		return false
	}
}

// CanRead reports whether caller may read t. Browsing is public.
func CanRead(_ Caller, _ *Task) bool {
	return true
}

// CanUpdate reports whether caller may modify t: the owning client or the
// assigned tasker.
func CanUpdate(caller Caller, t *Task) bool {
	switch caller.Role {
	case identity.RoleClient:
		return caller.SubjectID != "" && caller.SubjectID == t.ClientID
	case identity.RoleTasker:
		return t.TaskerID != nil && caller.SubjectID != "" && caller.SubjectID == *t.TaskerID
	case identity.RoleAdmin:
		return false
	default:
		return false
	}
}

// CanCancel reports whether caller may cancel t. Only the owning client can.
func CanCancel(caller Caller, t *Task) bool {
	switch caller.Role {
	case identity.RoleClient:
		return caller.SubjectID != "" && caller.SubjectID == t.ClientID
	case identity.RoleTasker, identity.RoleAdmin:
		return false
	default:
		return false
	}
}

// CanAssign reports whether caller may set or change the tasker of t.
func CanAssign(caller Caller, t *Task) bool {
	switch caller.Role {
	case identity.RoleClient:
		return caller.SubjectID != "" && caller.SubjectID == t.ClientID
	case identity.RoleTasker, identity.RoleAdmin:
		return false
	default:
		return false
	}
}

// CanViewStats reports whether role may read platform-wide task statistics.
func CanViewStats(role identity.Role) bool {
	return role == identity.RoleAdmin
}
