package task

import (
	"testing"

	"github.com/example/task-marketplace/domain/identity"
)

func TestPolicy(t *testing.T) {
	tasker := "tasker-1"
	assigned := &Task{ID: "t1", ClientID: "client-1", TaskerID: &tasker}
	open := &Task{ID: "t2", ClientID: "client-1"}

	owner := Caller{SubjectID: "client-1", Role: identity.RoleClient}
	otherClient := Caller{SubjectID: "client-2", Role: identity.RoleClient}
	assignedTasker := Caller{SubjectID: "tasker-1", Role: identity.RoleTasker}
	otherTasker := Caller{SubjectID: "tasker-2", Role: identity.RoleTasker}
	admin := Caller{SubjectID: "admin-1", Role: identity.RoleAdmin}
	unknown := Caller{SubjectID: "client-1", Role: "GUEST"}
	// a tasker whose id happens to equal the client id still is not the owner
	taskerAsOwner := Caller{SubjectID: "client-1", Role: identity.RoleTasker}

	tests := []struct {
		name       string
		caller     Caller
		task       *Task
		wantUpdate bool
		wantCancel bool
		wantAssign bool
	}{
		{"owner on assigned task", owner, assigned, true, true, true},
		{"owner on open task", owner, open, true, true, true},
		{"non-owner client", otherClient, assigned, false, false, false},
		{"assigned tasker", assignedTasker, assigned, true, false, false},
		{"unassigned tasker", otherTasker, assigned, false, false, false},
		{"tasker on open task", assignedTasker, open, false, false, false},
		{"admin", admin, assigned, false, false, false},
		{"unknown role", unknown, assigned, false, false, false},
		{"tasker with client id", taskerAsOwner, open, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanUpdate(tt.caller, tt.task); got != tt.wantUpdate {
				t.Errorf("CanUpdate() = %v, want %v", got, tt.wantUpdate)
			}
			if got := CanCancel(tt.caller, tt.task); got != tt.wantCancel {
				t.Errorf("CanCancel() = %v, want %v", got, tt.wantCancel)
			}
			if got := CanAssign(tt.caller, tt.task); got != tt.wantAssign {
				t.Errorf("CanAssign() = %v, want %v", got, tt.wantAssign)
			}
			if !CanRead(tt.caller, tt.task) {
				t.Error("CanRead() = false, want true")
			}
		})
	}
}

func TestCanCreate(t *testing.T) {
	tests := []struct {
		role identity.Role
		want bool
	}{
		{identity.RoleClient, true},
		{identity.RoleTasker, false},
		{identity.RoleAdmin, false},
		{"", false},
	}

	for _, tt := range tests {
		if got := CanCreate(tt.role); got != tt.want {
			t.Errorf("CanCreate(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestCanViewStats(t *testing.T) {
	for role, want := range map[identity.Role]bool{
		identity.RoleAdmin:  true,
		identity.RoleClient: false,
		identity.RoleTasker: false,
		"":                  false,
	} {
		if got := CanViewStats(role); got != want {
			t.Errorf("CanViewStats(%q) = %v, want %v", role, got, want)
		}
	}
}
