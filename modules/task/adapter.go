package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/example/task-marketplace/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort is the interface other modules use to drive the task lifecycle.
type TaskPort interface {
	CreateTask(ctx context.Context, caller domain.Caller, draft domain.Draft) (string, error)
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context, filter domain.Filter, page, limit int) (*ListResult, error)
	UpdateTask(ctx context.Context, caller domain.Caller, taskID string, patch domain.Patch) error
	CancelTask(ctx context.Context, caller domain.Caller, taskID string) error
	Stats(ctx context.Context, caller domain.Caller) (*domain.Stats, error)
}

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// CreateTask creates a new task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, caller domain.Caller, draft domain.Draft) (string, error) {
	req := CreateTaskRequest{Caller: caller, Draft: draft}
	var resp CreateTaskResponse
	if err := a.call(ctx, "create-task", &req, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

// GetTask retrieves a task by ID via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	req := GetTaskRequest{TaskID: taskID}
	var resp GetTaskResponse
	if err := a.call(ctx, "get-task", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, domain.ErrTaskNotFound
	}
	return resp.Task, nil
}

// ListTasks searches tasks via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, filter domain.Filter, page, limit int) (*ListResult, error) {
	req := ListTasksRequest{Filter: filter, Page: page, Limit: limit}
	var resp ListResult
	if err := a.call(ctx, "list-tasks", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTask applies a partial update via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, caller domain.Caller, taskID string, patch domain.Patch) error {
	req := UpdateTaskRequest{Caller: caller, TaskID: taskID, Patch: patch}
	var resp UpdateTaskResponse
	return a.call(ctx, "update-task", &req, &resp)
}

// CancelTask cancels a task via the cancel-task service.
func (a *taskAdapter) CancelTask(ctx context.Context, caller domain.Caller, taskID string) error {
	req := CancelTaskRequest{Caller: caller, TaskID: taskID}
	var resp CancelTaskResponse
	return a.call(ctx, "cancel-task", &req, &resp)
}

// Stats reads platform-wide task statistics via the task-stats service.
func (a *taskAdapter) Stats(ctx context.Context, caller domain.Caller) (*domain.Stats, error) {
	req := TaskStatsRequest{Caller: caller}
	var resp domain.Stats
	if err := a.call(ctx, "task-stats", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return decodeServiceError(service, err)
	}
	return nil
}

// remoteErrors are the failures callers branch on. Service errors cross the
// bus as text, so they are matched by message.
var remoteErrors = []error{
	domain.ErrTaskNotFound,
	domain.ErrForbidden,
	domain.ErrEmptyPatch,
	domain.ErrInvalidPagination,
	domain.ErrInvalidTransition,
	domain.ErrTaskTerminal,
	domain.ErrTaskConflict,
	domain.ErrStorage,
}

// decodeServiceError restores the domain error carried by a failed call so
// that errors.Is works on the caller's side.
func decodeServiceError(service string, err error) error {
	msg := err.Error()

	prefix := domain.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return domain.Invalid(msg[i+len(prefix):])
	}

	for _, target := range remoteErrors {
		if strings.Contains(msg, target.Error()) {
			return fmt.Errorf("%s service call failed: %w", service, target)
		}
	}
	return fmt.Errorf("%s service call failed: %w", service, err)
}
