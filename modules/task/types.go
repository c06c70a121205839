package task

import (
	domain "github.com/example/task-marketplace/domain/task"
)

// CreateTaskRequest is the payload of the create-task service.
type CreateTaskRequest struct {
	Caller domain.Caller `json:"caller"`
	Draft  domain.Draft  `json:"draft"`
}

// CreateTaskResponse is the reply of the create-task service.
type CreateTaskResponse struct {
	TaskID string `json:"task_id"`
}

// GetTaskRequest is the payload of the get-task service.
type GetTaskRequest struct {
	TaskID string `json:"task_id"`
}

// GetTaskResponse is the reply of the get-task service.
type GetTaskResponse struct {
	Task *domain.Task `json:"task"`
}

// ListTasksRequest is the payload of the list-tasks service.
type ListTasksRequest struct {
	Filter domain.Filter `json:"filter"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// UpdateTaskRequest is the payload of the update-task service.
type UpdateTaskRequest struct {
	Caller domain.Caller `json:"caller"`
	TaskID string        `json:"task_id"`
	Patch  domain.Patch  `json:"patch"`
}

// UpdateTaskResponse is the reply of the update-task service.
type UpdateTaskResponse struct {
	Updated bool `json:"updated"`
}

// CancelTaskRequest is the payload of the cancel-task service.
type CancelTaskRequest struct {
	Caller domain.Caller `json:"caller"`
	TaskID string        `json:"task_id"`
}

// CancelTaskResponse is the reply of the cancel-task service.
type CancelTaskResponse struct {
	Cancelled bool `json:"cancelled"`
}

// TaskStatsRequest is the payload of the task-stats service.
type TaskStatsRequest struct {
	Caller domain.Caller `json:"caller"`
}
