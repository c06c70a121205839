package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a client posts a new task.
type TaskCreatedEvent struct {
	TaskID         string    `json:"task_id"`
	Title          string    `json:"title"`
	ClientID       string    `json:"client_id"`
	CategoryID     string    `json:"category_id"`
	PriceGHS       float64   `json:"price_ghs"`
	PlatformFeeGHS float64   `json:"platform_fee_ghs"`
	IsUrgent       bool      `json:"is_urgent"`
	CreatedAt      time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// TaskUpdatedEvent is emitted after a successful partial update.
// FromStatus and ToStatus are set only when the status changed.
type TaskUpdatedEvent struct {
	TaskID     string    `json:"task_id"`
	ClientID   string    `json:"client_id"`
	TaskerID   *string   `json:"tasker_id,omitempty"`
	UpdatedBy  string    `json:"updated_by"`
	Fields     []string  `json:"fields"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TaskUpdatedV1 is the typed event definition for task updates.
// Subject: events.task.v1.task-updated
var TaskUpdatedV1 = helper.EventDefinition[TaskUpdatedEvent](
	"task", "TaskUpdated", "v1",
)

// TaskCancelledEvent is emitted when the owning client cancels a task.
type TaskCancelledEvent struct {
	TaskID      string    `json:"task_id"`
	ClientID    string    `json:"client_id"`
	TaskerID    *string   `json:"tasker_id,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// TaskCancelledV1 is the typed event definition for task cancellation.
// Subject: events.task.v1.task-cancelled
var TaskCancelledV1 = helper.EventDefinition[TaskCancelledEvent](
	"task", "TaskCancelled", "v1",
)
