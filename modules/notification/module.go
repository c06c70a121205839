package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/task-marketplace/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// NotificationModule turns task events into notifications for the client
// and tasker involved.
type NotificationModule struct {
	store *Store
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.ServiceProviderModule = (*NotificationModule)(nil)

// NewModule creates a new NotificationModule.
func NewModule() *NotificationModule {
	return &NotificationModule{
		store: NewStore(DefaultCapacity),
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

// RegisterEventConsumers subscribes to the task events.
func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCancelledV1, m.handleTaskCancelled, m); err != nil {
		return fmt.Errorf("failed to register TaskCancelled consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: TaskCreated, TaskUpdated, TaskCancelled")
	return nil
}

// RegisterServices registers the list-notifications service.
func (m *NotificationModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"list-notifications",
		json.Unmarshal,
		json.Marshal,
		m.handleListNotifications,
	); err != nil {
		return fmt.Errorf("failed to register list-notifications service: %w", err)
	}
	log.Printf("[notification] Registered services: list-notifications")
	return nil
}

func (m *NotificationModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task created: %s - %s", event.TaskID, event.Title)
	m.notify(event.ClientID, event.TaskID, "task_created", event.CreatedAt,
		fmt.Sprintf("Your task '%s' is live at GHS %.2f (platform fee GHS %.2f)", event.Title, event.PriceGHS, event.PlatformFeeGHS))
	return nil
}

func (m *NotificationModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task updated: %s by %s (%s)", event.TaskID, event.UpdatedBy, strings.Join(event.Fields, ", "))

	if event.ToStatus == "ASSIGNED" && event.TaskerID != nil {
		m.notify(*event.TaskerID, event.TaskID, "task_assigned", event.UpdatedAt,
			fmt.Sprintf("You have been assigned task %s", event.TaskID))
		m.notify(event.ClientID, event.TaskID, "task_assigned", event.UpdatedAt,
			fmt.Sprintf("Task %s has been assigned to a tasker", event.TaskID))
		return nil
	}

	notificationType := "task_updated"
	message := fmt.Sprintf("Task %s was updated: %s", event.TaskID, strings.Join(event.Fields, ", "))
	if event.ToStatus != "" {
		notificationType = "task_status_changed"
		message = fmt.Sprintf("Task %s moved from %s to %s", event.TaskID, event.FromStatus, event.ToStatus)
	}

	for _, recipient := range parties(event.ClientID, event.TaskerID) {
		if recipient == event.UpdatedBy {
			continue
		}
		m.notify(recipient, event.TaskID, notificationType, event.UpdatedAt, message)
	}
	return nil
}

func (m *NotificationModule) handleTaskCancelled(_ context.Context, event events.TaskCancelledEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task cancelled: %s", event.TaskID)
	m.notify(event.ClientID, event.TaskID, "task_cancelled", event.CancelledAt,
		fmt.Sprintf("Your task %s has been cancelled", event.TaskID))
	if event.TaskerID != nil {
		m.notify(*event.TaskerID, event.TaskID, "task_cancelled", event.CancelledAt,
			fmt.Sprintf("Task %s was cancelled by the client", event.TaskID))
	}
	return nil
}

func (m *NotificationModule) handleListNotifications(_ context.Context, req ListNotificationsRequest, _ *mono.Msg) (ListNotificationsResponse, error) {
	if req.RecipientID == "" {
		return ListNotificationsResponse{}, fmt.Errorf("recipient_id is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return ListNotificationsResponse{Notifications: m.store.ForRecipient(req.RecipientID, limit)}, nil
}

func (m *NotificationModule) notify(recipientID, taskID, notificationType string, at time.Time, message string) {
	if recipientID == "" {
		return
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	m.store.Add(Notification{
		ID:          uuid.New().String(),
		TaskID:      taskID,
		RecipientID: recipientID,
		Type:        notificationType,
		Message:     message,
		CreatedAt:   at,
	})
	log.Printf("[notification] -> %s: %s", recipientID, message)
}

func parties(clientID string, taskerID *string) []string {
	if taskerID == nil || *taskerID == "" {
		return []string{clientID}
	}
	return []string{clientID, *taskerID}
}

// Store returns the notification store.
func (m *NotificationModule) Store() *Store {
	return m.store
}

func (m *NotificationModule) Start(_ context.Context) error {
	log.Println("[notification] Module started - listening for task events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	log.Println("[notification] Module stopped")
	return nil
}
