package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// NotificationPort lets other modules read a user's notifications.
type NotificationPort interface {
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]Notification, error)
}

type notificationAdapter struct {
	container mono.ServiceContainer
}

// NewNotificationAdapter creates a NotificationPort over the container.
func NewNotificationAdapter(container mono.ServiceContainer) NotificationPort {
	if container == nil {
		panic("notification adapter requires non-nil ServiceContainer")
	}
	return &notificationAdapter{container: container}
}

func (a *notificationAdapter) ListNotifications(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	req := ListNotificationsRequest{RecipientID: recipientID, Limit: limit}
	var resp ListNotificationsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-notifications",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-notifications service call failed: %w", err)
	}
	return resp.Notifications, nil
}
