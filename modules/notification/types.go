package notification

// ListNotificationsRequest asks for a user's recent notifications.
type ListNotificationsRequest struct {
	RecipientID string `json:"recipient_id"`
	Limit       int    `json:"limit"`
}

// ListNotificationsResponse carries notifications, newest first.
type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}
