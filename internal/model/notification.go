package model

import "time"

// Notification types shown in the admin dashboard.
const (
	NotificationImageUpload = "image_upload"
	NotificationSystem      = "system"
	NotificationAlert       = "alert"
)

// Notification is an admin dashboard entry created when something worth
// attention happens, typically an image upload.
type Notification struct {
	ID               string    `json:"id"`
	NotificationType string    `json:"notification_type"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	RelatedImageID   *string   `json:"related_image_id,omitempty"`
	UserID           string    `json:"user_id"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}
