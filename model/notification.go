package model

import "time"

// Notification types produced by the backend.
const (
	NotificationTaskAssigned    = "task_assigned"
	NotificationTaskDue         = "task_due"
	NotificationMention         = "mention"
	NotificationWorkspaceInvite = "workspace_invite"
	NotificationPayment         = "payment"
)

type Notification struct {
	NotificationID string    `gorm:"column:notification_id;primaryKey;type:text" json:"notificationId"`
	UserID         string    `gorm:"column:user_id;type:text;not null;index" json:"userId"`
	Type           string    `gorm:"not null" json:"type"`
	Title          string    `gorm:"not null" json:"title"`
	Body           string    `json:"body"`
	ResourceType   string    `json:"resourceType"` // task, workspace, channel, payment
	ResourceID     string    `gorm:"column:resource_id;type:text" json:"resourceId"`
	Read           bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }
