package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hamrotask/logging"
	"hamrotask/model"
	"hamrotask/realtime"
)

// Notify stores a notification for the user and pushes it through the
// hub. Delivery failures are logged, never surfaced: the row is the
// durable copy.
func Notify(db *gorm.DB, hub realtime.Publisher, userID string, kind string, title string, body string, resourceType string, resourceID string) {
	notification := model.Notification{
		NotificationID: uuid.New().String(),
		UserID:         userID,
		Type:           kind,
		Title:          title,
		Body:           body,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		CreatedAt:      time.Now(),
	}
	if err := db.Create(&notification).Error; err != nil {
		logging.Logger.Error("store notification", "user_id", userID, "type", kind, "error", err)
		return
	}
	if hub != nil {
		hub.Publish(realtime.Event{
			Type:    "notification.created",
			Scope:   realtime.ScopeUser,
			ScopeID: userID,
			Payload: notification,
		})
	}
}

// NotifyMany fans one notification out to several users.
func NotifyMany(db *gorm.DB, hub realtime.Publisher, userIDs []string, kind string, title string, body string, resourceType string, resourceID string) {
	for _, id := range userIDs {
		Notify(db, hub, id, kind, title, body, resourceType, resourceID)
	}
}
