package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hamrotask/middleware"
	"hamrotask/model"
)

func NotificationController(router *gin.Engine, db *gorm.DB) {
	routes := router.Group("/notifications", middleware.AccessTokenMiddleware())
	{
		routes.GET("", func(c *gin.Context) {
			ListNotifications(c, db)
		})
		routes.PUT("/read-all", func(c *gin.Context) {
			MarkAllRead(c, db)
		})
		routes.PUT("/:notification_id/read", func(c *gin.Context) {
			MarkRead(c, db)
		})
		routes.DELETE("/:notification_id", func(c *gin.Context) {
			DeleteNotification(c, db)
		})
	}
}

// ListNotifications returns the caller's notifications newest first.
// ?unread=1 narrows to unread ones; unreadCount always counts the full
// unread set.
func ListNotifications(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	query := db.Where("user_id = ?", userID)
	if c.Query("unread") == "1" {
		query = query.Where("read = ?", false)
	}

	var notifications []model.Notification
	if err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to list notifications"})
		return
	}

	var unreadCount int64
	db.Model(&model.Notification{}).Where("user_id = ? AND read = ?", userID, false).Count(&unreadCount)

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unreadCount":   unreadCount,
	})
}

func MarkRead(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)
	notificationID := c.Param("notification_id")

	result := db.Model(&model.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		c.JSON(500, gin.H{"error": "Failed to update notification"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(404, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func MarkAllRead(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	err := db.Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

func DeleteNotification(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)
	notificationID := c.Param("notification_id")

	result := db.Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Delete(&model.Notification{})
	if result.Error != nil {
		c.JSON(500, gin.H{"error": "Failed to delete notification"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(404, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
