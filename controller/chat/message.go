package chat

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hamrotask/dto"
	"hamrotask/logging"
	"hamrotask/middleware"
	"hamrotask/model"
	"hamrotask/realtime"
	"hamrotask/services"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

func MessageController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub) {
	routes := router.Group("/message", middleware.AccessTokenMiddleware())
	{
		routes.PUT("/:message_id", func(c *gin.Context) {
			EditMessage(c, db, hub)
		})
		routes.DELETE("/:message_id", func(c *gin.Context) {
			DeleteMessage(c, db, hub)
		})
	}
}

// parseMessageQuery reads the keyset cursor: before is a unix
// millisecond timestamp, limit caps the page size.
func parseMessageQuery(c *gin.Context) (*time.Time, int, error) {
	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, 0, fmt.Errorf("invalid limit")
		}
		if n > maxMessageLimit {
			n = maxMessageLimit
		}
		limit = n
	}

	if raw := c.Query("before"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid before timestamp")
		}
		t := time.UnixMilli(ms)
		return &t, limit, nil
	}
	return nil, limit, nil
}

// ListMessages pages a channel newest first. Deleted messages stay in
// the page with a blank body so threads keep their shape.
func ListMessages(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)
	channelID := c.Param("channel_id")

	channel, err := services.GetChannel(db, channelID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Channel not found"})
		return
	}

	canAccess, err := services.CanAccessChannel(db, channel, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check access"})
		return
	}
	if !canAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "No access to this channel"})
		return
	}

	before, limit, err := parseMessageQuery(c)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	query := db.Where("channel_id = ?", channelID)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var messages []model.Message
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage posts to a channel, echoes clientRef back, and fans the
// message out on the channel scope. Members named with @ get a mention
// notification.
func SendMessage(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	channelID := c.Param("channel_id")

	channel, err := services.GetChannel(db, channelID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Channel not found"})
		return
	}

	canAccess, err := services.CanAccessChannel(db, channel, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check access"})
		return
	}
	if !canAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "No access to this channel"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	message := model.Message{
		MessageID: uuid.New().String(),
		ChannelID: channelID,
		SenderID:  userID,
		Body:      req.Body,
		ClientRef: req.ClientRef,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&message).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to send message"})
		return
	}

	notifyMentions(db, hub, channel, userID, req.Body)

	hub.Publish(realtime.Event{
		Type:    "message.created",
		Scope:   realtime.ScopeChannel,
		ScopeID: channelID,
		ActorID: userID,
		Payload: message,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent",
		"data":    message,
	})
}

// notifyMentions scans the body for @Name against the workspace roster
// and notifies each mentioned member who can see the channel. Failures
// are logged and never fail the send.
func notifyMentions(db *gorm.DB, hub *realtime.Hub, channel *model.Channel, senderID, body string) {
	lowerBody := strings.ToLower(body)
	if !strings.Contains(lowerBody, "@") {
		return
	}

	var members []struct {
		UserID string
		Name   string
	}
	err := db.Table("workspace_members").
		Select("workspace_members.user_id, users.name").
		Joins("JOIN users ON users.user_id = workspace_members.user_id").
		Where("workspace_members.workspace_id = ?", channel.WorkspaceID).
		Scan(&members).Error
	if err != nil {
		logging.Logger.Error("Failed to load members for mention scan", "error", err)
		return
	}

	for _, member := range members {
		if member.UserID == senderID || member.Name == "" {
			continue
		}
		if !strings.Contains(lowerBody, "@"+strings.ToLower(member.Name)) {
			continue
		}
		canSee, err := services.CanAccessChannel(db, channel, member.UserID)
		if err != nil || !canSee {
			continue
		}
		services.Notify(db, hub, member.UserID, model.NotificationMention,
			"You were mentioned",
			fmt.Sprintf("You were mentioned in #%s", channel.Name),
			"channel", channel.ChannelID)
	}
}

// EditMessage updates the sender's own message and stamps editedAt.
func EditMessage(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	messageID := c.Param("message_id")

	var message model.Message
	if err := db.Where("message_id = ?", messageID).First(&message).Error; err != nil {
		c.JSON(404, gin.H{"error": "Message not found"})
		return
	}
	if message.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own messages"})
		return
	}
	if message.Deleted {
		c.JSON(400, gin.H{"error": "Message has been deleted"})
		return
	}

	var req dto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	err := db.Model(&message).Updates(map[string]interface{}{
		"body":      req.Body,
		"edited_at": now,
	}).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to edit message"})
		return
	}
	message.Body = req.Body
	message.EditedAt = &now

	hub.Publish(realtime.Event{
		Type:    "message.updated",
		Scope:   realtime.ScopeChannel,
		ScopeID: message.ChannelID,
		ActorID: userID,
		Payload: message,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Message updated", "data": message})
}

// DeleteMessage soft deletes: the row stays, the body is blanked. The
// sender or workspace staff may delete.
func DeleteMessage(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	messageID := c.Param("message_id")

	var message model.Message
	if err := db.Where("message_id = ?", messageID).First(&message).Error; err != nil {
		c.JSON(404, gin.H{"error": "Message not found"})
		return
	}

	if message.SenderID != userID {
		channel, err := services.GetChannel(db, message.ChannelID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to load channel"})
			return
		}
		role, err := services.MemberRole(db, channel.WorkspaceID, userID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check membership"})
			return
		}
		if !services.IsWorkspaceStaff(role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own messages"})
			return
		}
	}

	err := db.Model(&message).Updates(map[string]interface{}{
		"body":    "",
		"deleted": true,
	}).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete message"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "message.deleted",
		Scope:   realtime.ScopeChannel,
		ScopeID: message.ChannelID,
		ActorID: userID,
		Payload: gin.H{"messageId": messageID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}
