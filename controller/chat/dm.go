package chat

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hamrotask/dto"
	"hamrotask/middleware"
	"hamrotask/model"
	"hamrotask/realtime"
	"hamrotask/services"
)

func DMController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub) {
	routes := router.Group("/dm", middleware.AccessTokenMiddleware())
	{
		routes.POST("", func(c *gin.Context) {
			OpenConversation(c, db)
		})
		routes.GET("", func(c *gin.Context) {
			ListConversations(c, db)
		})
		routes.GET("/:dm_id/messages", func(c *gin.Context) {
			ListDirectMessages(c, db)
		})
		routes.POST("/:dm_id/messages", func(c *gin.Context) {
			SendDirectMessage(c, db, hub)
		})
		routes.PUT("/:dm_id/messages/:message_id", func(c *gin.Context) {
			EditDirectMessage(c, db, hub)
		})
		routes.DELETE("/:dm_id/messages/:message_id", func(c *gin.Context) {
			DeleteDirectMessage(c, db, hub)
		})
	}
}

// OpenConversation returns the conversation with the given user,
// creating it on first contact. The pair is stored ordered so the same
// two users always land on the same row.
func OpenConversation(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	var req dto.OpenDMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == userID {
		c.JSON(400, gin.H{"error": "Cannot open a conversation with yourself"})
		return
	}

	if _, err := services.GetUserByID(db, req.UserID); err != nil {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}

	userA, userB := userID, req.UserID
	if userA > userB {
		userA, userB = userB, userA
	}

	var conversation model.DirectConversation
	err := db.Where("user_a = ? AND user_b = ?", userA, userB).First(&conversation).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"conversation": conversation})
		return
	}
	if err != gorm.ErrRecordNotFound {
		c.JSON(500, gin.H{"error": "Failed to open conversation"})
		return
	}

	conversation = model.DirectConversation{
		ConversationID: uuid.New().String(),
		UserA:          userA,
		UserB:          userB,
		CreatedAt:      time.Now(),
	}
	if err := db.Create(&conversation).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to open conversation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"conversation": conversation})
}

// ListConversations returns the caller's conversations, each with the
// other participant and the latest message.
func ListConversations(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	var conversations []model.DirectConversation
	err := db.Where("user_a = ? OR user_b = ?", userID, userID).
		Order("created_at DESC").Find(&conversations).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list conversations"})
		return
	}

	result := make([]gin.H, 0, len(conversations))
	for _, conversation := range conversations {
		otherID := conversation.UserA
		if otherID == userID {
			otherID = conversation.UserB
		}

		var other model.User
		if err := db.Where("user_id = ?", otherID).First(&other).Error; err != nil {
			continue
		}

		entry := gin.H{
			"conversationId": conversation.ConversationID,
			"user": gin.H{
				"userId":  other.UserID,
				"name":    other.Name,
				"profile": other.Profile,
			},
		}

		var last model.DirectMessage
		err := db.Where("conversation_id = ?", conversation.ConversationID).
			Order("created_at DESC").First(&last).Error
		if err == nil {
			entry["lastMessage"] = last
		}

		result = append(result, entry)
	}

	c.JSON(http.StatusOK, gin.H{"conversations": result})
}

func ListDirectMessages(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)
	conversationID := c.Param("dm_id")

	if _, err := services.GetConversation(db, conversationID, userID); err != nil {
		c.JSON(404, gin.H{"error": "Conversation not found"})
		return
	}

	before, limit, err := parseMessageQuery(c)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	query := db.Where("conversation_id = ?", conversationID)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var messages []model.DirectMessage
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func SendDirectMessage(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	conversationID := c.Param("dm_id")

	if _, err := services.GetConversation(db, conversationID, userID); err != nil {
		c.JSON(404, gin.H{"error": "Conversation not found"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	message := model.DirectMessage{
		MessageID:      uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       userID,
		Body:           req.Body,
		ClientRef:      req.ClientRef,
		CreatedAt:      time.Now(),
	}
	if err := db.Create(&message).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to send message"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "message.created",
		Scope:   realtime.ScopeDM,
		ScopeID: conversationID,
		ActorID: userID,
		Payload: message,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent",
		"data":    message,
	})
}

func EditDirectMessage(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	conversationID := c.Param("dm_id")
	messageID := c.Param("message_id")

	if _, err := services.GetConversation(db, conversationID, userID); err != nil {
		c.JSON(404, gin.H{"error": "Conversation not found"})
		return
	}

	var message model.DirectMessage
	err := db.Where("message_id = ? AND conversation_id = ?", messageID, conversationID).
		First(&message).Error
	if err != nil {
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
	err = db.Model(&message).Updates(map[string]interface{}{
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
		Scope:   realtime.ScopeDM,
		ScopeID: conversationID,
		ActorID: userID,
		Payload: message,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Message updated", "data": message})
}

func DeleteDirectMessage(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	conversationID := c.Param("dm_id")
	messageID := c.Param("message_id")

	if _, err := services.GetConversation(db, conversationID, userID); err != nil {
		c.JSON(404, gin.H{"error": "Conversation not found"})
		return
	}

	var message model.DirectMessage
	err := db.Where("message_id = ? AND conversation_id = ?", messageID, conversationID).
		First(&message).Error
	if err != nil {
		c.JSON(404, gin.H{"error": "Message not found"})
		return
	}
	if message.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own messages"})
		return
	}

	err = db.Model(&message).Updates(map[string]interface{}{
		"body":    "",
		"deleted": true,
	}).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete message"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "message.deleted",
		Scope:   realtime.ScopeDM,
		ScopeID: conversationID,
		ActorID: userID,
		Payload: gin.H{"messageId": messageID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}
