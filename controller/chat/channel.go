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

func ChannelController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub) {
	router.POST("/workspace/:workspace_id/channels", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		CreateChannel(c, db, hub)
	})
	router.GET("/workspace/:workspace_id/channels", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		ListChannels(c, db)
	})

	routes := router.Group("/channel", middleware.AccessTokenMiddleware())
	{
		routes.PUT("/:channel_id", func(c *gin.Context) {
			UpdateChannel(c, db, hub)
		})
		routes.DELETE("/:channel_id", func(c *gin.Context) {
			DeleteChannel(c, db, hub)
		})
		routes.POST("/:channel_id/members", func(c *gin.Context) {
			AddChannelMember(c, db, hub)
		})
		routes.DELETE("/:channel_id/members", func(c *gin.Context) {
			RemoveChannelMember(c, db, hub)
		})
		routes.GET("/:channel_id/messages", func(c *gin.Context) {
			ListMessages(c, db)
		})
		routes.POST("/:channel_id/messages", func(c *gin.Context) {
			SendMessage(c, db, hub)
		})
	}
}

// CreateChannel adds a channel to the workspace. Names are unique per
// workspace; private channels start with the creator plus the listed
// members.
func CreateChannel(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	workspaceID := c.Param("workspace_id")

	role, err := services.MemberRole(db, workspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var req dto.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	var dup int64
	db.Model(&model.Channel{}).Where("workspace_id = ? AND name = ?", workspaceID, req.Name).Count(&dup)
	if dup > 0 {
		c.JSON(400, gin.H{"error": "A channel with this name already exists"})
		return
	}

	channelID := uuid.New().String()
	now := time.Now()

	err = db.Transaction(func(tx *gorm.DB) error {
		channel := model.Channel{
			ChannelID:   channelID,
			WorkspaceID: workspaceID,
			Name:        req.Name,
			IsPrivate:   req.IsPrivate,
			CreatedBy:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&channel).Error; err != nil {
			return err
		}

		members := map[string]bool{userID: true}
		for _, id := range req.MemberIDs {
			members[id] = true
		}
		for id := range members {
			memberRole, err := services.MemberRole(tx, workspaceID, id)
			if err != nil {
				return err
			}
			if memberRole == "" {
				continue
			}
			if err := tx.Create(&model.ChannelMember{
				ChannelID: channelID,
				UserID:    id,
				JoinedAt:  now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to create channel"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "channel.created",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: workspaceID,
		ActorID: userID,
		Payload: gin.H{"channelId": channelID, "name": req.Name, "isPrivate": req.IsPrivate},
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Channel created successfully",
		"channelId": channelID,
	})
}

// ListChannels returns the workspace channels the caller can see:
// every public one plus the private ones they belong to.
func ListChannels(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)
	workspaceID := c.Param("workspace_id")

	role, err := services.MemberRole(db, workspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var channels []model.Channel
	err = db.Where("workspace_id = ? AND (is_private = ? OR channel_id IN (?))",
		workspaceID, false,
		db.Model(&model.ChannelMember{}).Select("channel_id").Where("user_id = ?", userID)).
		Order("created_at ASC").Find(&channels).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list channels"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func UpdateChannel(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	channelID := c.Param("channel_id")

	channel, err := services.GetChannel(db, channelID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Channel not found"})
		return
	}

	role, err := services.MemberRole(db, channel.WorkspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if channel.CreatedBy != userID && !services.IsWorkspaceStaff(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator or workspace staff can edit this channel"})
		return
	}

	var req dto.UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	var dup int64
	db.Model(&model.Channel{}).
		Where("workspace_id = ? AND name = ? AND channel_id <> ?", channel.WorkspaceID, req.Name, channelID).
		Count(&dup)
	if dup > 0 {
		c.JSON(400, gin.H{"error": "A channel with this name already exists"})
		return
	}

	err = db.Model(channel).Updates(map[string]interface{}{
		"name":       req.Name,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to update channel"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "channel.updated",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: channel.WorkspaceID,
		ActorID: userID,
		Payload: gin.H{"channelId": channelID, "name": req.Name},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Channel updated successfully"})
}

func DeleteChannel(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	channelID := c.Param("channel_id")

	channel, err := services.GetChannel(db, channelID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Channel not found"})
		return
	}

	role, err := services.MemberRole(db, channel.WorkspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if channel.CreatedBy != userID && !services.IsWorkspaceStaff(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator or workspace staff can delete this channel"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", channelID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("channel_id = ?", channelID).Delete(&model.ChannelMember{}).Error; err != nil {
			return err
		}
		return tx.Where("channel_id = ?", channelID).Delete(&model.Channel{}).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete channel"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "channel.deleted",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: channel.WorkspaceID,
		ActorID: userID,
		Payload: gin.H{"channelId": channelID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Channel deleted successfully"})
}

func AddChannelMember(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
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

	var req dto.ChannelMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	memberRole, err := services.MemberRole(db, channel.WorkspaceID, req.UserID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if memberRole == "" {
		c.JSON(400, gin.H{"error": "User is not a workspace member"})
		return
	}

	var existing int64
	db.Model(&model.ChannelMember{}).Where("channel_id = ? AND user_id = ?", channelID, req.UserID).Count(&existing)
	if existing > 0 {
		c.JSON(400, gin.H{"error": "User is already in this channel"})
		return
	}

	err = db.Create(&model.ChannelMember{
		ChannelID: channelID,
		UserID:    req.UserID,
		JoinedAt:  time.Now(),
	}).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to add member"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "channel.member_added",
		Scope:   realtime.ScopeChannel,
		ScopeID: channelID,
		ActorID: userID,
		Payload: gin.H{"userId": req.UserID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Member added to channel"})
}

func RemoveChannelMember(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	channelID := c.Param("channel_id")

	channel, err := services.GetChannel(db, channelID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Channel not found"})
		return
	}

	var req dto.ChannelMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	// Members may leave; removing someone else takes staff or creator.
	if req.UserID != userID {
		role, err := services.MemberRole(db, channel.WorkspaceID, userID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check membership"})
			return
		}
		if channel.CreatedBy != userID && !services.IsWorkspaceStaff(role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator or workspace staff can remove members"})
			return
		}
	}

	err = db.Where("channel_id = ? AND user_id = ?", channelID, req.UserID).
		Delete(&model.ChannelMember{}).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to remove member"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "channel.member_removed",
		Scope:   realtime.ScopeChannel,
		ScopeID: channelID,
		ActorID: userID,
		Payload: gin.H{"userId": req.UserID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Member removed from channel"})
}
