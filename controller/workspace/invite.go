package workspace

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hamrotask/dto"
	"hamrotask/model"
	"hamrotask/realtime"
	"hamrotask/services"
)

// InviteMember issues a join link for the workspace and notifies the
// invitee when they already have an account. Joining always grants the
// member role; staff promote afterwards.
func InviteMember(c *gin.Context, db *gorm.DB, hub *realtime.Hub, plans []model.Plan) {
	userID := c.MustGet("userId").(string)
	workspaceID := c.Param("workspace_id")

	role, err := services.MemberRole(db, workspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if !services.IsWorkspaceStaff(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Requires owner or admin role"})
		return
	}

	var req dto.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	ws, err := services.GetWorkspace(db, workspaceID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Workspace not found"})
		return
	}

	plan, err := services.WorkspacePlan(db, plans, workspaceID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to resolve plan"})
		return
	}
	ok, err := services.CheckMemberLimit(db, plan, workspaceID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check member limit"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Member limit reached for the current plan"})
		return
	}

	expireAt := time.Now().Add(7 * 24 * time.Hour)
	params := url.Values{}
	params.Add("workspaceId", workspaceID)
	params.Add("expire", strconv.FormatInt(expireAt.Unix(), 10))
	inviteToken := base64.URLEncoding.EncodeToString([]byte(params.Encode()))

	invitee, err := services.GetUserByEmail(db, req.Email)
	if err != nil && !errors.Is(err, services.ErrUserNotFound) {
		c.JSON(500, gin.H{"error": "Failed to look up invitee"})
		return
	}

	inviter, err := services.GetUserByID(db, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to look up inviter"})
		return
	}

	if invitee != nil {
		var existing int64
		db.Model(&model.WorkspaceMember{}).
			Where("workspace_id = ? AND user_id = ?", workspaceID, invitee.UserID).
			Count(&existing)
		if existing > 0 {
			c.JSON(400, gin.H{"error": "User is already a member"})
			return
		}
		services.Notify(db, hub, invitee.UserID, model.NotificationWorkspaceInvite,
			"Workspace invitation",
			inviter.Name+" invited you to join "+ws.Name,
			"workspace", workspaceID)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Invitation created successfully",
		"inviteToken": inviteToken,
		"expiresAt":   expireAt.Unix(),
	})
}

// JoinWorkspace redeems an invite token.
func JoinWorkspace(c *gin.Context, db *gorm.DB, hub *realtime.Hub, plans []model.Plan) {
	userID := c.MustGet("userId").(string)

	var req dto.JoinWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	decoded, err := base64.URLEncoding.DecodeString(req.Token)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid invite token"})
		return
	}
	params, err := url.ParseQuery(string(decoded))
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid invite token"})
		return
	}

	workspaceID := params.Get("workspaceId")
	expireStr := params.Get("expire")
	if workspaceID == "" || expireStr == "" {
		c.JSON(400, gin.H{"error": "Invalid invite token"})
		return
	}
	expire, err := strconv.ParseInt(expireStr, 10, 64)
	if err != nil || time.Now().Unix() > expire {
		c.JSON(400, gin.H{"error": "Invite token has expired"})
		return
	}

	ws, err := services.GetWorkspace(db, workspaceID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Workspace not found"})
		return
	}

	existingRole, err := services.MemberRole(db, workspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if existingRole != "" {
		c.JSON(400, gin.H{"error": "Already a member of this workspace"})
		return
	}

	plan, err := services.WorkspacePlan(db, plans, workspaceID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to resolve plan"})
		return
	}
	ok, err := services.CheckMemberLimit(db, plan, workspaceID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check member limit"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Member limit reached for the current plan"})
		return
	}

	member := model.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        model.RoleMember,
		JoinedAt:    time.Now(),
	}
	if err := db.Create(&member).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to join workspace"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "member.joined",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: workspaceID,
		ActorID: userID,
		Payload: gin.H{"userId": userID},
	})

	c.JSON(http.StatusOK, gin.H{
		"message":     "Joined workspace successfully",
		"workspaceId": workspaceID,
		"workspace":   ws.Name,
	})
}
