package workspace

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hamrotask/dto"
	"hamrotask/model"
	"hamrotask/realtime"
	"hamrotask/services"
)

// ListMembers returns every member with their profile and live
// presence from the hub.
func ListMembers(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
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

	type row struct {
		UserID   string `json:"userId"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Profile  string `json:"profile"`
		Role     string `json:"role"`
		JoinedAt string `json:"joinedAt"`
	}
	var rows []row
	err = db.Table("workspace_members").
		Select("workspace_members.user_id, users.name, users.email, users.profile, workspace_members.role, workspace_members.joined_at").
		Joins("JOIN users ON users.user_id = workspace_members.user_id").
		Where("workspace_members.workspace_id = ?", workspaceID).
		Order("workspace_members.joined_at ASC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list members"})
		return
	}

	members := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		members = append(members, gin.H{
			"userId":   r.UserID,
			"name":     r.Name,
			"email":    r.Email,
			"profile":  r.Profile,
			"role":     r.Role,
			"joinedAt": r.JoinedAt,
			"online":   hub.IsOnline(r.UserID),
		})
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// GetPresence returns the member IDs with a live connection.
func GetPresence(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
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

	var memberIDs []string
	if err := db.Model(&model.WorkspaceMember{}).Where("workspace_id = ?", workspaceID).
		Pluck("user_id", &memberIDs).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to list members"})
		return
	}

	online := make([]string, 0)
	for _, id := range memberIDs {
		if hub.IsOnline(id) {
			online = append(online, id)
		}
	}

	c.JSON(http.StatusOK, gin.H{"online": online})
}

// UpdateMemberRole promotes or demotes a member. The owner role never
// changes hands here, and only the owner may demote an admin.
func UpdateMemberRole(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	workspaceID := c.Param("workspace_id")

	callerRole, err := services.MemberRole(db, workspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if !services.IsWorkspaceStaff(callerRole) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Requires owner or admin role"})
		return
	}

	var req dto.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	targetRole, err := services.MemberRole(db, workspaceID, req.UserID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if targetRole == "" {
		c.JSON(404, gin.H{"error": "Member not found"})
		return
	}
	if targetRole == model.RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot change the owner role"})
		return
	}
	if targetRole == model.RoleAdmin && callerRole != model.RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can change an admin role"})
		return
	}

	err = db.Model(&model.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, req.UserID).
		Update("role", req.Role).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to update role"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "member.role_changed",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: workspaceID,
		ActorID: userID,
		Payload: gin.H{"userId": req.UserID, "role": req.Role},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Member role updated successfully"})
}

// RemoveMember kicks a member out. Admins cannot remove the owner or
// other admins.
func RemoveMember(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	workspaceID := c.Param("workspace_id")

	callerRole, err := services.MemberRole(db, workspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if !services.IsWorkspaceStaff(callerRole) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Requires owner or admin role"})
		return
	}

	var req dto.RemoveMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == userID {
		c.JSON(400, gin.H{"error": "Use leave to remove yourself"})
		return
	}

	targetRole, err := services.MemberRole(db, workspaceID, req.UserID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if targetRole == "" {
		c.JSON(404, gin.H{"error": "Member not found"})
		return
	}
	if targetRole == model.RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot remove the owner"})
		return
	}
	if targetRole == model.RoleAdmin && callerRole != model.RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can remove an admin"})
		return
	}

	if err := removeMembership(db, workspaceID, req.UserID); err != nil {
		c.JSON(500, gin.H{"error": "Failed to remove member"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "member.removed",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: workspaceID,
		ActorID: userID,
		Payload: gin.H{"userId": req.UserID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

// LeaveWorkspace lets a member walk away. The owner cannot leave, a
// workspace without an owner would be orphaned.
func LeaveWorkspace(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
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
	if role == model.RoleOwner {
		c.JSON(400, gin.H{"error": "The owner cannot leave. Delete the workspace or transfer ownership first."})
		return
	}

	if err := removeMembership(db, workspaceID, userID); err != nil {
		c.JSON(500, gin.H{"error": "Failed to leave workspace"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "member.left",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: workspaceID,
		ActorID: userID,
		Payload: gin.H{"userId": userID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Left workspace successfully"})
}

// removeMembership drops the workspace membership along with task
// assignments and channel memberships inside that workspace.
func removeMembership(db *gorm.DB, workspaceID string, userID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var projectIDs []string
		if err := tx.Model(&model.Project{}).Where("workspace_id = ?", workspaceID).
			Pluck("project_id", &projectIDs).Error; err != nil {
			return err
		}
		if len(projectIDs) > 0 {
			var taskIDs []string
			if err := tx.Model(&model.Task{}).Where("project_id IN ?", projectIDs).
				Pluck("task_id", &taskIDs).Error; err != nil {
				return err
			}
			if len(taskIDs) > 0 {
				if err := tx.Where("task_id IN ? AND user_id = ?", taskIDs, userID).
					Delete(&model.TaskAssignee{}).Error; err != nil {
					return err
				}
			}
		}

		var channelIDs []string
		if err := tx.Model(&model.Channel{}).Where("workspace_id = ?", workspaceID).
			Pluck("channel_id", &channelIDs).Error; err != nil {
			return err
		}
		if len(channelIDs) > 0 {
			if err := tx.Where("channel_id IN ? AND user_id = ?", channelIDs, userID).
				Delete(&model.ChannelMember{}).Error; err != nil {
				return err
			}
		}

		return tx.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
			Delete(&model.WorkspaceMember{}).Error
	})
}
