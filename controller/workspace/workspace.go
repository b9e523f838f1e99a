package workspace

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

func WorkspaceController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub, plans []model.Plan) {
	router.POST("/workspace", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		CreateWorkspace(c, db)
	})
	router.GET("/workspaces", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		ListWorkspaces(c, db)
	})
	router.POST("/workspaces/join", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		JoinWorkspace(c, db, hub, plans)
	})

	routes := router.Group("/workspace", middleware.AccessTokenMiddleware())
	{
		routes.GET("/:workspace_id", func(c *gin.Context) {
			GetWorkspace(c, db, plans)
		})
		routes.PUT("/:workspace_id", func(c *gin.Context) {
			UpdateWorkspace(c, db, hub)
		})
		routes.DELETE("/:workspace_id", func(c *gin.Context) {
			DeleteWorkspace(c, db, hub)
		})
		routes.POST("/:workspace_id/invite", func(c *gin.Context) {
			InviteMember(c, db, hub, plans)
		})
		routes.GET("/:workspace_id/members", func(c *gin.Context) {
			ListMembers(c, db, hub)
		})
		routes.GET("/:workspace_id/presence", func(c *gin.Context) {
			GetPresence(c, db, hub)
		})
		routes.PUT("/:workspace_id/member/role", func(c *gin.Context) {
			UpdateMemberRole(c, db, hub)
		})
		routes.DELETE("/:workspace_id/member", func(c *gin.Context) {
			RemoveMember(c, db, hub)
		})
		routes.POST("/:workspace_id/leave", func(c *gin.Context) {
			LeaveWorkspace(c, db, hub)
		})
	}
}

// CreateWorkspace creates the workspace with its creator as owner, a
// default General channel and a free subscription.
func CreateWorkspace(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	var req dto.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	workspaceID := uuid.New().String()
	now := time.Now()

	err := db.Transaction(func(tx *gorm.DB) error {
		ws := model.Workspace{
			WorkspaceID: workspaceID,
			Name:        req.Name,
			Description: req.Description,
			CreatedBy:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&ws).Error; err != nil {
			return err
		}

		owner := model.WorkspaceMember{
			WorkspaceID: workspaceID,
			UserID:      userID,
			Role:        model.RoleOwner,
			JoinedAt:    now,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}

		general := model.Channel{
			ChannelID:   uuid.New().String(),
			WorkspaceID: workspaceID,
			Name:        "General",
			IsPrivate:   false,
			CreatedBy:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&general).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.ChannelMember{
			ChannelID: general.ChannelID,
			UserID:    userID,
			JoinedAt:  now,
		}).Error; err != nil {
			return err
		}

		sub := model.Subscription{
			SubscriptionID: uuid.New().String(),
			WorkspaceID:    workspaceID,
			PlanCode:       "free",
			Status:         model.SubscriptionActive,
			StartedAt:      now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create workspace"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Workspace created successfully",
		"workspaceId": workspaceID,
	})
}

func ListWorkspaces(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	type row struct {
		model.Workspace
		Role string `json:"role"`
	}
	var rows []row
	err := db.Table("workspaces").
		Select("workspaces.*, workspace_members.role").
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.workspace_id").
		Where("workspace_members.user_id = ?", userID).
		Order("workspaces.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list workspaces"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": rows})
}

func GetWorkspace(c *gin.Context, db *gorm.DB, plans []model.Plan) {
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

	ws, err := services.GetWorkspace(db, workspaceID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Workspace not found"})
		return
	}

	var memberCount int64
	db.Model(&model.WorkspaceMember{}).Where("workspace_id = ?", workspaceID).Count(&memberCount)

	var projectCount int64
	db.Model(&model.Project{}).Where("workspace_id = ? AND archived = ?", workspaceID, false).Count(&projectCount)

	plan, err := services.WorkspacePlan(db, plans, workspaceID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to resolve plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspace":    ws,
		"role":         role,
		"memberCount":  memberCount,
		"projectCount": projectCount,
		"plan":         plan,
	})
}

func UpdateWorkspace(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
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

	var req dto.UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid input"})
		return
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}

	if err := db.Model(&model.Workspace{}).Where("workspace_id = ?", workspaceID).Updates(updates).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to update workspace"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "workspace.updated",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: workspaceID,
		ActorID: userID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Workspace updated successfully"})
}

// DeleteWorkspace removes the workspace and everything under it.
// Owner only.
func DeleteWorkspace(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	workspaceID := c.Param("workspace_id")

	role, err := services.MemberRole(db, workspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if role != model.RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can delete a workspace"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
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
				for _, m := range []interface{}{&model.TaskFieldValue{}, &model.TaskAssignee{}, &model.Attachment{}, &model.TimeEntry{}} {
					if err := tx.Where("task_id IN ?", taskIDs).Delete(m).Error; err != nil {
						return err
					}
				}
			}
			for _, step := range []struct {
				where string
				m     interface{}
			}{
				{"project_id IN ?", &model.Task{}},
				{"project_id IN ?", &model.Status{}},
				{"project_id IN ?", &model.FieldDefinition{}},
			} {
				if err := tx.Where(step.where, projectIDs).Delete(step.m).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("workspace_id = ?", workspaceID).Delete(&model.Project{}).Error; err != nil {
				return err
			}
		}

		var channelIDs []string
		if err := tx.Model(&model.Channel{}).Where("workspace_id = ?", workspaceID).
			Pluck("channel_id", &channelIDs).Error; err != nil {
			return err
		}
		if len(channelIDs) > 0 {
			if err := tx.Where("channel_id IN ?", channelIDs).Delete(&model.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("channel_id IN ?", channelIDs).Delete(&model.ChannelMember{}).Error; err != nil {
				return err
			}
			if err := tx.Where("workspace_id = ?", workspaceID).Delete(&model.Channel{}).Error; err != nil {
				return err
			}
		}

		for _, m := range []interface{}{&model.WorkspaceMember{}, &model.Subscription{}, &model.Payment{}} {
			if err := tx.Where("workspace_id = ?", workspaceID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Where("workspace_id = ?", workspaceID).Delete(&model.Workspace{}).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete workspace"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "workspace.deleted",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: workspaceID,
		ActorID: userID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Workspace deleted successfully"})
}
