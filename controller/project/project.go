package project

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

// seededStatuses are the lanes every new project starts with.
var seededStatuses = []struct {
	Name  string
	Color string
}{
	{"To Do", "#94a3b8"},
	{"In Progress", "#3b82f6"},
	{"Review", "#f59e0b"},
	{"Done", "#22c55e"},
}

func ProjectController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub, plans []model.Plan) {
	router.POST("/workspace/:workspace_id/project", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		CreateProject(c, db, hub, plans)
	})
	router.GET("/workspace/:workspace_id/projects", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		ListProjects(c, db)
	})

	routes := router.Group("/project", middleware.AccessTokenMiddleware())
	{
		routes.GET("/:project_id", func(c *gin.Context) {
			GetProject(c, db)
		})
		routes.PUT("/:project_id", func(c *gin.Context) {
			UpdateProject(c, db, hub)
		})
		routes.PUT("/:project_id/archive", func(c *gin.Context) {
			ToggleArchive(c, db, hub)
		})
		routes.DELETE("/:project_id", func(c *gin.Context) {
			DeleteProject(c, db, hub)
		})
	}
}

// CreateProject creates the project with its four starter lanes in one
// transaction.
func CreateProject(c *gin.Context, db *gorm.DB, hub *realtime.Hub, plans []model.Plan) {
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

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	plan, err := services.WorkspacePlan(db, plans, workspaceID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to resolve plan"})
		return
	}
	ok, err := services.CheckProjectLimit(db, plan, workspaceID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check project limit"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Project limit reached for the current plan"})
		return
	}

	projectID := uuid.New().String()
	now := time.Now()

	err = db.Transaction(func(tx *gorm.DB) error {
		project := model.Project{
			ProjectID:   projectID,
			WorkspaceID: workspaceID,
			Name:        req.Name,
			Description: req.Description,
			Color:       req.Color,
			CreatedBy:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		for i, s := range seededStatuses {
			status := model.Status{
				StatusID:  uuid.New().String(),
				ProjectID: projectID,
				Name:      s.Name,
				Color:     s.Color,
				Position:  i,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&status).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "project.created",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: workspaceID,
		ActorID: userID,
		Payload: gin.H{"projectId": projectID, "name": req.Name},
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Project created successfully",
		"projectId": projectID,
	})
}

func ListProjects(c *gin.Context, db *gorm.DB) {
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

	query := db.Where("workspace_id = ?", workspaceID)
	if c.Query("archived") != "1" {
		query = query.Where("archived = ?", false)
	}

	var projects []model.Project
	if err := query.Order("created_at ASC").Find(&projects).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to list projects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetProject returns the project with its ordered lanes and field
// definitions.
func GetProject(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)
	projectID := c.Param("project_id")

	project, role, err := services.ProjectMemberRole(db, projectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var statuses []model.Status
	if err := db.Where("project_id = ?", projectID).Order("position ASC").Find(&statuses).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to load statuses"})
		return
	}

	var fields []model.FieldDefinition
	if err := db.Where("project_id = ?", projectID).Order("position ASC").Find(&fields).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to load fields"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":  project,
		"statuses": statuses,
		"fields":   fields,
	})
}

func UpdateProject(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	projectID := c.Param("project_id")

	project, role, err := services.ProjectMemberRole(db, projectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid input"})
		return
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Color != "" {
		updates["color"] = req.Color
	}
	if req.Archived != nil {
		updates["archived"] = *req.Archived
	}

	if err := db.Model(&model.Project{}).Where("project_id = ?", projectID).Updates(updates).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to update project"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "project.updated",
		Scope:   realtime.ScopeProject,
		ScopeID: projectID,
		ActorID: userID,
	})
	hub.Publish(realtime.Event{
		Type:    "project.updated",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: project.WorkspaceID,
		ActorID: userID,
		Payload: gin.H{"projectId": projectID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Project updated successfully"})
}

func ToggleArchive(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	projectID := c.Param("project_id")

	project, role, err := services.ProjectMemberRole(db, projectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	archived := !project.Archived
	err = db.Model(&model.Project{}).Where("project_id = ?", projectID).
		Updates(map[string]interface{}{"archived": archived, "updated_at": time.Now()}).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to update project"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "project.archived",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: project.WorkspaceID,
		ActorID: userID,
		Payload: gin.H{"projectId": projectID, "archived": archived},
	})

	c.JSON(http.StatusOK, gin.H{
		"message":  "Project archive state updated",
		"archived": archived,
	})
}

// DeleteProject removes the project and everything inside it. Staff or
// the project creator only.
func DeleteProject(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	projectID := c.Param("project_id")

	project, role, err := services.ProjectMemberRole(db, projectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}
	if !services.IsWorkspaceStaff(role) && project.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Requires owner, admin or project creator"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []string
		if err := tx.Model(&model.Task{}).Where("project_id = ?", projectID).
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
		for _, m := range []interface{}{&model.Task{}, &model.Status{}, &model.FieldDefinition{}} {
			if err := tx.Where("project_id = ?", projectID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Where("project_id = ?", projectID).Delete(&model.Project{}).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete project"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "project.deleted",
		Scope:   realtime.ScopeWorkspace,
		ScopeID: project.WorkspaceID,
		ActorID: userID,
		Payload: gin.H{"projectId": projectID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}
