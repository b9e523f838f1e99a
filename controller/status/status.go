package status

import (
	"net/http"
	"regexp"
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

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func StatusController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub) {
	router.GET("/project/:project_id/statuses", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		ListStatuses(c, db)
	})
	router.POST("/project/:project_id/statuses", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		CreateStatus(c, db, hub)
	})
	router.PUT("/project/:project_id/statuses/reorder", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		ReorderStatuses(c, db, hub)
	})

	routes := router.Group("/status", middleware.AccessTokenMiddleware())
	{
		routes.PUT("/:status_id", func(c *gin.Context) {
			UpdateStatus(c, db, hub)
		})
		routes.DELETE("/:status_id", func(c *gin.Context) {
			DeleteStatus(c, db, hub)
		})
	}
}

func ListStatuses(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)
	projectID := c.Param("project_id")

	_, role, err := services.ProjectMemberRole(db, projectID, userID)
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
		c.JSON(500, gin.H{"error": "Failed to list statuses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// CreateStatus appends a new lane at the end of the board.
func CreateStatus(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	projectID := c.Param("project_id")

	_, role, err := services.ProjectMemberRole(db, projectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var req dto.CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid input"})
		return
	}
	color := req.Color
	if color == "" {
		color = "#94a3b8"
	}
	if !hexColor.MatchString(color) {
		c.JSON(400, gin.H{"error": "Color must be a hex value like #3b82f6"})
		return
	}

	var count int64
	if err := db.Model(&model.Status{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to count statuses"})
		return
	}

	now := time.Now()
	status := model.Status{
		StatusID:  uuid.New().String(),
		ProjectID: projectID,
		Name:      req.Name,
		Color:     color,
		Position:  int(count),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&status).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to create status"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "status.created",
		Scope:   realtime.ScopeProject,
		ScopeID: projectID,
		ActorID: userID,
		Payload: status,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Status created successfully",
		"statusId": status.StatusID,
	})
}

func UpdateStatus(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	statusID := c.Param("status_id")

	var status model.Status
	if err := db.Where("status_id = ?", statusID).First(&status).Error; err != nil {
		c.JSON(404, gin.H{"error": "Status not found"})
		return
	}

	_, role, err := services.ProjectMemberRole(db, status.ProjectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid input"})
		return
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Color != "" {
		if !hexColor.MatchString(req.Color) {
			c.JSON(400, gin.H{"error": "Color must be a hex value like #3b82f6"})
			return
		}
		updates["color"] = req.Color
	}

	if err := db.Model(&status).Updates(updates).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to update status"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "status.updated",
		Scope:   realtime.ScopeProject,
		ScopeID: status.ProjectID,
		ActorID: userID,
		Payload: gin.H{"statusId": statusID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully"})
}

// DeleteStatus removes an empty lane and closes the position gap.
func DeleteStatus(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	statusID := c.Param("status_id")

	var status model.Status
	if err := db.Where("status_id = ?", statusID).First(&status).Error; err != nil {
		c.JSON(404, gin.H{"error": "Status not found"})
		return
	}

	_, role, err := services.ProjectMemberRole(db, status.ProjectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var taskCount int64
	if err := db.Model(&model.Task{}).Where("status_id = ?", statusID).Count(&taskCount).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to count tasks"})
		return
	}
	if taskCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Status still has tasks. Move them first."})
		return
	}

	var statusCount int64
	if err := db.Model(&model.Status{}).Where("project_id = ?", status.ProjectID).Count(&statusCount).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to count statuses"})
		return
	}
	if statusCount <= 1 {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot delete the last status"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status_id = ?", statusID).Delete(&model.Status{}).Error; err != nil {
			return err
		}
		// Close the gap so positions stay dense.
		return tx.Model(&model.Status{}).
			Where("project_id = ? AND position > ?", status.ProjectID, status.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete status"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "status.deleted",
		Scope:   realtime.ScopeProject,
		ScopeID: status.ProjectID,
		ActorID: userID,
		Payload: gin.H{"statusId": statusID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Status deleted successfully"})
}

// ReorderStatuses applies a full permutation of the project's lanes.
func ReorderStatuses(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	projectID := c.Param("project_id")

	_, role, err := services.ProjectMemberRole(db, projectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var req dto.ReorderStatusesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	var existing []string
	if err := db.Model(&model.Status{}).Where("project_id = ?", projectID).
		Pluck("status_id", &existing).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to load statuses"})
		return
	}

	if len(req.StatusIDs) != len(existing) {
		c.JSON(400, gin.H{"error": "Reorder must mention every status exactly once"})
		return
	}
	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	seen := make(map[string]bool, len(req.StatusIDs))
	for _, id := range req.StatusIDs {
		if !known[id] || seen[id] {
			c.JSON(400, gin.H{"error": "Reorder must mention every status exactly once"})
			return
		}
		seen[id] = true
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for i, id := range req.StatusIDs {
			if err := tx.Model(&model.Status{}).Where("status_id = ?", id).
				UpdateColumn("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to reorder statuses"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "status.reordered",
		Scope:   realtime.ScopeProject,
		ScopeID: projectID,
		ActorID: userID,
		Payload: gin.H{"statusIds": req.StatusIDs},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Statuses reordered successfully"})
}
