package task

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

func TaskController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub) {
	router.GET("/project/:project_id/tasks", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		ListTasks(c, db)
	})
	router.POST("/project/:project_id/tasks", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		CreateTask(c, db, hub)
	})

	routes := router.Group("/task", middleware.AccessTokenMiddleware())
	{
		routes.GET("/:task_id", func(c *gin.Context) {
			GetTask(c, db)
		})
		routes.PUT("/:task_id", func(c *gin.Context) {
			UpdateTask(c, db, hub)
		})
		routes.PUT("/:task_id/move", func(c *gin.Context) {
			MoveTask(c, db, hub)
		})
		routes.PUT("/:task_id/assign", func(c *gin.Context) {
			AssignTask(c, db, hub)
		})
		routes.DELETE("/:task_id", func(c *gin.Context) {
			DeleteTask(c, db, hub)
		})
	}
}

// ListTasks returns the project's tasks grouped by status lane,
// ordered by position. Filters: status_id, assignee_id, priority,
// due_before (RFC3339), search (title substring).
func ListTasks(c *gin.Context, db *gorm.DB) {
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

	query := db.Where("project_id = ?", projectID)
	if statusID := c.Query("status_id"); statusID != "" {
		query = query.Where("status_id = ?", statusID)
	}
	if priority := c.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	if dueBefore := c.Query("due_before"); dueBefore != "" {
		t, err := time.Parse(time.RFC3339, dueBefore)
		if err != nil {
			c.JSON(400, gin.H{"error": "due_before must be RFC3339"})
			return
		}
		query = query.Where("due_date IS NOT NULL AND due_date < ?", t)
	}
	if assigneeID := c.Query("assignee_id"); assigneeID != "" {
		query = query.Where("task_id IN (?)",
			db.Model(&model.TaskAssignee{}).Select("task_id").Where("user_id = ?", assigneeID))
	}

	var tasks []model.Task
	if err := query.Order("position ASC").Find(&tasks).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to list tasks"})
		return
	}

	// One query for all assignees instead of one per task.
	taskIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.TaskID)
	}
	assignees := map[string][]string{}
	if len(taskIDs) > 0 {
		var rows []model.TaskAssignee
		if err := db.Where("task_id IN ?", taskIDs).Find(&rows).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to load assignees"})
			return
		}
		for _, r := range rows {
			assignees[r.TaskID] = append(assignees[r.TaskID], r.UserID)
		}
	}

	var statuses []model.Status
	if err := db.Where("project_id = ?", projectID).Order("position ASC").Find(&statuses).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to load statuses"})
		return
	}

	byStatus := map[string][]gin.H{}
	for _, t := range tasks {
		ids := assignees[t.TaskID]
		if ids == nil {
			ids = []string{}
		}
		byStatus[t.StatusID] = append(byStatus[t.StatusID], gin.H{
			"taskId":      t.TaskID,
			"title":       t.Title,
			"description": t.Description,
			"priority":    t.Priority,
			"dueDate":     t.DueDate,
			"position":    t.Position,
			"assignees":   ids,
			"createdBy":   t.CreatedBy,
			"createdAt":   t.CreatedAt,
		})
	}

	groups := make([]gin.H, 0, len(statuses))
	for _, s := range statuses {
		lane := byStatus[s.StatusID]
		if lane == nil {
			lane = []gin.H{}
		}
		groups = append(groups, gin.H{
			"statusId": s.StatusID,
			"name":     s.Name,
			"color":    s.Color,
			"position": s.Position,
			"tasks":    lane,
		})
	}

	c.JSON(http.StatusOK, gin.H{"board": groups})
}

// CreateTask appends a task at the end of its lane. The status
// defaults to the project's first lane.
func CreateTask(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
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

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if len(req.Title) > 255 {
		c.JSON(400, gin.H{"error": "Title must be 255 characters or fewer"})
		return
	}

	statusID := req.StatusID
	if statusID == "" {
		var first model.Status
		if err := db.Where("project_id = ?", projectID).Order("position ASC").First(&first).Error; err != nil {
			c.JSON(500, gin.H{"error": "Project has no statuses"})
			return
		}
		statusID = first.StatusID
	} else {
		var count int64
		db.Model(&model.Status{}).Where("status_id = ? AND project_id = ?", statusID, projectID).Count(&count)
		if count == 0 {
			c.JSON(400, gin.H{"error": "Status does not belong to this project"})
			return
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	for _, assignee := range req.Assignees {
		memberRole, err := services.MemberRole(db, project.WorkspaceID, assignee)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check assignee"})
			return
		}
		if memberRole == "" {
			c.JSON(400, gin.H{"error": "Assignee is not a workspace member"})
			return
		}
	}

	taskID := uuid.New().String()
	now := time.Now()

	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Task{}).Where("status_id = ?", statusID).Count(&count).Error; err != nil {
			return err
		}

		task := model.Task{
			TaskID:      taskID,
			ProjectID:   projectID,
			StatusID:    statusID,
			Title:       req.Title,
			Description: req.Description,
			Priority:    priority,
			DueDate:     req.DueDate,
			Position:    int(count),
			CreatedBy:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&task).Error; err != nil {
			return err
		}

		for _, assignee := range req.Assignees {
			if err := tx.Create(&model.TaskAssignee{
				TaskID:     taskID,
				UserID:     assignee,
				AssignedAt: now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	for _, assignee := range req.Assignees {
		if assignee != userID {
			services.Notify(db, hub, assignee, model.NotificationTaskAssigned,
				"Task assigned", "You were assigned to "+req.Title, "task", taskID)
		}
	}

	hub.Publish(realtime.Event{
		Type:    "task.created",
		Scope:   realtime.ScopeProject,
		ScopeID: projectID,
		ActorID: userID,
		Payload: gin.H{"taskId": taskID, "statusId": statusID, "clientRef": req.ClientRef},
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Task created successfully",
		"taskId":    taskID,
		"statusId":  statusID,
		"clientRef": req.ClientRef,
	})
}

// GetTask returns the task with its assignees, custom field values,
// attachments and total tracked time.
func GetTask(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)
	taskID := c.Param("task_id")

	task, err := services.GetTask(db, taskID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Task not found"})
		return
	}

	_, role, err := services.ProjectMemberRole(db, task.ProjectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	type assigneeRow struct {
		UserID  string `json:"userId"`
		Name    string `json:"name"`
		Profile string `json:"profile"`
	}
	var assignees []assigneeRow
	db.Table("task_assignees").
		Select("task_assignees.user_id, users.name, users.profile").
		Joins("JOIN users ON users.user_id = task_assignees.user_id").
		Where("task_assignees.task_id = ?", taskID).
		Scan(&assignees)
	if assignees == nil {
		assignees = []assigneeRow{}
	}

	var values []model.TaskFieldValue
	db.Where("task_id = ?", taskID).Find(&values)

	var attachments []model.Attachment
	db.Where("task_id = ?", taskID).Order("created_at ASC").Find(&attachments)

	var totalSeconds int64
	db.Model(&model.TimeEntry{}).Where("task_id = ? AND stopped_at IS NOT NULL", taskID).
		Select("COALESCE(SUM(seconds), 0)").Scan(&totalSeconds)

	c.JSON(http.StatusOK, gin.H{
		"task":         task,
		"assignees":    assignees,
		"fieldValues":  values,
		"attachments":  attachments,
		"totalSeconds": totalSeconds,
	})
}

func UpdateTask(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	taskID := c.Param("task_id")

	task, err := services.GetTask(db, taskID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Task not found"})
		return
	}

	_, role, err := services.ProjectMemberRole(db, task.ProjectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid input"})
		return
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Title != "" {
		if len(req.Title) > 255 {
			c.JSON(400, gin.H{"error": "Title must be 255 characters or fewer"})
			return
		}
		updates["title"] = req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != "" {
		updates["priority"] = req.Priority
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	} else if req.ClearDue {
		updates["due_date"] = nil
	}

	if err := db.Model(&model.Task{}).Where("task_id = ?", taskID).Updates(updates).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to update task"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "task.updated",
		Scope:   realtime.ScopeProject,
		ScopeID: task.ProjectID,
		ActorID: userID,
		Payload: gin.H{"taskId": taskID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully"})
}

// MoveTask places the task in a target lane at a target position and
// renumbers both lanes so positions stay dense.
func MoveTask(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	taskID := c.Param("task_id")

	task, err := services.GetTask(db, taskID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Task not found"})
		return
	}

	_, role, err := services.ProjectMemberRole(db, task.ProjectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var req dto.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	var targetCount int64
	db.Model(&model.Status{}).Where("status_id = ? AND project_id = ?", req.StatusID, task.ProjectID).Count(&targetCount)
	if targetCount == 0 {
		c.JSON(400, gin.H{"error": "Status does not belong to this project"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Close the gap in the source lane.
		if err := tx.Model(&model.Task{}).
			Where("status_id = ? AND position > ?", task.StatusID, task.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error; err != nil {
			return err
		}

		var laneSize int64
		if err := tx.Model(&model.Task{}).
			Where("status_id = ? AND task_id <> ?", req.StatusID, taskID).
			Count(&laneSize).Error; err != nil {
			return err
		}
		position := req.Position
		if position < 0 {
			position = 0
		}
		if position > int(laneSize) {
			position = int(laneSize)
		}

		// Open a gap in the target lane.
		if err := tx.Model(&model.Task{}).
			Where("status_id = ? AND task_id <> ? AND position >= ?", req.StatusID, taskID, position).
			UpdateColumn("position", gorm.Expr("position + 1")).Error; err != nil {
			return err
		}

		return tx.Model(&model.Task{}).Where("task_id = ?", taskID).
			Updates(map[string]interface{}{
				"status_id":  req.StatusID,
				"position":   position,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to move task"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "task.moved",
		Scope:   realtime.ScopeProject,
		ScopeID: task.ProjectID,
		ActorID: userID,
		Payload: gin.H{"taskId": taskID, "statusId": req.StatusID, "position": req.Position},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Task moved successfully"})
}

// AssignTask replaces the assignee set. Fresh assignees get notified.
func AssignTask(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	taskID := c.Param("task_id")

	task, err := services.GetTask(db, taskID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Task not found"})
		return
	}

	project, role, err := services.ProjectMemberRole(db, task.ProjectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var req dto.AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid input"})
		return
	}

	for _, assignee := range req.Assignees {
		memberRole, err := services.MemberRole(db, project.WorkspaceID, assignee)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check assignee"})
			return
		}
		if memberRole == "" {
			c.JSON(400, gin.H{"error": "Assignee is not a workspace member"})
			return
		}
	}

	var current []string
	if err := db.Model(&model.TaskAssignee{}).Where("task_id = ?", taskID).
		Pluck("user_id", &current).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to load assignees"})
		return
	}
	existing := make(map[string]bool, len(current))
	for _, id := range current {
		existing[id] = true
	}

	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskAssignee{}).Error; err != nil {
			return err
		}
		for _, assignee := range req.Assignees {
			if err := tx.Create(&model.TaskAssignee{
				TaskID:     taskID,
				UserID:     assignee,
				AssignedAt: now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to update assignees"})
		return
	}

	for _, assignee := range req.Assignees {
		if !existing[assignee] && assignee != userID {
			services.Notify(db, hub, assignee, model.NotificationTaskAssigned,
				"Task assigned", "You were assigned to "+task.Title, "task", taskID)
		}
	}

	hub.Publish(realtime.Event{
		Type:    "task.assigned",
		Scope:   realtime.ScopeProject,
		ScopeID: task.ProjectID,
		ActorID: userID,
		Payload: gin.H{"taskId": taskID, "assignees": req.Assignees},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Assignees updated successfully"})
}

// DeleteTask removes the task with its satellite rows and closes the
// lane position gap.
func DeleteTask(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	taskID := c.Param("task_id")

	task, err := services.GetTask(db, taskID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Task not found"})
		return
	}

	_, role, err := services.ProjectMemberRole(db, task.ProjectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.TaskFieldValue{}, &model.TaskAssignee{}, &model.Attachment{}, &model.TimeEntry{}} {
			if err := tx.Where("task_id = ?", taskID).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Task{}).
			Where("status_id = ? AND position > ?", task.StatusID, task.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete task"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "task.deleted",
		Scope:   realtime.ScopeProject,
		ScopeID: task.ProjectID,
		ActorID: userID,
		Payload: gin.H{"taskId": taskID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
