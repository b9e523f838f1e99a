package task

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hamrotask/middleware"
	"hamrotask/model"
	"hamrotask/realtime"
	"hamrotask/services"
)

func TimerController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub) {
	router.POST("/task/:task_id/timer/start", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		StartTimer(c, db, hub)
	})
	router.POST("/task/:task_id/timer/stop", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		StopTimer(c, db, hub)
	})
	router.GET("/task/:task_id/timers", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		ListTimers(c, db)
	})
	router.GET("/user/timer", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		CurrentTimer(c, db)
	})
}

// StartTimer opens a time entry on the task. A user runs at most one
// timer; starting elsewhere stops the previous entry first.
func StartTimer(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
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

	now := time.Now()
	var entry model.TimeEntry

	err = db.Transaction(func(tx *gorm.DB) error {
		var running model.TimeEntry
		err := tx.Where("user_id = ? AND stopped_at IS NULL", userID).First(&running).Error
		switch {
		case err == nil:
			if running.TaskID == taskID {
				return errTimerAlreadyRunning
			}
			seconds := int64(now.Sub(running.StartedAt).Seconds())
			if err := tx.Model(&running).Updates(map[string]interface{}{
				"stopped_at": now,
				"seconds":    seconds,
			}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// No running timer, nothing to stop.
		default:
			return err
		}

		entry = model.TimeEntry{
			EntryID:   uuid.New().String(),
			TaskID:    taskID,
			UserID:    userID,
			StartedAt: now,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		if errors.Is(err, errTimerAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "Timer already running on this task"})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to start timer"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "timer.started",
		Scope:   realtime.ScopeProject,
		ScopeID: task.ProjectID,
		ActorID: userID,
		Payload: gin.H{"taskId": taskID, "entryId": entry.EntryID},
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Timer started",
		"entryId":   entry.EntryID,
		"startedAt": entry.StartedAt,
	})
}

// StopTimer closes the caller's running entry on this task.
func StopTimer(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	taskID := c.Param("task_id")

	task, err := services.GetTask(db, taskID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Task not found"})
		return
	}

	var running model.TimeEntry
	err = db.Where("task_id = ? AND user_id = ? AND stopped_at IS NULL", taskID, userID).First(&running).Error
	if err != nil {
		c.JSON(404, gin.H{"error": "No running timer on this task"})
		return
	}

	now := time.Now()
	seconds := int64(now.Sub(running.StartedAt).Seconds())
	err = db.Model(&running).Updates(map[string]interface{}{
		"stopped_at": now,
		"seconds":    seconds,
	}).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to stop timer"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "timer.stopped",
		Scope:   realtime.ScopeProject,
		ScopeID: task.ProjectID,
		ActorID: userID,
		Payload: gin.H{"taskId": taskID, "entryId": running.EntryID, "seconds": seconds},
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Timer stopped",
		"entryId": running.EntryID,
		"seconds": seconds,
	})
}

func ListTimers(c *gin.Context, db *gorm.DB) {
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

	var entries []model.TimeEntry
	if err := db.Where("task_id = ?", taskID).Order("started_at DESC").Find(&entries).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to list time entries"})
		return
	}

	var total int64
	for _, e := range entries {
		total += e.Seconds
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":      entries,
		"totalSeconds": total,
	})
}

// CurrentTimer reports the caller's running entry, if any.
func CurrentTimer(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	var running model.TimeEntry
	err := db.Where("user_id = ? AND stopped_at IS NULL", userID).First(&running).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"running": nil})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to look up timer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"running": running,
		"elapsed": int64(time.Since(running.StartedAt).Seconds()),
	})
}

var errTimerAlreadyRunning = errors.New("timer already running on this task")
