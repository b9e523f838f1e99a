package task

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hamrotask/logging"
	"hamrotask/middleware"
	"hamrotask/model"
	"hamrotask/realtime"
	"hamrotask/services"
)

func AttachmentController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub) {
	router.POST("/task/:task_id/attachments", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		UploadAttachment(c, db, hub)
	})
	router.GET("/task/:task_id/attachments", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		ListAttachments(c, db)
	})
	router.DELETE("/attachment/:attachment_id", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		DeleteAttachment(c, db, hub)
	})
}

// UploadAttachment stores the multipart file and links it to the task.
func UploadAttachment(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
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

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(400, gin.H{"error": "Missing file field"})
		return
	}

	record, err := services.SaveFile(db, userID, header)
	if err != nil {
		if errors.Is(err, services.ErrFileTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the 10 MiB limit"})
			return
		}
		logging.Logger.Error("save attachment", "task_id", taskID, "error", err)
		c.JSON(500, gin.H{"error": "Failed to store file"})
		return
	}

	attachment := model.Attachment{
		AttachmentID: uuid.New().String(),
		TaskID:       taskID,
		FileID:       record.FileID,
		UploadedBy:   userID,
		CreatedAt:    time.Now(),
	}
	if err := db.Create(&attachment).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to link attachment"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "task.attachment_added",
		Scope:   realtime.ScopeProject,
		ScopeID: task.ProjectID,
		ActorID: userID,
		Payload: gin.H{"taskId": taskID, "attachmentId": attachment.AttachmentID},
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Attachment uploaded successfully",
		"attachmentId": attachment.AttachmentID,
		"fileId":       record.FileID,
		"name":         record.Name,
		"size":         record.Size,
	})
}

func ListAttachments(c *gin.Context, db *gorm.DB) {
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

	type row struct {
		AttachmentID string    `json:"attachmentId"`
		FileID       string    `json:"fileId"`
		Name         string    `json:"name"`
		Size         int64     `json:"size"`
		ContentType  string    `json:"contentType"`
		UploadedBy   string    `json:"uploadedBy"`
		CreatedAt    time.Time `json:"createdAt"`
	}
	var rows []row
	err = db.Table("attachments").
		Select("attachments.attachment_id, attachments.file_id, files.name, files.size, files.content_type, attachments.uploaded_by, attachments.created_at").
		Joins("JOIN files ON files.file_id = attachments.file_id").
		Where("attachments.task_id = ?", taskID).
		Order("attachments.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list attachments"})
		return
	}
	if rows == nil {
		rows = []row{}
	}

	c.JSON(http.StatusOK, gin.H{"attachments": rows})
}

// DeleteAttachment unlinks the file from the task and removes the
// stored blob.
func DeleteAttachment(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	attachmentID := c.Param("attachment_id")

	var attachment model.Attachment
	if err := db.Where("attachment_id = ?", attachmentID).First(&attachment).Error; err != nil {
		c.JSON(404, gin.H{"error": "Attachment not found"})
		return
	}

	task, err := services.GetTask(db, attachment.TaskID)
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
	if attachment.UploadedBy != userID && !services.IsWorkspaceStaff(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the uploader or workspace staff can delete this"})
		return
	}

	if err := db.Where("attachment_id = ?", attachmentID).Delete(&model.Attachment{}).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete attachment"})
		return
	}

	if record, err := services.GetFile(db, attachment.FileID); err == nil {
		if err := services.DeleteFile(db, record); err != nil {
			logging.Logger.Warn("delete attachment blob", "file_id", attachment.FileID, "error", err)
		}
	}

	hub.Publish(realtime.Event{
		Type:    "task.attachment_removed",
		Scope:   realtime.ScopeProject,
		ScopeID: task.ProjectID,
		ActorID: userID,
		Payload: gin.H{"taskId": attachment.TaskID, "attachmentId": attachmentID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted successfully"})
}
