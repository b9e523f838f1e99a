package field

import (
	"errors"
	"net/http"
	"strconv"
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

func FieldController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub) {
	router.GET("/project/:project_id/fields", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		ListFields(c, db)
	})
	router.POST("/project/:project_id/fields", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		CreateField(c, db, hub)
	})
	router.PUT("/task/:task_id/fields", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		SetTaskFieldValues(c, db, hub)
	})

	routes := router.Group("/field", middleware.AccessTokenMiddleware())
	{
		routes.PUT("/:field_id", func(c *gin.Context) {
			UpdateField(c, db, hub)
		})
		routes.DELETE("/:field_id", func(c *gin.Context) {
			DeleteField(c, db, hub)
		})
	}
}

func fieldResponse(f *model.FieldDefinition) gin.H {
	return gin.H{
		"fieldId":   f.FieldID,
		"projectId": f.ProjectID,
		"name":      f.Name,
		"fieldType": f.FieldType,
		"options":   f.OptionList(),
		"position":  f.Position,
	}
}

func ListFields(c *gin.Context, db *gorm.DB) {
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

	var fields []model.FieldDefinition
	if err := db.Where("project_id = ?", projectID).Order("position ASC").Find(&fields).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to list fields"})
		return
	}

	out := make([]gin.H, 0, len(fields))
	for i := range fields {
		out = append(out, fieldResponse(&fields[i]))
	}

	c.JSON(http.StatusOK, gin.H{"fields": out})
}

func CreateField(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
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

	var req dto.CreateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if req.FieldType == model.FieldTypeSelect && len(req.Options) == 0 {
		c.JSON(400, gin.H{"error": "Select fields need at least one option"})
		return
	}

	var count int64
	if err := db.Model(&model.FieldDefinition{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to count fields"})
		return
	}

	now := time.Now()
	field := model.FieldDefinition{
		FieldID:   uuid.New().String(),
		ProjectID: projectID,
		Name:      req.Name,
		FieldType: req.FieldType,
		Position:  int(count),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.FieldType == model.FieldTypeSelect {
		if err := field.SetOptions(req.Options); err != nil {
			c.JSON(500, gin.H{"error": "Failed to encode options"})
			return
		}
	}

	if err := db.Create(&field).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to create field"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "field.created",
		Scope:   realtime.ScopeProject,
		ScopeID: projectID,
		ActorID: userID,
		Payload: fieldResponse(&field),
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Field created successfully",
		"fieldId": field.FieldID,
	})
}

func UpdateField(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	fieldID := c.Param("field_id")

	var field model.FieldDefinition
	if err := db.Where("field_id = ?", fieldID).First(&field).Error; err != nil {
		c.JSON(404, gin.H{"error": "Field not found"})
		return
	}

	_, role, err := services.ProjectMemberRole(db, field.ProjectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	var req dto.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid input"})
		return
	}

	if req.Name != "" {
		field.Name = req.Name
	}
	if req.Options != nil {
		if field.FieldType != model.FieldTypeSelect {
			c.JSON(400, gin.H{"error": "Only select fields have options"})
			return
		}
		if len(req.Options) == 0 {
			c.JSON(400, gin.H{"error": "Select fields need at least one option"})
			return
		}
		if err := field.SetOptions(req.Options); err != nil {
			c.JSON(500, gin.H{"error": "Failed to encode options"})
			return
		}
	}
	field.UpdatedAt = time.Now()

	if err := db.Save(&field).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to update field"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "field.updated",
		Scope:   realtime.ScopeProject,
		ScopeID: field.ProjectID,
		ActorID: userID,
		Payload: fieldResponse(&field),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Field updated successfully"})
}

// DeleteField drops the definition together with every stored value.
func DeleteField(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
	userID := c.MustGet("userId").(string)
	fieldID := c.Param("field_id")

	var field model.FieldDefinition
	if err := db.Where("field_id = ?", fieldID).First(&field).Error; err != nil {
		c.JSON(404, gin.H{"error": "Field not found"})
		return
	}

	_, role, err := services.ProjectMemberRole(db, field.ProjectID, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("field_id = ?", fieldID).Delete(&model.TaskFieldValue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("field_id = ?", fieldID).Delete(&model.FieldDefinition{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.FieldDefinition{}).
			Where("project_id = ? AND position > ?", field.ProjectID, field.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete field"})
		return
	}

	hub.Publish(realtime.Event{
		Type:    "field.deleted",
		Scope:   realtime.ScopeProject,
		ScopeID: field.ProjectID,
		ActorID: userID,
		Payload: gin.H{"fieldId": fieldID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Field deleted successfully"})
}

// SetTaskFieldValues writes {fieldId: value} pairs on a task. Values
// are checked against the definition type; an empty value clears the
// stored one.
func SetTaskFieldValues(c *gin.Context, db *gorm.DB, hub *realtime.Hub) {
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

	var req dto.TaskFieldValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for fieldID, value := range req.Values {
			var field model.FieldDefinition
			if err := tx.Where("field_id = ? AND project_id = ?", fieldID, task.ProjectID).
				First(&field).Error; err != nil {
				return errFieldNotFound
			}
			if value == "" {
				if err := tx.Where("task_id = ? AND field_id = ?", taskID, fieldID).
					Delete(&model.TaskFieldValue{}).Error; err != nil {
					return err
				}
				continue
			}
			if err := validateFieldValue(&field, value); err != nil {
				return err
			}
			row := model.TaskFieldValue{
				TaskID:    taskID,
				FieldID:   fieldID,
				Value:     value,
				UpdatedAt: time.Now(),
			}
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errFieldNotFound):
			c.JSON(404, gin.H{"error": "Field does not belong to this project"})
		case errors.Is(err, errBadFieldValue):
			c.JSON(400, gin.H{"error": "Value does not match the field type"})
		default:
			c.JSON(500, gin.H{"error": "Failed to set field values"})
		}
		return
	}

	hub.Publish(realtime.Event{
		Type:    "task.fields_updated",
		Scope:   realtime.ScopeProject,
		ScopeID: task.ProjectID,
		ActorID: userID,
		Payload: gin.H{"taskId": taskID},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Field values updated successfully"})
}

var (
	errFieldNotFound = errors.New("field does not belong to project")
	errBadFieldValue = errors.New("value does not match field type")
)

func validateFieldValue(field *model.FieldDefinition, value string) error {
	switch field.FieldType {
	case model.FieldTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return errBadFieldValue
		}
	case model.FieldTypeDate:
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return errBadFieldValue
		}
	case model.FieldTypeSelect:
		for _, opt := range field.OptionList() {
			if opt == value {
				return nil
			}
		}
		return errBadFieldValue
	}
	return nil
}
