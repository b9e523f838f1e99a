package model

import "time"

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	TaskID      string     `gorm:"column:task_id;primaryKey;type:text" json:"taskId"`
	ProjectID   string     `gorm:"column:project_id;type:text;not null;index" json:"projectId"`
	StatusID    string     `gorm:"column:status_id;type:text;not null;index" json:"statusId"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Priority    string     `gorm:"not null;default:medium" json:"priority"` // low, medium, high
	DueDate     *time.Time `json:"dueDate"`
	Position    int        `gorm:"not null" json:"position"`
	CreatedBy   string     `gorm:"type:text;not null" json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Task) TableName() string { return "tasks" }

type TaskAssignee struct {
	TaskID     string    `gorm:"column:task_id;primaryKey;type:text" json:"taskId"`
	UserID     string    `gorm:"column:user_id;primaryKey;type:text" json:"userId"`
	AssignedAt time.Time `json:"assignedAt"`
}

func (TaskAssignee) TableName() string { return "task_assignees" }

// Attachment links an uploaded file to a task.
type Attachment struct {
	AttachmentID string    `gorm:"column:attachment_id;primaryKey;type:text" json:"attachmentId"`
	TaskID       string    `gorm:"column:task_id;type:text;not null;index" json:"taskId"`
	FileID       string    `gorm:"column:file_id;type:text;not null" json:"fileId"`
	UploadedBy   string    `gorm:"type:text;not null" json:"uploadedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (Attachment) TableName() string { return "attachments" }
