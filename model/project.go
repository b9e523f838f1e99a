package model

import "time"

type Project struct {
	ProjectID   string    `gorm:"column:project_id;primaryKey;type:text" json:"projectId"`
	WorkspaceID string    `gorm:"column:workspace_id;type:text;not null;index" json:"workspaceId"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Archived    bool      `gorm:"not null;default:false" json:"archived"`
	CreatedBy   string    `gorm:"type:text;not null" json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Project) TableName() string { return "projects" }
