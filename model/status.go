package model

import "time"

// Status is an ordered lane within a project board. Tasks reference
// exactly one status and are positioned within it.
type Status struct {
	StatusID  string    `gorm:"column:status_id;primaryKey;type:text" json:"statusId"`
	ProjectID string    `gorm:"column:project_id;type:text;not null;index" json:"projectId"`
	Name      string    `gorm:"not null" json:"name"`
	Color     string    `json:"color"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Status) TableName() string { return "statuses" }
