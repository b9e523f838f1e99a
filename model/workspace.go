package model

import "time"

// Member roles within a workspace.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Workspace struct {
	WorkspaceID string    `gorm:"column:workspace_id;primaryKey;type:text" json:"workspaceId"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `gorm:"type:text;not null" json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Workspace) TableName() string { return "workspaces" }

type WorkspaceMember struct {
	WorkspaceID string    `gorm:"column:workspace_id;primaryKey;type:text" json:"workspaceId"`
	UserID      string    `gorm:"column:user_id;primaryKey;type:text" json:"userId"`
	Role        string    `gorm:"not null;default:member" json:"role"` // owner, admin, member
	JoinedAt    time.Time `json:"joinedAt"`
}

func (WorkspaceMember) TableName() string { return "workspace_members" }
