package services

import (
	"errors"

	"gorm.io/gorm"

	"hamrotask/model"
)

// MemberRole returns the caller's role in the workspace, or "" when the
// caller is not a member.
func MemberRole(db *gorm.DB, workspaceID string, userID string) (string, error) {
	var member model.WorkspaceMember
	err := db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return member.Role, nil
}

// IsWorkspaceStaff reports whether the role can manage the workspace.
func IsWorkspaceStaff(role string) bool {
	return role == model.RoleOwner || role == model.RoleAdmin
}

func GetWorkspace(db *gorm.DB, workspaceID string) (*model.Workspace, error) {
	var ws model.Workspace
	if err := db.Where("workspace_id = ?", workspaceID).First(&ws).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

func GetProject(db *gorm.DB, projectID string) (*model.Project, error) {
	var project model.Project
	if err := db.Where("project_id = ?", projectID).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func GetTask(db *gorm.DB, taskID string) (*model.Task, error) {
	var task model.Task
	if err := db.Where("task_id = ?", taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func GetChannel(db *gorm.DB, channelID string) (*model.Channel, error) {
	var channel model.Channel
	if err := db.Where("channel_id = ?", channelID).First(&channel).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

// ProjectMemberRole resolves the caller's workspace role through the
// project's parent workspace.
func ProjectMemberRole(db *gorm.DB, projectID string, userID string) (*model.Project, string, error) {
	project, err := GetProject(db, projectID)
	if err != nil {
		return nil, "", err
	}
	role, err := MemberRole(db, project.WorkspaceID, userID)
	if err != nil {
		return nil, "", err
	}
	return project, role, nil
}

// CanAccessChannel checks channel visibility: public channels admit any
// workspace member, private ones require a channel membership row.
func CanAccessChannel(db *gorm.DB, channel *model.Channel, userID string) (bool, error) {
	role, err := MemberRole(db, channel.WorkspaceID, userID)
	if err != nil {
		return false, err
	}
	if role == "" {
		return false, nil
	}
	if !channel.IsPrivate {
		return true, nil
	}
	var count int64
	err = db.Model(&model.ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channel.ChannelID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetConversation loads a DM conversation the user participates in.
func GetConversation(db *gorm.DB, conversationID string, userID string) (*model.DirectConversation, error) {
	var conv model.DirectConversation
	err := db.Where("conversation_id = ? AND (user_a = ? OR user_b = ?)", conversationID, userID, userID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}
