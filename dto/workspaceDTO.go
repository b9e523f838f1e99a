package dto

type CreateWorkspaceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateWorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type JoinWorkspaceRequest struct {
	Token string `json:"token" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=admin member"`
}

type RemoveMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}
