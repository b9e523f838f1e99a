package dto

type UpdateProfileRequest struct {
	Name    string `json:"name"`
	Profile string `json:"profile"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}
