package dto

type SetUserActiveRequest struct {
	Active string `json:"active" binding:"required,oneof=0 1 2"`
}
