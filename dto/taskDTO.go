package dto

import "time"

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	StatusID    string     `json:"statusId"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
	Assignees   []string   `json:"assignees"`
	ClientRef   string     `json:"clientRef"`
}

type UpdateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
	ClearDue    bool       `json:"clearDue"`
}

type MoveTaskRequest struct {
	StatusID string `json:"statusId" binding:"required"`
	Position int    `json:"position"`
}

type AssignTaskRequest struct {
	Assignees []string `json:"assignees"`
}

type TaskFieldValuesRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}
