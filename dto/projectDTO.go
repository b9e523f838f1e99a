package dto

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type UpdateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
	Archived    *bool   `json:"archived"`
}

type CreateStatusRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type UpdateStatusRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ReorderStatusesRequest struct {
	StatusIDs []string `json:"statusIds" binding:"required,min=1"`
}

type CreateFieldRequest struct {
	Name      string   `json:"name" binding:"required"`
	FieldType string   `json:"fieldType" binding:"required,oneof=text number date select"`
	Options   []string `json:"options"`
}

type UpdateFieldRequest struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

