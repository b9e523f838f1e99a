package model

import (
	"encoding/json"
	"time"
)

// Custom field types supported by field definitions.
const (
	FieldTypeText   = "text"
	FieldTypeNumber = "number"
	FieldTypeDate   = "date"
	FieldTypeSelect = "select"
)

// FieldDefinition declares a custom field on a project. Select fields
// carry their allowed options JSON-encoded in Options.
type FieldDefinition struct {
	FieldID   string    `gorm:"column:field_id;primaryKey;type:text" json:"fieldId"`
	ProjectID string    `gorm:"column:project_id;type:text;not null;index" json:"projectId"`
	Name      string    `gorm:"not null" json:"name"`
	FieldType string    `gorm:"not null" json:"fieldType"` // text, number, date, select
	Options   string    `gorm:"type:text" json:"-"`        // JSON encoded []string, select only
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FieldDefinition) TableName() string { return "field_definitions" }

// OptionList decodes the stored options. Nil for non-select fields.
func (f *FieldDefinition) OptionList() []string {
	if f.Options == "" {
		return nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(f.Options), &opts); err != nil {
		return nil
	}
	return opts
}

// SetOptions stores the options JSON-encoded.
func (f *FieldDefinition) SetOptions(opts []string) error {
	if len(opts) == 0 {
		f.Options = ""
		return nil
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	f.Options = string(data)
	return nil
}

// TaskFieldValue holds one task's value for one field definition.
type TaskFieldValue struct {
	TaskID    string    `gorm:"column:task_id;primaryKey;type:text" json:"taskId"`
	FieldID   string    `gorm:"column:field_id;primaryKey;type:text" json:"fieldId"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (TaskFieldValue) TableName() string { return "task_field_values" }
