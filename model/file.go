package model

import "time"

// File is an object in the upload store. StoredName is the on-disk name
// (uuid plus original extension); Name keeps the client's filename for
// Content-Disposition on download.
type File struct {
	FileID      string    `gorm:"column:file_id;primaryKey;type:text" json:"fileId"`
	OwnerID     string    `gorm:"column:owner_id;type:text;not null;index" json:"ownerId"`
	Name        string    `gorm:"not null" json:"name"`
	StoredName  string    `gorm:"not null" json:"-"`
	Size        int64     `gorm:"not null" json:"size"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (File) TableName() string { return "files" }
