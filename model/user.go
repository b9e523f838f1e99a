package model

import "time"

type User struct {
	UserID    string    `gorm:"column:user_id;primaryKey;type:text" json:"userId"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Profile   string    `json:"profile"`
	Role      string    `gorm:"not null;default:user" json:"role"` // "user" or "admin"
	Verify    string    `gorm:"not null;default:0" json:"verify"`  // "0" = false, "1" = true
	Active    string    `gorm:"not null;default:1" json:"active"`  // "0" inactive, "1" active, "2" deleted
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }
