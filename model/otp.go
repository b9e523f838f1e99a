package model

import "time"

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type OTPRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"not null;index"`  // Email associated with OTP
	OTP       string    `gorm:"not null"`        // OTP code
	Reference string    `gorm:"not null;unique"` // Unique reference code
	Purpose   string    `gorm:"not null"`        // "verify" or "reset"
	IsUsed    string    `gorm:"not null"`        // "0" unused, "1" used
	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null"` // OTP expiration time
}

func (OTPRecord) TableName() string { return "otp_records" }

// EmailBlock temporarily blocks an email from requesting more OTPs
// after too many live requests.
type EmailBlock struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"not null;index"`
	Purpose   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (EmailBlock) TableName() string { return "email_blocks" }
