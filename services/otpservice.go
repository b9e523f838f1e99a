package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/smtp"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"hamrotask/model"
)

const (
	otpTTL         = 10 * time.Minute
	otpBlockTTL    = 30 * time.Minute
	otpMaxRequests = 3
)

func LoadEmailConfig() (*model.EmailConfig, error) {
	path := os.Getenv("EMAIL_CONFIG_PATH")
	if path == "" {
		path = "configs/email.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg model.EmailConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GenerateOTP returns a 6-digit one-time password.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateREF returns an opaque reference the client echoes back when
// verifying, so one email can hold several in-flight OTPs.
func GenerateREF() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ref := make([]byte, 12)
	for i := range ref {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		ref[i] = charset[n.Int64()]
	}
	return string(ref), nil
}

// CheckEmailBlock reports whether the email is under a cooldown block
// for the given purpose.
func CheckEmailBlock(db *gorm.DB, email string, purpose string) (bool, time.Time, error) {
	var block model.EmailBlock
	err := db.Where("email = ? AND purpose = ? AND expires_at > ?", email, purpose, time.Now()).
		Order("expires_at DESC").First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, err
	}
	return true, block.ExpiresAt, nil
}

// SaveOTPRecord stores a fresh OTP and applies the request-rate block:
// more than otpMaxRequests within the block window puts the email on
// cooldown for otpBlockTTL.
func SaveOTPRecord(db *gorm.DB, email string, otp string, ref string, purpose string) error {
	record := model.OTPRecord{
		Email:     email,
		OTP:       otp,
		Reference: ref,
		Purpose:   purpose,
		IsUsed:    "0",
		ExpiresAt: time.Now().Add(otpTTL),
	}
	if err := db.Create(&record).Error; err != nil {
		return err
	}

	var recent int64
	since := time.Now().Add(-otpBlockTTL)
	if err := db.Model(&model.OTPRecord{}).
		Where("email = ? AND purpose = ? AND created_at > ?", email, purpose, since).
		Count(&recent).Error; err != nil {
		return err
	}
	if recent >= otpMaxRequests {
		block := model.EmailBlock{
			Email:     email,
			Purpose:   purpose,
			ExpiresAt: time.Now().Add(otpBlockTTL),
		}
		return db.Create(&block).Error
	}
	return nil
}

// VerifyOTPRecord checks otp+ref for the email and marks the record
// used on success.
func VerifyOTPRecord(db *gorm.DB, email string, otp string, ref string, purpose string) error {
	var record model.OTPRecord
	err := db.Where("email = ? AND reference = ? AND purpose = ?", email, ref, purpose).
		Order("created_at DESC").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOTPNotFound
		}
		return err
	}
	if record.IsUsed == "1" {
		return ErrOTPUsed
	}
	if time.Now().After(record.ExpiresAt) {
		return ErrOTPExpired
	}
	if record.OTP != otp {
		return ErrOTPNotFound
	}
	return db.Model(&record).Update("is_used", "1").Error
}

func GenerateEmailContent(otp string, ref string) string {
	return fmt.Sprintf(`<html><body>
<h2>Hamro Task verification code</h2>
<p>Your one-time password is:</p>
<h1 style="letter-spacing: 4px;">%s</h1>
<p>Reference: %s</p>
<p>The code expires in 10 minutes. If you did not request it, ignore this email.</p>
</body></html>`, otp, ref)
}

func SendingEmail(cfg *model.EmailConfig, to string, subject string, htmlBody string) error {
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		cfg.Username, to, subject, htmlBody))
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	return smtp.SendMail(addr, auth, cfg.Username, []string{to}, msg)
}
