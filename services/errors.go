package services

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrOTPNotFound      = errors.New("otp record not found")
	ErrOTPExpired       = errors.New("otp has expired")
	ErrOTPUsed          = errors.New("otp already used")
	ErrPlanNotFound     = errors.New("plan not found")
	ErrFileNotFound     = errors.New("file not found")
	ErrFileTooLarge     = errors.New("file exceeds size limit")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
