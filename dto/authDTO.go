package dto

type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type GoogleSignInRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Name    string `json:"name"`
	Profile string `json:"profile"`
}

type RequestOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Purpose string `json:"purpose" binding:"required,oneof=verify reset"`
}

type VerifyOTPRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Reference string `json:"ref" binding:"required"`
	OTP       string `json:"otp" binding:"required"`
	Purpose   string `json:"purpose" binding:"required,oneof=verify reset"`
}

type ResetPasswordRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Reference string `json:"ref" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
}

type CaptchaRequest struct {
	Token  string `json:"token" validate:"required"`
	Action string `json:"action" validate:"required"`
}

type AssessmentResult struct {
	Score   float32
	Action  string
	Reasons []string
}
