package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hamrotask/dto"
	"hamrotask/logging"
	"hamrotask/model"
	"hamrotask/services"
)

func OTPController(router *gin.Engine, db *gorm.DB) {
	routes := router.Group("/auth")
	{
		routes.POST("/requestOTP", func(c *gin.Context) {
			RequestOTP(c, db)
		})
		routes.POST("/verifyOTP", func(c *gin.Context) {
			VerifyOTP(c, db)
		})
		routes.POST("/resetpassword", func(c *gin.Context) {
			ResetPassword(c, db)
		})
	}
}

// RequestOTP generates and emails a one-time password for account
// verification or password reset.
func RequestOTP(c *gin.Context, db *gorm.DB) {
	var req dto.RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request format"})
		return
	}

	exists, err := services.UserExist(db, req.Email)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check existing email"})
		return
	}
	if !exists {
		c.JSON(400, gin.H{"error": "Email is not registered"})
		return
	}

	blocked, _, err := services.CheckEmailBlock(db, req.Email, req.Purpose)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check email status"})
		return
	}
	if blocked {
		c.JSON(403, gin.H{"error": "Too many OTP requests. Please try again later."})
		return
	}

	otp, err := services.GenerateOTP()
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to generate OTP"})
		return
	}
	ref, err := services.GenerateREF()
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to generate reference"})
		return
	}

	if err := services.SaveOTPRecord(db, req.Email, otp, ref, req.Purpose); err != nil {
		c.JSON(500, gin.H{"error": "Failed to save OTP record: " + err.Error()})
		return
	}

	subject := "Hamro Task verification code"
	if req.Purpose == "reset" {
		subject = "Hamro Task password reset code"
	}
	emailContent := services.GenerateEmailContent(otp, ref)

	emailCfg, err := services.LoadEmailConfig()
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to load email configuration"})
		return
	}
	if err := services.SendingEmail(emailCfg, req.Email, subject, emailContent); err != nil {
		c.JSON(500, gin.H{"error": "Failed to send email: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"message": "OTP has been sent to your email",
		"ref":     ref,
	})
}

// VerifyOTP checks the submitted code. For the verify purpose it also
// activates the account and signs the user in.
func VerifyOTP(c *gin.Context, db *gorm.DB) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := services.VerifyOTPRecord(db, req.Email, req.OTP, req.Reference, req.Purpose); err != nil {
		switch {
		case errors.Is(err, services.ErrOTPNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP or reference code"})
		case errors.Is(err, services.ErrOTPUsed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "OTP has already been used"})
		case errors.Is(err, services.ErrOTPExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "OTP has expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify OTP"})
			logging.Logger.Error("verify otp", "email", req.Email, "error", err)
		}
		return
	}

	responseData := gin.H{
		"message": "OTP verified successfully",
	}

	if req.Purpose == "verify" {
		user, err := services.GetUserByEmail(db, req.Email)
		if err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		if err := db.Model(user).Update("verify", "1").Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update verify field"})
			return
		}
		user.Verify = "1"

		accessToken, err := services.CreateAccessToken(user.UserID, user.Email, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create access token"})
			return
		}

		refreshToken, err := services.CreateRefreshToken(user.UserID, user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create refresh token"})
			return
		}

		if err := services.StoreRefreshToken(db, user.UserID, refreshToken); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store refresh token"})
			return
		}

		responseData["accessToken"] = accessToken
		responseData["refreshToken"] = refreshToken
	}

	c.JSON(http.StatusOK, responseData)
}

// ResetPassword sets a new password after a reset OTP has been
// verified for the same reference.
func ResetPassword(c *gin.Context, db *gorm.DB) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	// The reference must point at a reset OTP already consumed by
	// verifyOTP and still inside its validity window.
	var record model.OTPRecord
	err := db.Where("email = ? AND reference = ? AND purpose = ?", req.Email, req.Reference, "reset").
		Order("created_at DESC").First(&record).Error
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reference code"})
		return
	}
	if record.IsUsed != "1" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "OTP has not been verified"})
		return
	}
	if time.Now().After(record.ExpiresAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reset window has expired"})
		return
	}

	user, err := services.GetUserByEmail(db, req.Email)
	if err != nil {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := db.Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to update password"})
		return
	}

	// Force re-authentication everywhere.
	if err := services.RevokeRefreshToken(db, user.UserID); err != nil {
		logging.Logger.Warn("revoke refresh token after reset", "user_id", user.UserID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}
