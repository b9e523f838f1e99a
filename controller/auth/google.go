package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hamrotask/dto"
	"hamrotask/model"
	"hamrotask/services"
)

func GoogleSignInController(router *gin.Engine, db *gorm.DB) {
	router.POST("/auth/googlelogin", func(c *gin.Context) {
		GoogleSignIn(c, db)
	})
}

// GoogleSignIn signs the user in with a verified Google identity,
// creating the account on first contact.
func GoogleSignIn(c *gin.Context, db *gorm.DB) {
	var req dto.GoogleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request format",
		})
		return
	}

	user, err := services.GetUserByEmail(db, req.Email)
	isNewUser := false

	switch {
	case err == nil:
		// Google identity counts as verified.
		if user.Verify == "0" {
			if err := db.Model(user).Update("verify", "1").Error; err == nil {
				user.Verify = "1"
			}
		}

		switch user.Active {
		case "0":
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "User account is not active",
				"status":  "0",
			})
			return
		case "2":
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "User account is deleted",
				"status":  "2",
			})
			return
		}

	case errors.Is(err, services.ErrUserNotFound):
		profile := req.Profile
		if profile == "" {
			profile = "none-url"
		}
		user = &model.User{
			UserID:    uuid.New().String(),
			Name:      req.Name,
			Email:     req.Email,
			Password:  "-",
			Profile:   profile,
			Role:      "user",
			Verify:    "1",
			Active:    "1",
			CreatedAt: time.Now(),
		}
		if err := db.Create(user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to create user account",
				"error":   err.Error(),
			})
			return
		}
		isNewUser = true

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to look up user",
			"error":   err.Error(),
		})
		return
	}

	accessToken, err := services.CreateAccessToken(user.UserID, user.Email, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to create access token",
		})
		return
	}

	refreshToken, err := services.CreateRefreshToken(user.UserID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to create refresh token",
		})
		return
	}

	if err := services.StoreRefreshToken(db, user.UserID, refreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to store refresh token",
		})
		return
	}

	message := "Login Successfully"
	if isNewUser {
		message = "Account created and logged in successfully"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"user": gin.H{
			"id":    user.UserID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
		"token": gin.H{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"expiresIn":    int64((7 * 24 * time.Hour).Seconds()),
		},
	})
}
