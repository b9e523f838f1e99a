package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hamrotask/middleware"
	"hamrotask/services"
)

func TokenController(router *gin.Engine, db *gorm.DB) {
	router.POST("/auth/refresh", middleware.RefreshTokenMiddleware(), func(c *gin.Context) {
		RefreshTokens(c, db)
	})
	router.POST("/auth/signout", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		Signout(c, db)
	})
}

// RefreshTokens rotates the token pair. The presented refresh token
// must match the stored hash; rotation invalidates the old one.
func RefreshTokens(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userID").(string)
	refreshToken := c.MustGet("refreshToken").(string)

	record, err := services.GetRefreshToken(db, userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No active session"})
		return
	}
	if record.Revoked {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session has been revoked"})
		return
	}
	if time.Now().Unix() > record.CreatedAt+record.ExpiresIn {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token has expired"})
		return
	}
	if !services.VerifyRefreshTokenHash(refreshToken, record.TokenHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token mismatch"})
		return
	}

	user, err := services.GetUserByID(db, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}
	if user.Active != "1" {
		c.JSON(http.StatusForbidden, gin.H{"error": "User account is not active"})
		return
	}

	accessToken, err := services.CreateAccessToken(user.UserID, user.Email, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create access token"})
		return
	}

	newRefreshToken, err := services.CreateRefreshToken(user.UserID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create refresh token"})
		return
	}

	if err := services.StoreRefreshToken(db, user.UserID, newRefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"token": gin.H{
			"accessToken":  accessToken,
			"refreshToken": newRefreshToken,
		},
	})
}

// Signout drops the stored refresh token so the session cannot be
// renewed. The access token simply runs out.
func Signout(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	if err := services.RevokeRefreshToken(db, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}
