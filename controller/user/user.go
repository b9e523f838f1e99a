package user

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hamrotask/dto"
	"hamrotask/middleware"
	"hamrotask/model"
	"hamrotask/services"
)

func UserController(router *gin.Engine, db *gorm.DB) {
	routes := router.Group("/user", middleware.AccessTokenMiddleware())
	{
		routes.GET("", func(c *gin.Context) {
			GetProfile(c, db)
		})
		routes.PUT("", func(c *gin.Context) {
			UpdateProfile(c, db)
		})
		routes.PUT("/password", func(c *gin.Context) {
			ChangePassword(c, db)
		})
		routes.GET("/search", func(c *gin.Context) {
			SearchUsers(c, db)
		})
		routes.POST("/avatar", func(c *gin.Context) {
			UploadAvatar(c, db)
		})
		routes.DELETE("", func(c *gin.Context) {
			DeleteAccount(c, db)
		})
	}
}

func GetProfile(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	user, err := services.GetUserByID(db, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func UpdateProfile(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request format"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Profile != "" {
		updates["profile"] = req.Profile
	}
	if len(updates) == 0 {
		c.JSON(400, gin.H{"error": "Nothing to update"})
		return
	}

	if err := db.Model(&model.User{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to update profile"})
		return
	}

	user, err := services.GetUserByID(db, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to reload profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func ChangePassword(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	user, err := services.GetUserByID(db, userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := db.Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// SearchUsers finds active users by name or email prefix for member
// pickers. Results are capped and never include deleted accounts.
func SearchUsers(c *gin.Context, db *gorm.DB) {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		c.JSON(400, gin.H{"error": "Query must be at least 2 characters"})
		return
	}

	var users []model.User
	pattern := "%" + query + "%"
	err := db.Where("active = ? AND (name LIKE ? OR email LIKE ?)", "1", pattern, pattern).
		Limit(20).Find(&users).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to search users"})
		return
	}

	results := make([]gin.H, 0, len(users))
	for _, u := range users {
		results = append(results, gin.H{
			"id":      u.UserID,
			"name":    u.Name,
			"email":   u.Email,
			"profile": u.Profile,
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": results})
}

// UploadAvatar stores the image and points the profile at its download
// path in one step.
func UploadAvatar(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(400, gin.H{"error": "Missing file"})
		return
	}

	record, err := services.SaveFile(db, userID, header)
	if err != nil {
		if errors.Is(err, services.ErrFileTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the upload limit"})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to save avatar"})
		return
	}

	profileURL := "/file/" + record.FileID
	if err := db.Model(&model.User{}).Where("user_id = ?", userID).Update("profile", profileURL).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Avatar updated successfully",
		"profile": profileURL,
		"fileId":  record.FileID,
	})
}

// DeleteAccount soft-deletes: the row stays for audit and message
// attribution, the account can no longer sign in.
func DeleteAccount(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	if err := db.Model(&model.User{}).Where("user_id = ?", userID).Update("active", "2").Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete account"})
		return
	}

	if err := services.RevokeRefreshToken(db, userID); err != nil {
		c.JSON(500, gin.H{"error": "Failed to revoke session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
