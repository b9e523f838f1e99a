package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hamrotask/dto"
	"hamrotask/middleware"
	"hamrotask/model"
	"hamrotask/services"
)

func AdminController(router *gin.Engine, db *gorm.DB) {
	routes := router.Group("/admin", middleware.AccessTokenMiddleware(), middleware.AdminMiddleware())
	{
		routes.GET("/users", func(c *gin.Context) {
			ListUsers(c, db)
		})
		routes.PUT("/users/:user_id/active", func(c *gin.Context) {
			SetUserActive(c, db)
		})
		routes.GET("/subscriptions", func(c *gin.Context) {
			ListSubscriptions(c, db)
		})
		routes.GET("/stats", func(c *gin.Context) {
			Stats(c, db)
		})
	}
}

func pagination(c *gin.Context) (offset int, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return (page - 1) * limit, limit
}

func ListUsers(c *gin.Context, db *gorm.DB) {
	offset, limit := pagination(c)

	query := db.Model(&model.User{})
	if q := c.Query("q"); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("email LIKE ? OR name LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to count users"})
		return
	}

	var users []model.User
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
	})
}

// SetUserActive flips a user's active state. Setting it to anything
// but active also revokes the refresh token so open sessions die at
// the next refresh.
func SetUserActive(c *gin.Context, db *gorm.DB) {
	targetID := c.Param("user_id")

	var req dto.SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	user, err := services.GetUserByID(db, targetID)
	if err != nil {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}
	if user.Role == "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot change an admin account"})
		return
	}

	if err := db.Model(user).Update("active", req.Active).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to update user"})
		return
	}
	if req.Active != "1" {
		services.RevokeRefreshToken(db, targetID)
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

func ListSubscriptions(c *gin.Context, db *gorm.DB) {
	offset, limit := pagination(c)

	query := db.Model(&model.Subscription{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to count subscriptions"})
		return
	}

	var subscriptions []model.Subscription
	err := query.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&subscriptions).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list subscriptions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subscriptions,
		"total":         total,
	})
}

// Stats returns platform entity counts for the admin dashboard.
func Stats(c *gin.Context, db *gorm.DB) {
	counts := gin.H{}
	for name, m := range map[string]interface{}{
		"users":      &model.User{},
		"workspaces": &model.Workspace{},
		"projects":   &model.Project{},
		"tasks":      &model.Task{},
		"channels":   &model.Channel{},
		"messages":   &model.Message{},
		"payments":   &model.Payment{},
	} {
		var n int64
		if err := db.Model(m).Count(&n).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to collect stats"})
			return
		}
		counts[name] = n
	}

	var paidActive int64
	db.Model(&model.Subscription{}).
		Where("status = ? AND plan_code <> ?", model.SubscriptionActive, "free").
		Count(&paidActive)
	counts["paidSubscriptions"] = paidActive

	c.JSON(http.StatusOK, gin.H{"stats": counts})
}
