package billing

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hamrotask/dto"
	"hamrotask/logging"
	"hamrotask/middleware"
	"hamrotask/model"
	"hamrotask/realtime"
	"hamrotask/services"
)

const paidPlanDuration = 30 * 24 * time.Hour

func BillingController(router *gin.Engine, db *gorm.DB, hub *realtime.Hub, plans []model.Plan) {
	router.GET("/billing/plans", func(c *gin.Context) {
		ListPlans(c, plans)
	})
	router.POST("/billing/webhook", func(c *gin.Context) {
		PaymentWebhook(c, db, hub, plans)
	})

	router.GET("/workspace/:workspace_id/subscription", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		GetSubscription(c, db, plans)
	})
	router.POST("/workspace/:workspace_id/subscribe", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		Subscribe(c, db, plans)
	})
	router.GET("/workspace/:workspace_id/payments", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		ListPayments(c, db)
	})
}

// ListPlans publishes the catalog. No auth: pricing pages read this
// before signup.
func ListPlans(c *gin.Context, plans []model.Plan) {
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func GetSubscription(c *gin.Context, db *gorm.DB, plans []model.Plan) {
	userID := c.MustGet("userId").(string)
	workspaceID := c.Param("workspace_id")

	role, err := services.MemberRole(db, workspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	plan, err := services.WorkspacePlan(db, plans, workspaceID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to resolve plan"})
		return
	}

	var sub model.Subscription
	if err := db.Where("workspace_id = ?", workspaceID).First(&sub).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to load subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": sub,
		"plan":         plan,
	})
}

// Subscribe starts a plan change. The free plan activates immediately;
// paid plans create a pending payment whose reference the gateway
// echoes back through the webhook.
func Subscribe(c *gin.Context, db *gorm.DB, plans []model.Plan) {
	userID := c.MustGet("userId").(string)
	workspaceID := c.Param("workspace_id")

	role, err := services.MemberRole(db, workspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if !services.IsWorkspaceStaff(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or admins can manage billing"})
		return
	}

	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	plan, err := services.FindPlan(plans, req.PlanCode)
	if err != nil {
		c.JSON(404, gin.H{"error": "Plan not found"})
		return
	}

	now := time.Now()

	if plan.Price == 0 {
		err = db.Model(&model.Subscription{}).Where("workspace_id = ?", workspaceID).
			Updates(map[string]interface{}{
				"plan_code":  plan.Code,
				"status":     model.SubscriptionActive,
				"started_at": now,
				"expires_at": nil,
				"updated_at": now,
			}).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to change plan"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Switched to the free plan"})
		return
	}

	payment := model.Payment{
		PaymentID:   uuid.New().String(),
		WorkspaceID: workspaceID,
		PlanCode:    plan.Code,
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Status:      model.PaymentPending,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return tx.Model(&model.Subscription{}).Where("workspace_id = ?", workspaceID).
			Updates(map[string]interface{}{
				"plan_code":  plan.Code,
				"status":     model.SubscriptionPending,
				"updated_at": now,
			}).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to start subscription"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Payment created, awaiting gateway confirmation",
		"reference": payment.PaymentID,
		"amount":    payment.Amount,
		"currency":  payment.Currency,
	})
}

// PaymentWebhook is the gateway callback. The signature is
// hex(HMAC-SHA256(reference + ":" + status)) under the shared secret;
// anything that fails verification is rejected before the database is
// touched.
func PaymentWebhook(c *gin.Context, db *gorm.DB, hub *realtime.Hub, plans []model.Plan) {
	var req dto.BillingWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if err := services.VerifyWebhookSignature(req.Reference, req.Status, req.Signature); err != nil {
		logging.Logger.Warn("Rejected billing webhook", "reference", req.Reference)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var payment model.Payment
	if err := db.Where("payment_id = ?", req.Reference).First(&payment).Error; err != nil {
		c.JSON(404, gin.H{"error": "Unknown payment reference"})
		return
	}
	if payment.Status != model.PaymentPending {
		c.JSON(http.StatusOK, gin.H{"message": "Payment already processed"})
		return
	}

	now := time.Now()

	if req.Status == model.PaymentFailed {
		err := db.Model(&payment).Updates(map[string]interface{}{
			"status":     model.PaymentFailed,
			"updated_at": now,
		}).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to record payment"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment marked as failed"})
		return
	}

	expiresAt := now.Add(paidPlanDuration)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&payment).Updates(map[string]interface{}{
			"status":     model.PaymentCompleted,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Subscription{}).Where("workspace_id = ?", payment.WorkspaceID).
			Updates(map[string]interface{}{
				"plan_code":  payment.PlanCode,
				"status":     model.SubscriptionActive,
				"started_at": now,
				"expires_at": expiresAt,
				"updated_at": now,
			}).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to activate subscription"})
		return
	}

	plan, _ := services.FindPlan(plans, payment.PlanCode)
	planName := payment.PlanCode
	if plan != nil {
		planName = plan.Name
	}

	var ownerIDs []string
	db.Model(&model.WorkspaceMember{}).
		Where("workspace_id = ? AND role = ?", payment.WorkspaceID, model.RoleOwner).
		Pluck("user_id", &ownerIDs)
	services.NotifyMany(db, hub, ownerIDs, model.NotificationPayment,
		"Subscription activated",
		fmt.Sprintf("Your workspace is now on the %s plan until %s", planName, expiresAt.Format("2006-01-02")),
		"payment", payment.PaymentID)

	c.JSON(http.StatusOK, gin.H{"message": "Subscription activated"})
}

func ListPayments(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)
	workspaceID := c.Param("workspace_id")

	role, err := services.MemberRole(db, workspaceID, userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to check membership"})
		return
	}
	if !services.IsWorkspaceStaff(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or admins can view payments"})
		return
	}

	var payments []model.Payment
	err = db.Where("workspace_id = ?", workspaceID).Order("created_at DESC").Find(&payments).Error
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
