package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"hamrotask/model"
)

// LoadPlans reads the plan catalog. Plans are config, not rows: pricing
// changes ship as a file edit, not a migration.
func LoadPlans() ([]model.Plan, error) {
	path := os.Getenv("BILLING_PLANS_PATH")
	if path == "" {
		path = "configs/plans.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Plans []model.Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Plans, nil
}

func FindPlan(plans []model.Plan, code string) (*model.Plan, error) {
	for i := range plans {
		if plans[i].Code == code {
			return &plans[i], nil
		}
	}
	return nil, ErrPlanNotFound
}

// WorkspacePlan resolves the workspace's current plan, falling back to
// free when the subscription row is missing or expired.
func WorkspacePlan(db *gorm.DB, plans []model.Plan, workspaceID string) (*model.Plan, error) {
	var sub model.Subscription
	err := db.Where("workspace_id = ?", workspaceID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return FindPlan(plans, "free")
		}
		return nil, err
	}
	if sub.Status != model.SubscriptionActive {
		return FindPlan(plans, "free")
	}
	plan, err := FindPlan(plans, sub.PlanCode)
	if err != nil {
		return FindPlan(plans, "free")
	}
	return plan, nil
}

// CheckMemberLimit reports whether the workspace can take one more
// member under its plan. A zero limit means unlimited.
func CheckMemberLimit(db *gorm.DB, plan *model.Plan, workspaceID string) (bool, error) {
	if plan.MaxMembers == 0 {
		return true, nil
	}
	var count int64
	if err := db.Model(&model.WorkspaceMember{}).Where("workspace_id = ?", workspaceID).Count(&count).Error; err != nil {
		return false, err
	}
	return count < int64(plan.MaxMembers), nil
}

func CheckProjectLimit(db *gorm.DB, plan *model.Plan, workspaceID string) (bool, error) {
	if plan.MaxProjects == 0 {
		return true, nil
	}
	var count int64
	if err := db.Model(&model.Project{}).Where("workspace_id = ? AND archived = ?", workspaceID, false).Count(&count).Error; err != nil {
		return false, err
	}
	return count < int64(plan.MaxProjects), nil
}

// VerifyWebhookSignature checks the gateway callback signature:
// hex(HMAC-SHA256(reference + ":" + status)) keyed with the shared
// webhook secret.
func VerifyWebhookSignature(reference string, status string, signature string) error {
	secret := os.Getenv("BILLING_WEBHOOK_SECRET")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(reference + ":" + status))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
