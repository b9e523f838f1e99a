package model

import "time"

// Plan is one entry of the billing catalog loaded from plans.yaml.
// Plans are configuration, not rows; subscriptions reference them by code.
type Plan struct {
	Code        string   `yaml:"code" json:"code"`
	Name        string   `yaml:"name" json:"name"`
	Price       int64    `yaml:"price" json:"price"` // paisa per month, 0 = free
	Currency    string   `yaml:"currency" json:"currency"`
	MaxMembers  int      `yaml:"max_members" json:"maxMembers"`   // 0 = unlimited
	MaxProjects int      `yaml:"max_projects" json:"maxProjects"` // 0 = unlimited
	Features    []string `yaml:"features" json:"features"`
}

// Subscription states.
const (
	SubscriptionActive  = "active"
	SubscriptionPending = "pending"
	SubscriptionExpired = "expired"
)

// Subscription is a workspace's current plan. Exactly one row per
// workspace; paid plans carry an expiry, the free plan never expires.
type Subscription struct {
	SubscriptionID string     `gorm:"column:subscription_id;primaryKey;type:text" json:"subscriptionId"`
	WorkspaceID    string     `gorm:"column:workspace_id;type:text;not null;uniqueIndex" json:"workspaceId"`
	PlanCode       string     `gorm:"not null" json:"planCode"`
	Status         string     `gorm:"not null;default:active" json:"status"` // active, pending, expired
	StartedAt      time.Time  `json:"startedAt"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (Subscription) TableName() string { return "subscriptions" }

// Payment states.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment is one gateway charge attempt. PaymentID doubles as the
// gateway reference echoed back by the webhook.
type Payment struct {
	PaymentID   string    `gorm:"column:payment_id;primaryKey;type:text" json:"paymentId"`
	WorkspaceID string    `gorm:"column:workspace_id;type:text;not null;index" json:"workspaceId"`
	PlanCode    string    `gorm:"not null" json:"planCode"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Currency    string    `gorm:"not null" json:"currency"`
	Status      string    `gorm:"not null;default:pending" json:"status"` // pending, completed, failed
	CreatedBy   string    `gorm:"type:text;not null" json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }
