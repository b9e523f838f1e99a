package dto

type SubscribeRequest struct {
	PlanCode string `json:"planCode" binding:"required"`
}

type BillingWebhookRequest struct {
	Reference string `json:"reference" binding:"required"`
	Status    string `json:"status" binding:"required,oneof=completed failed"`
	Signature string `json:"signature" binding:"required"`
}
