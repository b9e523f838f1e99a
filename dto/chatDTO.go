package dto

type CreateChannelRequest struct {
	Name      string   `json:"name" binding:"required"`
	IsPrivate bool     `json:"isPrivate"`
	MemberIDs []string `json:"memberIds"`
}

type UpdateChannelRequest struct {
	Name string `json:"name" binding:"required"`
}

type ChannelMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type SendMessageRequest struct {
	Body      string `json:"body" binding:"required,max=4000"`
	ClientRef string `json:"clientRef"`
}

type EditMessageRequest struct {
	Body string `json:"body" binding:"required,max=4000"`
}

type OpenDMRequest struct {
	UserID string `json:"userId" binding:"required"`
}
