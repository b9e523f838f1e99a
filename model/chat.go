package model

import "time"

type Channel struct {
	ChannelID   string    `gorm:"column:channel_id;primaryKey;type:text" json:"channelId"`
	WorkspaceID string    `gorm:"column:workspace_id;type:text;not null;index" json:"workspaceId"`
	Name        string    `gorm:"not null" json:"name"`
	IsPrivate   bool      `gorm:"not null;default:false" json:"isPrivate"`
	CreatedBy   string    `gorm:"type:text;not null" json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Channel) TableName() string { return "channels" }

type ChannelMember struct {
	ChannelID string    `gorm:"column:channel_id;primaryKey;type:text" json:"channelId"`
	UserID    string    `gorm:"column:user_id;primaryKey;type:text" json:"userId"`
	JoinedAt  time.Time `json:"joinedAt"`
}

func (ChannelMember) TableName() string { return "channel_members" }

// Message is a channel chat message. Deleted messages keep their row so
// threads keep their shape; the body is blanked on delete. ClientRef is
// an opaque token echoed back so optimistic senders can reconcile.
type Message struct {
	MessageID string     `gorm:"column:message_id;primaryKey;type:text" json:"messageId"`
	ChannelID string     `gorm:"column:channel_id;type:text;not null;index" json:"channelId"`
	SenderID  string     `gorm:"column:sender_id;type:text;not null" json:"senderId"`
	Body      string     `gorm:"type:text" json:"body"`
	ClientRef string     `json:"clientRef,omitempty"`
	EditedAt  *time.Time `json:"editedAt"`
	Deleted   bool       `gorm:"not null;default:false" json:"deleted"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
}

func (Message) TableName() string { return "messages" }

// DirectConversation is the canonical DM pair. UserA always sorts before
// UserB so each pair maps to exactly one row.
type DirectConversation struct {
	ConversationID string    `gorm:"column:conversation_id;primaryKey;type:text" json:"conversationId"`
	UserA          string    `gorm:"column:user_a;type:text;not null;uniqueIndex:idx_dm_pair" json:"userA"`
	UserB          string    `gorm:"column:user_b;type:text;not null;uniqueIndex:idx_dm_pair" json:"userB"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (DirectConversation) TableName() string { return "direct_conversations" }

type DirectMessage struct {
	MessageID      string     `gorm:"column:message_id;primaryKey;type:text" json:"messageId"`
	ConversationID string     `gorm:"column:conversation_id;type:text;not null;index" json:"conversationId"`
	SenderID       string     `gorm:"column:sender_id;type:text;not null" json:"senderId"`
	Body           string     `gorm:"type:text" json:"body"`
	ClientRef      string     `json:"clientRef,omitempty"`
	EditedAt       *time.Time `json:"editedAt"`
	Deleted        bool       `gorm:"not null;default:false" json:"deleted"`
	CreatedAt      time.Time  `gorm:"index" json:"createdAt"`
}

func (DirectMessage) TableName() string { return "direct_messages" }
