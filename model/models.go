package model

// All lists every persisted model in migration order. Both the server
// boot migration and test setups iterate this so new models only need
// registering once.
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&OTPRecord{},
		&EmailBlock{},
		&Workspace{},
		&WorkspaceMember{},
		&Project{},
		&Status{},
		&FieldDefinition{},
		&TaskFieldValue{},
		&Task{},
		&TaskAssignee{},
		&Attachment{},
		&TimeEntry{},
		&Channel{},
		&ChannelMember{},
		&Message{},
		&DirectConversation{},
		&DirectMessage{},
		&Notification{},
		&Subscription{},
		&Payment{},
		&File{},
	}
}
