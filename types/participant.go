package types

import "time"

type Participant struct {
	ConversationID string     `db:"conversation_id" json:"conversationID"`
	UserID         string     `db:"user_id" json:"userID"`
	JoinedAt       time.Time  `db:"joined_at" json:"joinedAt"`
	IsArchived     bool       `db:"is_archived" json:"isArchived"`
	HasUnread      bool       `db:"has_unread" json:"hasUnread"`
	LastReadAt     *time.Time `db:"last_read_at" json:"lastReadAt"`

	OtherUser *User `db:"other_user,omitempty" json:"otherUser,omitempty"`
}
