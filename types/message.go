package types

import (
	"time"
	"unicode/utf8"

	"github.com/ripplechat/ripple/id"
	"github.com/ripplechat/ripple/validator"
)

type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversationID"`
	SenderID       string    `db:"sender_id" json:"senderID"`
	Content        string    `db:"content" json:"content"`
	MediaPaths     []string  `db:"media" json:"-"`
	MediaURLs      []string  `db:"-" json:"mediaURLs,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`

	Sender       *User                `db:"sender,omitempty" json:"sender,omitempty"`
	Relationship *MessageRelationship `db:"relationship,omitempty" json:"relationship,omitempty"`
}

type MessageRelationship struct {
	IsMine bool `json:"isMine"`
}

func (m *Message) SetMediaURLs(prefix string) {
	for _, path := range m.MediaPaths {
		m.MediaURLs = append(m.MediaURLs, prefix+path)
	}
}

type CreateMessage struct {
	ConversationID string
	Content        string

	loggedInUserID string
	mediaPaths     []string
}

func (in *CreateMessage) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CreateMessage) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CreateMessage) SetMediaPaths(paths []string) {
	in.mediaPaths = paths
}

func (in CreateMessage) MediaPaths() []string {
	return in.mediaPaths
}

func (in *CreateMessage) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	if in.Content == "" && len(in.mediaPaths) == 0 {
		v.AddError("Content", "Content is required")
	}
	if utf8.RuneCountInString(in.Content) > 2000 {
		v.AddError("Content", "Content must be less than 2000 characters")
	}

	return v.AsError()
}

type ListMessages struct {
	ConversationID string
	PageArgs       PageArgs

	loggedInUserID string
}

func (in *ListMessages) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListMessages) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ListMessages) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	if err := in.PageArgs.Validate(); err != nil {
		v.AddError("PageArgs", err.Error())
	}

	return v.AsError()
}
