package types

import (
	"time"

	"github.com/ripplechat/ripple/id"
	"github.com/ripplechat/ripple/validator"
)

type ConversationKind string

const (
	ConversationKindDirect ConversationKind = "direct"
	ConversationKindRandom ConversationKind = "random"
)

func (k ConversationKind) String() string {
	return string(k)
}

type ConversationStatus string

const (
	ConversationStatusPending  ConversationStatus = "pending"
	ConversationStatusAccepted ConversationStatus = "accepted"
	ConversationStatusRejected ConversationStatus = "rejected"
)

func (s ConversationStatus) String() string {
	return string(s)
}

type Conversation struct {
	ID            string             `db:"id" json:"id"`
	Kind          ConversationKind   `db:"kind" json:"kind"`
	Status        ConversationStatus `db:"status" json:"status"`
	CreatorID     string             `db:"creator_id" json:"creatorID"`
	CreatedAt     time.Time          `db:"created_at" json:"createdAt"`
	LastMessageAt time.Time          `db:"last_message_at" json:"lastMessageAt"`

	Participation *Participant `db:"participation,omitempty" json:"participation,omitempty"`
}

// CreateConversation provisions a conversation between two users. Direct
// conversations are reused when one already exists for the pair; random ones
// are always fresh and immediately accepted.
type CreateConversation struct {
	OtherUserID string
	Kind        ConversationKind

	loggedInUserID string
	mutualContacts bool
	conversationID string
}

func (in *CreateConversation) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CreateConversation) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CreateConversation) SetMutualContacts(mutual bool) {
	in.mutualContacts = mutual
}

func (in CreateConversation) MutualContacts() bool {
	return in.mutualContacts
}

func (in *CreateConversation) SetConversationID(conversationID string) {
	in.conversationID = conversationID
}

func (in CreateConversation) ConversationID() string {
	return in.conversationID
}

func (in *CreateConversation) Validate() error {
	v := validator.New()

	if in.OtherUserID == "" {
		v.AddError("OtherUserID", "Other user ID is required")
	}
	if !id.Valid(in.OtherUserID) {
		v.AddError("OtherUserID", "Other user ID is invalid")
	}
	if in.OtherUserID == in.loggedInUserID && in.loggedInUserID != "" {
		v.AddError("OtherUserID", "Cannot start a conversation with yourself")
	}

	switch in.Kind {
	case ConversationKindDirect, ConversationKindRandom:
	default:
		v.AddError("Kind", "Kind must be direct or random")
	}

	return v.AsError()
}

type RetrieveConversation struct {
	ConversationID string

	loggedInUserID string
}

func (in *RetrieveConversation) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in RetrieveConversation) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *RetrieveConversation) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	return v.AsError()
}

// UpdateConversationStatus accepts or rejects a pending direct conversation.
type UpdateConversationStatus struct {
	ConversationID string
	Status         ConversationStatus

	loggedInUserID string
}

func (in *UpdateConversationStatus) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in UpdateConversationStatus) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *UpdateConversationStatus) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	switch in.Status {
	case ConversationStatusAccepted, ConversationStatusRejected:
	default:
		v.AddError("Status", "Status must be accepted or rejected")
	}

	return v.AsError()
}

type ArchiveConversation struct {
	ConversationID string

	loggedInUserID string
}

func (in *ArchiveConversation) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ArchiveConversation) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ArchiveConversation) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	return v.AsError()
}

type ListConversations struct {
	PageArgs PageArgs

	loggedInUserID string
}

func (in *ListConversations) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListConversations) LoggedInUserID() string {
	return in.loggedInUserID
}
