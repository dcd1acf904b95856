package service

import (
	"context"

	"github.com/ripplechat/ripple/cockroach"
	"github.com/ripplechat/ripple/types"
)

// Store is the persistence surface the service needs. *cockroach.Cockroach
// is the production implementation; tests use an in-memory one to simulate
// many clients hammering a shared queue table.
type Store interface {
	UpsertUser(ctx context.Context, in types.UpsertUser) (types.User, error)
	User(ctx context.Context, in types.RetrieveUser) (types.User, error)
	Users(ctx context.Context, in types.ListUsers) ([]types.User, error)

	UpsertQueueEntry(ctx context.Context, in types.UpsertQueueEntry) (types.QueueEntry, error)
	DeleteQueueEntry(ctx context.Context, userID string) error
	QueueEntry(ctx context.Context, userID string) (types.QueueEntry, error)
	QueueCandidates(ctx context.Context, in types.ListQueueCandidates) ([]types.QueueEntry, error)
	ClaimQueuePair(ctx context.Context, userID, peerID string) error

	DirectConversationBetween(ctx context.Context, userID, otherUserID string) (types.Conversation, error)
	CreateConversation(ctx context.Context, in types.CreateConversation) (types.Conversation, error)
	Conversation(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error)
	Conversations(ctx context.Context, in types.ListConversations) (types.Page[types.Conversation], error)
	UpdateConversationStatus(ctx context.Context, in types.UpdateConversationStatus) error
	ArchiveConversation(ctx context.Context, in types.ArchiveConversation) error

	CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error)
	Messages(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error)

	CreateStatusUpdate(ctx context.Context, in types.CreateStatusUpdate) (types.StatusUpdate, error)
	StatusUpdate(ctx context.Context, statusID string) (types.StatusUpdate, error)
	StatusUpdates(ctx context.Context, in types.ListStatusUpdates) ([]types.StatusUpdate, error)
	ViewStatusUpdate(ctx context.Context, in types.ViewStatusUpdate) error
	StatusViewers(ctx context.Context, in types.ListStatusViewers) ([]types.StatusView, error)
	DeleteExpiredStatusUpdates(ctx context.Context) (int64, error)

	AddContact(ctx context.Context, in types.AddContact) error
	BlockUser(ctx context.Context, in types.BlockUser) error
	UnblockUser(ctx context.Context, in types.BlockUser) error
	BlockedEitherWay(ctx context.Context, userID, otherUserID string) (bool, error)
}

var _ Store = (*cockroach.Cockroach)(nil)
