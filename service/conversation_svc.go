package service

import (
	"context"

	"github.com/ripplechat/ripple/auth"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/types"
)

// CreateConversation provisions a conversation with another user. Direct
// conversations are idempotent: calling this twice for the same pair returns
// the existing conversation. Random ones are created by matchmaking and are
// always fresh.
func (svc *Service) CreateConversation(ctx context.Context, in types.CreateConversation) (types.Conversation, error) {
	var out types.Conversation

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return out, err
	}

	// Random conversations skip the pending handshake, so only matchmaking
	// may provision them.
	if in.Kind == types.ConversationKindRandom {
		return out, errs.NewPermissionDeniedError("random conversations are created by matchmaking")
	}

	blocked, err := svc.Store.BlockedEitherWay(ctx, loggedInUser.ID, in.OtherUserID)
	if err != nil {
		return out, err
	}

	if blocked {
		return out, errs.NewPermissionDeniedError("cannot start a conversation with this user")
	}

	if in.Kind == types.ConversationKindDirect {
		existing, err := svc.Store.DirectConversationBetween(ctx, loggedInUser.ID, in.OtherUserID)
		if err == nil {
			return existing, nil
		}

		if !errs.IsNotFound(err) {
			return out, err
		}
	}

	return svc.Store.CreateConversation(ctx, in)
}

func (svc *Service) Conversation(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error) {
	var out types.Conversation

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return out, err
	}

	return svc.Store.Conversation(ctx, in)
}

func (svc *Service) Conversations(ctx context.Context, in types.ListConversations) (types.Page[types.Conversation], error) {
	var out types.Page[types.Conversation]

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Store.Conversations(ctx, in)
}

// AcceptConversation moves a pending direct conversation to accepted. Only
// the participant who did not start it may do so.
func (svc *Service) AcceptConversation(ctx context.Context, conversationID string) error {
	return svc.updateConversationStatus(ctx, conversationID, types.ConversationStatusAccepted)
}

// RejectConversation declines a pending direct conversation.
func (svc *Service) RejectConversation(ctx context.Context, conversationID string) error {
	return svc.updateConversationStatus(ctx, conversationID, types.ConversationStatusRejected)
}

func (svc *Service) updateConversationStatus(ctx context.Context, conversationID string, status types.ConversationStatus) error {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in := types.UpdateConversationStatus{
		ConversationID: conversationID,
		Status:         status,
	}
	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return err
	}

	return svc.Store.UpdateConversationStatus(ctx, in)
}

// ArchiveConversation hides a conversation from the caller's list. The other
// participant's view is untouched.
func (svc *Service) ArchiveConversation(ctx context.Context, in types.ArchiveConversation) error {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return err
	}

	return svc.Store.ArchiveConversation(ctx, in)
}
