package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/id"
	"github.com/ripplechat/ripple/types"
)

// DirectConversationBetween finds the existing direct conversation of a user
// pair, if any. Random conversations never come out of here: each match makes
// a fresh one.
func (c *Cockroach) DirectConversationBetween(ctx context.Context, userID, otherUserID string) (types.Conversation, error) {
	var out types.Conversation

	const q = `
		SELECT conversations.*
		FROM conversations
		WHERE conversations.kind = @kind
			AND EXISTS (
				SELECT 1 FROM conversation_participants
				WHERE conversation_participants.conversation_id = conversations.id
					AND conversation_participants.user_id = @user_id
			)
			AND EXISTS (
				SELECT 1 FROM conversation_participants
				WHERE conversation_participants.conversation_id = conversations.id
					AND conversation_participants.user_id = @other_user_id
			)
		ORDER BY conversations.created_at ASC
		LIMIT 1
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"kind":          types.ConversationKindDirect,
		"user_id":       userID,
		"other_user_id": otherUserID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select direct conversation: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("conversation not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect direct conversation: %w", err)
	}

	return out, nil
}

// CreateConversation inserts the conversation and both participant rows in a
// single transaction, so a conversation without participants can never be
// observed.
func (c *Cockroach) CreateConversation(ctx context.Context, in types.CreateConversation) (types.Conversation, error) {
	var out types.Conversation
	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		if in.Kind == types.ConversationKindDirect {
			mutual, err := c.contactsEachOther(ctx, in.LoggedInUserID(), in.OtherUserID)
			if err != nil {
				return err
			}

			in.SetMutualContacts(mutual)
		}

		conversation, err := c.insertConversation(ctx, in)
		if err != nil {
			return err
		}

		in.SetConversationID(conversation.ID)

		if err := c.insertParticipants(ctx, in); err != nil {
			return err
		}

		out = conversation

		return nil
	})
}

func (c *Cockroach) insertConversation(ctx context.Context, in types.CreateConversation) (types.Conversation, error) {
	var out types.Conversation

	// Random conversations skip the request phase entirely. Direct ones start
	// pending unless the pair already trust each other as mutual contacts.
	status := types.ConversationStatusPending
	if in.Kind == types.ConversationKindRandom || in.MutualContacts() {
		status = types.ConversationStatusAccepted
	}

	const q = `
		INSERT INTO conversations (id, kind, status, creator_id)
		VALUES (@conversation_id, @kind, @status, @creator_id)
		RETURNING *
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": id.Generate(),
		"kind":            in.Kind,
		"status":          status,
		"creator_id":      in.LoggedInUserID(),
	})
	if err != nil {
		return out, fmt.Errorf("sql insert conversation: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if err != nil {
		return out, fmt.Errorf("sql collect inserted conversation: %w", err)
	}

	return out, nil
}

func (c *Cockroach) insertParticipants(ctx context.Context, in types.CreateConversation) error {
	const q = `
		INSERT INTO conversation_participants (conversation_id, user_id)
		VALUES (@conversation_id, @user_id)
			 , (@conversation_id, @other_user_id)
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": in.ConversationID(),
		"user_id":         in.LoggedInUserID(),
		"other_user_id":   in.OtherUserID,
	})
	if err != nil {
		return fmt.Errorf("sql insert participants: %w", err)
	}

	return nil
}

func (c *Cockroach) Conversation(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error) {
	var out types.Conversation

	const q = `
		SELECT conversations.*,
			json_build_object(
				'conversationID', conversation_participants.conversation_id,
				'userID', conversation_participants.user_id,
				'joinedAt', conversation_participants.joined_at,
				'isArchived', conversation_participants.is_archived,
				'hasUnread', conversation_participants.has_unread,
				'lastReadAt', conversation_participants.last_read_at,
				'otherUser', json_build_object(
					'id', other_user.id,
					'username', other_user.username,
					'avatar', other_user.avatar
				)
			) AS participation
		FROM conversations
		INNER JOIN conversation_participants ON conversation_participants.conversation_id = conversations.id
		INNER JOIN conversation_participants AS other_participant ON other_participant.conversation_id = conversations.id
			AND other_participant.user_id != conversation_participants.user_id
		INNER JOIN users AS other_user ON other_user.id = other_participant.user_id
		WHERE conversations.id = @conversation_id
			AND conversation_participants.user_id = @user_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": in.ConversationID,
		"user_id":         in.LoggedInUserID(),
	})
	if err != nil {
		return out, fmt.Errorf("sql select conversation: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("conversation not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect conversation: %w", err)
	}

	return out, nil
}

func (c *Cockroach) Conversations(ctx context.Context, in types.ListConversations) (types.Page[types.Conversation], error) {
	var out types.Page[types.Conversation]

	query := `
		SELECT conversations.*,
			json_build_object(
				'conversationID', conversation_participants.conversation_id,
				'userID', conversation_participants.user_id,
				'joinedAt', conversation_participants.joined_at,
				'isArchived', conversation_participants.is_archived,
				'hasUnread', conversation_participants.has_unread,
				'lastReadAt', conversation_participants.last_read_at,
				'otherUser', json_build_object(
					'id', other_user.id,
					'username', other_user.username,
					'avatar', other_user.avatar
				)
			) AS participation
		FROM conversations
		INNER JOIN conversation_participants ON conversation_participants.conversation_id = conversations.id
		INNER JOIN conversation_participants AS other_participant ON other_participant.conversation_id = conversations.id
			AND other_participant.user_id != conversation_participants.user_id
		INNER JOIN users AS other_user ON other_user.id = other_participant.user_id
		WHERE conversation_participants.user_id = @user_id
			AND NOT conversation_participants.is_archived
	`
	args := pgx.NamedArgs{
		"user_id": in.LoggedInUserID(),
	}

	query, err := addPageFilter(query, "conversations", args, in.PageArgs)
	if err != nil {
		return out, err
	}

	query = addPageOrder(query, "conversations", in.PageArgs)
	query = addPageLimit(query, args, in.PageArgs)

	rows, err := c.db.Query(ctx, query, args)
	if err != nil {
		return out, fmt.Errorf("sql select conversations: %w", err)
	}

	out.Items, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Conversation])
	if err != nil {
		return out, fmt.Errorf("sql collect conversations: %w", err)
	}

	err = applyPageInfo(&out, in.PageArgs, func(conversation types.Conversation) Cursor {
		return Cursor{ID: conversation.ID, CreatedAt: conversation.CreatedAt}
	})

	return out, err
}

// UpdateConversationStatus accepts or rejects a pending conversation. Only a
// participant other than the creator may decide.
func (c *Cockroach) UpdateConversationStatus(ctx context.Context, in types.UpdateConversationStatus) error {
	const q = `
		UPDATE conversations
		SET status = @status
		WHERE id = @conversation_id
			AND status = @pending_status
			AND creator_id != @user_id
			AND EXISTS (
				SELECT 1 FROM conversation_participants
				WHERE conversation_participants.conversation_id = conversations.id
					AND conversation_participants.user_id = @user_id
			)
	`

	tag, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": in.ConversationID,
		"status":          in.Status,
		"pending_status":  types.ConversationStatusPending,
		"user_id":         in.LoggedInUserID(),
	})
	if err != nil {
		return fmt.Errorf("sql update conversation status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("pending conversation not found")
	}

	return nil
}

// ArchiveConversation archives the conversation for one participant only.
func (c *Cockroach) ArchiveConversation(ctx context.Context, in types.ArchiveConversation) error {
	const q = `
		UPDATE conversation_participants
		SET is_archived = true
		WHERE conversation_id = @conversation_id
			AND user_id = @user_id
	`

	tag, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": in.ConversationID,
		"user_id":         in.LoggedInUserID(),
	})
	if err != nil {
		return fmt.Errorf("sql archive conversation: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("conversation not found")
	}

	return nil
}
