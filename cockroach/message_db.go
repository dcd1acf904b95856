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

func (c *Cockroach) CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error) {
	var out types.Message
	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		conversation, err := c.senderConversation(ctx, in.ConversationID, in.LoggedInUserID())
		if err != nil {
			return err
		}

		if conversation.Status != types.ConversationStatusAccepted {
			return errs.NewPermissionDeniedError("cannot send message: conversation not accepted yet")
		}

		msg, err := c.insertMessage(ctx, in)
		if err != nil {
			return err
		}

		if err := c.touchConversation(ctx, in.ConversationID); err != nil {
			return err
		}

		if err := c.markConversationUnreadForRecipient(ctx, in.ConversationID, in.LoggedInUserID()); err != nil {
			return err
		}

		out = msg
		return nil
	})
}

func (c *Cockroach) insertMessage(ctx context.Context, in types.CreateMessage) (types.Message, error) {
	var out types.Message

	const q = `
		INSERT INTO messages (id, conversation_id, sender_id, content, media)
		VALUES (@message_id, @conversation_id, @sender_id, @content, @media)
		RETURNING id, conversation_id, sender_id, content, media, created_at
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"message_id":      id.Generate(),
		"conversation_id": in.ConversationID,
		"sender_id":       in.LoggedInUserID(),
		"content":         in.Content,
		"media":           in.MediaPaths(),
	})
	if err != nil {
		return out, fmt.Errorf("sql insert message: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Message])
	if err != nil {
		return out, fmt.Errorf("sql collect inserted message: %w", err)
	}

	return out, nil
}

// Messages lists a page of messages and marks the conversation read for the
// caller in the same transaction.
func (c *Cockroach) Messages(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error) {
	var out types.Page[types.Message]
	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		msgs, err := c.messages(ctx, in)
		if err != nil {
			return err
		}

		if err := c.markConversationRead(ctx, in.ConversationID, in.LoggedInUserID()); err != nil {
			return err
		}

		out = msgs
		return nil
	})
}

func (c *Cockroach) messages(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error) {
	var out types.Page[types.Message]

	query := `
		SELECT messages.*,
			to_json(users) AS sender,
			json_build_object(
				'isMine', messages.sender_id = @user_id
			) AS relationship
		FROM messages
		INNER JOIN users ON users.id = messages.sender_id
		WHERE messages.conversation_id = @conversation_id
			AND EXISTS (
				SELECT 1 FROM conversation_participants
				WHERE conversation_participants.conversation_id = messages.conversation_id
					AND conversation_participants.user_id = @user_id
			)
	`
	args := pgx.NamedArgs{
		"conversation_id": in.ConversationID,
		"user_id":         in.LoggedInUserID(),
	}

	query, err := addPageFilter(query, "messages", args, in.PageArgs)
	if err != nil {
		return out, err
	}

	query = addPageOrder(query, "messages", in.PageArgs)
	query = addPageLimit(query, args, in.PageArgs)

	rows, err := c.db.Query(ctx, query, args)
	if err != nil {
		return out, fmt.Errorf("sql select messages: %w", err)
	}

	out.Items, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Message])
	if err != nil {
		return out, fmt.Errorf("sql collect messages: %w", err)
	}

	err = applyPageInfo(&out, in.PageArgs, func(msg types.Message) Cursor {
		return Cursor{ID: msg.ID, CreatedAt: msg.CreatedAt}
	})

	return out, err
}

func (c *Cockroach) senderConversation(ctx context.Context, conversationID, userID string) (types.Conversation, error) {
	var out types.Conversation

	const q = `
		SELECT conversations.*
		FROM conversations
		INNER JOIN conversation_participants ON conversation_participants.conversation_id = conversations.id
		WHERE conversations.id = @conversation_id
			AND conversation_participants.user_id = @user_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
		"user_id":         userID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select sender conversation: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("conversation not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect sender conversation: %w", err)
	}

	return out, nil
}

func (c *Cockroach) touchConversation(ctx context.Context, conversationID string) error {
	const q = `
		UPDATE conversations
		SET last_message_at = now()
		WHERE id = @conversation_id
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
	})
	if err != nil {
		return fmt.Errorf("sql touch conversation: %w", err)
	}

	return nil
}

func (c *Cockroach) markConversationUnreadForRecipient(ctx context.Context, conversationID, senderUserID string) error {
	const q = `
		UPDATE conversation_participants
		SET has_unread = true
		WHERE conversation_id = @conversation_id
			AND user_id != @sender_user_id
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
		"sender_user_id":  senderUserID,
	})
	if err != nil {
		return fmt.Errorf("sql mark conversation unread: %w", err)
	}

	return nil
}

func (c *Cockroach) markConversationRead(ctx context.Context, conversationID, userID string) error {
	const q = `
		UPDATE conversation_participants
		SET has_unread = false,
			last_read_at = now()
		WHERE conversation_id = @conversation_id
			AND user_id = @user_id
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
		"user_id":         userID,
	})
	if err != nil {
		return fmt.Errorf("sql mark conversation read: %w", err)
	}

	return nil
}
