package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ripplechat/ripple/types"
)

func (c *Cockroach) AddContact(ctx context.Context, in types.AddContact) error {
	const q = `
		INSERT INTO user_contacts (user_id, contact_id)
		VALUES (@user_id, @contact_id)
		ON CONFLICT (user_id, contact_id) DO NOTHING
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"user_id":    in.LoggedInUserID(),
		"contact_id": in.ContactID,
	})
	if err != nil {
		return fmt.Errorf("sql insert contact: %w", err)
	}

	return nil
}

func (c *Cockroach) contactsEachOther(ctx context.Context, userID, otherUserID string) (bool, error) {
	var mutual bool

	const q = `
		SELECT EXISTS (
			SELECT 1 FROM user_contacts
			WHERE user_id = @user_id AND contact_id = @other_user_id
		) AND EXISTS (
			SELECT 1 FROM user_contacts
			WHERE user_id = @other_user_id AND contact_id = @user_id
		)
	`

	err := c.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
		"user_id":       userID,
		"other_user_id": otherUserID,
	}).Scan(&mutual)
	if err != nil {
		return false, fmt.Errorf("sql select contacts each other: %w", err)
	}

	return mutual, nil
}

func (c *Cockroach) BlockUser(ctx context.Context, in types.BlockUser) error {
	const q = `
		INSERT INTO blocked_users (blocker_id, blocked_id)
		VALUES (@blocker_id, @blocked_id)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"blocker_id": in.LoggedInUserID(),
		"blocked_id": in.BlockedID,
	})
	if err != nil {
		return fmt.Errorf("sql insert blocked user: %w", err)
	}

	return nil
}

func (c *Cockroach) UnblockUser(ctx context.Context, in types.BlockUser) error {
	const q = `
		DELETE FROM blocked_users
		WHERE blocker_id = @blocker_id
			AND blocked_id = @blocked_id
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"blocker_id": in.LoggedInUserID(),
		"blocked_id": in.BlockedID,
	})
	if err != nil {
		return fmt.Errorf("sql delete blocked user: %w", err)
	}

	return nil
}

// BlockedEitherWay reports whether either user has blocked the other.
func (c *Cockroach) BlockedEitherWay(ctx context.Context, userID, otherUserID string) (bool, error) {
	var blocked bool

	const q = `
		SELECT EXISTS (
			SELECT 1 FROM blocked_users
			WHERE (blocker_id = @user_id AND blocked_id = @other_user_id)
				OR (blocker_id = @other_user_id AND blocked_id = @user_id)
		)
	`

	err := c.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
		"user_id":       userID,
		"other_user_id": otherUserID,
	}).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("sql select blocked either way: %w", err)
	}

	return blocked, nil
}
