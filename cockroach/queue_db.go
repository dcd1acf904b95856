package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/types"
)

func (c *Cockroach) UpsertQueueEntry(ctx context.Context, in types.UpsertQueueEntry) (types.QueueEntry, error) {
	var out types.QueueEntry

	const q = `
		INSERT INTO queue_entries (user_id, interests, is_anonymous)
		VALUES (@user_id, @interests, @is_anonymous)
		ON CONFLICT (user_id) DO UPDATE
		SET interests = EXCLUDED.interests,
			is_anonymous = EXCLUDED.is_anonymous,
			enqueued_at = now()
		RETURNING user_id, interests, is_anonymous, enqueued_at
	`

	// pgx encodes a nil slice as NULL, which the NOT NULL array column
	// rejects.
	interests := in.Interests
	if interests == nil {
		interests = []string{}
	}

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id":      in.LoggedInUserID(),
		"interests":    interests,
		"is_anonymous": in.IsAnonymous,
	})
	if err != nil {
		return out, fmt.Errorf("sql upsert queue entry: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.QueueEntry])
	if err != nil {
		return out, fmt.Errorf("sql collect upserted queue entry: %w", err)
	}

	return out, nil
}

// DeleteQueueEntry is idempotent: deleting an absent entry is not an error.
func (c *Cockroach) DeleteQueueEntry(ctx context.Context, userID string) error {
	const q = `
		DELETE FROM queue_entries
		WHERE user_id = @user_id
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return fmt.Errorf("sql delete queue entry: %w", err)
	}

	return nil
}

func (c *Cockroach) QueueEntry(ctx context.Context, userID string) (types.QueueEntry, error) {
	var out types.QueueEntry

	const q = `
		SELECT user_id, interests, is_anonymous, enqueued_at
		FROM queue_entries
		WHERE user_id = @user_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select queue entry: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.QueueEntry])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("queue entry not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect queue entry: %w", err)
	}

	return out, nil
}

// QueueCandidates returns waiting users other than the caller, oldest first.
// With a non-empty interest list only entries with overlapping interests
// qualify.
func (c *Cockroach) QueueCandidates(ctx context.Context, in types.ListQueueCandidates) ([]types.QueueEntry, error) {
	query := `
		SELECT queue_entries.*,
			to_json(users) AS user
		FROM queue_entries
		INNER JOIN users ON users.id = queue_entries.user_id
		WHERE queue_entries.user_id != @exclude_user_id
	`
	args := pgx.NamedArgs{
		"exclude_user_id": in.ExcludeUserID,
		"limit":           in.Limit,
	}

	if len(in.Interests) != 0 {
		query += " AND queue_entries.interests && @interests "
		args["interests"] = in.Interests
	}

	query += `
		ORDER BY queue_entries.enqueued_at ASC, queue_entries.user_id ASC
		LIMIT @limit
	`

	rows, err := c.db.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("sql select queue candidates: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.QueueEntry])
	if err != nil {
		return nil, fmt.Errorf("sql collect queue candidates: %w", err)
	}

	return out, nil
}

// ClaimQueuePair consumes both queue entries of a prospective match in one
// conditional operation. The transaction only commits when both rows were
// still present; otherwise a concurrent matcher won and a conflict error is
// returned with nothing deleted.
func (c *Cockroach) ClaimQueuePair(ctx context.Context, userID, peerID string) error {
	return c.db.RunTx(ctx, func(ctx context.Context) error {
		const q = `
			DELETE FROM queue_entries
			WHERE user_id IN (@user_id, @peer_id)
		`

		tag, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
			"user_id": userID,
			"peer_id": peerID,
		})
		if err != nil {
			return fmt.Errorf("sql delete queue pair: %w", err)
		}

		if tag.RowsAffected() != 2 {
			return errs.NewConflictError("queue entry already claimed")
		}

		return nil
	})
}
