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

func (c *Cockroach) CreateStatusUpdate(ctx context.Context, in types.CreateStatusUpdate) (types.StatusUpdate, error) {
	var out types.StatusUpdate

	const q = `
		INSERT INTO status_updates (id, user_id, content, background_color, privacy, expires_at)
		VALUES (@status_id, @user_id, @content, COALESCE(NULLIF(@background_color, ''), '#1e293b'), @privacy, now() + INTERVAL '24 hours')
		RETURNING id, user_id, content, background_color, privacy, created_at, expires_at, view_count
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"status_id":        id.Generate(),
		"user_id":          in.LoggedInUserID(),
		"content":          in.Content,
		"background_color": in.BackgroundColor,
		"privacy":          in.Privacy,
	})
	if err != nil {
		return out, fmt.Errorf("sql insert status update: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.StatusUpdate])
	if err != nil {
		return out, fmt.Errorf("sql collect inserted status update: %w", err)
	}

	return out, nil
}

func (c *Cockroach) StatusUpdate(ctx context.Context, statusID string) (types.StatusUpdate, error) {
	var out types.StatusUpdate

	const q = `
		SELECT status_updates.*
		FROM status_updates
		WHERE status_updates.id = @status_id
			AND status_updates.expires_at > now()
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"status_id": statusID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select status update: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.StatusUpdate])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("status update not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect status update: %w", err)
	}

	return out, nil
}

// StatusUpdates lists live statuses visible to the caller: their own, plus
// everyone-privacy ones, plus contacts-privacy ones from posters who added
// the caller as a contact. Newest first.
func (c *Cockroach) StatusUpdates(ctx context.Context, in types.ListStatusUpdates) ([]types.StatusUpdate, error) {
	const q = `
		SELECT status_updates.*,
			to_json(users) AS user
		FROM status_updates
		INNER JOIN users ON users.id = status_updates.user_id
		WHERE status_updates.expires_at > now()
			AND (
				status_updates.user_id = @user_id
				OR status_updates.privacy = 'everyone'
				OR (status_updates.privacy = 'contacts' AND EXISTS (
					SELECT 1 FROM user_contacts
					WHERE user_contacts.user_id = status_updates.user_id
						AND user_contacts.contact_id = @user_id
				))
			)
		ORDER BY status_updates.created_at DESC, status_updates.id DESC
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": in.LoggedInUserID(),
	})
	if err != nil {
		return nil, fmt.Errorf("sql select status updates: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.StatusUpdate])
	if err != nil {
		return nil, fmt.Errorf("sql collect status updates: %w", err)
	}

	return out, nil
}

// ViewStatusUpdate records a unique view and bumps the counter. Views of the
// poster's own status and repeat views change nothing.
func (c *Cockroach) ViewStatusUpdate(ctx context.Context, in types.ViewStatusUpdate) error {
	return c.db.RunTx(ctx, func(ctx context.Context) error {
		const insertView = `
			INSERT INTO status_views (status_id, viewer_id)
			SELECT status_updates.id, @viewer_id
			FROM status_updates
			WHERE status_updates.id = @status_id
				AND status_updates.user_id != @viewer_id
				AND status_updates.expires_at > now()
			ON CONFLICT (status_id, viewer_id) DO NOTHING
		`

		tag, err := c.db.Exec(ctx, insertView, pgx.StrictNamedArgs{
			"status_id": in.StatusID,
			"viewer_id": in.LoggedInUserID(),
		})
		if err != nil {
			return fmt.Errorf("sql insert status view: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return nil
		}

		const bumpCount = `
			UPDATE status_updates
			SET view_count = view_count + 1
			WHERE id = @status_id
		`

		if _, err := c.db.Exec(ctx, bumpCount, pgx.StrictNamedArgs{
			"status_id": in.StatusID,
		}); err != nil {
			return fmt.Errorf("sql bump status view count: %w", err)
		}

		return nil
	})
}

func (c *Cockroach) StatusViewers(ctx context.Context, in types.ListStatusViewers) ([]types.StatusView, error) {
	const q = `
		SELECT status_views.*,
			to_json(users) AS viewer
		FROM status_views
		INNER JOIN users ON users.id = status_views.viewer_id
		WHERE status_views.status_id = @status_id
		ORDER BY status_views.viewed_at DESC
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"status_id": in.StatusID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select status viewers: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.StatusView])
	if err != nil {
		return nil, fmt.Errorf("sql collect status viewers: %w", err)
	}

	return out, nil
}

// DeleteExpiredStatusUpdates reaps statuses past their expiry. View rows go
// with them through the cascade.
func (c *Cockroach) DeleteExpiredStatusUpdates(ctx context.Context) (int64, error) {
	const q = `
		DELETE FROM status_updates
		WHERE expires_at <= now()
	`

	tag, err := c.db.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("sql delete expired status updates: %w", err)
	}

	return tag.RowsAffected(), nil
}
