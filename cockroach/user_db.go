package cockroach

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/id"
	"github.com/ripplechat/ripple/types"
)

var userColumns = [...]string{
	"users.id",
	"users.email",
	"users.username",
	"users.avatar",
	"users.bio",
	"users.created_at",
	"users.updated_at",
}

var userColumnsStr = strings.Join(userColumns[:], ", ")

func (c *Cockroach) UpsertUser(ctx context.Context, in types.UpsertUser) (types.User, error) {
	var out types.User

	query := `
		INSERT INTO users (id, email, username)
		VALUES (@user_id, LOWER(@email), @username)
		ON CONFLICT (email) DO UPDATE
		SET username = EXCLUDED.username, updated_at = now()
		RETURNING ` + userColumnsStr + `
	`

	rows, err := c.db.Query(ctx, query, pgx.StrictNamedArgs{
		"user_id":  id.Generate(),
		"email":    in.Email,
		"username": in.Username,
	})
	if err != nil {
		return out, fmt.Errorf("sql upsert user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if err != nil {
		return out, fmt.Errorf("sql collect upserted user: %w", err)
	}

	return out, nil
}

// Users searches profiles by username substring, excluding the caller.
func (c *Cockroach) Users(ctx context.Context, in types.ListUsers) ([]types.User, error) {
	query := `
		SELECT ` + userColumnsStr + `
		FROM users
		WHERE users.username ILIKE '%' || @search || '%'
			AND users.id != @user_id
		ORDER BY users.username ASC
		LIMIT 20
	`

	rows, err := c.db.Query(ctx, query, pgx.StrictNamedArgs{
		"search":  in.SearchQuery,
		"user_id": in.LoggedInUserID(),
	})
	if err != nil {
		return nil, fmt.Errorf("sql search users: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.User])
	if err != nil {
		return nil, fmt.Errorf("sql collect searched users: %w", err)
	}

	return out, nil
}

func (c *Cockroach) User(ctx context.Context, in types.RetrieveUser) (types.User, error) {
	var out types.User

	query := `
		SELECT ` + userColumnsStr + `
		FROM users
		WHERE users.id = @user_id
	`

	rows, err := c.db.Query(ctx, query, pgx.StrictNamedArgs{
		"user_id": in.UserID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("user not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect selected user: %w", err)
	}

	return out, nil
}
