package cockroach

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/jackc/pgx/v5"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/ptr"
	"github.com/ripplechat/ripple/types"
	"github.com/vmihailenco/msgpack/v5"
)

const defaultPageSize = 25

// Cursor is a keyset pagination cursor over (created_at, id).
type Cursor struct {
	ID        string    `msgpack:"i"`
	CreatedAt time.Time `msgpack:"t"`
}

func EncodeCursor(cursor Cursor) (string, error) {
	b, err := msgpack.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("msgpack marshal cursor: %w", err)
	}

	return base58.Encode(b), nil
}

func DecodeCursor(s string) (Cursor, error) {
	var c Cursor

	b := base58.Decode(s)
	if err := msgpack.Unmarshal(b, &c); err != nil {
		return c, errs.NewInvalidArgumentError("After", "invalid cursor")
	}

	return c, nil
}

// addPageFilter appends the keyset predicate for descending (created_at, id)
// pagination. The query must already contain a WHERE clause.
func addPageFilter(query, table string, args pgx.NamedArgs, pageArgs types.PageArgs) (string, error) {
	if pageArgs.After == nil {
		return query, nil
	}

	after, err := DecodeCursor(*pageArgs.After)
	if err != nil {
		return "", err
	}

	query += fmt.Sprintf(" AND (%[1]s.created_at, %[1]s.id) < (@cursor_created_at, @cursor_id) ", table)
	args["cursor_created_at"] = after.CreatedAt
	args["cursor_id"] = after.ID

	return query, nil
}

func addPageOrder(query, table string, pageArgs types.PageArgs) string {
	return query + fmt.Sprintf(" ORDER BY %[1]s.created_at DESC, %[1]s.id DESC ", table)
}

func addPageLimit(query string, args pgx.NamedArgs, pageArgs types.PageArgs) string {
	// one extra row to learn whether a next page exists
	args["limit"] = ptr.Or(pageArgs.First, defaultPageSize) + 1
	return query + " LIMIT @limit "
}

// applyPageInfo trims the look-ahead row and fills in the end cursor.
func applyPageInfo[T any](page *types.Page[T], pageArgs types.PageArgs, cursorFunc func(item T) Cursor) error {
	first := ptr.Or(pageArgs.First, defaultPageSize)

	if uint(len(page.Items)) > first {
		page.PageInfo.HasNextPage = true
		page.Items = page.Items[:first]
	}

	if len(page.Items) == 0 {
		return nil
	}

	end, err := EncodeCursor(cursorFunc(page.Items[len(page.Items)-1]))
	if err != nil {
		return fmt.Errorf("encode end cursor: %w", err)
	}

	page.PageInfo.EndCursor = ptr.From(end)

	return nil
}
