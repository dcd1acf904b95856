package cockroach

import (
	"testing"
	"time"

	"github.com/ripplechat/ripple/ptr"
	"github.com/ripplechat/ripple/types"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		ID:        "cmf1q2rs3tuv4wxy5z67",
		CreatedAt: time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC),
	}

	s, err := EncodeCursor(want)
	if err != nil {
		t.Fatalf("encode cursor: %v", err)
	}

	got, err := DecodeCursor(s)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}

	if got.ID != want.ID || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestDecodeCursor_Garbage(t *testing.T) {
	if _, err := DecodeCursor("not a cursor"); err == nil {
		t.Fatal("garbage cursor should not decode")
	}
}

func Test_applyPageInfo(t *testing.T) {
	type item struct {
		ID        string
		CreatedAt time.Time
	}

	mk := func(n int) []item {
		out := make([]item, n)
		for i := range out {
			out[i] = item{ID: string(rune('a' + i)), CreatedAt: time.Now()}
		}
		return out
	}

	tests := []struct {
		name       string
		items      []item
		first      *uint
		wantLen    int
		wantNext   bool
		wantCursor bool
	}{
		{
			name:    "empty",
			items:   nil,
			wantLen: 0,
		},
		{
			name:       "under_page_size",
			items:      mk(3),
			first:      ptr.From(uint(5)),
			wantLen:    3,
			wantCursor: true,
		},
		{
			name:       "look_ahead_row_trimmed",
			items:      mk(6),
			first:      ptr.From(uint(5)),
			wantLen:    5,
			wantNext:   true,
			wantCursor: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page := types.Page[item]{Items: tc.items}
			err := applyPageInfo(&page, types.PageArgs{First: tc.first}, func(it item) Cursor {
				return Cursor{ID: it.ID, CreatedAt: it.CreatedAt}
			})
			if err != nil {
				t.Fatalf("applyPageInfo() error = %v", err)
			}

			if len(page.Items) != tc.wantLen {
				t.Errorf("len(items) = %d, want %d", len(page.Items), tc.wantLen)
			}
			if page.PageInfo.HasNextPage != tc.wantNext {
				t.Errorf("hasNextPage = %v, want %v", page.PageInfo.HasNextPage, tc.wantNext)
			}
			if (page.PageInfo.EndCursor != nil) != tc.wantCursor {
				t.Errorf("endCursor = %v, want present=%v", page.PageInfo.EndCursor, tc.wantCursor)
			}
		})
	}
}
