package types

import (
	"time"

	"github.com/ripplechat/ripple/id"
	"github.com/ripplechat/ripple/validator"
)

// QueueEntry is a user waiting for a random match. At most one live entry
// exists per user: joining again replaces interests and anonymity and resets
// the enqueue timestamp.
type QueueEntry struct {
	UserID      string    `db:"user_id" json:"userID"`
	Interests   []string  `db:"interests" json:"interests"`
	IsAnonymous bool      `db:"is_anonymous" json:"isAnonymous"`
	EnqueuedAt  time.Time `db:"enqueued_at" json:"enqueuedAt"`

	User *User `db:"user,omitempty" json:"user,omitempty"`
}

type UpsertQueueEntry struct {
	Interests   []string
	IsAnonymous bool

	loggedInUserID string
}

func (in *UpsertQueueEntry) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in UpsertQueueEntry) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *UpsertQueueEntry) Validate() error {
	v := validator.New()

	// An absent interest list is an empty one; the column is an array that
	// never goes NULL.
	if in.Interests == nil {
		in.Interests = []string{}
	}

	seen := map[string]bool{}
	for _, interest := range in.Interests {
		if interest == "" {
			v.AddError("Interests", "Interests cannot contain empty tags")
			break
		}
		if seen[interest] {
			v.AddError("Interests", "Interests cannot contain duplicates")
			break
		}
		seen[interest] = true
	}

	if len(in.Interests) > 10 {
		v.AddError("Interests", "Too many interests")
	}

	return v.AsError()
}

// ListQueueCandidates selects match candidates for a searching user:
// everyone else in the queue, oldest first, optionally restricted to entries
// whose interest set intersects the caller's.
type ListQueueCandidates struct {
	ExcludeUserID string
	Interests     []string
	Limit         int32
}

func (in *ListQueueCandidates) Validate() error {
	v := validator.New()

	if in.ExcludeUserID == "" {
		v.AddError("ExcludeUserID", "Exclude user ID is required")
	}
	if !id.Valid(in.ExcludeUserID) {
		v.AddError("ExcludeUserID", "Exclude user ID is invalid")
	}

	return v.AsError()
}
