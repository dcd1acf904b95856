package types

import (
	"strings"
	"time"

	"github.com/ripplechat/ripple/id"
	"github.com/ripplechat/ripple/validator"
)

type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email,omitempty"`
	Username  string    `db:"username" json:"username"`
	Avatar    *string   `db:"avatar" json:"avatar"`
	Bio       *string   `db:"bio" json:"bio"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Anonymized strips everything but the identifier. Anonymity is a
// presentation concern only: the row still carries the real identity.
func (u User) Anonymized() User {
	return User{ID: u.ID, Username: "Anonymous", CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

type UpsertUser struct {
	Email    string
	Username string
}

func (in *UpsertUser) Validate() error {
	v := validator.New()

	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if in.Email == "" {
		v.AddError("Email", "Email is required")
	}
	if !strings.Contains(in.Email, "@") {
		v.AddError("Email", "Email is invalid")
	}

	if in.Username == "" {
		v.AddError("Username", "Username is required")
	}

	return v.AsError()
}

// ListUsers searches profiles by username substring. The caller is excluded
// from the results.
type ListUsers struct {
	SearchQuery string

	loggedInUserID string
}

func (in *ListUsers) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListUsers) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ListUsers) Validate() error {
	v := validator.New()

	in.SearchQuery = strings.TrimSpace(in.SearchQuery)

	if len(in.SearchQuery) > 50 {
		v.AddError("SearchQuery", "Search query is too long")
	}

	return v.AsError()
}

type RetrieveUser struct {
	UserID string
}

func (in *RetrieveUser) Validate() error {
	v := validator.New()

	if in.UserID == "" {
		v.AddError("UserID", "User ID is required")
	}
	if !id.Valid(in.UserID) {
		v.AddError("UserID", "User ID is invalid")
	}

	return v.AsError()
}
