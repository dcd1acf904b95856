package types

import (
	"strings"
	"time"

	"github.com/ripplechat/ripple/id"
	"github.com/ripplechat/ripple/validator"
)

type StatusPrivacy string

const (
	StatusPrivacyEveryone StatusPrivacy = "everyone"
	StatusPrivacyContacts StatusPrivacy = "contacts"
)

func (p StatusPrivacy) String() string {
	return string(p)
}

// StatusUpdate is an ephemeral broadcast: a short text card that disappears
// 24 hours after posting.
type StatusUpdate struct {
	ID              string        `db:"id" json:"id"`
	UserID          string        `db:"user_id" json:"userID"`
	Content         string        `db:"content" json:"content"`
	BackgroundColor string        `db:"background_color" json:"backgroundColor"`
	Privacy         StatusPrivacy `db:"privacy" json:"privacy"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
	ExpiresAt       time.Time     `db:"expires_at" json:"expiresAt"`
	ViewCount       int32         `db:"view_count" json:"viewCount"`

	User *User `db:"user,omitempty" json:"user,omitempty"`
}

// StatusView records that a user saw a status. One row per viewer; repeat
// views do not bump the count.
type StatusView struct {
	StatusID string    `db:"status_id" json:"statusID"`
	ViewerID string    `db:"viewer_id" json:"viewerID"`
	ViewedAt time.Time `db:"viewed_at" json:"viewedAt"`

	Viewer *User `db:"viewer,omitempty" json:"viewer,omitempty"`
}

type CreateStatusUpdate struct {
	Content         string
	BackgroundColor string
	Privacy         StatusPrivacy

	loggedInUserID string
}

func (in *CreateStatusUpdate) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CreateStatusUpdate) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CreateStatusUpdate) Validate() error {
	v := validator.New()

	in.Content = strings.TrimSpace(in.Content)

	if in.Content == "" {
		v.AddError("Content", "Content is required")
	}
	if len(in.Content) > 500 {
		v.AddError("Content", "Content is too long")
	}

	if in.Privacy == "" {
		in.Privacy = StatusPrivacyEveryone
	}
	switch in.Privacy {
	case StatusPrivacyEveryone, StatusPrivacyContacts:
	default:
		v.AddError("Privacy", "Privacy must be everyone or contacts")
	}

	return v.AsError()
}

type ListStatusUpdates struct {
	loggedInUserID string
}

func (in *ListStatusUpdates) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListStatusUpdates) LoggedInUserID() string {
	return in.loggedInUserID
}

type ViewStatusUpdate struct {
	StatusID string

	loggedInUserID string
}

func (in *ViewStatusUpdate) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ViewStatusUpdate) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ViewStatusUpdate) Validate() error {
	v := validator.New()

	if in.StatusID == "" {
		v.AddError("StatusID", "Status ID is required")
	}
	if !id.Valid(in.StatusID) {
		v.AddError("StatusID", "Status ID is invalid")
	}

	return v.AsError()
}

type ListStatusViewers struct {
	StatusID string

	loggedInUserID string
}

func (in *ListStatusViewers) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListStatusViewers) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ListStatusViewers) Validate() error {
	v := validator.New()

	if in.StatusID == "" {
		v.AddError("StatusID", "Status ID is required")
	}
	if !id.Valid(in.StatusID) {
		v.AddError("StatusID", "Status ID is invalid")
	}

	return v.AsError()
}
