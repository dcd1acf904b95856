package types

import (
	"github.com/ripplechat/ripple/id"
	"github.com/ripplechat/ripple/validator"
)

type Contact struct {
	UserID    string `db:"user_id" json:"userID"`
	ContactID string `db:"contact_id" json:"contactID"`

	Contact *User `db:"contact,omitempty" json:"contact,omitempty"`
}

type AddContact struct {
	ContactID string

	loggedInUserID string
}

func (in *AddContact) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in AddContact) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *AddContact) Validate() error {
	v := validator.New()

	if in.ContactID == "" {
		v.AddError("ContactID", "Contact ID is required")
	}
	if !id.Valid(in.ContactID) {
		v.AddError("ContactID", "Contact ID is invalid")
	}
	if in.ContactID == in.loggedInUserID && in.loggedInUserID != "" {
		v.AddError("ContactID", "Cannot add yourself as a contact")
	}

	return v.AsError()
}

type BlockUser struct {
	BlockedID string

	loggedInUserID string
}

func (in *BlockUser) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in BlockUser) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *BlockUser) Validate() error {
	v := validator.New()

	if in.BlockedID == "" {
		v.AddError("BlockedID", "Blocked user ID is required")
	}
	if !id.Valid(in.BlockedID) {
		v.AddError("BlockedID", "Blocked user ID is invalid")
	}
	if in.BlockedID == in.loggedInUserID && in.loggedInUserID != "" {
		v.AddError("BlockedID", "Cannot block yourself")
	}

	return v.AsError()
}
