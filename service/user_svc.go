package service

import (
	"context"

	"github.com/ripplechat/ripple/auth"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/types"
)

// UpsertUser registers or refreshes a user row keyed by email. Called on
// login, so the profile stays in sync with the identity provider.
func (svc *Service) UpsertUser(ctx context.Context, in types.UpsertUser) (types.User, error) {
	var out types.User

	if err := in.Validate(); err != nil {
		return out, err
	}

	return svc.Store.UpsertUser(ctx, in)
}

// Users searches profiles by username substring for the direct conversation
// flow. An empty query returns nothing rather than the whole user table.
func (svc *Service) Users(ctx context.Context, in types.ListUsers) ([]types.User, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.SearchQuery == "" {
		return []types.User{}, nil
	}

	users, err := svc.Store.Users(ctx, in)
	if err != nil {
		return nil, err
	}

	// Emails are private to their owners.
	for i := range users {
		users[i].Email = ""
	}

	return users, nil
}

func (svc *Service) User(ctx context.Context, userID string) (types.User, error) {
	var out types.User

	in := types.RetrieveUser{UserID: userID}
	if err := in.Validate(); err != nil {
		return out, err
	}

	return svc.Store.User(ctx, in)
}
