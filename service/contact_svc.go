package service

import (
	"context"

	"github.com/ripplechat/ripple/auth"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/types"
)

// AddContact saves another user to the caller's contacts. One-directional;
// direct conversations between mutual contacts skip the pending handshake.
func (svc *Service) AddContact(ctx context.Context, in types.AddContact) error {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return err
	}

	blocked, err := svc.Store.BlockedEitherWay(ctx, loggedInUser.ID, in.ContactID)
	if err != nil {
		return err
	}

	if blocked {
		return errs.NewPermissionDeniedError("cannot add this user as a contact")
	}

	return svc.Store.AddContact(ctx, in)
}

func (svc *Service) BlockUser(ctx context.Context, in types.BlockUser) error {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return err
	}

	return svc.Store.BlockUser(ctx, in)
}

func (svc *Service) UnblockUser(ctx context.Context, in types.BlockUser) error {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return err
	}

	return svc.Store.UnblockUser(ctx, in)
}
