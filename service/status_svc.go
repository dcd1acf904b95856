package service

import (
	"context"

	"github.com/ripplechat/ripple/auth"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/types"
)

// CreateStatusUpdate posts an ephemeral status card. It expires on its own
// 24 hours later; the reaper only trims the dead rows.
func (svc *Service) CreateStatusUpdate(ctx context.Context, in types.CreateStatusUpdate) (types.StatusUpdate, error) {
	var out types.StatusUpdate

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return out, err
	}

	return svc.Store.CreateStatusUpdate(ctx, in)
}

// StatusUpdates lists live statuses the caller may see: their own, public
// ones, and contacts-only ones from posters who added them.
func (svc *Service) StatusUpdates(ctx context.Context) ([]types.StatusUpdate, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	in := types.ListStatusUpdates{}
	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Store.StatusUpdates(ctx, in)
}

// ViewStatusUpdate marks a status as seen by the caller. Views of one's own
// status and repeat views are no-ops.
func (svc *Service) ViewStatusUpdate(ctx context.Context, statusID string) error {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in := types.ViewStatusUpdate{StatusID: statusID}
	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return err
	}

	return svc.Store.ViewStatusUpdate(ctx, in)
}

// StatusViewers lists who saw a status. Only the poster may ask.
func (svc *Service) StatusViewers(ctx context.Context, statusID string) ([]types.StatusView, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	in := types.ListStatusViewers{StatusID: statusID}
	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	status, err := svc.Store.StatusUpdate(ctx, statusID)
	if err != nil {
		return nil, err
	}

	if status.UserID != loggedInUser.ID {
		return nil, errs.NewPermissionDeniedError("only the poster can see status viewers")
	}

	return svc.Store.StatusViewers(ctx, in)
}

// PurgeExpiredStatusUpdates deletes statuses past their expiry and reports
// how many went. Meant to run periodically.
func (svc *Service) PurgeExpiredStatusUpdates(ctx context.Context) (int64, error) {
	return svc.Store.DeleteExpiredStatusUpdates(ctx)
}
