package service

import (
	"context"
	"testing"
	"time"

	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/types"
)

func TestCreateStatusUpdate(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	alice := store.addUser("alice")

	status, err := svc.CreateStatusUpdate(asUser(alice), types.CreateStatusUpdate{
		Content: "  hello out there  ",
	})
	if err != nil {
		t.Fatalf("create status: %v", err)
	}

	if status.Content != "hello out there" {
		t.Errorf("content = %q, want trimmed", status.Content)
	}
	if status.Privacy != types.StatusPrivacyEveryone {
		t.Errorf("privacy = %q, want default %q", status.Privacy, types.StatusPrivacyEveryone)
	}
	if status.BackgroundColor == "" {
		t.Error("background color should default")
	}

	ttl := time.Until(status.ExpiresAt)
	if ttl < 23*time.Hour || ttl > 25*time.Hour {
		t.Errorf("expires in %v, want about 24h", ttl)
	}
}

func TestCreateStatusUpdate_Validates(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	alice := store.addUser("alice")

	tt := []struct {
		name string
		in   types.CreateStatusUpdate
	}{
		{name: "empty_content", in: types.CreateStatusUpdate{Content: "   "}},
		{name: "bad_privacy", in: types.CreateStatusUpdate{Content: "hi", Privacy: "custom"}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateStatusUpdate(asUser(alice), tc.in); err == nil {
				t.Fatalf("input %+v should be rejected", tc.in)
			}
		})
	}

	if _, err := svc.CreateStatusUpdate(context.Background(), types.CreateStatusUpdate{Content: "hi"}); err == nil {
		t.Fatal("create status without a user should fail")
	}
}

func TestStatusUpdates_Visibility(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	alice := store.addUser("alice")
	bob := store.addUser("bob")
	carol := store.addUser("carol")

	public, err := svc.CreateStatusUpdate(asUser(alice), types.CreateStatusUpdate{Content: "for everyone"})
	if err != nil {
		t.Fatalf("create public status: %v", err)
	}

	private, err := svc.CreateStatusUpdate(asUser(alice), types.CreateStatusUpdate{
		Content: "for my contacts",
		Privacy: types.StatusPrivacyContacts,
	})
	if err != nil {
		t.Fatalf("create contacts status: %v", err)
	}

	// Alice keeps bob in her contacts; carol is a stranger.
	if err := svc.AddContact(asUser(alice), types.AddContact{ContactID: bob.ID}); err != nil {
		t.Fatalf("add contact: %v", err)
	}

	ids := func(statuses []types.StatusUpdate) map[string]bool {
		got := map[string]bool{}
		for _, status := range statuses {
			got[status.ID] = true
		}
		return got
	}

	bobSees, err := svc.StatusUpdates(asUser(bob))
	if err != nil {
		t.Fatalf("bob list statuses: %v", err)
	}
	if got := ids(bobSees); !got[public.ID] || !got[private.ID] {
		t.Errorf("bob sees %v, want both of alice's statuses", got)
	}

	carolSees, err := svc.StatusUpdates(asUser(carol))
	if err != nil {
		t.Fatalf("carol list statuses: %v", err)
	}
	if got := ids(carolSees); !got[public.ID] || got[private.ID] {
		t.Errorf("carol sees %v, want only the public status", got)
	}

	aliceSees, err := svc.StatusUpdates(asUser(alice))
	if err != nil {
		t.Fatalf("alice list statuses: %v", err)
	}
	if got := ids(aliceSees); !got[public.ID] || !got[private.ID] {
		t.Errorf("alice sees %v, want her own statuses", got)
	}

	// Expired statuses drop out of the feed.
	store.expireStatus(public.ID)

	bobSees, err = svc.StatusUpdates(asUser(bob))
	if err != nil {
		t.Fatalf("bob list statuses again: %v", err)
	}
	if got := ids(bobSees); got[public.ID] {
		t.Error("expired status still listed")
	}
}

func TestViewStatusUpdate_CountsUniqueViewers(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	alice := store.addUser("alice")
	bob := store.addUser("bob")
	carol := store.addUser("carol")

	status, err := svc.CreateStatusUpdate(asUser(alice), types.CreateStatusUpdate{Content: "hi"})
	if err != nil {
		t.Fatalf("create status: %v", err)
	}

	// Bob views twice, carol once, alice views her own. That is two views.
	for _, viewer := range []types.User{bob, bob, carol, alice} {
		if err := svc.ViewStatusUpdate(asUser(viewer), status.ID); err != nil {
			t.Fatalf("view status as %s: %v", viewer.Username, err)
		}
	}

	got, err := store.StatusUpdate(context.Background(), status.ID)
	if err != nil {
		t.Fatalf("retrieve status: %v", err)
	}
	if got.ViewCount != 2 {
		t.Errorf("view count = %d, want 2", got.ViewCount)
	}
}

func TestStatusViewers_PosterOnly(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	alice := store.addUser("alice")
	bob := store.addUser("bob")

	status, err := svc.CreateStatusUpdate(asUser(alice), types.CreateStatusUpdate{Content: "hi"})
	if err != nil {
		t.Fatalf("create status: %v", err)
	}

	if err := svc.ViewStatusUpdate(asUser(bob), status.ID); err != nil {
		t.Fatalf("view status: %v", err)
	}

	viewers, err := svc.StatusViewers(asUser(alice), status.ID)
	if err != nil {
		t.Fatalf("list viewers: %v", err)
	}
	if len(viewers) != 1 || viewers[0].ViewerID != bob.ID {
		t.Errorf("viewers = %+v, want just bob", viewers)
	}
	if viewers[0].Viewer == nil || viewers[0].Viewer.Username != "bob" {
		t.Errorf("viewer profile = %+v, want bob's", viewers[0].Viewer)
	}

	if _, err := svc.StatusViewers(asUser(bob), status.ID); !errs.IsPermissionDenied(err) {
		t.Fatalf("non-poster viewers err = %v, want permission denied", err)
	}
}

func TestPurgeExpiredStatusUpdates(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	alice := store.addUser("alice")

	live, err := svc.CreateStatusUpdate(asUser(alice), types.CreateStatusUpdate{Content: "fresh"})
	if err != nil {
		t.Fatalf("create status: %v", err)
	}
	dead, err := svc.CreateStatusUpdate(asUser(alice), types.CreateStatusUpdate{Content: "stale"})
	if err != nil {
		t.Fatalf("create status: %v", err)
	}
	store.expireStatus(dead.ID)

	n, err := svc.PurgeExpiredStatusUpdates(context.Background())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}

	if _, err := store.StatusUpdate(context.Background(), live.ID); err != nil {
		t.Errorf("live status should remain: %v", err)
	}
	if _, err := store.StatusUpdate(context.Background(), dead.ID); !errs.IsNotFound(err) {
		t.Errorf("dead status err = %v, want not found", err)
	}
}
