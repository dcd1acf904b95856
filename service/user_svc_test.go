package service

import (
	"testing"

	"github.com/ripplechat/ripple/types"
)

func TestUsers_Search(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	alice := store.addUser("alice")
	store.addUser("alicia")
	store.addUser("bob")

	users, err := svc.Users(asUser(alice), types.ListUsers{SearchQuery: "ali"})
	if err != nil {
		t.Fatalf("search users: %v", err)
	}

	// The searcher never shows up in their own results.
	if len(users) != 1 || users[0].Username != "alicia" {
		t.Fatalf("results = %+v, want just alicia", users)
	}
	if users[0].Email != "" {
		t.Errorf("result email = %q, want blanked", users[0].Email)
	}
}

func TestUsers_EmptyQuery(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	alice := store.addUser("alice")
	store.addUser("bob")

	// A blank query must not dump the user table.
	users, err := svc.Users(asUser(alice), types.ListUsers{SearchQuery: "   "})
	if err != nil {
		t.Fatalf("search users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("results = %+v, want none", users)
	}
}
