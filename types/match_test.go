package types

import "testing"

func TestMatchResult_PeerProfile(t *testing.T) {
	peer := User{ID: "peer", Email: "peer@example.org", Username: "peer"}

	tests := []struct {
		name          string
		ownAnonymous  bool
		peerAnonymous bool
		wantUsername  string
		wantEmail     string
	}{
		{
			name:         "both_visible",
			wantUsername: "peer",
			wantEmail:    "peer@example.org",
		},
		{
			name:          "peer_anonymous",
			peerAnonymous: true,
			wantUsername:  "Anonymous",
		},
		{
			name:         "own_anonymous_hides_peer_too",
			ownAnonymous: true,
			wantUsername: "Anonymous",
		},
		{
			name:          "both_anonymous",
			ownAnonymous:  true,
			peerAnonymous: true,
			wantUsername:  "Anonymous",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := MatchResult{
				Own:      QueueEntry{UserID: "own", IsAnonymous: tc.ownAnonymous},
				Peer:     QueueEntry{UserID: "peer", IsAnonymous: tc.peerAnonymous},
				PeerUser: peer,
			}

			got := result.PeerProfile()
			if got.Username != tc.wantUsername {
				t.Errorf("username = %q, want %q", got.Username, tc.wantUsername)
			}
			if got.Email != tc.wantEmail {
				t.Errorf("email = %q, want %q", got.Email, tc.wantEmail)
			}
			if got.ID != "peer" {
				t.Errorf("ID = %q, want %q", got.ID, "peer")
			}
		})
	}
}
